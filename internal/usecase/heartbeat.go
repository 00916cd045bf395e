package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type heartbeater interface {
	Heartbeat()
}

// HeartbeatScheduler drives the process-wide heartbeat on a fixed schedule.
type HeartbeatScheduler struct {
	logger   *slog.Logger
	target   heartbeater
	interval time.Duration
}

func NewHeartbeatScheduler(logger *slog.Logger, target heartbeater, interval time.Duration) *HeartbeatScheduler {
	return &HeartbeatScheduler{
		logger:   logger,
		target:   target,
		interval: interval,
	}
}

// Run beats until ctx is done, then waits for a beat in flight to finish.
func (that *HeartbeatScheduler) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run", "interval", that.interval.String())

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := c.AddFunc("@every "+that.interval.String(), that.target.Heartbeat); err != nil {
		return fmt.Errorf("failed to schedule heartbeat: %w", err)
	}

	c.Start()
	log.Info("heartbeat started")

	<-ctx.Done()

	<-c.Stop().Done()
	log.Info("heartbeat stopped")

	return nil
}
