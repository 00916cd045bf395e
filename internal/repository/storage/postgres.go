package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	postgresMaxRetries    = 3
	postgresRetryInterval = 5 * time.Second
)

type PostgresStorage struct {
	Connection *gorm.DB
}

// NewPostgresStorage opens dsn, retrying while the database is still starting up.
func NewPostgresStorage(ctx context.Context, log *slog.Logger, dsn string) (*PostgresStorage, error) {
	var err error

	for attempt := 0; attempt <= postgresMaxRetries; attempt++ {
		var conn *gorm.DB

		conn, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if err == nil {
			return &PostgresStorage{Connection: conn}, nil
		}

		log.Warn("could not connect to postgres, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to connect to postgres: %w", ctx.Err())
		case <-time.After(postgresRetryInterval):
		}
	}

	return nil, fmt.Errorf("failed to connect to postgres: %w", err)
}

func (that *PostgresStorage) Close() error {
	db, err := that.Connection.DB()
	if err != nil {
		return fmt.Errorf("failed to get postgres connection: %w", err)
	}

	return db.Close()
}
