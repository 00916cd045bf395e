package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/supertris-backend/internal/command"
	"github.com/rocketscienceinc/supertris-backend/internal/config"
	"github.com/rocketscienceinc/supertris-backend/internal/protocol"
	"github.com/rocketscienceinc/supertris-backend/internal/repository"
	"github.com/rocketscienceinc/supertris-backend/internal/repository/storage"
	"github.com/rocketscienceinc/supertris-backend/internal/service"
	"github.com/rocketscienceinc/supertris-backend/internal/session"
	"github.com/rocketscienceinc/supertris-backend/internal/usecase"
	"github.com/rocketscienceinc/supertris-backend/transport/rest"
	"github.com/rocketscienceinc/supertris-backend/transport/websocket"
)

type repositories struct {
	games    repository.GameRepository
	messages repository.MessageRepository
	closers  []io.Closer
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, logger, conf)
	if err != nil {
		return err
	}

	defer closeAll(log, repos.closers)

	userStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open user storage: %w", err)
	}

	defer closeAll(log, []io.Closer{userStorage})

	if err = userStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init user storage: %w", err)
	}

	authService := service.NewAuthService(conf.JWTSecretKey)
	userService := service.NewUserService(logger, repository.NewUserRepository(userStorage.Connection))

	validator := command.NewValidator()
	coordinator := usecase.NewGameCoordinator(logger, repos.games, repos.messages, userService, session.NewRegistry())
	heartbeat := usecase.NewHeartbeatScheduler(logger, coordinator, protocol.HeartbeatInterval)

	stream := websocket.New(ctx, logger, coordinator, validator, websocket.Options{
		SendBuffer:     conf.Websocket.SendBuffer,
		ReadLimit:      conf.Websocket.ReadLimit,
		AllowedOrigins: conf.CORSOrigins,
	})

	router := rest.NewRouter(logger, authService, rest.RouterOptions{
		Production:  conf.Production,
		CORSOrigins: conf.CORSOrigins,
	}, rest.Handlers{
		Auth:       rest.NewAuthHandler(logger, userService, authService),
		Games:      rest.NewGameHandler(logger, coordinator, validator),
		Debug:      rest.NewDebugHandler(coordinator),
		GameStream: stream.ServeGame,
	})

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort, "storage", conf.Storage)
		if httpErr := rest.Start(groupCtx, conf.HTTPPort, router); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}

		return nil
	})

	group.Go(func() error {
		return heartbeat.Run(groupCtx)
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func openRepositories(ctx context.Context, logger *slog.Logger, conf *config.Config) (*repositories, error) {
	switch conf.Storage {
	case config.StorageMemory:
		return &repositories{
			games:    repository.NewMemoryGameRepository(),
			messages: repository.NewMemoryMessageRepository(),
		}, nil

	case config.StoragePostgres:
		pgStorage, err := storage.NewPostgresStorage(ctx, logger, conf.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("could not connect to postgres storage: %w", err)
		}

		if err = repository.Migrate(ctx, pgStorage.Connection); err != nil {
			_ = pgStorage.Close()
			return nil, fmt.Errorf("could not migrate postgres storage: %w", err)
		}

		return &repositories{
			games:    repository.NewPostgresGameRepository(pgStorage.Connection),
			messages: repository.NewPostgresMessageRepository(pgStorage.Connection),
			closers:  []io.Closer{pgStorage},
		}, nil

	default:
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr(), conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return &repositories{
			games:    repository.NewGameRepository(redisStorage.Connection),
			messages: repository.NewMessageRepository(redisStorage.Connection),
			closers:  []io.Closer{redisStorage},
		}, nil
	}
}

func closeAll(log *slog.Logger, closers []io.Closer) {
	for _, closer := range closers {
		if err := closer.Close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}
}
