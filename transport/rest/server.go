package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type RouterOptions struct {
	Production  bool
	CORSOrigins []string
}

// Handlers groups everything the router serves.
type Handlers struct {
	Auth       *AuthHandler
	Games      *GameHandler
	Debug      *DebugHandler
	GameStream gin.HandlerFunc
}

func NewRouter(logger *slog.Logger, tokens tokenParser, opts RouterOptions, handlers Handlers) *gin.Engine {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), Authenticate(tokens))

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/ping", Ping)
	router.POST("/auth/anonymous", handlers.Auth.Anonymous)

	games := router.Group("/games", RequireUser())
	games.POST("", handlers.Games.CreateGame)
	games.GET("/:id", handlers.Games.GetGame)
	games.POST("/:id/join", handlers.Games.JoinGame)
	games.POST("/:id/moves", handlers.Games.MakeMove)
	games.POST("/:id/rematch", handlers.Games.Rematch)
	games.POST("/:id/messages", handlers.Games.SendMessage)

	if handlers.GameStream != nil {
		router.GET("/ws/:id", RequireUser(), handlers.GameStream)
	}

	if !opts.Production && handlers.Debug != nil {
		router.GET("/debug/games", handlers.Debug.Games)
	}

	return router
}

// Start serves handler on port until ctx is done, then shuts the server down.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
