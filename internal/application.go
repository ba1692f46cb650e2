package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/playgrid/tictactoe-arena/internal/broadcast"
	"github.com/playgrid/tictactoe-arena/internal/config"
	"github.com/playgrid/tictactoe-arena/internal/reaper"
	"github.com/playgrid/tictactoe-arena/internal/registry"
	"github.com/playgrid/tictactoe-arena/internal/repository"
	"github.com/playgrid/tictactoe-arena/internal/repository/storage"
	"github.com/playgrid/tictactoe-arena/internal/usecase"
	"github.com/playgrid/tictactoe-arena/transport/rest"
	"github.com/playgrid/tictactoe-arena/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	gameRegistry := registry.New()
	hub := broadcast.NewHub(logger)
	gameUseCase := usecase.NewGameUseCase(logger, gameRegistry, hub)

	// The archive is optional: without a redis address finished games
	// are simply dropped on eviction.
	var gameArchive repository.GameArchive
	if addr := conf.Redis.GetRedisAddr(); addr != "" {
		redisClient, err := storage.New(ctx, addr)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisClient.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		gameArchive = repository.NewGameArchive(redisClient, conf.Redis.ArchiveTTL)
	}

	gameReaper := reaper.New(logger, gameRegistry, hub, gameArchive, conf.Reaper.SweepInterval, conf.Reaper.StaleAfter)
	go gameReaper.Run(ctx)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, gameUseCase).Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := websocket.New(logger, gameUseCase, hub).Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
