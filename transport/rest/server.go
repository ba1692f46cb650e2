package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/playgrid/tictactoe-arena/internal/usecase"
)

type Server struct {
	logger *slog.Logger
	uGame  usecase.GameUseCase
	router *mux.Router
}

func New(logger *slog.Logger, uGame usecase.GameUseCase) *Server {
	server := &Server{
		logger: logger.With("component", "rest"),
		uGame:  uGame,
		router: mux.NewRouter(),
	}

	server.setupRoutes()

	return server
}

func (that *Server) setupRoutes() {
	that.router.HandleFunc("/ping", that.handlePing).Methods(http.MethodGet)

	that.router.HandleFunc("/create", that.handleCreate).Methods(http.MethodPost)
	that.router.HandleFunc("/join", that.handleJoin).Methods(http.MethodPost)
	that.router.HandleFunc("/game/{id}", that.handleGetGame).Methods(http.MethodGet)
	that.router.HandleFunc("/games", that.handleListGames).Methods(http.MethodGet)
	that.router.HandleFunc("/move", that.handleMove).Methods(http.MethodPost)
	that.router.HandleFunc("/reset-all", that.handleResetAll).Methods(http.MethodPost)
}

// Handler - exposes the configured router, mainly for tests.
func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - starts the HTTP server and shuts it down gracefully when the
// context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
