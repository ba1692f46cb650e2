package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/playgrid/tictactoe-arena/internal/broadcast"
	"github.com/playgrid/tictactoe-arena/internal/usecase"
)

const maxMessageSize = 4096

// Server upgrades HTTP requests to persistent channels: one per game
// plus the global lobby. Game channels receive state pushes and carry
// chat; the lobby carries chat only.
type Server struct {
	logger   *slog.Logger
	uGame    usecase.GameUseCase
	hub      *broadcast.Hub
	upgrader websocket.Upgrader
	router   *mux.Router
}

func New(logger *slog.Logger, uGame usecase.GameUseCase, hub *broadcast.Hub) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		uGame:  uGame,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	router := mux.NewRouter()
	router.HandleFunc("/ws/game/{id}", server.handleGameChannel)
	router.HandleFunc("/ws/lobby", server.handleLobbyChannel)
	server.router = router

	return server
}

// Handler - exposes the configured router, mainly for tests.
func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - starts the WebSocket server and shuts it down gracefully
// when the context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.router,
		ReadTimeout: 0, // connections are long-lived
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// handleGameChannel - subscribes the connection to a game's channel.
// Unknown games are rejected before the upgrade.
func (that *Server) handleGameChannel(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleGameChannel")

	gameID := mux.Vars(r)["id"]

	if _, err := that.uGame.GetGame(r.Context(), gameID); err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	conn, err := that.upgrade(w, r)
	if err != nil {
		log.Error("failed to upgrade connection", "gameID", gameID, "error", err)
		return
	}

	log.Info("subscriber connected", "gameID", gameID)

	that.hub.Subscribe(gameID, conn)

	// The new subscriber starts from the current committed state. The
	// snapshot is taken under the channel lock, so a concurrent move
	// broadcast cannot reach the client ahead of it.
	err = that.hub.SendTo(gameID, conn, func() (broadcast.Event, error) {
		current, err := that.uGame.GetGame(r.Context(), gameID)
		if err != nil {
			return broadcast.Event{}, err
		}

		return broadcast.GameStateEvent(current), nil
	})
	if err != nil {
		log.Error("failed to send initial state", "gameID", gameID, "error", err)
	}

	that.readLoop(conn, gameID)
}

// handleLobbyChannel - subscribes the connection to the lobby, which
// carries chat only and is independent of any game channel.
func (that *Server) handleLobbyChannel(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleLobbyChannel")

	conn, err := that.upgrade(w, r)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log.Info("subscriber connected", "channel", broadcast.Lobby)

	that.hub.Subscribe(broadcast.Lobby, conn)

	that.readLoop(conn, broadcast.Lobby)
}

func (that *Server) upgrade(w http.ResponseWriter, r *http.Request) (*client, error) {
	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade to websocket: %w", err)
	}

	conn.SetReadLimit(maxMessageSize)

	return newClient(conn), nil
}

// readLoop - consumes inbound frames until the transport closes, then
// promptly releases the connection's slot. Chat frames are
// re-broadcast to the channel; malformed or unknown frames are
// silently ignored, since the channel has no per-message ack.
func (that *Server) readLoop(conn *client, channel string) {
	defer func() {
		that.hub.Unsubscribe(channel, conn)
		_ = conn.Close()
		that.logger.Info("subscriber disconnected", "channel", channel)
	}()

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				that.logger.Debug("read error", "channel", channel, "error", err)
			}
			return
		}

		if frame == nil || frame.Type != broadcast.EventChat {
			continue
		}

		event, ok := broadcast.ChatEvent(frame.PlayerName, frame.Text)
		if !ok {
			continue
		}

		that.hub.Publish(channel, event)
	}
}
