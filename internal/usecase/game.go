package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playgrid/tictactoe-arena/internal/broadcast"
	"github.com/playgrid/tictactoe-arena/internal/entity"
	"github.com/playgrid/tictactoe-arena/internal/pkg"
)

// GameUseCase drives every client-visible game operation: it resolves
// roles, applies rule-engine transitions through the registry's per-id
// exclusion, and fans the committed state out to subscribers. State is
// always committed before any fan-out, and no registry lock is held
// across a publish.
type GameUseCase interface {
	CreateGame(ctx context.Context, playerName string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerName string) (*entity.Game, string, error)
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
	ListGames(ctx context.Context) []*entity.Game
	MakeMove(ctx context.Context, gameID string, position int, playerName string) (*entity.Game, error)
	ResetAll(ctx context.Context)
}

type gameRegistry interface {
	Create(game *entity.Game) error
	Get(id string) (*entity.Game, error)
	List() []*entity.Game
	Mutate(id string, fn func(game *entity.Game) (*entity.Game, error)) (*entity.Game, error)
	RemoveAll()
}

type broadcaster interface {
	Publish(channel string, event broadcast.Event)
	Reset()
}

type gameUseCase struct {
	logger   *slog.Logger
	registry gameRegistry
	hub      broadcaster
	newID    func() string
}

func NewGameUseCase(logger *slog.Logger, registry gameRegistry, hub broadcaster) GameUseCase {
	return &gameUseCase{
		logger:   logger.With("component", "usecase"),
		registry: registry,
		hub:      hub,
		newID:    pkg.NewGameID,
	}
}

// CreateGame - registers a fresh game. A supplied player name claims
// the X slot; without one the game stays anonymous. The lobby is told
// about the new game.
func (that *gameUseCase) CreateGame(_ context.Context, playerName string) (*entity.Game, error) {
	game := entity.NewGame(that.newID())
	if playerName != "" {
		game, _ = game.ResolveJoin(playerName)
	}

	if err := that.registry.Create(game); err != nil {
		return nil, fmt.Errorf("failed to register game: %w", err)
	}

	that.hub.Publish(broadcast.Lobby, broadcast.GameStateEvent(game))

	that.logger.Info("game created", "gameID", game.ID)

	return game, nil
}

// JoinGame - resolves the caller's role and commits any slot claim,
// then pushes the new state to the game's subscribers.
func (that *gameUseCase) JoinGame(_ context.Context, gameID, playerName string) (*entity.Game, string, error) {
	var role string

	game, err := that.registry.Mutate(gameID, func(game *entity.Game) (*entity.Game, error) {
		joined, resolved := game.ResolveJoin(playerName)
		role = resolved
		return joined, nil
	})
	if err != nil {
		return nil, "", err
	}

	that.hub.Publish(gameID, broadcast.GameStateEvent(game))

	that.logger.Info("player joined", "gameID", gameID, "role", role)

	return game, role, nil
}

func (that *gameUseCase) GetGame(_ context.Context, gameID string) (*entity.Game, error) {
	return that.registry.Get(gameID)
}

func (that *gameUseCase) ListGames(_ context.Context) []*entity.Game {
	return that.registry.List()
}

// MakeMove - authorizes the declared actor against the current turn
// and applies the move, serialized per game id so a concurrent move
// can never commit against a superseded snapshot. The committed state
// is broadcast to the game's subscribers after the lock is released.
func (that *gameUseCase) MakeMove(_ context.Context, gameID string, position int, playerName string) (*entity.Game, error) {
	game, err := that.registry.Mutate(gameID, func(game *entity.Game) (*entity.Game, error) {
		if err := game.AuthorizeMove(playerName); err != nil {
			return nil, err
		}

		return game.ApplyMove(position)
	})
	if err != nil {
		return nil, err
	}

	that.hub.Publish(gameID, broadcast.GameStateEvent(game))

	return game, nil
}

// ResetAll - administrative reset: clears the registry and tears down
// every game channel.
func (that *gameUseCase) ResetAll(_ context.Context) {
	that.registry.RemoveAll()
	that.hub.Reset()

	that.logger.Info("all games cleared")
}
