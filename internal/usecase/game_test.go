package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/playgrid/tictactoe-arena/internal/apperror"
	"github.com/playgrid/tictactoe-arena/internal/broadcast"
	"github.com/playgrid/tictactoe-arena/internal/entity"
	"github.com/playgrid/tictactoe-arena/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHub captures publishes per channel.
type recordingHub struct {
	mu     sync.Mutex
	events map[string][]broadcast.Event
	resets int
}

func newRecordingHub() *recordingHub {
	return &recordingHub{events: make(map[string][]broadcast.Event)}
}

func (that *recordingHub) Publish(channel string, event broadcast.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.events[channel] = append(that.events[channel], event)
}

func (that *recordingHub) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.resets++
}

func (that *recordingHub) published(channel string) []broadcast.Event {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]broadcast.Event(nil), that.events[channel]...)
}

func newTestUseCase(t *testing.T) (GameUseCase, *recordingHub) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := newRecordingHub()

	return NewGameUseCase(logger, registry.New(), hub), hub
}

func TestGameUseCase_CreateGame(t *testing.T) {
	t.Run("Creates an anonymous game with X to move", func(t *testing.T) {
		uGame, hub := newTestUseCase(t)

		// When: a game is created without a player name
		game, err := uGame.CreateGame(context.Background(), "")

		// Then: the game is fresh, anonymous and announced to the lobby
		require.NoError(t, err)
		assert.NotEmpty(t, game.ID)
		assert.Equal(t, entity.PlayerX, game.Turn)
		assert.Nil(t, game.Players)
		assert.Len(t, hub.published(broadcast.Lobby), 1)
	})

	t.Run("A supplied name pre-claims the X slot", func(t *testing.T) {
		uGame, _ := newTestUseCase(t)

		game, err := uGame.CreateGame(context.Background(), "alice")

		require.NoError(t, err)
		require.NotNil(t, game.Players)
		assert.Equal(t, "alice", game.Players.X)
	})

	t.Run("Creates games with unique ids", func(t *testing.T) {
		uGame, _ := newTestUseCase(t)

		first, err := uGame.CreateGame(context.Background(), "")
		require.NoError(t, err)
		second, err := uGame.CreateGame(context.Background(), "")
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestGameUseCase_JoinGame(t *testing.T) {
	t.Run("Assigns X, O, then spectator in join order", func(t *testing.T) {
		uGame, hub := newTestUseCase(t)
		game, err := uGame.CreateGame(context.Background(), "")
		require.NoError(t, err)

		// When: alice, bob and carol join in order
		_, role, err := uGame.JoinGame(context.Background(), game.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, entity.RoleX, role)

		_, role, err = uGame.JoinGame(context.Background(), game.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, entity.RoleO, role)

		joined, role, err := uGame.JoinGame(context.Background(), game.ID, "carol")
		require.NoError(t, err)
		assert.Equal(t, entity.RoleSpectator, role)

		// Then: slots are unchanged and each join was broadcast
		assert.Equal(t, "alice", joined.Players.X)
		assert.Equal(t, "bob", joined.Players.O)
		assert.Len(t, hub.published(game.ID), 3)
	})

	t.Run("Is idempotent for a returning player", func(t *testing.T) {
		uGame, _ := newTestUseCase(t)
		game, err := uGame.CreateGame(context.Background(), "alice")
		require.NoError(t, err)

		_, first, err := uGame.JoinGame(context.Background(), game.ID, "alice")
		require.NoError(t, err)
		_, second, err := uGame.JoinGame(context.Background(), game.ID, "alice")
		require.NoError(t, err)

		assert.Equal(t, entity.RoleX, first)
		assert.Equal(t, first, second)
	})

	t.Run("Unknown game returns ErrGameNotFound", func(t *testing.T) {
		uGame, _ := newTestUseCase(t)

		_, _, err := uGame.JoinGame(context.Background(), "missing", "alice")

		assert.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameUseCase_MakeMove(t *testing.T) {
	t.Run("Applies the move and broadcasts the new state", func(t *testing.T) {
		uGame, hub := newTestUseCase(t)
		game, err := uGame.CreateGame(context.Background(), "")
		require.NoError(t, err)

		// When: X plays cell 0
		updated, err := uGame.MakeMove(context.Background(), game.ID, 0, "")

		// Then: the board and turn changed and subscribers were told
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, updated.Board[0])
		assert.Equal(t, entity.PlayerO, updated.Turn)

		events := hub.published(game.ID)
		require.Len(t, events, 1)
		assert.Equal(t, broadcast.EventGameState, events[0].Type)
	})

	t.Run("Replaying the same cell fails with ErrCellOccupied", func(t *testing.T) {
		uGame, _ := newTestUseCase(t)
		game, err := uGame.CreateGame(context.Background(), "")
		require.NoError(t, err)

		_, err = uGame.MakeMove(context.Background(), game.ID, 0, "")
		require.NoError(t, err)

		_, err = uGame.MakeMove(context.Background(), game.ID, 0, "")
		assert.ErrorIs(t, err, apperror.ErrCellOccupied)
	})

	t.Run("An out-of-range position fails with ErrInvalidPosition", func(t *testing.T) {
		uGame, _ := newTestUseCase(t)
		game, err := uGame.CreateGame(context.Background(), "")
		require.NoError(t, err)

		_, err = uGame.MakeMove(context.Background(), game.ID, 9, "")

		assert.ErrorIs(t, err, apperror.ErrInvalidPosition)
	})

	t.Run("Rejects an actor out of turn in a named game", func(t *testing.T) {
		// Given: alice holds X, bob holds O
		uGame, _ := newTestUseCase(t)
		game, err := uGame.CreateGame(context.Background(), "alice")
		require.NoError(t, err)
		_, _, err = uGame.JoinGame(context.Background(), game.ID, "bob")
		require.NoError(t, err)

		// When: bob tries to move on X's turn
		_, err = uGame.MakeMove(context.Background(), game.ID, 0, "bob")

		// Then: the move is forbidden and nothing was committed
		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)

		got, err := uGame.GetGame(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.EmptyCell, got.Board[0])
	})

	t.Run("X completing a line yields a finished game", func(t *testing.T) {
		uGame, _ := newTestUseCase(t)
		game, err := uGame.CreateGame(context.Background(), "")
		require.NoError(t, err)

		// When: X plays 0,1,2 with O on 3,4
		var updated *entity.Game
		for _, position := range []int{0, 3, 1, 4, 2} {
			updated, err = uGame.MakeMove(context.Background(), game.ID, position, "")
			require.NoError(t, err)
		}

		// Then: X wins and further moves are over
		assert.Equal(t, entity.PlayerX, updated.Winner())
		assert.True(t, updated.IsFinished())

		_, err = uGame.MakeMove(context.Background(), game.ID, 5, "")
		assert.ErrorIs(t, err, apperror.ErrGameOver)
	})

	t.Run("Moves in one game never leak into another", func(t *testing.T) {
		uGame, _ := newTestUseCase(t)
		first, err := uGame.CreateGame(context.Background(), "")
		require.NoError(t, err)
		second, err := uGame.CreateGame(context.Background(), "")
		require.NoError(t, err)

		_, err = uGame.MakeMove(context.Background(), first.ID, 0, "")
		require.NoError(t, err)
		_, err = uGame.MakeMove(context.Background(), second.ID, 8, "")
		require.NoError(t, err)

		firstGame, err := uGame.GetGame(context.Background(), first.ID)
		require.NoError(t, err)
		secondGame, err := uGame.GetGame(context.Background(), second.ID)
		require.NoError(t, err)

		assert.Equal(t, entity.PlayerX, firstGame.Board[0])
		assert.Equal(t, entity.EmptyCell, firstGame.Board[8])
		assert.Equal(t, entity.PlayerX, secondGame.Board[8])
		assert.Equal(t, entity.EmptyCell, secondGame.Board[0])
	})
}

func TestGameUseCase_ResetAll(t *testing.T) {
	uGame, hub := newTestUseCase(t)
	_, err := uGame.CreateGame(context.Background(), "")
	require.NoError(t, err)

	uGame.ResetAll(context.Background())

	assert.Empty(t, uGame.ListGames(context.Background()))
	assert.Equal(t, 1, hub.resets)
}
