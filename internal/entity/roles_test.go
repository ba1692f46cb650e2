package entity

import (
	"testing"

	"github.com/playgrid/tictactoe-arena/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGame_ResolveJoin(t *testing.T) {
	t.Run("First two names claim X then O, the third spectates", func(t *testing.T) {
		game := NewGame("game-1")

		// When: alice, bob and carol join in order
		game, role := game.ResolveJoin("alice")
		assert.Equal(t, RoleX, role)

		game, role = game.ResolveJoin("bob")
		assert.Equal(t, RoleO, role)

		game, role = game.ResolveJoin("carol")
		assert.Equal(t, RoleSpectator, role)

		// Then: the slots record the first two claims only
		require.NotNil(t, game.Players)
		assert.Equal(t, "alice", game.Players.X)
		assert.Equal(t, "bob", game.Players.O)
	})

	t.Run("Is idempotent for a returning player", func(t *testing.T) {
		// Given: alice already holds X
		game := NewGame("game-1")
		game, first := game.ResolveJoin("alice")

		// When: alice joins again
		rejoined, second := game.ResolveJoin("alice")

		// Then: she recovers the same role without displacing anything
		assert.Equal(t, first, second)
		assert.Equal(t, "alice", rejoined.Players.X)
		assert.Empty(t, rejoined.Players.O)
	})

	t.Run("A returning O player recovers O even with X free", func(t *testing.T) {
		// Given: bob holds O and the X slot is unclaimed
		game := NewGame("game-1")
		game.Players = &Players{O: "bob"}

		_, role := game.ResolveJoin("bob")

		assert.Equal(t, RoleO, role)
	})

	t.Run("An anonymous join spectates without claiming a slot", func(t *testing.T) {
		game := NewGame("game-1")

		joined, role := game.ResolveJoin("")

		assert.Equal(t, RoleSpectator, role)
		assert.Nil(t, joined.Players)
	})

	t.Run("Never mutates the input game", func(t *testing.T) {
		game := NewGame("game-1")

		_, _ = game.ResolveJoin("alice")

		assert.Nil(t, game.Players)
	})
}

func TestGame_AuthorizeMove(t *testing.T) {
	t.Run("Permits anyone when no players are recorded", func(t *testing.T) {
		// Given: an anonymous game
		game := NewGame("game-1")

		// Then: any declared or undeclared caller may move
		assert.NoError(t, game.AuthorizeMove(""))
		assert.NoError(t, game.AuthorizeMove("drive-by"))
	})

	t.Run("Permits an anonymous caller even in a named game", func(t *testing.T) {
		game := NewGame("game-1")
		game.Players = &Players{X: "alice", O: "bob"}

		assert.NoError(t, game.AuthorizeMove(""))
	})

	t.Run("Requires the current turn's slot holder", func(t *testing.T) {
		// Given: alice holds X, bob holds O, X to move
		game := NewGame("game-1")
		game.Players = &Players{X: "alice", O: "bob"}

		// Then: alice may move, bob may not
		assert.NoError(t, game.AuthorizeMove("alice"))
		assert.ErrorIs(t, game.AuthorizeMove("bob"), apperror.ErrNotYourTurn)
	})

	t.Run("Checks the O slot after the turn flips", func(t *testing.T) {
		game := NewGame("game-1")
		game.Players = &Players{X: "alice", O: "bob"}

		next, err := game.ApplyMove(0)
		require.NoError(t, err)

		assert.NoError(t, next.AuthorizeMove("bob"))
		assert.ErrorIs(t, next.AuthorizeMove("alice"), apperror.ErrNotYourTurn)
	})

	t.Run("Forbids a named caller when the turn's slot is unclaimed", func(t *testing.T) {
		// Given: only X is claimed and it is O's turn
		game := NewGame("game-1")
		game.Players = &Players{X: "alice"}
		game.Turn = PlayerO

		assert.ErrorIs(t, game.AuthorizeMove("bob"), apperror.ErrNotYourTurn)
	})
}
