package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGame_IsDraft(t *testing.T) {
	t.Run("Game without second player is a draft", func(t *testing.T) {
		// Given: a game with only player1
		game := NewGame("1", "", "alice", "")

		// Then: it should be a draft
		assert.True(t, game.IsDraft())
	})

	t.Run("Game with both players is not a draft", func(t *testing.T) {
		// Given: a game with both players
		game := NewGame("1", "", "alice", "bob")

		// Then: it should not be a draft
		assert.False(t, game.IsDraft())
	})
}

func TestGame_IsPlayer(t *testing.T) {
	game := NewGame("1", "", "alice", "bob")

	assert.True(t, game.IsPlayer("alice"))
	assert.True(t, game.IsPlayer("bob"))
	assert.False(t, game.IsPlayer("carol"))
	assert.False(t, game.IsPlayer(""))

	draft := NewGame("2", "", "alice", "")
	assert.False(t, draft.IsPlayer(""), "empty id must not match an unbound player2")
}

func TestGame_Opponent(t *testing.T) {
	game := NewGame("1", "", "alice", "bob")

	assert.Equal(t, "bob", game.Opponent("alice"))
	assert.Equal(t, "alice", game.Opponent("bob"))
	assert.Empty(t, game.Opponent("carol"))
}

func TestGame_NextPlayerID(t *testing.T) {
	// Given: a game with both players
	game := NewGame("1", "", "alice", "bob")

	// Then: player1 moves on even counts and player2 on odd counts
	assert.Equal(t, "alice", game.NextPlayerID())

	game.Moves = append(game.Moves, Move{X: 4, Y: 4})
	assert.Equal(t, "bob", game.NextPlayerID())

	game.Moves = append(game.Moves, Move{X: 3, Y: 3})
	assert.Equal(t, "alice", game.NextPlayerID())
}

func TestGame_Occupied(t *testing.T) {
	game := NewGame("1", "", "alice", "bob")
	game.Moves = []Move{{X: 0, Y: 8}}

	assert.True(t, game.Occupied(0, 8))
	assert.False(t, game.Occupied(8, 0))
}
