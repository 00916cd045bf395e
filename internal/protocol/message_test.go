package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/supertris-backend/internal/entity"
)

func TestEncode(t *testing.T) {
	t.Run("Game state is tagged and flattened", func(t *testing.T) {
		// Given: a game state message
		game := entity.NewGame("7", "friendly", "alice", "bob")
		game.Moves = append(game.Moves, entity.Move{X: 4, Y: 4})

		// When: it is encoded
		frame, err := Encode(GameState{Game: game})

		// Then: the type tag sits next to the payload
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"type": "game_state",
			"completed": false,
			"game_state": {
				"id": "7",
				"name": "friendly",
				"player1_id": "alice",
				"player2_id": "bob",
				"moves": [{"x": 4, "y": 4}]
			}
		}`, string(frame))
	})

	t.Run("Heartbeat carries only the tag", func(t *testing.T) {
		frame, err := Encode(Heartbeat{})

		require.NoError(t, err)
		assert.JSONEq(t, `{"type": "heartbeat"}`, string(frame))
	})

	t.Run("Closing carries the reason", func(t *testing.T) {
		frame, err := Encode(Closing{Reason: ReasonGameStartedWithOthers})

		require.NoError(t, err)
		assert.JSONEq(t, `{"type": "closing", "reason": "game_started_with_others"}`, string(frame))
	})

	t.Run("Presence", func(t *testing.T) {
		frame, err := Encode(PlayerPresence{Player1Present: true})

		require.NoError(t, err)
		assert.JSONEq(t, `{"type": "player_presence", "player1_presence": true, "player2_presence": false}`, string(frame))
	})

	t.Run("Empty chat history is an empty list", func(t *testing.T) {
		frame, err := Encode(ChatMessages{})

		require.NoError(t, err)
		assert.JSONEq(t, `{"type": "chat_messages", "messages": []}`, string(frame))
	})

	t.Run("Chat message includes the display name", func(t *testing.T) {
		stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		msg := ChatMessage{Message: NamedChatMessage{
			ChatMessage: entity.ChatMessage{GameID: "7", UserID: "alice", Content: "gg", Timestamp: stamp},
			Name:        "Alice",
		}}

		frame, err := Encode(msg)

		require.NoError(t, err)
		assert.JSONEq(t, `{
			"type": "chat_message",
			"message": {
				"game_id": "7",
				"user_id": "alice",
				"content": "gg",
				"timestamp": "2025-03-01T12:00:00Z",
				"name": "Alice"
			}
		}`, string(frame))
	})
}

func TestDecode(t *testing.T) {
	t.Run("Decodes what Encode produced", func(t *testing.T) {
		messages := []Message{
			NewGame{GameID: "8"},
			Closing{Reason: ReasonGameNotFound},
			Heartbeat{},
			CommandResult{Action: "game:move", OK: true},
		}

		for _, msg := range messages {
			frame, err := Encode(msg)
			require.NoError(t, err)

			decoded, err := Decode(frame)
			require.NoError(t, err)
			assert.Equal(t, msg, decoded)
		}
	})

	t.Run("Unknown type", func(t *testing.T) {
		_, err := Decode([]byte(`{"type": "game_ended"}`))

		assert.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("Malformed frame", func(t *testing.T) {
		_, err := Decode([]byte(`not json`))

		assert.Error(t, err)
	})
}

type countingVisitor struct {
	seen map[Type]int
}

func (that *countingVisitor) VisitGameState(GameState)           { that.seen[TypeGameState]++ }
func (that *countingVisitor) VisitPlayerPresence(PlayerPresence) { that.seen[TypePlayerPresence]++ }
func (that *countingVisitor) VisitHeartbeat(Heartbeat)           { that.seen[TypeHeartbeat]++ }
func (that *countingVisitor) VisitClosing(Closing)               { that.seen[TypeClosing]++ }
func (that *countingVisitor) VisitNewGame(NewGame)               { that.seen[TypeNewGame]++ }
func (that *countingVisitor) VisitChatMessages(ChatMessages)     { that.seen[TypeChatMessages]++ }
func (that *countingVisitor) VisitChatMessage(ChatMessage)       { that.seen[TypeChatMessage]++ }
func (that *countingVisitor) VisitCommandResult(CommandResult)   { that.seen[TypeCommandResult]++ }

func TestAccept(t *testing.T) {
	// Given: one message of every variant
	messages := []Message{
		GameState{}, PlayerPresence{}, Heartbeat{}, Closing{},
		NewGame{}, ChatMessages{}, ChatMessage{}, CommandResult{},
	}
	visitor := &countingVisitor{seen: map[Type]int{}}

	// When: each accepts the visitor
	for _, msg := range messages {
		msg.Accept(visitor)
	}

	// Then: every variant dispatched to its own method
	for _, msg := range messages {
		assert.Equal(t, 1, visitor.seen[msg.Type()], msg.Type())
	}
}

func TestClientTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, ClientTimeout())
}
