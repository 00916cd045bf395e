// Package protocol defines the frames pushed to game connections.
//
// Message is a closed union: variants live in this package only and consumers
// handle them through Visitor.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/supertris-backend/internal/entity"
)

const (
	// HeartbeatInterval is the cadence of heartbeat frames for every game with a connection.
	HeartbeatInterval = 10 * time.Second
	// HeartbeatClientMultiplier: clients that hear nothing for
	// HeartbeatInterval*HeartbeatClientMultiplier treat the stream as dead and reconnect.
	HeartbeatClientMultiplier = 3
)

// ClientTimeout is the silence after which a client considers its stream dead.
func ClientTimeout() time.Duration {
	return HeartbeatInterval * HeartbeatClientMultiplier
}

var ErrUnknownType = errors.New("unknown message type")

type Type string

const (
	TypeGameState      Type = "game_state"
	TypePlayerPresence Type = "player_presence"
	TypeHeartbeat      Type = "heartbeat"
	TypeClosing        Type = "closing"
	TypeNewGame        Type = "new_game"
	TypeChatMessages   Type = "chat_messages"
	TypeChatMessage    Type = "chat_message"
	TypeCommandResult  Type = "command_result"
)

type CloseReason string

const (
	ReasonGameNotFound          CloseReason = "game_not_found"
	ReasonGameAlreadyStarted    CloseReason = "game_already_started"
	ReasonGameStartedWithOthers CloseReason = "game_started_with_others"
)

type Message interface {
	Type() Type
	Accept(v Visitor)
	isMessage()
}

type Visitor interface {
	VisitGameState(msg GameState)
	VisitPlayerPresence(msg PlayerPresence)
	VisitHeartbeat(msg Heartbeat)
	VisitClosing(msg Closing)
	VisitNewGame(msg NewGame)
	VisitChatMessages(msg ChatMessages)
	VisitChatMessage(msg ChatMessage)
	VisitCommandResult(msg CommandResult)
}

// GameState carries the full game plus fields derived from the rules, so
// receivers can tell a finished game without a separate event.
type GameState struct {
	Game      *entity.Game `json:"game_state"`
	Completed bool         `json:"completed"`
	Winner    string       `json:"winner,omitempty"`
}

type PlayerPresence struct {
	Player1Present bool `json:"player1_presence"`
	Player2Present bool `json:"player2_presence"`
}

type Heartbeat struct{}

type Closing struct {
	Reason CloseReason `json:"reason"`
}

type NewGame struct {
	GameID string `json:"game_id"`
}

// NamedChatMessage is a chat line with the author's display name resolved.
type NamedChatMessage struct {
	entity.ChatMessage
	Name string `json:"name"`
}

type ChatMessages struct {
	Messages []NamedChatMessage `json:"messages"`
}

type ChatMessage struct {
	Message NamedChatMessage `json:"message"`
}

// CommandResult answers a command sent over the socket.
type CommandResult struct {
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

func (GameState) Type() Type      { return TypeGameState }
func (PlayerPresence) Type() Type { return TypePlayerPresence }
func (Heartbeat) Type() Type      { return TypeHeartbeat }
func (Closing) Type() Type        { return TypeClosing }
func (NewGame) Type() Type        { return TypeNewGame }
func (ChatMessages) Type() Type   { return TypeChatMessages }
func (ChatMessage) Type() Type    { return TypeChatMessage }
func (CommandResult) Type() Type  { return TypeCommandResult }

func (that GameState) Accept(v Visitor)      { v.VisitGameState(that) }
func (that PlayerPresence) Accept(v Visitor) { v.VisitPlayerPresence(that) }
func (that Heartbeat) Accept(v Visitor)      { v.VisitHeartbeat(that) }
func (that Closing) Accept(v Visitor)        { v.VisitClosing(that) }
func (that NewGame) Accept(v Visitor)        { v.VisitNewGame(that) }
func (that ChatMessages) Accept(v Visitor)   { v.VisitChatMessages(that) }
func (that ChatMessage) Accept(v Visitor)    { v.VisitChatMessage(that) }
func (that CommandResult) Accept(v Visitor)  { v.VisitCommandResult(that) }

func (GameState) isMessage()      {}
func (PlayerPresence) isMessage() {}
func (Heartbeat) isMessage()      {}
func (Closing) isMessage()        {}
func (NewGame) isMessage()        {}
func (ChatMessages) isMessage()   {}
func (ChatMessage) isMessage()    {}
func (CommandResult) isMessage()  {}

// Encode renders msg as a JSON object tagged with "type".
func Encode(msg Message) ([]byte, error) {
	var enc encoder
	msg.Accept(&enc)

	if enc.err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", msg.Type(), enc.err)
	}

	return enc.frame, nil
}

type encoder struct {
	frame []byte
	err   error
}

func (that *encoder) VisitGameState(msg GameState) {
	that.frame, that.err = json.Marshal(struct {
		Type Type `json:"type"`
		GameState
	}{TypeGameState, msg})
}

func (that *encoder) VisitPlayerPresence(msg PlayerPresence) {
	that.frame, that.err = json.Marshal(struct {
		Type Type `json:"type"`
		PlayerPresence
	}{TypePlayerPresence, msg})
}

func (that *encoder) VisitHeartbeat(Heartbeat) {
	that.frame, that.err = json.Marshal(struct {
		Type Type `json:"type"`
	}{TypeHeartbeat})
}

func (that *encoder) VisitClosing(msg Closing) {
	that.frame, that.err = json.Marshal(struct {
		Type Type `json:"type"`
		Closing
	}{TypeClosing, msg})
}

func (that *encoder) VisitNewGame(msg NewGame) {
	that.frame, that.err = json.Marshal(struct {
		Type Type `json:"type"`
		NewGame
	}{TypeNewGame, msg})
}

func (that *encoder) VisitChatMessages(msg ChatMessages) {
	if msg.Messages == nil {
		msg.Messages = []NamedChatMessage{}
	}

	that.frame, that.err = json.Marshal(struct {
		Type Type `json:"type"`
		ChatMessages
	}{TypeChatMessages, msg})
}

func (that *encoder) VisitChatMessage(msg ChatMessage) {
	that.frame, that.err = json.Marshal(struct {
		Type Type `json:"type"`
		ChatMessage
	}{TypeChatMessage, msg})
}

func (that *encoder) VisitCommandResult(msg CommandResult) {
	that.frame, that.err = json.Marshal(struct {
		Type Type `json:"type"`
		CommandResult
	}{TypeCommandResult, msg})
}

// Decode parses a frame produced by Encode.
func Decode(frame []byte) (Message, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(frame, &head); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message type: %w", err)
	}

	switch head.Type {
	case TypeGameState:
		return decodeAs[GameState](frame)
	case TypePlayerPresence:
		return decodeAs[PlayerPresence](frame)
	case TypeHeartbeat:
		return Heartbeat{}, nil
	case TypeClosing:
		return decodeAs[Closing](frame)
	case TypeNewGame:
		return decodeAs[NewGame](frame)
	case TypeChatMessages:
		return decodeAs[ChatMessages](frame)
	case TypeChatMessage:
		return decodeAs[ChatMessage](frame)
	case TypeCommandResult:
		return decodeAs[CommandResult](frame)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, head.Type)
	}
}

func decodeAs[T Message](frame []byte) (Message, error) {
	var msg T
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s message: %w", msg.Type(), err)
	}

	return msg, nil
}
