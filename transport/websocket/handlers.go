package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/supertris-backend/internal/command"
)

const (
	actionJoin    = "game:join"
	actionMove    = "game:move"
	actionRematch = "game:rematch"
	actionChat    = "chat:send"
)

const (
	errInvalidMessage = "invalid message"
	errUnknownAction  = "unknown action"
	errInvalidPayload = "invalid payload"
	errInternal       = "internal error"
)

var errValidation = errors.New(errInvalidPayload)

func (that *Server) handleJoin(ctx context.Context, conn *Connection, gameID string, payload json.RawMessage) (bool, error) {
	cmd := command.JoinGame{GameID: gameID}
	if err := that.decode(payload, &cmd, gameID); err != nil {
		return false, err
	}

	return that.coordinator.JoinGame(ctx, cmd.GameID, conn.UserID())
}

func (that *Server) handleMove(ctx context.Context, conn *Connection, gameID string, payload json.RawMessage) (bool, error) {
	var cmd command.MakeMove
	if err := that.decode(payload, &cmd, gameID); err != nil {
		return false, err
	}

	return that.coordinator.MakeMove(ctx, cmd.GameID, conn.UserID(), *cmd.X, *cmd.Y)
}

func (that *Server) handleRematch(ctx context.Context, conn *Connection, gameID string, payload json.RawMessage) (bool, error) {
	cmd := command.SendRematch{GameID: gameID}
	if err := that.decode(payload, &cmd, gameID); err != nil {
		return false, err
	}

	return that.coordinator.Rematch(ctx, cmd.GameID, conn.UserID())
}

func (that *Server) handleChat(ctx context.Context, conn *Connection, gameID string, payload json.RawMessage) (bool, error) {
	var cmd command.SendMessage
	if err := that.decode(payload, &cmd, gameID); err != nil {
		return false, err
	}

	return that.coordinator.SendMessage(ctx, cmd.GameID, conn.UserID(), cmd.Message)
}

// decode unmarshals payload into cmd and validates it. Commands always target
// the game the socket streams, whatever the payload says.
func (that *Server) decode(payload json.RawMessage, cmd any, gameID string) error {
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, cmd); err != nil {
			return fmt.Errorf("%w: %w", errValidation, err)
		}
	}

	switch typed := cmd.(type) {
	case *command.JoinGame:
		typed.GameID = gameID
	case *command.MakeMove:
		typed.GameID = gameID
	case *command.SendRematch:
		typed.GameID = gameID
	case *command.SendMessage:
		typed.GameID = gameID
	}

	if err := that.validate.Validate(cmd); err != nil {
		return fmt.Errorf("%w: %w", errValidation, err)
	}

	return nil
}

func (that *Server) describe(log *slog.Logger, action string, err error) string {
	if errors.Is(err, errValidation) {
		log.Debug("invalid command", "action", action, "error", err)
		return errInvalidPayload
	}

	log.Error("command failed", "action", action, "error", err)

	return errInternal
}
