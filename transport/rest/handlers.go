package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/supertris-backend/internal/apperror"
	"github.com/rocketscienceinc/supertris-backend/internal/command"
	"github.com/rocketscienceinc/supertris-backend/internal/usecase"
)

type gameCoordinator interface {
	CreateGame(ctx context.Context, userID, name string) (string, error)
	GetGame(ctx context.Context, gameID, userID string) (*usecase.GameView, error)
	JoinGame(ctx context.Context, gameID, userID string) (bool, error)
	MakeMove(ctx context.Context, gameID, userID string, x, y int) (bool, error)
	Rematch(ctx context.Context, gameID, userID string) (bool, error)
	SendMessage(ctx context.Context, gameID, userID, content string) (bool, error)
}

type commandValidator interface {
	Validate(cmd any) error
}

type GameHandler struct {
	logger *slog.Logger

	games    gameCoordinator
	validate commandValidator
}

func NewGameHandler(logger *slog.Logger, games gameCoordinator, validate commandValidator) *GameHandler {
	return &GameHandler{
		logger:   logger,
		games:    games,
		validate: validate,
	}
}

func (that *GameHandler) CreateGame(c *gin.Context) {
	var cmd command.CreateGame
	if !that.bind(c, &cmd, true) {
		return
	}

	gameID, err := that.games.CreateGame(c.Request.Context(), UserID(c), cmd.Name)
	if err != nil {
		that.internalError(c, "CreateGame", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"game_id": gameID})
}

func (that *GameHandler) GetGame(c *gin.Context) {
	view, err := that.games.GetGame(c.Request.Context(), c.Param("id"), UserID(c))
	if errors.Is(err, apperror.ErrGameNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": apperror.ErrGameNotFound.Error()})
		return
	}

	if err != nil {
		that.internalError(c, "GetGame", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (that *GameHandler) JoinGame(c *gin.Context) {
	cmd := command.JoinGame{GameID: c.Param("id")}
	if !that.bind(c, &cmd, false) {
		return
	}

	ok, err := that.games.JoinGame(c.Request.Context(), cmd.GameID, UserID(c))
	that.result(c, "JoinGame", ok, err)
}

func (that *GameHandler) MakeMove(c *gin.Context) {
	var cmd command.MakeMove
	if !that.bind(c, &cmd, true) {
		return
	}

	ok, err := that.games.MakeMove(c.Request.Context(), cmd.GameID, UserID(c), *cmd.X, *cmd.Y)
	that.result(c, "MakeMove", ok, err)
}

func (that *GameHandler) Rematch(c *gin.Context) {
	cmd := command.SendRematch{GameID: c.Param("id")}
	if !that.bind(c, &cmd, false) {
		return
	}

	ok, err := that.games.Rematch(c.Request.Context(), cmd.GameID, UserID(c))
	that.result(c, "Rematch", ok, err)
}

func (that *GameHandler) SendMessage(c *gin.Context) {
	var cmd command.SendMessage
	if !that.bind(c, &cmd, true) {
		return
	}

	ok, err := that.games.SendMessage(c.Request.Context(), cmd.GameID, UserID(c), cmd.Message)
	that.result(c, "SendMessage", ok, err)
}

// bind decodes the JSON body into cmd when withBody is set, takes the game id
// from the path and validates the result. It answers 400 itself on failure.
func (that *GameHandler) bind(c *gin.Context, cmd any, withBody bool) bool {
	if withBody && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return false
		}
	}

	if gameID := c.Param("id"); gameID != "" {
		switch typed := cmd.(type) {
		case *command.MakeMove:
			typed.GameID = gameID
		case *command.SendMessage:
			typed.GameID = gameID
		}
	}

	if err := that.validate.Validate(cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}

	return true
}

func (that *GameHandler) result(c *gin.Context, method string, ok bool, err error) {
	if err != nil {
		that.internalError(c, method, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func (that *GameHandler) internalError(c *gin.Context, method string, err error) {
	that.logger.With("method", method).Error("command failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
