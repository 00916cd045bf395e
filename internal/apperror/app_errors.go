package apperror

import "errors"

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameIsDraft        = errors.New("game is waiting for a second player")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrNotAPlayer         = errors.New("user is not a player of this game")
	ErrSelfPlay           = errors.New("player can't join own game")
	ErrIllegalMove        = errors.New("move is not allowed")
	ErrMoveConflict       = errors.New("move slot already taken")
	ErrRematchPending     = errors.New("rematch already proposed by this player")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized")
)
