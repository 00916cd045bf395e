// Package command holds the validated input shapes accepted at the transport boundary.
package command

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type CreateGame struct {
	Name string `json:"name" validate:"max=100"`
}

type JoinGame struct {
	GameID string `json:"game_id" validate:"required"`
}

// MakeMove takes pointers so a missing coordinate is told apart from zero.
type MakeMove struct {
	GameID string `json:"game_id" validate:"required"`
	X      *int   `json:"x" validate:"required,min=0,max=8"`
	Y      *int   `json:"y" validate:"required,min=0,max=8"`
}

type SendRematch struct {
	GameID string `json:"game_id" validate:"required"`
}

// SendMessage is limited to entity.MaxMessageLength runes after trimming.
type SendMessage struct {
	GameID  string `json:"game_id" validate:"required"`
	Message string `json:"message" validate:"required,max=500"`
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate normalizes cmd in place and checks it against its tags.
func (that *Validator) Validate(cmd any) error {
	switch c := cmd.(type) {
	case *CreateGame:
		c.Name = strings.TrimSpace(c.Name)
	case *SendMessage:
		c.Message = strings.TrimSpace(c.Message)
	}

	if err := that.validate.Struct(cmd); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	return nil
}
