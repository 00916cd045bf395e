package command

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestValidator_MakeMove(t *testing.T) {
	v := NewValidator()

	t.Run("Valid move", func(t *testing.T) {
		err := v.Validate(&MakeMove{GameID: "1", X: intPtr(0), Y: intPtr(8)})

		require.NoError(t, err)
	})

	t.Run("Missing coordinate", func(t *testing.T) {
		err := v.Validate(&MakeMove{GameID: "1", X: intPtr(4)})

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "Y", verrs[0].Field())
	})

	t.Run("Coordinate out of range", func(t *testing.T) {
		err := v.Validate(&MakeMove{GameID: "1", X: intPtr(9), Y: intPtr(0)})

		require.Error(t, err)
	})

	t.Run("Negative coordinate", func(t *testing.T) {
		err := v.Validate(&MakeMove{GameID: "1", X: intPtr(0), Y: intPtr(-1)})

		require.Error(t, err)
	})
}

func TestValidator_SendMessage(t *testing.T) {
	v := NewValidator()

	t.Run("Message is trimmed", func(t *testing.T) {
		// Given: a message padded with whitespace
		cmd := &SendMessage{GameID: "1", Message: "  good game \n"}

		// When: it is validated
		err := v.Validate(cmd)

		// Then: it passes and is stored trimmed
		require.NoError(t, err)
		assert.Equal(t, "good game", cmd.Message)
	})

	t.Run("Whitespace only is empty", func(t *testing.T) {
		err := v.Validate(&SendMessage{GameID: "1", Message: "   "})

		require.Error(t, err)
	})

	t.Run("Limit counts runes", func(t *testing.T) {
		err := v.Validate(&SendMessage{GameID: "1", Message: strings.Repeat("é", 500)})
		require.NoError(t, err)

		err = v.Validate(&SendMessage{GameID: "1", Message: strings.Repeat("é", 501)})
		require.Error(t, err)
	})
}

func TestValidator_CreateGame(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Validate(&CreateGame{}))
	require.NoError(t, v.Validate(&CreateGame{Name: strings.Repeat("a", 100)}))
	require.Error(t, v.Validate(&CreateGame{Name: strings.Repeat("a", 101)}))
}

func TestValidator_GameIDRequired(t *testing.T) {
	v := NewValidator()

	require.Error(t, v.Validate(&JoinGame{}))
	require.Error(t, v.Validate(&SendRematch{}))
	require.NoError(t, v.Validate(&SendRematch{GameID: "3"}))
}
