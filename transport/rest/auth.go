package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/supertris-backend/internal/entity"
)

const authCookieMaxAge = 30 * 24 * 60 * 60

type userService interface {
	CreateAnonymous(ctx context.Context, name string) (*entity.User, error)
}

type authService interface {
	GenerateToken(userID string) (string, error)
}

type AuthHandler struct {
	logger *slog.Logger

	users userService
	auth  authService
}

func NewAuthHandler(logger *slog.Logger, users userService, auth authService) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		users:  users,
		auth:   auth,
	}
}

type anonymousRequest struct {
	Name string `json:"name"`
}

type anonymousResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

// Anonymous signs up a throwaway user and hands back its token, also as a cookie.
func (that *AuthHandler) Anonymous(c *gin.Context) {
	log := that.logger.With("method", "Anonymous")

	var req anonymousRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	user, err := that.users.CreateAnonymous(c.Request.Context(), req.Name)
	if err != nil {
		log.Error("failed to create user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	token, err := that.auth.GenerateToken(user.ID)
	if err != nil {
		log.Error("failed to generate auth token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authCookieName, token, authCookieMaxAge, "/", "", false, true)

	c.JSON(http.StatusOK, anonymousResponse{
		UserID: user.ID,
		Name:   user.Name,
		Token:  token,
	})
}
