package rest

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey       = "userID"
	authCookieName  = "auth_token"
	authQueryParam  = "token"
	bearerPrefix    = "Bearer "
	errUnauthorized = "unauthorized"
)

type tokenParser interface {
	ParseToken(token string) (string, error)
}

// RequestLogger logs one line per request once it is served.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	log := logger.With("component", "http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// Authenticate resolves the caller from a bearer header, the auth cookie or the
// token query parameter. Requests without a valid token stay anonymous.
func Authenticate(tokens tokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token != "" {
			if userID, err := tokens.ParseToken(token); err == nil {
				c.Set(userIDKey, userID)
			}
		}

		c.Next()
	}
}

// RequireUser rejects anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Next()
	}
}

// UserID returns the authenticated user of the request, "" when anonymous.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix)
	}

	if cookie, err := c.Cookie(authCookieName); err == nil && cookie != "" {
		return cookie
	}

	return c.Query(authQueryParam)
}
