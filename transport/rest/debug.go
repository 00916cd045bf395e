package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sessionInspector interface {
	Snapshot() map[string]int
	Heartbeat()
}

type DebugHandler struct {
	sessions sessionInspector
}

func NewDebugHandler(sessions sessionInspector) *DebugHandler {
	return &DebugHandler{
		sessions: sessions,
	}
}

// Games lists live connections per game and forces a heartbeat.
func (that *DebugHandler) Games(c *gin.Context) {
	snapshot := that.sessions.Snapshot()
	that.sessions.Heartbeat()

	c.JSON(http.StatusOK, gin.H{"games": snapshot})
}
