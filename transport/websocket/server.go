package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/supertris-backend/internal/pkg"
	"github.com/rocketscienceinc/supertris-backend/internal/protocol"
	"github.com/rocketscienceinc/supertris-backend/internal/session"
	"github.com/rocketscienceinc/supertris-backend/transport/rest"
)

type gameCoordinator interface {
	Attach(ctx context.Context, gameID string, conn session.Connection) (bool, error)
	Detach(ctx context.Context, gameID, connID string) error
	JoinGame(ctx context.Context, gameID, userID string) (bool, error)
	MakeMove(ctx context.Context, gameID, userID string, x, y int) (bool, error)
	Rematch(ctx context.Context, gameID, userID string) (bool, error)
	SendMessage(ctx context.Context, gameID, userID, content string) (bool, error)
}

type commandValidator interface {
	Validate(cmd any) error
}

type Options struct {
	SendBuffer     int
	ReadLimit      int64
	AllowedOrigins []string
}

// Message is an action sent by the client over the socket.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type handlerFunc func(ctx context.Context, conn *Connection, gameID string, payload json.RawMessage) (bool, error)

type Server struct {
	logger *slog.Logger

	ctx         context.Context
	coordinator gameCoordinator
	validate    commandValidator
	upgrader    websocket.Upgrader
	opts        Options

	handlers map[string]handlerFunc
}

// New builds the game stream endpoint. Connections are closed when ctx ends.
func New(ctx context.Context, logger *slog.Logger, coordinator gameCoordinator, validate commandValidator, opts Options) *Server {
	server := &Server{
		logger:      logger,
		ctx:         ctx,
		coordinator: coordinator,
		validate:    validate,
		opts:        opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		handlers: make(map[string]handlerFunc),
	}

	server.upgrader.CheckOrigin = server.checkOrigin

	server.handlers[actionJoin] = server.handleJoin
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionRematch] = server.handleRematch
	server.handlers[actionChat] = server.handleChat

	return server
}

// ServeGame upgrades the request and streams the game named by the :id path parameter.
func (that *Server) ServeGame(c *gin.Context) {
	gameID := c.Param("id")
	userID := rest.UserID(c)

	log := that.logger.With("method", "ServeGame", "gameID", gameID, "userID", userID)

	ws, err := that.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(pkg.GenerateConnectionID(), userID, ws, that.opts.SendBuffer)
	log = log.With("connID", conn.ID())

	go conn.writePump()

	go func() {
		select {
		case <-that.ctx.Done():
			conn.Close()
		case <-conn.done:
		}
	}()

	ctx := context.WithoutCancel(c.Request.Context())

	ok, err := that.coordinator.Attach(ctx, gameID, conn)
	if err != nil {
		log.Error("failed to attach connection", "error", err)
	}

	if err != nil || !ok {
		conn.Close()
		conn.wait()

		return
	}

	that.readPump(ctx, conn, gameID)

	conn.Close()

	if err = that.coordinator.Detach(ctx, gameID, conn.ID()); err != nil {
		log.Error("failed to detach connection", "error", err)
	}

	conn.wait()
}

func (that *Server) readPump(ctx context.Context, conn *Connection, gameID string) {
	log := that.logger.With("method", "readPump", "gameID", gameID, "connID", conn.ID())

	if that.opts.ReadLimit > 0 {
		conn.ws.SetReadLimit(that.opts.ReadLimit)
	}

	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("connection lost", "error", err)
			}

			return
		}

		var message Message
		if err = json.Unmarshal(raw, &message); err != nil {
			that.reply(conn, protocol.CommandResult{Error: errInvalidMessage})
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.reply(conn, protocol.CommandResult{Action: message.Action, Error: errUnknownAction})
			continue
		}

		result := protocol.CommandResult{Action: message.Action}

		result.OK, err = handler(ctx, conn, gameID, message.Payload)
		if err != nil {
			result.Error = that.describe(log, message.Action, err)
		}

		that.reply(conn, result)
	}
}

func (that *Server) reply(conn *Connection, result protocol.CommandResult) {
	frame, err := protocol.Encode(result)
	if err != nil {
		that.logger.With("method", "reply").Error("failed to encode command result", "error", err)
		return
	}

	if err = conn.Push(frame); err != nil {
		conn.Close()
	}
}

func (that *Server) checkOrigin(r *http.Request) bool {
	if len(that.opts.AllowedOrigins) == 0 {
		return true
	}

	return slices.Contains(that.opts.AllowedOrigins, r.Header.Get("Origin"))
}
