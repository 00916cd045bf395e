package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/supertris-backend/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Connection is a websocket push sink. Frames are queued and written by a
// single writer goroutine; a full queue counts as a dead sink.
type Connection struct {
	id     string
	userID string
	ws     *websocket.Conn

	send      chan []byte
	done      chan struct{}
	finished  chan struct{}
	closeOnce sync.Once
}

func newConnection(id, userID string, ws *websocket.Conn, sendBuffer int) *Connection {
	return &Connection{
		id:       id,
		userID:   userID,
		ws:       ws,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

func (that *Connection) ID() string {
	return that.id
}

func (that *Connection) UserID() string {
	return that.userID
}

func (that *Connection) Push(frame []byte) error {
	select {
	case <-that.done:
		return session.ErrSinkClosed
	default:
	}

	select {
	case that.send <- frame:
		return nil
	default:
		return session.ErrSinkClosed
	}
}

// Close stops the connection; frames queued before it are still flushed.
func (that *Connection) Close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// wait blocks until the writer has flushed and closed the socket.
func (that *Connection) wait() {
	<-that.finished
}

func (that *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = that.ws.Close()
		close(that.finished)
	}()

	for {
		select {
		case frame := <-that.send:
			if err := that.write(websocket.TextMessage, frame); err != nil {
				that.Close()
				return
			}
		case <-ticker.C:
			if err := that.write(websocket.PingMessage, nil); err != nil {
				that.Close()
				return
			}
		case <-that.done:
			that.drain()
			_ = that.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (that *Connection) drain() {
	for {
		select {
		case frame := <-that.send:
			if err := that.write(websocket.TextMessage, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (that *Connection) write(messageType int, data []byte) error {
	if err := that.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return that.ws.WriteMessage(messageType, data)
}
