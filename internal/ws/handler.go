// Package ws streams wrapper session output over WebSocket and accepts
// command frames in return.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/cliwrap/cliwrap/internal/logging"
	"github.com/cliwrap/cliwrap/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are filtered by the CORS layer
	},
}

// Message is the frame exchanged with clients.
type Message struct {
	Type    string `json:"type"`
	Data    string `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Handler manages WebSocket connections to sessions.
type Handler struct {
	sessions    *session.Manager
	pollTimeout time.Duration
	log         *logging.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(sessions *session.Manager, pollTimeout time.Duration, log *logging.Logger) *Handler {
	if pollTimeout <= 0 {
		pollTimeout = 100 * time.Millisecond
	}
	if log == nil {
		log = logging.NewDefault()
	}
	return &Handler{sessions: sessions, pollTimeout: pollTimeout, log: log}
}

// HandleSession upgrades the connection and bridges it to one session:
// drained output flows out, command frames flow in.
func (h *Handler) HandleSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.sessions.Get(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(msg Message) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	_ = send(Message{Type: "system", Message: "connected to session " + id})

	done := make(chan struct{})
	go h.pumpOutput(id, send, done)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "command":
			if err := h.sessions.Run(id, msg.Data); err != nil {
				_ = send(Message{Type: "error", Message: err.Error()})
			}
		case "ping":
			_ = send(Message{Type: "pong"})
		}
	}
	close(done)
}

// pumpOutput polls the session and pushes output frames until the
// connection closes or the child terminates. On a drain failure it sends
// one status line and stops polling; the client restarts the session to
// resume.
func (h *Handler) pumpOutput(id string, send func(Message) error, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		text, err := h.sessions.Output(id, h.pollTimeout)
		if err != nil {
			h.log.Info("session output pump stopped",
				zap.String("session_id", id), zap.Error(err))
			_ = send(Message{Type: "status", Message: "process terminated"})
			return
		}
		if text != "" {
			if err := send(Message{Type: "output", Data: text}); err != nil {
				return
			}
		}
	}
}
