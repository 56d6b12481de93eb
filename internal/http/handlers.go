// Package http exposes the session manager and completion index over a
// REST API.
package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cliwrap/cliwrap/internal/completion"
	"github.com/cliwrap/cliwrap/internal/session"
	"github.com/cliwrap/cliwrap/internal/wrapper"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	sessions    *session.Manager
	completions *completion.Index
	defaults    Defaults
}

// Defaults are applied to session creation requests that omit them.
type Defaults struct {
	QueueCapacity int
	PollTimeout   time.Duration
}

// NewHandlers creates a new handler set.
func NewHandlers(sessions *session.Manager, completions *completion.Index, defaults Defaults) *Handlers {
	if defaults.PollTimeout <= 0 {
		defaults.PollTimeout = wrapper.DefaultPollTimeout
	}
	return &Handlers{
		sessions:    sessions,
		completions: completions,
		defaults:    defaults,
	}
}

// Root handles the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "cliwrap",
	})
}

// Health handles health checks.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": len(h.sessions.List()),
	})
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Executable   string   `json:"executable" binding:"required"`
	Args         []string `json:"args"`
	Workdir      string   `json:"workdir"`
	Encoding     string   `json:"encoding"`
	StderrPrefix string   `json:"stderr_prefix"`
	AutoStart    *bool    `json:"auto_start"`
	HideWindow   bool     `json:"hide_window"`
}

// CreateSession spawns a new wrapper session.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	autoStart := true
	if req.AutoStart != nil {
		autoStart = *req.AutoStart
	}
	info, err := h.sessions.Create(wrapper.Options{
		Executable:    req.Executable,
		Args:          req.Args,
		Workdir:       req.Workdir,
		Encoding:      req.Encoding,
		StderrPrefix:  req.StderrPrefix,
		AutoStart:     autoStart,
		HideWindow:    req.HideWindow,
		QueueCapacity: h.defaults.QueueCapacity,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, info)
}

// ListSessions lists all sessions.
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.sessions.List()})
}

// GetSession describes one session.
func (h *Handlers) GetSession(c *gin.Context) {
	info, err := h.sessions.Describe(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// CloseSession stops and removes a session.
func (h *Handlers) CloseSession(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": true})
}

// StartSession starts (or restarts) a session's child.
func (h *Handlers) StartSession(c *gin.Context) {
	h.lifecycle(c, h.sessions.Start)
}

// StopSession gracefully stops a session's child.
func (h *Handlers) StopSession(c *gin.Context) {
	h.lifecycle(c, h.sessions.Stop)
}

// KillSession force-terminates a session's child.
func (h *Handlers) KillSession(c *gin.Context) {
	h.lifecycle(c, h.sessions.Kill)
}

func (h *Handlers) lifecycle(c *gin.Context, op func(string) error) {
	id := c.Param("id")
	if err := op(id); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	info, err := h.sessions.Describe(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// CommandRequest is the body of command and communicate calls.
type CommandRequest struct {
	Command string `json:"command"`
}

// RunCommand writes a command to the session's child.
func (h *Handlers) RunCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessions.Run(c.Param("id"), req.Command); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// GetOutput drains available output from the session.
func (h *Handlers) GetOutput(c *gin.Context) {
	timeout := h.defaults.PollTimeout
	if v := c.Query("timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timeout: " + v})
			return
		}
		timeout = d
	}
	out, err := h.sessions.Output(c.Param("id"), timeout)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"output": out})
}

// Communicate optionally sends a command, then drains output.
func (h *Handlers) Communicate(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.sessions.Communicate(c.Param("id"), req.Command, h.defaults.PollTimeout)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"output": out})
}

// HistoryPrev recalls the previous command in the session history.
func (h *Handlers) HistoryPrev(c *gin.Context) {
	h.recall(c, func(s *session.Session) (string, bool) { return s.History.Prev() })
}

// HistoryNext recalls the next command in the session history.
func (h *Handlers) HistoryNext(c *gin.Context) {
	h.recall(c, func(s *session.Session) (string, bool) { return s.History.Next() })
}

func (h *Handlers) recall(c *gin.Context, move func(*session.Session) (string, bool)) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	command, ok := move(s)
	c.JSON(http.StatusOK, gin.H{"command": command, "found": ok})
}

// ListCompletions returns the current suggestion entries, scheduling a
// background rebuild so the index keeps up with the workspace.
func (h *Handlers) ListCompletions(c *gin.Context) {
	if h.completions == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "completions disabled"})
		return
	}
	h.completions.Rebuild()
	c.JSON(http.StatusOK, gin.H{
		"completions": h.completions.Entries(),
		"built_at":    h.completions.BuiltAt(),
	})
}

// RebuildCompletions schedules an index rebuild.
func (h *Handlers) RebuildCompletions(c *gin.Context) {
	if h.completions == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "completions disabled"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"scheduled": h.completions.Rebuild()})
}

// statusFor maps wrapper errors to HTTP statuses: lifecycle conflicts are
// 409, unknown sessions 404.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wrapper.ErrNotRunning), errors.Is(err, wrapper.ErrAlreadyRunning):
		return http.StatusConflict
	case strings.Contains(err.Error(), "session not found"):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
