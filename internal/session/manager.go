// Package session manages wrapper sessions for the HTTP surface: one
// wrapped child process plus its command history per session ID.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cliwrap/cliwrap/internal/history"
	"github.com/cliwrap/cliwrap/internal/logging"
	"github.com/cliwrap/cliwrap/internal/metrics"
	"github.com/cliwrap/cliwrap/internal/wrapper"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session binds one wrapper to an ID and a recall history.
type Session struct {
	ID        string
	CreatedAt time.Time
	Wrapper   *wrapper.Wrapper
	History   *history.Buffer
}

// Info is the public representation of a session.
type Info struct {
	ID         string    `json:"id"`
	Executable string    `json:"executable"`
	Workdir    string    `json:"workdir,omitempty"`
	Encoding   string    `json:"encoding,omitempty"`
	PID        int       `json:"pid"`
	Running    bool      `json:"running"`
	CreatedAt  time.Time `json:"created_at"`
}

// Manager owns the active sessions. It is safe for concurrent use.
type Manager struct {
	log     *logging.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager(log *logging.Logger, m *metrics.Metrics) *Manager {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Manager{
		log:      log,
		metrics:  m,
		sessions: make(map[string]*Session),
	}
}

// Create spawns a new session around the given wrapper options.
func (m *Manager) Create(opts wrapper.Options) (*Info, error) {
	if opts.Logger == nil {
		opts.Logger = m.log
	}
	w, err := wrapper.New(opts)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Wrapper:   w,
		History:   history.New(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionsTotal.Inc()
		m.metrics.SessionsActive.Inc()
	}
	m.log.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("executable", opts.Executable))
	return m.info(s), nil
}

// Get retrieves a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return s, nil
}

// Describe returns the public view of one session.
func (m *Manager) Describe(id string) (*Info, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return m.info(s), nil
}

// List returns all sessions, unordered.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, *m.info(s))
	}
	return infos
}

// Start starts a stopped session's child. Restarting is counted.
func (m *Manager) Start(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.Wrapper.Start(); err != nil {
		return err
	}
	if m.metrics != nil {
		m.metrics.RestartsTotal.Inc()
	}
	return nil
}

// Stop gracefully stops a session's child, keeping the session around for
// a later restart.
func (m *Manager) Stop(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return s.Wrapper.Stop()
}

// Kill force-terminates a session's child.
func (m *Manager) Kill(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return s.Wrapper.Kill()
}

// Run records the command in the session history and writes it to the
// child's stdin.
func (m *Manager) Run(id, command string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.History.Add(strings.Trim(command, "\n"))
	if err := s.Wrapper.RunCommand(command); err != nil {
		return err
	}
	if m.metrics != nil {
		m.metrics.CommandsTotal.Inc()
	}
	return nil
}

// Output drains the session's available output into marked text.
func (m *Manager) Output(id string, timeout time.Duration) (string, error) {
	s, err := m.Get(id)
	if err != nil {
		return "", err
	}
	items, err := s.Wrapper.Drain(timeout)
	if err != nil {
		if m.metrics != nil {
			m.metrics.DrainErrorsTotal.Inc()
		}
		return "", err
	}
	if m.metrics != nil {
		for _, item := range items {
			channel := item.Channel.String()
			m.metrics.OutputItemsTotal.WithLabelValues(channel).Inc()
			m.metrics.OutputBytesTotal.WithLabelValues(channel).Add(float64(len(item.Text)))
		}
	}
	return s.Wrapper.FormatItems(items), nil
}

// Communicate optionally runs a command, then drains output.
func (m *Manager) Communicate(id, command string, timeout time.Duration) (string, error) {
	if command != "" {
		if err := m.Run(id, command); err != nil {
			return "", err
		}
	}
	return m.Output(id, timeout)
}

// Close stops a session's child (ignoring an already-stopped one) and
// removes the session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	if m.metrics != nil {
		m.metrics.SessionsActive.Dec()
	}
	m.log.Info("session closed", zap.String("session_id", id))
	return s.Wrapper.Close()
}

// Shutdown closes every session. Used on server teardown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		if err := s.Wrapper.Close(); err != nil {
			m.log.Warn("session shutdown", zap.String("session_id", s.ID), zap.Error(err))
		}
		if m.metrics != nil {
			m.metrics.SessionsActive.Dec()
		}
	}
}

func (m *Manager) info(s *Session) *Info {
	opts := s.Wrapper.Options()
	return &Info{
		ID:         s.ID,
		Executable: opts.Executable,
		Workdir:    opts.Workdir,
		Encoding:   opts.Encoding,
		PID:        s.Wrapper.PID(),
		Running:    s.Wrapper.IsRunning(),
		CreatedAt:  s.CreatedAt,
	}
}
