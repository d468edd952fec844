package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/ent0n29/coachvoice/internal/voice"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// EndReason says why a session stopped being active.
type EndReason string

const (
	EndRequested  EndReason = "requested"
	EndInactive   EndReason = "inactive"
	EndSuperseded EndReason = "superseded"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID             string             `json:"session_id"`
	Status         Status             `json:"status"`
	Capabilities   voice.Capabilities `json:"capabilities"`
	Language       string             `json:"language"`
	EndReason      EndReason          `json:"end_reason,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	LastActivityAt time.Time          `json:"last_activity_at"`
}

// Manager tracks the single active voice session. Creating a session ends the previous one.
type Manager struct {
	mu                sync.RWMutex
	clock             clock.Clock
	sessions          map[string]*Session
	activeID          string
	inactivityTimeout time.Duration
	onEnd             func(*Session)
}

func NewManager(clk clock.Clock, inactivityTimeout time.Duration) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	if inactivityTimeout <= 0 {
		inactivityTimeout = 2 * time.Minute
	}
	return &Manager{
		clock:             clk,
		sessions:          make(map[string]*Session),
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) InactivityTimeout() time.Duration { return m.inactivityTimeout }

// SetEndHook registers fn to run, outside the lock, whenever a session ends.
func (m *Manager) SetEndHook(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnd = fn
}

func (m *Manager) Create(caps voice.Capabilities, language string) *Session {
	now := m.clock.Now().UTC()
	s := &Session{
		ID:             uuid.NewString(),
		Status:         StatusActive,
		Capabilities:   caps,
		Language:       language,
		StartedAt:      now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	var superseded *Session
	if prev, ok := m.sessions[m.activeID]; ok && prev.Status == StatusActive {
		endLocked(prev, EndSuperseded, now)
		superseded = clone(prev)
	}
	for id, old := range m.sessions {
		if old.Status == StatusEnded {
			delete(m.sessions, id)
		}
	}
	m.sessions[s.ID] = s
	m.activeID = s.ID
	hook := m.onEnd
	m.mu.Unlock()

	if superseded != nil && hook != nil {
		hook(superseded)
	}
	return clone(s)
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// Active returns the current session, if any.
func (m *Manager) Active() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[m.activeID]
	if !ok || s.Status != StatusActive {
		return nil, false
	}
	return clone(s), true
}

func (m *Manager) Touch(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	s.LastActivityAt = m.clock.Now().UTC()
	return nil
}

func (m *Manager) End(sessionID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	wasActive := s.Status == StatusActive
	if wasActive {
		endLocked(s, EndRequested, m.clock.Now().UTC())
	}
	out := clone(s)
	hook := m.onEnd
	m.mu.Unlock()

	if wasActive && hook != nil {
		hook(out)
	}
	return out, nil
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := m.clock.Ticker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) ActiveCount() int {
	if _, ok := m.Active(); ok {
		return 1
	}
	return 0
}

func (m *Manager) expireInactive() {
	now := m.clock.Now().UTC()
	var expired *Session

	m.mu.Lock()
	if s, ok := m.sessions[m.activeID]; ok && s.Status == StatusActive && now.Sub(s.LastActivityAt) >= m.inactivityTimeout {
		endLocked(s, EndInactive, now)
		expired = clone(s)
	}
	hook := m.onEnd
	m.mu.Unlock()

	if expired != nil && hook != nil {
		hook(expired)
	}
}

func endLocked(s *Session, reason EndReason, now time.Time) {
	s.Status = StatusEnded
	s.EndReason = reason
	s.LastActivityAt = now
}

func clone(s *Session) *Session {
	cp := *s
	return &cp
}
