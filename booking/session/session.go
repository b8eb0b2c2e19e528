// Package session tracks per-user booking conversations in memory.
// Sessions are not persisted; a process restart drops any dialogue
// that has not reached the store yet.
package session

import (
	"errors"
	"sync"
	"time"
)

// Step identifies where a user currently is in the booking dialogue.
type Step string

const (
	StepIdle                 Step = "idle"
	StepCollectingName       Step = "collecting_name"
	StepCollectingPhone      Step = "collecting_phone"
	StepAwaitingReceipt      Step = "awaiting_receipt"
	StepAwaitingConfirmation Step = "awaiting_confirmation"
)

// ErrNoSession is returned when an operation requires an active session.
var ErrNoSession = errors.New("session: no active session")

// Session holds the data collected so far for one user's booking.
type Session struct {
	UserID         int64
	Step           Step
	PlanID         string
	FullName       string
	Username       string
	Phone          string
	RegistrationID string
	StartedAt      time.Time
	UpdatedAt      time.Time
}

// Manager owns all in-flight sessions. All methods are safe for
// concurrent use; Update runs its mutation under the manager lock so
// read-modify-write sequences cannot interleave.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	now      func() time.Time

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// NewManager constructs an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Begin starts a fresh session for the user at the given step,
// replacing any existing one.
func (m *Manager) Begin(userID int64, step Step, planID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sessions[userID] = &Session{
		UserID:    userID,
		Step:      step,
		PlanID:    planID,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Update applies fn to the user's session under the manager lock.
func (m *Manager) Update(userID int64, fn func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return ErrNoSession
	}
	fn(sess)
	sess.UpdatedAt = m.now()
	return nil
}

// Snapshot returns a copy of the user's session.
func (m *Manager) Snapshot(userID int64) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Step returns the user's current step, or StepIdle without a session.
func (m *Manager) Step(userID int64) Step {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.Step
	}
	return StepIdle
}

// End removes the user's session.
func (m *Manager) End(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// InProgress reports whether the user has an active, non-idle session.
func (m *Manager) InProgress(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	return ok && sess.Step != StepIdle
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartSweeper evicts sessions idle longer than ttl, checking every
// interval. It is a no-op when ttl <= 0.
func (m *Manager) StartSweeper(ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	m.sweepStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.sweepStop:
				return
			case <-ticker.C:
				m.sweep(ttl)
			}
		}
	}()
}

// Stop terminates the sweeper goroutine if one was started.
func (m *Manager) Stop() {
	if m.sweepStop == nil {
		return
	}
	m.sweepOnce.Do(func() { close(m.sweepStop) })
}

func (m *Manager) sweep(ttl time.Duration) {
	cutoff := m.now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
