// Package toast manages transient UI notifications raised on submission
// results and broadcast to connected capture clients.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeWarning = "warning"
	TypeInfo    = "info"
)

// Toast is one transient notification.
type Toast struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Title    string        `json:"title,omitempty"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
}

// Screen corners a client may anchor the toast stack to.
const (
	PositionTopRight    = "top-right"
	PositionTopLeft     = "top-left"
	PositionBottomRight = "bottom-right"
	PositionBottomLeft  = "bottom-left"
)

// Config controls the manager. Zero values use defaults.
type Config struct {
	// Duration is the default display time. Default: 4s.
	Duration time.Duration

	// Position is the screen corner clients render the stack in.
	// Default: bottom-right.
	Position string

	// MaxVisible caps simultaneously active toasts; pushing beyond the
	// cap evicts the oldest. Default: 3.
	MaxVisible int
}

// DefaultConfig returns the default toast settings.
func DefaultConfig() Config {
	return Config{
		Duration:   4 * time.Second,
		Position:   PositionBottomRight,
		MaxVisible: 3,
	}
}

// Manager owns the in-memory toast list. All mutations are serialized;
// expiry is timer-driven and a manual dismiss wins over a pending timer.
type Manager struct {
	cfg Config

	mu     sync.Mutex
	active []Toast
	timers map[string]*time.Timer

	// onChange, when set, receives the active list after every change.
	onChange func([]Toast)
}

// NewManager creates a toast manager.
func NewManager(cfg Config) *Manager {
	d := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = d.Duration
	}
	if cfg.Position == "" {
		cfg.Position = d.Position
	}
	if cfg.MaxVisible <= 0 {
		cfg.MaxVisible = d.MaxVisible
	}
	return &Manager{
		cfg:    cfg,
		timers: make(map[string]*time.Timer),
	}
}

// Position returns the configured screen corner for the stack.
func (m *Manager) Position() string { return m.cfg.Position }

// OnChange registers a callback invoked with a copy of the active list
// after every push, dismissal, or expiry.
func (m *Manager) OnChange(fn func([]Toast)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Push adds a toast and schedules its expiry. Returns the assigned ID.
func (m *Manager) Push(typ, title, message string) string {
	return m.PushWithDuration(typ, title, message, 0)
}

// PushWithDuration adds a toast with an explicit display time.
// A non-positive duration uses the configured default.
func (m *Manager) PushWithDuration(typ, title, message string, d time.Duration) string {
	if d <= 0 {
		d = m.cfg.Duration
	}

	t := Toast{
		ID:       uuid.NewString(),
		Type:     typ,
		Title:    title,
		Message:  message,
		Duration: d,
	}

	m.mu.Lock()
	m.active = append(m.active, t)

	// Evict oldest beyond the visible cap.
	for len(m.active) > m.cfg.MaxVisible {
		evicted := m.active[0]
		m.active = m.active[1:]
		if timer, ok := m.timers[evicted.ID]; ok {
			timer.Stop()
			delete(m.timers, evicted.ID)
		}
	}

	m.timers[t.ID] = time.AfterFunc(d, func() { m.Dismiss(t.ID) })
	m.notifyLocked()
	m.mu.Unlock()

	return t.ID
}

// Dismiss removes a toast by ID. Unknown IDs are ignored.
func (m *Manager) Dismiss(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if timer, ok := m.timers[id]; ok {
		timer.Stop()
		delete(m.timers, id)
	}

	out := m.active[:0]
	removed := false
	for _, t := range m.active {
		if t.ID == id {
			removed = true
			continue
		}
		out = append(out, t)
	}
	m.active = out

	if removed {
		m.notifyLocked()
	}
}

// Active returns a copy of the currently visible toasts.
func (m *Manager) Active() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, len(m.active))
	copy(out, m.active)
	return out
}

// Close stops all pending expiry timers.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, timer := range m.timers {
		timer.Stop()
		delete(m.timers, id)
	}
	m.active = nil
}

// notifyLocked calls onChange with a snapshot; caller holds the lock.
func (m *Manager) notifyLocked() {
	if m.onChange == nil {
		return
	}
	snapshot := make([]Toast, len(m.active))
	copy(snapshot, m.active)
	go m.onChange(snapshot)
}
