package rules

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/donaldgifford/chatwatch/internal/metrics"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// ReloadError records the most recent failed reload.
type ReloadError struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ChangeFunc is called after a new rule set becomes active.
type ChangeFunc func(prev, next *domain.RuleSet)

// Manager holds the active rule set. Readers take one Current() snapshot per
// evaluation tick; Reload swaps the pointer atomically so a tick never sees a
// half-applied rule set.
type Manager struct {
	path    string
	current atomic.Pointer[domain.RuleSet]
	lastErr atomic.Pointer[ReloadError]

	mu        sync.Mutex // serializes reloads and hook registration
	listeners []ChangeFunc

	knownSinks []string

	nowFunc func() time.Time
	log     *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = l
	}
}

// WithNowFunc overrides the clock for testing.
func WithNowFunc(f func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = f
	}
}

// WithKnownSinks makes loads and reloads reject rules naming a sink outside
// names. Without it sink names are not checked.
func WithKnownSinks(names []string) ManagerOption {
	return func(m *Manager) {
		m.knownSinks = append([]string{}, names...)
	}
}

// NewManager loads the rule file at path. A load failure here is a startup
// configuration error and is returned to the caller.
func NewManager(path string, opts ...ManagerOption) (*Manager, error) {
	m := newManager(path, opts...)

	set, err := m.load()
	if err != nil {
		return nil, err
	}
	m.current.Store(set)
	m.log.Info("rules loaded", "path", path, "count", len(set.Rules))
	return m, nil
}

// NewStaticManager wraps an already validated rule set. Reload is a no-op
// returning the same set.
func NewStaticManager(set *domain.RuleSet, opts ...ManagerOption) *Manager {
	m := newManager("", opts...)
	if set == nil {
		set = &domain.RuleSet{}
	}
	m.current.Store(set)
	return m
}

func newManager(path string, opts ...ManagerOption) *Manager {
	m := &Manager{
		path:    path,
		nowFunc: time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) load() (*domain.RuleSet, error) {
	set, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	if m.knownSinks != nil {
		if err := CheckSinks(set, m.knownSinks); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Path returns the rule file path, empty for a static manager.
func (m *Manager) Path() string {
	return m.path
}

// Current returns the active rule set. The returned value must not be modified.
func (m *Manager) Current() *domain.RuleSet {
	return m.current.Load()
}

// LastError returns the last reload failure, or nil if the most recent
// reload succeeded.
func (m *Manager) LastError() *ReloadError {
	return m.lastErr.Load()
}

// OnChange registers fn to run after every successful reload.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Reload re-reads the rule file. On failure the previous rule set stays
// active and the error is kept for LastError.
func (m *Manager) Reload() (*domain.RuleSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.path == "" {
		return m.Current(), nil
	}

	next, err := m.load()
	if err != nil {
		m.lastErr.Store(&ReloadError{Message: err.Error(), At: m.nowFunc().UTC()})
		metrics.RuleReloadsTotal.WithLabelValues("failure").Inc()
		m.log.Error("rule reload failed, keeping previous rules", "path", m.path, "error", err)
		return m.Current(), fmt.Errorf("reloading rules: %w", err)
	}

	next.LoadedAt = m.nowFunc().UTC()
	prev := m.current.Swap(next)
	m.lastErr.Store(nil)
	metrics.RuleReloadsTotal.WithLabelValues("success").Inc()
	m.log.Info("rules reloaded", "path", m.path, "count", len(next.Rules))

	for _, fn := range m.listeners {
		fn(prev, next)
	}
	return next, nil
}
