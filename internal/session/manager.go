package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"tracker-client/internal/domain"
	"tracker-client/internal/ports"
)

// Manager owns the session lifecycle on top of a SessionStore and publishes
// every transition to registered subscribers.
type Manager struct {
	store ports.SessionStore
	log   *slog.Logger

	mu      sync.Mutex
	current domain.Session
	synced  bool // current mirrors the store
	nextID  int
	subs    []subscriber
}

type subscriber struct {
	id int
	fn func(domain.Session)
}

func NewManager(store ports.SessionStore, log *slog.Logger) *Manager {
	return &Manager{store: store, log: log}
}

// Restore loads the persisted session. It never fails: a read error is logged
// and treated as no session.
func (m *Manager) Restore(ctx context.Context) domain.Session {
	s, err := m.store.Get(ctx)
	if err != nil {
		m.log.Warn("session restore failed", slog.String("error", err.Error()))
		s = domain.Session{}
	}
	s = s.Normalize()
	m.mu.Lock()
	m.current = s
	m.synced = err == nil
	m.mu.Unlock()
	m.log.Debug("session restored", slog.Bool("authenticated", s.Authenticated()))
	return s
}

// Login commits a session the caller already obtained from the gateway.
func (m *Manager) Login(ctx context.Context, token, displayName string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("login: %w", domain.ValidationError("token is required"))
	}
	if strings.TrimSpace(displayName) == "" {
		return fmt.Errorf("login: %w", domain.ValidationError("display name is required"))
	}
	s := domain.Session{Token: token, DisplayName: displayName}
	if err := m.store.Set(ctx, s); err != nil {
		return fmt.Errorf("login: persist session: %w", err)
	}
	m.publish(s)
	m.log.Info("logged in", slog.String("user", displayName))
	return nil
}

// Logout clears the session. It is a no-op when already unauthenticated.
// Before a successful Restore the stored record is cleared regardless.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	authenticated, synced := m.current.Authenticated(), m.synced
	m.mu.Unlock()
	if !authenticated && synced {
		return nil
	}
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: clear session: %w", err)
	}
	if !authenticated {
		m.mu.Lock()
		m.synced = true
		m.mu.Unlock()
		return nil
	}
	m.publish(domain.Session{})
	m.log.Info("logged out")
	return nil
}

func (m *Manager) Current() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Token implements ports.TokenSource.
func (m *Manager) Token() (string, bool) {
	s := m.Current()
	return s.Token, s.Authenticated()
}

// Subscribe registers fn for session changes. Subscribers run synchronously,
// in registration order, after the change is committed.
func (m *Manager) Subscribe(fn func(domain.Session)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) publish(s domain.Session) {
	m.mu.Lock()
	m.current = s
	m.synced = true
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.fn(s)
	}
}
