package session

import (
	"context"
	"sync"

	"tracker-client/internal/domain"
)

// MemoryStore is a process-local SessionStore used in tests. It does not
// survive restarts.
type MemoryStore struct {
	mu   sync.Mutex
	sess domain.Session

	// Fail, when set, is returned by every operation.
	Fail error
}

func (m *MemoryStore) Get(context.Context) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return domain.Session{}, m.Fail
	}
	return m.sess, nil
}

func (m *MemoryStore) Set(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.sess = s.Normalize()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.sess = domain.Session{}
	return nil
}
