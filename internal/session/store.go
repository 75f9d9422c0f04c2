package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Store persists credentials by session id.
type Store interface {
	Load(ctx context.Context, id string) (Credential, error)
	Save(ctx context.Context, id string, cred Credential) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	creds   map[string]Credential
	savedAt map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		creds:   make(map[string]Credential),
		savedAt: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.creds[id]
	if !ok {
		return Credential{}, ErrNotFound
	}
	return cred, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[id] = cred
	m.savedAt[id] = m.now()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.creds, id)
	delete(m.savedAt, id)
	return nil
}

// DeleteStale drops sessions last saved before the cutoff.
func (m *MemoryStore) DeleteStale(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, at := range m.savedAt {
		if at.Before(before) {
			delete(m.creds, id)
			delete(m.savedAt, id)
			n++
		}
	}
	return n, nil
}

// Len reports how many sessions hold a credential.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.creds)
}
