package session

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is a process-local Store for development and tests. Sessions
// are kept encoded so callers never share state with the store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decode(id)
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.decode(id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	m.data[id] = data
	return sess, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MemoryStore) decode(id string) (*Session, error) {
	sess := New(id)
	data, ok := m.data[id]
	if !ok {
		return sess, nil
	}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
