package state

import (
	"context"
	"errors"
	"sync"
)

// ErrConflict is returned by Save when the stored version moved on since Load.
var ErrConflict = errors.New("state: session version conflict")

// Store persists sessions keyed by conversation id.
//
// Load never returns a nil session. A missing session yields a fresh one; an
// undecodable one yields a fresh session carrying the stored version together
// with an error wrapping ErrCorrupt.
type Store interface {
	Load(ctx context.Context, key int64) (*Session, error)
	Save(ctx context.Context, key int64, s *Session) error
	Delete(ctx context.Context, key int64) error
}

type memoryRecord struct {
	payload []byte
	version int64
}

// MemoryStore keeps encoded sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]memoryRecord
}

// NewMemoryStore constructs an in-memory Store for tests and single-process deployments.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]memoryRecord)}
}

// Load returns a decoded copy of the stored session.
func (m *MemoryStore) Load(_ context.Context, key int64) (*Session, error) {
	m.mu.RLock()
	rec, ok := m.sessions[key]
	m.mu.RUnlock()
	if !ok {
		return NewSession(), nil
	}
	return Decode(rec.payload, rec.version)
}

// Save stores the session if its version matches the stored one.
func (m *MemoryStore) Save(_ context.Context, key int64, s *Session) error {
	payload, err := Encode(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[key].version != s.Version {
		return ErrConflict
	}
	m.sessions[key] = memoryRecord{payload: payload, version: s.Version + 1}
	s.Version++
	s.MarkClean()
	return nil
}

// Delete removes the session for a conversation.
func (m *MemoryStore) Delete(_ context.Context, key int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
