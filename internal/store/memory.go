package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/t569/scanapi/pkg/endpoints"
	"github.com/t569/scanapi/pkg/errors"
)

// MemoryStore keeps records in process memory. Useful for tests and for
// running the API without a database file.
type MemoryStore struct {
	mu     sync.RWMutex
	order  []string // names in insertion order
	byName map[string]*endpoints.Record
	closed bool
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{byName: make(map[string]*endpoints.Record)}
}

// Acquire implements Store.
func (m *MemoryStore) Acquire(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errors.NewResourceError("acquire", "store", "", errors.New("store is closed"))
	}
	return &memorySession{m: m}, nil
}

// Ping implements Store.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

type memorySession struct {
	m        *MemoryStore
	released bool
}

func (s *memorySession) GetByName(_ context.Context, name string) (*endpoints.Record, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	rec, ok := s.m.byName[name]
	if !ok {
		return nil, errors.NewNotFoundError(resourceEndpoint, name)
	}
	return cloneRecord(rec), nil
}

func (s *memorySession) Insert(_ context.Context, rec *endpoints.Record) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.byName[rec.Name]; ok {
		return errors.NewConflictError(resourceEndpoint, rec.Name, nil)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	s.m.byName[rec.Name] = cloneRecord(rec)
	s.m.order = append(s.m.order, rec.Name)
	return nil
}

func (s *memorySession) List(_ context.Context, skip, limit int) ([]*endpoints.Record, error) {
	if skip < 0 || limit < 0 {
		return nil, errors.NewValidationError("skip/limit", nil, "must be non-negative")
	}
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	out := []*endpoints.Record{}
	if skip >= len(s.m.order) {
		return out, nil
	}
	end := len(s.m.order)
	if limit < end-skip {
		end = skip + limit
	}
	for _, name := range s.m.order[skip:end] {
		out = append(out, cloneRecord(s.m.byName[name]))
	}
	return out, nil
}

func (s *memorySession) Update(_ context.Context, rec *endpoints.Record) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cur, ok := s.m.byName[rec.Name]
	if !ok || cur.ID != rec.ID {
		return errors.NewNotFoundError(resourceEndpoint, rec.Name)
	}
	rec.UpdatedAt = time.Now().UTC()
	cur.URL = rec.URL
	cur.Digest = append([]byte(nil), rec.Digest...)
	cur.Artifact = append([]byte(nil), rec.Artifact...)
	cur.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *memorySession) Count(context.Context) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return len(s.m.order), nil
}

func (s *memorySession) Release() error {
	s.released = true
	return nil
}

func cloneRecord(rec *endpoints.Record) *endpoints.Record {
	c := *rec
	c.Digest = append([]byte(nil), rec.Digest...)
	c.Artifact = append([]byte(nil), rec.Artifact...)
	return &c
}
