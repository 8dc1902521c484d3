package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps the record in process memory. It backs the --ephemeral
// serve mode and tests.
type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
}

// NewMemoryStore returns an empty store, or one holding initial when non-nil.
func NewMemoryStore(initial *Credentials) *MemoryStore {
	s := &MemoryStore{}
	if initial != nil {
		c := *initial
		s.creds = &c
	}
	return s
}

func (s *MemoryStore) Save(_ context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = &creds
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, nil
	}
	c := *s.creds
	return &c, nil
}
