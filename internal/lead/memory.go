package lead

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is an append-only in-memory Store used in tests and development.
type InMemoryStore struct {
	mu    sync.RWMutex
	leads []Lead

	// LookupErr and SaveErr, when set, are returned by the respective
	// operations to exercise degradation paths.
	LookupErr error
	SaveErr   error
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// IsRegistered reports whether a lead with this identity was saved.
func (s *InMemoryStore) IsRegistered(_ context.Context, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LookupErr != nil {
		return false, s.LookupErr
	}
	for _, l := range s.leads {
		if l.Identity == identity {
			return true, nil
		}
	}
	return false, nil
}

// Save appends a lead.
func (s *InMemoryStore) Save(_ context.Context, l Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	s.leads = append(s.leads, l)
	return nil
}

// Leads returns a copy of everything saved so far.
func (s *InMemoryStore) Leads() []Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Lead, len(s.leads))
	copy(out, s.leads)
	return out
}
