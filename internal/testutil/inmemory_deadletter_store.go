package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/billforge/billforge/internal/domain/deadletter"
	ierr "github.com/billforge/billforge/internal/errors"
)

// InMemoryDeadLetterStore implements deadletter.Repository
type InMemoryDeadLetterStore struct {
	mu      sync.RWMutex
	entries map[string]*deadletter.Entry

	createErr error
}

func NewInMemoryDeadLetterStore() *InMemoryDeadLetterStore {
	return &InMemoryDeadLetterStore{
		entries: make(map[string]*deadletter.Entry),
	}
}

// FailCreateWith makes the next Create calls return the given error
func (s *InMemoryDeadLetterStore) FailCreateWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}

func (s *InMemoryDeadLetterStore) Create(ctx context.Context, entry *deadletter.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}

	copied := *entry
	s.entries[entry.ID] = &copied
	return nil
}

func (s *InMemoryDeadLetterStore) Get(ctx context.Context, id string) (*deadletter.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ierr.NewError("dead letter entry not found").
			WithHintf("Entry %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}

	copied := *entry
	return &copied, nil
}

func (s *InMemoryDeadLetterStore) ListUnresolved(ctx context.Context, billingRunID string, limit int) ([]*deadletter.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*deadletter.Entry
	for _, entry := range s.entries {
		if billingRunID != "" && entry.BillingRunID != billingRunID {
			continue
		}
		if !entry.Resolved {
			copied := *entry
			entries = append(entries, &copied)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *InMemoryDeadLetterStore) CountUnresolved(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, entry := range s.entries {
		if !entry.Resolved {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryDeadLetterStore) MarkResolved(ctx context.Context, id, resolvedBy, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.Resolved {
		return ierr.NewError("dead letter entry not found or already resolved").
			WithHintf("Entry %s is missing or was already resolved", id).
			Mark(ierr.ErrNotFound)
	}

	now := time.Now().UTC()
	entry.Resolved = true
	entry.ResolvedBy = &resolvedBy
	entry.ResolutionNotes = &notes
	entry.ResolvedAt = &now
	return nil
}

func (s *InMemoryDeadLetterStore) IncrementRetryCount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return ierr.NewError("dead letter entry not found").
			Mark(ierr.ErrNotFound)
	}
	entry.RetryCount++
	return nil
}

// Clear removes all entries
func (s *InMemoryDeadLetterStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*deadletter.Entry)
	s.createErr = nil
}
