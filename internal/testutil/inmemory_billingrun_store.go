package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/billforge/billforge/internal/domain/billingrun"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// InMemoryBillingRunStore implements billingrun.Repository
type InMemoryBillingRunStore struct {
	mu   sync.RWMutex
	runs map[string]*billingrun.BillingRun
}

func NewInMemoryBillingRunStore() *InMemoryBillingRunStore {
	return &InMemoryBillingRunStore{
		runs: make(map[string]*billingrun.BillingRun),
	}
}

func (s *InMemoryBillingRunStore) Create(ctx context.Context, run *billingrun.BillingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return ierr.NewError("billing run already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	copied := *run
	s.runs[run.ID] = &copied
	return nil
}

func (s *InMemoryBillingRunStore) Get(ctx context.Context, id string) (*billingrun.BillingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ierr.NewError("billing run not found").
			WithHintf("Billing run %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}

	copied := *run
	return &copied, nil
}

func (s *InMemoryBillingRunStore) Complete(ctx context.Context, id string, status types.BillingRunStatus, summaryJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok || run.Status != types.BillingRunStatusRunning {
		return ierr.NewError("billing run is not running").
			WithHintf("Billing run %s was already completed or does not exist", id).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	run.Status = status
	run.SummaryJSON = &summaryJSON
	run.CompletedAt = &now
	return nil
}

// Clear removes all runs
func (s *InMemoryBillingRunStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[string]*billingrun.BillingRun)
}
