package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/billforge/billforge/internal/domain/history"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// InMemoryHistoryStore implements history.Repository
type InMemoryHistoryStore struct {
	mu        sync.RWMutex
	records   []*history.Record
	statusIDs map[types.BillingStatus]int64

	createErrs map[string]error
}

func NewInMemoryHistoryStore() *InMemoryHistoryStore {
	s := &InMemoryHistoryStore{}
	s.seedStatusCodes()
	return s
}

func (s *InMemoryHistoryStore) seedStatusCodes() {
	s.statusIDs = map[types.BillingStatus]int64{
		types.BillingStatusMockEvaluated:          1,
		types.BillingStatusMockSkippedNotEligible: 2,
		types.BillingStatusMockError:              3,
		types.BillingStatusLiveFinalized:          4,
		types.BillingStatusLivePaymentFailed:      5,
		types.BillingStatusLiveSkippedNotEligible: 6,
		types.BillingStatusLiveError:              7,
		types.BillingStatusPendingCapture:         8,
	}
}

// FailCreateFor makes Create return the given error for one invoice
func (s *InMemoryHistoryStore) FailCreateFor(invoiceID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErrs == nil {
		s.createErrs = make(map[string]error)
	}
	s.createErrs[invoiceID] = err
}

// RemoveStatusCode deletes a lookup row to simulate a misconfigured table
func (s *InMemoryHistoryStore) RemoveStatusCode(code types.BillingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statusIDs, code)
}

func (s *InMemoryHistoryStore) ResolveStatusID(ctx context.Context, code types.BillingStatus) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.statusIDs[code]
	if !ok {
		return 0, ierr.NewError("unknown billing status code").
			WithHintf("Status code %s has no lookup row; the lookup table is misconfigured", code).
			Mark(ierr.ErrValidation)
	}
	return id, nil
}

func (s *InMemoryHistoryStore) Exists(ctx context.Context, runID, invoiceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists(runID, invoiceID), nil
}

func (s *InMemoryHistoryStore) exists(runID, invoiceID string) bool {
	for _, r := range s.records {
		if r.RunID == runID && r.InvoiceID == invoiceID {
			return true
		}
	}
	return false
}

func (s *InMemoryHistoryStore) HasFinalized(ctx context.Context, invoiceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.InvoiceID == invoiceID && r.Status == types.BillingStatusLiveFinalized {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryHistoryStore) Create(ctx context.Context, record *history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.createErrs[record.InvoiceID]; ok {
		return err
	}

	if _, ok := s.statusIDs[record.Status]; !ok {
		return ierr.NewError("unknown billing status code").
			WithHintf("Status code %s has no lookup row; the lookup table is misconfigured", record.Status).
			Mark(ierr.ErrValidation)
	}

	// Mirror the unique (run, invoice) constraint
	if s.exists(record.RunID, record.InvoiceID) {
		return ierr.NewError("history record already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	copied := *record
	s.records = append(s.records, &copied)
	return nil
}

func (s *InMemoryHistoryStore) CountsByStatus(ctx context.Context, runID string) (map[types.BillingStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[types.BillingStatus]int)
	for _, r := range s.records {
		if r.RunID == runID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (s *InMemoryHistoryStore) ListByRun(ctx context.Context, runID string, limit int) ([]*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*history.Record
	for _, r := range s.records {
		if r.RunID == runID {
			copied := *r
			records = append(records, &copied)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// GetRecord returns the record for a run and invoice, or nil
func (s *InMemoryHistoryStore) GetRecord(runID, invoiceID string) *history.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.RunID == runID && r.InvoiceID == invoiceID {
			copied := *r
			return &copied
		}
	}
	return nil
}

// RecordCount returns the total number of stored records
func (s *InMemoryHistoryStore) RecordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear removes all records and restores the lookup table
func (s *InMemoryHistoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.createErrs = nil
	s.seedStatusCodes()
}
