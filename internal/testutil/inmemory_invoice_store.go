package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// StoredInvoice is a due invoice plus the schedule and eligibility state
// the SQL selection would join in
type StoredInvoice struct {
	invoice.DueInvoice

	ScheduleStatus types.ScheduleStatus
	ScheduleActive bool
	InvoiceActive  bool
	InvoiceStatus  types.InvoiceStatus
	Eligible       bool
	ModifiedOn     time.Time
}

// InMemoryInvoiceStore implements invoice.Repository. It consults the
// history store to reproduce the selection's duplicate filters.
type InMemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*StoredInvoice
	history  *InMemoryHistoryStore

	listErr     error
	eligibleErr error
}

func NewInMemoryInvoiceStore(history *InMemoryHistoryStore) *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		invoices: make(map[string]*StoredInvoice),
		history:  history,
	}
}

// AddInvoice stores a due invoice with its selection state
func (s *InMemoryInvoiceStore) AddInvoice(inv *StoredInvoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *inv
	s.invoices[inv.InvoiceID] = &copied
}

// FailListWith makes the next ListDue calls return the given error
func (s *InMemoryInvoiceStore) FailListWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// FailEligibilityWith makes the next IsEligible calls return the given error
func (s *InMemoryInvoiceStore) FailEligibilityWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eligibleErr = err
}

func (s *InMemoryInvoiceStore) ListDue(ctx context.Context, filter *invoice.ListDueFilter) ([]*invoice.DueInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listErr != nil {
		return nil, s.listErr
	}

	var items []*invoice.DueInvoice
	for _, inv := range s.invoices {
		if !inv.ScheduleActive || !inv.InvoiceActive {
			continue
		}
		if inv.ScheduleStatus != types.ScheduleStatusPending && inv.ScheduleStatus != types.ScheduleStatusDue {
			continue
		}
		if inv.InvoiceStatus != types.InvoiceStatusPending && inv.InvoiceStatus != types.InvoiceStatusDue {
			continue
		}
		if inv.PaymentDueDate.After(filter.AsOfDate) {
			continue
		}

		if exists, _ := s.history.Exists(ctx, filter.RunID, inv.InvoiceID); exists {
			continue
		}
		if filter.ExcludeFinalized && filter.RunMode == types.RunModeLive {
			if finalized, _ := s.history.HasFinalized(ctx, inv.InvoiceID); finalized {
				continue
			}
		}

		if filter.AfterDueDate != nil {
			after := *filter.AfterDueDate
			if inv.PaymentDueDate.Before(after) {
				continue
			}
			if inv.PaymentDueDate.Equal(after) && inv.InvoiceID <= filter.AfterInvoice {
				continue
			}
		}

		copied := inv.DueInvoice
		items = append(items, &copied)
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].PaymentDueDate.Equal(items[j].PaymentDueDate) {
			return items[i].PaymentDueDate.Before(items[j].PaymentDueDate)
		}
		return items[i].InvoiceID < items[j].InvoiceID
	})

	if filter.PageSize > 0 && len(items) > filter.PageSize {
		items = items[:filter.PageSize]
	}
	return items, nil
}

func (s *InMemoryInvoiceStore) IsEligible(ctx context.Context, invoiceID string, asOfDate time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.eligibleErr != nil {
		return false, s.eligibleErr
	}

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return false, nil
	}
	return inv.Eligible, nil
}

func (s *InMemoryInvoiceStore) UpdateScheduleStatus(ctx context.Context, invoiceID string, status types.ScheduleStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return ierr.NewError("invoice schedule not found").
			WithHintf("Invoice %s has no schedule entry", invoiceID).
			Mark(ierr.ErrNotFound)
	}

	inv.ScheduleStatus = status
	inv.ModifiedOn = time.Now().UTC()
	return nil
}

// GetInvoice returns the stored invoice state, or nil
func (s *InMemoryInvoiceStore) GetInvoice(invoiceID string) *StoredInvoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil
	}
	copied := *inv
	return &copied
}

// Clear removes all invoices
func (s *InMemoryInvoiceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = make(map[string]*StoredInvoice)
	s.listErr = nil
	s.eligibleErr = nil
}
