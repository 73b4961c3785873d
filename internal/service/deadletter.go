package service

import (
	"context"

	"github.com/billforge/billforge/internal/domain/deadletter"
)

// DeadLetterService manages failed live charges parked for triage
type DeadLetterService interface {
	// Add parks an entry. It never returns an error: a dead letter
	// fault must not fail the invoice that produced it.
	Add(ctx context.Context, entry *deadletter.Entry)

	ListUnresolved(ctx context.Context, billingRunID string, limit int) ([]*deadletter.Entry, error)
	CountUnresolved(ctx context.Context) (int, error)
	Resolve(ctx context.Context, id, resolvedBy, notes string) error
	IncrementRetry(ctx context.Context, id string) error
}

type deadLetterService struct {
	ServiceParams
}

func NewDeadLetterService(params ServiceParams) DeadLetterService {
	return &deadLetterService{ServiceParams: params}
}

func (s *deadLetterService) Add(ctx context.Context, entry *deadletter.Entry) {
	if err := s.DeadLetterRepo.Create(ctx, entry); err != nil {
		s.Logger.Errorw("failed to write dead letter entry",
			"run_id", entry.BillingRunID,
			"invoice_id", entry.InvoiceID,
			"error_type", entry.ErrorType,
			"error", err,
		)
		return
	}

	s.Logger.Infow("dead letter entry written",
		"run_id", entry.BillingRunID,
		"invoice_id", entry.InvoiceID,
		"error_type", entry.ErrorType,
	)
}

func (s *deadLetterService) ListUnresolved(ctx context.Context, billingRunID string, limit int) ([]*deadletter.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.DeadLetterRepo.ListUnresolved(ctx, billingRunID, limit)
}

func (s *deadLetterService) CountUnresolved(ctx context.Context) (int, error) {
	return s.DeadLetterRepo.CountUnresolved(ctx)
}

func (s *deadLetterService) Resolve(ctx context.Context, id, resolvedBy, notes string) error {
	return s.DeadLetterRepo.MarkResolved(ctx, id, resolvedBy, notes)
}

func (s *deadLetterService) IncrementRetry(ctx context.Context, id string) error {
	return s.DeadLetterRepo.IncrementRetryCount(ctx, id)
}
