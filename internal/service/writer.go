package service

import (
	"context"
	"fmt"

	"github.com/billforge/billforge/internal/domain/billingrun"
	ierr "github.com/billforge/billforge/internal/errors"
)

// ItemError marks a chunk write failure as skippable and names the
// invoice whose outcome caused it, so the orchestrator can drop that one
// item and commit the rest.
type ItemError struct {
	InvoiceID string
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("write failed for invoice %s: %s", e.InvoiceID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// WriterService persists a chunk of processed outcomes atomically
type WriterService interface {
	Write(ctx context.Context, run *billingrun.BillingRun, outcomes []*ProcessOutcome) error
}

type writerService struct {
	ServiceParams
	deadLetterService DeadLetterService
}

func NewWriterService(params ServiceParams, deadLetterService DeadLetterService) WriterService {
	return &writerService{
		ServiceParams:     params,
		deadLetterService: deadLetterService,
	}
}

// Write records each outcome at most once per (run, invoice). History
// rows and schedule updates for a chunk commit in one transaction; dead
// letter entries are written best effort afterwards so a queue fault
// never rolls back billed work. A per-item failure comes back as an
// ItemError; only an unresolvable status code aborts the run outright.
func (s *writerService) Write(ctx context.Context, run *billingrun.BillingRun, outcomes []*ProcessOutcome) error {
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		for _, outcome := range outcomes {
			if err := s.writeOne(ctx, outcome); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, outcome := range outcomes {
		if outcome.DeadLetter != nil {
			s.deadLetterService.Add(ctx, outcome.DeadLetter)
		}
	}
	return nil
}

func (s *writerService) writeOne(ctx context.Context, outcome *ProcessOutcome) error {
	record := outcome.Record

	exists, err := s.HistoryRepo.Exists(ctx, record.RunID, record.InvoiceID)
	if err != nil {
		// A failed pre-check is not fatal: the insert below is still
		// guarded by the unique (run, invoice) constraint
		s.Logger.Warnw("history pre-check failed, proceeding with insert",
			"run_id", record.RunID,
			"invoice_id", record.InvoiceID,
			"error", err,
		)
	} else if exists {
		s.Logger.Warnw("history record already exists, skipping",
			"run_id", record.RunID,
			"invoice_id", record.InvoiceID,
		)
		return nil
	}

	if err := s.HistoryRepo.Create(ctx, record); err != nil {
		// An unresolvable status code means the lookup table itself is
		// broken; every subsequent item would fail the same way
		if ierr.IsValidation(err) {
			return err
		}
		if ierr.IsAlreadyExists(err) {
			s.Logger.Warnw("history record raced the pre-check, skipping",
				"run_id", record.RunID,
				"invoice_id", record.InvoiceID,
			)
			return nil
		}
		return &ItemError{InvoiceID: record.InvoiceID, Err: err}
	}

	if !record.Mock && outcome.ShouldUpdateSchedule {
		if err := s.InvoiceRepo.UpdateScheduleStatus(ctx, record.InvoiceID, outcome.ScheduleNewStatus); err != nil {
			return &ItemError{InvoiceID: record.InvoiceID, Err: err}
		}
	}
	return nil
}
