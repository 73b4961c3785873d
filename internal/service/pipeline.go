package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/billforge/billforge/internal/domain/billingrun"
	"github.com/billforge/billforge/internal/domain/deadletter"
	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// RunSummary is the terminal report attached to a completed run
type RunSummary struct {
	RunID     string                      `json:"run_id"`
	Mode      types.RunMode               `json:"mode"`
	Processed int                         `json:"processed"`
	Skipped   int                         `json:"skipped"`
	Counts    map[types.BillingStatus]int `json:"counts"`
	Error     string                      `json:"error,omitempty"`
}

// PipelineService drives one billing run end to end: page due invoices,
// process each, persist outcomes in chunks, then close the run.
type PipelineService interface {
	Execute(ctx context.Context, run *billingrun.BillingRun) error
}

type pipelineService struct {
	ServiceParams
	processor  ProcessorService
	writer     WriterService
	deadLetter DeadLetterService
}

func NewPipelineService(params ServiceParams, processor ProcessorService, writer WriterService, deadLetter DeadLetterService) PipelineService {
	return &pipelineService{
		ServiceParams: params,
		processor:     processor,
		writer:        writer,
		deadLetter:    deadLetter,
	}
}

// Execute walks every due invoice for the run. Item-level failures from
// either stage are skipped up to the configured skip limit, each skip
// dead-lettered with full context; selection failures and lookup
// misconfiguration fail the run. The run always reaches a terminal status.
func (s *pipelineService) Execute(ctx context.Context, run *billingrun.BillingRun) error {
	s.Logger.Infow("starting billing run",
		"run_id", run.ID,
		"mode", run.RunMode,
		"as_of_date", run.AsOfDate,
		"correlation_id", run.CorrelationID,
	)

	processed := 0
	skipped := 0

	filter := &invoice.ListDueFilter{
		AsOfDate:         run.AsOfDate,
		RunID:            run.ID,
		RunMode:          run.RunMode,
		ExcludeFinalized: s.Config.Billing.PreventDuplicateAcrossRuns,
		PageSize:         s.Config.Billing.PageSize,
	}

	for {
		page, err := s.InvoiceRepo.ListDue(ctx, filter)
		if err != nil {
			// Selection failures are never skippable: a partial view of
			// the due set must not silently shrink the run
			return s.failRun(ctx, run, processed, skipped, err)
		}
		if len(page) == 0 {
			break
		}

		last := page[len(page)-1]
		filter.AfterDueDate = &last.PaymentDueDate
		filter.AfterInvoice = last.InvoiceID

		for start := 0; start < len(page); start += s.Config.Billing.ChunkSize {
			end := start + s.Config.Billing.ChunkSize
			if end > len(page) {
				end = len(page)
			}

			outcomes := make([]*ProcessOutcome, 0, end-start)
			for _, item := range page[start:end] {
				outcome, err := s.processor.Process(ctx, run, item)
				if err != nil {
					skipped++
					s.Logger.Errorw("skipping invoice after processing failure",
						"run_id", run.ID,
						"invoice_id", item.InvoiceID,
						"skipped", skipped,
						"error", err,
					)
					s.deadLetterSkip(ctx, run, item.InvoiceID, item.SubscriptionInstanceID, item, err)
					if skipped > s.Config.Billing.SkipLimit {
						return s.failRun(ctx, run, processed, skipped, s.skipLimitError())
					}
					continue
				}
				outcomes = append(outcomes, outcome)
			}

			written, err := s.writeChunk(ctx, run, outcomes, &skipped)
			if err != nil {
				return s.failRun(ctx, run, processed, skipped, err)
			}
			processed += written
		}
	}

	return s.completeRun(ctx, run, processed, skipped)
}

// writeChunk commits the chunk, skipping and dead-lettering individual
// outcomes whose write fails and retrying the survivors. Lookup
// misconfiguration and an exhausted skip budget abort the run.
func (s *pipelineService) writeChunk(ctx context.Context, run *billingrun.BillingRun, outcomes []*ProcessOutcome, skipped *int) (int, error) {
	for len(outcomes) > 0 {
		err := s.writer.Write(ctx, run, outcomes)
		if err == nil {
			return len(outcomes), nil
		}

		var itemErr *ItemError
		if !errors.As(err, &itemErr) {
			return 0, err
		}

		*skipped++
		s.Logger.Errorw("skipping invoice after write failure",
			"run_id", run.ID,
			"invoice_id", itemErr.InvoiceID,
			"skipped", *skipped,
			"error", itemErr.Err,
		)

		kept := make([]*ProcessOutcome, 0, len(outcomes)-1)
		for _, outcome := range outcomes {
			if outcome.Record.InvoiceID == itemErr.InvoiceID {
				s.deadLetterSkip(ctx, run, outcome.Record.InvoiceID, outcome.Record.SubscriptionInstanceID, outcome.Record, itemErr.Err)
				continue
			}
			kept = append(kept, outcome)
		}
		outcomes = kept

		if *skipped > s.Config.Billing.SkipLimit {
			return 0, s.skipLimitError()
		}
	}
	return 0, nil
}

// deadLetterSkip parks a skipped item with enough context to replay it
func (s *pipelineService) deadLetterSkip(ctx context.Context, run *billingrun.BillingRun, invoiceID, subscriptionInstanceID string, workItem any, cause error) {
	payload, err := json.Marshal(workItem)
	if err != nil {
		s.Logger.Errorw("failed to marshal skipped work item",
			"run_id", run.ID,
			"invoice_id", invoiceID,
			"error", err,
		)
		payload = []byte("{}")
	}

	s.deadLetter.Add(ctx, &deadletter.Entry{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DEAD_LETTER),
		BillingRunID:           run.ID,
		InvoiceID:              invoiceID,
		SubscriptionInstanceID: subscriptionInstanceID,
		ErrorType:              classifySkipError(cause),
		ErrorMessage:           cause.Error(),
		WorkItemJSON:           string(payload),
		CreatedAt:              time.Now().UTC(),
	})
}

func classifySkipError(err error) types.PaymentErrorType {
	if ierr.IsDataError(err) {
		return types.PaymentErrorDataError
	}
	return types.PaymentErrorProcessingError
}

func (s *pipelineService) skipLimitError() error {
	return ierr.NewError("skip limit exceeded").
		WithHintf("More than %d invoices failed processing", s.Config.Billing.SkipLimit).
		Mark(ierr.ErrSystem)
}

func (s *pipelineService) completeRun(ctx context.Context, run *billingrun.BillingRun, processed, skipped int) error {
	counts, err := s.HistoryRepo.CountsByStatus(ctx, run.ID)
	if err != nil {
		return s.failRun(ctx, run, processed, skipped, err)
	}

	summary := s.buildSummary(run, processed, skipped, counts, nil)
	if err := s.BillingRunRepo.Complete(ctx, run.ID, types.BillingRunStatusCompleted, summary); err != nil {
		s.Logger.Errorw("failed to complete billing run",
			"run_id", run.ID,
			"error", err,
		)
		return err
	}

	s.Logger.Infow("billing run completed",
		"run_id", run.ID,
		"processed", processed,
		"skipped", skipped,
	)
	return nil
}

func (s *pipelineService) failRun(ctx context.Context, run *billingrun.BillingRun, processed, skipped int, cause error) error {
	s.Logger.Errorw("billing run failed",
		"run_id", run.ID,
		"processed", processed,
		"skipped", skipped,
		"error", cause,
	)

	counts, countErr := s.HistoryRepo.CountsByStatus(ctx, run.ID)
	if countErr != nil {
		counts = nil
	}

	summary := s.buildSummary(run, processed, skipped, counts, cause)
	if err := s.BillingRunRepo.Complete(ctx, run.ID, types.BillingRunStatusFailed, summary); err != nil {
		s.Logger.Errorw("failed to mark billing run as failed",
			"run_id", run.ID,
			"error", err,
		)
	}
	return cause
}

func (s *pipelineService) buildSummary(run *billingrun.BillingRun, processed, skipped int, counts map[types.BillingStatus]int, cause error) string {
	summary := RunSummary{
		RunID:     run.ID,
		Mode:      run.RunMode,
		Processed: processed,
		Skipped:   skipped,
		Counts:    counts,
	}
	if cause != nil {
		summary.Error = cause.Error()
	}

	data, err := json.Marshal(summary)
	if err != nil {
		s.Logger.Errorw("failed to marshal run summary",
			"run_id", run.ID,
			"error", err,
		)
		return "{}"
	}
	return string(data)
}
