package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/billforge/billforge/internal/domain/billingrun"
	"github.com/billforge/billforge/internal/domain/history"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// TriggerParams are the caller-supplied inputs for starting a run
type TriggerParams struct {
	Mode          types.RunMode
	AsOfDate      time.Time
	CorrelationID string
}

// RunService triggers billing runs and exposes their state
type RunService interface {
	Trigger(ctx context.Context, params *TriggerParams) (*billingrun.BillingRun, error)
	Get(ctx context.Context, id string) (*billingrun.BillingRun, error)
	GetSummary(ctx context.Context, id string) (*RunSummary, error)
	GetHistory(ctx context.Context, id string, limit int) ([]*history.Record, error)
}

type runService struct {
	ServiceParams
	pipeline PipelineService
}

func NewRunService(params ServiceParams, pipeline PipelineService) RunService {
	return &runService{
		ServiceParams: params,
		pipeline:      pipeline,
	}
}

// Trigger validates the request, creates the run RUNNING and executes the
// pipeline in the background. The created run is returned immediately.
func (s *runService) Trigger(ctx context.Context, params *TriggerParams) (*billingrun.BillingRun, error) {
	if err := params.Mode.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Run mode must be MOCK or LIVE").
			Mark(ierr.ErrValidation)
	}

	if params.AsOfDate.IsZero() {
		return nil, ierr.NewError("as_of_date is required").
			WithHint("Provide an ISO date for the run").
			Mark(ierr.ErrValidation)
	}

	if params.AsOfDate.After(time.Now().UTC().AddDate(1, 0, 0)) {
		return nil, ierr.NewError("as_of_date too far in the future").
			WithHint("The as-of date may be at most one year ahead").
			WithReportableDetails(map[string]any{
				"as_of_date": params.AsOfDate.Format(time.DateOnly),
			}).
			Mark(ierr.ErrValidation)
	}

	if !s.RateLimiter.AllowJobExecution() {
		return nil, ierr.NewError("run trigger rate limit exceeded").
			WithHint("Too many billing runs triggered, try again later").
			Mark(ierr.ErrRateLimitExceeded)
	}

	correlationID := params.CorrelationID
	if correlationID == "" {
		correlationID = types.GenerateCorrelationID()
	}

	run := billingrun.NewBillingRun(params.Mode, params.AsOfDate, correlationID)
	if err := s.BillingRunRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	// The pipeline outlives the trigger request
	execCtx := types.SetCorrelationID(context.WithoutCancel(ctx), correlationID)
	go func() {
		if err := s.pipeline.Execute(execCtx, run); err != nil {
			s.Logger.Errorw("billing run execution failed",
				"run_id", run.ID,
				"error", err,
			)
		}
	}()

	return run, nil
}

func (s *runService) Get(ctx context.Context, id string) (*billingrun.BillingRun, error) {
	return s.BillingRunRepo.Get(ctx, id)
}

func (s *runService) GetSummary(ctx context.Context, id string) (*RunSummary, error) {
	run, err := s.BillingRunRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if run.SummaryJSON == nil {
		return nil, ierr.NewError("run has no summary yet").
			WithHintf("Billing run %s is still %s", id, run.Status).
			Mark(ierr.ErrInvalidOperation)
	}

	var summary RunSummary
	if err := json.Unmarshal([]byte(*run.SummaryJSON), &summary); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Stored run summary is not valid JSON").
			Mark(ierr.ErrSystem)
	}
	return &summary, nil
}

func (s *runService) GetHistory(ctx context.Context, id string, limit int) ([]*history.Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	if _, err := s.BillingRunRepo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.HistoryRepo.ListByRun(ctx, id, limit)
}
