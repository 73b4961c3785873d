package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/billforge/billforge/internal/domain/billingrun"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/postgres"
	"github.com/billforge/billforge/internal/types"
)

type billingRunRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBillingRunRepository(db *postgres.DB, logger *logger.Logger) billingrun.Repository {
	return &billingRunRepository{db: db, logger: logger}
}

func (r *billingRunRepository) Create(ctx context.Context, run *billingrun.BillingRun) error {
	query := `
		INSERT INTO billing_run (
			billing_run_id, run_mode, as_of_date, status, correlation_id, started_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		run.ID, run.RunMode, run.AsOfDate, run.Status, run.CorrelationID, run.StartedAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create billing run").
			WithReportableDetails(map[string]any{
				"run_id": run.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *billingRunRepository) Get(ctx context.Context, id string) (*billingrun.BillingRun, error) {
	query := `
		SELECT billing_run_id, run_mode, as_of_date, status, correlation_id,
		       summary_json, started_at, completed_at
		FROM billing_run
		WHERE billing_run_id = $1`

	var run billingrun.BillingRun
	err := r.db.Querier(ctx).GetContext(ctx, &run, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("billing run not found").
				WithHintf("Billing run %s does not exist", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load billing run").
			Mark(ierr.ErrDatabase)
	}
	return &run, nil
}

func (r *billingRunRepository) Complete(ctx context.Context, id string, status types.BillingRunStatus, summaryJSON string) error {
	query := `
		UPDATE billing_run
		SET status = $2, summary_json = $3, completed_at = $4
		WHERE billing_run_id = $1 AND status = $5`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		id, status, summaryJSON, time.Now().UTC(), types.BillingRunStatusRunning,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to complete billing run").
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return ierr.NewError("billing run is not running").
			WithHintf("Billing run %s was already completed or does not exist", id).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}
