package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/billforge/billforge/internal/domain/deadletter"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/postgres"
)

type deadLetterRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewDeadLetterRepository(db *postgres.DB, logger *logger.Logger) deadletter.Repository {
	return &deadLetterRepository{db: db, logger: logger}
}

func (r *deadLetterRepository) Create(ctx context.Context, entry *deadletter.Entry) error {
	query := `
		INSERT INTO billing_dead_letter_queue (
			dlq_id, billing_run_id, invoice_id, subscription_instance_id,
			error_type, error_message, error_stack_trace, work_item_json,
			retry_count, resolved, created_on
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.BillingRunID,
		entry.InvoiceID,
		entry.SubscriptionInstanceID,
		entry.ErrorType,
		entry.ErrorMessage,
		entry.ErrorStackTrace,
		entry.WorkItemJSON,
		entry.RetryCount,
		entry.Resolved,
		entry.CreatedAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to insert dead letter entry").
			WithReportableDetails(map[string]any{
				"run_id":     entry.BillingRunID,
				"invoice_id": entry.InvoiceID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *deadLetterRepository) Get(ctx context.Context, id string) (*deadletter.Entry, error) {
	query := `
		SELECT dlq_id, billing_run_id, invoice_id, subscription_instance_id,
		       error_type, error_message, error_stack_trace, work_item_json,
		       retry_count, resolved, resolved_by, resolved_at, resolution_notes, created_on
		FROM billing_dead_letter_queue
		WHERE dlq_id = $1`

	var entry deadletter.Entry
	err := r.db.Querier(ctx).GetContext(ctx, &entry, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("dead letter entry not found").
				WithHintf("Entry %s does not exist", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load dead letter entry").
			Mark(ierr.ErrDatabase)
	}
	return &entry, nil
}

func (r *deadLetterRepository) ListUnresolved(ctx context.Context, billingRunID string, limit int) ([]*deadletter.Entry, error) {
	query := `
		SELECT dlq_id, billing_run_id, invoice_id, subscription_instance_id,
		       error_type, error_message, error_stack_trace, work_item_json,
		       retry_count, resolved, resolved_by, resolved_at, resolution_notes, created_on
		FROM billing_dead_letter_queue
		WHERE resolved = FALSE
		  AND ($1 = '' OR billing_run_id = $1)
		ORDER BY created_on ASC
		LIMIT $2`

	var entries []*deadletter.Entry
	err := r.db.Querier(ctx).SelectContext(ctx, &entries, query, billingRunID, limit)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list unresolved dead letter entries").
			Mark(ierr.ErrDatabase)
	}
	return entries, nil
}

func (r *deadLetterRepository) CountUnresolved(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM billing_dead_letter_queue WHERE resolved = FALSE`

	var count int
	err := r.db.Querier(ctx).GetContext(ctx, &count, query)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count unresolved dead letter entries").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *deadLetterRepository) MarkResolved(ctx context.Context, id, resolvedBy, notes string) error {
	query := `
		UPDATE billing_dead_letter_queue
		SET resolved = TRUE, resolved_by = $2, resolution_notes = $3, resolved_at = $4
		WHERE dlq_id = $1 AND resolved = FALSE`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, id, resolvedBy, notes, time.Now().UTC())
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to resolve dead letter entry").
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return ierr.NewError("dead letter entry not found or already resolved").
			WithHintf("Entry %s is missing or was already resolved", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *deadLetterRepository) IncrementRetryCount(ctx context.Context, id string) error {
	query := `
		UPDATE billing_dead_letter_queue
		SET retry_count = retry_count + 1
		WHERE dlq_id = $1`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to increment retry count").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
