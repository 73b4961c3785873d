package repository

import (
	"context"
	"database/sql"

	"github.com/billforge/billforge/internal/domain/history"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/postgres"
	"github.com/billforge/billforge/internal/types"
)

type historyRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewHistoryRepository(db *postgres.DB, logger *logger.Logger) history.Repository {
	return &historyRepository{db: db, logger: logger}
}

func (r *historyRepository) ResolveStatusID(ctx context.Context, code types.BillingStatus) (int64, error) {
	query := `SELECT billing_status_id FROM lu_billing_status WHERE status_code = $1`

	var id int64
	err := r.db.Querier(ctx).GetContext(ctx, &id, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ierr.NewError("unknown billing status code").
				WithHintf("Status code %s has no lookup row; the lookup table is misconfigured", code).
				WithReportableDetails(map[string]any{
					"status_code": code,
				}).
				Mark(ierr.ErrValidation)
		}
		return 0, ierr.WithError(err).
			WithHint("Failed to resolve billing status code").
			Mark(ierr.ErrDatabase)
	}
	return id, nil
}

func (r *historyRepository) Exists(ctx context.Context, runID, invoiceID string) (bool, error) {
	query := `SELECT COUNT(*) FROM billing_run_history WHERE billing_run_id = $1 AND invoice_id = $2`

	var count int
	err := r.db.Querier(ctx).GetContext(ctx, &count, query, runID, invoiceID)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check for existing history record").
			Mark(ierr.ErrDatabase)
	}
	return count > 0, nil
}

func (r *historyRepository) HasFinalized(ctx context.Context, invoiceID string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM billing_run_history h
		JOIN lu_billing_status ls ON ls.billing_status_id = h.billing_status_id
		WHERE h.invoice_id = $1 AND ls.status_code = $2`

	var count int
	err := r.db.Querier(ctx).GetContext(ctx, &count, query, invoiceID, types.BillingStatusLiveFinalized)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check for finalized history record").
			Mark(ierr.ErrDatabase)
	}
	return count > 0, nil
}

func (r *historyRepository) Create(ctx context.Context, record *history.Record) error {
	statusID, err := r.ResolveStatusID(ctx, record.Status)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO billing_run_history (
			billing_run_id, invoice_id, subscription_instance_id, cycle_number,
			billing_status_id, sub_total, tax_amount, discount_amount, amount,
			currency, mock, gateway_ref, client_payment_intent_id,
			client_payment_transaction_id, failure_reason, created_on
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		record.RunID,
		record.InvoiceID,
		record.SubscriptionInstanceID,
		record.CycleNumber,
		statusID,
		record.SubTotal,
		record.TaxAmount,
		record.DiscountAmount,
		record.Amount,
		record.Currency,
		record.Mock,
		record.GatewayRef,
		record.IntentID,
		record.TransactionID,
		record.FailureReason,
		record.CreatedAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to insert history record").
			WithReportableDetails(map[string]any{
				"run_id":     record.RunID,
				"invoice_id": record.InvoiceID,
			}).
			Mark(ierr.ErrDatabase)
	}

	if rows, rerr := result.RowsAffected(); rerr == nil && rows != 1 {
		r.logger.Warnw("history insert affected unexpected row count",
			"run_id", record.RunID,
			"invoice_id", record.InvoiceID,
			"rows", rows,
		)
	}
	return nil
}

func (r *historyRepository) CountsByStatus(ctx context.Context, runID string) (map[types.BillingStatus]int, error) {
	query := `
		SELECT ls.status_code, COUNT(*) AS cnt
		FROM billing_run_history h
		JOIN lu_billing_status ls ON ls.billing_status_id = h.billing_status_id
		WHERE h.billing_run_id = $1
		GROUP BY ls.status_code`

	var rows []struct {
		StatusCode types.BillingStatus `db:"status_code"`
		Count      int                 `db:"cnt"`
	}
	err := r.db.Querier(ctx).SelectContext(ctx, &rows, query, runID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to count history records by status").
			Mark(ierr.ErrDatabase)
	}

	counts := make(map[types.BillingStatus]int, len(rows))
	for _, row := range rows {
		counts[row.StatusCode] = row.Count
	}
	return counts, nil
}

func (r *historyRepository) ListByRun(ctx context.Context, runID string, limit int) ([]*history.Record, error) {
	query := `
		SELECT h.billing_run_id, h.invoice_id, h.subscription_instance_id, h.cycle_number,
		       ls.status_code, h.sub_total, h.tax_amount, h.discount_amount, h.amount,
		       h.currency, h.mock, h.gateway_ref, h.client_payment_intent_id,
		       h.client_payment_transaction_id, h.failure_reason, h.created_on
		FROM billing_run_history h
		JOIN lu_billing_status ls ON ls.billing_status_id = h.billing_status_id
		WHERE h.billing_run_id = $1
		ORDER BY h.created_on DESC
		LIMIT $2`

	var records []*history.Record
	err := r.db.Querier(ctx).SelectContext(ctx, &records, query, runID, limit)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list history records").
			Mark(ierr.ErrDatabase)
	}
	return records, nil
}
