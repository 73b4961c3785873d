package repository

import (
	"context"
	"time"

	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/postgres"
	"github.com/billforge/billforge/internal/types"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

// ListDue selects the next keyset page of billable invoices. Invoices this
// run already recorded are filtered out, and for live runs invoices any
// prior run finalized are filtered out too, so repeated pages converge as
// history rows land.
func (r *invoiceRepository) ListDue(ctx context.Context, filter *invoice.ListDueFilter) ([]*invoice.DueInvoice, error) {
	query := `
		SELECT sis.invoice_id,
		       sis.subscription_instance_id,
		       sis.cycle_number,
		       sis.payment_due_date,
		       i.client_role_id,
		       i.sub_total,
		       i.tax_amount,
		       i.discount_amount,
		       i.total_amount,
		       sp.client_payment_method_id
		FROM subscription_invoice_schedule sis
		JOIN invoice i ON i.invoice_id = sis.invoice_id
		JOIN lu_invoice_status lis ON lis.invoice_status_id = i.invoice_status_id
		JOIN subscription_instance si ON si.subscription_instance_id = sis.subscription_instance_id
		JOIN subscription_plan sp ON sp.subscription_plan_id = si.subscription_plan_id
		WHERE sis.is_active = TRUE
		  AND sis.schedule_status IN ('PENDING', 'DUE')
		  AND sis.payment_due_date <= $1
		  AND i.is_active = TRUE
		  AND lis.status_name IN ('PENDING', 'DUE')
		  AND NOT EXISTS (
			SELECT 1 FROM billing_run_history h
			WHERE h.billing_run_id = $2 AND h.invoice_id = sis.invoice_id
		  )
		  AND ($3 = FALSE OR NOT EXISTS (
			SELECT 1 FROM billing_run_history h
			JOIN lu_billing_status ls ON ls.billing_status_id = h.billing_status_id
			WHERE h.invoice_id = sis.invoice_id AND ls.status_code = $4
		  ))
		  AND (sis.payment_due_date > $5 OR (sis.payment_due_date = $5 AND sis.invoice_id > $6))
		ORDER BY sis.payment_due_date ASC, sis.invoice_id ASC
		LIMIT $7`

	excludeFinalized := filter.ExcludeFinalized && filter.RunMode == types.RunModeLive

	afterDue := time.Time{}
	if filter.AfterDueDate != nil {
		afterDue = *filter.AfterDueDate
	}

	var items []*invoice.DueInvoice
	err := r.db.Querier(ctx).SelectContext(ctx, &items, query,
		filter.AsOfDate,
		filter.RunID,
		excludeFinalized,
		types.BillingStatusLiveFinalized,
		afterDue,
		filter.AfterInvoice,
		filter.PageSize,
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to select due invoices").
			WithReportableDetails(map[string]any{
				"run_id": filter.RunID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return items, nil
}

// IsEligible re-checks the billing preconditions for one invoice: the
// subscription instance is active, its plan is active, the as-of date falls
// inside the contract window and there are cycles remaining.
func (r *invoiceRepository) IsEligible(ctx context.Context, invoiceID string, asOfDate time.Time) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM invoice i
		JOIN subscription_instance si ON si.subscription_instance_id = i.subscription_instance_id
		JOIN subscription_plan sp ON sp.subscription_plan_id = si.subscription_plan_id
		WHERE i.invoice_id = $1
		  AND si.status = 'ACTIVE'
		  AND sp.is_active = TRUE
		  AND si.start_date <= $2
		  AND (si.end_date IS NULL OR si.end_date >= $2)
		  AND (si.remaining_cycles IS NULL OR si.remaining_cycles > 0)`

	var count int
	err := r.db.Querier(ctx).GetContext(ctx, &count, query, invoiceID, asOfDate)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check invoice eligibility").
			WithReportableDetails(map[string]any{
				"invoice_id": invoiceID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return count > 0, nil
}

func (r *invoiceRepository) UpdateScheduleStatus(ctx context.Context, invoiceID string, status types.ScheduleStatus) error {
	query := `
		UPDATE subscription_invoice_schedule
		SET schedule_status = $2, modified_on = $3
		WHERE invoice_id = $1`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query, invoiceID, status, time.Now().UTC())
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update schedule status").
			WithReportableDetails(map[string]any{
				"invoice_id": invoiceID,
				"status":     status,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}
