package invoice

import (
	"context"
	"time"

	"github.com/billforge/billforge/internal/types"
)

// Repository provides access to due invoices and their schedule entries
type Repository interface {
	// ListDue returns the next keyset page of billable work items,
	// ordered by (payment_due_date, invoice_id)
	ListDue(ctx context.Context, filter *ListDueFilter) ([]*DueInvoice, error)

	// IsEligible re-checks the instance, plan, term and status rules for
	// one invoice at the given date
	IsEligible(ctx context.Context, invoiceID string, asOfDate time.Time) (bool, error)

	// UpdateScheduleStatus moves the invoice's schedule entry to the
	// given status and refreshes its modified timestamp
	UpdateScheduleStatus(ctx context.Context, invoiceID string, status types.ScheduleStatus) error
}
