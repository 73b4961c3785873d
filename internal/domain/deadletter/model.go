package deadletter

import (
	"time"

	"github.com/billforge/billforge/internal/types"
)

// Entry is a failed live charge parked for manual triage. Writing an entry
// is best effort and never fails the invoice that produced it.
type Entry struct {
	ID                     string                 `db:"dlq_id" json:"id"`
	BillingRunID           string                 `db:"billing_run_id" json:"billing_run_id"`
	InvoiceID              string                 `db:"invoice_id" json:"invoice_id"`
	SubscriptionInstanceID string                 `db:"subscription_instance_id" json:"subscription_instance_id"`
	ErrorType              types.PaymentErrorType `db:"error_type" json:"error_type"`
	ErrorMessage           string                 `db:"error_message" json:"error_message"`
	ErrorStackTrace        *string                `db:"error_stack_trace" json:"error_stack_trace,omitempty"`
	WorkItemJSON           string                 `db:"work_item_json" json:"work_item_json"`
	RetryCount             int                    `db:"retry_count" json:"retry_count"`
	Resolved               bool                   `db:"resolved" json:"resolved"`
	ResolvedBy             *string                `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt             *time.Time             `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolutionNotes        *string                `db:"resolution_notes" json:"resolution_notes,omitempty"`
	CreatedAt              time.Time              `db:"created_on" json:"created_at"`
}
