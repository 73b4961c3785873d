package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/billforge/billforge/internal/types"
)

// DueInvoice is one candidate work item selected for a billing run: an
// invoice whose schedule entry is PENDING or DUE with a due date at or
// before the run's as-of date.
type DueInvoice struct {
	InvoiceID              string           `db:"invoice_id" json:"invoice_id"`
	SubscriptionInstanceID string           `db:"subscription_instance_id" json:"subscription_instance_id"`
	CycleNumber            int              `db:"cycle_number" json:"cycle_number"`
	PaymentDueDate         time.Time        `db:"payment_due_date" json:"payment_due_date"`
	ClientRoleID           string           `db:"client_role_id" json:"client_role_id"`
	SubTotal               *decimal.Decimal `db:"sub_total" json:"sub_total,omitempty"`
	TaxAmount              *decimal.Decimal `db:"tax_amount" json:"tax_amount,omitempty"`
	DiscountAmount         *decimal.Decimal `db:"discount_amount" json:"discount_amount,omitempty"`
	TotalAmount            *decimal.Decimal `db:"total_amount" json:"total_amount,omitempty"`
	ClientPaymentMethodID  *string          `db:"client_payment_method_id" json:"client_payment_method_id,omitempty"`
}

// ListDueFilter selects the next page of due invoices for a run.
// Pagination is keyset based on (payment_due_date, invoice_id) so that
// history rows written by the current run never shift the page window.
type ListDueFilter struct {
	AsOfDate time.Time
	RunID    string
	RunMode  types.RunMode

	// ExcludeFinalized skips invoices a previous live run already finalized
	ExcludeFinalized bool

	PageSize     int
	AfterDueDate *time.Time
	AfterInvoice string
}
