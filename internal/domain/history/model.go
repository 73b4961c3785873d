package history

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/billforge/billforge/internal/types"
)

// Record is the outcome of processing one invoice in one run. The pair
// (RunID, InvoiceID) is unique: a record is written at most once per run
// regardless of re-deliveries.
type Record struct {
	RunID                  string              `db:"billing_run_id" json:"run_id"`
	InvoiceID              string              `db:"invoice_id" json:"invoice_id"`
	SubscriptionInstanceID string              `db:"subscription_instance_id" json:"subscription_instance_id"`
	CycleNumber            int                 `db:"cycle_number" json:"cycle_number"`
	Status                 types.BillingStatus `db:"status_code" json:"status"`
	SubTotal               *decimal.Decimal    `db:"sub_total" json:"sub_total,omitempty"`
	TaxAmount              *decimal.Decimal    `db:"tax_amount" json:"tax_amount,omitempty"`
	DiscountAmount         *decimal.Decimal    `db:"discount_amount" json:"discount_amount,omitempty"`
	Amount                 *decimal.Decimal    `db:"amount" json:"amount,omitempty"`
	Currency               string              `db:"currency" json:"currency"`
	Mock                   bool                `db:"mock" json:"mock"`
	GatewayRef             *string             `db:"gateway_ref" json:"gateway_ref,omitempty"`
	IntentID               *string             `db:"client_payment_intent_id" json:"client_payment_intent_id,omitempty"`
	TransactionID          *string             `db:"client_payment_transaction_id" json:"client_payment_transaction_id,omitempty"`
	FailureReason          *string             `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt              time.Time           `db:"created_on" json:"created_at"`
}
