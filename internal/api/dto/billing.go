package dto

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/service"
	"github.com/billforge/billforge/internal/types"

	"github.com/billforge/billforge/internal/domain/billingrun"
	"github.com/billforge/billforge/internal/domain/history"
)

// TriggerRunRequest starts a billing run
type TriggerRunRequest struct {
	AsOfDate string `json:"as_of_date" binding:"required"`
	Mode     string `json:"mode"`
}

// ToParams validates the request and converts it to service parameters
func (r *TriggerRunRequest) ToParams(correlationID string) (*service.TriggerParams, error) {
	mode, err := types.ParseRunMode(r.Mode)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Run mode must be MOCK or LIVE").
			Mark(ierr.ErrValidation)
	}

	asOf, err := time.Parse(time.DateOnly, r.AsOfDate)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("as_of_date must be an ISO date (YYYY-MM-DD)").
			WithReportableDetails(map[string]any{
				"as_of_date": r.AsOfDate,
			}).
			Mark(ierr.ErrValidation)
	}

	return &service.TriggerParams{
		Mode:          mode,
		AsOfDate:      asOf,
		CorrelationID: correlationID,
	}, nil
}

// RunResponse describes a billing run
type RunResponse struct {
	ID            string     `json:"id"`
	Mode          string     `json:"mode"`
	AsOfDate      string     `json:"as_of_date"`
	Status        string     `json:"status"`
	CorrelationID string     `json:"correlation_id"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// NewRunResponse converts a domain run to its API shape
func NewRunResponse(run *billingrun.BillingRun) *RunResponse {
	return &RunResponse{
		ID:            run.ID,
		Mode:          run.RunMode.String(),
		AsOfDate:      run.AsOfDate.Format(time.DateOnly),
		Status:        run.Status.String(),
		CorrelationID: run.CorrelationID,
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
	}
}

// HistoryResponse is one run history record
type HistoryResponse struct {
	RunID                  string    `json:"run_id"`
	InvoiceID              string    `json:"invoice_id"`
	SubscriptionInstanceID string    `json:"subscription_instance_id"`
	CycleNumber            int       `json:"cycle_number"`
	Status                 string    `json:"status"`
	SubTotal               *string   `json:"sub_total,omitempty"`
	TaxAmount              *string   `json:"tax_amount,omitempty"`
	DiscountAmount         *string   `json:"discount_amount,omitempty"`
	Amount                 *string   `json:"amount,omitempty"`
	Currency               string    `json:"currency"`
	Mock                   bool      `json:"mock"`
	GatewayRef             *string   `json:"gateway_ref,omitempty"`
	IntentID               *string   `json:"client_payment_intent_id,omitempty"`
	TransactionID          *string   `json:"client_payment_transaction_id,omitempty"`
	FailureReason          *string   `json:"failure_reason,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// NewHistoryResponse converts a history record to its API shape
func NewHistoryResponse(record *history.Record) *HistoryResponse {
	resp := &HistoryResponse{
		RunID:                  record.RunID,
		InvoiceID:              record.InvoiceID,
		SubscriptionInstanceID: record.SubscriptionInstanceID,
		CycleNumber:            record.CycleNumber,
		Status:                 record.Status.String(),
		Currency:               record.Currency,
		Mock:                   record.Mock,
		GatewayRef:             record.GatewayRef,
		IntentID:               record.IntentID,
		TransactionID:          record.TransactionID,
		FailureReason:          record.FailureReason,
		CreatedAt:              record.CreatedAt,
	}
	resp.SubTotal = decimalString(record.SubTotal)
	resp.TaxAmount = decimalString(record.TaxAmount)
	resp.DiscountAmount = decimalString(record.DiscountAmount)
	resp.Amount = decimalString(record.Amount)
	return resp
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// ResolveDeadLetterRequest resolves one dead letter entry
type ResolveDeadLetterRequest struct {
	ResolvedBy string `json:"resolved_by" binding:"required"`
	Notes      string `json:"notes"`
}
