package payment

import (
	"context"

	"github.com/billforge/billforge/internal/config"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/httpclient"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/ratelimit"
	"github.com/billforge/billforge/internal/types"
)

// BillParams carries everything the gateway needs to charge one invoice
type BillParams struct {
	InvoiceID              string
	SubscriptionInstanceID string
	ClientRoleID           string
	ClientPaymentMethodID  string
	AmountMinor            int64
	Currency               string
	PaymentTypeCode        string
	ActorID                string
}

// Result is the terminal outcome of one billing attempt. The gateway ids
// are filled as far as the protocol progressed so partial failures stay
// traceable.
type Result struct {
	Success       bool
	Pending       bool
	GatewayRef    string
	FailureReason string

	IntentID              string
	TransactionID         string
	FinalizeTransactionID string
}

// Successful builds a captured result with the given gateway reference
func Successful(gatewayRef string) Result {
	return Result{Success: true, GatewayRef: gatewayRef}
}

// PendingCapture builds a result for a charge accepted but not yet captured
func PendingCapture() Result {
	return Result{Pending: true, GatewayRef: "PENDING_CAPTURE"}
}

// Failed builds a failed result with the given reason
func Failed(reason string) Result {
	return Result{FailureReason: reason}
}

// Service charges live invoices against a payment gateway
type Service interface {
	Bill(ctx context.Context, params *BillParams) (Result, error)
}

// NewService builds the gateway implementation selected by configuration
func NewService(
	cfg *config.Configuration,
	client httpclient.Client,
	limiter *ratelimit.Limiter,
	log *logger.Logger,
) (Service, error) {
	switch cfg.Payment.Strategy {
	case types.PaymentStrategyNoop:
		return NewNoopService(cfg, log), nil
	case types.PaymentStrategyHTTP:
		return NewHTTPService(cfg, client, limiter, log, NoFaults()), nil
	default:
		return nil, ierr.NewError("unknown payment strategy").
			WithReportableDetails(map[string]any{
				"strategy": cfg.Payment.Strategy,
			}).
			Mark(ierr.ErrValidation)
	}
}
