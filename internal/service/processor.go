package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/billforge/billforge/internal/domain/billingrun"
	"github.com/billforge/billforge/internal/domain/deadletter"
	"github.com/billforge/billforge/internal/domain/history"
	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/payment"
	"github.com/billforge/billforge/internal/types"
)

const (
	reasonNotEligible    = "Not eligible by instance/plan/term/status rules."
	reasonNullTotal      = "Invoice total_amount is NULL; cannot bill."
	reasonNoPaymentMeth  = "Missing client_payment_method_id; cannot bill."
	reasonPendingCapture = "PENDING_CAPTURE"
)

// ProcessOutcome is the decision for one invoice: the history record to
// write, the schedule transition if any, and a dead letter entry for
// failed live charges.
type ProcessOutcome struct {
	Record               *history.Record
	ShouldUpdateSchedule bool
	ScheduleNewStatus    types.ScheduleStatus
	DeadLetter           *deadletter.Entry
}

// ProcessorService decides the billing outcome for one due invoice
type ProcessorService interface {
	Process(ctx context.Context, run *billingrun.BillingRun, item *invoice.DueInvoice) (*ProcessOutcome, error)
}

type processorService struct {
	ServiceParams
}

func NewProcessorService(params ServiceParams) ProcessorService {
	return &processorService{ServiceParams: params}
}

// Process applies the billing decision tree. It returns an error only for
// infrastructure failures; every business outcome, including gateway
// failures, comes back as an outcome to record.
func (s *processorService) Process(ctx context.Context, run *billingrun.BillingRun, item *invoice.DueInvoice) (*ProcessOutcome, error) {
	eligible, err := s.InvoiceRepo.IsEligible(ctx, item.InvoiceID, run.AsOfDate)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Eligibility check failed").
			WithReportableDetails(map[string]any{
				"run_id":     run.ID,
				"invoice_id": item.InvoiceID,
			}).
			Mark(ierr.ErrDatabase)
	}

	if !eligible {
		return s.outcome(run, item, types.SkippedNotEligibleStatus(run.RunMode), reasonNotEligible), nil
	}

	if item.TotalAmount == nil {
		return s.outcome(run, item, types.ErrorStatus(run.RunMode), reasonNullTotal), nil
	}

	if run.RunMode == types.RunModeLive && item.ClientPaymentMethodID == nil {
		return s.outcome(run, item, types.BillingStatusLiveError, reasonNoPaymentMeth), nil
	}

	if run.RunMode == types.RunModeMock {
		out := s.outcome(run, item, types.BillingStatusMockEvaluated, "")
		return out, nil
	}

	return s.billLive(ctx, run, item)
}

func (s *processorService) billLive(ctx context.Context, run *billingrun.BillingRun, item *invoice.DueInvoice) (*ProcessOutcome, error) {
	amountMinor, err := types.ToMinorUnits(*item.TotalAmount)
	if err != nil {
		return s.outcome(run, item, types.BillingStatusLiveError, err.Error()), nil
	}

	result, err := s.PaymentService.Bill(ctx, &payment.BillParams{
		InvoiceID:              item.InvoiceID,
		SubscriptionInstanceID: item.SubscriptionInstanceID,
		ClientRoleID:           item.ClientRoleID,
		ClientPaymentMethodID:  *item.ClientPaymentMethodID,
		AmountMinor:            amountMinor,
		Currency:               s.Config.Billing.Currency,
		PaymentTypeCode:        s.Config.Billing.PaymentTypeCode,
		ActorID:                s.Config.Billing.ActorID,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment gateway call failed unexpectedly").
			WithReportableDetails(map[string]any{
				"run_id":     run.ID,
				"invoice_id": item.InvoiceID,
			}).
			Mark(ierr.ErrSystem)
	}

	switch {
	case result.Success:
		out := s.outcome(run, item, types.BillingStatusLiveFinalized, "")
		out.Record.GatewayRef = &result.GatewayRef
		s.attachPaymentIDs(out.Record, result)
		out.ShouldUpdateSchedule = true
		out.ScheduleNewStatus = types.ScheduleStatusBilled
		return out, nil

	case result.Pending:
		// The gateway accepted the charge but capture confirms out of
		// band. The schedule stays untouched so a later run can pick
		// the invoice up once capture lands.
		out := s.outcome(run, item, types.BillingStatusPendingCapture, reasonPendingCapture)
		out.Record.GatewayRef = &result.GatewayRef
		s.attachPaymentIDs(out.Record, result)
		return out, nil

	default:
		out := s.outcome(run, item, types.BillingStatusLivePaymentFailed, result.FailureReason)
		s.attachPaymentIDs(out.Record, result)
		out.ShouldUpdateSchedule = true
		out.ScheduleNewStatus = types.ScheduleStatusFailed
		out.DeadLetter = s.buildDeadLetter(run, item, result.FailureReason)
		return out, nil
	}
}

func (s *processorService) attachPaymentIDs(record *history.Record, result payment.Result) {
	record.IntentID = lo.EmptyableToPtr(result.IntentID)
	record.TransactionID = lo.EmptyableToPtr(result.TransactionID)
}

func (s *processorService) outcome(run *billingrun.BillingRun, item *invoice.DueInvoice, status types.BillingStatus, failureReason string) *ProcessOutcome {
	record := &history.Record{
		RunID:                  run.ID,
		InvoiceID:              item.InvoiceID,
		SubscriptionInstanceID: item.SubscriptionInstanceID,
		CycleNumber:            item.CycleNumber,
		Status:                 status,
		SubTotal:               item.SubTotal,
		TaxAmount:              item.TaxAmount,
		DiscountAmount:         item.DiscountAmount,
		Amount:                 item.TotalAmount,
		Currency:               s.Config.Billing.Currency,
		Mock:                   run.RunMode == types.RunModeMock,
		CreatedAt:              time.Now().UTC(),
	}
	if failureReason != "" {
		record.FailureReason = &failureReason
	}
	return &ProcessOutcome{Record: record}
}

func (s *processorService) buildDeadLetter(run *billingrun.BillingRun, item *invoice.DueInvoice, reason string) *deadletter.Entry {
	workItem, err := json.Marshal(item)
	if err != nil {
		s.Logger.Errorw("failed to marshal work item for dead letter entry",
			"run_id", run.ID,
			"invoice_id", item.InvoiceID,
			"error", err,
		)
		workItem = []byte("{}")
	}

	return &deadletter.Entry{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DEAD_LETTER),
		BillingRunID:           run.ID,
		InvoiceID:              item.InvoiceID,
		SubscriptionInstanceID: item.SubscriptionInstanceID,
		ErrorType:              payment.ClassifyFailure(reason),
		ErrorMessage:           reason,
		WorkItemJSON:           string(workItem),
		CreatedAt:              time.Now().UTC(),
	}
}
