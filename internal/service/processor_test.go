package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/billforge/billforge/internal/domain/billingrun"
	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/payment"
	"github.com/billforge/billforge/internal/testutil"
	"github.com/billforge/billforge/internal/types"
)

// stubGateway is a payment.Service with a scripted outcome
type stubGateway struct {
	result     payment.Result
	err        error
	calls      int
	lastParams *payment.BillParams
}

func (g *stubGateway) Bill(ctx context.Context, params *payment.BillParams) (payment.Result, error) {
	g.calls++
	g.lastParams = params
	return g.result, g.err
}

type ProcessorServiceSuite struct {
	testutil.BaseServiceTestSuite
	processor ProcessorService
	gateway   *stubGateway
}

func TestProcessorService(t *testing.T) {
	suite.Run(t, new(ProcessorServiceSuite))
}

func (s *ProcessorServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	captured := payment.Successful("RZP_ORDER:order-1")
	captured.IntentID = "int-1"
	captured.TransactionID = "txn-1"
	s.gateway = &stubGateway{result: captured}
	s.processor = NewProcessorService(s.newParams(s.gateway))
}

func (s *ProcessorServiceSuite) newParams(gateway payment.Service) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		DB:             s.GetDB(),
		RateLimiter:    s.GetRateLimiter(),
		PaymentService: gateway,
		BillingRunRepo: stores.BillingRunRepo,
		InvoiceRepo:    stores.InvoiceRepo,
		HistoryRepo:    stores.HistoryRepo,
		DeadLetterRepo: stores.DeadLetterRepo,
	}
}

func (s *ProcessorServiceSuite) newRun(mode types.RunMode) *billingrun.BillingRun {
	return billingrun.NewBillingRun(mode, s.GetNow(), "corr-test")
}

func (s *ProcessorServiceSuite) newItem(id string, total string) *invoice.DueInvoice {
	item := &invoice.DueInvoice{
		InvoiceID:              id,
		SubscriptionInstanceID: "si-" + id,
		CycleNumber:            1,
		PaymentDueDate:         s.GetNow().AddDate(0, 0, -1),
		ClientRoleID:           "cr-1",
	}
	if total != "" {
		amount := decimal.RequireFromString(total)
		subTotal := amount.Sub(decimal.RequireFromString("10.00"))
		tax := decimal.RequireFromString("12.00")
		discount := decimal.RequireFromString("2.00")
		item.TotalAmount = &amount
		item.SubTotal = &subTotal
		item.TaxAmount = &tax
		item.DiscountAmount = &discount
	}
	method := "pm-1"
	item.ClientPaymentMethodID = &method
	return item
}

func (s *ProcessorServiceSuite) storeEligible(item *invoice.DueInvoice, eligible bool) {
	s.GetInvoiceStore().AddInvoice(&testutil.StoredInvoice{
		DueInvoice:     *item,
		ScheduleStatus: types.ScheduleStatusDue,
		ScheduleActive: true,
		InvoiceActive:  true,
		InvoiceStatus:  types.InvoiceStatusDue,
		Eligible:       eligible,
	})
}

func (s *ProcessorServiceSuite) TestNotEligibleInvoiceIsSkipped() {
	run := s.newRun(types.RunModeMock)
	item := s.newItem("inv-1", "500.00")
	s.storeEligible(item, false)

	outcome, err := s.processor.Process(s.GetContext(), run, item)
	s.NoError(err)

	s.Equal(types.BillingStatusMockSkippedNotEligible, outcome.Record.Status)
	s.Equal("Not eligible by instance/plan/term/status rules.", *outcome.Record.FailureReason)
	s.False(outcome.ShouldUpdateSchedule)
	s.Nil(outcome.DeadLetter)
}

func (s *ProcessorServiceSuite) TestNotEligibleLiveInvoiceUsesLiveStatus() {
	run := s.newRun(types.RunModeLive)
	item := s.newItem("inv-1", "500.00")
	s.storeEligible(item, false)

	outcome, err := s.processor.Process(s.GetContext(), run, item)
	s.NoError(err)

	s.Equal(types.BillingStatusLiveSkippedNotEligible, outcome.Record.Status)
	s.Equal(0, s.gateway.calls)
}

func (s *ProcessorServiceSuite) TestNullTotalIsRecordedAsError() {
	run := s.newRun(types.RunModeMock)
	item := s.newItem("inv-1", "")
	s.storeEligible(item, true)

	outcome, err := s.processor.Process(s.GetContext(), run, item)
	s.NoError(err)

	s.Equal(types.BillingStatusMockError, outcome.Record.Status)
	s.Equal("Invoice total_amount is NULL; cannot bill.", *outcome.Record.FailureReason)
}

func (s *ProcessorServiceSuite) TestMockRunEvaluatesWithoutGateway() {
	run := s.newRun(types.RunModeMock)
	item := s.newItem("inv-1", "500.00")
	s.storeEligible(item, true)

	outcome, err := s.processor.Process(s.GetContext(), run, item)
	s.NoError(err)

	s.Equal(types.BillingStatusMockEvaluated, outcome.Record.Status)
	s.True(outcome.Record.Mock)
	s.False(outcome.ShouldUpdateSchedule)
	s.Equal(0, s.gateway.calls)
}

func (s *ProcessorServiceSuite) TestLiveRunMissingPaymentMethod() {
	run := s.newRun(types.RunModeLive)
	item := s.newItem("inv-1", "500.00")
	item.ClientPaymentMethodID = nil
	s.storeEligible(item, true)

	outcome, err := s.processor.Process(s.GetContext(), run, item)
	s.NoError(err)

	s.Equal(types.BillingStatusLiveError, outcome.Record.Status)
	s.Equal(0, s.gateway.calls)
}

func (s *ProcessorServiceSuite) TestLiveRunFinalizesCapturedPayment() {
	run := s.newRun(types.RunModeLive)
	item := s.newItem("inv-1", "499.99")
	s.storeEligible(item, true)

	outcome, err := s.processor.Process(s.GetContext(), run, item)
	s.NoError(err)

	s.Equal(types.BillingStatusLiveFinalized, outcome.Record.Status)
	s.Equal("RZP_ORDER:order-1", *outcome.Record.GatewayRef)
	s.Equal("int-1", *outcome.Record.IntentID)
	s.Equal("txn-1", *outcome.Record.TransactionID)
	s.True(outcome.Record.SubTotal.Equal(decimal.RequireFromString("489.99")))
	s.True(outcome.Record.TaxAmount.Equal(decimal.RequireFromString("12.00")))
	s.True(outcome.Record.DiscountAmount.Equal(decimal.RequireFromString("2.00")))
	s.True(outcome.ShouldUpdateSchedule)
	s.Equal(types.ScheduleStatusBilled, outcome.ScheduleNewStatus)
	s.Nil(outcome.DeadLetter)
	s.Equal(int64(49999), s.gateway.lastParams.AmountMinor)
}

func (s *ProcessorServiceSuite) TestLiveRunRejectsSubCentAmounts() {
	run := s.newRun(types.RunModeLive)
	item := s.newItem("inv-1", "12.345")
	s.storeEligible(item, true)

	outcome, err := s.processor.Process(s.GetContext(), run, item)
	s.NoError(err)

	s.Equal(types.BillingStatusLiveError, outcome.Record.Status)
	s.Equal(0, s.gateway.calls)
}

func (s *ProcessorServiceSuite) TestPendingCaptureLeavesScheduleUntouched() {
	s.gateway.result = payment.PendingCapture()
	run := s.newRun(types.RunModeLive)
	item := s.newItem("inv-1", "500.00")
	s.storeEligible(item, true)

	outcome, err := s.processor.Process(s.GetContext(), run, item)
	s.NoError(err)

	s.Equal(types.BillingStatusPendingCapture, outcome.Record.Status)
	s.Equal("PENDING_CAPTURE", *outcome.Record.FailureReason)
	s.False(outcome.ShouldUpdateSchedule)
	s.Nil(outcome.DeadLetter)
}

func (s *ProcessorServiceSuite) TestFailedPaymentGoesToDeadLetter() {
	s.gateway.result = payment.Failed("INSUFFICIENT_FUNDS")
	run := s.newRun(types.RunModeLive)
	item := s.newItem("inv-1", "500.00")
	s.storeEligible(item, true)

	outcome, err := s.processor.Process(s.GetContext(), run, item)
	s.NoError(err)

	s.Equal(types.BillingStatusLivePaymentFailed, outcome.Record.Status)
	s.Equal("INSUFFICIENT_FUNDS", *outcome.Record.FailureReason)
	s.True(outcome.ShouldUpdateSchedule)
	s.Equal(types.ScheduleStatusFailed, outcome.ScheduleNewStatus)

	s.Require().NotNil(outcome.DeadLetter)
	s.Equal(types.PaymentErrorBusinessFailure, outcome.DeadLetter.ErrorType)
	s.Equal(run.ID, outcome.DeadLetter.BillingRunID)
	s.NotEmpty(outcome.DeadLetter.WorkItemJSON)
}

func (s *ProcessorServiceSuite) TestEligibilityCheckFailurePropagates() {
	s.GetInvoiceStore().FailEligibilityWith(ierr.NewError("connection reset").Mark(ierr.ErrDatabase))
	run := s.newRun(types.RunModeMock)
	item := s.newItem("inv-1", "500.00")

	_, err := s.processor.Process(s.GetContext(), run, item)
	s.Error(err)
	s.True(ierr.IsDatabase(err))
}
