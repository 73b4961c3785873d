package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/payment"
	"github.com/billforge/billforge/internal/ratelimit"
	"github.com/billforge/billforge/internal/testutil"
	"github.com/billforge/billforge/internal/types"
)

type RunServiceSuite struct {
	testutil.BaseServiceTestSuite
	service RunService
	gateway *stubGateway
}

func TestRunService(t *testing.T) {
	suite.Run(t, new(RunServiceSuite))
}

func (s *RunServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.gateway = &stubGateway{result: payment.Successful("RZP_ORDER:order-1")}
	s.service = s.newService(s.GetRateLimiter())
}

func (s *RunServiceSuite) newService(limiter *ratelimit.Limiter) RunService {
	stores := s.GetStores()
	params := ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		DB:             s.GetDB(),
		RateLimiter:    limiter,
		PaymentService: s.gateway,
		BillingRunRepo: stores.BillingRunRepo,
		InvoiceRepo:    stores.InvoiceRepo,
		HistoryRepo:    stores.HistoryRepo,
		DeadLetterRepo: stores.DeadLetterRepo,
	}

	deadLetter := NewDeadLetterService(params)
	processor := NewProcessorService(params)
	writer := NewWriterService(params, deadLetter)
	pipeline := NewPipelineService(params, processor, writer, deadLetter)
	return NewRunService(params, pipeline)
}

func (s *RunServiceSuite) seedInvoices(count int) {
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("inv-%03d", i+1)
		amount := decimal.RequireFromString("500.00")
		method := "pm-1"
		s.GetInvoiceStore().AddInvoice(&testutil.StoredInvoice{
			DueInvoice: invoice.DueInvoice{
				InvoiceID:              id,
				SubscriptionInstanceID: "si-" + id,
				CycleNumber:            1,
				PaymentDueDate:         s.GetNow().AddDate(0, 0, -1),
				ClientRoleID:           "cr-1",
				TotalAmount:            &amount,
				ClientPaymentMethodID:  &method,
			},
			ScheduleStatus: types.ScheduleStatusDue,
			ScheduleActive: true,
			InvoiceActive:  true,
			InvoiceStatus:  types.InvoiceStatusDue,
			Eligible:       true,
		})
	}
}

func (s *RunServiceSuite) waitForTerminal(runID string) types.BillingRunStatus {
	var status types.BillingRunStatus
	s.Require().Eventually(func() bool {
		run, err := s.GetBillingRunStore().Get(s.GetContext(), runID)
		if err != nil {
			return false
		}
		status = run.Status
		return status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond, "run %s should reach a terminal status", runID)
	return status
}

func (s *RunServiceSuite) TestTriggerRejectsInvalidMode() {
	_, err := s.service.Trigger(s.GetContext(), &TriggerParams{
		Mode:     types.RunMode("DRY_RUN"),
		AsOfDate: s.GetNow(),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RunServiceSuite) TestTriggerRejectsZeroDate() {
	_, err := s.service.Trigger(s.GetContext(), &TriggerParams{
		Mode: types.RunModeMock,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RunServiceSuite) TestTriggerRejectsFarFutureDate() {
	_, err := s.service.Trigger(s.GetContext(), &TriggerParams{
		Mode:     types.RunModeMock,
		AsOfDate: time.Now().UTC().AddDate(2, 0, 0),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RunServiceSuite) TestTriggerRateLimited() {
	cfg := *s.GetConfig()
	cfg.RateLimit.JobPerHour = 1
	svc := s.newService(ratelimit.NewLimiter(&cfg, s.GetLogger()))

	first, err := svc.Trigger(s.GetContext(), &TriggerParams{
		Mode:     types.RunModeMock,
		AsOfDate: s.GetNow(),
	})
	s.NoError(err)
	s.waitForTerminal(first.ID)

	_, err = svc.Trigger(s.GetContext(), &TriggerParams{
		Mode:     types.RunModeMock,
		AsOfDate: s.GetNow(),
	})
	s.Error(err)
	s.True(ierr.IsRateLimitExceeded(err))
}

func (s *RunServiceSuite) TestTriggerRunsToCompletion() {
	s.seedInvoices(2)

	run, err := s.service.Trigger(s.GetContext(), &TriggerParams{
		Mode:     types.RunModeMock,
		AsOfDate: s.GetNow(),
	})
	s.Require().NoError(err)
	s.Equal(types.BillingRunStatusRunning, run.Status)
	s.NotEmpty(run.CorrelationID)

	s.Equal(types.BillingRunStatusCompleted, s.waitForTerminal(run.ID))

	summary, err := s.service.GetSummary(s.GetContext(), run.ID)
	s.Require().NoError(err)
	s.Equal(2, summary.Processed)
	s.Equal(2, summary.Counts[types.BillingStatusMockEvaluated])
}

func (s *RunServiceSuite) TestGetSummaryBeforeCompletion() {
	run, err := s.service.Trigger(s.GetContext(), &TriggerParams{
		Mode:     types.RunModeLive,
		AsOfDate: s.GetNow(),
	})
	s.Require().NoError(err)

	// The summary may already exist if the empty run finished; only the
	// not-yet-terminal case must return an invalid operation error
	if _, err := s.service.GetSummary(s.GetContext(), run.ID); err != nil {
		s.True(ierr.IsInvalidOperation(err))
	}
	s.waitForTerminal(run.ID)
}

func (s *RunServiceSuite) TestGetHistoryForRun() {
	s.seedInvoices(3)

	run, err := s.service.Trigger(s.GetContext(), &TriggerParams{
		Mode:     types.RunModeMock,
		AsOfDate: s.GetNow(),
	})
	s.Require().NoError(err)
	s.waitForTerminal(run.ID)

	records, err := s.service.GetHistory(s.GetContext(), run.ID, 10)
	s.Require().NoError(err)
	s.Len(records, 3)
}

func (s *RunServiceSuite) TestGetHistoryUnknownRun() {
	_, err := s.service.GetHistory(s.GetContext(), "run_missing", 10)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *RunServiceSuite) TestGetUnknownRun() {
	_, err := s.service.Get(s.GetContext(), "run_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
