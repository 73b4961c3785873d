package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/billforge/billforge/internal/domain/deadletter"
	"github.com/billforge/billforge/internal/testutil"
	"github.com/billforge/billforge/internal/types"
)

type DeadLetterServiceSuite struct {
	testutil.BaseServiceTestSuite
	service DeadLetterService
}

func TestDeadLetterService(t *testing.T) {
	suite.Run(t, new(DeadLetterServiceSuite))
}

func (s *DeadLetterServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.service = NewDeadLetterService(ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		DB:             s.GetDB(),
		BillingRunRepo: stores.BillingRunRepo,
		InvoiceRepo:    stores.InvoiceRepo,
		HistoryRepo:    stores.HistoryRepo,
		DeadLetterRepo: stores.DeadLetterRepo,
	})
}

func (s *DeadLetterServiceSuite) addEntry(runID string, n int) {
	s.service.Add(s.GetContext(), &deadletter.Entry{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DEAD_LETTER),
		BillingRunID:           runID,
		InvoiceID:              fmt.Sprintf("inv-%s-%d", runID, n),
		SubscriptionInstanceID: fmt.Sprintf("si-%s-%d", runID, n),
		ErrorType:              types.PaymentErrorPaymentFailure,
		ErrorMessage:           "PAYMENT_FAILED",
		WorkItemJSON:           "{}",
		CreatedAt:              time.Now().UTC().Add(time.Duration(n) * time.Millisecond),
	})
}

func (s *DeadLetterServiceSuite) TestListUnresolvedFiltersByRun() {
	s.addEntry("run-a", 1)
	s.addEntry("run-a", 2)
	s.addEntry("run-b", 1)

	entries, err := s.service.ListUnresolved(s.GetContext(), "run-a", 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	for _, entry := range entries {
		s.Equal("run-a", entry.BillingRunID)
	}

	all, err := s.service.ListUnresolved(s.GetContext(), "", 10)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *DeadLetterServiceSuite) TestResolvedEntriesDropOutOfBacklog() {
	s.addEntry("run-a", 1)

	entries, err := s.service.ListUnresolved(s.GetContext(), "run-a", 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)

	s.Require().NoError(s.service.Resolve(s.GetContext(), entries[0].ID, "ops", "charged manually"))

	remaining, err := s.service.ListUnresolved(s.GetContext(), "run-a", 10)
	s.Require().NoError(err)
	s.Empty(remaining)

	count, err := s.service.CountUnresolved(s.GetContext())
	s.Require().NoError(err)
	s.Equal(0, count)
}
