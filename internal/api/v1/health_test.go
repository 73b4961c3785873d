package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/billforge/billforge/internal/domain/deadletter"
	"github.com/billforge/billforge/internal/service"
	"github.com/billforge/billforge/internal/testutil"
	"github.com/billforge/billforge/internal/types"
)

type HealthHandlerSuite struct {
	testutil.BaseServiceTestSuite
	handler *HealthHandler
}

func TestHealthHandler(t *testing.T) {
	suite.Run(t, new(HealthHandlerSuite))
}

func (s *HealthHandlerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	gin.SetMode(gin.TestMode)

	stores := s.GetStores()
	deadLetter := service.NewDeadLetterService(service.ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		DB:             s.GetDB(),
		BillingRunRepo: stores.BillingRunRepo,
		InvoiceRepo:    stores.InvoiceRepo,
		HistoryRepo:    stores.HistoryRepo,
		DeadLetterRepo: stores.DeadLetterRepo,
	})
	s.handler = NewHealthHandler(deadLetter, s.GetRateLimiter(), s.GetLogger())
}

func (s *HealthHandlerSuite) seedBacklog(count int) {
	for i := 0; i < count; i++ {
		err := s.GetDeadLetterStore().Create(s.GetContext(), &deadletter.Entry{
			ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DEAD_LETTER),
			BillingRunID: "run-1",
			InvoiceID:    fmt.Sprintf("inv-%04d", i+1),
			ErrorType:    types.PaymentErrorPaymentFailure,
			ErrorMessage: "PAYMENT_FAILED",
			WorkItemJSON: "{}",
			CreatedAt:    time.Now().UTC(),
		})
		s.Require().NoError(err)
	}
}

func (s *HealthHandlerSuite) health() (int, map[string]any) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	s.handler.Health(c)

	var body map[string]any
	s.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &body))
	return recorder.Code, body
}

func (s *HealthHandlerSuite) TestHealthyWithSmallBacklog() {
	s.seedBacklog(5)

	code, body := s.health()
	s.Equal(http.StatusOK, code)
	s.Equal("ok", body["status"])

	backlog := body["dead_letter"].(map[string]any)
	s.Equal(float64(5), backlog["unresolved"])
}

func (s *HealthHandlerSuite) TestDegradedWhenBacklogExceedsThreshold() {
	s.seedBacklog(unresolvedBacklogThreshold + 1)

	code, body := s.health()
	s.Equal(http.StatusServiceUnavailable, code)
	s.Equal("degraded", body["status"])
}
