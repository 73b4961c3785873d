package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/domain/billingrun"
	"github.com/billforge/billforge/internal/domain/deadletter"
	"github.com/billforge/billforge/internal/domain/history"
	"github.com/billforge/billforge/internal/domain/invoice"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/postgres"
	"github.com/billforge/billforge/internal/ratelimit"
	"github.com/billforge/billforge/internal/types"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	BillingRunRepo billingrun.Repository
	InvoiceRepo    invoice.Repository
	HistoryRepo    history.Repository
	DeadLetterRepo deadletter.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores

	billingRunStore *InMemoryBillingRunStore
	invoiceStore    *InMemoryInvoiceStore
	historyStore    *InMemoryHistoryStore
	deadLetterStore *InMemoryDeadLetterStore

	db      postgres.IClient
	logger  *logger.Logger
	config  *config.Configuration
	limiter *ratelimit.Limiter
	now     time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.limiter = ratelimit.NewLimiter(s.config, s.logger)
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = types.SetCorrelationID(context.Background(), "corr-test")
}

func (s *BaseServiceTestSuite) setupStores() {
	s.historyStore = NewInMemoryHistoryStore()
	s.billingRunStore = NewInMemoryBillingRunStore()
	s.invoiceStore = NewInMemoryInvoiceStore(s.historyStore)
	s.deadLetterStore = NewInMemoryDeadLetterStore()

	s.stores = Stores{
		BillingRunRepo: s.billingRunStore,
		InvoiceRepo:    s.invoiceStore,
		HistoryRepo:    s.historyStore,
		DeadLetterRepo: s.deadLetterStore,
	}

	s.db = NewMockPostgresClient(s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.billingRunStore.Clear()
	s.invoiceStore.Clear()
	s.historyStore.Clear()
	s.deadLetterStore.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the test stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetBillingRunStore returns the in-memory billing run store
func (s *BaseServiceTestSuite) GetBillingRunStore() *InMemoryBillingRunStore {
	return s.billingRunStore
}

// GetInvoiceStore returns the in-memory invoice store
func (s *BaseServiceTestSuite) GetInvoiceStore() *InMemoryInvoiceStore {
	return s.invoiceStore
}

// GetHistoryStore returns the in-memory history store
func (s *BaseServiceTestSuite) GetHistoryStore() *InMemoryHistoryStore {
	return s.historyStore
}

// GetDeadLetterStore returns the in-memory dead letter store
func (s *BaseServiceTestSuite) GetDeadLetterStore() *InMemoryDeadLetterStore {
	return s.deadLetterStore
}

// GetDB returns the mock postgres client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetRateLimiter returns a fresh rate limiter
func (s *BaseServiceTestSuite) GetRateLimiter() *ratelimit.Limiter {
	return s.limiter
}

// GetNow returns the test start time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
