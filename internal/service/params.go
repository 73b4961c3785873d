package service

import (
	"go.uber.org/fx"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/domain/billingrun"
	"github.com/billforge/billforge/internal/domain/deadletter"
	"github.com/billforge/billforge/internal/domain/history"
	"github.com/billforge/billforge/internal/domain/invoice"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/payment"
	"github.com/billforge/billforge/internal/postgres"
	"github.com/billforge/billforge/internal/ratelimit"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	fx.In

	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	RateLimiter    *ratelimit.Limiter
	PaymentService payment.Service

	BillingRunRepo billingrun.Repository
	InvoiceRepo    invoice.Repository
	HistoryRepo    history.Repository
	DeadLetterRepo deadletter.Repository
}

// Module provides all services
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewProcessorService,
			NewWriterService,
			NewPipelineService,
			NewRunService,
			NewDeadLetterService,
		),
	)
}
