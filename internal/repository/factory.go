package repository

import (
	"go.uber.org/fx"

	"github.com/billforge/billforge/internal/domain/billingrun"
	"github.com/billforge/billforge/internal/domain/deadletter"
	"github.com/billforge/billforge/internal/domain/history"
	"github.com/billforge/billforge/internal/domain/invoice"
)

// Module provides all repository implementations
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewBillingRunRepository,
			NewInvoiceRepository,
			NewHistoryRepository,
			NewDeadLetterRepository,
		),
	)
}

var (
	_ billingrun.Repository = (*billingRunRepository)(nil)
	_ invoice.Repository    = (*invoiceRepository)(nil)
	_ history.Repository    = (*historyRepository)(nil)
	_ deadletter.Repository = (*deadLetterRepository)(nil)
)
