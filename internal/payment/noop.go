package payment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/types"
)

// NoopService is a gateway stand-in for environments without a real
// payment backend. Its behavior is configurable so failure paths can be
// exercised end to end.
type NoopService struct {
	behavior types.NoopBehavior
	logger   *logger.Logger
}

func NewNoopService(cfg *config.Configuration, log *logger.Logger) *NoopService {
	behavior := cfg.Payment.NoopBehavior
	if behavior == "" {
		behavior = types.NoopBehaviorSuccess
	}
	return &NoopService{
		behavior: behavior,
		logger:   log,
	}
}

func (s *NoopService) Bill(ctx context.Context, params *BillParams) (Result, error) {
	s.logger.Infow("noop gateway billing invoice",
		"invoice_id", params.InvoiceID,
		"amount_minor", params.AmountMinor,
		"behavior", s.behavior,
	)

	switch s.behavior {
	case types.NoopBehaviorAlwaysFail:
		return Failed("NOOP_ALWAYS_FAIL"), nil
	case types.NoopBehaviorFailRandom10:
		if rand.Intn(10) == 0 {
			return Failed("NOOP_RANDOM_FAILURE"), nil
		}
	}

	return Successful(fmt.Sprintf("NOOP:%s", params.InvoiceID)), nil
}
