package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/payment"
	"github.com/billforge/billforge/internal/types"
)

func newNoopService(t *testing.T, behavior types.NoopBehavior) *payment.NoopService {
	cfg := config.GetDefaultConfig()
	cfg.Payment.NoopBehavior = behavior

	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)
	return payment.NewNoopService(cfg, log)
}

func TestNoopSuccessBehavior(t *testing.T) {
	svc := newNoopService(t, types.NoopBehaviorSuccess)

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "NOOP:inv-1", result.GatewayRef)
}

func TestNoopAlwaysFailBehavior(t *testing.T) {
	svc := newNoopService(t, types.NoopBehaviorAlwaysFail)

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "NOOP_ALWAYS_FAIL", result.FailureReason)
}

func TestNoopDefaultsToSuccess(t *testing.T) {
	svc := newNoopService(t, "")

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestNewServiceSelectsStrategy(t *testing.T) {
	cfg := config.GetDefaultConfig()
	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	cfg.Payment.Strategy = types.PaymentStrategyNoop
	svc, err := payment.NewService(cfg, nil, nil, log)
	require.NoError(t, err)
	assert.IsType(t, &payment.NoopService{}, svc)

	cfg.Payment.Strategy = types.PaymentStrategy("STRIPE")
	_, err = payment.NewService(cfg, nil, nil, log)
	assert.Error(t, err)
}
