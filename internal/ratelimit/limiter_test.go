package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/logger"
)

func newTestLimiter(t *testing.T, api, payment, job int) *Limiter {
	cfg := config.GetDefaultConfig()
	cfg.RateLimit.APIPerMinute = api
	cfg.RateLimit.PaymentPerSecond = payment
	cfg.RateLimit.JobPerHour = job

	log, err := logger.NewLogger(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return NewLimiter(cfg, log)
}

func TestJobBucketExhausts(t *testing.T) {
	l := newTestLimiter(t, 100, 50, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.AllowJobExecution(), "trigger %d should be allowed", i+1)
	}
	assert.False(t, l.AllowJobExecution(), "trigger beyond burst should be rejected")
}

func TestPaymentBucketExhausts(t *testing.T) {
	l := newTestLimiter(t, 100, 2, 10)

	assert.True(t, l.AllowPayment())
	assert.True(t, l.AllowPayment())
	assert.False(t, l.AllowPayment())
}

func TestAPITokensReported(t *testing.T) {
	l := newTestLimiter(t, 10, 50, 10)

	assert.True(t, l.AllowAPI())
	assert.Less(t, l.APITokens(), 10)
}
