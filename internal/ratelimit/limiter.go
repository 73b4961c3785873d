package ratelimit

import (
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/logger"
)

// Limiter holds the token buckets guarding the API surface, the payment
// gateway calls and run triggers. All checks are non-blocking: a caller
// that cannot get a token is rejected, never queued.
type Limiter struct {
	api     *rate.Limiter
	payment *rate.Limiter
	job     *rate.Limiter
	logger  *logger.Logger
}

// NewLimiter creates the three buckets from configuration
func NewLimiter(cfg *config.Configuration, logger *logger.Logger) *Limiter {
	return &Limiter{
		api: rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(cfg.RateLimit.APIPerMinute)),
			cfg.RateLimit.APIPerMinute,
		),
		payment: rate.NewLimiter(
			rate.Limit(cfg.RateLimit.PaymentPerSecond),
			cfg.RateLimit.PaymentPerSecond,
		),
		job: rate.NewLimiter(
			rate.Every(time.Hour/time.Duration(cfg.RateLimit.JobPerHour)),
			cfg.RateLimit.JobPerHour,
		),
		logger: logger,
	}
}

// AllowAPI consumes one token from the API bucket
func (l *Limiter) AllowAPI() bool {
	return l.api.Allow()
}

// AllowPayment consumes one token from the payment bucket
func (l *Limiter) AllowPayment() bool {
	allowed := l.payment.Allow()
	if !allowed {
		l.logger.Warnw("payment rate limit exceeded",
			"remaining_tokens", l.PaymentTokens(),
		)
	}
	return allowed
}

// AllowJobExecution consumes one token from the job trigger bucket
func (l *Limiter) AllowJobExecution() bool {
	allowed := l.job.Allow()
	if !allowed {
		l.logger.Warnw("job trigger rate limit exceeded",
			"remaining_tokens", l.JobTokens(),
		)
	}
	return allowed
}

// APITokens returns the whole tokens left in the API bucket
func (l *Limiter) APITokens() int {
	return int(math.Floor(l.api.Tokens()))
}

// PaymentTokens returns the whole tokens left in the payment bucket
func (l *Limiter) PaymentTokens() int {
	return int(math.Floor(l.payment.Tokens()))
}

// JobTokens returns the whole tokens left in the job bucket
func (l *Limiter) JobTokens() int {
	return int(math.Floor(l.job.Tokens()))
}
