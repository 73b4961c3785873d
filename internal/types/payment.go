package types

import (
	"github.com/samber/lo"

	ierr "github.com/billforge/billforge/internal/errors"
)

// PaymentStrategy selects which gateway implementation bills live invoices
type PaymentStrategy string

const (
	PaymentStrategyNoop PaymentStrategy = "NOOP"
	PaymentStrategyHTTP PaymentStrategy = "HTTP"
)

func (s PaymentStrategy) String() string {
	return string(s)
}

func (s PaymentStrategy) Validate() error {
	allowed := []PaymentStrategy{
		PaymentStrategyNoop,
		PaymentStrategyHTTP,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment strategy").
			WithHint("Payment strategy must be NOOP or HTTP").
			WithReportableDetails(map[string]any{
				"strategy": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// NoopBehavior controls what the no-op gateway reports back
type NoopBehavior string

const (
	NoopBehaviorSuccess      NoopBehavior = "SUCCESS"
	NoopBehaviorAlwaysFail   NoopBehavior = "ALWAYS_FAIL"
	NoopBehaviorFailRandom10 NoopBehavior = "FAIL_RANDOM_10PCT"
)

func (b NoopBehavior) Validate() error {
	allowed := []NoopBehavior{
		NoopBehaviorSuccess,
		NoopBehaviorAlwaysFail,
		NoopBehaviorFailRandom10,
	}
	if !lo.Contains(allowed, b) {
		return ierr.NewError("invalid noop behavior").
			WithHint("Noop behavior must be SUCCESS, ALWAYS_FAIL or FAIL_RANDOM_10PCT").
			WithReportableDetails(map[string]any{
				"behavior": b,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentErrorType classifies why an invoice landed in the dead letter
// queue, for triage and retry routing
type PaymentErrorType string

const (
	PaymentErrorCircuitBreakerOpen PaymentErrorType = "CircuitBreakerOpen"
	PaymentErrorHTTP               PaymentErrorType = "HttpError"
	PaymentErrorTimeout            PaymentErrorType = "TimeoutError"
	PaymentErrorRateLimitExceeded  PaymentErrorType = "RateLimitExceeded"
	PaymentErrorBusinessFailure    PaymentErrorType = "BusinessFailure"
	PaymentErrorPaymentFailure     PaymentErrorType = "PaymentFailure"

	// Pipeline skip classifications: bad data is non-retryable, an
	// infrastructure fault is worth retrying once it clears
	PaymentErrorDataError       PaymentErrorType = "DataError"
	PaymentErrorProcessingError PaymentErrorType = "ProcessingError"
)

func (t PaymentErrorType) String() string {
	return string(t)
}
