package payment

import (
	"strings"

	"github.com/billforge/billforge/internal/types"
)

// ClassifyFailure maps a failure reason to the error type used for dead
// letter triage. Matching is substring based because reasons carry gateway
// detail after the code.
func ClassifyFailure(reason string) types.PaymentErrorType {
	upper := strings.ToUpper(reason)
	switch {
	case strings.Contains(upper, "CIRCUIT_BREAKER"):
		return types.PaymentErrorCircuitBreakerOpen
	case strings.Contains(upper, "HTTP_ERROR"), strings.Contains(upper, "REST_CLIENT"):
		return types.PaymentErrorHTTP
	case strings.Contains(upper, "TIMEOUT"):
		return types.PaymentErrorTimeout
	case strings.Contains(upper, "RATE_LIMIT"):
		return types.PaymentErrorRateLimitExceeded
	case strings.Contains(upper, "INSUFFICIENT_FUNDS"), strings.Contains(upper, "DECLINED"):
		return types.PaymentErrorBusinessFailure
	default:
		return types.PaymentErrorPaymentFailure
	}
}
