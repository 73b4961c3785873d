package payment_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/payment"
	"github.com/billforge/billforge/internal/ratelimit"
	"github.com/billforge/billforge/internal/testutil"
	"github.com/billforge/billforge/internal/types"
)

const (
	validatePath = "/payments/validate-method"
	intentPath   = "/payments/create-intent"
	chargePath   = "/payments/charge-at-will"
)

func newGatewayConfig() *config.Configuration {
	cfg := config.GetDefaultConfig()
	cfg.Payment.Strategy = types.PaymentStrategyHTTP
	cfg.Payment.BaseURL = "http://gateway.local"
	cfg.Payment.ValidateMethodPath = validatePath
	cfg.Payment.CreateIntentPath = intentPath
	cfg.Payment.ChargeAtWillPath = chargePath
	cfg.Retry.InitialIntervalMs = 1
	cfg.Retry.MaxIntervalMs = 2
	cfg.CircuitBreaker.FailureThreshold = 100
	cfg.RateLimit.PaymentPerSecond = 1000
	return cfg
}

func newGateway(t *testing.T, cfg *config.Configuration) (*payment.HTTPService, *testutil.MockHTTPClient) {
	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	client := testutil.NewMockHTTPClient()
	limiter := ratelimit.NewLimiter(cfg, log)
	svc := payment.NewHTTPService(cfg, client, limiter, log, payment.NoFaults())
	return svc, client
}

func billParams() *payment.BillParams {
	return &payment.BillParams{
		InvoiceID:              "inv-1",
		SubscriptionInstanceID: "si-1",
		ClientRoleID:           "cr-1",
		ClientPaymentMethodID:  "pm-1",
		AmountMinor:            49999,
		Currency:               "INR",
		PaymentTypeCode:        "RECURRING",
		ActorID:                "system-billing",
	}
}

func registerHappyPath(client *testutil.MockHTTPClient) {
	client.RegisterResponse(validatePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"valid":true}`),
	})
	client.RegisterResponse(intentPath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"intentId":"int-1","razorpayOrderId":"order-1"}`),
	})
	client.RegisterResponse(chargePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"status":"CAPTURED","razorpayOrderId":"order-1","clientPaymentTransactionId":"txn-1"}`),
	})
}

func TestBillCapturesPayment(t *testing.T) {
	svc, client := newGateway(t, newGatewayConfig())
	registerHappyPath(client)

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.Pending)
	assert.Equal(t, "RZP_ORDER:order-1", result.GatewayRef)
	assert.Equal(t, "int-1", result.IntentID)
	assert.Equal(t, "txn-1", result.TransactionID)
	assert.Equal(t, 1, client.CallCount(validatePath))
	assert.Equal(t, 1, client.CallCount(intentPath))
	assert.Equal(t, 1, client.CallCount(chargePath))
}

func TestBillInvalidPaymentMethodStopsSequence(t *testing.T) {
	svc, client := newGateway(t, newGatewayConfig())
	client.RegisterResponse(validatePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"valid":false}`),
	})

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "VALIDATE_METHOD_INVALID: valid=false", result.FailureReason)
	assert.Equal(t, 0, client.CallCount(intentPath))
	assert.Equal(t, 0, client.CallCount(chargePath))
}

func TestBillIncompleteIntentFails(t *testing.T) {
	svc, client := newGateway(t, newGatewayConfig())
	client.RegisterResponse(validatePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"valid":true}`),
	})
	client.RegisterResponse(intentPath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"intentId":"int-1"}`),
	})

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "CREATE_INTENT_FAILED: missing intentId or razorpayOrderId", result.FailureReason)
	assert.Equal(t, 0, client.CallCount(chargePath))
}

func TestBillPendingCaptureDoesNotFinalize(t *testing.T) {
	svc, client := newGateway(t, newGatewayConfig())
	registerHappyPath(client)
	client.RegisterResponse(chargePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"status":"PENDING_CAPTURE","razorpayOrderId":"order-1"}`),
	})

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.True(t, result.Pending)
	assert.Equal(t, "PENDING_CAPTURE", result.GatewayRef)
	assert.Equal(t, "int-1", result.IntentID)
	assert.Empty(t, result.TransactionID)
}

func TestBillFailedChargeReportsReason(t *testing.T) {
	svc, client := newGateway(t, newGatewayConfig())
	registerHappyPath(client)
	client.RegisterResponse(chargePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"status":"FAILED"}`),
	})

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "PAYMENT_FAILED", result.FailureReason)
}

func TestBillUnknownGatewayStatusFailsClosed(t *testing.T) {
	svc, client := newGateway(t, newGatewayConfig())
	registerHappyPath(client)
	client.RegisterResponse(chargePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"status":"SETTLING","razorpayOrderId":"order-1","clientPaymentTransactionId":"txn-1"}`),
	})

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.False(t, result.Pending)
	assert.Equal(t, "UNSUPPORTED_STATUS:SETTLING", result.FailureReason)
}

func TestBillMissingTransactionIDFails(t *testing.T) {
	svc, client := newGateway(t, newGatewayConfig())
	registerHappyPath(client)
	client.RegisterResponse(chargePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"status":"CAPTURED","razorpayOrderId":"order-1"}`),
	})

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "CHARGE_AT_WILL_FAILED: missing clientPaymentTransactionId", result.FailureReason)
}

func TestBillRetriesServerErrors(t *testing.T) {
	cfg := newGatewayConfig()
	svc, client := newGateway(t, cfg)
	client.RegisterResponse(validatePath, testutil.MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       []byte(`{"error":"boom"}`),
	})

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.FailureReason, "HTTP_ERROR_500")
	assert.Equal(t, cfg.Retry.MaxAttempts, client.CallCount(validatePath))
}

func TestBillDoesNotRetryClientErrors(t *testing.T) {
	svc, client := newGateway(t, newGatewayConfig())
	client.RegisterResponse(validatePath, testutil.MockResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Body:       []byte(`{"error":"bad method"}`),
	})

	result, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.FailureReason, "HTTP_ERROR_422")
	assert.Equal(t, 1, client.CallCount(validatePath))
}

func TestBillRateLimited(t *testing.T) {
	cfg := newGatewayConfig()
	cfg.RateLimit.PaymentPerSecond = 1
	svc, client := newGateway(t, cfg)
	registerHappyPath(client)

	first, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)
	assert.True(t, first.Success)

	second, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Contains(t, second.FailureReason, "RATE_LIMIT_EXCEEDED")
	assert.Equal(t, 1, client.CallCount(validatePath))
}

func TestBillCircuitBreakerOpens(t *testing.T) {
	cfg := newGatewayConfig()
	cfg.CircuitBreaker.FailureThreshold = 1
	cfg.Retry.MaxAttempts = 1
	svc, client := newGateway(t, cfg)
	client.RegisterResponse(validatePath, testutil.MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       []byte(`{"error":"boom"}`),
	})

	first, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)
	assert.Contains(t, first.FailureReason, "HTTP_ERROR_500")

	second, err := svc.Bill(context.Background(), billParams())
	require.NoError(t, err)
	assert.Contains(t, second.FailureReason, "CIRCUIT_BREAKER_OPEN")
	assert.Equal(t, 1, client.CallCount(validatePath))
}

func TestClassifyFailure(t *testing.T) {
	cases := map[string]types.PaymentErrorType{
		"CIRCUIT_BREAKER_OPEN: gateway down": types.PaymentErrorCircuitBreakerOpen,
		"HTTP_ERROR_503: unavailable":        types.PaymentErrorHTTP,
		"REST_CLIENT_ERROR: conn refused":    types.PaymentErrorHTTP,
		"TIMEOUT: deadline exceeded":         types.PaymentErrorTimeout,
		"RATE_LIMIT_EXCEEDED: bucket empty":  types.PaymentErrorRateLimitExceeded,
		"INSUFFICIENT_FUNDS":                 types.PaymentErrorBusinessFailure,
		"CARD_DECLINED":                      types.PaymentErrorBusinessFailure,
		"PAYMENT_FAILED":                     types.PaymentErrorPaymentFailure,
	}

	for reason, want := range cases {
		assert.Equal(t, want, payment.ClassifyFailure(reason), "reason %q", reason)
	}
}
