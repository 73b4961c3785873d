package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/billforge/billforge/internal/config"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/httpclient"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/ratelimit"
	"github.com/billforge/billforge/internal/types"
)

const (
	callValidateMethod = "validate-method"
	callCreateIntent   = "create-intent"
	callChargeAtWill   = "charge-at-will"
)

// HTTPService bills invoices through the gateway's three call protocol:
// validate the stored payment method, create a payment intent, then charge
// at will. Each call retries on transient failures and the whole sequence
// runs behind a circuit breaker.
type HTTPService struct {
	cfg     *config.Configuration
	client  httpclient.Client
	limiter *ratelimit.Limiter
	logger  *logger.Logger
	breaker *gobreaker.CircuitBreaker
	faults  FaultInjector
}

func NewHTTPService(
	cfg *config.Configuration,
	client httpclient.Client,
	limiter *ratelimit.Limiter,
	log *logger.Logger,
	faults FaultInjector,
) *HTTPService {
	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    time.Duration(cfg.CircuitBreaker.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.CircuitBreaker.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CircuitBreaker.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnw("payment circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &HTTPService{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		logger:  log,
		breaker: gobreaker.NewCircuitBreaker(settings),
		faults:  faults,
	}
}

// Bill charges one invoice. Gateway-level failures come back as a failed
// Result rather than an error so the caller can record and classify them.
func (s *HTTPService) Bill(ctx context.Context, params *BillParams) (Result, error) {
	if !s.limiter.AllowPayment() {
		return Failed("RATE_LIMIT_EXCEEDED: payment call budget exhausted"), nil
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.billOnce(ctx, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Failed(fmt.Sprintf("CIRCUIT_BREAKER_OPEN: %s", err.Error())), nil
		}
		return Failed(failureReasonFromErr(err)), nil
	}

	return out.(Result), nil
}

func (s *HTTPService) billOnce(ctx context.Context, params *BillParams) (Result, error) {
	var validateResp struct {
		Valid bool `json:"valid"`
	}
	err := s.callWithRetry(ctx, callValidateMethod, s.cfg.Payment.ValidateMethodPath, map[string]any{
		"clientRoleId":          params.ClientRoleID,
		"clientPaymentMethodId": params.ClientPaymentMethodID,
	}, &validateResp)
	if err != nil {
		return Result{}, err
	}
	if !validateResp.Valid {
		return Failed("VALIDATE_METHOD_INVALID: valid=false"), nil
	}

	var intentResp struct {
		IntentID        string `json:"intentId"`
		RazorpayOrderID string `json:"razorpayOrderId"`
	}
	err = s.callWithRetry(ctx, callCreateIntent, s.cfg.Payment.CreateIntentPath, map[string]any{
		"clientRoleId":          params.ClientRoleID,
		"invoiceId":             params.InvoiceID,
		"clientPaymentMethodId": params.ClientPaymentMethodID,
		"amountMinor":           params.AmountMinor,
		"currency":              params.Currency,
		"paymentTypeCode":       params.PaymentTypeCode,
	}, &intentResp)
	if err != nil {
		return Result{}, err
	}
	if intentResp.IntentID == "" || intentResp.RazorpayOrderID == "" {
		return Failed("CREATE_INTENT_FAILED: missing intentId or razorpayOrderId"), nil
	}

	var chargeResp struct {
		Status                     string `json:"status"`
		RazorpayOrderID            string `json:"razorpayOrderId"`
		ClientPaymentTransactionID string `json:"clientPaymentTransactionId"`
	}
	err = s.callWithRetry(ctx, callChargeAtWill, s.cfg.Payment.ChargeAtWillPath, map[string]any{
		"intentId":              intentResp.IntentID,
		"invoiceId":             params.InvoiceID,
		"clientRoleId":          params.ClientRoleID,
		"clientPaymentMethodId": params.ClientPaymentMethodID,
		"paymentTypeCode":       params.PaymentTypeCode,
		"runMode":               types.RunModeLive.String(),
		"actorId":               params.ActorID,
	}, &chargeResp)
	if err != nil {
		return Result{}, err
	}

	withIDs := func(result Result) Result {
		result.IntentID = intentResp.IntentID
		result.TransactionID = chargeResp.ClientPaymentTransactionID
		return result
	}

	status := types.GatewayStatus(chargeResp.Status)
	switch {
	case status == types.GatewayStatusFailed:
		return withIDs(Failed("PAYMENT_FAILED")), nil
	case status.IsPending():
		return withIDs(PendingCapture()), nil
	case status == types.GatewayStatusCaptured:
		if chargeResp.ClientPaymentTransactionID == "" {
			return withIDs(Failed("CHARGE_AT_WILL_FAILED: missing clientPaymentTransactionId")), nil
		}
		return withIDs(Successful(fmt.Sprintf("RZP_ORDER:%s", chargeResp.RazorpayOrderID))), nil
	default:
		// Fail closed on statuses this pipeline does not understand
		return withIDs(Failed(fmt.Sprintf("UNSUPPORTED_STATUS:%s", chargeResp.Status))), nil
	}
}

// callWithRetry posts JSON to one gateway endpoint, retrying transient
// failures with exponential backoff. Client errors (4xx) are terminal.
func (s *HTTPService) callWithRetry(ctx context.Context, call, path string, payload any, out any) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.Retry.InitialInterval()
	bo.Multiplier = s.cfg.Retry.BackoffMultiplier
	bo.MaxInterval = s.cfg.Retry.MaxInterval()
	if s.cfg.Retry.RandomizationFactor > 0 {
		bo.RandomizationFactor = s.cfg.Retry.RandomizationFactor
	}

	attempt := 0
	operation := func() error {
		attempt++
		if err := s.faults.BeforeCall(ctx, call, attempt); err != nil {
			return err
		}

		err := s.postJSON(ctx, path, payload, out)
		if err == nil {
			return nil
		}

		if httpErr, ok := httpclient.IsHTTPError(err); ok && !httpErr.IsRetryable() {
			return backoff.Permanent(err)
		}

		s.logger.Warnw("payment gateway call failed, will retry",
			"call", call,
			"attempt", attempt,
			"error", err,
		)
		return err
	}

	retries := uint64(s.cfg.Retry.MaxAttempts - 1)
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx))
}

func (s *HTTPService) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode gateway request").
			Mark(ierr.ErrSystem)
	}

	resp, err := s.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    s.cfg.Payment.BaseURL + path,
		Body:   body,
	})
	if err != nil {
		return err
	}

	if len(resp.Body) == 0 {
		return ierr.NewError("empty response body from payment gateway").
			Mark(ierr.ErrHTTPClient)
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to decode gateway response").
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}

func failureReasonFromErr(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("TIMEOUT: %s", err.Error())
	}
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		return fmt.Sprintf("HTTP_ERROR_%d: %s", httpErr.StatusCode, httpErr.Error())
	}
	return fmt.Sprintf("REST_CLIENT_ERROR: %s", err.Error())
}
