package types

import (
	"fmt"

	"github.com/samber/lo"
)

// BillingStatus is the history status code written for every processed
// invoice. The codes form a closed set resolved against the
// lu_billing_status lookup table at write time.
type BillingStatus string

const (
	// Mock mode outcomes
	BillingStatusMockEvaluated          BillingStatus = "MOCK_EVALUATED"
	BillingStatusMockSkippedNotEligible BillingStatus = "MOCK_SKIPPED_NOT_ELIGIBLE"
	BillingStatusMockError              BillingStatus = "MOCK_ERROR"

	// Live mode outcomes
	BillingStatusLiveFinalized          BillingStatus = "LIVE_FINALIZED"
	BillingStatusLivePaymentFailed      BillingStatus = "LIVE_PAYMENT_FAILED"
	BillingStatusLiveSkippedNotEligible BillingStatus = "LIVE_SKIPPED_NOT_ELIGIBLE"
	BillingStatusLiveError              BillingStatus = "LIVE_ERROR"

	// Async capture flow: authorized at the gateway, capture confirmation
	// arrives later via webhook
	BillingStatusPendingCapture BillingStatus = "PENDING_CAPTURE"
)

func (s BillingStatus) String() string {
	return string(s)
}

func (s BillingStatus) Validate() error {
	allowed := []BillingStatus{
		BillingStatusMockEvaluated,
		BillingStatusMockSkippedNotEligible,
		BillingStatusMockError,
		BillingStatusLiveFinalized,
		BillingStatusLivePaymentFailed,
		BillingStatusLiveSkippedNotEligible,
		BillingStatusLiveError,
		BillingStatusPendingCapture,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid billing status: %s", s)
	}
	return nil
}

// SkippedNotEligibleStatus returns the not-eligible status for the given mode
func SkippedNotEligibleStatus(mode RunMode) BillingStatus {
	if mode == RunModeMock {
		return BillingStatusMockSkippedNotEligible
	}
	return BillingStatusLiveSkippedNotEligible
}

// ErrorStatus returns the error status for the given mode
func ErrorStatus(mode RunMode) BillingStatus {
	if mode == RunModeMock {
		return BillingStatusMockError
	}
	return BillingStatusLiveError
}
