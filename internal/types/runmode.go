package types

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// RunMode represents the mode a billing run executes in
type RunMode string

const (
	// RunModeMock evaluates due invoices without touching the payment gateway
	RunModeMock RunMode = "MOCK"
	// RunModeLive attempts real payment capture for every eligible invoice
	RunModeLive RunMode = "LIVE"
)

func (m RunMode) String() string {
	return string(m)
}

func (m RunMode) Validate() error {
	allowed := []RunMode{
		RunModeMock,
		RunModeLive,
	}
	if !lo.Contains(allowed, m) {
		return fmt.Errorf("invalid run mode: %s", m)
	}
	return nil
}

// ParseRunMode parses a run mode string case-insensitively, defaulting to MOCK
// for an empty input
func ParseRunMode(s string) (RunMode, error) {
	if strings.TrimSpace(s) == "" {
		return RunModeMock, nil
	}
	m := RunMode(strings.ToUpper(strings.TrimSpace(s)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// BillingRunStatus represents the lifecycle status of a billing run
type BillingRunStatus string

const (
	BillingRunStatusRunning   BillingRunStatus = "RUNNING"
	BillingRunStatusCompleted BillingRunStatus = "COMPLETED"
	BillingRunStatusFailed    BillingRunStatus = "FAILED"
)

func (s BillingRunStatus) String() string {
	return string(s)
}

func (s BillingRunStatus) Validate() error {
	allowed := []BillingRunStatus{
		BillingRunStatusRunning,
		BillingRunStatusCompleted,
		BillingRunStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid billing run status: %s", s)
	}
	return nil
}

// IsTerminal returns true once a run can no longer change status
func (s BillingRunStatus) IsTerminal() bool {
	return s == BillingRunStatusCompleted || s == BillingRunStatusFailed
}
