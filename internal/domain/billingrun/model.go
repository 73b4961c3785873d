package billingrun

import (
	"time"

	"github.com/billforge/billforge/internal/types"
)

// BillingRun is one execution of the recurring billing pipeline. A run is
// created RUNNING when triggered and moved to a terminal status exactly once.
type BillingRun struct {
	ID            string                 `db:"billing_run_id" json:"id"`
	RunMode       types.RunMode          `db:"run_mode" json:"run_mode"`
	AsOfDate      time.Time              `db:"as_of_date" json:"as_of_date"`
	Status        types.BillingRunStatus `db:"status" json:"status"`
	CorrelationID string                 `db:"correlation_id" json:"correlation_id"`
	SummaryJSON   *string                `db:"summary_json" json:"summary_json,omitempty"`
	StartedAt     time.Time              `db:"started_at" json:"started_at"`
	CompletedAt   *time.Time             `db:"completed_at" json:"completed_at,omitempty"`
}

// NewBillingRun creates a RUNNING run for the given trigger parameters
func NewBillingRun(mode types.RunMode, asOfDate time.Time, correlationID string) *BillingRun {
	return &BillingRun{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_RUN),
		RunMode:       mode,
		AsOfDate:      asOfDate,
		Status:        types.BillingRunStatusRunning,
		CorrelationID: correlationID,
		StartedAt:     time.Now().UTC(),
	}
}
