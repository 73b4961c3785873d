package billingrun

import (
	"context"

	"github.com/billforge/billforge/internal/types"
)

// Repository provides access to billing run state
type Repository interface {
	Create(ctx context.Context, run *BillingRun) error
	Get(ctx context.Context, id string) (*BillingRun, error)
	Complete(ctx context.Context, id string, status types.BillingRunStatus, summaryJSON string) error
}
