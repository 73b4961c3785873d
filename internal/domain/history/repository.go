package history

import (
	"context"

	"github.com/billforge/billforge/internal/types"
)

// Repository provides access to billing run history
type Repository interface {
	// ResolveStatusID maps a billing status code to its lookup row ID.
	// An unknown code is a configuration fault and fails the run.
	ResolveStatusID(ctx context.Context, code types.BillingStatus) (int64, error)

	// Exists reports whether a record was already written for this run
	// and invoice
	Exists(ctx context.Context, runID, invoiceID string) (bool, error)

	// HasFinalized reports whether any live run has finalized this invoice
	HasFinalized(ctx context.Context, invoiceID string) (bool, error)

	Create(ctx context.Context, record *Record) error

	// CountsByStatus returns record counts per status code for a run
	CountsByStatus(ctx context.Context, runID string) (map[types.BillingStatus]int, error)

	// ListByRun returns the most recent records for a run, newest first
	ListByRun(ctx context.Context, runID string, limit int) ([]*Record, error)
}
