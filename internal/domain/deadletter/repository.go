package deadletter

import "context"

// Repository provides access to the billing dead letter queue
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	// ListUnresolved returns unresolved entries, oldest first. An empty
	// billingRunID means all runs.
	ListUnresolved(ctx context.Context, billingRunID string, limit int) ([]*Entry, error)
	CountUnresolved(ctx context.Context) (int, error)
	MarkResolved(ctx context.Context, id, resolvedBy, notes string) error
	IncrementRetryCount(ctx context.Context, id string) error
}
