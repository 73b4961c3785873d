package payment

import "context"

// FaultInjector lets tests fail specific gateway calls on specific attempts
// without a live backend. The production injector never fires.
type FaultInjector interface {
	// BeforeCall returns a non-nil error to abort the named call
	// before it reaches the transport
	BeforeCall(ctx context.Context, call string, attempt int) error
}

type noFaults struct{}

func (noFaults) BeforeCall(ctx context.Context, call string, attempt int) error {
	return nil
}

// NoFaults returns the production injector
func NoFaults() FaultInjector {
	return noFaults{}
}
