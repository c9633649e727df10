package callbridge

import (
	"context"

	"collections_console/platform/apperr"
)

// ErrCapabilityDenied is returned when the local audio capability is
// not granted. The call attempt is aborted and the agent must be told
// that live calling requires it.
var ErrCapabilityDenied = apperr.Forbidden("audio capability denied")

// CapabilityProvider acquires the local audio capability for the
// duration of a call. Acquire returns a release function that must be
// called exactly once when the call ends, on every exit path.
type CapabilityProvider interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// CapabilityFunc adapts a function to the CapabilityProvider interface.
type CapabilityFunc func(ctx context.Context) (func(), error)

// Acquire calls the underlying function.
func (f CapabilityFunc) Acquire(ctx context.Context) (func(), error) {
	return f(ctx)
}

// StaticCapability grants or denies unconditionally. The console host
// either owns an audio device or it does not; the interesting grant
// logic lives on the other side of the UI boundary.
func StaticCapability(granted bool) CapabilityProvider {
	return CapabilityFunc(func(ctx context.Context) (func(), error) {
		if !granted {
			return nil, ErrCapabilityDenied
		}
		return func() {}, nil
	})
}
