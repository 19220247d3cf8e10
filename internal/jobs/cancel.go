package jobs

import (
	"context"
	"sync"
)

// CancellationToken is the shared flag for one interactively triggered job.
// Cancel records the reason and cancels the run's context, so in-flight
// collaborator calls receive the signal instead of running to completion.
// The externally observable job state is reset by the owner immediately;
// the token itself is only consulted cooperatively.
type CancellationToken struct {
	mu        sync.Mutex
	cancelled bool
	reason    string
	cancel    context.CancelFunc
}

// NewCancellationToken wraps the run context's cancel function
func NewCancellationToken(cancel context.CancelFunc) *CancellationToken {
	return &CancellationToken{cancel: cancel}
}

// Cancel requests cancellation with a reason. Idempotent; only the first
// reason is kept.
func (t *CancellationToken) Cancel(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled {
		return
	}
	t.cancelled = true
	t.reason = reason
	if t.cancel != nil {
		t.cancel()
	}
}

// IsCancelled reports whether cancellation has been requested
func (t *CancellationToken) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Reason returns the recorded cancellation reason, empty if not cancelled
func (t *CancellationToken) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}
