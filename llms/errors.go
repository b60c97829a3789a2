package llms

import (
	"context"

	"github.com/openlinkos/agent/agenterr"
)

func newIdleTimeoutError() error {
	return agenterr.NewTimeoutError("stream idle for 30s with no chunk", nil)
}

// newAbortOrCause converts a cancelled context into an AbortError, preferring
// the context's own cause when one was supplied via context.WithCancelCause.
func newAbortOrCause(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil && cause != context.Canceled {
		return agenterr.NewAbortError(cause.Error())
	}
	return agenterr.NewAbortError("request was aborted")
}
