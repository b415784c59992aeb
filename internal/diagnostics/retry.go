package diagnostics

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const deliveryTimeout = 10 * time.Second

// notifyWithRetry delivers event to n, retrying transient failures with
// capped exponential backoff until ctx is done.
func notifyWithRetry(ctx context.Context, n Notifier, event Event) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = deliveryTimeout

	return backoff.Retry(func() error {
		return n.Notify(ctx, event)
	}, backoff.WithContext(b, ctx))
}
