package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// DefaultMaxAttempts is the number of tries a write gets before ErrMaxRetriesExceeded.
const DefaultMaxAttempts = 3

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// WriteExecutor runs single document writes, absorbing throttling by waiting
// for the backend's retry-after hint. Any other failure is returned unchanged
// on the first attempt.
type WriteExecutor struct {
	maxAttempts int
	wait        WaitFunc
	logger      zerolog.Logger
}

// ExecutorOption customises a WriteExecutor.
type ExecutorOption func(*WriteExecutor)

// WithMaxAttempts sets the retry budget per write. Values below 1 are ignored.
func WithMaxAttempts(n int) ExecutorOption {
	return func(e *WriteExecutor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithWaitFunc replaces the timer used between attempts.
func WithWaitFunc(wait WaitFunc) ExecutorOption {
	return func(e *WriteExecutor) {
		if wait != nil {
			e.wait = wait
		}
	}
}

// NewWriteExecutor creates a WriteExecutor with DefaultMaxAttempts.
func NewWriteExecutor(logger zerolog.Logger, opts ...ExecutorOption) *WriteExecutor {
	e := &WriteExecutor{
		maxAttempts: DefaultMaxAttempts,
		wait:        waitContext,
		logger:      logger.With().Str("component", "WriteExecutor").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Insert creates item in the collection.
func (e *WriteExecutor) Insert(ctx context.Context, client DocumentClient, link CollectionLink, item ViewModel) error {
	id := item.DocumentID()
	return e.Do(ctx, "inserting", id, func(ctx context.Context) error {
		return client.CreateDocument(ctx, link, id, item)
	})
}

// Replace overwrites an existing item in the collection.
func (e *WriteExecutor) Replace(ctx context.Context, client DocumentClient, link CollectionLink, item ViewModel) error {
	id := item.DocumentID()
	return e.Do(ctx, "replacing", id, func(ctx context.Context) error {
		return client.ReplaceDocument(ctx, link, id, item)
	})
}

// Delete removes an item from the collection.
func (e *WriteExecutor) Delete(ctx context.Context, client DocumentClient, link CollectionLink, id string) error {
	return e.Do(ctx, "deleting", id, func(ctx context.Context) error {
		return client.DeleteDocument(ctx, link, id)
	})
}

// Do runs op until it succeeds, fails with a non-throttling error, or the
// retry budget is spent. verb and id only label log lines and errors.
func (e *WriteExecutor) Do(ctx context.Context, verb, id string, op func(context.Context) error) error {
	fallback := newFallbackBackOff()
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		delay, throttled := ThrottleDelay(err)
		if !throttled {
			e.logger.Error().Err(err).Int("status_code", StatusCode(err)).Str("document_id", id).Msgf("Failed %s document", verb)
			return err
		}
		lastErr = err
		if attempt == e.maxAttempts {
			break
		}

		if delay <= 0 {
			delay = fallback.NextBackOff()
		}
		e.logger.Warn().Int("attempt", attempt).Dur("retry_after", delay).Str("document_id", id).Msgf("429 throttled %s document", verb)
		if err := e.wait(ctx, delay); err != nil {
			return fmt.Errorf("waiting to retry %s document '%s': %w", verb, id, err)
		}
	}

	e.logger.Error().Int("attempts", e.maxAttempts).Str("document_id", id).Msgf("Maximum retries exceeded %s document", verb)
	return fmt.Errorf("%w %s document '%s' after %d attempts, last error: %v", ErrMaxRetriesExceeded, verb, id, e.maxAttempts, lastErr)
}

// newFallbackBackOff paces retries when a throttled response carries no hint.
func newFallbackBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func waitContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
