package ingest

import (
	"context"
	"errors"

	"github.com/sethvargo/go-retry"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
)

// call runs fn under a per-call deadline with bounded exponential retry. Errors that
// cannot succeed on a second attempt are returned immediately.
func (p *Pipeline) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	backoff := retry.NewExponential(p.opts.RetryBackoff)
	backoff = retry.WithCappedDuration(p.opts.RetryMaxBackoff, backoff)
	backoff = retry.WithMaxRetries(uint64(p.opts.RetryAttempts-1), backoff)
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			knowledge.RecordRetry(ctx, operation)
		}
		attempt++
		callCtx := ctx
		if p.opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.opts.CallTimeout)
			defer cancel()
		}
		err := fn(callCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || permanent(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func permanent(err error) bool {
	return errors.Is(err, knowledge.ErrOrphanUnit) ||
		errors.Is(err, knowledge.ErrDimensionMismatch) ||
		errors.Is(err, knowledge.ErrEmptyText) ||
		errors.Is(err, context.Canceled)
}
