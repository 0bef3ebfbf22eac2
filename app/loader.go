package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/luizvinicius2219/planimport/domain/change"
	"github.com/luizvinicius2219/planimport/domain/core"
	"github.com/luizvinicius2219/planimport/domain/record"
	"github.com/luizvinicius2219/planimport/domain/schema"
	"github.com/luizvinicius2219/planimport/ports"
)

// maxBackoff caps the exponential schedule between attempts
const maxBackoff = 30 * time.Second

// RetryPolicy bounds how transient store faults are retried
type RetryPolicy struct {
	MaxRetries int           // additional attempts after the first
	Backoff    time.Duration // base delay, doubled per attempt up to maxBackoff
}

// Loader owns all store traffic: batched natural-key lookups and
// transactional batch application, both under the retry policy. In a dry
// run lookups still hit the store but nothing is written.
type Loader struct {
	store  ports.TargetStore
	policy RetryPolicy
	dryRun bool
	log    *slog.Logger
}

// NewLoader creates a loader over the target store
func NewLoader(store ports.TargetStore, policy RetryPolicy, dryRun bool, log *slog.Logger) *Loader {
	return &Loader{store: store, policy: policy, dryRun: dryRun, log: log}
}

// Fetch loads the stored rows matching the records' natural keys.
// Transient faults are retried; on exhaustion the error is fatal.
func (l *Loader) Fetch(ctx context.Context, table string, rule *schema.Table, recs []*record.NormalizedRecord) (ports.ExistingRows, error) {
	var existing ports.ExistingRows
	err := l.withRetry(ctx, table, func(ctx context.Context) error {
		rows, err := l.store.FetchExisting(ctx, table, rule, recs)
		if err != nil {
			return err
		}
		existing = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// Apply writes one batch of operations. Transient faults retry the whole
// batch; on exhaustion the error is fatal and the batch's rows are lost.
// Dry runs tally what would happen and touch nothing.
func (l *Loader) Apply(ctx context.Context, table string, rule *schema.Table, ops []change.Operation) (change.BatchResult, error) {
	if l.dryRun {
		var res change.BatchResult
		for _, op := range ops {
			switch op.Kind {
			case change.OpInsert:
				res.Inserted++
			case change.OpUpdate:
				res.Updated++
			case change.OpSkip:
				res.Skipped++
			}
		}
		return res, nil
	}

	var res change.BatchResult
	err := l.withRetry(ctx, table, func(ctx context.Context) error {
		r, err := l.store.ApplyBatch(ctx, table, rule, ops)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return change.BatchResult{}, err
	}
	return res, nil
}

// withRetry runs fn under the policy's capped exponential schedule.
// Only transient store faults retry; anything else returns immediately.
// A still-transient error after the last attempt comes back as a retry
// exhaustion error.
func (l *Loader) withRetry(ctx context.Context, table string, fn func(context.Context) error) error {
	backoff := retry.WithCappedDuration(maxBackoff, retry.NewExponential(l.policy.Backoff))
	backoff = retry.WithMaxRetries(uint64(l.policy.MaxRetries), backoff)

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := fn(ctx); err != nil {
			if core.IsTransientError(err) {
				l.log.Warn("transient store fault",
					"table", table, "attempt", attempts, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil && core.IsTransientError(err) {
		return core.NewExhaustionError(table, attempts, err)
	}
	return err
}
