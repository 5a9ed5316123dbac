// Package retry drains the rate-limit queue in bounded recheck rounds.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/vietddude/rankcheck/internal/checking/metrics"
	"github.com/vietddude/rankcheck/internal/checking/report"
	"github.com/vietddude/rankcheck/internal/core/domain"
	"github.com/vietddude/rankcheck/internal/infra/storage"
)

// ExhaustedReason is recorded for entries still rate limited after the last round.
const ExhaustedReason = "Still rate limited after retries"

var errQueueNotEmpty = errors.New("retry queue not empty")

// Config bounds the recheck rounds.
type Config struct {
	MaxRounds    int
	RecheckDelay time.Duration
	RoundDelay   time.Duration
	// RoundTimeout caps one round; entries not reached in time move to the
	// next round. Zero means unbounded.
	RoundTimeout time.Duration
}

// CheckFunc rechecks one entry. A RateLimited outcome sends it back to the queue.
type CheckFunc func(ctx context.Context, entry domain.CheckEntry) (domain.Outcome, error)

// ExhaustFunc terminally records an entry that ran out of rounds.
type ExhaustFunc func(ctx context.Context, entry domain.CheckEntry) error

// Result summarizes a drain.
type Result struct {
	Rounds    int
	Rechecked int
	Requeued  int
	Exhausted int
}

// Drainer runs recheck rounds over a RetryQueueRepository.
type Drainer struct {
	queue   storage.RetryQueueRepository
	cfg     Config
	sleep   Sleeper
	console *report.Console
	observe func(depth int)
	log     *slog.Logger
}

// Option configures a Drainer.
type Option func(*Drainer)

// WithSleeper replaces the wall-clock pause between rechecks.
func WithSleeper(s Sleeper) Option {
	return func(d *Drainer) { d.sleep = s }
}

// WithConsole prints round progress to c.
func WithConsole(c *report.Console) Option {
	return func(d *Drainer) { d.console = c }
}

// WithDepthObserver is called whenever the queue depth changes.
func WithDepthObserver(fn func(depth int)) Option {
	return func(d *Drainer) { d.observe = fn }
}

// NewDrainer creates a Drainer.
func NewDrainer(queue storage.RetryQueueRepository, cfg Config, opts ...Option) *Drainer {
	d := &Drainer{
		queue:   queue,
		cfg:     cfg,
		sleep:   Sleep,
		console: report.NewConsole(io.Discard),
		log:     slog.Default().With("component", "retry"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run drains the queue. Each round takes the whole batch, rechecks it and
// lets rate-limited entries fall into the next round. Entries left after
// MaxRounds are marked exhausted and handed to exhaust.
func (d *Drainer) Run(ctx context.Context, check CheckFunc, exhaust ExhaustFunc) (Result, error) {
	var res Result

	pending, err := d.queue.Len(ctx)
	if err != nil {
		return res, err
	}
	if pending == 0 {
		return res, nil
	}

	d.console.Heading(fmt.Sprintf("RECHECKING %d RATE LIMITED ACCOUNTS", pending))

	if d.cfg.MaxRounds > 0 {
		backoff := goretry.WithMaxRetries(uint64(d.cfg.MaxRounds-1), d.backoff())
		err = goretry.Do(ctx, backoff, func(ctx context.Context) error {
			res.Rounds++
			if err := d.runRound(ctx, res.Rounds, check, &res); err != nil {
				return err
			}

			left, err := d.queue.Len(ctx)
			if err != nil {
				return err
			}
			d.setDepth(left)
			if left == 0 {
				return nil
			}
			if res.Rounds < d.cfg.MaxRounds {
				d.console.Line("\nStill %d accounts rate limited. Waiting %s...", left, d.cfg.RoundDelay)
			}
			return goretry.RetryableError(errQueueNotEmpty)
		})
		if err != nil && !errors.Is(err, errQueueNotEmpty) {
			return res, err
		}
	}

	return res, d.exhaust(ctx, exhaust, &res)
}

func (d *Drainer) backoff() goretry.Backoff {
	if d.cfg.RoundDelay > 0 {
		return goretry.NewConstant(d.cfg.RoundDelay)
	}
	return goretry.BackoffFunc(func() (time.Duration, bool) {
		return 0, false
	})
}

func (d *Drainer) runRound(ctx context.Context, round int, check CheckFunc, res *Result) error {
	batch, err := d.queue.Drain(ctx)
	if err != nil {
		return fmt.Errorf("drain retry queue: %w", err)
	}
	d.setDepth(0)
	metrics.RetryRoundsTotal.Inc()

	d.console.Line("\n--- RETRY ATTEMPT %d ---", round)
	d.log.Debug("Starting recheck round", "round", round, "entries", len(batch))

	// The deadline is checked between entries so an in-flight lookup is
	// never cut off and misreported as a timeout.
	deadline := time.Time{}
	if d.cfg.RoundTimeout > 0 {
		deadline = time.Now().Add(d.cfg.RoundTimeout)
	}

	for i, re := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			d.log.Warn("Round deadline reached, deferring remaining entries",
				"round", round, "deferred", len(batch)-i)
			for _, rest := range batch[i:] {
				if err := d.queue.Requeue(ctx, rest, "round deadline exceeded"); err != nil {
					return err
				}
				res.Requeued++
			}
			break
		}

		re.Status = domain.RetryStatusInRetry
		re.Round = round
		d.console.Progress(i+1, len(batch), "Rechecking", re.Entry.Username)

		out, err := check(ctx, re.Entry)
		if err != nil {
			return err
		}
		if out.RateLimited {
			if err := d.queue.Requeue(ctx, re, out.Reason); err != nil {
				return err
			}
			res.Requeued++
		} else {
			res.Rechecked++
		}

		if err := d.sleep(ctx, d.cfg.RecheckDelay); err != nil {
			return err
		}
	}
	return nil
}

func (d *Drainer) exhaust(ctx context.Context, exhaust ExhaustFunc, res *Result) error {
	left, err := d.queue.Drain(ctx)
	if err != nil {
		return fmt.Errorf("drain retry queue: %w", err)
	}
	d.setDepth(0)
	if len(left) == 0 {
		return nil
	}

	d.console.Line("\n%d accounts still rate limited after retries - marking as failed", len(left))
	for _, re := range left {
		if err := d.queue.MarkExhausted(ctx, re); err != nil {
			d.log.Error("Failed to mark entry exhausted", "username", re.Entry.Username, "error", err)
		}
		if err := exhaust(ctx, re.Entry); err != nil {
			return err
		}
		res.Exhausted++
	}
	return nil
}

func (d *Drainer) setDepth(n int) {
	metrics.RetryQueueDepth.Set(float64(n))
	if d.observe != nil {
		d.observe(n)
	}
}
