// Package checker runs the lookup chain for one entry and routes the result.
package checker

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/rankcheck/internal/checking/classify"
	"github.com/vietddude/rankcheck/internal/checking/report"
	"github.com/vietddude/rankcheck/internal/checking/retry"
	"github.com/vietddude/rankcheck/internal/checking/sorter"
	"github.com/vietddude/rankcheck/internal/core/domain"
	"github.com/vietddude/rankcheck/internal/infra/hypixel"
	"github.com/vietddude/rankcheck/internal/infra/mojang"
	"github.com/vietddude/rankcheck/internal/infra/rpc/routing"
	"github.com/vietddude/rankcheck/internal/infra/storage"
)

const (
	reasonInvalidUsername = "Invalid username format"
	reasonUnsuccessful    = "API unsuccessful"
)

// Config holds the checker's pacing.
type Config struct {
	RunID          uuid.UUID
	RateLimitPause time.Duration
}

// Checker classifies entries and feeds every sink: aggregator, folders,
// ledger and retry queue.
type Checker struct {
	cfg      Config
	resolver mojang.Resolver
	fetcher  hypixel.Fetcher
	queue    storage.RetryQueueRepository
	results  storage.ResultRepository
	agg      *report.Aggregator
	sorter   *sorter.Sorter
	console  *report.Console
	sleep    retry.Sleeper
	now      func() time.Time
	log      *slog.Logger
}

// Deps are the collaborators a Checker writes to.
type Deps struct {
	Resolver mojang.Resolver
	Fetcher  hypixel.Fetcher
	Queue    storage.RetryQueueRepository
	Results  storage.ResultRepository
	Agg      *report.Aggregator
	Sorter   *sorter.Sorter
	Console  *report.Console
	Sleep    retry.Sleeper
}

// New creates a Checker. A nil Console discards output and a nil Sleep
// uses the wall clock.
func New(cfg Config, deps Deps) *Checker {
	c := &Checker{
		cfg:      cfg,
		resolver: deps.Resolver,
		fetcher:  deps.Fetcher,
		queue:    deps.Queue,
		results:  deps.Results,
		agg:      deps.Agg,
		sorter:   deps.Sorter,
		console:  deps.Console,
		sleep:    deps.Sleep,
		now:      time.Now,
		log:      slog.Default().With("component", "checker"),
	}
	if c.console == nil {
		c.console = report.NewConsole(io.Discard)
	}
	if c.sleep == nil {
		c.sleep = retry.Sleep
	}
	return c
}

// Check runs validate, resolve, history and fetch for one entry.
//
// The first rate limit short-circuits the entry: in the primary pass it is
// queued (once per key), on a recheck the caller requeues it. Either way the
// returned outcome has RateLimited set and nothing was counted or copied.
// The error is non-nil only when ctx ends.
func (c *Checker) Check(ctx context.Context, entry domain.CheckEntry, recheck bool) (domain.Outcome, error) {
	out, stage, err := c.evaluate(ctx, entry)
	if err != nil {
		return out, err
	}

	if out.RateLimited {
		return out, c.queueForRecheck(ctx, out, stage, recheck)
	}

	c.finish(ctx, out, recheck)
	return out, nil
}

// Exhaust forces an entry that never got past the rate limit into Failed_Lookup.
func (c *Checker) Exhaust(ctx context.Context, entry domain.CheckEntry) error {
	out := domain.Outcome{
		Entry:    entry,
		Category: domain.CategoryFailedLookup,
		Failure:  domain.FailureRateLimited,
		Reason:   retry.ExhaustedReason,
	}
	c.agg.Record(out, true)
	c.sorter.MustPlace(entry.File, out.Category)
	c.save(ctx, out, true)
	return ctx.Err()
}

func (c *Checker) evaluate(ctx context.Context, entry domain.CheckEntry) (domain.Outcome, string, error) {
	out := domain.Outcome{Entry: entry}

	if !mojang.ValidUsername(entry.Username) {
		out.Category = domain.CategoryInvalidUsername
		out.Reason = reasonInvalidUsername
		return out, "", nil
	}

	id, err := c.resolver.Resolve(ctx, entry.Username)
	if err != nil {
		return c.failed(out, report.StageResolve, err)
	}
	out.AccountID = mojang.Undashed(id.ID)
	out.CurrentName = id.Name

	history, err := c.resolver.NameHistory(ctx, id.ID)
	switch {
	case err == nil:
		if mojang.NameChanged(history, id.Name, entry.Username) {
			out.NameChanged = true
			c.console.NameChange(entry.Username, id.Name)
		}
	case routing.ClassifyError(err) == routing.ActionTerminal:
		// History only feeds the rename flag.
		c.log.Debug("Name history unavailable", "username", entry.Username, "error", err)
	default:
		return c.failed(out, report.StageNameHistory, err)
	}

	resp, err := c.fetcher.Player(ctx, id.ID)
	if err != nil {
		return c.failed(out, report.StageHypixel, err)
	}
	if !resp.Success {
		out.Category = domain.CategoryFailedLookup
		out.Failure = domain.FailureUnsuccessful
		out.Reason = reasonUnsuccessful
		if resp.Cause != "" {
			out.Reason = resp.Cause
		}
		return out, "", nil
	}
	if resp.Player == nil {
		out.Category = domain.CategoryNoProfile
		return out, "", nil
	}

	out.Category = classify.ResolveRank(resp.Player)
	out.Online = classify.IsOnline(resp.Player)
	out.LastLogin = classify.LastLogin(resp.Player)
	return out, "", nil
}

// failed maps a lookup error onto the outcome.
func (c *Checker) failed(out domain.Outcome, stage string, err error) (domain.Outcome, string, error) {
	out.Failure = routing.Kind(err)
	out.Reason = err.Error()

	switch routing.ClassifyError(err) {
	case routing.ActionAbort:
		return out, stage, err
	case routing.ActionRequeue:
		out.RateLimited = true
		return out, stage, nil
	}

	out.Category = domain.CategoryFailedLookup
	return out, stage, nil
}

func (c *Checker) queueForRecheck(ctx context.Context, out domain.Outcome, stage string, recheck bool) error {
	if !recheck {
		added, err := c.queue.Enqueue(ctx, out.Entry, out.Reason)
		if err != nil {
			c.log.Error("Failed to queue rate-limited entry", "username", out.Entry.Username, "error", err)
		}
		if added {
			if n, err := c.queue.Len(ctx); err == nil {
				c.agg.SetQueued(n)
			}
		}
	}

	c.log.Debug("Rate limited", "username", out.Entry.Username, "reason", out.Reason, "recheck", recheck)
	c.console.Queued(out.Entry.Username, stage, c.cfg.RateLimitPause)
	return c.sleep(ctx, c.cfg.RateLimitPause)
}

func (c *Checker) finish(ctx context.Context, out domain.Outcome, recheck bool) {
	c.agg.Record(out, recheck)

	copied := false
	// Invalid usernames are counted but their files stay where they are.
	if out.Category != domain.CategoryInvalidUsername {
		copied = c.sorter.MustPlace(out.Entry.File, out.Category)
	}
	c.console.Outcome(out, copied)
	c.save(ctx, out, recheck)
}

func (c *Checker) save(ctx context.Context, out domain.Outcome, recheck bool) {
	if c.results == nil {
		return
	}
	rec := domain.NewRunRecord(c.cfg.RunID, out, recheck, c.now())
	if err := c.results.Save(ctx, rec); err != nil {
		c.log.Warn("Failed to save result", "username", out.Entry.Username, "error", err)
	}
}
