package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/vietddude/rankcheck/internal/checking/checker"
	"github.com/vietddude/rankcheck/internal/checking/health"
	"github.com/vietddude/rankcheck/internal/checking/report"
	"github.com/vietddude/rankcheck/internal/checking/retry"
	"github.com/vietddude/rankcheck/internal/checking/sorter"
	"github.com/vietddude/rankcheck/internal/checking/source"
	"github.com/vietddude/rankcheck/internal/core/config"
	"github.com/vietddude/rankcheck/internal/core/domain"
	"github.com/vietddude/rankcheck/internal/infra/hypixel"
	"github.com/vietddude/rankcheck/internal/infra/mojang"
	redisclient "github.com/vietddude/rankcheck/internal/infra/redis"
	"github.com/vietddude/rankcheck/internal/infra/rpc/provider"
	"github.com/vietddude/rankcheck/internal/infra/storage"
	"github.com/vietddude/rankcheck/internal/infra/storage/memory"
	"github.com/vietddude/rankcheck/internal/infra/storage/postgres"
)

const lockFile = ".rankcheck.lock"

// ErrLocked is returned when another run holds the results directory.
var ErrLocked = errors.New("results directory is locked by another run")

// Config holds the application configuration.
type Config struct {
	App    *config.AppConfig
	Stdout io.Writer
	// Sleep replaces the wall clock for every pause; nil uses retry.Sleep.
	Sleep retry.Sleeper
}

// RankCheck wires the checker pipeline for one run.
type RankCheck struct {
	cfg     *config.AppConfig
	runID   uuid.UUID
	lock    *flock.Flock
	mojang  *mojang.Client
	hypixel *hypixel.Client
	queue   storage.RetryQueueRepository
	results storage.ResultRepository
	agg     *report.Aggregator
	console *report.Console
	sorter  *sorter.Sorter
	checker *checker.Checker
	drainer *retry.Drainer
	sleep   retry.Sleeper

	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	redisQueue   *redisclient.RetryQueueRepo
	log          *slog.Logger
}

// NewRankCheck creates a RankCheck instance with all dependencies initialized.
func NewRankCheck(ctx context.Context, cfg Config) (*RankCheck, error) {
	app := cfg.App
	rc := &RankCheck{
		cfg:   app,
		runID: uuid.New(),
		lock:  flock.New(filepath.Join(app.Paths.ResultsDir, lockFile)),
		sleep: cfg.Sleep,
		log:   slog.Default().With("component", "rankcheck"),
	}
	if rc.sleep == nil {
		rc.sleep = retry.Sleep
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	// 1. Initialize Storage
	store := memory.NewMemoryStorage()
	rc.results = memory.NewResultRepo(store)
	rc.queue = memory.NewRetryQueueRepo(store)

	if app.Database.URL != "" {
		db, err := postgres.NewDB(ctx, app.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		rc.db = db
		if err := db.Migrate(ctx); err != nil {
			rc.Close()
			return nil, err
		}
		rc.results = postgres.NewResultRepo(db)
		rc.log.Info("Using PostgreSQL results ledger", "driver", app.Database.Driver)
	}

	if app.RetryQueue.Backend == config.BackendRedis {
		client, err := redisclient.NewClient(app.RetryQueue.Redis)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		rc.redisClient = client
		rc.redisQueue = redisclient.NewRetryQueueRepo(client, rc.runID.String())
		rc.queue = rc.redisQueue
		rc.log.Info("Using Redis retry queue")
	}

	// 2. Initialize upstream clients
	rc.mojang = mojang.New(app.Mojang.BaseURL, app.Mojang.Timeout)
	rc.hypixel = hypixel.New(app.Hypixel.BaseURL, app.Hypixel.APIKey, app.Hypixel.Timeout)
	if app.Hypixel.APIKey == "" {
		rc.log.Warn("No Hypixel API key configured, profile lookups will be rejected")
	}

	// 3. Initialize sinks and pipeline
	rc.agg = report.NewAggregator()
	rc.console = report.NewConsole(stdout)
	rc.sorter = sorter.New(app.Paths.SourceDir, app.Paths.ResultsDir)

	rc.checker = checker.New(checker.Config{
		RunID:          rc.runID,
		RateLimitPause: app.Pacing.RateLimitPause,
	}, checker.Deps{
		Resolver: rc.mojang,
		Fetcher:  rc.hypixel,
		Queue:    rc.queue,
		Results:  rc.results,
		Agg:      rc.agg,
		Sorter:   rc.sorter,
		Console:  rc.console,
		Sleep:    rc.sleep,
	})

	rc.drainer = retry.NewDrainer(rc.queue, retry.Config{
		MaxRounds:    app.Pacing.MaxRounds,
		RecheckDelay: app.Pacing.RecheckDelay,
		RoundDelay:   app.Pacing.RoundDelay,
		RoundTimeout: app.Pacing.RoundTimeout,
	},
		retry.WithSleeper(rc.sleep),
		retry.WithConsole(rc.console),
		retry.WithDepthObserver(rc.agg.SetQueued),
	)

	// 4. Optional metrics listener
	if app.Metrics.Addr != "" {
		rc.healthServer = health.NewServer(
			app.Metrics.Addr,
			[]provider.Provider{rc.mojang.Provider(), rc.hypixel.Provider()},
			rc.agg.Registry(),
		)
	}

	return rc, nil
}

// RunID identifies this run in the ledger and the retry queue keys.
func (rc *RankCheck) RunID() uuid.UUID {
	return rc.runID
}

// Run checks every entry in the source directory, drains the retry queue
// and prints the final summary. Cancellation stops the checks early but
// still prints what was gathered; only setup failures are returned.
func (rc *RankCheck) Run(ctx context.Context) (report.Summary, error) {
	paths := rc.cfg.Paths

	if err := rc.sorter.EnsureRoot(); err != nil {
		return report.Summary{}, fmt.Errorf("create results dir: %w", err)
	}

	locked, err := rc.lock.TryLock()
	if err != nil {
		return report.Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return report.Summary{}, fmt.Errorf("%w: %s", ErrLocked, rc.lock.Path())
	}
	defer func() {
		if err := rc.lock.Unlock(); err != nil {
			rc.log.Warn("Failed to release lock", "error", err)
		}
	}()

	entries, err := source.Scan(paths.SourceDir)
	if errors.Is(err, source.ErrSourceMissing) {
		rc.console.Line("Error: Folder '%s' not found!", paths.SourceDir)
		return report.Summary{}, err
	}
	if err != nil {
		return report.Summary{}, err
	}
	if len(entries) == 0 {
		rc.console.Line("No .txt files found in the %s folder!", paths.SourceDir)
		return rc.agg.Snapshot(), nil
	}

	rc.startBackground(ctx)
	defer rc.stopBackground()

	rc.log.Info("Run started", "run_id", rc.runID, "entries", len(entries))
	rc.console.Line("Found %d accounts to check\n", len(entries))
	rc.console.Line("Starting checks...\n")

	start := time.Now()
	if err := rc.primaryPass(ctx, entries); err != nil {
		rc.log.Warn("Primary pass interrupted", "error", err)
	} else {
		res, err := rc.drainer.Run(ctx, func(ctx context.Context, e domain.CheckEntry) (domain.Outcome, error) {
			return rc.checker.Check(ctx, e, true)
		}, rc.checker.Exhaust)
		if err != nil {
			rc.log.Warn("Recheck interrupted", "error", err)
		}
		if res.Rounds > 0 {
			rc.log.Info("Retry queue drained",
				"rounds", res.Rounds,
				"rechecked", res.Rechecked,
				"exhausted", res.Exhausted,
			)
		}
	}

	summary := rc.agg.Snapshot()
	rc.printFinal(summary)
	rc.logLedger(ctx)
	rc.releaseQueue(ctx)
	rc.log.Info("Run finished", "run_id", rc.runID, "checked", summary.Checked, "elapsed", time.Since(start).Round(time.Millisecond))
	return summary, nil
}

func (rc *RankCheck) primaryPass(ctx context.Context, entries []domain.CheckEntry) error {
	every := rc.cfg.Pacing.SummaryEvery
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		rc.console.Progress(i+1, len(entries), "Checking", entry.Username)
		if _, err := rc.checker.Check(ctx, entry, false); err != nil {
			return err
		}

		if every > 0 && (i+1)%every == 0 {
			rc.console.Summary(rc.agg.Snapshot())
		}

		if err := rc.sleep(ctx, rc.cfg.Pacing.CheckDelay); err != nil {
			return err
		}
	}
	return nil
}

func (rc *RankCheck) printFinal(summary report.Summary) {
	rc.console.Heading("FINAL RESULTS")
	rc.console.Summary(summary)
	rc.console.Line("\nFiles have been organized into the '%s' folder!", rc.sorter.ResultsDir())
	rc.console.Line("\nFolder structure:")
	rc.console.Line("  - Rank folders: VIP, VIP_PLUS, MVP, MVP_PLUS, MVP_PLUS_PLUS, None")
	rc.console.Line("  - Error folders: Failed_Lookup, No_Profile")
	rc.console.Line("\nEach account is copied to its rank folder for easy organization!")
}

func (rc *RankCheck) logLedger(ctx context.Context) {
	// Read even after the run was cancelled.
	readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	counts, err := rc.results.CountByCategory(readCtx, rc.runID)
	if err != nil {
		rc.log.Warn("Failed to read results ledger", "error", err)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	rc.log.Debug("Results ledger", "run_id", rc.runID, "rows", total, "categories", len(counts))
}

// releaseQueue logs the entries that ran out of rounds and drops the run's
// redis keys.
func (rc *RankCheck) releaseQueue(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	exhausted, err := rc.queue.Exhausted(ctx)
	if err != nil {
		rc.log.Warn("Failed to read exhausted entries", "error", err)
	}
	for _, re := range exhausted {
		rc.log.Info("Gave up on rate-limited entry",
			"username", re.Entry.Username,
			"round", re.Round,
			"last_error", re.LastError,
		)
	}

	if rc.redisQueue != nil {
		if err := rc.redisQueue.Clear(ctx); err != nil {
			rc.log.Warn("Failed to clear retry queue", "error", err)
		}
	}
}

func (rc *RankCheck) startBackground(ctx context.Context) {
	if rc.db != nil {
		rc.db.StartMetricsCollector(ctx)
	}
	if rc.healthServer != nil {
		go func() {
			if err := rc.healthServer.Start(); err != nil {
				rc.log.Error("Metrics server failed", "error", err)
			}
		}()
		rc.log.Info("Metrics server started", "addr", rc.cfg.Metrics.Addr)
	}
}

func (rc *RankCheck) stopBackground() {
	if rc.healthServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.healthServer.Stop(ctx); err != nil {
		rc.log.Error("Failed to stop metrics server", "error", err)
	}
}

// Close releases connections.
func (rc *RankCheck) Close() {
	if rc.mojang != nil {
		_ = rc.mojang.Provider().Close()
	}
	if rc.hypixel != nil {
		_ = rc.hypixel.Provider().Close()
	}
	if rc.redisClient != nil {
		if err := rc.redisClient.Close(); err != nil {
			rc.log.Error("Failed to close redis", "error", err)
		}
	}
	if rc.db != nil {
		if err := rc.db.Close(); err != nil {
			rc.log.Error("Failed to close database", "error", err)
		}
	}
}
