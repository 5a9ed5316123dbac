// Package report aggregates classification results and renders the console
// summary.
package report

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

// Aggregator is the single sink for classification results. It is safe for
// concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	counts   map[domain.Category]int
	checked  int
	queued   int
	failures []domain.FailedLookup
	changes  []domain.NameChange

	registry   *prometheus.Registry
	categories *prometheus.CounterVec
	checkedCtr prometheus.Counter
	queuedGage prometheus.Gauge
}

// NewAggregator creates an empty aggregator with its own metrics registry.
func NewAggregator() *Aggregator {
	a := &Aggregator{
		counts:   make(map[domain.Category]int),
		registry: prometheus.NewRegistry(),
		categories: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankcheck_category_total",
				Help: "Entries classified per category, including counter-only flags",
			},
			[]string{"category"},
		),
		checkedCtr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankcheck_checked_total",
			Help: "Entries classified in the primary pass",
		}),
		queuedGage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rankcheck_rate_limited_queued",
			Help: "Entries waiting for a rate-limit recheck",
		}),
	}
	a.registry.MustRegister(a.categories, a.checkedCtr, a.queuedGage)
	return a
}

// Registry exposes the aggregator's metrics for the /metrics endpoint.
func (a *Aggregator) Registry() *prometheus.Registry {
	return a.registry
}

// Categories exposes the per-category counter vector.
func (a *Aggregator) Categories() *prometheus.CounterVec {
	return a.categories
}

// Record counts a classified outcome. Rechecks count their category but
// leave the primary total untouched. Rate-limited outcomes are ignored.
func (a *Aggregator) Record(o domain.Outcome, recheck bool) {
	if o.RateLimited || o.Category == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.incLocked(o.Category)
	if o.NameChanged {
		a.changes = append(a.changes, domain.NameChange{Old: o.Entry.Username, New: o.CurrentName})
		// Only profiled players carry the rename flag.
		if !o.Category.IsError() {
			a.incLocked(domain.CategoryUsernameChanged)
		}
	}
	if o.Online {
		a.incLocked(domain.CategoryCurrentlyOnline)
	}
	if o.Category == domain.CategoryFailedLookup || o.Category == domain.CategoryInvalidUsername {
		a.failures = append(a.failures, domain.FailedLookup{Username: o.DisplayName(), Reason: o.Reason})
	}
	if !recheck {
		a.checked++
		a.checkedCtr.Inc()
	}
}

func (a *Aggregator) incLocked(c domain.Category) {
	a.counts[c]++
	a.categories.WithLabelValues(string(c)).Inc()
}

// SetQueued records the current retry queue depth.
func (a *Aggregator) SetQueued(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queued = n
	a.queuedGage.Set(float64(n))
}

// Summary is a point-in-time copy of the aggregator state.
type Summary struct {
	Checked     int
	Queued      int
	Counts      map[domain.Category]int
	Failures    []domain.FailedLookup
	NameChanges []domain.NameChange
}

// Categories returns the counted categories sorted by name.
func (s Summary) Categories() []domain.Category {
	out := make([]domain.Category, 0, len(s.Counts))
	for c := range s.Counts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	counts := make(map[domain.Category]int, len(a.counts))
	for k, v := range a.counts {
		counts[k] = v
	}
	return Summary{
		Checked:     a.checked,
		Queued:      a.queued,
		Counts:      counts,
		Failures:    append([]domain.FailedLookup(nil), a.failures...),
		NameChanges: append([]domain.NameChange(nil), a.changes...),
	}
}
