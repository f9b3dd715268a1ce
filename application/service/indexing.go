package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/repovista/repovista/domain/repository"
)

// Mode is the dashboard rendering mode derived from indexing state.
type Mode string

const (
	// ModeNeedsInitialIndex renders the pre-index placeholder: the
	// repository has no statistics yet and has not completed an index.
	ModeNeedsInitialIndex Mode = "needs_initial_index"
	// ModeReindexing renders existing statistics under a non-blocking
	// re-indexing banner.
	ModeReindexing Mode = "reindexing"
	// ModeReady renders the full dashboard.
	ModeReady Mode = "ready"
)

// ViewState is the reconciled view of one repository's indexing lifecycle.
// It is a pure derivation; the authoritative state lives in the backend.
type ViewState struct {
	mode       Mode
	actionable bool
	retryHint  bool
	waiting    bool
}

// Mode returns the rendering mode.
func (v ViewState) Mode() Mode { return v.mode }

// Actionable reports whether the "initialize indexing" action applies.
func (v ViewState) Actionable() bool { return v.actionable }

// RetryHint reports whether the last index attempt failed and the action
// should be presented as a retry.
func (v ViewState) RetryHint() bool { return v.retryHint }

// Waiting reports whether an index run is underway with nothing to render
// yet (spinner, no action).
func (v ViewState) Waiting() bool { return v.waiting }

// Reconcile derives the view state from the last polled status, whether
// statistics from a prior successful index are cached, and whether an
// index operation triggered by this client is outstanding.
//
// Cached statistics keep the dashboard rendered through a re-index rather
// than dropping back to the placeholder, which is what prevents flicker
// between modes while polling.
func Reconcile(status repository.IndexStatus, statsPresent, indexPending bool) ViewState {
	switch {
	case statsPresent && (indexPending || status.IsActive()):
		return ViewState{mode: ModeReindexing}
	case statsPresent || status == repository.StatusCompleted:
		return ViewState{mode: ModeReady}
	default:
		return ViewState{
			mode:       ModeNeedsInitialIndex,
			actionable: !status.IsActive() && !indexPending,
			retryHint:  status == repository.StatusFailed,
			waiting:    status.IsActive() || indexPending,
		}
	}
}

// IndexingMonitor drives the indexing lifecycle for one repository: it runs
// the status poller, keeps the gated stats query resolved while it has a
// reason to be, and exposes a reconciled ViewState snapshot plus a change
// signal for the rendering loop.
type IndexingMonitor struct {
	repos    *Repositories
	id       string
	poller   *StatusPoller
	interval time.Duration
	logger   *slog.Logger
	updates  chan struct{}
}

// MonitorOption configures an IndexingMonitor.
type MonitorOption func(*IndexingMonitor)

// WithMonitorPollInterval sets the status poll interval.
func WithMonitorPollInterval(d time.Duration) MonitorOption {
	return func(m *IndexingMonitor) { m.interval = d }
}

// WithMonitorLogger sets the logger.
func WithMonitorLogger(logger *slog.Logger) MonitorOption {
	return func(m *IndexingMonitor) { m.logger = logger }
}

// NewIndexingMonitor creates a monitor for one repository.
func NewIndexingMonitor(repos *Repositories, id string, opts ...MonitorOption) *IndexingMonitor {
	m := &IndexingMonitor{
		repos:   repos,
		id:      id,
		logger:  slog.Default(),
		updates: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.poller = NewStatusPoller(m.repos, m.id,
		WithPollInterval(m.interval), WithPollLogger(m.logger))
	return m
}

// Run blocks until ctx is cancelled, polling status and resolving the
// stats and detail queries as invalidations land.
func (m *IndexingMonitor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.poller.Run(ctx) })
	g.Go(func() error { return m.refreshLoop(ctx) })
	return g.Wait()
}

// refreshLoop is the subscriber that turns invalidation pings into
// refetches. Without it the queries stay idle, so closing the monitor
// stops all network activity for this repository.
func (m *IndexingMonitor) refreshLoop(ctx context.Context) error {
	detail := m.repos.DetailQuery(m.id)
	stats := m.repos.StatsQuery(m.id)
	status := m.repos.StatusQuery(m.id)

	detailSub := detail.Subscribe()
	defer detailSub.Close()
	statsSub := stats.Subscribe()
	defer statsSub.Close()
	statusSub := status.Subscribe()
	defer statusSub.Close()

	for {
		if detail.Stale() {
			if _, err := detail.Result(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn("repository detail refresh failed",
					slog.String("repo_id", m.id), slog.String("error", err.Error()))
			}
		}
		if stats.Stale() {
			// The gate inside Result keeps this a no-op until the last
			// observed status is completed.
			if _, err := stats.Result(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn("repository stats refresh failed",
					slog.String("repo_id", m.id), slog.String("error", err.Error()))
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.notify()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-detailSub.Changes():
		case <-statsSub.Changes():
		case <-statusSub.Changes():
		}
	}
}

func (m *IndexingMonitor) notify() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

// Updates returns a coalescing signal pinged whenever the snapshot may
// have changed.
func (m *IndexingMonitor) Updates() <-chan struct{} { return m.updates }

// Snapshot reconciles the caches into the current view state.
func (m *IndexingMonitor) Snapshot() ViewState {
	status, _ := m.repos.LastStatus(m.id)
	_, statsPresent := m.repos.CachedStats(m.id)
	return Reconcile(status, statsPresent, m.repos.IndexSignal(m.id))
}

// Progress returns the last polled progress fraction, if any.
func (m *IndexingMonitor) Progress() (float64, bool) {
	report, ok := m.repos.StatusQuery(m.id).Peek()
	if !ok {
		return 0, false
	}
	return report.Progress()
}

// TriggerIndex requests (re-)indexing for the monitored repository.
func (m *IndexingMonitor) TriggerIndex(ctx context.Context) error {
	return m.repos.TriggerIndex(ctx, m.id)
}
