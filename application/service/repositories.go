package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/repovista/repovista/domain/repository"
	"github.com/repovista/repovista/internal/cache"
	"github.com/repovista/repovista/internal/config"
)

// Backend is the slice of the backend API the data-fetching layer consumes.
type Backend interface {
	List(ctx context.Context) ([]repository.Repository, error)
	Get(ctx context.Context, id string) (repository.Repository, error)
	Create(ctx context.Context, url string) (repository.Repository, error)
	Sync(ctx context.Context) (repository.SyncSummary, error)
	TriggerIndex(ctx context.Context, id string) error
	Status(ctx context.Context, id string) (repository.StatusReport, error)
	Stats(ctx context.Context, id string) (repository.Stats, error)
}

// SnapshotStore persists the last-known repository list across runs.
type SnapshotStore interface {
	SaveRepositories([]repository.Repository) error
	LoadRepositories() ([]repository.Repository, error)
}

// Repositories is the cached data-fetching layer over the backend API.
// Queries are keyed by resource identity; mutations invalidate exactly the
// keys their endpoint affects. All methods are safe for concurrent use.
type Repositories struct {
	api        Backend
	snapshots  SnapshotStore
	logger     *slog.Logger
	statsFresh time.Duration

	list *cache.Query[[]repository.Repository]

	mu       sync.Mutex
	details  map[string]*cache.Query[repository.Repository]
	stats    map[string]*cache.Query[repository.Stats]
	statuses map[string]*cache.Query[repository.StatusReport]

	// latched marks repositories with a user-triggered index outstanding.
	// It decides whether observing completion invalidates caches; at most
	// one latch per repository.
	latched map[string]bool
	// inflight marks repositories whose index mutation has not returned yet.
	inflight map[string]bool
}

// RepositoriesOption configures the Repositories service.
type RepositoriesOption func(*Repositories)

// WithSnapshotStore attaches the local snapshot store.
func WithSnapshotStore(store SnapshotStore) RepositoriesOption {
	return func(r *Repositories) { r.snapshots = store }
}

// WithStatsFreshness sets the statistics cache freshness window.
func WithStatsFreshness(d time.Duration) RepositoriesOption {
	return func(r *Repositories) {
		if d > 0 {
			r.statsFresh = d
		}
	}
}

// WithRepositoriesLogger sets the logger.
func WithRepositoriesLogger(logger *slog.Logger) RepositoriesOption {
	return func(r *Repositories) { r.logger = logger }
}

// NewRepositories creates the data-fetching layer. When a snapshot store is
// attached, the list cache is seeded from it so the first render needs no
// network round-trip.
func NewRepositories(api Backend, opts ...RepositoriesOption) *Repositories {
	r := &Repositories{
		api:        api,
		logger:     slog.Default(),
		statsFresh: config.DefaultStatsFreshness,
		details:    make(map[string]*cache.Query[repository.Repository]),
		stats:      make(map[string]*cache.Query[repository.Stats]),
		statuses:   make(map[string]*cache.Query[repository.StatusReport]),
		latched:    make(map[string]bool),
		inflight:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.list = cache.NewQuery("repositories", r.fetchList, cache.WithLogger[[]repository.Repository](r.logger))
	if r.snapshots != nil {
		if snapshot, err := r.snapshots.LoadRepositories(); err == nil && len(snapshot) > 0 {
			r.list.Seed(snapshot)
		}
	}
	return r
}

func (r *Repositories) fetchList(ctx context.Context) ([]repository.Repository, error) {
	repos, err := r.api.List(ctx)
	if err != nil {
		return nil, err
	}
	r.persistSnapshot(repos)
	return repos, nil
}

func (r *Repositories) persistSnapshot(repos []repository.Repository) {
	if r.snapshots == nil {
		return
	}
	if err := r.snapshots.SaveRepositories(repos); err != nil {
		r.logger.Warn("persist repository snapshot", slog.String("error", err.Error()))
	}
}

// List fetches the repository list, serving the cache while a fetch is
// already in flight.
func (r *Repositories) List(ctx context.Context) ([]repository.Repository, error) {
	return r.list.Result(ctx)
}

// CachedList returns the cached repository list without fetching.
func (r *Repositories) CachedList() ([]repository.Repository, bool) {
	return r.list.Peek()
}

// ListQuery exposes the list cache entry for subscription.
func (r *Repositories) ListQuery() *cache.Query[[]repository.Repository] {
	return r.list
}

// DetailQuery returns the cache entry for one repository record.
func (r *Repositories) DetailQuery(id string) *cache.Query[repository.Repository] {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.details[id]
	if !ok {
		q = cache.NewQuery("repository:"+id, func(ctx context.Context) (repository.Repository, error) {
			return r.api.Get(ctx, id)
		}, cache.WithLogger[repository.Repository](r.logger))
		r.details[id] = q
	}
	return q
}

// Get fetches one repository. An empty id is a disabled query: it returns
// the zero Repository without touching the network.
func (r *Repositories) Get(ctx context.Context, id string) (repository.Repository, error) {
	if id == "" {
		return repository.Repository{}, nil
	}
	return r.DetailQuery(id).Result(ctx)
}

// StatsQuery returns the cache entry for a repository's statistics. The
// entry is gated: it never fetches unless the last observed status is
// completed and no index operation is outstanding, and fetched values stay
// fresh for the configured window to dampen refetches during re-indexing.
func (r *Repositories) StatsQuery(id string) *cache.Query[repository.Stats] {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.stats[id]
	if !ok {
		q = cache.NewQuery("repository-stats:"+id, func(ctx context.Context) (repository.Stats, error) {
			return r.api.Stats(ctx, id)
		},
			cache.WithFreshness[repository.Stats](r.statsFresh),
			cache.WithGate[repository.Stats](func() bool { return r.statsEnabled(id) }),
			cache.WithLogger[repository.Stats](r.logger),
		)
		r.stats[id] = q
	}
	return q
}

// statsEnabled reports whether the stats query for id may fetch.
func (r *Repositories) statsEnabled(id string) bool {
	status, ok := r.lastStatus(id)
	return ok && status == repository.StatusCompleted && !r.IndexSignal(id)
}

// Stats returns a repository's statistics. While the query is disabled or
// failing, the zero-valued tolerant default is returned so views render
// instead of blocking; the error, when present, is for notification only.
func (r *Repositories) Stats(ctx context.Context, id string) (repository.Stats, error) {
	stats, err := r.StatsQuery(id).Result(ctx)
	if err != nil {
		return repository.EmptyStats(), err
	}
	if !stats.Present() {
		return repository.EmptyStats(), nil
	}
	return stats, nil
}

// CachedStats returns the cached statistics without fetching.
func (r *Repositories) CachedStats(id string) (repository.Stats, bool) {
	stats, ok := r.StatsQuery(id).Peek()
	if !ok || !stats.Present() {
		return repository.EmptyStats(), false
	}
	return stats, true
}

// StatusQuery returns the cache entry for a repository's polled status.
func (r *Repositories) StatusQuery(id string) *cache.Query[repository.StatusReport] {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.statuses[id]
	if !ok {
		q = cache.NewQuery("repository-status:"+id, func(ctx context.Context) (repository.StatusReport, error) {
			report, err := r.api.Status(ctx, id)
			if err != nil {
				return repository.StatusReport{}, err
			}
			r.observeStatus(id, report)
			return report, nil
		}, cache.WithLogger[repository.StatusReport](r.logger))
		r.statuses[id] = q
	}
	return q
}

// Status fetches the current indexing status.
func (r *Repositories) Status(ctx context.Context, id string) (repository.StatusReport, error) {
	return r.StatusQuery(id).Result(ctx)
}

// observeStatus reacts to a polled status. Seeing completion while the
// user-triggered latch is set clears the latch and invalidates the detail
// and stats caches exactly once, which re-enables the stats query and lets
// the view advance to the ready mode after the refetch resolves.
func (r *Repositories) observeStatus(id string, report repository.StatusReport) {
	if report.Status() != repository.StatusCompleted {
		return
	}

	r.mu.Lock()
	latched := r.latched[id]
	if latched {
		r.latched[id] = false
	}
	r.mu.Unlock()

	if !latched {
		return
	}

	r.logger.Info("indexing completed", slog.String("repo_id", id))
	r.DetailQuery(id).Invalidate()
	r.StatsQuery(id).Invalidate()
}

// lastStatus returns the most recently observed status for id, falling
// back from the status cache to the detail record to the list entry.
func (r *Repositories) lastStatus(id string) (repository.IndexStatus, bool) {
	if report, ok := r.StatusQuery(id).Peek(); ok {
		return report.Status(), true
	}
	if repo, ok := r.DetailQuery(id).Peek(); ok && !repo.IsEmpty() {
		return repo.Status(), true
	}
	if repos, ok := r.list.Peek(); ok {
		for _, repo := range repos {
			if repo.ID() == id {
				return repo.Status(), true
			}
		}
	}
	return repository.StatusDiscovered, false
}

// LastStatus exposes the most recently observed status for id.
func (r *Repositories) LastStatus(id string) (repository.IndexStatus, bool) {
	return r.lastStatus(id)
}

// IndexSignal reports whether an index operation is outstanding for id:
// either the mutation has not returned yet or the user-triggered latch is
// still waiting for polling to observe completion.
func (r *Repositories) IndexSignal(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight[id] || r.latched[id]
}

// Create submits a repository URL. On success the created record is
// appended to the list cache without a refetch; when the backend supplies
// no name, one is derived from the URL's last two path segments.
func (r *Repositories) Create(ctx context.Context, url string) (repository.Repository, error) {
	created, err := r.api.Create(ctx, url)
	if err != nil {
		return repository.Repository{}, err
	}

	if created.Name() == "" {
		created = repository.New(created.ID(), created.URL(),
			repository.WithName(repository.NameFromURL(created.URL())),
			repository.WithPrivate(created.Private()),
			repository.WithProvider(created.Provider()),
			repository.WithDefaultBranch(created.DefaultBranch()),
			repository.WithIndexStatus(created.Status()),
			repository.WithDescription(created.Description()),
			repository.WithLanguage(created.Language()),
			repository.WithTimestamps(created.CreatedAt(), created.UpdatedAt()),
			repository.WithLastIndexedAt(created.LastIndexedAt()),
		)
	}

	r.list.Update(func(repos []repository.Repository) []repository.Repository {
		for _, existing := range repos {
			if existing.ID() == created.ID() {
				return repos
			}
		}
		return append(repos, created)
	})
	if repos, ok := r.list.Peek(); ok {
		r.persistSnapshot(repos)
	}
	return created, nil
}

// Sync triggers a provider re-scan. On success the list cache is
// invalidated, forcing a refetch on the next read.
func (r *Repositories) Sync(ctx context.Context) (repository.SyncSummary, error) {
	summary, err := r.api.Sync(ctx)
	if err != nil {
		return repository.SyncSummary{}, err
	}
	r.list.Invalidate()
	return summary, nil
}

// TriggerIndex requests (re-)indexing of a repository. The user-triggered
// latch is set before the request; on success the detail, status, and list
// caches are invalidated immediately (eliminating poll-interval lag), on
// failure the latch is rolled back and no caches are touched.
func (r *Repositories) TriggerIndex(ctx context.Context, id string) error {
	r.mu.Lock()
	r.latched[id] = true
	r.inflight[id] = true
	r.mu.Unlock()

	err := r.api.TriggerIndex(ctx, id)

	r.mu.Lock()
	r.inflight[id] = false
	if err != nil {
		r.latched[id] = false
	}
	r.mu.Unlock()

	if err != nil {
		return err
	}

	r.StatusQuery(id).Invalidate()
	r.DetailQuery(id).Invalidate()
	r.list.Invalidate()
	return nil
}
