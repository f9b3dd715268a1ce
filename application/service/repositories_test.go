package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repovista/repovista/application/service"
	"github.com/repovista/repovista/domain/repository"
)

func someStats() repository.Stats {
	return repository.NewStats(42, time.Now(),
		[]repository.Contributor{repository.NewContributor("Ada", "ada@example.com", 42, "")},
		[]repository.ActivityDay{repository.NewActivityDay("2026-08-01", 3, 1)},
		nil, nil)
}

func TestCreateAppendsToListCacheWithDerivedName(t *testing.T) {
	api := newFakeBackend()
	repos := service.NewRepositories(api)

	// Warm the list cache first so the optimistic append is observable.
	_, err := repos.List(context.Background())
	require.NoError(t, err)

	created, err := repos.Create(context.Background(), "https://github.com/org/repo")
	require.NoError(t, err)
	assert.Equal(t, "org/repo", created.Name())

	cached, ok := repos.CachedList()
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, "org/repo", cached[0].Name())
	// The append is optimistic: no list refetch happened.
	assert.Equal(t, 1, api.listCalls)
}

func TestCreateDoesNotDuplicateExistingEntry(t *testing.T) {
	api := newFakeBackend()
	repos := service.NewRepositories(api)

	_, err := repos.Create(context.Background(), "https://github.com/org/repo")
	require.NoError(t, err)
	_, err = repos.Create(context.Background(), "https://github.com/org/repo")
	require.NoError(t, err)

	cached, ok := repos.CachedList()
	require.True(t, ok)
	assert.Len(t, cached, 1)
}

func TestSyncInvalidatesListCache(t *testing.T) {
	api := newFakeBackend()
	repos := service.NewRepositories(api)

	_, err := repos.List(context.Background())
	require.NoError(t, err)

	summary, err := repos.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sync started", summary.Message())

	_, err = repos.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, api.listCalls)
}

func TestStatsGatedUntilStatusCompleted(t *testing.T) {
	api := newFakeBackend()
	api.stats["r1"] = someStats()
	api.reports["r1"] = []repository.StatusReport{
		repository.NewStatusReport(repository.StatusIndexing),
		repository.NewStatusReport(repository.StatusCompleted),
	}
	repos := service.NewRepositories(api)

	// No status observed yet: the query is disabled and returns the
	// tolerant default without a request.
	stats, err := repos.Stats(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, stats.Present())
	assert.Zero(t, api.statsCallCount("r1"))

	// Observing an active status keeps the gate closed.
	_, err = repos.Status(context.Background(), "r1")
	require.NoError(t, err)
	stats, err = repos.Stats(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, stats.Present())
	assert.Zero(t, api.statsCallCount("r1"))

	// Completion opens the gate.
	_, err = repos.Status(context.Background(), "r1")
	require.NoError(t, err)
	stats, err = repos.Stats(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, stats.Present())
	assert.Equal(t, 42, stats.TotalCommits())
	assert.Equal(t, 1, api.statsCallCount("r1"))
}

func TestStatsFailureReturnsTolerantDefault(t *testing.T) {
	api := newFakeBackend()
	api.statsErr = errors.New("upstream down")
	api.reports["r1"] = []repository.StatusReport{
		repository.NewStatusReport(repository.StatusCompleted),
	}
	repos := service.NewRepositories(api)

	_, err := repos.Status(context.Background(), "r1")
	require.NoError(t, err)

	stats, err := repos.Stats(context.Background(), "r1")
	require.Error(t, err)
	assert.False(t, stats.Present())
	assert.Empty(t, stats.Contributors())
}

func TestStatsServedFromCacheWithinFreshnessWindow(t *testing.T) {
	api := newFakeBackend()
	api.stats["r1"] = someStats()
	api.reports["r1"] = []repository.StatusReport{
		repository.NewStatusReport(repository.StatusCompleted),
	}
	repos := service.NewRepositories(api, service.WithStatsFreshness(time.Minute))

	_, err := repos.Status(context.Background(), "r1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = repos.Stats(context.Background(), "r1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, api.statsCallCount("r1"))
}

func TestTriggerIndexSetsLatchAndInvalidatesStatus(t *testing.T) {
	api := newFakeBackend()
	api.reports["r1"] = []repository.StatusReport{
		repository.NewStatusReport(repository.StatusCompleted),
	}
	repos := service.NewRepositories(api)

	_, err := repos.Status(context.Background(), "r1")
	require.NoError(t, err)

	// Completed status with an outstanding index keeps the stats gate
	// closed even though the last report said completed.
	require.NoError(t, repos.TriggerIndex(context.Background(), "r1"))
	assert.True(t, repos.IndexSignal("r1"))
	assert.True(t, repos.StatusQuery("r1").Stale())
}

func TestTriggerIndexFailureRollsBackLatch(t *testing.T) {
	api := newFakeBackend()
	api.triggerErr = errors.New("busy")
	repos := service.NewRepositories(api)

	err := repos.TriggerIndex(context.Background(), "r1")
	require.Error(t, err)
	assert.False(t, repos.IndexSignal("r1"))
}

func TestCompletionWithLatchInvalidatesDetailAndStatsOnce(t *testing.T) {
	api := newFakeBackend()
	api.stats["r1"] = someStats()
	api.reports["r1"] = []repository.StatusReport{
		repository.NewStatusReport(repository.StatusIndexing),
		repository.NewStatusReport(repository.StatusCompleted),
	}
	repos := service.NewRepositories(api)
	ctx := context.Background()

	require.NoError(t, repos.TriggerIndex(ctx, "r1"))
	require.True(t, repos.IndexSignal("r1"))

	// Poll observes indexing: latch stays, nothing invalidated.
	_, err := repos.Status(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, repos.IndexSignal("r1"))

	// Warm the stats cache is impossible while latched; resolve detail so
	// we can watch it go stale on completion.
	_, err = repos.Get(ctx, "r1")
	require.NoError(t, err)
	require.False(t, repos.DetailQuery("r1").Stale())

	// Poll observes completed: latch clears, detail and stats invalidate.
	_, err = repos.Status(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, repos.IndexSignal("r1"))
	assert.True(t, repos.DetailQuery("r1").Stale())

	// Stats gate is now open; the refetch resolves fresh data.
	stats, err := repos.Stats(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, stats.Present())
	assert.Equal(t, 1, api.statsCallCount("r1"))

	// A further completed poll must not invalidate again.
	_, err = repos.Status(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, repos.StatsQuery("r1").Stale())
	_, err = repos.Stats(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, api.statsCallCount("r1"))
}

func TestGetWithEmptyIDIsDisabled(t *testing.T) {
	api := newFakeBackend()
	repos := service.NewRepositories(api)

	repo, err := repos.Get(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, repo.IsEmpty())
	assert.Zero(t, api.getCalls)
}

// snapshotStub is an in-memory SnapshotStore.
type snapshotStub struct {
	repos []repository.Repository
	saves int
}

func (s *snapshotStub) SaveRepositories(repos []repository.Repository) error {
	s.repos = append([]repository.Repository(nil), repos...)
	s.saves++
	return nil
}

func (s *snapshotStub) LoadRepositories() ([]repository.Repository, error) {
	return s.repos, nil
}

func TestListSeededFromSnapshotAndPersistedOnFetch(t *testing.T) {
	store := &snapshotStub{
		repos: []repository.Repository{repository.New("seed", "https://github.com/org/seed")},
	}
	api := newFakeBackend()
	api.repos = []repository.Repository{repository.New("live", "https://github.com/org/live")}
	repos := service.NewRepositories(api, service.WithSnapshotStore(store))

	// The seed is visible before any fetch, but marked stale.
	cached, ok := repos.CachedList()
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, "seed", cached[0].ID())
	assert.True(t, repos.ListQuery().Stale())

	fetched, err := repos.List(context.Background())
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, "live", fetched[0].ID())
	assert.Equal(t, "live", store.repos[0].ID())
}
