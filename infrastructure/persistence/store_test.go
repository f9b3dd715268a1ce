package persistence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repovista/repovista/domain/repository"
	"github.com/repovista/repovista/domain/session"
	"github.com/repovista/repovista/infrastructure/persistence"
)

func openStore(t *testing.T) *persistence.Store {
	t.Helper()
	store, err := persistence.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionRoundTrip(t *testing.T) {
	store := openStore(t)

	sess := session.New(session.NewUser("u1", "a@b.com", "Ada", "https://avatars.test/u1"), "tok-123")
	require.NoError(t, store.SaveSession(sess))

	loaded, err := store.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", loaded.Token())
	assert.Equal(t, "a@b.com", loaded.User().Email())
	assert.Equal(t, "https://avatars.test/u1", loaded.User().AvatarURL())
}

func TestSaveSessionReplacesPrevious(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.SaveSession(session.New(session.NewUser("u1", "a@b.com", "Ada", ""), "old")))
	require.NoError(t, store.SaveSession(session.New(session.NewUser("u2", "c@d.com", "Grace", ""), "new")))

	loaded, err := store.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "new", loaded.Token())
	assert.Equal(t, "u2", loaded.User().ID())
}

func TestLoadSessionWhenEmpty(t *testing.T) {
	store := openStore(t)

	loaded, err := store.LoadSession()
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated())
}

func TestClearSession(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.SaveSession(session.New(session.NewUser("u1", "a@b.com", "Ada", ""), "tok")))
	require.NoError(t, store.ClearSession())

	loaded, err := store.LoadSession()
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated())
}

func TestClearSessionWhenEmptyIsNoError(t *testing.T) {
	store := openStore(t)
	assert.NoError(t, store.ClearSession())
}

func TestRepositoriesRoundTrip(t *testing.T) {
	store := openStore(t)

	indexed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	repos := []repository.Repository{
		repository.New("r1", "https://github.com/org/repo",
			repository.WithName("org/repo"),
			repository.WithPrivate(true),
			repository.WithProvider("github"),
			repository.WithDefaultBranch("main"),
			repository.WithIndexStatus(repository.StatusCompleted),
			repository.WithDescription("analytics playground"),
			repository.WithLanguage("Go"),
			repository.WithLastIndexedAt(indexed)),
		repository.New("r2", "https://github.com/org/other"),
	}
	require.NoError(t, store.SaveRepositories(repos))

	loaded, err := store.LoadRepositories()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "r1", loaded[0].ID())
	assert.Equal(t, "org/repo", loaded[0].Name())
	assert.True(t, loaded[0].Private())
	assert.Equal(t, repository.StatusCompleted, loaded[0].Status())
	assert.Equal(t, "Go", loaded[0].Language())
	assert.True(t, loaded[0].LastIndexedAt().Equal(indexed))
	assert.Equal(t, "r2", loaded[1].ID())
}

func TestSaveRepositoriesReplacesSnapshot(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.SaveRepositories([]repository.Repository{
		repository.New("old", "https://github.com/org/old"),
	}))
	require.NoError(t, store.SaveRepositories([]repository.Repository{
		repository.New("new", "https://github.com/org/new"),
	}))

	loaded, err := store.LoadRepositories()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "new", loaded[0].ID())
}

func TestSaveRepositoriesEmptySnapshot(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.SaveRepositories([]repository.Repository{
		repository.New("r1", "https://github.com/org/repo"),
	}))
	require.NoError(t, store.SaveRepositories(nil))

	loaded, err := store.LoadRepositories()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
