package repovista_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repovista/repovista"
	"github.com/repovista/repovista/domain/repository"
)

// newBackend serves the minimal API surface the client touches and records
// the Authorization header of repository requests.
func newBackend(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var lastAuth string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]any{"id": 1, "email": creds.Email, "name": "Ada"},
			"token": "tok-abc",
		})
	})
	mux.HandleFunc("/api/v1/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		lastAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "r1", "url": "https://github.com/org/repo", "status": "completed"},
		})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &lastAuth
}

func TestClientLoginThenList(t *testing.T) {
	ts, lastAuth := newBackend(t)

	client, err := repovista.New(
		repovista.WithServerURL(ts.URL+"/api/v1"),
		repovista.WithDataDir(t.TempDir()),
	)
	require.NoError(t, err)
	defer client.Close()

	assert.False(t, client.Sessions.Authenticated())

	user, err := client.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "1", user.ID())
	assert.True(t, client.Sessions.Authenticated())

	repos, err := client.Repositories.List(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "org/repo", repos[0].DisplayName())
	assert.Equal(t, repository.StatusCompleted, repos[0].Status())
	assert.Equal(t, "Bearer tok-abc", *lastAuth)
}

func TestClientLoginFailure(t *testing.T) {
	ts, _ := newBackend(t)

	client, err := repovista.New(
		repovista.WithServerURL(ts.URL+"/api/v1"),
		repovista.WithDataDir(t.TempDir()),
	)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.False(t, client.Sessions.Authenticated())
}

func TestSessionSurvivesReopen(t *testing.T) {
	ts, _ := newBackend(t)
	dataDir := t.TempDir()

	client, err := repovista.New(
		repovista.WithServerURL(ts.URL+"/api/v1"),
		repovista.WithDataDir(dataDir),
	)
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	reopened, err := repovista.New(
		repovista.WithServerURL(ts.URL+"/api/v1"),
		repovista.WithDataDir(dataDir),
	)
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, reopened.Sessions.Authenticated())
	assert.Equal(t, "a@b.com", reopened.Sessions.User().Email())
}
