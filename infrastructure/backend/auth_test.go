package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repovista/repovista/infrastructure/backend"
)

func TestLoginReturnsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "x", body["password"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":1,"email":"a@b.com","name":"Ada","avatar":"https://a/1"},"token":"tok-123"}`))
	}))
	defer srv.Close()

	auth := backend.NewAuth(backend.NewClient(srv.URL))
	sess, err := auth.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	assert.Equal(t, "tok-123", sess.Token())
	assert.Equal(t, "1", sess.User().ID())
	assert.Equal(t, "Ada", sess.User().Name())
	assert.Equal(t, "https://a/1", sess.User().AvatarURL())
}

func TestSignupReturnsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/signup", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":"u2","email":"c@d.com","name":"Grace"},"token":"tok-9"}`))
	}))
	defer srv.Close()

	auth := backend.NewAuth(backend.NewClient(srv.URL))
	sess, err := auth.Signup(context.Background(), "Grace", "c@d.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "tok-9", sess.Token())
	assert.Equal(t, "Grace", sess.User().Name())
}

func TestLoginPropagatesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer srv.Close()

	auth := backend.NewAuth(backend.NewClient(srv.URL))
	_, err := auth.Login(context.Background(), "a@b.com", "nope")
	require.Error(t, err)
	assert.EqualError(t, err, "invalid credentials")
}

func TestOAuthLoginURL(t *testing.T) {
	auth := backend.NewAuth(backend.NewClient("http://localhost:8080/api/v1"))
	assert.Equal(t, "http://localhost:8080/api/v1/auth/github/login", auth.OAuthLoginURL("github"))
}
