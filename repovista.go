// Package repovista provides a client library for Git repository analytics
// dashboards.
//
// Repovista talks to an analytics backend that indexes Git repositories and
// computes contributor, activity, bus-factor and churn statistics. The
// client caches query results, polls indexing status, and reconciles both
// into the view mode a dashboard should render.
//
// Basic usage:
//
//	client, err := repovista.New(
//	    repovista.WithServerURL("http://localhost:8080/api/v1"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Authenticate
//	err = client.Login(ctx, "a@b.com", "secret")
//
//	// List repositories
//	repos, err := client.Repositories.List(ctx)
//
//	// Watch one repository's indexing lifecycle
//	monitor := client.Monitor(repos[0].ID())
//	go monitor.Run(ctx)
package repovista

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/repovista/repovista/application/service"
	"github.com/repovista/repovista/domain/repository"
	"github.com/repovista/repovista/domain/session"
	"github.com/repovista/repovista/infrastructure/backend"
	"github.com/repovista/repovista/infrastructure/gateway"
	"github.com/repovista/repovista/infrastructure/persistence"
)

// Client is the main entry point for the repovista library.
//
// Access resources via struct fields:
//
//	client.Repositories.List(ctx)
//	client.Sessions.Authenticated()
type Client struct {
	// Public resource fields (direct service access)
	Repositories *service.Repositories
	Sessions     *service.Session

	auth     *backend.Auth
	api      *backend.Client
	store    *persistence.Store
	ownStore bool
	logger   *slog.Logger
	cfg      clientConfig
}

// New creates a Client. The local state store opens (or creates) a SQLite
// file under the data directory; the persisted session, when present, is
// restored so the client starts authenticated.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	store := cfg.store
	ownStore := store == nil
	if ownStore {
		if err := cfg.app.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("prepare data dir: %w", err)
		}
		var err error
		store, err = persistence.Open(cfg.app.StatePath())
		if err != nil {
			return nil, fmt.Errorf("open state store: %w", err)
		}
	}

	sessions, err := service.NewSession(store,
		service.WithSessionTTL(cfg.app.SessionTTL()),
		service.WithSessionLogger(cfg.logger))
	if err != nil {
		if ownStore {
			_ = store.Close()
		}
		return nil, fmt.Errorf("restore session: %w", err)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.app.RequestTimeout()}
	}
	api := backend.NewClient(cfg.app.ServerURL(),
		backend.WithTokenSource(sessions),
		backend.WithHTTPClient(httpClient),
		backend.WithRateLimit(cfg.app.RateLimitPerSec()),
		backend.WithLogger(cfg.logger))

	repos := service.NewRepositories(backend.NewRepositories(api),
		service.WithSnapshotStore(store),
		service.WithStatsFreshness(cfg.app.StatsFreshness()),
		service.WithRepositoriesLogger(cfg.logger))

	return &Client{
		Repositories: repos,
		Sessions:     sessions,
		auth:         backend.NewAuth(api),
		api:          api,
		store:        store,
		ownStore:     ownStore,
		logger:       cfg.logger,
		cfg:          cfg,
	}, nil
}

// Close releases the local state store. An injected store stays open.
func (c *Client) Close() error {
	if !c.ownStore {
		return nil
	}
	return c.store.Close()
}

// Login authenticates with email and password and stores the session.
func (c *Client) Login(ctx context.Context, email, password string) (session.User, error) {
	sess, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return session.User{}, err
	}
	c.Sessions.SetAuth(sess.User(), sess.Token())
	return sess.User(), nil
}

// Signup registers a new account and stores the session.
func (c *Client) Signup(ctx context.Context, name, email, password string) (session.User, error) {
	sess, err := c.auth.Signup(ctx, name, email, password)
	if err != nil {
		return session.User{}, err
	}
	c.Sessions.SetAuth(sess.User(), sess.Token())
	return sess.User(), nil
}

// Logout clears the stored session.
func (c *Client) Logout() {
	c.Sessions.Logout()
}

// OAuthLoginURL returns the browser navigation target for the given OAuth
// provider ("github" or "google").
func (c *Client) OAuthLoginURL(provider string) string {
	return c.auth.OAuthLoginURL(provider)
}

// Monitor creates an indexing lifecycle monitor for one repository. Run it
// in a goroutine and read Snapshot/Updates from the rendering loop.
func (c *Client) Monitor(id string) *service.IndexingMonitor {
	return service.NewIndexingMonitor(c.Repositories, id,
		service.WithMonitorPollInterval(c.cfg.app.PollInterval()),
		service.WithMonitorLogger(c.logger))
}

// Gateway creates the local HTTP gateway serving route-gated dashboard
// endpoints and the API reverse proxy.
func (c *Client) Gateway() (*gateway.Server, error) {
	return gateway.NewServer(c.cfg.app.GatewayAddr(), c.cfg.app.ServerURL(),
		c.Sessions, c.Repositories, c.auth,
		gateway.WithServerLogger(c.logger),
		gateway.WithCookieTTL(c.cfg.app.SessionTTL()))
}

// Dashboard fetches everything the detail view needs in one call: the
// repository record, its reconciled view state, and statistics (the
// tolerant empty default when unavailable).
func (c *Client) Dashboard(ctx context.Context, id string) (repository.Repository, service.ViewState, repository.Stats, error) {
	repo, err := c.Repositories.Get(ctx, id)
	if err != nil {
		return repository.Repository{}, service.ViewState{}, repository.EmptyStats(), err
	}

	if _, err := c.Repositories.Status(ctx, id); err != nil {
		c.logger.Warn("status fetch failed", slog.String("repo_id", id), slog.String("error", err.Error()))
	}
	stats, err := c.Repositories.Stats(ctx, id)
	if err != nil {
		c.logger.Warn("stats fetch failed", slog.String("repo_id", id), slog.String("error", err.Error()))
	}

	status, _ := c.Repositories.LastStatus(id)
	state := service.Reconcile(status, stats.Present(), c.Repositories.IndexSignal(id))
	return repo, state, stats, nil
}
