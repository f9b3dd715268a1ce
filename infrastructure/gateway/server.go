// Package gateway provides the local HTTP gateway: cookie-based route
// gating for the dashboard pages, the OAuth callback and credential
// endpoints, and a reverse proxy that forwards API calls to the analytics
// backend with the session token promoted to a bearer header.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/repovista/repovista/application/service"
	"github.com/repovista/repovista/infrastructure/backend"
	"github.com/repovista/repovista/internal/config"
)

// Server is the gateway HTTP server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	addr       string

	sessions  *service.Session
	repos     *service.Repositories
	auth      *backend.Auth
	target    *url.URL
	cookieTTL time.Duration
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithServerLogger sets the logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithCookieTTL sets the session cookie lifetime.
func WithCookieTTL(ttl time.Duration) ServerOption {
	return func(s *Server) {
		if ttl > 0 {
			s.cookieTTL = ttl
		}
	}
}

// NewServer creates the gateway. backendURL is the backend API base URL;
// the proxy forwards to its origin preserving paths.
func NewServer(addr, backendURL string, sessions *service.Session, repos *service.Repositories, auth *backend.Auth, opts ...ServerOption) (*Server, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	target.Path = ""
	target.RawQuery = ""

	s := &Server{
		router:    chi.NewRouter(),
		logger:    slog.Default(),
		addr:      addr,
		sessions:  sessions,
		repos:     repos,
		auth:      auth,
		target:    target,
		cookieTTL: config.DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mountRoutes()
	return s, nil
}

func (s *Server) mountRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(Logging(s.logger))

	// Dashboard pages require the session cookie.
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.handleHome)
		r.Get("/repository/{id}", s.handleRepository)
	})

	// Auth pages bounce already-authenticated visitors home.
	s.router.Group(func(r chi.Router) {
		r.Use(s.redirectAuthenticated)
		r.Get("/login", s.handleLoginPage)
		r.Get("/signup", s.handleSignupPage)
	})

	s.router.Get("/auth/callback", s.handleOAuthCallback)
	s.router.Post("/auth/login", s.handleLogin)
	s.router.Post("/auth/signup", s.handleSignup)
	s.router.Post("/auth/logout", s.handleLogout)

	// API calls pass through to the backend with the cookie promoted to a
	// bearer header. CORS is scoped to this mount.
	proxy := s.newProxy()
	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Handle("/*", proxy)
	})
}

// Router returns the chi router, primarily for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting gateway", "addr", s.addr, "backend", s.target.String())
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down gateway")
	return s.httpServer.Shutdown(ctx)
}

// sessionToken reads the session cookie ("" when absent).
func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(config.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.cookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireAuth gates dashboard routes: without a session cookie the visitor
// is sent to the login page carrying the original destination.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionToken(r) == "" {
			dest := "/login?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, dest, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// redirectAuthenticated bounces visitors who already hold a session cookie
// from the auth pages back home.
func (s *Server) redirectAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionToken(r) != "" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loginRedirect(callbackURL string) string {
	if callbackURL == "" || !strings.HasPrefix(callbackURL, "/") {
		return "/"
	}
	return callbackURL
}
