package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/repovista/repovista/domain/session"
	"github.com/repovista/repovista/infrastructure/backend"
)

type credentialsRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type authPayload struct {
	User  userPayload `json:"user"`
	Token string      `json:"token"`
}

func toUserPayload(u session.User) userPayload {
	return userPayload{ID: u.ID(), Email: u.Email(), Name: u.Name(), AvatarURL: u.AvatarURL()}
}

// handleOAuthCallback terminates the redirect-based OAuth flow. The
// provider hands back either an error or a token as query parameters. A
// token whose payload cannot be decoded is still stored so requests stay
// authorized; only the identity is dropped.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if oauthErr := query.Get("error"); oauthErr != "" {
		s.logger.Warn("oauth callback returned error", slog.String("error", oauthErr))
		http.Redirect(w, r, "/login?error="+url.QueryEscape(oauthErr), http.StatusFound)
		return
	}

	token := query.Get("token")
	if token == "" {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	user, err := session.UserFromToken(token)
	if err != nil {
		s.logger.Warn("oauth token payload not decodable, keeping raw token",
			slog.String("error", err.Error()))
		user = session.User{}
	}
	s.sessions.SetAuth(user, token)
	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	s.sessions.SetAuth(sess.User(), sess.Token())
	s.setSessionCookie(w, sess.Token())
	s.writeJSON(w, http.StatusOK, authPayload{User: toUserPayload(sess.User()), Token: sess.Token()})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	s.sessions.SetAuth(sess.User(), sess.Token())
	s.setSessionCookie(w, sess.Token())
	s.writeJSON(w, http.StatusCreated, authPayload{User: toUserPayload(sess.User()), Token: sess.Token()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout()
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleLoginPage serves machine-readable page metadata; visual rendering
// lives in the terminal client.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"page":        "login",
		"callbackUrl": loginRedirect(r.URL.Query().Get("callbackUrl")),
		"error":       r.URL.Query().Get("error"),
		"github":      s.auth.OAuthLoginURL("github"),
		"google":      s.auth.OAuthLoginURL("google"),
	})
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"page": "signup"})
}

// writeAuthError maps backend auth failures onto the gateway response,
// passing the upstream status through when known.
func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		s.writeError(w, apiErr.StatusCode(), apiErr.Error())
		return
	}
	s.writeError(w, http.StatusBadGateway, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
