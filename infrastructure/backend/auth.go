package backend

import (
	"context"

	"github.com/repovista/repovista/domain/session"
)

// Auth exposes the authentication endpoints of the backend API.
type Auth struct {
	client *Client
}

// NewAuth creates an Auth API wrapper.
func NewAuth(client *Client) *Auth {
	return &Auth{client: client}
}

// userRecord is the wire form of an authenticated user.
type userRecord struct {
	ID        wireID `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar,omitempty"`
}

// authResponse is the wire form of a successful login or signup.
type authResponse struct {
	User  userRecord `json:"user"`
	Token string     `json:"token"`
}

func (a authResponse) toSession() session.Session {
	user := session.NewUser(string(a.User.ID), a.User.Email, a.User.Name, a.User.AvatarURL)
	return session.New(user, a.Token)
}

// Login authenticates with email and password.
func (a *Auth) Login(ctx context.Context, email, password string) (session.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := a.client.Post(ctx, "/auth/login", body, &resp); err != nil {
		return session.Session{}, err
	}
	return resp.toSession(), nil
}

// Signup registers a new account.
func (a *Auth) Signup(ctx context.Context, name, email, password string) (session.Session, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var resp authResponse
	if err := a.client.Post(ctx, "/auth/signup", body, &resp); err != nil {
		return session.Session{}, err
	}
	return resp.toSession(), nil
}

// OAuthLoginURL returns the browser navigation target that initiates the
// redirect-based OAuth flow for the given provider ("github" or "google").
func (a *Auth) OAuthLoginURL(provider string) string {
	return a.client.BaseURL() + "/auth/" + provider + "/login"
}
