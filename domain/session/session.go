// Package session provides user identity and bearer-token domain types.
package session

// User is the authenticated account identity.
type User struct {
	id        string
	email     string
	name      string
	avatarURL string
}

// NewUser creates a User.
func NewUser(id, email, name, avatarURL string) User {
	return User{id: id, email: email, name: name, avatarURL: avatarURL}
}

// ID returns the account identifier.
func (u User) ID() string { return u.id }

// Email returns the account email.
func (u User) Email() string { return u.email }

// Name returns the display name.
func (u User) Name() string { return u.name }

// AvatarURL returns the optional avatar URL.
func (u User) AvatarURL() string { return u.avatarURL }

// IsEmpty returns true for the zero User.
func (u User) IsEmpty() bool { return u.id == "" }

// Session pairs a user identity with its bearer token.
// A session may hold a token without a user: when the token payload could
// not be decoded the raw token is still kept so requests stay authorized.
type Session struct {
	user  User
	token string
}

// New creates a Session.
func New(user User, token string) Session {
	return Session{user: user, token: token}
}

// User returns the session user (possibly zero).
func (s Session) User() User { return s.user }

// Token returns the bearer token ("" when logged out).
func (s Session) Token() string { return s.token }

// Authenticated returns true when a token is present.
func (s Session) Authenticated() bool { return s.token != "" }
