package session_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repovista/repovista/domain/session"
)

func token(t *testing.T, claims map[string]any) string {
	t.Helper()
	encode := func(v map[string]any) string {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(raw)
	}
	return encode(map[string]any{"alg": "HS256", "typ": "JWT"}) + "." + encode(claims) + ".sig"
}

func TestUserFromToken(t *testing.T) {
	user, err := session.UserFromToken(token(t, map[string]any{
		"sub":        "u1",
		"email":      "a@b.com",
		"name":       "Ada",
		"avatar_url": "https://avatars.test/u1",
	}))
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID())
	assert.Equal(t, "a@b.com", user.Email())
	assert.Equal(t, "Ada", user.Name())
	assert.Equal(t, "https://avatars.test/u1", user.AvatarURL())
}

func TestUserFromTokenSubjectFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		wantID string
	}{
		{"user_id claim", map[string]any{"user_id": "u2"}, "u2"},
		{"id claim", map[string]any{"id": "u3"}, "u3"},
		{"numeric subject", map[string]any{"sub": float64(42)}, "42"},
		{"sub wins over id", map[string]any{"sub": "u1", "id": "u9"}, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := session.UserFromToken(token(t, tt.claims))
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID())
		})
	}
}

func TestUserFromTokenNameDefaults(t *testing.T) {
	user, err := session.UserFromToken(token(t, map[string]any{"sub": "u1"}))
	require.NoError(t, err)
	assert.Equal(t, "Analyst", user.Name())
}

func TestUserFromTokenMalformed(t *testing.T) {
	_, err := session.UserFromToken("not-a-jwt")
	assert.ErrorIs(t, err, session.ErrTokenDecode)
}

func TestUserFromTokenWithoutSubject(t *testing.T) {
	_, err := session.UserFromToken(token(t, map[string]any{"email": "a@b.com"}))
	assert.ErrorIs(t, err, session.ErrTokenDecode)
}
