package session

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenDecode indicates the token payload could not be decoded.
// Signature verification is the backend's job; the client only reads claims,
// so this fires on malformed structure, not on an untrusted signature.
var ErrTokenDecode = errors.New("decode token payload")

// UserFromToken extracts the user identity from a bearer token's claims.
// The subject is taken from "sub", "user_id" or "id" (first present), the
// display name defaults to "Analyst" when the claim is missing.
func UserFromToken(token string) (User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrTokenDecode, err)
	}

	id := firstClaimString(claims, "sub", "user_id", "id")
	if id == "" {
		return User{}, fmt.Errorf("%w: no subject claim", ErrTokenDecode)
	}

	name := firstClaimString(claims, "name")
	if name == "" {
		name = "Analyst"
	}

	return NewUser(
		id,
		firstClaimString(claims, "email"),
		name,
		firstClaimString(claims, "avatar_url"),
	), nil
}

// firstClaimString returns the first present claim, converted to a string.
// Numeric subjects are common; JSON numbers arrive as float64.
func firstClaimString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		v, ok := claims[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val
			}
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		case int64:
			return strconv.FormatInt(val, 10)
		}
	}
	return ""
}
