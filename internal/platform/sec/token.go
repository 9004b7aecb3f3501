// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry returns the "exp" claim of a bearer token when the token is a
// JWT. The signature is NOT verified: the gateway only uses the value to
// decide how long to cache a token the backend itself will validate.
//
// # Returns
//   - The expiry time and true when the token parses and carries "exp".
//   - The zero time and false for opaque tokens.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}

// CacheTTL returns how long a bearer token may be cached, preferring the
// token's own expiry and falling back to fallback for opaque tokens.
// A token that is already expired yields zero.
func CacheTTL(token string, now time.Time, fallback time.Duration) time.Duration {
	expiresAt, ok := TokenExpiry(token)
	if !ok {
		return fallback
	}

	ttl := expiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
