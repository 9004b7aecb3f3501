// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
)

// ErrTokenExpired is returned when asked to cache a token that has already
// expired.
var ErrTokenExpired = errors.New("session: bearer token already expired")

// # Durable Browser Storage

// TokenStore holds per-browser values that outlive a single request: the
// bearer token and the remembered login id.
//
// Reads return "" with a nil error when nothing is stored.
type TokenStore interface {

	/*
		SaveToken caches the bearer token of a browser session.

		Parameters:
		  - context: context.Context
		  - sessionID: string
		  - token: string

		Returns:
		  - error: ErrTokenExpired or storage failures
	*/
	SaveToken(context context.Context, sessionID, token string) error

	// Token returns the cached bearer token, or "".
	Token(context context.Context, sessionID string) (string, error)

	// DeleteToken invalidates the cached bearer token. Deleting a missing
	// token is not an error.
	DeleteToken(context context.Context, sessionID string) error

	// DeleteTokenIfMatch invalidates the cached bearer token only while it
	// still equals token, so a newer token written meanwhile survives.
	DeleteTokenIfMatch(context context.Context, sessionID, token string) error

	// SaveLoginID remembers the login id for login-form prefill.
	SaveLoginID(context context.Context, sessionID, loginID string) error

	// LoginID returns the remembered login id, or "".
	LoginID(context context.Context, sessionID string) (string, error)

	// DeleteLoginID forgets the remembered login id.
	DeleteLoginID(context context.Context, sessionID string) error
}
