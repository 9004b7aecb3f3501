// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyToken is returned when token issuance answers 2xx without a token.
var ErrEmptyToken = errors.New("backend: token issuance returned no token")

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend_%s_failed: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("backend_%s_failed: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Authoritative reports whether the backend positively rejected the
// credentials, as opposed to failing to answer.
func (e *StatusError) Authoritative() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsAuthoritativeRejection reports whether err carries a 401/403 answer.
func IsAuthoritativeRejection(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Authoritative()
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
