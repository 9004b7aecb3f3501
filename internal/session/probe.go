// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"github.com/taibuivan/pethaul/internal/backend"
	"github.com/taibuivan/pethaul/pkg/pointer"
)

// # Probe Results

// Signal is a probe answer normalized to the shape every provider shares.
type Signal struct {
	User                *User
	IsAuthenticated     bool
	GoogleAuthenticated bool
}

// ProbeResult is the settled outcome of one session probe.
//
// Implementations: [LocalSessionResult], [GoogleSessionResult].
type ProbeResult interface {
	// Provider names the probe.
	Provider() Provider

	// Normalize maps the raw answer to a [Signal]. Missing fields default
	// to false/nil and a failed call normalizes to "not authenticated".
	Normalize() Signal

	// Rejected reports whether the call failed without an authoritative
	// answer (transport error, 5xx). A 401/403 is an answer, not a rejection.
	Rejected() bool
}

// LocalSessionResult is the outcome of GET /auth/check.
type LocalSessionResult struct {
	Payload *backend.SessionPayload
	Err     error
}

// Provider implements [ProbeResult].
func (result LocalSessionResult) Provider() Provider { return ProviderLocal }

// Rejected implements [ProbeResult].
func (result LocalSessionResult) Rejected() bool { return rejected(result.Err) }

// Normalize implements [ProbeResult].
func (result LocalSessionResult) Normalize() Signal {
	if result.Err != nil || result.Payload == nil {
		return Signal{}
	}

	authenticated := pointer.First(result.Payload.IsAuthenticated, result.Payload.GoogleAuthenticated)
	return Signal{
		User:                decodeUser(result.Payload.User, ProviderLocal),
		IsAuthenticated:     authenticated,
		GoogleAuthenticated: pointer.First(result.Payload.GoogleAuthenticated),
	}
}

// GoogleSessionResult is the outcome of GET /auth/googlecheck.
type GoogleSessionResult struct {
	Payload *backend.SessionPayload
	Err     error
}

// Provider implements [ProbeResult].
func (result GoogleSessionResult) Provider() Provider { return ProviderGoogle }

// Rejected implements [ProbeResult].
func (result GoogleSessionResult) Rejected() bool { return rejected(result.Err) }

// Normalize implements [ProbeResult].
func (result GoogleSessionResult) Normalize() Signal {
	if result.Err != nil || result.Payload == nil {
		return Signal{}
	}

	authenticated := pointer.First(result.Payload.IsAuthenticated, result.Payload.GoogleAuthenticated)
	return Signal{
		User:                decodeUser(result.Payload.User, ProviderGoogle),
		IsAuthenticated:     authenticated,
		GoogleAuthenticated: authenticated,
	}
}

func rejected(err error) bool {
	return err != nil && !backend.IsAuthoritativeRejection(err)
}
