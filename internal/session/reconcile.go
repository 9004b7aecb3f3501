// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/pethaul/internal/backend"
)

// # Contracts

// Prober issues the two backend session probes.
type Prober interface {
	CheckSession(context context.Context, creds backend.Credentials) (*backend.SessionPayload, error)
	CheckGoogleSession(context context.Context, creds backend.Credentials) (*backend.SessionPayload, error)
}

// Outcome is the merged answer of one unified check.
type Outcome struct {
	User                *User
	IsAuthenticated     bool
	GoogleAuthenticated bool

	// Uncertain is set when nobody answered "authenticated" and at least one
	// probe failed to answer at all. Consumers must not treat it as logout.
	Uncertain bool
}

// # Reconciliation

// Reconciler merges the local and Google session probes.
type Reconciler struct {
	prober Prober
}

// NewReconciler constructs a [Reconciler].
func NewReconciler(prober Prober) *Reconciler {
	return &Reconciler{prober: prober}
}

/*
CheckUnifiedAuth runs both probes concurrently and merges what they report.

Description: Each probe settles on its own; a failing probe never cancels or
delays the other. All failures are absorbed into [Outcome.Uncertain], so this
operation has no error return.

Parameters:
  - context: context.Context
  - creds: backend.Credentials (the browser's backend cookies)

Returns:
  - Outcome: Merged authentication view
*/
func (reconciler *Reconciler) CheckUnifiedAuth(context context.Context, creds backend.Credentials) Outcome {
	var (
		group  errgroup.Group
		local  LocalSessionResult
		google GoogleSessionResult
	)

	// Goroutines always return nil so errgroup never short-circuits.
	group.Go(func() error {
		payload, err := reconciler.prober.CheckSession(context, creds)
		local = LocalSessionResult{Payload: payload, Err: err}
		return nil
	})

	group.Go(func() error {
		payload, err := reconciler.prober.CheckGoogleSession(context, creds)
		google = GoogleSessionResult{Payload: payload, Err: err}
		return nil
	})

	_ = group.Wait()

	return Reconcile(local, google)
}

/*
Reconcile merges settled probe results into one [Outcome].

Description: Authenticated signals are candidates. Among several, one that
carries a user object wins; ties keep probe order. With no candidate the
outcome is unauthenticated, and uncertain if any probe was rejected.
*/
func Reconcile(results ...ProbeResult) Outcome {
	candidates := make([]Signal, 0, len(results))
	uncertain := false

	for _, result := range results {
		if result.Rejected() {
			uncertain = true
		}

		signal := result.Normalize()
		if signal.IsAuthenticated {
			candidates = append(candidates, signal)
		}
	}

	if len(candidates) == 0 {
		return Outcome{Uncertain: uncertain}
	}

	slices.SortStableFunc(candidates, func(a, b Signal) int {
		return hasUserRank(a) - hasUserRank(b)
	})

	chosen := candidates[0]
	return Outcome{
		User:                chosen.User,
		IsAuthenticated:     true,
		GoogleAuthenticated: chosen.GoogleAuthenticated,
	}
}

// hasUserRank orders signals carrying a user first.
func hasUserRank(signal Signal) int {
	if signal.User != nil {
		return 0
	}
	return 1
}
