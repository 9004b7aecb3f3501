// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"sync"

	"github.com/taibuivan/pethaul/internal/platform/ctxkey"
)

// Store holds the reconciled state of one browser session.
//
// Concurrent requests from the same browser share a Store. Every mutation is
// serialized through [Store.Dispatch], so the reducer sees one action at a
// time even though the network calls producing those actions overlap.
type Store struct {
	mu      sync.Mutex
	state   State
	reducer Reducer

	bootstrapping  bool
	bootstrapEpoch uint64
}

// NewStore creates a Store in the unauthenticated default state.
func NewStore(reducer Reducer) *Store {
	return &Store{reducer: reducer}
}

// Dispatch applies action and returns the resulting state.
func (store *Store) Dispatch(action Action) State {
	_, next := store.Transition(action)
	return next
}

// Transition applies action and returns the states before and after it.
func (store *Store) Transition(action Action) (before, after State) {
	store.mu.Lock()
	defer store.mu.Unlock()

	before = store.state
	store.state = store.reducer.Reduce(store.state, action)
	return before, store.state
}

// Snapshot returns a copy of the current state.
func (store *Store) Snapshot() State {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state
}

// BeginCheck marks a unified check as in flight unless one already is.
//
// # Returns
//   - The epoch the check belongs to (pass it back in [CheckSettled]).
//   - false when another check is running; the caller must not start one.
func (store *Store) BeginCheck() (uint64, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.state.Loading {
		return 0, false
	}

	store.state = store.reducer.Reduce(store.state, CheckStarted{})
	return store.state.Epoch, true
}

// tryBeginBootstrap claims the right to run a token bootstrap for the given
// epoch. It returns false while a bootstrap of the same epoch is running; a
// login or logout opens a new epoch and may start its own.
func (store *Store) tryBeginBootstrap(epoch uint64) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.bootstrapping && store.bootstrapEpoch == epoch {
		return false
	}
	store.bootstrapping = true
	store.bootstrapEpoch = epoch
	return true
}

func (store *Store) endBootstrap(epoch uint64) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.bootstrapEpoch == epoch {
		store.bootstrapping = false
	}
}

// # Context Helpers

// WithStore returns a new context carrying the session store.
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, ctxkey.KeySessionStore, store)
}

// StoreFrom retrieves the session store, or nil outside the session middleware.
func StoreFrom(ctx context.Context) *Store {
	store, _ := ctx.Value(ctxkey.KeySessionStore).(*Store)
	return store
}
