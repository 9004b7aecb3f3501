// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/pethaul/internal/platform/sec"
	"github.com/taibuivan/pethaul/internal/session"
)

func authenticatedState(reducer session.Reducer) session.State {
	user := &session.User{ID: "7", UserID: "mungmung", Role: sec.RoleUser, Provider: session.ProviderLocal}
	return reducer.Reduce(session.State{}, session.LoginSucceeded{User: user})
}

func settle(reducer session.Reducer, state session.State, outcome session.Outcome) session.State {
	state = reducer.Reduce(state, session.CheckStarted{})
	return reducer.Reduce(state, session.CheckSettled{Outcome: outcome, At: time.Now(), Epoch: state.Epoch})
}

/*
TestReducer_UncertainCheckPreservesSession verifies that a failed check never
logs an authenticated user out on its own.
*/
func TestReducer_UncertainCheckPreservesSession(t *testing.T) {
	reducer := session.Reducer{}
	state := authenticatedState(reducer)

	for range 10 {
		state = settle(reducer, state, session.Outcome{Uncertain: true})
	}

	assert.True(t, state.IsAuthenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, "7", state.User.ID)
	assert.False(t, state.Loading)
	assert.Equal(t, 10, state.UncertainStreak)
}

func TestReducer_StalenessBound(t *testing.T) {
	reducer := session.Reducer{MaxUncertainChecks: 3}
	state := authenticatedState(reducer)

	state = settle(reducer, state, session.Outcome{Uncertain: true})
	state = settle(reducer, state, session.Outcome{Uncertain: true})
	assert.True(t, state.IsAuthenticated)

	state = settle(reducer, state, session.Outcome{Uncertain: true})
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.Zero(t, state.UncertainStreak)
}

func TestReducer_ConfirmedCheckResetsStreak(t *testing.T) {
	reducer := session.Reducer{MaxUncertainChecks: 2}
	state := authenticatedState(reducer)

	state = settle(reducer, state, session.Outcome{Uncertain: true})
	state = settle(reducer, state, session.Outcome{IsAuthenticated: true})
	state = settle(reducer, state, session.Outcome{Uncertain: true})

	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, 1, state.UncertainStreak)

	// A user-less confirmation keeps the known user.
	require.NotNil(t, state.User)
	assert.Equal(t, "7", state.User.ID)
}

func TestReducer_DefinitiveNoSessionLogsOut(t *testing.T) {
	reducer := session.Reducer{}
	state := authenticatedState(reducer)

	state = settle(reducer, state, session.Outcome{})

	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.GoogleAuthenticated)
	assert.Nil(t, state.User)
	assert.True(t, state.Verified)
}

func TestReducer_UncertainWhileAnonymousStaysAnonymous(t *testing.T) {
	reducer := session.Reducer{}
	state := settle(reducer, session.State{}, session.Outcome{Uncertain: true})

	assert.False(t, state.IsAuthenticated)
	assert.True(t, state.Verified)
	assert.Zero(t, state.UncertainStreak)
}

/*
TestReducer_StaleCheckIgnored covers a check that started before a login and
settled after it.
*/
func TestReducer_StaleCheckIgnored(t *testing.T) {
	reducer := session.Reducer{}

	state := reducer.Reduce(session.State{}, session.CheckStarted{})
	staleEpoch := state.Epoch

	state = reducer.Reduce(state, session.LoginSucceeded{User: &session.User{ID: "7"}})
	state = reducer.Reduce(state, session.CheckSettled{Outcome: session.Outcome{}, Epoch: staleEpoch})

	assert.True(t, state.IsAuthenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, "7", state.User.ID)
}

func TestReducer_LoginFailedKeepsState(t *testing.T) {
	reducer := session.Reducer{}
	state := authenticatedState(reducer)

	state = reducer.Reduce(state, session.LoginFailed{Message: "Invalid user ID or password"})
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "Invalid user ID or password", state.Error)

	state = reducer.Reduce(state, session.LoginSucceeded{User: &session.User{ID: "8", Provider: session.ProviderGoogle}})
	assert.Empty(t, state.Error)
	assert.True(t, state.GoogleAuthenticated)
}

func TestReducer_LoggedOut(t *testing.T) {
	reducer := session.Reducer{}
	state := authenticatedState(reducer)

	state = reducer.Reduce(state, session.LoggedOut{})

	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.GoogleAuthenticated)
	assert.Nil(t, state.User)
	assert.True(t, state.Verified)
}

func TestReducer_UserUpdatedIgnoredWhenAnonymous(t *testing.T) {
	reducer := session.Reducer{}

	state := reducer.Reduce(session.State{}, session.UserUpdated{User: &session.User{ID: "7"}})
	assert.Nil(t, state.User)

	state = authenticatedState(reducer)
	state = reducer.Reduce(state, session.UserUpdated{User: &session.User{ID: "7", Name: "Bori"}})
	assert.Equal(t, "Bori", state.User.Name)
}

func TestStore_BeginCheckIsExclusive(t *testing.T) {
	store := session.NewStore(session.Reducer{})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.BeginCheck(); ok {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)
	assert.True(t, store.Snapshot().Loading)

	before, after := store.Transition(session.CheckSettled{Epoch: store.Snapshot().Epoch})
	assert.True(t, before.Loading)
	assert.False(t, after.Loading)

	_, ok := store.BeginCheck()
	assert.True(t, ok)
}
