// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import "time"

// # Reconciled State

// State is the reconciled authentication view of one browser session.
type State struct {
	User                *User  `json:"user"`
	IsAuthenticated     bool   `json:"isAuthenticated"`
	GoogleAuthenticated bool   `json:"googleAuthenticated"`
	Loading             bool   `json:"loading"`
	Error               string `json:"error,omitempty"`

	// Verified is set once any check, login or logout has settled.
	Verified bool `json:"verified"`

	// UncertainStreak counts consecutive uncertain checks absorbed while
	// authenticated.
	UncertainStreak int `json:"-"`

	// CheckedAt is when the last unified check settled.
	CheckedAt time.Time `json:"-"`

	// Epoch advances on login and logout. A check started in an older
	// epoch is stale and must not overwrite the newer login/logout.
	Epoch uint64 `json:"-"`
}

// # Actions

// Action is a state transition request. The set is closed.
type Action interface {
	isAction()
}

// CheckStarted marks a unified check as in flight.
type CheckStarted struct{}

// CheckSettled delivers the merged outcome of a unified check.
type CheckSettled struct {
	Outcome Outcome
	At      time.Time
	Epoch   uint64
}

// LoginSucceeded installs the user returned by a successful login.
type LoginSucceeded struct {
	User *User
}

// LoginFailed records a user-visible login error.
type LoginFailed struct {
	Message string
}

// LoggedOut tears the session down.
type LoggedOut struct{}

// UserUpdated refreshes the cached user after a profile change.
type UserUpdated struct {
	User *User
}

func (CheckStarted) isAction()   {}
func (CheckSettled) isAction()   {}
func (LoginSucceeded) isAction() {}
func (LoginFailed) isAction()    {}
func (LoggedOut) isAction()      {}
func (UserUpdated) isAction()    {}

// # Reducer

// Reducer is the only function allowed to produce a new [State].
type Reducer struct {
	// MaxUncertainChecks is how many consecutive uncertain checks an
	// authenticated session survives. The check that reaches the limit
	// deauthenticates. Zero means no limit.
	MaxUncertainChecks int
}

// Reduce applies action to state and returns the next state. It is pure.
func (reducer Reducer) Reduce(state State, action Action) State {
	switch action := action.(type) {

	case CheckStarted:
		state.Loading = true
		return state

	case CheckSettled:
		return reducer.settle(state, action)

	case LoginSucceeded:
		state.User = action.User
		state.IsAuthenticated = true
		state.GoogleAuthenticated = action.User != nil && action.User.Provider == ProviderGoogle
		state.Loading = false
		state.Error = ""
		state.Verified = true
		state.UncertainStreak = 0
		state.Epoch++
		return state

	case LoginFailed:
		state.Error = action.Message
		return state

	case LoggedOut:
		state.User = nil
		state.IsAuthenticated = false
		state.GoogleAuthenticated = false
		state.Loading = false
		state.Error = ""
		state.Verified = true
		state.UncertainStreak = 0
		state.Epoch++
		return state

	case UserUpdated:
		if state.IsAuthenticated && action.User != nil {
			state.User = action.User
		}
		return state
	}

	return state
}

func (reducer Reducer) settle(state State, action CheckSettled) State {

	// A login or logout happened while this check was in flight.
	if action.Epoch != state.Epoch {
		return state
	}

	state.Loading = false
	state.Verified = true
	state.CheckedAt = action.At
	outcome := action.Outcome

	// 1. Authoritative "authenticated"
	if outcome.IsAuthenticated {
		if outcome.User != nil || !state.IsAuthenticated {
			state.User = outcome.User
		}
		state.IsAuthenticated = true
		state.GoogleAuthenticated = outcome.GoogleAuthenticated
		state.UncertainStreak = 0
		state.Error = ""
		return state
	}

	// 2. Inconclusive while authenticated: keep the current view
	if outcome.Uncertain && state.IsAuthenticated {
		state.UncertainStreak++
		if reducer.MaxUncertainChecks == 0 || state.UncertainStreak < reducer.MaxUncertainChecks {
			return state
		}
	}

	// 3. Not authenticated (or the uncertainty budget is spent)
	state.User = nil
	state.IsAuthenticated = false
	state.GoogleAuthenticated = false
	state.UncertainStreak = 0
	return state
}
