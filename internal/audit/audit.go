// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package audit records session lifecycle events (logins, logouts, token
bootstrap outcomes) for later diagnosis.

Recording is best-effort: callers log a failed [Recorder.Record] and carry on.
An audit outage must never block a login.
*/
package audit

import (
	"context"
	"time"
)

// Action names a recorded session event.
type Action string

const (
	ActionLogin          Action = "login"
	ActionLoginFailed    Action = "login_failed"
	ActionLogout         Action = "logout"
	ActionTokenIssued    Action = "token_issued"
	ActionTokenAbandoned Action = "token_abandoned"

	// ActionSessionExpired marks a session dropped after too many
	// inconclusive checks in a row.
	ActionSessionExpired Action = "session_expired"
)

// Event is one audit row.
type Event struct {
	SessionID string
	UserID    string
	Action    Action
	Detail    string
	IPAddress string
	CreatedAt time.Time
}

// Recorder persists audit events.
type Recorder interface {
	Record(context context.Context, event Event) error
}

// Nop discards every event. It is used when no audit database is configured.
type Nop struct{}

// Record implements [Recorder].
func (Nop) Record(context.Context, Event) error { return nil }
