// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/pethaul/internal/audit"
	"github.com/taibuivan/pethaul/internal/backend"
	"github.com/taibuivan/pethaul/internal/session"
)

func newBootstrapper(fake *fakeBackend, tokens *memoryTokens, recorder *memoryAudit, sleeper session.Sleeper) *session.TokenBootstrapper {
	return session.NewTokenBootstrapper(fake, tokens, recorder, session.BootstrapConfig{
		SettleDelay: 500 * time.Millisecond,
		Policy:      session.DefaultRetryPolicy(),
		Sleeper:     sleeper,
	})
}

func authenticatedBackend() *fakeBackend {
	return &fakeBackend{
		check: func() (*backend.SessionPayload, error) {
			return sessionPayload(true, userPayload("7", "USER")), nil
		},
	}
}

func TestRetryPolicy_Delay(t *testing.T) {
	policy := session.DefaultRetryPolicy()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 300 * time.Millisecond},
		{2, 600 * time.Millisecond},
		{3, 900 * time.Millisecond},
		{4, 1200 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

/*
TestTokenBootstrapper_RecoversOnFifthAttempt: four failures then success
stores the token exactly once.
*/
func TestTokenBootstrapper_RecoversOnFifthAttempt(t *testing.T) {
	fake := authenticatedBackend()
	fake.issue = func(attempt int) (string, error) {
		if attempt < 5 {
			return "", serverError()
		}
		return "bearer-5", nil
	}
	tokens := newMemoryTokens()
	recorder := &memoryAudit{}
	sleeper := &recordingSleeper{}

	ok := newBootstrapper(fake, tokens, recorder, sleeper).Run(context.Background(), testSessionID, backend.Credentials{})

	assert.True(t, ok)
	assert.Equal(t, 5, fake.issued())
	assert.Equal(t, 1, tokens.saveCount())

	token, _ := tokens.Token(context.Background(), testSessionID)
	assert.Equal(t, "bearer-5", token)

	// Settle delay then the growing backoff between attempts.
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		300 * time.Millisecond,
		600 * time.Millisecond,
		900 * time.Millisecond,
		1200 * time.Millisecond,
	}, sleeper.waits)
	assert.Equal(t, []audit.Action{audit.ActionTokenIssued}, recorder.actions())
}

/*
TestTokenBootstrapper_GivesUpSilently: five failures store nothing and raise
nothing.
*/
func TestTokenBootstrapper_GivesUpSilently(t *testing.T) {
	fake := authenticatedBackend()
	fake.issue = func(int) (string, error) { return "", errConnRefused }
	tokens := newMemoryTokens()
	recorder := &memoryAudit{}

	ok := newBootstrapper(fake, tokens, recorder, &recordingSleeper{}).Run(context.Background(), testSessionID, backend.Credentials{})

	assert.False(t, ok)
	assert.Equal(t, 5, fake.issued())
	assert.Zero(t, tokens.saveCount())
	assert.Equal(t, []audit.Action{audit.ActionTokenAbandoned}, recorder.actions())
}

func TestTokenBootstrapper_SkipsWithoutSession(t *testing.T) {
	tests := []struct {
		name  string
		check func() (*backend.SessionPayload, error)
	}{
		{"not_authenticated", func() (*backend.SessionPayload, error) { return sessionPayload(false, nil), nil }},
		{"no_user_id", func() (*backend.SessionPayload, error) { return sessionPayload(true, &backend.UserPayload{UserID: "x"}), nil }},
		{"check_failed", func() (*backend.SessionPayload, error) { return nil, serverError() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBackend{check: tt.check}
			tokens := newMemoryTokens()

			ok := newBootstrapper(fake, tokens, &memoryAudit{}, &recordingSleeper{}).Run(context.Background(), testSessionID, backend.Credentials{})

			assert.False(t, ok)
			assert.Zero(t, fake.issued())
			assert.Zero(t, tokens.saveCount())
		})
	}
}

func TestTokenBootstrapper_CancelledDuringBackoff(t *testing.T) {
	fake := authenticatedBackend()
	fake.issue = func(int) (string, error) { return "", serverError() }

	calls := 0
	sleeper := session.SleeperFunc(func(context.Context, time.Duration) error {
		calls++
		if calls > 2 {
			return context.Canceled
		}
		return nil
	})

	ok := newBootstrapper(fake, newMemoryTokens(), &memoryAudit{}, sleeper).Run(context.Background(), testSessionID, backend.Credentials{})

	assert.False(t, ok)
	assert.Equal(t, 2, fake.issued())
}

/*
TestTokenBootstrapper_Superseded: a login or logout during the run stops it
before a token of the previous epoch can be stored.
*/
func TestTokenBootstrapper_Superseded(t *testing.T) {
	tests := []struct {
		name       string
		current    func(checks int) bool
		wantIssued int
	}{
		{"before_first_attempt", func(int) bool { return false }, 0},
		{"after_issuance", func(checks int) bool { return checks < 2 }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := authenticatedBackend()
			fake.issue = func(int) (string, error) { return "bearer-old", nil }
			tokens := newMemoryTokens()
			recorder := &memoryAudit{}

			checks := 0
			current := func() bool {
				checks++
				return tt.current(checks)
			}

			ok := newBootstrapper(fake, tokens, recorder, &recordingSleeper{}).
				RunWhile(context.Background(), testSessionID, backend.Credentials{}, current)

			assert.False(t, ok)
			assert.Equal(t, tt.wantIssued, fake.issued())
			assert.Zero(t, tokens.saveCount())
			assert.Empty(t, recorder.actions())
		})
	}
}

/*
TestTokenBootstrapper_SupersededDuringWrite: a logout landing while the token
write is in flight leaves no token behind.
*/
func TestTokenBootstrapper_SupersededDuringWrite(t *testing.T) {
	fake := authenticatedBackend()
	fake.issue = func(int) (string, error) { return "bearer-old", nil }
	tokens := newMemoryTokens()
	recorder := &memoryAudit{}

	// Two checks pass (before issuance, before the write); the third sees the new epoch.
	checks := 0
	current := func() bool {
		checks++
		return checks < 3
	}

	ok := newBootstrapper(fake, tokens, recorder, &recordingSleeper{}).
		RunWhile(context.Background(), testSessionID, backend.Credentials{}, current)

	assert.False(t, ok)
	assert.Equal(t, 1, tokens.saveCount())
	token, _ := tokens.Token(context.Background(), testSessionID)
	assert.Empty(t, token)
	assert.Empty(t, recorder.actions())
}

/*
TestTokenBootstrapper_RollbackKeepsNewerToken: the rollback of a superseded
write never removes a token stored by the newer epoch.
*/
func TestTokenBootstrapper_RollbackKeepsNewerToken(t *testing.T) {
	fake := authenticatedBackend()
	fake.issue = func(int) (string, error) { return "bearer-old", nil }
	tokens := newMemoryTokens()

	checks := 0
	current := func() bool {
		checks++
		if checks == 3 {
			// The newer bootstrap finished first.
			_ = tokens.SaveToken(context.Background(), testSessionID, "bearer-new")
			return false
		}
		return true
	}

	ok := newBootstrapper(fake, tokens, &memoryAudit{}, &recordingSleeper{}).
		RunWhile(context.Background(), testSessionID, backend.Credentials{}, current)

	assert.False(t, ok)
	token, _ := tokens.Token(context.Background(), testSessionID)
	assert.Equal(t, "bearer-new", token)
}

func TestTimerSleeper_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := session.TimerSleeper.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, session.TimerSleeper.Sleep(context.Background(), time.Millisecond))
}
