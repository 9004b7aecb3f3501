// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/pethaul/internal/audit"
	"github.com/taibuivan/pethaul/internal/backend"
	"github.com/taibuivan/pethaul/internal/platform/ctxutil"
)

// # Retry Policy

// RetryPolicy bounds the token issuance loop.
type RetryPolicy struct {
	// MaxAttempts is the total number of issuance calls, including the first.
	MaxAttempts int

	// Base is the wait after the first failed attempt.
	Base time.Duration

	// Increment is added to the wait after every further failure.
	Increment time.Duration
}

// DefaultRetryPolicy waits 300ms, 600ms, 900ms, 1.2s between five attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Base: 300 * time.Millisecond, Increment: 300 * time.Millisecond}
}

// Delay returns how long to wait after failed attempt n (1-based).
func (policy RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return policy.Base + time.Duration(attempt-1)*policy.Increment
}

// # Clock Abstraction

// Sleeper waits for a duration or until the context is done.
type Sleeper interface {
	Sleep(context context.Context, duration time.Duration) error
}

// SleeperFunc adapts a function to [Sleeper].
type SleeperFunc func(context context.Context, duration time.Duration) error

// Sleep implements [Sleeper].
func (fn SleeperFunc) Sleep(context context.Context, duration time.Duration) error {
	return fn(context, duration)
}

// TimerSleeper sleeps on a real timer.
var TimerSleeper Sleeper = SleeperFunc(func(context context.Context, duration time.Duration) error {
	if duration <= 0 {
		return context.Err()
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-context.Done():
		return context.Err()
	}
})

// # Token Bootstrap

// TokenSource is the part of the backend the bootstrap talks to.
type TokenSource interface {
	CheckSession(context context.Context, creds backend.Credentials) (*backend.SessionPayload, error)
	IssueToken(context context.Context, creds backend.Credentials, userID string) (string, error)
}

// BootstrapConfig tunes a [TokenBootstrapper].
type BootstrapConfig struct {
	// SettleDelay gives the backend session store time to commit a fresh login.
	SettleDelay time.Duration
	Policy      RetryPolicy
	Sleeper     Sleeper
}

// TokenBootstrapper turns an established cookie session into a cached
// bearer token.
type TokenBootstrapper struct {
	source      TokenSource
	tokens      TokenStore
	auditor     audit.Recorder
	settleDelay time.Duration
	policy      RetryPolicy
	sleeper     Sleeper
}

// NewTokenBootstrapper constructs a [TokenBootstrapper]. A nil Sleeper
// defaults to [TimerSleeper].
func NewTokenBootstrapper(source TokenSource, tokens TokenStore, auditor audit.Recorder, cfg BootstrapConfig) *TokenBootstrapper {
	if cfg.Sleeper == nil {
		cfg.Sleeper = TimerSleeper
	}
	if cfg.Policy.MaxAttempts < 1 {
		cfg.Policy = DefaultRetryPolicy()
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}

	return &TokenBootstrapper{
		source:      source,
		tokens:      tokens,
		auditor:     auditor,
		settleDelay: cfg.SettleDelay,
		policy:      cfg.Policy,
		sleeper:     cfg.Sleeper,
	}
}

/*
Run acquires and caches a bearer token for a browser session.

Description: Waits the settle delay, re-verifies the session, then calls token
issuance up to Policy.MaxAttempts times with growing waits. The first token
obtained is stored and the loop stops. Every failure is swallowed: the
session keeps working on cookie auth without a bearer token.

Parameters:
  - context: context.Context (cancellation aborts the remaining waits)
  - sessionID: string (gateway browser-session id)
  - creds: backend.Credentials

Returns:
  - bool: Whether a token was stored
*/
func (bootstrapper *TokenBootstrapper) Run(context context.Context, sessionID string, creds backend.Credentials) bool {
	return bootstrapper.RunWhile(context, sessionID, creds, func() bool { return true })
}

// RunWhile is [TokenBootstrapper.Run] for a bootstrap that may be superseded.
// current is consulted before every issuance attempt and on both sides of the
// token write; once it reports false the run stops, and a token it already
// wrote is removed unless something newer replaced it.
func (bootstrapper *TokenBootstrapper) RunWhile(context context.Context, sessionID string, creds backend.Credentials, current func() bool) bool {
	logger := ctxutil.GetLogger(context).With(slog.String("session_id", sessionID))

	// ── 1. Settle Delay ───────────────────────────────────────────────────
	if err := bootstrapper.sleeper.Sleep(context, bootstrapper.settleDelay); err != nil {
		logger.Debug("token_bootstrap_cancelled", slog.Any("error", err))
		return false
	}

	// ── 2. Session Re-verification ────────────────────────────────────────
	payload, err := bootstrapper.source.CheckSession(context, creds)
	signal := LocalSessionResult{Payload: payload, Err: err}.Normalize()
	if !signal.IsAuthenticated || !signal.User.HasID() {
		logger.Info("token_bootstrap_skipped_no_session",
			slog.Bool("authenticated", signal.IsAuthenticated),
			slog.Any("error", err),
		)
		return false
	}
	userID := signal.User.ID

	// ── 3. Issuance With Backoff ──────────────────────────────────────────
	for attempt := 1; attempt <= bootstrapper.policy.MaxAttempts; attempt++ {
		if !current() {
			logger.Debug("token_bootstrap_superseded", slog.Int("attempt", attempt))
			return false
		}

		token, err := bootstrapper.source.IssueToken(context, creds, userID)
		if err == nil {

			// ── 4. Persist Once ───────────────────────────────────────────
			if !current() {
				logger.Debug("token_bootstrap_superseded", slog.Int("attempt", attempt))
				return false
			}

			if err := bootstrapper.tokens.SaveToken(context, sessionID, token); err != nil {
				logger.Warn("token_bootstrap_store_failed", slog.Any("error", err))
				return false
			}

			// A login or logout may have landed while the write was in flight.
			if !current() {
				if err := bootstrapper.tokens.DeleteTokenIfMatch(context, sessionID, token); err != nil {
					logger.Warn("token_bootstrap_rollback_failed", slog.Any("error", err))
				}
				logger.Debug("token_bootstrap_superseded", slog.Int("attempt", attempt))
				return false
			}

			logger.Info("token_bootstrap_succeeded", slog.Int("attempt", attempt))
			bootstrapper.record(context, logger, audit.Event{
				SessionID: sessionID,
				UserID:    userID,
				Action:    audit.ActionTokenIssued,
			})
			return true
		}

		logger.Debug("token_bootstrap_attempt_failed",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)

		if attempt == bootstrapper.policy.MaxAttempts {
			break
		}

		if err := bootstrapper.sleeper.Sleep(context, bootstrapper.policy.Delay(attempt)); err != nil {
			logger.Debug("token_bootstrap_cancelled", slog.Any("error", err))
			return false
		}
	}

	// ── 5. Give Up Silently ───────────────────────────────────────────────
	logger.Warn("token_bootstrap_abandoned", slog.Int("attempts", bootstrapper.policy.MaxAttempts))
	bootstrapper.record(context, logger, audit.Event{
		SessionID: sessionID,
		UserID:    userID,
		Action:    audit.ActionTokenAbandoned,
	})
	return false
}

func (bootstrapper *TokenBootstrapper) record(context context.Context, logger *slog.Logger, event audit.Event) {
	if event.IPAddress == "" {
		event.IPAddress = ctxutil.GetClientIP(context)
	}
	if err := bootstrapper.auditor.Record(context, event); err != nil {
		logger.Warn("audit_record_failed", slog.String("action", string(event.Action)), slog.Any("error", err))
	}
}
