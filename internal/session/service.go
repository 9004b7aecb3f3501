// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/pethaul/internal/audit"
	"github.com/taibuivan/pethaul/internal/backend"
	"github.com/taibuivan/pethaul/internal/platform/apperr"
	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/platform/ctxutil"
)

// # Contracts

// Backend is the slice of the REST backend the session service drives.
type Backend interface {
	Prober
	TokenSource

	Login(context context.Context, creds backend.Credentials, input backend.LoginRequest) (*backend.LoginResponse, error)
	Logout(context context.Context, creds backend.Credentials) ([]*http.Cookie, error)
	UpdateProfile(context context.Context, creds backend.Credentials, input backend.ProfileUpdate) (*backend.UserPayload, error)
}

// Launcher runs a detached task. The default starts a goroutine.
type Launcher func(task func())

func goLauncher(task func()) { go task() }

// ServiceConfig tunes a [Service]. Zero values pick production defaults.
type ServiceConfig struct {
	Bootstrap BootstrapConfig
	Launch    Launcher
	Now       func() time.Time
}

// # Service

// Service owns every authentication use case of a browser session.
//
// All state changes go through the session's [Store]; the service itself is
// stateless and shared by every browser session.
type Service struct {
	backend      Backend
	tokens       TokenStore
	auditor      audit.Recorder
	reconciler   *Reconciler
	bootstrapper *TokenBootstrapper
	launch       Launcher
	now          func() time.Time
}

// NewService constructs a [Service]. A nil auditor discards audit events.
func NewService(backendClient Backend, tokens TokenStore, auditor audit.Recorder, cfg ServiceConfig) *Service {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	if cfg.Launch == nil {
		cfg.Launch = goLauncher
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		backend:      backendClient,
		tokens:       tokens,
		auditor:      auditor,
		reconciler:   NewReconciler(backendClient),
		bootstrapper: NewTokenBootstrapper(backendClient, tokens, auditor, cfg.Bootstrap),
		launch:       cfg.Launch,
		now:          cfg.Now,
	}
}

// # Unified Check

/*
CheckUnifiedAuth re-derives the session's authentication from the backend.

Description: Only one check runs per browser session at a time; concurrent
callers get the current snapshot (with Loading set) instead of a second
round-trip. An authenticated result with a concrete user id and no cached
bearer token starts the token bootstrap in the background.

Parameters:
  - context: context.Context
  - sessionID: string (gateway browser-session id)
  - store: *Store (the browser session's state)
  - creds: backend.Credentials

Returns:
  - State: The state after the check settled
*/
func (service *Service) CheckUnifiedAuth(context context.Context, sessionID string, store *Store, creds backend.Credentials) State {
	epoch, started := store.BeginCheck()
	if !started {
		return store.Snapshot()
	}

	outcome := service.reconciler.CheckUnifiedAuth(context, creds)
	before, after := store.Transition(CheckSettled{Outcome: outcome, At: service.now(), Epoch: epoch})

	// The uncertainty budget ran out on this check.
	if before.IsAuthenticated && !after.IsAuthenticated && outcome.Uncertain {
		ctxutil.GetLogger(context).Warn("session_expired_after_uncertain_checks",
			slog.String("session_id", sessionID),
		)
		service.record(context, audit.Event{
			SessionID: sessionID,
			UserID:    userID(before.User),
			Action:    audit.ActionSessionExpired,
		})
	}

	if !before.IsAuthenticated && after.IsAuthenticated {
		sessionID = service.rotateSessionID(context, sessionID)
	}

	if after.IsAuthenticated && after.User.HasID() {
		service.ensureToken(context, sessionID, store, creds)
	}

	return after
}

// ensureToken starts a bootstrap when no bearer token is cached.
func (service *Service) ensureToken(context context.Context, sessionID string, store *Store, creds backend.Credentials) {
	token, err := service.tokens.Token(context, sessionID)
	if err != nil {
		ctxutil.GetLogger(context).Warn("token_lookup_failed", slog.Any("error", err))
		return
	}
	if token != "" {
		return
	}

	service.startBootstrap(context, sessionID, store, creds)
}

// startBootstrap runs the token bootstrap detached from the request.
func (service *Service) startBootstrap(ctx context.Context, sessionID string, store *Store, creds backend.Credentials) {
	epoch := store.Snapshot().Epoch
	if !store.tryBeginBootstrap(epoch) {
		return
	}

	// Keep request values (logger, client ip) but outlive the request.
	detached := context.WithoutCancel(ctx)

	service.launch(func() {
		defer store.endBootstrap(epoch)

		taskContext, cancel := context.WithTimeout(detached, constants.BackgroundTaskTimeout)
		defer cancel()

		service.bootstrapper.RunWhile(taskContext, sessionID, creds, func() bool {
			return store.Snapshot().Epoch == epoch
		})
	})
}

// # Login

// LoginInput holds the credentials submitted by the login form.
type LoginInput struct {
	UserID   string
	Password string

	// Remember keeps the login id for form prefill after logout.
	Remember bool
}

// LoginResult is what a successful login hands back to the HTTP layer.
type LoginResult struct {
	User *User

	// Cookies are the backend's Set-Cookie values, to be relayed to the browser.
	Cookies []*http.Cookie
}

/*
Login authenticates the browser session against the backend.

Description: On success the session becomes authenticated immediately and a
token bootstrap is started in the background. On failure the session records a
user-visible error and the previous authentication state is untouched.

Parameters:
  - context: context.Context
  - sessionID: string
  - store: *Store
  - creds: backend.Credentials (the browser's cookies before login)
  - input: LoginInput

Returns:
  - *LoginResult: Logged-in user and backend cookies
  - error: apperr.Unauthorized for bad credentials, apperr.ValidationError for
    rejected input, apperr.Upstream when the backend is unreachable
*/
func (service *Service) Login(context context.Context, sessionID string, store *Store, creds backend.Credentials, input LoginInput) (*LoginResult, error) {
	logger := ctxutil.GetLogger(context).With(slog.String("session_id", sessionID))

	// ── 1. Backend Authentication ─────────────────────────────────────────
	response, err := service.backend.Login(context, creds, backend.LoginRequest{
		UserID:   input.UserID,
		Password: input.Password,
	})
	if err != nil {
		appErr := loginError(err)
		store.Dispatch(LoginFailed{Message: appErr.Message})

		logger.Info("login_failed", slog.Int("status", appErr.HTTPStatus), slog.Any("error", err))
		service.record(context, audit.Event{
			SessionID: sessionID,
			Action:    audit.ActionLoginFailed,
			Detail:    input.UserID,
		})
		return nil, appErr
	}

	// ── 2. User Resolution ────────────────────────────────────────────────
	sessionCreds := creds.WithCookies(response.Cookies)

	user := decodeUser(response.User, ProviderLocal)
	if user == nil {
		// Some backend builds answer login with a message only.
		payload, err := service.backend.CheckSession(context, sessionCreds)
		user = LocalSessionResult{Payload: payload, Err: err}.Normalize().User
	}

	// ── 3. State Transition ───────────────────────────────────────────────
	// The epoch advances before the id moves, so a bootstrap still writing
	// under the old id either loses its token to the rotation or rolls it back.
	store.Dispatch(LoginSucceeded{User: user})

	sessionID = service.rotateSessionID(context, sessionID)
	logger = ctxutil.GetLogger(context).With(slog.String("session_id", sessionID))

	// ── 4. Durable Storage ────────────────────────────────────────────────
	if err := service.tokens.DeleteToken(context, sessionID); err != nil {
		logger.Warn("token_delete_failed", slog.Any("error", err))
	}

	if input.Remember {
		err = service.tokens.SaveLoginID(context, sessionID, input.UserID)
	} else {
		err = service.tokens.DeleteLoginID(context, sessionID)
	}
	if err != nil {
		logger.Warn("saved_login_update_failed", slog.Any("error", err))
	}

	// ── 5. Audit & Token Bootstrap ────────────────────────────────────────
	logger.Info("login_succeeded", slog.String("user_id", userID(user)))
	service.record(context, audit.Event{
		SessionID: sessionID,
		UserID:    userID(user),
		Action:    audit.ActionLogin,
	})

	service.startBootstrap(context, sessionID, store, sessionCreds)

	return &LoginResult{User: user, Cookies: response.Cookies}, nil
}

// loginError maps a backend login failure to a client-safe error.
func loginError(err error) *apperr.AppError {
	switch {
	case backend.IsAuthoritativeRejection(err):
		return apperr.Unauthorized("Invalid user ID or password").WithCause(err)

	case backend.IsStatus(err, http.StatusBadRequest):
		return apperr.ValidationError(statusMessage(err, "Login request was rejected")).WithCause(err)

	default:
		return apperr.Upstream(fmt.Errorf("session_login_failed: %w", err))
	}
}

// # Logout

/*
Logout ends the browser session.

Description: The backend logout is best-effort. Local state and the cached
bearer token are cleared even when the backend cannot be reached.

Returns:
  - []*http.Cookie: Backend cookie deletions to relay (nil if the call failed)
*/
func (service *Service) Logout(context context.Context, sessionID string, store *Store, creds backend.Credentials) []*http.Cookie {
	logger := ctxutil.GetLogger(context).With(slog.String("session_id", sessionID))

	cookies, err := service.backend.Logout(context, creds)
	if err != nil {
		logger.Warn("backend_logout_failed", slog.Any("error", err))
	}

	before, _ := store.Transition(LoggedOut{})

	if err := service.tokens.DeleteToken(context, sessionID); err != nil {
		logger.Warn("token_delete_failed", slog.Any("error", err))
	}

	logger.Info("logout_succeeded")
	service.record(context, audit.Event{
		SessionID: sessionID,
		UserID:    userID(before.User),
		Action:    audit.ActionLogout,
	})

	return cookies
}

// # Profile

// UpdateProfile saves profile changes and refreshes the cached user.
// On failure the session state is left as it was.
func (service *Service) UpdateProfile(context context.Context, sessionID string, store *Store, creds backend.Credentials, input backend.ProfileUpdate) (*User, error) {
	state := store.Snapshot()
	if !state.IsAuthenticated {
		return nil, apperr.Unauthorized("Login is required")
	}

	token, err := service.tokens.Token(context, sessionID)
	if err != nil {
		ctxutil.GetLogger(context).Warn("token_lookup_failed", slog.Any("error", err))
	}
	creds.BearerToken = token

	payload, err := service.backend.UpdateProfile(context, creds, input)
	if err != nil {
		switch {
		case backend.IsAuthoritativeRejection(err):
			return nil, apperr.Unauthorized("Your session has expired").WithCause(err)
		case backend.IsStatus(err, http.StatusBadRequest):
			return nil, apperr.ValidationError(statusMessage(err, "Profile update was rejected")).WithCause(err)
		default:
			return nil, apperr.Upstream(fmt.Errorf("session_update_profile_failed: %w", err))
		}
	}

	provider := ProviderLocal
	if state.User != nil {
		provider = state.User.Provider
	}

	user := decodeUser(payload, provider)
	if user == nil {
		user = &User{Provider: provider}
	}
	if state.User != nil {
		if user.ID == "" {
			user.ID = state.User.ID
		}
		if user.UserID == "" {
			user.UserID = state.User.UserID
		}
	}

	store.Dispatch(UserUpdated{User: user})
	return user, nil
}

// # Durable Client Storage

// SavedLoginID returns the remembered login id for form prefill, or "".
func (service *Service) SavedLoginID(context context.Context, sessionID string) (string, error) {
	loginID, err := service.tokens.LoginID(context, sessionID)
	if err != nil {
		return "", fmt.Errorf("session_saved_login_failed: %w", err)
	}
	return loginID, nil
}

// BearerToken returns the cached bearer token, or "" when none is cached.
func (service *Service) BearerToken(context context.Context, sessionID string) (string, error) {
	token, err := service.tokens.Token(context, sessionID)
	if err != nil {
		return "", fmt.Errorf("session_bearer_token_failed: %w", err)
	}
	return token, nil
}

// InvalidateBearerToken drops a token the backend no longer accepts. The next
// unified check (at the latest after the recheck interval) bootstraps a fresh one.
func (service *Service) InvalidateBearerToken(context context.Context, sessionID string) error {
	if err := service.tokens.DeleteToken(context, sessionID); err != nil {
		return fmt.Errorf("session_invalidate_token_failed: %w", err)
	}
	return nil
}

// # Session Id Rotation

/*
rotateSessionID moves a session that just became authenticated to a fresh id.

Description: An id the browser presented before authentication may have been
planted by someone else, so it must never name an authenticated session. The
remembered login id follows the browser to the new id; a bearer token cached
under the old id is dropped. Without a cookie binding in the context the id is
returned unchanged.

Returns:
  - string: The id the session is known by from now on
*/
func (service *Service) rotateSessionID(context context.Context, sessionID string) string {
	binding := bindingFrom(context)
	if binding == nil {
		return sessionID
	}

	previous, current := binding.rotate()
	logger := ctxutil.GetLogger(context).With(slog.String("session_id", current))

	loginID, err := service.tokens.LoginID(context, previous)
	if err == nil && loginID != "" {
		err = service.tokens.SaveLoginID(context, current, loginID)
	}
	if err == nil {
		err = service.tokens.DeleteLoginID(context, previous)
	}
	if err != nil {
		logger.Warn("saved_login_move_failed", slog.Any("error", err))
	}

	if err := service.tokens.DeleteToken(context, previous); err != nil {
		logger.Warn("token_delete_failed", slog.Any("error", err))
	}

	logger.Info("session_id_rotated")
	return current
}

// # Helpers

func (service *Service) record(context context.Context, event audit.Event) {
	if event.IPAddress == "" {
		event.IPAddress = ctxutil.GetClientIP(context)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = service.now()
	}
	if err := service.auditor.Record(context, event); err != nil {
		ctxutil.GetLogger(context).Warn("audit_record_failed",
			slog.String("action", string(event.Action)),
			slog.Any("error", err),
		)
	}
}

// statusMessage returns the backend's own message for err, or fallback.
func statusMessage(err error, fallback string) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return fallback
}

func userID(user *User) string {
	if user == nil {
		return ""
	}
	return user.ID
}
