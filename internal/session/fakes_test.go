// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/taibuivan/pethaul/internal/audit"
	"github.com/taibuivan/pethaul/internal/backend"
	"github.com/taibuivan/pethaul/internal/session"
	"github.com/taibuivan/pethaul/pkg/pointer"
)

// # Backend Fake

var errConnRefused = errors.New("dial tcp: connection refused")

type fakeBackend struct {
	mu sync.Mutex

	check       func() (*backend.SessionPayload, error)
	googleCheck func() (*backend.SessionPayload, error)
	issue       func(attempt int) (string, error)
	login       func(input backend.LoginRequest) (*backend.LoginResponse, error)
	logout      func() ([]*http.Cookie, error)
	update      func(input backend.ProfileUpdate) (*backend.UserPayload, error)

	issueCalls  int
	updateCreds backend.Credentials
}

func (fake *fakeBackend) CheckSession(context.Context, backend.Credentials) (*backend.SessionPayload, error) {
	if fake.check == nil {
		return sessionPayload(false, nil), nil
	}
	return fake.check()
}

func (fake *fakeBackend) CheckGoogleSession(context.Context, backend.Credentials) (*backend.SessionPayload, error) {
	if fake.googleCheck == nil {
		return &backend.SessionPayload{GoogleAuthenticated: pointer.To(false)}, nil
	}
	return fake.googleCheck()
}

func (fake *fakeBackend) IssueToken(context.Context, backend.Credentials, string) (string, error) {
	fake.mu.Lock()
	fake.issueCalls++
	attempt := fake.issueCalls
	fake.mu.Unlock()

	if fake.issue == nil {
		return "bearer-default", nil
	}
	return fake.issue(attempt)
}

func (fake *fakeBackend) Login(_ context.Context, _ backend.Credentials, input backend.LoginRequest) (*backend.LoginResponse, error) {
	return fake.login(input)
}

func (fake *fakeBackend) Logout(context.Context, backend.Credentials) ([]*http.Cookie, error) {
	if fake.logout == nil {
		return nil, nil
	}
	return fake.logout()
}

func (fake *fakeBackend) UpdateProfile(_ context.Context, creds backend.Credentials, input backend.ProfileUpdate) (*backend.UserPayload, error) {
	fake.mu.Lock()
	fake.updateCreds = creds
	fake.mu.Unlock()
	return fake.update(input)
}

func (fake *fakeBackend) issued() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.issueCalls
}

// # Token Store Fake

type memoryTokens struct {
	mu       sync.Mutex
	tokens   map[string]string
	loginIDs map[string]string
	saves    int
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: map[string]string{}, loginIDs: map[string]string{}}
}

func (store *memoryTokens) SaveToken(_ context.Context, sessionID, token string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.tokens[sessionID] = token
	store.saves++
	return nil
}

func (store *memoryTokens) Token(_ context.Context, sessionID string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.tokens[sessionID], nil
}

func (store *memoryTokens) DeleteToken(_ context.Context, sessionID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.tokens, sessionID)
	return nil
}

func (store *memoryTokens) DeleteTokenIfMatch(_ context.Context, sessionID, token string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.tokens[sessionID] == token {
		delete(store.tokens, sessionID)
	}
	return nil
}

func (store *memoryTokens) SaveLoginID(_ context.Context, sessionID, loginID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.loginIDs[sessionID] = loginID
	return nil
}

func (store *memoryTokens) LoginID(_ context.Context, sessionID string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.loginIDs[sessionID], nil
}

func (store *memoryTokens) DeleteLoginID(_ context.Context, sessionID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.loginIDs, sessionID)
	return nil
}

func (store *memoryTokens) saveCount() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.saves
}

// # Audit Fake

type memoryAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (recorder *memoryAudit) Record(_ context.Context, event audit.Event) error {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.events = append(recorder.events, event)
	return nil
}

func (recorder *memoryAudit) actions() []audit.Action {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()

	actions := make([]audit.Action, 0, len(recorder.events))
	for _, event := range recorder.events {
		actions = append(actions, event.Action)
	}
	return actions
}

// # Clock Fake

// recordingSleeper returns immediately and remembers every requested wait.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (sleeper *recordingSleeper) Sleep(_ context.Context, duration time.Duration) error {
	sleeper.mu.Lock()
	defer sleeper.mu.Unlock()
	sleeper.waits = append(sleeper.waits, duration)
	return nil
}

// # Builders

func sessionPayload(authenticated bool, user *backend.UserPayload) *backend.SessionPayload {
	return &backend.SessionPayload{IsAuthenticated: pointer.To(authenticated), User: user}
}

func userPayload(id, role string) *backend.UserPayload {
	return &backend.UserPayload{ID: backend.FlexibleID(id), UserID: "user" + id, Name: "User " + id, Role: role}
}

func serverError() error {
	return &backend.StatusError{Op: "check", StatusCode: http.StatusInternalServerError}
}

func unauthorized() error {
	return &backend.StatusError{Op: "check", StatusCode: http.StatusUnauthorized}
}

// syncLaunch runs background tasks inline so tests observe their effects.
func syncLaunch(task func()) { task() }

type harness struct {
	backend *fakeBackend
	tokens  *memoryTokens
	audit   *memoryAudit
	sleeper *recordingSleeper
	service *session.Service
	store   *session.Store
	now     time.Time
}

func newHarness(fake *fakeBackend, maxUncertain int) *harness {
	h := &harness{
		backend: fake,
		tokens:  newMemoryTokens(),
		audit:   &memoryAudit{},
		sleeper: &recordingSleeper{},
		store:   session.NewStore(session.Reducer{MaxUncertainChecks: maxUncertain}),
		now:     time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}

	h.service = session.NewService(fake, h.tokens, h.audit, session.ServiceConfig{
		Bootstrap: session.BootstrapConfig{
			SettleDelay: 500 * time.Millisecond,
			Policy:      session.DefaultRetryPolicy(),
			Sleeper:     h.sleeper,
		},
		Launch: syncLaunch,
		Now:    func() time.Time { return h.now },
	})
	return h
}

const testSessionID = "0192b1c4-7f3a-7d2e-9c41-5a8e2f6b3d10"
