// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/platform/ctxutil"
	"github.com/taibuivan/pethaul/internal/session"
	"github.com/taibuivan/pethaul/pkg/uuidv7"
)

func TestRegistry_GetReturnsSameStore(t *testing.T) {
	registry := session.NewRegistry(session.Reducer{})

	first := registry.Get(testSessionID)
	assert.Same(t, first, registry.Get(testSessionID))
	assert.NotSame(t, first, registry.Get(uuidv7.New()))
	assert.Equal(t, 2, registry.Len())
}

func TestRegistry_Rekey(t *testing.T) {
	registry := session.NewRegistry(session.Reducer{})
	store := registry.Get(testSessionID)

	fresh := registry.Rekey(testSessionID, store)

	assert.True(t, uuidv7.Valid(fresh))
	assert.NotEqual(t, testSessionID, fresh)
	assert.Same(t, store, registry.Get(fresh))
	assert.NotSame(t, store, registry.Get(testSessionID))

	// A store that no longer owns the old id leaves the new owner alone.
	owner := registry.Get(testSessionID)
	registry.Rekey(testSessionID, store)
	assert.Same(t, owner, registry.Get(testSessionID))
}

func TestRegistry_Sweep(t *testing.T) {
	registry := session.NewRegistry(session.Reducer{})
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	registry.SetClock(func() time.Time { return now })

	registry.Get("idle")
	now = now.Add(90 * time.Minute)
	registry.Get("active")
	now = now.Add(60 * time.Minute)

	assert.Equal(t, 1, registry.Sweep(2*time.Hour))
	assert.Equal(t, 1, registry.Len())

	// The active session survives and keeps its store.
	store := registry.Get("active")
	store.Dispatch(session.LoggedOut{})
	assert.True(t, registry.Get("active").Snapshot().Verified)
}

func TestSweeper_RunOnce(t *testing.T) {
	registry := session.NewRegistry(session.Reducer{})
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	registry.SetClock(func() time.Time { return now })
	registry.Get(testSessionID)
	now = now.Add(3 * time.Hour)

	sweeper := session.NewSweeper(registry, "@every 10m", 2*time.Hour, slog.Default())
	sweeper.RunOnce()

	assert.Zero(t, registry.Len())
}

func TestSweeper_RejectsBadSchedule(t *testing.T) {
	sweeper := session.NewSweeper(session.NewRegistry(session.Reducer{}), "not a schedule", time.Hour, slog.Default())
	assert.Error(t, sweeper.Start())
}

/*
TestRegistry_Attach checks cookie issuance and reuse.
*/
func TestRegistry_Attach(t *testing.T) {
	registry := session.NewRegistry(session.Reducer{})

	var (
		seenID    string
		seenStore *session.Store
	)
	handler := registry.Attach(true)(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		seenID = ctxutil.GetSessionID(request.Context())
		seenStore = session.StoreFrom(request.Context())
	}))

	// 1. First visit issues a cookie
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, constants.SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.True(t, uuidv7.Valid(cookie.Value))
	assert.Equal(t, cookie.Value, seenID)
	require.NotNil(t, seenStore)
	firstStore := seenStore

	// 2. Returning visit reuses the session
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: cookie.Value})
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Empty(t, recorder.Result().Cookies())
	assert.Equal(t, cookie.Value, seenID)
	assert.Same(t, firstStore, seenStore)

	// 3. A forged id is replaced
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "../../etc/passwd"})
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.Len(t, recorder.Result().Cookies(), 1)
	assert.NotEqual(t, "../../etc/passwd", seenID)
	assert.True(t, uuidv7.Valid(seenID))
}
