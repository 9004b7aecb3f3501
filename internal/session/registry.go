// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/platform/ctxkey"
	"github.com/taibuivan/pethaul/internal/platform/ctxutil"
	"github.com/taibuivan/pethaul/pkg/uuidv7"
)

// # Registry

// Registry maps gateway session ids to their [Store].
//
// Stores live in memory only. An evicted session is rebuilt from the backend
// on its next request; the bearer token and saved login id survive in the
// [TokenStore].
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	reducer Reducer

	// now is swapped in tests.
	now func() time.Time
}

type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// NewRegistry creates an empty registry whose stores share reducer.
func NewRegistry(reducer Reducer) *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		reducer: reducer,
		now:     time.Now,
	}
}

// SetClock replaces the registry's time source.
func (registry *Registry) SetClock(now func() time.Time) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.now = now
}

// Get returns the store for sessionID, creating it on first use, and marks
// the session as seen.
func (registry *Registry) Get(sessionID string) *Store {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	entry, ok := registry.entries[sessionID]
	if !ok {
		entry = &registryEntry{store: NewStore(registry.reducer)}
		registry.entries[sessionID] = entry
	}
	entry.lastSeen = registry.now()
	return entry.store
}

// Rekey moves store to a fresh session id and returns that id. The old id is
// released only while it still maps to store, so a later request on the old
// id starts over as a new anonymous session.
func (registry *Registry) Rekey(sessionID string, store *Store) string {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if entry, ok := registry.entries[sessionID]; ok && entry.store == store {
		delete(registry.entries, sessionID)
	}

	fresh := uuidv7.New()
	registry.entries[fresh] = &registryEntry{store: store, lastSeen: registry.now()}
	return fresh
}

// Sweep evicts sessions not seen for longer than idle and returns how many
// were removed.
func (registry *Registry) Sweep(idle time.Duration) int {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	cutoff := registry.now().Add(-idle)
	evicted := 0

	for sessionID, entry := range registry.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(registry.entries, sessionID)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live sessions.
func (registry *Registry) Len() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.entries)
}

// # Middleware

/*
Attach resolves the browser session of every request.

Description: Reads the gateway session cookie; a missing or malformed id is
replaced by a fresh UUIDv7 and the cookie is (re)issued. The session id and
its [Store] are placed in the request context, together with a binding that
lets the session move to a new id when it becomes authenticated.

Parameters:
  - secure: bool (set the Secure attribute on the cookie)

Returns:
  - func(http.Handler) http.Handler: Chi-compatible middleware
*/
func (registry *Registry) Attach(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			sessionID := ""
			if cookie, err := request.Cookie(constants.SessionCookieName); err == nil && uuidv7.Valid(cookie.Value) {
				sessionID = cookie.Value
			}

			if sessionID == "" {
				sessionID = uuidv7.New()
				setSessionCookie(writer, sessionID, secure)
			}

			store := registry.Get(sessionID)
			binding := &cookieBinding{
				registry:  registry,
				store:     store,
				writer:    writer,
				secure:    secure,
				sessionID: sessionID,
			}

			ctx := ctxutil.WithSessionID(request.Context(), sessionID)
			ctx = WithStore(ctx, store)
			ctx = context.WithValue(ctx, ctxkey.KeySessionBinding, binding)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Session Id Rotation

// cookieBinding ties one request's session to the cookie in its response.
type cookieBinding struct {
	mu        sync.Mutex
	registry  *Registry
	store     *Store
	writer    http.ResponseWriter
	secure    bool
	sessionID string
}

// rotate re-keys the session and reissues the cookie. It must run before the
// response headers are written.
func (binding *cookieBinding) rotate() (previous, current string) {
	binding.mu.Lock()
	defer binding.mu.Unlock()

	previous = binding.sessionID
	binding.sessionID = binding.registry.Rekey(previous, binding.store)
	setSessionCookie(binding.writer, binding.sessionID, binding.secure)
	return previous, binding.sessionID
}

func (binding *cookieBinding) current() string {
	binding.mu.Lock()
	defer binding.mu.Unlock()
	return binding.sessionID
}

func bindingFrom(ctx context.Context) *cookieBinding {
	binding, _ := ctx.Value(ctxkey.KeySessionBinding).(*cookieBinding)
	return binding
}

// CurrentSessionID returns the request's session id, following a rotation
// that happened earlier in the same request.
func CurrentSessionID(ctx context.Context) string {
	if binding := bindingFrom(ctx); binding != nil {
		return binding.current()
	}
	return ctxutil.GetSessionID(ctx)
}

// setSessionCookie issues the gateway cookie, replacing one already queued on
// the response.
func setSessionCookie(writer http.ResponseWriter, sessionID string, secure bool) {
	header := writer.Header()
	prefix := constants.SessionCookieName + "="

	var kept []string
	for _, line := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(line, prefix) {
			kept = append(kept, line)
		}
	}
	header.Del("Set-Cookie")
	for _, line := range kept {
		header.Add("Set-Cookie", line)
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(constants.SessionCookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
