// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines typed context keys used by middleware and handlers.
//
// Using a private, unexported type for keys prevents collisions with third-party
// packages that might also use context for storage.
package ctxkey

type key string

const (
	// KeyRequestID is the context key for the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyLogger is the context key for the per-request [*log/slog.Logger].
	KeyLogger key = "logger"

	// KeySessionID is the context key for the gateway browser-session id.
	KeySessionID key = "session_id"

	// KeySessionStore is the context key for the browser session's auth store.
	KeySessionStore key = "session_store"

	// KeySessionBinding is the context key for the cookie binding that lets a
	// request move its session to a fresh id.
	KeySessionBinding key = "session_binding"

	// KeyClientIP is the context key for the resolved client address.
	KeyClientIP key = "client_ip"
)
