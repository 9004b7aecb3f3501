// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the gateway.

It defines default timeouts, header names, cookie names and storage key
prefixes that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: IP tracking TTLs.
  - Session: Cookie names and login/home routes used by the route guard.
  - Storage: Redis key taxonomy.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "pethaul-gateway"
	AppVersion = "0.3.0"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// Login waits on the backend, so this is wider than a plain API server would use.
	DefaultWriteTimeout = 20 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// BackgroundTaskTimeout caps detached work such as token bootstrap.
	BackgroundTaskTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID     = "X-Request-ID"
	HeaderXRealIP        = "X-Real-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderOrigin         = "Origin"
	HeaderAuthorization  = "Authorization"
	HeaderRetryAfter     = "Retry-After"
	HeaderCookie         = "Cookie"
	HeaderSetCookie      = "Set-Cookie"
	AuthorizationPrefix  = "Bearer "
	ContentTypeJSON      = "application/json; charset=utf-8"
	HeaderContentType    = "Content-Type"
	HeaderXForwardedHost = "X-Forwarded-Host"
)

// # Session

const (
	// SessionCookieName identifies a browser session at the gateway.
	SessionCookieName = "pethaul_sid"

	// SessionCookieMaxAge is how long the browser keeps the gateway cookie.
	SessionCookieMaxAge = 30 * 24 * time.Hour

	// LoginPath is where the route guard sends unauthenticated visitors.
	LoginPath = "/login"

	// HomePath is where the route guard sends under-privileged visitors.
	HomePath = "/"

	// RedirectParam carries the originally requested location to the login page.
	RedirectParam = "redirect"

	// SavedLoginIDTTL is how long a remembered login id survives.
	SavedLoginIDTTL = 30 * 24 * time.Hour
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixBearerToken = "pethaul:bearer:"
	RedisPrefixSavedLogin  = "pethaul:saved_login:"
)
