// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/taibuivan/pethaul/internal/platform/apperr"
	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/platform/ctxutil"
	"github.com/taibuivan/pethaul/internal/platform/respond"
)

// BackendAPIPrefix is the gateway path under which backend calls are relayed.
const BackendAPIPrefix = "/api"

// BearerTokens resolves the cached bearer token of a browser session.
type BearerTokens interface {
	BearerToken(context context.Context, sessionID string) (string, error)
	InvalidateBearerToken(context context.Context, sessionID string) error
}

// # Storefront Proxy

// NewStorefrontProxy relays page and asset requests to the storefront server.
func NewStorefrontProxy(storefrontURL string) (http.Handler, error) {
	target, err := parseUpstream(storefrontURL)
	if err != nil {
		return nil, fmt.Errorf("api_storefront_proxy_failed: %w", err)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(proxyRequest *httputil.ProxyRequest) {
			proxyRequest.SetURL(target)
			proxyRequest.SetXForwarded()
			stripGatewayCookie(proxyRequest.Out)
		},
		ErrorHandler: upstreamError("storefront"),
	}, nil
}

// # Backend API Proxy

/*
NewBackendProxy relays /api/* calls to the backend REST API.

Description: The /api prefix is replaced by the backend base path. When the
browser session has a cached bearer token and the caller did not send its own
Authorization header, the token is attached. A 401 answer to a call that
carried the cached token invalidates it.

Parameters:
  - backendURL: *url.URL (backend API root, e.g. http://backend:8081/api)
  - tokens: BearerTokens

Returns:
  - http.Handler
*/
func NewBackendProxy(backendURL *url.URL, tokens BearerTokens) http.Handler {
	target := *backendURL

	return &httputil.ReverseProxy{
		Rewrite: func(proxyRequest *httputil.ProxyRequest) {
			inbound := proxyRequest.In

			proxyRequest.Out.URL.Path = strings.TrimPrefix(inbound.URL.Path, BackendAPIPrefix)
			proxyRequest.Out.URL.RawPath = ""
			proxyRequest.SetURL(&target)
			proxyRequest.SetXForwarded()
			stripGatewayCookie(proxyRequest.Out)

			if proxyRequest.Out.Header.Get(constants.HeaderAuthorization) != "" {
				return
			}

			sessionID := ctxutil.GetSessionID(inbound.Context())
			if sessionID == "" {
				return
			}

			token, err := tokens.BearerToken(inbound.Context(), sessionID)
			if err != nil {
				ctxutil.GetLogger(inbound.Context()).Warn("bearer_token_lookup_failed", slog.Any("error", err))
				return
			}
			if token != "" {
				proxyRequest.Out.Header.Set(constants.HeaderAuthorization, constants.AuthorizationPrefix+token)
				proxyRequest.Out = proxyRequest.Out.WithContext(
					context.WithValue(proxyRequest.Out.Context(), cachedTokenKey{}, true),
				)
			}
		},

		ModifyResponse: func(response *http.Response) error {
			rewriteSetCookies(response.Header)

			request := response.Request
			attached, _ := request.Context().Value(cachedTokenKey{}).(bool)
			if response.StatusCode != http.StatusUnauthorized || !attached {
				return nil
			}

			sessionID := ctxutil.GetSessionID(request.Context())
			if err := tokens.InvalidateBearerToken(request.Context(), sessionID); err != nil {
				ctxutil.GetLogger(request.Context()).Warn("bearer_token_invalidate_failed", slog.Any("error", err))
			}
			return nil
		},

		ErrorHandler: upstreamError("backend"),
	}
}

// cachedTokenKey marks outbound calls carrying the session's cached token.
type cachedTokenKey struct{}

// # Helpers

func parseUpstream(raw string) (*url.URL, error) {
	target, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, err
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream URL %q must be absolute", raw)
	}
	return target, nil
}

// stripGatewayCookie keeps the gateway session id away from upstreams.
func stripGatewayCookie(request *http.Request) {
	cookies := request.Cookies()
	request.Header.Del(constants.HeaderCookie)

	for _, cookie := range cookies {
		if cookie.Name != constants.SessionCookieName {
			request.AddCookie(cookie)
		}
	}
}

// rewriteSetCookies drops the Domain attribute of upstream cookies so they
// bind to the gateway host.
func rewriteSetCookies(header http.Header) {
	values := header.Values(constants.HeaderSetCookie)
	if len(values) == 0 {
		return
	}

	header.Del(constants.HeaderSetCookie)
	for _, value := range values {
		cookie, err := http.ParseSetCookie(value)
		if err != nil {
			header.Add(constants.HeaderSetCookie, value)
			continue
		}
		cookie.Domain = ""
		header.Add(constants.HeaderSetCookie, cookie.String())
	}
}

func upstreamError(name string) func(http.ResponseWriter, *http.Request, error) {
	return func(writer http.ResponseWriter, request *http.Request, err error) {
		respond.Error(writer, request, apperr.Upstream(fmt.Errorf("api_%s_proxy_failed: %w", name, err)))
	}
}
