// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backend is the gateway's thin client over the PetHaul REST backend.

It covers the handful of endpoints the session layer needs: login, logout,
the two session probes, bearer-token issuance and profile update. Every call
forwards the browser's backend cookies so the backend sees the same session
the storefront would.

Answers are decoded into loose wire types ([SessionPayload], [UserPayload]).
Turning them into domain values is the session package's job.
*/
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/pethaul/internal/platform/constants"
)

// Backend endpoints consumed by the gateway.
const (
	pathLogin       = "/auth/login"
	pathLogout      = "/auth/logout"
	pathCheck       = "/auth/check"
	pathGoogleCheck = "/auth/googlecheck"
	pathProfile     = "/auth"

	// maxResponseBytes caps how much of a backend answer is read.
	maxResponseBytes = 1 << 20
)

// # Credentials

// Credentials is what the gateway forwards on behalf of a browser.
type Credentials struct {
	// Cookies are the browser's backend cookies (gateway cookies excluded).
	Cookies []*http.Cookie

	// BearerToken is attached as "Authorization: Bearer" when set.
	BearerToken string
}

// WithCookies returns a copy whose cookies are overridden by extra, matched
// by name. Cookies with MaxAge < 0 are deletions and drop the cookie.
func (creds Credentials) WithCookies(extra []*http.Cookie) Credentials {
	merged := make(map[string]*http.Cookie, len(creds.Cookies)+len(extra))
	order := make([]string, 0, len(creds.Cookies)+len(extra))

	for _, cookie := range append(append([]*http.Cookie{}, creds.Cookies...), extra...) {
		if _, seen := merged[cookie.Name]; !seen {
			order = append(order, cookie.Name)
		}
		merged[cookie.Name] = cookie
	}

	result := Credentials{BearerToken: creds.BearerToken}
	for _, name := range order {
		cookie := merged[name]
		if cookie.MaxAge < 0 {
			continue
		}
		result.Cookies = append(result.Cookies, &http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	return result
}

// CredentialsFromRequest collects the backend cookies of an incoming request,
// leaving out the cookies named in exclude.
func CredentialsFromRequest(request *http.Request, exclude ...string) Credentials {
	creds := Credentials{}

	for _, cookie := range request.Cookies() {
		skip := false
		for _, name := range exclude {
			if cookie.Name == name {
				skip = true
				break
			}
		}
		if !skip {
			creds.Cookies = append(creds.Cookies, cookie)
		}
	}

	return creds
}

// # Client

// Client issues REST calls to the backend.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	tokenPath  string
}

// NewClient builds a backend client.
//
// # Parameters
//   - baseURL: Root of the backend API, e.g. "http://backend:8081/api".
//   - timeout: Per-call timeout.
//   - tokenPath: Path of the bearer-token issuance endpoint.
func NewClient(baseURL string, timeout time.Duration, tokenPath string) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend: base URL %q must be absolute", baseURL)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    parsed,
		tokenPath:  tokenPath,
	}, nil
}

// BaseURL returns the backend root, used by the API passthrough proxy.
func (client *Client) BaseURL() *url.URL {
	copied := *client.baseURL
	return &copied
}

// # Session Endpoints

// Login calls POST /auth/login.
func (client *Client) Login(context context.Context, creds Credentials, input LoginRequest) (*LoginResponse, error) {
	result := &LoginResponse{}

	cookies, err := client.do(context, "login", http.MethodPost, pathLogin, creds, input, result)
	if err != nil {
		return nil, err
	}

	result.Cookies = cookies
	return result, nil
}

// Logout calls POST /auth/logout and returns the cookie deletions it issued.
func (client *Client) Logout(context context.Context, creds Credentials) ([]*http.Cookie, error) {
	return client.do(context, "logout", http.MethodPost, pathLogout, creds, nil, nil)
}

// CheckSession calls GET /auth/check, the local-credentials session probe.
func (client *Client) CheckSession(context context.Context, creds Credentials) (*SessionPayload, error) {
	payload := &SessionPayload{}
	if _, err := client.do(context, "check", http.MethodGet, pathCheck, creds, nil, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// CheckGoogleSession calls GET /auth/googlecheck, the Google OAuth session probe.
func (client *Client) CheckGoogleSession(context context.Context, creds Credentials) (*SessionPayload, error) {
	payload := &SessionPayload{}
	if _, err := client.do(context, "googlecheck", http.MethodGet, pathGoogleCheck, creds, nil, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// IssueToken asks the backend for a bearer token bound to the session user.
//
// The endpoint answers {"token": "..."}, {"accessToken": "..."} or a bare
// JSON string depending on the backend version.
func (client *Client) IssueToken(context context.Context, creds Credentials, userID string) (string, error) {
	var raw json.RawMessage
	if _, err := client.do(context, "token", http.MethodPost, client.tokenPath, creds, tokenRequest{UserID: userID}, &raw); err != nil {
		return "", err
	}

	token := decodeToken(raw)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// UpdateProfile calls PUT /auth and returns the updated user.
func (client *Client) UpdateProfile(context context.Context, creds Credentials, input ProfileUpdate) (*UserPayload, error) {
	var raw json.RawMessage
	if _, err := client.do(context, "profile", http.MethodPut, pathProfile, creds, input, &raw); err != nil {
		return nil, err
	}

	// Either {"user": {...}} or the user object itself.
	wrapped := profileResponse{}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	user := &UserPayload{}
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, fmt.Errorf("backend_profile_decode_failed: %w", err)
	}
	return user, nil
}

// # Transport

// do performs one JSON round-trip and returns the cookies the backend set.
func (client *Client) do(context context.Context, op, method, path string, creds Credentials, body, out any) ([]*http.Cookie, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend_%s_encode_failed: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(context, method, client.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("backend_%s_request_failed: %w", op, err)
	}

	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set(constants.HeaderContentType, "application/json")
	}
	for _, cookie := range creds.Cookies {
		request.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	if creds.BearerToken != "" {
		request.Header.Set(constants.HeaderAuthorization, constants.AuthorizationPrefix+creds.BearerToken)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("backend_%s_failed: %w", op, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("backend_%s_read_failed: %w", op, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &StatusError{Op: op, StatusCode: response.StatusCode, Message: errorMessage(payload)}
	}

	if out != nil && len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, fmt.Errorf("backend_%s_decode_failed: %w", op, err)
		}
	}

	return response.Cookies(), nil
}

func (client *Client) endpoint(path string) string {
	return client.baseURL.String() + "/" + strings.TrimLeft(path, "/")
}

// errorMessage pulls a human message out of a backend error body.
func errorMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func decodeToken(raw json.RawMessage) string {
	var object tokenResponse
	if err := json.Unmarshal(raw, &object); err == nil {
		if object.Token != "" {
			return object.Token
		}
		return object.AccessToken
	}

	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare
	}

	return ""
}
