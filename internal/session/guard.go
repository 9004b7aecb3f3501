// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/platform/respond"
)

// # Route Guard

// Requirement is what a protected route demands of the session.
type Requirement int

const (
	// RequireAuth admits any authenticated user.
	RequireAuth Requirement = iota

	// RequireAdmin admits authenticated administrators only.
	RequireAdmin
)

// Verdict is the guard's decision for one request.
type Verdict int

const (
	Checking Verdict = iota
	Authorized
	Unauthenticated
	Forbidden
)

// String implements [fmt.Stringer].
func (verdict Verdict) String() string {
	switch verdict {
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Evaluate decides whether state satisfies requirement. No decision is
// taken while a check is in flight or before the first one settled.
func Evaluate(state State, requirement Requirement) Verdict {
	if state.Loading || !state.Verified {
		return Checking
	}
	if !state.IsAuthenticated {
		return Unauthenticated
	}
	if requirement == RequireAdmin && !state.User.IsAdmin() {
		return Forbidden
	}
	return Authorized
}

// placeholderRetrySeconds is the Retry-After hint of the checking placeholder.
const placeholderRetrySeconds = 1

/*
Guard protects a route group.

Description: Renders a neutral placeholder while the session is being checked,
redirects unauthenticated visitors to the login page (remembering where they
were going) and under-privileged users to the home page.

Parameters:
  - requirement: Requirement

Returns:
  - func(http.Handler) http.Handler: Chi-compatible middleware
*/
func Guard(requirement Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			state := State{}
			if store := StoreFrom(request.Context()); store != nil {
				state = store.Snapshot()
			}

			switch Evaluate(state, requirement) {
			case Authorized:
				next.ServeHTTP(writer, request)

			case Checking:
				writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(placeholderRetrySeconds))
				respond.Accepted(writer, map[string]string{constants.FieldStatus: Checking.String()})

			case Unauthenticated:
				respond.Redirect(writer, request, LoginRedirect(request))

			case Forbidden:
				respond.Redirect(writer, request, constants.HomePath)
			}
		})
	}
}

// LoginRedirect builds the login location carrying the original request
// path and query.
func LoginRedirect(request *http.Request) string {
	query := url.Values{}
	query.Set(constants.RedirectParam, request.URL.RequestURI())
	return constants.LoginPath + "?" + query.Encode()
}
