// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"
	"time"

	"github.com/taibuivan/pethaul/internal/backend"
	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/platform/ctxutil"
)

// CheckOnArrival runs the unified check before routing when the session has
// never been checked, or when recheck has elapsed since the last check.
//
// Requests that arrive while a check is already running are not held back;
// they see the session as loading. A zero recheck disables rechecks.
func CheckOnArrival(service *Service, recheck time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			store := StoreFrom(request.Context())
			if store == nil {
				next.ServeHTTP(writer, request)
				return
			}

			state := store.Snapshot()
			if !state.Loading && service.checkDue(state, recheck) {
				service.CheckUnifiedAuth(
					request.Context(),
					ctxutil.GetSessionID(request.Context()),
					store,
					backend.CredentialsFromRequest(request, constants.SessionCookieName),
				)

				// The check may have moved the session to a fresh id.
				if current := CurrentSessionID(request.Context()); current != ctxutil.GetSessionID(request.Context()) {
					request = request.WithContext(ctxutil.WithSessionID(request.Context(), current))
				}
			}

			next.ServeHTTP(writer, request)
		})
	}
}

func (service *Service) checkDue(state State, recheck time.Duration) bool {
	if !state.Verified {
		return true
	}
	if recheck <= 0 {
		return false
	}
	return service.now().Sub(state.CheckedAt) >= recheck
}
