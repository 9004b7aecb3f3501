// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/pethaul/internal/platform/sec"
	"github.com/taibuivan/pethaul/internal/session"
)

func TestEvaluate(t *testing.T) {
	member := &session.User{ID: "7", Role: sec.RoleUser}
	admin := &session.User{ID: "1", Role: sec.RoleAdmin}

	tests := []struct {
		name        string
		state       session.State
		requirement session.Requirement
		want        session.Verdict
	}{
		{"never_checked", session.State{}, session.RequireAuth, session.Checking},
		{"check_in_flight", session.State{Verified: true, Loading: true, IsAuthenticated: true, User: member}, session.RequireAuth, session.Checking},
		{"anonymous", session.State{Verified: true}, session.RequireAuth, session.Unauthenticated},
		{"anonymous_admin_route", session.State{Verified: true}, session.RequireAdmin, session.Unauthenticated},
		{"member", session.State{Verified: true, IsAuthenticated: true, User: member}, session.RequireAuth, session.Authorized},
		{"member_admin_route", session.State{Verified: true, IsAuthenticated: true, User: member}, session.RequireAdmin, session.Forbidden},
		{"admin_admin_route", session.State{Verified: true, IsAuthenticated: true, User: admin}, session.RequireAdmin, session.Authorized},
		{"authenticated_without_user", session.State{Verified: true, IsAuthenticated: true}, session.RequireAdmin, session.Forbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.Evaluate(tt.state, tt.requirement))
		})
	}
}

/*
TestGuard_Responses checks the placeholder and both redirects.
*/
func TestGuard_Responses(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(store *session.Store)
		requirement  session.Requirement
		wantStatus   int
		wantLocation string
	}{
		{
			name:        "placeholder_while_checking",
			setup:       func(*session.Store) {},
			requirement: session.RequireAuth,
			wantStatus:  http.StatusAccepted,
		},
		{
			name:         "login_redirect_keeps_target",
			setup:        func(store *session.Store) { store.Dispatch(session.LoggedOut{}) },
			requirement:  session.RequireAuth,
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?redirect=%2Fmypage%2Forders%3Fpage%3D2",
		},
		{
			name: "non_admin_goes_home",
			setup: func(store *session.Store) {
				store.Dispatch(session.LoginSucceeded{User: &session.User{ID: "7", Role: sec.RoleUser}})
			},
			requirement:  session.RequireAdmin,
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/",
		},
		{
			name: "authorized_passes_through",
			setup: func(store *session.Store) {
				store.Dispatch(session.LoginSucceeded{User: &session.User{ID: "7", Role: sec.RoleUser}})
			},
			requirement: session.RequireAuth,
			wantStatus:  http.StatusTeapot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewStore(session.Reducer{})
			tt.setup(store)

			handler := session.Guard(tt.requirement)(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
				writer.WriteHeader(http.StatusTeapot)
			}))

			request := httptest.NewRequest(http.MethodGet, "/mypage/orders?page=2", nil)
			request = request.WithContext(session.WithStore(request.Context(), store))
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantLocation, recorder.Header().Get("Location"))
			if tt.wantStatus == http.StatusAccepted {
				assert.Equal(t, "1", recorder.Header().Get("Retry-After"))
				assert.JSONEq(t, `{"data":{"status":"checking"}}`, recorder.Body.String())
			}
		})
	}
}
