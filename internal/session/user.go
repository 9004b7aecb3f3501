// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session owns the storefront's unified authentication layer.

The backend exposes two independent session probes (local credentials and
Google OAuth) that can each fail on their own. This package merges them into
one trustworthy {user, isAuthenticated} view per browser session, bootstraps
a bearer token once a session is established, and guards protected pages.

# Architecture

  - Reconciler: runs both probes concurrently and merges their answers.
  - Store: one per browser session; every mutation goes through [Reducer].
  - TokenBootstrapper: retries bearer-token issuance with backoff.
  - Guard: turns the reconciled state into render/redirect decisions.
  - Service: orchestrates login, logout, checks and profile updates.
*/
package session

import (
	"strings"

	"github.com/taibuivan/pethaul/internal/backend"
	"github.com/taibuivan/pethaul/internal/platform/sec"
)

// # Domain Entities

// Provider names the identity provider that authenticated a user.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// User is the gateway's cached copy of the backend account.
type User struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	PhoneNumber string       `json:"phoneNumber"`
	Role        sec.UserRole `json:"role"`
	Provider    Provider     `json:"provider"`
	Avatar      string       `json:"avatar,omitempty"`
	Address     string       `json:"address,omitempty"`

	DefaultDeliveryName          string `json:"defaultDeliveryName,omitempty"`
	DefaultDeliveryPhone         string `json:"defaultDeliveryPhone,omitempty"`
	DefaultDeliveryAddress       string `json:"defaultDeliveryAddress,omitempty"`
	DefaultDeliveryAddressDetail string `json:"defaultDeliveryAddressDetail,omitempty"`
	DefaultDeliveryRequest       string `json:"defaultDeliveryRequest,omitempty"`
}

// IsAdmin reports whether the user may open the back-office.
func (user *User) IsAdmin() bool {
	return user != nil && user.Role.IsAdmin()
}

// HasID reports whether the user carries a concrete backend id.
func (user *User) HasID() bool {
	return user != nil && user.ID != ""
}

// decodeUser converts a backend user payload. It is the single point where
// roles and providers are normalized. A nil payload yields nil.
//
// fallback is used when the payload does not name its provider, which the
// local probe usually omits.
func decodeUser(payload *backend.UserPayload, fallback Provider) *User {
	if payload == nil {
		return nil
	}

	return &User{
		ID:          payload.ID.String(),
		UserID:      payload.UserID,
		Name:        payload.Name,
		Email:       payload.Email,
		PhoneNumber: payload.PhoneNumber,
		Role:        sec.ParseRole(payload.Role, payload.IsAdmin),
		Provider:    parseProvider(payload.Provider, fallback),
		Avatar:      payload.Avatar,
		Address:     payload.Address,

		DefaultDeliveryName:          payload.DefaultDeliveryName,
		DefaultDeliveryPhone:         payload.DefaultDeliveryPhone,
		DefaultDeliveryAddress:       payload.DefaultDeliveryAddress,
		DefaultDeliveryAddressDetail: payload.DefaultDeliveryAddressDetail,
		DefaultDeliveryRequest:       payload.DefaultDeliveryRequest,
	}
}

func parseProvider(raw string, fallback Provider) Provider {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ProviderGoogle):
		return ProviderGoogle
	case string(ProviderLocal):
		return ProviderLocal
	default:
		return fallback
	}
}
