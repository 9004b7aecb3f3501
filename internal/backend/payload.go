// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// # Wire Types

// FlexibleID accepts a JSON number, a JSON string, or null.
// The backend serializes primary keys as numbers on some endpoints and as
// strings on others.
type FlexibleID string

// UnmarshalJSON implements [json.Unmarshaler].
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || len(trimmed) == 0 {
		*id = ""
		return nil
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("backend: invalid id string: %w", err)
		}
		*id = FlexibleID(text)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("backend: invalid id %s: %w", trimmed, err)
	}
	if _, err := strconv.ParseInt(number.String(), 10, 64); err != nil {
		return fmt.Errorf("backend: id %s is not an integer", number)
	}
	*id = FlexibleID(number.String())
	return nil
}

// String returns the id as text.
func (id FlexibleID) String() string { return string(id) }

// UserPayload is the user object as the backend serializes it.
type UserPayload struct {
	ID          FlexibleID `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phoneNumber"`
	Role        string     `json:"role"`
	IsAdmin     bool       `json:"isAdmin"`
	Provider    string     `json:"provider"`
	Avatar      string     `json:"avatar"`
	Address     string     `json:"address"`

	DefaultDeliveryName          string `json:"defaultDeliveryName"`
	DefaultDeliveryPhone         string `json:"defaultDeliveryPhone"`
	DefaultDeliveryAddress       string `json:"defaultDeliveryAddress"`
	DefaultDeliveryAddressDetail string `json:"defaultDeliveryAddressDetail"`
	DefaultDeliveryRequest       string `json:"defaultDeliveryRequest"`
}

// SessionPayload is the loosely specified answer of both session probes.
//
// /auth/check answers {isAuthenticated, user}; /auth/googlecheck answers
// {googleAuthenticated, user?} and sometimes isAuthenticated too. Every
// field is optional, so booleans are pointers to tell "false" from "absent".
type SessionPayload struct {
	IsAuthenticated     *bool        `json:"isAuthenticated"`
	GoogleAuthenticated *bool        `json:"googleAuthenticated"`
	User                *UserPayload `json:"user"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// LoginResponse is the decoded answer of POST /auth/login.
type LoginResponse struct {
	User    *UserPayload `json:"user"`
	Message string       `json:"message"`

	// Cookies are the Set-Cookie values the backend issued. The gateway
	// relays them to the browser so the backend session cookie lands there.
	Cookies []*http.Cookie `json:"-"`
}

// ProfileUpdate is the body of PUT /auth. Empty fields are left unchanged.
type ProfileUpdate struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Password    string `json:"password,omitempty"`

	DefaultDeliveryName          string `json:"defaultDeliveryName,omitempty"`
	DefaultDeliveryPhone         string `json:"defaultDeliveryPhone,omitempty"`
	DefaultDeliveryAddress       string `json:"defaultDeliveryAddress,omitempty"`
	DefaultDeliveryAddressDetail string `json:"defaultDeliveryAddressDetail,omitempty"`
	DefaultDeliveryRequest       string `json:"defaultDeliveryRequest,omitempty"`
}

type tokenRequest struct {
	UserID string `json:"userId"`
}

type tokenResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

type profileResponse struct {
	User *UserPayload `json:"user"`
}
