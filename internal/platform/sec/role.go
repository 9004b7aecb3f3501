// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec holds the gateway's security primitives: the canonical user
// role and inspection of bearer tokens issued by the backend.
package sec

import "strings"

// # User Roles

// UserRole represents the authorization level granted to an account.
//
// The backend is not consistent about how it spells roles ("admin", "ADMIN",
// "ROLE_ADMIN", or an isAdmin flag). [ParseRole] is the only place those
// spellings are interpreted; everything past session decoding compares
// UserRole values.
type UserRole string

const (
	// Back-office access (order/item/content/user management)
	RoleAdmin UserRole = "ADMIN"

	// Default role for shoppers
	RoleUser UserRole = "USER"
)

// adminMarkers are the upper-cased spellings the backend uses for admins.
var adminMarkers = map[string]struct{}{
	"ADMIN":      {},
	"ROLE_ADMIN": {},
}

// ParseRole maps a raw backend role and admin flag to a canonical role.
// Unknown or empty roles degrade to [RoleUser].
func ParseRole(raw string, isAdmin bool) UserRole {
	if isAdmin {
		return RoleAdmin
	}
	if _, ok := adminMarkers[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return RoleAdmin
	}
	return RoleUser
}

// # Role Hierarchy

// IsAdmin reports whether the role grants back-office access.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
