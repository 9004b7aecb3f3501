// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the gateway's PostgreSQL tables and columns so that
// queries are assembled from one source of truth.
package schema

// SessionAuditLogTable represents the 'session.auditlog' table
type SessionAuditLogTable struct {
	Table       string
	ID          string
	SessionHash string
	UserID      string
	Action      string
	Detail      string
	IPAddress   string
	CreatedAt   string
}

var SessionAuditLog = SessionAuditLogTable{
	Table:       "session.auditlog",
	ID:          "id",
	SessionHash: "sessionhash",
	UserID:      "userid",
	Action:      "action",
	Detail:      "detail",
	IPAddress:   "ipaddress",
	CreatedAt:   "createdat",
}
