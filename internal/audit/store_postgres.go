// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/pethaul/internal/platform/database/schema"
	"github.com/taibuivan/pethaul/internal/platform/sec"
	"github.com/taibuivan/pethaul/pkg/uuidv7"
)

// Execer runs a statement that returns no rows. *pgxpool.Pool and pgx.Tx
// satisfy it.
type Execer interface {
	Exec(context context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresRecorder writes events to the session.auditlog table.
//
// Session ids are stored as [sec.Fingerprint] digests, never in the clear.
type PostgresRecorder struct {
	db Execer
}

// NewPostgresRecorder creates a PostgreSQL-backed [Recorder].
func NewPostgresRecorder(db Execer) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

/*
Record inserts one audit row.

Parameters:
  - context: context.Context
  - event: Event (CreatedAt defaults to now)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (recorder *PostgresRecorder) Record(context context.Context, event Event) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7)`,
		schema.SessionAuditLog.Table,
		schema.SessionAuditLog.ID, schema.SessionAuditLog.SessionHash, schema.SessionAuditLog.UserID,
		schema.SessionAuditLog.Action, schema.SessionAuditLog.Detail, schema.SessionAuditLog.IPAddress,
		schema.SessionAuditLog.CreatedAt)

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := recorder.db.Exec(context, query,
		uuidv7.New(),
		sec.Fingerprint(event.SessionID),
		event.UserID,
		string(event.Action),
		event.Detail,
		event.IPAddress,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_audit_record_failed: %w", err)
	}

	return nil
}
