package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-console/pkg/domain"
)

const auditTable = "console_revocation_audit"

const auditSchema = `
	CREATE TABLE IF NOT EXISTS console_revocation_audit (
		id           UUID PRIMARY KEY,
		user_id      TEXT NOT NULL,
		session_id   TEXT NOT NULL,
		operator_id  TEXT NOT NULL DEFAULT '',
		succeeded    BOOLEAN NOT NULL,
		error        TEXT,
		duration_ms  BIGINT NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS console_revocation_audit_user_idx
		ON console_revocation_audit (user_id, completed_at DESC);
`

const defaultAuditLimit = 50

// RevocationAuditRepository handles revocation audit persistence.
type RevocationAuditRepository struct {
	db *sql.DB
}

// NewRevocationAuditRepository creates a new revocation audit repository.
func NewRevocationAuditRepository(db *sql.DB) *RevocationAuditRepository {
	return &RevocationAuditRepository{db: db}
}

// Create records an audit entry. A zero ID is replaced with a new one.
func (r *RevocationAuditRepository) Create(ctx context.Context, entry *domain.RevocationAudit) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO console_revocation_audit
			(id, user_id, session_id, operator_id, succeeded, error, duration_ms, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.SessionID, entry.OperatorID,
		entry.Succeeded, entry.Error, entry.DurationMS, entry.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert revocation audit: %w", err)
	}
	return nil
}

// ListByUser returns the most recent audit entries for a user, newest first.
func (r *RevocationAuditRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.RevocationAudit, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	query := `
		SELECT id, user_id, session_id, operator_id, succeeded, error, duration_ms, completed_at
		FROM console_revocation_audit
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.RevocationAudit
	for rows.Next() {
		var e domain.RevocationAudit
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.SessionID, &e.OperatorID,
			&e.Succeeded, &e.Error, &e.DurationMS, &e.CompletedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
