package domain

import (
	"time"

	"github.com/google/uuid"
)

// RevocationRequest identifies the session an operator wants revoked.
type RevocationRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

// Validate returns ErrMissingRouteParam unless both IDs are present.
func (r RevocationRequest) Validate() error {
	if r.UserID == "" || r.SessionID == "" {
		return ErrMissingRouteParam
	}
	return nil
}

// RevocationAudit is a recorded revoke command issued by an operator.
type RevocationAudit struct {
	ID          uuid.UUID
	UserID      string
	SessionID   string
	OperatorID  string
	Succeeded   bool
	Error       *string
	DurationMS  int64
	CompletedAt time.Time
}
