package console

import (
	"context"
	"log/slog"

	"github.com/tendant/simple-idm-console/pkg/domain"
	"github.com/tendant/simple-idm-console/pkg/revocation"
)

type auditRecorder struct {
	store    AuditStore
	observer Observer
	logger   *slog.Logger
}

func (a *auditRecorder) RecordRevocation(ctx context.Context, o revocation.Outcome) {
	if a.observer != nil {
		a.observer.RecordRevocation(ctx, o)
	}
	if a.store == nil {
		return
	}

	if err := a.store.Create(ctx, newAuditEntry(o)); err != nil {
		a.logger.Error("failed to record revocation audit",
			"user_id", o.Request.UserID,
			"session_id", o.Request.SessionID,
			"error", err,
		)
	}
}

func newAuditEntry(o revocation.Outcome) *domain.RevocationAudit {
	entry := &domain.RevocationAudit{
		UserID:      o.Request.UserID,
		SessionID:   o.Request.SessionID,
		OperatorID:  o.Operator,
		Succeeded:   o.Err == nil,
		DurationMS:  o.Duration.Milliseconds(),
		CompletedAt: o.CompletedAt,
	}
	if o.Err != nil {
		msg := o.Err.Error()
		entry.Error = &msg
	}
	return entry
}
