// Package console wires the session cache, detail derivation and revoke
// coordination into the operations both presentations share.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tendant/simple-idm-console/pkg/cache"
	"github.com/tendant/simple-idm-console/pkg/domain"
	"github.com/tendant/simple-idm-console/pkg/revocation"
	"github.com/tendant/simple-idm-console/pkg/sessiondetail"
)

// DefaultGenericName labels a session whose browser and OS are unknown.
const DefaultGenericName = "Session"

// AuditStore persists revocation audit entries.
type AuditStore interface {
	Create(ctx context.Context, entry *domain.RevocationAudit) error
}

// Observer receives revocation telemetry.
type Observer interface {
	ObserveTransition(from, to revocation.State)
	RecordRevocation(ctx context.Context, outcome revocation.Outcome)
}

// Config holds service dependencies.
type Config struct {
	Cache   *cache.Store
	Revoker revocation.Revoker
	// Gate is shared by every coordinator the service creates.
	Gate        *revocation.Gate
	Audit       AuditStore
	Observer    Observer
	GenericName string
	Logger      *slog.Logger
}

// Service serves session views and creates revoke coordinators.
type Service struct {
	cache       *cache.Store
	revoker     revocation.Revoker
	gate        *revocation.Gate
	audit       AuditStore
	observer    Observer
	genericName string
	logger      *slog.Logger
}

// NewService creates a console service.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Gate == nil {
		cfg.Gate = revocation.NewGate()
	}
	if cfg.GenericName == "" {
		cfg.GenericName = DefaultGenericName
	}
	return &Service{
		cache:       cfg.Cache,
		revoker:     cfg.Revoker,
		gate:        cfg.Gate,
		audit:       cfg.Audit,
		observer:    cfg.Observer,
		genericName: cfg.GenericName,
		logger:      cfg.Logger,
	}
}

// Session reads a single session record through the cache. A nil record
// with a nil Result.Err means the source returned null.
func (s *Service) Session(ctx context.Context, userID, sessionID string) (*domain.SessionRecord, cache.Result) {
	if userID == "" || sessionID == "" {
		return nil, cache.Result{Err: domain.ErrMissingRouteParam}
	}

	key := cache.SessionKey(userID, sessionID)
	res := s.cache.Get(ctx, key)
	res.IsLoading = s.cache.Loading(key)
	if res.Err != nil {
		return nil, res
	}

	var rec *domain.SessionRecord
	if err := json.Unmarshal(res.Data, &rec); err != nil {
		res.Err = fmt.Errorf("failed to decode session %s: %w", key, err)
		return nil, res
	}
	return rec, res
}

// Sessions reads a user's session list through the cache.
func (s *Service) Sessions(ctx context.Context, userID string) ([]domain.SessionRecord, cache.Result) {
	if userID == "" {
		return nil, cache.Result{Err: domain.ErrMissingRouteParam}
	}

	key := cache.SessionListKey(userID)
	res := s.cache.Get(ctx, key)
	res.IsLoading = s.cache.Loading(key)
	if res.Err != nil {
		return nil, res
	}

	var recs []domain.SessionRecord
	if err := json.Unmarshal(res.Data, &recs); err != nil {
		res.Err = fmt.Errorf("failed to decode sessions %s: %w", key, err)
		return nil, res
	}
	return recs, res
}

// Retry drops whatever is cached for key and fetches it again.
func (s *Service) Retry(ctx context.Context, key string) cache.Result {
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn("failed to invalidate before retry", "key", key, "error", err)
	}
	res := s.cache.Get(ctx, key)
	res.IsLoading = s.cache.Loading(key)
	return res
}

// Detail is the display-ready view of one session.
type Detail struct {
	Record *domain.SessionRecord
	Header string
	Fields []sessiondetail.Field
}

// Detail fetches a session and derives its view.
func (s *Service) Detail(ctx context.Context, userID, sessionID string, opts sessiondetail.Options) (Detail, error) {
	rec, res := s.Session(ctx, userID, sessionID)
	if res.Err != nil {
		return Detail{}, res.Err
	}
	return s.Describe(rec, userID, opts), nil
}

// Describe derives the view of an already loaded record.
func (s *Service) Describe(rec *domain.SessionRecord, userID string, opts sessiondetail.Options) Detail {
	if rec == nil {
		return Detail{Header: sessiondetail.Placeholder}
	}

	info := sessiondetail.DeriveInfo(rec, opts.Parser)
	return Detail{
		Record: rec,
		Header: sessiondetail.HeaderLabel(info, s.genericName),
		Fields: sessiondetail.Compose(rec, userID, info,
			sessiondetail.ResolveApplications(rec),
			sessiondetail.NormalizeLoginTs(rec.LoginTs, opts.DateTimeFormat)),
	}
}

// View is the presentation side of a revoke action.
type View struct {
	Navigator revocation.Navigator
	Modal     revocation.Modal
	Notifier  revocation.Notifier
	Operator  string
}

// NewCoordinator creates a revoke coordinator for one session detail view.
func (s *Service) NewCoordinator(userID, sessionID string, view View) *revocation.Coordinator {
	cfg := revocation.Config{
		Revoker:   s.revoker,
		Cache:     s.cache,
		Navigator: view.Navigator,
		Modal:     view.Modal,
		Notifier:  view.Notifier,
		Gate:      s.gate,
		Operator:  view.Operator,
		Logger:    s.logger,
	}
	if s.audit != nil || s.observer != nil {
		cfg.Audit = &auditRecorder{store: s.audit, observer: s.observer, logger: s.logger}
	}
	if s.observer != nil {
		cfg.OnTransition = s.observer.ObserveTransition
	}
	return revocation.New(domain.RevocationRequest{UserID: userID, SessionID: sessionID}, cfg)
}
