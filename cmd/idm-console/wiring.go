package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-idm-console/internal/config"
	"github.com/tendant/simple-idm-console/pkg/adminapi"
	"github.com/tendant/simple-idm-console/pkg/cache"
	consolesvc "github.com/tendant/simple-idm-console/pkg/console"
	"github.com/tendant/simple-idm-console/pkg/metrics"
	"github.com/tendant/simple-idm-console/pkg/repository"
)

// components are the shared pieces behind both presentations.
type components struct {
	Service *consolesvc.Service
	Metrics *metrics.Metrics
	DB      *sql.DB

	closers []func() error
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

func newAPIClient(cfg *config.Config, operator string) (*adminapi.Client, error) {
	var tokens adminapi.TokenSource = adminapi.StaticToken(cfg.AdminAPIToken)
	if cfg.HasSignedAPITokens() {
		signed, err := adminapi.NewSignedTokens(adminapi.SignedTokenConfig{
			Secret:   []byte(cfg.AdminAPISigningSecret),
			Issuer:   cfg.ConsoleJWTIssuer,
			Audience: cfg.AdminAPIAudience,
			Subject:  operator,
		})
		if err != nil {
			return nil, err
		}
		tokens = signed
	}

	return adminapi.NewClient(adminapi.Config{
		BaseURL:    cfg.AdminAPIURL,
		Tokens:     tokens,
		HTTPClient: &http.Client{Timeout: cfg.AdminAPITimeout},
	})
}

func buildComponents(ctx context.Context, cfg *config.Config, operator string, logger *slog.Logger) (*components, error) {
	c := &components{Metrics: metrics.New()}

	client, err := newAPIClient(cfg, operator)
	if err != nil {
		return nil, fmt.Errorf("management api client: %w", err)
	}

	// Cache backend: Redis when configured, otherwise in-process
	var backend cache.Backend = cache.NewMemoryBackend()
	if cfg.HasRedis() {
		rdb, err := cache.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		c.closers = append(c.closers, rdb.Close)
		backend = cache.NewRedisBackend(rdb, "")
		logger.Info("redis cache enabled")
	}

	store := cache.New(backend, client.Fetch, cache.Config{
		TTL:     cfg.CacheTTL,
		Logger:  logger,
		Observe: c.Metrics.ObserveCacheFetch,
	})

	svcCfg := consolesvc.Config{
		Cache:       store,
		Revoker:     client,
		Observer:    c.Metrics,
		GenericName: cfg.SessionGenericName,
		Logger:      logger,
	}

	if cfg.HasDatabase() {
		db, err := repository.NewDB(ctx, repository.Config{URL: cfg.DatabaseURL})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("database: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		if err := repository.EnsureSchema(ctx, db); err != nil {
			c.Close()
			return nil, fmt.Errorf("database schema: %w", err)
		}
		c.DB = db
		svcCfg.Audit = repository.NewRevocationAuditRepository(db)
		logger.Info("revocation audit trail enabled")
	}

	c.Service = consolesvc.NewService(svcCfg)
	return c, nil
}
