// Package server arma el handler HTTP con todas las dependencias cableadas
// a partir de la configuración. Es el único lugar donde se deciden los
// backings concretos (memory/redis/postgres).
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/consentgate/internal/agent"
	"github.com/dropDatabas3/consentgate/internal/audit"
	cachememory "github.com/dropDatabas3/consentgate/internal/cache/memory"
	cacheredis "github.com/dropDatabas3/consentgate/internal/cache/redis"
	"github.com/dropDatabas3/consentgate/internal/calendar"
	"github.com/dropDatabas3/consentgate/internal/config"
	"github.com/dropDatabas3/consentgate/internal/consent"
	"github.com/dropDatabas3/consentgate/internal/http/controllers"
	mw "github.com/dropDatabas3/consentgate/internal/http/middlewares"
	"github.com/dropDatabas3/consentgate/internal/http/router"
	"github.com/dropDatabas3/consentgate/internal/http/services"
	"github.com/dropDatabas3/consentgate/internal/metrics"
	"github.com/dropDatabas3/consentgate/internal/rate"
	"github.com/dropDatabas3/consentgate/internal/reasoning"
	"github.com/dropDatabas3/consentgate/internal/vault"
)

// Build construye el handler y una función de cleanup (cierra pools).
func Build(ctx context.Context, cfg *config.Config) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Firma de tokens
	signer, err := consent.NewSigner(cfg.Consent.MasterSecret)
	if err != nil {
		return nil, nil, fmt.Errorf("signer: %w", err)
	}

	// Registry de revocación
	registry, err := buildRegistry(ctx, cfg, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	tokens := consent.NewService(signer, registry, config.MustDuration(cfg.Consent.DefaultTTL))

	// Audit sink: el de log siempre; el de pg se suma si está configurado
	sink, err := buildSink(ctx, cfg, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// Colaboradores
	calCache := cachememory.New(config.MustDuration(cfg.Calendar.CacheTTL))
	calClient := calendar.NewClient(cfg.Calendar.BaseURL,
		config.MustDuration(cfg.Calendar.Timeout), calCache,
		config.MustDuration(cfg.Calendar.CacheTTL))

	reasonClient := reasoning.NewClient(cfg.Reasoning.BaseURL, cfg.Reasoning.APIKey,
		cfg.Reasoning.Model, config.MustDuration(cfg.Reasoning.Timeout))

	// Vault de contexto del agente
	vaultStore, err := buildVault(cfg, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	opRegistry := agent.BuildRegistry(agent.Deps{
		Calendar:  calClient,
		Reasoning: reasonClient,
		Vault:     vaultStore,
	})
	engine := agent.NewEngine(tokens, opRegistry, sink)

	// Métricas
	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("metrics: %w", err)
		}
	}

	// Rate limiters
	var issueLimiter, runLimiter rate.Limiter
	if cfg.Rate.Enabled {
		issueLimiter, runLimiter = buildLimiters(cfg, &closers)
	}

	// Auth de operador (issue/revoke). Sin secreto queda abierto: solo dev.
	var operatorAuth mw.Middleware
	if cfg.Operator.JWTSecret != "" {
		operatorAuth = mw.WithOperatorAuth(cfg.Operator.JWTSecret, cfg.Operator.Issuer)
	}

	svcs := services.New(services.Deps{
		Consent: tokens,
		Engine:  engine,
		Env:     cfg.App.Env,
		Backends: map[string]string{
			"revocation": cfg.Revocation.Kind,
			"audit":      cfg.Audit.Kind,
			"vault":      cfg.Vault.Kind,
		},
	})

	handler := router.New(router.Deps{
		Controllers:        controllers.New(svcs),
		OperatorAuth:       operatorAuth,
		IssueLimiter:       issueLimiter,
		RunLimiter:         runLimiter,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MetricsEnabled:     cfg.Metrics.Enabled,
	})

	return handler, cleanup, nil
}

func buildRegistry(ctx context.Context, cfg *config.Config, closers *[]func()) (consent.Registry, error) {
	switch cfg.Revocation.Kind {
	case "redis":
		client := rdb.NewClient(&rdb.Options{
			Addr: cfg.Revocation.Redis.Addr,
			DB:   cfg.Revocation.Redis.DB,
		})
		*closers = append(*closers, func() { _ = client.Close() })
		return consent.NewRedisRegistry(client, cfg.Revocation.Redis.Prefix), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Revocation.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("revocation pg: %w", err)
		}
		*closers = append(*closers, pool.Close)
		reg := consent.NewPGRegistry(pool)
		if err := reg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("revocation pg schema: %w", err)
		}
		return reg, nil
	default:
		return consent.NewMemoryRegistry(), nil
	}
}

func buildSink(ctx context.Context, cfg *config.Config, closers *[]func()) (audit.Sink, error) {
	logSink := audit.NewLogSink()
	if cfg.Audit.Kind != "postgres" {
		return logSink, nil
	}
	pool, err := pgxpool.New(ctx, cfg.Audit.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("audit pg: %w", err)
	}
	*closers = append(*closers, pool.Close)
	pgSink := audit.NewPGSink(pool)
	if err := pgSink.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("audit pg schema: %w", err)
	}
	return audit.NewMultiSink(logSink, pgSink), nil
}

func buildVault(cfg *config.Config, closers *[]func()) (*vault.Store, error) {
	box, err := vault.NewBox(cfg.Vault.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	ttl := config.MustDuration(cfg.Vault.DefaultTTL)
	if cfg.Vault.Kind == "redis" {
		backing := cacheredis.New(cfg.Vault.Redis.Addr, cfg.Vault.Redis.DB, cfg.Vault.Redis.Prefix)
		*closers = append(*closers, func() { _ = backing.Close() })
		return vault.NewStore(box, backing, ttl), nil
	}
	return vault.NewStore(box, cachememory.New(ttl), ttl), nil
}

func buildLimiters(cfg *config.Config, closers *[]func()) (rate.Limiter, rate.Limiter) {
	issueWindow := config.MustDuration(cfg.Rate.Issue.Window)
	runWindow := config.MustDuration(cfg.Rate.Run.Window)

	if cfg.Rate.Redis.Addr != "" {
		client := rdb.NewClient(&rdb.Options{
			Addr: cfg.Rate.Redis.Addr,
			DB:   cfg.Rate.Redis.DB,
		})
		*closers = append(*closers, func() { _ = client.Close() })
		return rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix+"issue:", cfg.Rate.Issue.Limit, issueWindow),
			rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix+"run:", cfg.Rate.Run.Limit, runWindow)
	}
	return rate.NewMemoryLimiter(cfg.Rate.Issue.Limit, issueWindow),
		rate.NewMemoryLimiter(cfg.Rate.Run.Limit, runWindow)
}
