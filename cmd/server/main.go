// Command server wires the security pipeline and runs the HTTP API plus the
// scheduled workers. Business logic lives in the internal service packages;
// this file only selects stores, constructs services, and owns the process
// lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	audithandler "grantgate/internal/audit/handler"
	auditmetrics "grantgate/internal/audit/metrics"
	auditservice "grantgate/internal/audit/service"
	"grantgate/internal/jwtauth"
	"grantgate/internal/platform/config"
	"grantgate/internal/platform/httpserver"
	"grantgate/internal/platform/logger"
	platformmw "grantgate/internal/platform/middleware"
	"grantgate/internal/platform/postgres"
	redisplatform "grantgate/internal/platform/redis"
	ratelimitmetrics "grantgate/internal/ratelimit/metrics"
	ratelimitmw "grantgate/internal/ratelimit/middleware"
	ratelimitservice "grantgate/internal/ratelimit/service"
	"grantgate/internal/retention"
	retentionmetrics "grantgate/internal/retention/metrics"
	securityhandler "grantgate/internal/security/handler"
	securitymetrics "grantgate/internal/security/metrics"
	securitymw "grantgate/internal/security/middleware"
	"grantgate/internal/security/service/activity"
	"grantgate/internal/security/service/logins"
	"grantgate/internal/selftest"
	selftesthandler "grantgate/internal/selftest/handler"
	selftestmetrics "grantgate/internal/selftest/metrics"
	selftestports "grantgate/internal/selftest/ports"
	"grantgate/pkg/platform/fieldcrypt"
	"grantgate/pkg/platform/middleware/metadata"
)

func main() {
	configPath := flag.String("config", os.Getenv("GRANTGATE_CONFIG"), "path to yaml config file")
	flag.Parse()

	log := logger.New()

	if err := run(*configPath, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.ApplySchema(ctx, db); err != nil {
			return err
		}
		log.Info("postgres connected")
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	rdb, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("redis connected, rate limit counters shared")
	}

	// Audit trail.
	var cipher *fieldcrypt.Cipher
	if cfg.Audit.EncryptionKey != "" {
		cipher, err = fieldcrypt.New(cfg.Audit.EncryptionKey, "audit-changes")
		if err != nil {
			return err
		}
	}
	auditSvc, err := auditservice.New(
		auditEventStore(db, cipher),
		auditservice.WithLogger(log),
		auditservice.WithMetrics(auditmetrics.New()),
	)
	if err != nil {
		return err
	}

	// Rate limiter.
	limiter, err := ratelimitservice.New(
		counterStore(rdb),
		ratelimitservice.WithLogger(log),
		ratelimitservice.WithMetrics(ratelimitmetrics.New()),
		ratelimitservice.WithConfig(cfg.RateLimit),
	)
	if err != nil {
		return err
	}
	rateLimitGate := ratelimitmw.New(limiter, auditSvc, log)

	// Failed-login tracker and activity monitor share one metrics struct
	// and one alert store.
	secMetrics := securitymetrics.New()
	failedLogins, lockStates, alerts, activityLog := trackingStores(db)

	loginTracker, err := logins.New(failedLogins, lockStates, alerts,
		logins.WithLogger(log),
		logins.WithMetrics(secMetrics),
		logins.WithConfig(logins.Config{
			Threshold: cfg.Security.FailedLoginThreshold,
			Window:    cfg.Security.FailedLoginWindow,
		}),
	)
	if err != nil {
		return err
	}

	activityMonitor, err := activity.New(activityLog, alerts,
		activity.WithLogger(log),
		activity.WithMetrics(secMetrics),
		activity.WithConfig(activity.Config{
			Threshold:          cfg.Security.ActivityThreshold,
			Window:             cfg.Security.ActivityWindow,
			AlertOncePerWindow: cfg.Security.AlertOncePerWindow,
			FailOpen:           cfg.Security.FailOpen,
		}),
	)
	if err != nil {
		return err
	}
	activityTracker := securitymw.NewActivityTracker(activityMonitor, cfg.Security.CountRateLimited, log)

	// Retention sweeper prunes user data, documents, and the audit trail
	// itself, then records the cleanup in the trail.
	personalInfo, documents := userDataStores(db)
	sweeper, err := retention.NewSweeper(
		retention.Policy{
			PersonalInfoDays: cfg.Retention.PersonalInfoDays,
			DocumentDays:     cfg.Retention.DocumentDays,
			AuditLogDays:     cfg.Retention.AuditLogDays,
		},
		personalInfo, documents, auditSvc, auditSvc,
		retention.WithLogger(log),
		retention.WithMetrics(retentionmetrics.New()),
	)
	if err != nil {
		return err
	}

	// Self-test engine with the built-in battery.
	engine, err := selftest.New(selftestResultStore(db),
		selftest.WithLogger(log),
		selftest.WithMetrics(selftestmetrics.New()),
		selftest.WithProbeRate(cfg.SelfTest.ProbeRate),
		selftest.WithValidateSettings(selftest.ValidateSettings{
			CORSOrigins: cfg.Server.CORSOrigins,
			MFARequired: cfg.Auth.MFARequired,
		}),
	)
	if err != nil {
		return err
	}
	engine.Register(selftest.DependencyFreshness(selftest.StaticDependencySource{
		Dependencies: []selftestports.Dependency{
			{Name: "go-chi/chi", Version: "5.2.3"},
			{Name: "golang-jwt/jwt", Version: "5.3.0"},
			{Name: "redis/go-redis", Version: "9.17.2"},
			{Name: "lib/pq", Version: "1.10.9"},
		},
	}))
	engine.Register(selftest.SecretsDetection(map[string]string{
		"jwt_secret":   cfg.Auth.JWTSigningKey,
		"database_dsn": cfg.Database.DSN,
		"redis_url":    cfg.Redis.URL,
	}))
	engine.Register(selftest.DynamicProbes(selftest.StaticProber{}))

	jwtSvc := jwtauth.New(cfg.Auth.JWTSigningKey, "grantgate")

	router := newRouter(routerDeps{
		cfg:             cfg,
		log:             log,
		jwt:             jwtSvc,
		rateLimitGate:   rateLimitGate,
		activityTracker: activityTracker,
		audit:           audithandler.New(auditSvc, log),
		security:        securityhandler.New(loginTracker, alerts, log),
		selftest:        selftesthandler.New(engine, log),
		health:          healthHandler(db, rdb),
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting grantgate", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return retention.NewWorker(sweeper, cfg.Retention.SweepInterval, log).Run(ctx)
	})
	g.Go(func() error {
		return selftest.NewWorker(engine, cfg.SelfTest.RunInterval, log).Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

type routerDeps struct {
	cfg             *config.Config
	log             *slog.Logger
	jwt             *jwtauth.Service
	rateLimitGate   *ratelimitmw.Middleware
	activityTracker *securitymw.ActivityTracker
	audit           *audithandler.Handler
	security        *securityhandler.Handler
	selftest        *selftesthandler.Handler
	health          http.HandlerFunc
}

// newRouter builds the middleware chain and mounts the module handlers.
// Sensitive routes sit behind auth, the activity monitor, and the rate
// limit gate; /metrics and /healthz stay open for the platform.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(platformmw.Recovery(d.log))
	r.Use(platformmw.RequestID)
	r.Use(platformmw.RequestTime)
	r.Use(metadata.ClientMetadata)
	r.Use(platformmw.SecurityHeaders)
	r.Use(platformmw.Logger(d.log))
	r.Use(platformmw.Timeout(d.cfg.Server.RequestTimeout))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", d.health)

	r.Group(func(r chi.Router) {
		r.Use(platformmw.RequireAuth(d.jwt))
		r.Use(d.activityTracker.Track)
		r.Use(d.rateLimitGate.RateLimit)

		d.audit.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(platformmw.RequireAdmin)
			d.audit.RegisterAdmin(r)
			d.security.RegisterAdmin(r)
			d.selftest.Register(r)
		})
	})

	return r
}

func healthHandler(db *sql.DB, rdb *redisplatform.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Health(ctx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
