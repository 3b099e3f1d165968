package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"odontoforense/internal/analysis"
	"odontoforense/internal/audit"
	casehandler "odontoforense/internal/casefile/handler"
	casemetrics "odontoforense/internal/casefile/metrics"
	caseservice "odontoforense/internal/casefile/service"
	casestore "odontoforense/internal/casefile/store"
	evidencehandler "odontoforense/internal/evidence/handler"
	evidenceservice "odontoforense/internal/evidence/service"
	evidencestore "odontoforense/internal/evidence/store"
	exporthandler "odontoforense/internal/export/handler"
	exportservice "odontoforense/internal/export/service"
	identityhandler "odontoforense/internal/identity/handler"
	"odontoforense/internal/identity/lockout"
	identityservice "odontoforense/internal/identity/service"
	sessionstore "odontoforense/internal/identity/store/session"
	userstore "odontoforense/internal/identity/store/user"
	jwttoken "odontoforense/internal/jwt_token"
	charthandler "odontoforense/internal/odontogram/handler"
	chartservice "odontoforense/internal/odontogram/service"
	chartstore "odontoforense/internal/odontogram/store"
	"odontoforense/internal/platform/config"
	"odontoforense/internal/platform/httpserver"
	"odontoforense/internal/platform/logger"
	"odontoforense/internal/platform/metrics"
	platformpg "odontoforense/internal/platform/postgres"
	platformredis "odontoforense/internal/platform/redis"
	httptransport "odontoforense/internal/transport/http"
	victimhandler "odontoforense/internal/victim/handler"
	victimservice "odontoforense/internal/victim/service"
	victimstore "odontoforense/internal/victim/store"
)

// main wires the dependency graph and owns the process lifecycle. Business
// rules live in the feature services; nothing here makes domain decisions.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

// victimStorage is what the victim feature and its dependants need from one
// victim store implementation.
type victimStorage interface {
	victimservice.VictimStore
	chartservice.VictimDirectory
	caseservice.CascadeStore
}

// chartStorage covers the odontogram store plus the hooks the victim and case
// cascades use.
type chartStorage interface {
	chartservice.ChartStore
	victimservice.ChartIndex
	victimservice.ChartSweeper
	caseservice.CascadeStore
}

type evidenceStorage interface {
	evidenceservice.EvidenceStore
	caseservice.CascadeStore
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	// Storage. With no database configured everything runs in memory, which
	// keeps local development a single-binary affair.
	var (
		cases     caseservice.CaseStore
		caseTx    caseservice.StoreTx
		victims   victimStorage
		charts    chartStorage
		evidences evidenceStorage
		users     identityservice.UserStore
		sessions  identityservice.SessionStore
		auditLog  audit.Store
	)

	if cfg.Postgres.URL != "" {
		db, err := platformpg.Open(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		if err := platformpg.EnsureSchema(ctx, db); err != nil {
			return err
		}

		cases = casestore.NewPostgres(db)
		caseTx = casestore.NewPostgresTx(db)
		victims = victimstore.NewPostgres(db)
		charts = chartstore.NewPostgres(db)
		evidences = evidencestore.NewPostgres(db)
		users = userstore.NewPostgres(db)
		auditLog = audit.NewPostgresStore(db)
		log.Info("storage ready", "backend", "postgres")
	} else {
		cases = casestore.NewInMemory()
		caseTx = casestore.NewInMemoryTx()
		victims = victimstore.NewInMemory()
		charts = chartstore.NewInMemory()
		evidences = evidencestore.NewInMemory()
		users = userstore.NewInMemory()
		auditLog = audit.NewInMemoryStore()
		log.Warn("storage ready", "backend", "memory")
	}

	// Sessions live in redis when it is configured so revocation and TTL
	// survive restarts.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = sessionstore.NewRedis(redisClient)
		log.Info("session store ready", "backend", "redis")
	} else {
		sessions = sessionstore.NewInMemory()
		log.Warn("session store ready", "backend", "memory")
	}

	// Audit pipeline: services emit into a channel, the worker fans events
	// out to the persistent log and, when configured, the Kafka topic.
	inbox := make(chan audit.Event, 256)
	sinks := []audit.Store{auditLog}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaStore, err := audit.NewKafkaStore(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		defer kafkaStore.Close()
		sinks = append(sinks, kafkaStore)
		log.Info("audit stream ready", "topic", cfg.Kafka.AuditTopic)
	}
	auditor := audit.NewPublisher(audit.NewChannelStore(inbox))
	worker := audit.NewWorker(inbox, log, sinks...)

	// Tokens and identity. Login throttling shares the redis instance with
	// the session store when one is configured.
	var lockouts lockout.Store
	if redisClient != nil {
		lockouts = lockout.NewRedis(redisClient)
	} else {
		lockouts = lockout.NewInMemory()
	}
	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	identities := identityservice.New(users, sessions, tokens,
		identityservice.WithLogger(log),
		identityservice.WithAuditPublisher(auditor),
		identityservice.WithSessionTTL(cfg.SessionTTL),
		identityservice.WithLockoutGuard(lockout.NewGuard(lockouts, lockout.DefaultPolicy())),
	)

	// Case analysis collaborator. Without an endpoint the deterministic mock
	// answers, so the analyze operation stays usable in development.
	var analyzer analysis.Client
	if cfg.Analysis.BaseURL != "" {
		analyzer = analysis.NewHTTPClient(cfg.Analysis.BaseURL, log)
	} else {
		analyzer = analysis.NewMockClient()
		log.Warn("analysis collaborator not configured, using canned answers")
	}

	// Feature services. The case service doubles as the permission authority
	// the narrower features gate against.
	caseSvc := caseservice.New(cases, victims, charts, evidences, identities, caseTx,
		caseservice.WithLogger(log),
		caseservice.WithAuditPublisher(auditor),
		caseservice.WithMetrics(casemetrics.New()),
		caseservice.WithAnalyzer(analyzer),
	)
	victimSvc := victimservice.New(victims, caseSvc, charts,
		victimservice.WithLogger(log),
		victimservice.WithAuditPublisher(auditor),
		victimservice.WithChartIndex(charts),
	)
	chartSvc := chartservice.New(charts, victims, caseSvc,
		chartservice.WithLogger(log),
		chartservice.WithAuditPublisher(auditor),
	)
	evidenceSvc := evidenceservice.New(evidences, caseSvc,
		evidenceservice.WithLogger(log),
		evidenceservice.WithAuditPublisher(auditor),
	)
	exportSvc := exportservice.New(caseSvc, victimSvc, evidenceSvc,
		exportservice.WithLogger(log),
		exportservice.WithMetrics(m),
	)

	router := httptransport.NewRouter(
		identityhandler.New(identities, log, m, tokens, identities),
		casehandler.New(caseSvc, log, m, tokens, identities),
		victimhandler.New(victimSvc, log, m, tokens, identities),
		charthandler.New(chartSvc, log, m, tokens, identities),
		evidencehandler.New(evidenceSvc, log, m, tokens, identities),
		exporthandler.New(exportSvc, log, m, tokens, identities),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
