package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"serviapp/internal/approval"
	approvalhandler "serviapp/internal/approval/handler"
	"serviapp/internal/catalog"
	"serviapp/internal/jwtauth"
	"serviapp/internal/platform/config"
	"serviapp/internal/platform/httpserver"
	"serviapp/internal/platform/logger"
	platformredis "serviapp/internal/platform/redis"
	providerhandler "serviapp/internal/provider/handler"
	providermetrics "serviapp/internal/provider/metrics"
	providerservice "serviapp/internal/provider/service"
	providerstore "serviapp/internal/provider/store"
	ratelimitmetrics "serviapp/internal/ratelimit/metrics"
	ratelimitmw "serviapp/internal/ratelimit/middleware"
	ratelimitmodels "serviapp/internal/ratelimit/models"
	ratelimitservice "serviapp/internal/ratelimit/service"
	"serviapp/internal/ratelimit/store/bucket"
	registrationhandler "serviapp/internal/registration/handler"
	registrationmetrics "serviapp/internal/registration/metrics"
	registrationservice "serviapp/internal/registration/service"
	registrationstore "serviapp/internal/registration/store"
	"serviapp/internal/upload"
	"serviapp/pkg/email"
	audit "serviapp/pkg/platform/audit"
	auditkafka "serviapp/pkg/platform/audit/kafka"
	"serviapp/pkg/platform/audit/publisher"
	auditmemory "serviapp/pkg/platform/audit/store/memory"
	auditpostgres "serviapp/pkg/platform/audit/store/postgres"
	auditworker "serviapp/pkg/platform/audit/worker"
	adminmw "serviapp/pkg/platform/middleware/admin"
	authmw "serviapp/pkg/platform/middleware/auth"
	metadata "serviapp/pkg/platform/middleware/metadata"
	request "serviapp/pkg/platform/middleware/request"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages. With no Postgres,
// Redis, or Kafka configured the process runs fully in memory, which is the
// local development mode.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var db *sql.DB
	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			fatal(log, "open postgres", err)
		}
		if err := db.Ping(); err != nil {
			fatal(log, "ping postgres", err)
		}
		defer func() { _ = db.Close() }()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		fatal(log, "connect redis", err)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Stores. Postgres when configured, in-memory otherwise.
	var (
		regStore    registrationstore.Store
		provStore   providerstore.Store
		catStore    catalog.Store
		auditStore  audit.Store
		auditOutbox auditworker.OutboxStore
		txRunner    approval.TxRunner
	)
	if db != nil {
		regStore = registrationstore.NewPostgres(db)
		provStore = providerstore.NewPostgres(db)
		catStore = catalog.NewPostgres(db)
		outbox := auditpostgres.New(db)
		auditStore, auditOutbox = outbox, outbox
		txRunner = newApprovalPostgresTx(db)
	} else {
		regStore = registrationstore.NewInMemoryStore()
		provStore = providerstore.NewInMemoryStore()
		memCatalog := catalog.NewInMemoryStore()
		catalog.SeedCuencaCatalog(memCatalog)
		catStore = memCatalog
		outbox := auditmemory.NewInMemoryStore()
		auditStore, auditOutbox = outbox, outbox
		txRunner = approval.MemoryTxRunner{}
	}

	blobs, err := upload.NewFSStore(cfg.BlobDir)
	if err != nil {
		fatal(log, "init blob store", err)
	}

	auditPub := publisher.NewPublisher(auditStore, publisher.WithLogger(log))

	regMetrics := registrationmetrics.New()
	provMetrics := providermetrics.New()
	rlMetrics := ratelimitmetrics.New()

	// Intake rate limiting: Redis sliding window shared across replicas, or
	// the in-memory window for a single process. The limiter falls back to
	// memory on Redis failures either way.
	var buckets ratelimitservice.BucketStore
	if redisClient != nil {
		buckets = bucket.NewRedisBucketStore(redisClient.Client)
	} else {
		buckets = bucket.NewInMemoryBucketStore()
	}
	limiter := ratelimitservice.New(buckets, ratelimitmodels.Policy{
		MaxRequests: cfg.IntakeMaxRequests,
		Window:      cfg.IntakeWindow,
	}, log, ratelimitservice.WithMetrics(rlMetrics))
	intakeMW := ratelimitmw.New(limiter, log)

	jwtSvc := jwtauth.NewService(cfg.JWTSigningKey, "serviapp")
	moderatorMW := authmw.RequireModerator(jwtSvc, log)
	adminMW := authmw.RequireAdmin(jwtSvc, log)

	// Services.
	regOpts := []registrationservice.Option{registrationservice.WithMetrics(regMetrics)}
	if cfg.SMTP.Host != "" && cfg.SMTP.To != "" {
		sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
		regOpts = append(regOpts, registrationservice.WithNotifier(sender, cfg.SMTP.To))
	}
	regSvc := registrationservice.New(regStore, blobs, auditPub, log, regOpts...)

	sync := providerservice.NewSynchronizer(provStore, catStore, log, provMetrics)
	provSvc := providerservice.New(provStore, regStore, sync, auditPub, log,
		providerservice.WithMetrics(provMetrics))
	approvals := approval.New(regStore, provStore, sync, txRunner, auditPub, log,
		approval.WithMetrics(regMetrics))

	// Router.
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))

	registrationhandler.New(regSvc, log, intakeMW.LimitIntake, moderatorMW).Register(r)
	approvalhandler.New(approvals, log, moderatorMW).Register(r)
	providerhandler.New(provSvc, log, adminMW).Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	if cfg.AdminToken != "" {
		r.Group(func(ops chi.Router) {
			ops.Use(adminmw.RequireAdminToken(cfg.AdminToken, log))
			ops.Post("/ops/ratelimit/reset", resetRateLimit(limiter))
		})
	}

	srv := httpserver.New(cfg.Addr, r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting serviapp", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// The audit worker drains the outbox to Kafka. Without brokers the
	// events stay in the outbox store for later inspection.
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := auditkafka.NewProducer(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			fatal(log, "connect kafka", err)
		}
		defer producer.Close()

		worker := auditworker.NewWorker(auditOutbox, producer, log)
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		fatal(log, "server error", err)
	}
	log.Info("serviapp stopped")
}

// resetRateLimit clears the intake window for one client IP. Break-glass
// tooling for support, guarded by the static admin token.
func resetRateLimit(limiter *ratelimitservice.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := r.URL.Query().Get("ip")
		if ip == "" {
			http.Error(w, `{"error":"bad_request","error_description":"ip query parameter required"}`, http.StatusBadRequest)
			return
		}
		if err := limiter.Reset(r.Context(), ip); err != nil {
			http.Error(w, `{"error":"internal_error","error_description":"reset failed"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
