package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/repository/mongostore"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/repository/pgstore"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/server"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/mongodb"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/tracer"
)

const rateLimiterSweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "clinicdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	client, err := mongodb.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn("mongodb disconnect failed", zap.Error(err))
		}
	}()
	db := client.Database(cfg.Mongo.Database)
	mongodb.EnsureIndexes(ctx, db, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector(cfg.App.Name, reg)

	stores := mongostore.New(db, m)
	repos := service.Repositories{
		Patients:   stores.Patients,
		Billings:   stores.Billings,
		VisitTypes: stores.VisitTypes,
		Doctors:    stores.Doctors,
	}

	if cfg.Database.Enabled {
		gdb, err := database.Connect(cfg.Database, log)
		if err != nil {
			return err
		}
		if err := database.Migrate(gdb, log); err != nil {
			return err
		}
		auditStore := pgstore.NewAuditStore(gdb)
		repos.Audit = auditStore
		if cfg.Database.AuditRetention > 0 {
			go purgeAuditLogs(ctx, auditStore, cfg.Database.AuditRetention, log)
		}
	} else {
		log.Info("audit database disabled, audit entries go to the log")
	}

	svc := service.New(repos, cfg.Billing.ServiceAddOnLabels, m, log)
	defer svc.Audit.Shutdown()

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit)
	go sweepRateLimiter(ctx, limiter)

	var jwtManager *auth.JWTManager
	if cfg.Auth.Enabled {
		jwtManager = auth.NewJWTManager(cfg.JWT)
	} else {
		log.Warn("authentication disabled, requests are not scoped to a doctor")
	}

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		Services:    svc,
		JWT:         jwtManager,
		Metrics:     m,
		Gatherer:    reg,
		RateLimiter: limiter,
		Log:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func sweepRateLimiter(ctx context.Context, l *middleware.IPRateLimiter) {
	t := time.NewTicker(rateLimiterSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Cleanup()
		}
	}
}

// purgeAuditLogs deletes audit rows older than retention once an hour.
func purgeAuditLogs(ctx context.Context, store *pgstore.AuditStore, retention time.Duration, log *zap.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := store.Purge(ctx, now.Add(-retention))
			if err != nil {
				log.Error("audit purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged audit logs", zap.Int64("rows", n))
			}
		}
	}
}
