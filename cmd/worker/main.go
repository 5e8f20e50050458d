package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldservice_backend/internal/appointments/repository"
	"fieldservice_backend/internal/assignment"
	"fieldservice_backend/internal/email"
	"fieldservice_backend/internal/notification"
	"fieldservice_backend/internal/scheduler"
	"fieldservice_backend/internal/sms"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/db"
	"fieldservice_backend/platform/logger"
	"fieldservice_backend/platform/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting assignment worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		log.Error("failed to register metrics", "error", err)
		panic("failed to register metrics: " + err.Error())
	}

	queue, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer func() { _ = queue.Close() }()

	store := repository.New(pool)
	matcher := assignment.NewMatcher(store, cfg.GetServiceLocation(), cfg.GetAssignmentFilterConcurrency())
	processor := scheduler.NewAssignmentProcessor(store, matcher, queue, recorder, log, cfg.GetAssignmentNoCandidateDelay())

	notifier := notification.New(store, newSMSSender(cfg, log), newEmailSender(cfg, log), recorder, cfg.GetServiceLocation(), log)

	worker, err := scheduler.NewWorker(cfg, processor, notifier, recorder, log)
	if err != nil {
		log.Error("failed to initialize assignment worker", "error", err)
		panic("failed to initialize assignment worker: " + err.Error())
	}

	if addr := cfg.GetWorkerMetricsAddr(); addr != "" {
		go serveMetrics(ctx, addr, registry, log)
	}

	worker.Run(ctx)
}

// newSMSSender falls back to logging when no webhook is configured.
func newSMSSender(cfg config.NotificationConfig, log *logger.Logger) sms.Sender {
	if client := sms.NewClient(cfg, log); client != nil {
		return client
	}
	log.Warn("SMS_WEBHOOK_URL not configured; technician SMS will only be logged")
	return sms.NewLogSender(log)
}

// newEmailSender falls back to logging when SMTP is not configured.
func newEmailSender(cfg config.NotificationConfig, log *logger.Logger) email.Sender {
	if !cfg.IsSMTPEnabled() {
		log.Warn("SMTP_HOST not configured; customer emails will only be logged")
		return email.NewLogSender(log)
	}
	return email.NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

func serveMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("worker metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server stopped", "error", err)
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
