package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pestcrm_backend/internal/jobs"
	"pestcrm_backend/internal/scheduler"
	"pestcrm_backend/platform/config"
	"pestcrm_backend/platform/db"
	"pestcrm_backend/platform/logger"
	"pestcrm_backend/platform/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	enqueue := flag.String("enqueue", "", "queue one run of a job (pipeline-alerts or forecast-snapshot) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := cfg.ValidateScheduler(); err != nil {
		panic("invalid scheduler config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *enqueue != "" {
		if err := enqueueOnce(ctx, cfg, jobs.Name(*enqueue), log); err != nil {
			log.Error("failed to enqueue job", "job", *enqueue, "error", err)
			os.Exit(1)
		}
		return
	}

	log.Info("starting scheduler", "env", cfg.Env, "timezone", cfg.GetLocation().String())

	shutdownTelemetry, err := telemetry.Init(ctx, cfg, "pestcrm-scheduler")
	if err != nil {
		log.Error("failed to initialize telemetry", "error", err)
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(flushCtx)
	}()

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

	runner := jobs.NewRunner(jobs.PoolAcquirer(pool), cfg.GetLocation(), log)

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, runner, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return periodic.Run(gctx) })
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
}

func enqueueOnce(ctx context.Context, cfg config.SchedulerConfig, name jobs.Name, log *logger.Logger) error {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	id, err := client.EnqueueJob(ctx, name)
	if err != nil {
		return err
	}
	log.Info("job enqueued", "job", string(name), "taskId", id)
	return nil
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
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

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
