// Package jobs runs the scheduled batch jobs. Every surface that triggers a
// job (HTTP, asynq worker, Lambda) goes through Runner.
package jobs

import (
	"context"
	"fmt"
	"time"

	alertservice "pestcrm_backend/internal/alerts/service"
	alerttransport "pestcrm_backend/internal/alerts/transport"
	forecastrepo "pestcrm_backend/internal/forecast/repository"
	forecastservice "pestcrm_backend/internal/forecast/service"
	forecasttransport "pestcrm_backend/internal/forecast/transport"
	"pestcrm_backend/internal/notification/inapp"
	pipelinerepo "pestcrm_backend/internal/pipeline/repository"
	"pestcrm_backend/platform/db"
	"pestcrm_backend/platform/logger"
	"pestcrm_backend/platform/telemetry"
	"pestcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

// Name identifies a job.
type Name string

const (
	PipelineAlerts   Name = "pipeline-alerts"
	ForecastSnapshot Name = "forecast-snapshot"
)

// Trigger records what started a run.
type Trigger string

const (
	TriggerHTTP      Trigger = "http"
	TriggerScheduler Trigger = "scheduler"
	TriggerLambda    Trigger = "lambda"
)

const instrumentationName = "pestcrm_backend/internal/jobs"

// Acquirer hands out a connection for the duration of one run. The returned
// release func must be called on every exit path.
type Acquirer func(ctx context.Context) (db.DBTX, func(), error)

// PoolAcquirer acquires a dedicated connection from pool per run.
func PoolAcquirer(pool *pgxpool.Pool) Acquirer {
	return func(ctx context.Context) (db.DBTX, func(), error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, nil, err
		}
		return conn, conn.Release, nil
	}
}

// AlertJob is the alert service as seen by the runner.
type AlertJob interface {
	Run(ctx context.Context) (alertservice.Result, error)
}

// SnapshotJob is the forecast service as seen by the runner.
type SnapshotJob interface {
	Run(ctx context.Context) (forecastservice.Result, error)
}

// DefaultTimeout bounds a single run. It matches the asynq task timeout.
const DefaultTimeout = 15 * time.Minute

type Runner struct {
	acquire  Acquirer
	location *time.Location
	timeout  time.Duration
	log      *logger.Logger
	group    singleflight.Group

	newAlertJob    func(q db.DBTX) AlertJob
	newSnapshotJob func(q db.DBTX) SnapshotJob

	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

// Option customizes a Runner.
type Option func(*Runner)

// WithAlertJob replaces how the alert job is built over a connection.
func WithAlertJob(fn func(q db.DBTX) AlertJob) Option {
	return func(r *Runner) { r.newAlertJob = fn }
}

// WithTimeout bounds each run. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithSnapshotJob replaces how the snapshot job is built over a connection.
func WithSnapshotJob(fn func(q db.DBTX) SnapshotJob) Option {
	return func(r *Runner) { r.newSnapshotJob = fn }
}

func NewRunner(acquire Acquirer, location *time.Location, log *logger.Logger, opts ...Option) *Runner {
	if location == nil {
		location = time.UTC
	}
	val := validator.New()

	r := &Runner{acquire: acquire, location: location, timeout: DefaultTimeout, log: log}
	r.newAlertJob = func(q db.DBTX) AlertJob {
		pipeline := pipelinerepo.New(q, val, log)
		notifications := inapp.NewService(inapp.NewRepository(q), log)
		return alertservice.New(pipeline, notifications, log)
	}
	r.newSnapshotJob = func(q db.DBTX) SnapshotJob {
		pipeline := pipelinerepo.New(q, val, log)
		return forecastservice.New(pipeline, forecastrepo.New(q), r.location, log)
	}
	for _, opt := range opts {
		opt(r)
	}

	meter := telemetry.Meter(instrumentationName)
	var err error
	if r.runs, err = meter.Int64Counter("jobs.runs", metric.WithDescription("Job runs by job and outcome")); err != nil {
		r.log.Warn("job run counter unavailable", "error", err)
	}
	if r.duration, err = meter.Float64Histogram("jobs.duration", metric.WithUnit("ms")); err != nil {
		r.log.Warn("job duration histogram unavailable", "error", err)
	}

	return r
}

// RunPipelineAlerts evaluates alert rules and stores new notifications.
func (r *Runner) RunPipelineAlerts(ctx context.Context, trigger Trigger) (alerttransport.PipelineAlertsResponse, error) {
	v, err := r.run(ctx, PipelineAlerts, trigger, func(ctx context.Context, q db.DBTX) (any, []any, error) {
		result, err := r.newAlertJob(q).Run(ctx)
		if err != nil {
			return nil, nil, err
		}
		attrs := []any{
			"alertsGenerated", result.AlertsGenerated,
			"notificationsCreated", result.NotificationsCreated,
			"suppressed", result.Suppressed,
			"usersSkipped", len(result.SkippedUsers),
		}
		return alerttransport.NewPipelineAlertsResponse(result), attrs, nil
	})
	if err != nil {
		return alerttransport.PipelineAlertsResponse{}, err
	}
	return v.(alerttransport.PipelineAlertsResponse), nil
}

// RunForecastSnapshot stores this month's forecast snapshots.
func (r *Runner) RunForecastSnapshot(ctx context.Context, trigger Trigger) (forecasttransport.ForecastSnapshotResponse, error) {
	v, err := r.run(ctx, ForecastSnapshot, trigger, func(ctx context.Context, q db.DBTX) (any, []any, error) {
		result, err := r.newSnapshotJob(q).Run(ctx)
		if err != nil {
			return nil, nil, err
		}
		attrs := []any{
			"snapshotsCreated", result.SnapshotsCreated,
			"inserted", result.Inserted,
			"updated", result.Updated,
			"usersSkipped", result.SkippedUsers,
			"failedWrites", result.FailedWrites,
		}
		return forecasttransport.NewForecastSnapshotResponse(result), attrs, nil
	})
	if err != nil {
		return forecasttransport.ForecastSnapshotResponse{}, err
	}
	return v.(forecasttransport.ForecastSnapshotResponse), nil
}

type jobFunc func(ctx context.Context, q db.DBTX) (any, []any, error)

// run collapses concurrent calls for the same job into one execution and
// scopes it to a single acquired connection. The execution is detached from
// the caller that started it and bounded by the runner timeout only, so a
// caller giving up never cancels the run for the others.
func (r *Runner) run(ctx context.Context, name Name, trigger Trigger, fn jobFunc) (any, error) {
	var leader bool
	ch := r.group.DoChan(string(name), func() (any, error) {
		leader = true
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.execute(runCtx, name, trigger, fn)
	})

	select {
	case res := <-ch:
		if res.Shared && !leader {
			r.log.Info("job run shared with in-flight invocation", "job", string(name), "trigger", string(trigger))
		}
		return res.Val, res.Err
	case <-ctx.Done():
		r.log.Warn("job caller gave up, run continues", "job", string(name), "trigger", string(trigger), "error", ctx.Err())
		return nil, ctx.Err()
	}
}

func (r *Runner) execute(ctx context.Context, name Name, trigger Trigger, fn jobFunc) (any, error) {
	ctx, span := telemetry.Tracer(instrumentationName).Start(ctx, "jobs."+spanName(name))
	defer span.End()
	span.SetAttributes(attribute.String("job.name", string(name)), attribute.String("job.trigger", string(trigger)))

	log := r.log.WithContext(ctx)
	start := time.Now()
	log.JobStarted(string(name), string(trigger))

	v, attrs, err := r.withConn(ctx, fn)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.JobFailed(string(name), elapsed, err)
	} else {
		log.JobCompleted(string(name), elapsed, attrs...)
	}

	metricAttrs := metric.WithAttributes(attribute.String("job", string(name)), attribute.String("outcome", outcome))
	if r.runs != nil {
		r.runs.Add(ctx, 1, metricAttrs)
	}
	if r.duration != nil {
		r.duration.Record(ctx, elapsed, metricAttrs)
	}

	return v, err
}

func (r *Runner) withConn(ctx context.Context, fn jobFunc) (any, []any, error) {
	if r.acquire == nil {
		return nil, nil, fmt.Errorf("database not configured")
	}
	conn, release, err := r.acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer release()

	return fn(ctx, conn)
}

func spanName(name Name) string {
	switch name {
	case PipelineAlerts:
		return "pipeline_alerts"
	case ForecastSnapshot:
		return "forecast_snapshot"
	default:
		return string(name)
	}
}
