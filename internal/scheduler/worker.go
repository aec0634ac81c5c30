package scheduler

import (
	"context"
	"fmt"

	alerttransport "pestcrm_backend/internal/alerts/transport"
	forecasttransport "pestcrm_backend/internal/forecast/transport"
	"pestcrm_backend/internal/jobs"
	"pestcrm_backend/platform/config"
	"pestcrm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// JobRunner executes jobs on behalf of the worker.
type JobRunner interface {
	RunPipelineAlerts(ctx context.Context, trigger jobs.Trigger) (alerttransport.PipelineAlertsResponse, error)
	RunForecastSnapshot(ctx context.Context, trigger jobs.Trigger) (forecasttransport.ForecastSnapshotResponse, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner JobRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner JobRunner, log *logger.Logger) (*Worker, error) {
	opt, err := redisOptFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server: server,
		runner: runner,
		log:    log,
	}
	w.mux = w.newMux()

	return w, nil
}

func (w *Worker) newMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPipelineAlerts, w.handlePipelineAlerts)
	mux.HandleFunc(TaskForecastSnapshot, w.handleForecastSnapshot)
	return mux
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handlePipelineAlerts(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseJobPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	resp, err := w.runner.RunPipelineAlerts(ctx, jobs.TriggerScheduler)
	if err != nil {
		return err
	}

	w.log.Info("pipeline alerts task done", "source", payload.Source, "alertsGenerated", resp.AlertsGenerated, "notificationsCreated", resp.NotificationsCreated)
	return nil
}

func (w *Worker) handleForecastSnapshot(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseJobPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	resp, err := w.runner.RunForecastSnapshot(ctx, jobs.TriggerScheduler)
	if err != nil {
		return err
	}

	w.log.Info("forecast snapshot task done", "source", payload.Source, "snapshotsCreated", resp.SnapshotsCreated, "snapshotDate", resp.SnapshotDate)
	return nil
}
