package scheduler

import (
	"context"
	"fmt"

	"pestcrm_backend/internal/jobs"
	"pestcrm_backend/platform/config"
	"pestcrm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const (
	DefaultAlertsCron   = "0 * * * *"
	DefaultForecastCron = "0 6 * * 1"
)

// Periodic enqueues the batch jobs on their cron schedules.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
	entries   map[jobs.Name]string
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	opt, err := redisOptFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	p := &Periodic{log: log, entries: make(map[jobs.Name]string, 2)}
	p.scheduler = asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: cfg.GetLocation(),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("periodic enqueue failed", "error", err)
				return
			}
			log.Info("periodic job enqueued", "task", info.Type, "taskId", info.ID)
		},
	})

	schedules := []struct {
		name jobs.Name
		cron string
	}{
		{jobs.PipelineAlerts, cronOrDefault(cfg.GetAlertsCron(), DefaultAlertsCron)},
		{jobs.ForecastSnapshot, cronOrDefault(cfg.GetForecastCron(), DefaultForecastCron)},
	}

	queue := queueName(cfg)
	for _, s := range schedules {
		task, err := NewJobTask(s.name, JobPayload{Source: SourceCron})
		if err != nil {
			return nil, err
		}
		id, err := p.scheduler.Register(s.cron, task, jobTaskOptions(queue)...)
		if err != nil {
			return nil, fmt.Errorf("register %s schedule %q: %w", s.name, s.cron, err)
		}
		p.entries[s.name] = id
		log.Info("registered periodic job", "job", string(s.name), "cron", s.cron)
	}

	return p, nil
}

// EntryID returns the scheduler entry of a registered job.
func (p *Periodic) EntryID(name jobs.Name) (string, bool) {
	id, ok := p.entries[name]
	return id, ok
}

// Run starts the scheduler and stops it when ctx is done.
func (p *Periodic) Run(ctx context.Context) error {
	if err := p.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}

func cronOrDefault(expr, fallback string) string {
	if expr == "" {
		return fallback
	}
	return expr
}
