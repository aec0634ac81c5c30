package scheduler

import (
	"encoding/json"
	"fmt"

	"pestcrm_backend/internal/jobs"

	"github.com/hibiken/asynq"
)

const TaskPipelineAlerts = "jobs:pipeline_alerts"

const TaskForecastSnapshot = "jobs:forecast_snapshot"

const (
	SourceCron   = "cron"
	SourceManual = "manual"
)

// JobPayload is kept stable per source so asynq uniqueness can match
// identical enqueues.
type JobPayload struct {
	Source string `json:"source"`
}

// TaskTypeFor maps a job to its asynq task type.
func TaskTypeFor(name jobs.Name) (string, error) {
	switch name {
	case jobs.PipelineAlerts:
		return TaskPipelineAlerts, nil
	case jobs.ForecastSnapshot:
		return TaskForecastSnapshot, nil
	default:
		return "", fmt.Errorf("unknown job %q", name)
	}
}

func NewJobTask(name jobs.Name, payload JobPayload) (*asynq.Task, error) {
	taskType, err := TaskTypeFor(name)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func ParseJobPayload(task *asynq.Task) (JobPayload, error) {
	var payload JobPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return JobPayload{}, err
	}
	return payload, nil
}
