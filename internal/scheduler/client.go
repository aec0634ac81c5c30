package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"pestcrm_backend/internal/jobs"
	"pestcrm_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// uniqueFor keeps a job from being queued again while an earlier copy is
// still pending or running.
const uniqueFor = 50 * time.Minute

// runTimeout bounds a single job execution inside the worker.
const runTimeout = 15 * time.Minute

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisOptFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueJob queues an ad-hoc run of a job and returns the task id.
// asynq.ErrDuplicateTask is returned while an identical run is still queued.
func (c *Client) EnqueueJob(ctx context.Context, name jobs.Name) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("scheduler client not configured")
	}

	task, err := NewJobTask(name, JobPayload{Source: SourceManual})
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task, jobTaskOptions(c.queue)...)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func jobTaskOptions(queue string) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(queue),
		asynq.MaxRetry(0),
		asynq.Timeout(runTimeout),
		asynq.Unique(uniqueFor),
	}
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisOptFromConfig(cfg config.SchedulerConfig) (asynq.RedisClientOpt, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("redis url not configured")
	}
	return redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
