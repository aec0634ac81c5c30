// Package lambda holds the shared bootstrap for the Lambda entrypoints.
package lambda

import (
	"context"
	"fmt"

	"pestcrm_backend/internal/jobs"
	"pestcrm_backend/platform/config"
	"pestcrm_backend/platform/db"
	"pestcrm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps holds dependencies shared across invocations of one container.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger
	Pool   *pgxpool.Pool
	Runner *jobs.Runner
}

// Init loads configuration from the environment and connects to the database.
// Reads: DATABASE_URL, SERVICE_ROLE_KEY, APP_ENV, APP_TIMEZONE.
func Init(ctx context.Context) (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Env)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &Deps{
		Config: cfg,
		Logger: log,
		Pool:   pool,
		Runner: jobs.NewRunner(jobs.PoolAcquirer(pool), cfg.GetLocation(), log),
	}, nil
}
