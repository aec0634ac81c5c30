// Package http assembles the API's gin engine from feature modules.
package http

import (
	"context"

	"pestcrm_backend/platform/config"
	"pestcrm_backend/platform/logger"
)

// RouterConfig is the configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
	config.ServiceKeyConfig
}

// HealthChecker backs the /health probe.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to the router.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module
}
