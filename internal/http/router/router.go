package router

import (
	"context"
	"net/http"
	"time"

	apphttp "pestcrm_backend/internal/http"
	"pestcrm_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))

	engine.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		if app.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := app.Health.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
			status["database"] = "ok"
		}
		c.JSON(http.StatusOK, status)
	})

	apiLimiter := httpkit.NewIPRateLimiter(rate.Limit(10), 20, app.Logger)
	jobLimiter := httpkit.NewJobTriggerRateLimiter(app.Logger)

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(apiLimiter.RateLimit(), httpkit.AuthRequired(app.Config))

	jobsGroup := v1.Group("/jobs")
	jobsGroup.Use(jobLimiter.RateLimit(), httpkit.ServiceKeyRequired(app.Config))

	groups := &apphttp.RouteGroups{Protected: protected, Jobs: jobsGroup}
	for _, m := range app.Modules {
		m.RegisterRoutes(groups)
		app.Logger.Info("registered module routes", "module", m.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	c := cors.DefaultConfig()
	if cfg.GetCORSAllowAll() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.GetCORSOrigins()
		c.AllowCredentials = cfg.GetCORSAllowCreds()
		if len(c.AllowOrigins) == 0 {
			c.AllowOriginFunc = func(string) bool { return false }
		}
	}
	c.AddAllowMethods(http.MethodPatch)
	c.AddAllowHeaders("Authorization")
	return c
}
