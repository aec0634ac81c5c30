package http

import "github.com/gin-gonic/gin"

// Module mounts one feature's routes. Name is used in startup logs.
type Module interface {
	Name() string
	RegisterRoutes(groups *RouteGroups)
}

// RouteGroups are the mount points offered to modules.
type RouteGroups struct {
	// Protected is /api/v1, behind a user access token and a per-IP limit.
	Protected *gin.RouterGroup
	// Jobs is /api/v1/jobs, behind the service key and a stricter limit.
	Jobs *gin.RouterGroup
}
