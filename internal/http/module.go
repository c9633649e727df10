package http

import (
	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router
	// context.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route
// registration.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level
	// access.
	Engine *gin.Engine
	// V1 is the /api/v1 route group.
	V1 *gin.RouterGroup
	// Protected is the session-guarded route group under /api/v1.
	Protected *gin.RouterGroup
	// SessionGuard is the middleware backing Protected, for modules
	// that need to guard extra routes.
	SessionGuard gin.HandlerFunc
}
