package api

import (
	routes "housingsweep/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, deps routes.Deps) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), deps.Config)

	// Host shim endpoints
	routes.SetupHostHandlers(api, deps)

	// Presentation endpoints
	routes.SetupZoneHandlers(api, deps)
	routes.SetupScanHandlers(api, deps)
}
