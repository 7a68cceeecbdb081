package routes

import (
	"github.com/gin-gonic/gin"
)

// SetupMainHandlers registers the main application endpoints
func SetupMainHandlers(router *gin.RouterGroup, config map[string]string) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "ok",
			"port":     config["port"],
			"history":  config["history"],
			"snapshot": config["snapshot"],
		})
	})
}
