package routes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupScanHandlers registers the scan control endpoints
func SetupScanHandlers(router *gin.RouterGroup, deps Deps) {
	scanGroup := router.Group("/scan")

	scanGroup.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Housing.Status())
	})
	scanGroup.POST("/start", func(c *gin.Context) { startScan(c, deps) })
	scanGroup.POST("/stop", func(c *gin.Context) { stopScan(c, deps) })
	scanGroup.POST("/wards/:ward/open", func(c *gin.Context) { openWard(c, deps) })

	router.POST("/reset", func(c *gin.Context) {
		log.Println("Reset endpoint called")
		deps.Housing.ResetAll()
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Seen houses have been reset."})
	})

	router.GET("/notifications", func(c *gin.Context) {
		if c.Query("take") == "true" {
			c.JSON(http.StatusOK, deps.Feed.Take())
			return
		}
		c.JSON(http.StatusOK, deps.Feed.List())
	})
}

// startScan handles the scan-all endpoint
func startScan(c *gin.Context, deps Deps) {
	log.Println("Scan start endpoint called")
	step, err := deps.Housing.StartScanAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"step":   step.String(),
	})
}

// stopScan handles the stop endpoint
func stopScan(c *gin.Context, deps Deps) {
	log.Println("Scan stop endpoint called")
	deps.Housing.Stop()
	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"stop_requested": deps.Housing.Status().StopRequested,
	})
}

// openWard handles the single ward endpoint
func openWard(c *gin.Context, deps Deps) {
	ward, ok := parseInt16(c, "ward", c.Param("ward"))
	if !ok {
		return
	}
	res, err := deps.Housing.OpenSingleWard(ward)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"result": res.String(),
	})
}
