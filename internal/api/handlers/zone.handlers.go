package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupZoneHandlers registers the read endpoints over seen plots
func SetupZoneHandlers(router *gin.RouterGroup, deps Deps) {
	zoneGroup := router.Group("/zones/:world/:territory")

	zoneGroup.GET("", func(c *gin.Context) {
		zone, ok := zoneParam(c)
		if !ok {
			return
		}
		resp := gin.H{
			"zone":  zone.String(),
			"wards": deps.Housing.Summaries(zone),
		}
		if updatedAt, ok := deps.Housing.ZoneUpdatedAt(zone); ok {
			resp["updated_at"] = updatedAt
		}
		// ?plots=true adds every stored ward's 60 plot slots keyed by ward number
		if c.Query("plots") == "true" {
			resp["plots"] = deps.Housing.GetZone(zone)
		}
		c.JSON(http.StatusOK, resp)
	})

	zoneGroup.GET("/wards/:ward", func(c *gin.Context) {
		zone, ok := zoneParam(c)
		if !ok {
			return
		}
		ward, ok := wardParam(c)
		if !ok {
			return
		}

		plots := deps.Housing.GetWard(zone, ward)
		if plots == nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "ward has not been seen"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"zone":  zone.String(),
			"ward":  ward,
			"plots": plots,
		})
	})

	zoneGroup.GET("/vacant", func(c *gin.Context) {
		zone, ok := zoneParam(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"zone":  zone.String(),
			"plots": deps.Housing.VacantPlots(zone),
		})
	})

	router.GET("/seen", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"has_seen_plots": deps.Housing.HasAnySeenPlots()})
	})
}
