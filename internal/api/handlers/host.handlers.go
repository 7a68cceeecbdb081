package routes

import (
	"log"
	"net/http"

	"housingsweep/internal/model"

	"github.com/gin-gonic/gin"
)

type surfaceRequest struct {
	Visible bool `json:"visible"`
}

type zoneRequest struct {
	World     *int16 `json:"world"`
	Territory *int16 `json:"territory"`
}

// SetupHostHandlers registers the endpoints used by the in-game shim
func SetupHostHandlers(router *gin.RouterGroup, deps Deps) {
	hostGroup := router.Group("/host")

	hostGroup.POST("/ward-info", func(c *gin.Context) { wardInfo(c, deps) })
	hostGroup.POST("/surface", func(c *gin.Context) { surface(c, deps) })
	hostGroup.POST("/zone", func(c *gin.Context) { enterZone(c, deps) })
	hostGroup.GET("/commands", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Bridge.Drain())
	})
}

// wardInfo accepts one raw ward record; world and territory query parameters
// name the zone the player is in
func wardInfo(c *gin.Context, deps Deps) {
	var current *model.ZoneKey
	if world, territory := c.Query("world"), c.Query("territory"); world != "" && territory != "" {
		w, ok := parseInt16(c, "world", world)
		if !ok {
			return
		}
		t, ok := parseInt16(c, "territory", territory)
		if !ok {
			return
		}
		current = &model.ZoneKey{WorldID: w, TerritoryID: t}
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if err := deps.Housing.HandleWardInfo(raw, current); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func surface(c *gin.Context, deps Deps) {
	var req surfaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	deps.Bridge.SetSurfaceVisible(req.Visible)
	c.JSON(http.StatusOK, gin.H{"status": "success", "visible": req.Visible})
}

func enterZone(c *gin.Context, deps Deps) {
	var req zoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if req.World == nil || req.Territory == nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "world and territory are required"})
		return
	}

	zone := model.ZoneKey{WorldID: *req.World, TerritoryID: *req.Territory}
	log.Printf("Host: player entered zone %s", zone)
	deps.Housing.EnterZone(zone)
	c.JSON(http.StatusOK, gin.H{"status": "success", "zone": zone.String()})
}
