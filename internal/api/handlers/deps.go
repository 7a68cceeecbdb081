package routes

import (
	"errors"
	"net/http"
	"strconv"

	"housingsweep/internal/codec"
	"housingsweep/internal/host"
	"housingsweep/internal/model"
	"housingsweep/internal/notify"
	"housingsweep/internal/service/housing"
	"housingsweep/internal/service/scan"

	"github.com/gin-gonic/gin"
)

// Deps are the services the handlers call into
type Deps struct {
	Housing *housing.HousingService
	Bridge  *host.Bridge
	Feed    *notify.Feed
	Config  map[string]string
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, codec.ErrMalformedRecord),
		errors.Is(err, scan.ErrInvalidWard):
		return http.StatusBadRequest
	case errors.Is(err, housing.ErrNoZone),
		errors.Is(err, scan.ErrHostSurfaceUnavailable):
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"status":  "error",
		"message": err.Error(),
	})
}

func parseInt16(c *gin.Context, name, value string) (int16, bool) {
	n, err := strconv.ParseInt(value, 10, 16)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid " + name + ": " + value,
		})
		return 0, false
	}
	return int16(n), true
}

// zoneParam reads the :world and :territory path parameters
func zoneParam(c *gin.Context) (model.ZoneKey, bool) {
	world, ok := parseInt16(c, "world", c.Param("world"))
	if !ok {
		return model.ZoneKey{}, false
	}
	territory, ok := parseInt16(c, "territory", c.Param("territory"))
	if !ok {
		return model.ZoneKey{}, false
	}
	return model.ZoneKey{WorldID: world, TerritoryID: territory}, true
}

func wardParam(c *gin.Context) (int16, bool) {
	ward, ok := parseInt16(c, "ward", c.Param("ward"))
	if !ok {
		return 0, false
	}
	if !model.ValidWardNumber(ward) {
		respondError(c, scan.ErrInvalidWard)
		return 0, false
	}
	return ward, true
}
