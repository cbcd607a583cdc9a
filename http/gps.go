package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zerotwo/sensor-gateway/apierr"
	"github.com/zerotwo/sensor-gateway/auth"
)

type gpsGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// gpsLocation is a GeoJSON-shaped point. Properties pass through as raw
// JSON so their content survives span serialization untouched.
type gpsLocation struct {
	Type       string          `json:"type"`
	Geometry   gpsGeometry     `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

type gpsBatchRequest struct {
	Locations []gpsLocation `json:"locations"`
}

// handleUploadGPS accepts an ordered batch of GPS locations and emits one
// span per location. POST /api/gps/:bucket/:token.
func (s *Server) handleUploadGPS(c *gin.Context) {
	bucket := c.Param("bucket")
	token := c.Param("token")

	if !auth.TokenMatches(token, s.cfg.GPSToken) {
		respondError(c, apierr.Newf(apierr.AuthorizationFailure, "gps token mismatch"))
		return
	}

	var req gpsBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.New(apierr.MalformedInput, err))
		return
	}

	// Coordinates must be exactly [longitude, latitude]; wrong arity is
	// rejected up front, before anything is emitted.
	for i, location := range req.Locations {
		if len(location.Geometry.Coordinates) != 2 {
			respondError(c, apierr.Newf(apierr.MalformedInput,
				"location %d: coordinates must have exactly 2 elements, got %d",
				i, len(location.Geometry.Coordinates)))
			return
		}
	}

	// Emission calls are issued in input order. The first failure aborts
	// the rest of the batch; spans already handed off stand, no rollback.
	for i, location := range req.Locations {
		if err := s.emitter.EmitLocation(c.Request.Context(), bucket, location); err != nil {
			respondError(c, fmt.Errorf("location %d: %w", i, err))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"result": "ok"})
}
