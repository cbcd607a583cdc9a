package http

import (
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/zerotwo/sensor-gateway/apierr"
	"github.com/zerotwo/sensor-gateway/auth"
)

// measurementRequest is one generic measurement push. The payload stays an
// opaque JSON value end to end.
type measurementRequest struct {
	Timestamp string          `json:"timestamp"`
	Bucket    string          `json:"bucket" binding:"required"`
	Payload   json.RawMessage `json:"payload" binding:"required"`
}

// handleUploadData accepts a generic measurement and emits exactly one
// span for it. POST /api/data, token in the "emitter" header.
func (s *Server) handleUploadData(c *gin.Context) {
	// A missing header and an undecodable one get the same status but
	// distinct log lines.
	values := c.Request.Header.Values("Emitter")
	if len(values) == 0 {
		respondError(c, apierr.Newf(apierr.MalformedInput, "missing emitter header"))
		return
	}
	token := values[0]
	if !utf8.ValidString(token) {
		respondError(c, apierr.Newf(apierr.MalformedInput, "emitter header is not valid text"))
		return
	}

	var req measurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.New(apierr.MalformedInput, err))
		return
	}

	if !auth.TokenMatches(token, s.cfg.EmbeddedToken) {
		respondError(c, apierr.Newf(apierr.AuthorizationFailure, "emitter token mismatch"))
		return
	}

	timestamp := req.Timestamp
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	if err := s.emitter.EmitData(c.Request.Context(), req.Bucket, timestamp, req.Payload); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
