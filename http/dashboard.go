package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleDashboard returns the three aggregated metrics from the
// time-series store. All-or-nothing: any failed sub-query fails the whole
// response. GET /api/dashboard.
func (s *Server) handleDashboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.QueryTimeout)
	defer cancel()

	dashboard, err := s.store.Dashboard(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
