package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAnalytics returns the dashboard snapshot. Premium feature.
func (s *Server) GetAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.entitlementSvc.RequirePro(ctx, "analytics"); err != nil {
		AbortWithError(c, err)
		return
	}

	snapshot, err := s.analyticsSvc.Snapshot(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}
