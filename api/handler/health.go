package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/store"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports the stored policy count and degrades status when the policy
// store cannot be read.
func Health(st store.PolicyStore, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		policies := 0
		if pols, err := st.List(); err != nil {
			status = "degraded"
		} else {
			policies = len(pols)
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Policies: policies,
			Version:  "0.1.0",
		})
	}
}
