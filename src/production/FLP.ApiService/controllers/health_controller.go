package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.ApiService/health"
)

// HealthController reports dependency status
type HealthController struct {
	checker *health.HealthChecker
}

// NewHealthController creates a new health controller
func NewHealthController(checker *health.HealthChecker) *HealthController {
	return &HealthController{checker: checker}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", c.Health)
	router.GET("/health/live", c.HealthLive)
}

func (c *HealthController) Health(ctx *gin.Context) {
	status, healthy := c.checker.GetHealthStatus(ctx.Request.Context())
	if !healthy {
		ctx.JSON(http.StatusServiceUnavailable, status)
		return
	}
	ctx.JSON(http.StatusOK, status)
}

func (c *HealthController) HealthLive(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
