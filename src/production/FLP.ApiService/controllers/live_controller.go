package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	broadcast "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Broadcast"
	logger "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Logger"
)

// LiveController upgrades viewer connections onto the broadcast hub
type LiveController struct {
	hub    *broadcast.Hub
	logger *logger.Logger
}

// NewLiveController creates a new live controller
func NewLiveController(hub *broadcast.Hub, log *logger.Logger) *LiveController {
	return &LiveController{hub: hub, logger: log}
}

// RegisterRoutes mounts the WebSocket endpoint at path
func (c *LiveController) RegisterRoutes(router *gin.Engine, path string) {
	router.GET(path, c.Connect)
}

func (c *LiveController) Connect(ctx *gin.Context) {
	if _, err := c.hub.Upgrade(ctx.Writer, ctx.Request); err != nil {
		// Upgrade has already written the HTTP error
		c.logger.Logger.Warn().Err(err).Str("client_ip", ctx.ClientIP()).Msg("WebSocket upgrade failed")
		ctx.Abort()
		return
	}
}

// NewLiveRouter builds the router for the dedicated live server
func NewLiveRouter(hub *broadcast.Hub, log *logger.Logger) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	NewLiveController(hub, log).RegisterRoutes(router, "/")
	return router
}
