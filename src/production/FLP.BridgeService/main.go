package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.ApiService/controllers"
	"gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.ApiService/health"
	jwt "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.ApiService/implementation/jwt"
	authMiddleware "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.ApiService/middleware"
	bridge "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Bridge"
	container "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Container"
	api_models "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models/api"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	config := ctr.GetConfig()
	logger.Info("Starting flap bridge")

	repos, err := ctr.GetRepositories()
	if err != nil {
		logger.FatalWithError(err, "Failed to initialize repositories")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MQTT bridge
	mqttClient := bridge.NewMQTTClient(config, logger)
	pipeline := bridge.NewBridge(repos.Patients, repos.Flaps, ctr.GetHub(), ctr.GetDispatcher(), mqttClient, logger)
	if err := mqttClient.Start(ctx, func(ctx context.Context, topic string, payload []byte) {
		pipeline.HandleMessage(ctx, topic, payload)
	}); err != nil {
		logger.FatalWithError(err, "Failed to start MQTT client")
	}
	ctr.AddCleanupFunc(func() error {
		mqttClient.Stop()
		return nil
	})

	// API server
	jwtService := jwt.NewService(api_models.Config{
		SecretKey:           config.Auth.JWTSecretKey,
		AccessTokenDuration: config.Auth.AccessTokenDuration,
		Issuer:              config.Auth.JWTIssuer,
	})
	auth := authMiddleware.NewAuthMiddleware(jwtService)

	router := gin.New()
	router.Use(authMiddleware.RequestLogger(logger.WithComponent("http")))
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}))

	registry := ctr.GetTokenRegistry()
	checker := health.NewHealthChecker(repos.Client, mqttClient, ctr.GetHub(), registry.Len)

	controllers.NewAlertController(registry, repos.Doctors, ctr.GetDispatcher(), logger).RegisterRoutes(router)
	controllers.NewFlapController(repos.Flaps, logger, auth).RegisterRoutes(router)
	controllers.NewHealthController(checker).RegisterRoutes(router)
	controllers.NewLiveController(ctr.GetHub(), logger).RegisterRoutes(router, "/ws")

	apiServer := &http.Server{
		Addr:         ":" + config.Server.Port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	// Live server, WebSocket only. No write timeout: connections are long-lived.
	liveServer := &http.Server{
		Addr:        ":" + config.Live.Port,
		Handler:     controllers.NewLiveRouter(ctr.GetHub(), logger),
		IdleTimeout: config.Server.IdleTimeout,
	}

	for name, srv := range map[string]*http.Server{"API": apiServer, "Live": liveServer} {
		go func(name string, srv *http.Server) {
			logger.Info(name + " server starting on " + srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.FatalWithError(err, "Failed to start "+name+" server")
			}
		}(name, srv)
	}

	logger.Info("Flap bridge running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer shutdownCancel()

	for _, srv := range []*http.Server{apiServer, liveServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorWithError(err, "Server forced to shutdown")
		}
	}
}
