package health

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	config "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// Pinger is satisfied by *mongo.Client
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// ConnectionStatus reports whether a long-lived connection is up
type ConnectionStatus interface {
	IsConnected() bool
}

// Counter reports a current size
type Counter interface {
	Count() int
}

// ConnectMongoWithTimeout connects to MongoDB and pings the primary within the timeout
func ConnectMongoWithTimeout(cfg *config.DatabaseConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	if clientOptions.TLSConfig != nil {
		clientOptions.TLSConfig.MinVersion = tls.VersionTLS12
	}
	clientOptions.SetServerSelectionTimeout(cfg.ConnectTimeout)
	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("unable to ping MongoDB: %w", err)
	}

	return client, nil
}

// HealthChecker aggregates the state of the bridge dependencies
type HealthChecker struct {
	mongo   Pinger
	mqtt    ConnectionStatus
	viewers Counter
	tokens  func() int
	timeout time.Duration
}

func NewHealthChecker(mongo Pinger, mqtt ConnectionStatus, viewers Counter, tokens func() int) *HealthChecker {
	return &HealthChecker{
		mongo:   mongo,
		mqtt:    mqtt,
		viewers: viewers,
		tokens:  tokens,
		timeout: 2 * time.Second,
	}
}

// PingMongo checks if the MongoDB connection is healthy
func (h *HealthChecker) PingMongo(ctx context.Context) error {
	if h.mongo == nil {
		return fmt.Errorf("database connection is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.mongo.Ping(ctx, readpref.Primary())
}

// GetHealthStatus returns the current status and whether every dependency is up
func (h *HealthChecker) GetHealthStatus(ctx context.Context) (map[string]interface{}, bool) {
	services := map[string]interface{}{}
	healthy := true

	if err := h.PingMongo(ctx); err != nil {
		healthy = false
		services["mongodb"] = map[string]interface{}{"status": StatusError, "error": err.Error()}
	} else {
		services["mongodb"] = map[string]interface{}{"status": StatusOK}
	}

	if h.mqtt == nil || !h.mqtt.IsConnected() {
		healthy = false
		services["mqtt"] = map[string]interface{}{"status": StatusError, "error": "not connected"}
	} else {
		services["mqtt"] = map[string]interface{}{"status": StatusOK}
	}

	status := map[string]interface{}{
		"status":    StatusOK,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	}
	if !healthy {
		status["status"] = StatusDegraded
	}
	if h.viewers != nil {
		status["viewers"] = h.viewers.Count()
	}
	if h.tokens != nil {
		status["push_tokens"] = h.tokens()
	}

	return status, healthy
}
