package container

import (
	"context"
	"fmt"
	"sync"

	alerting "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Alerting"
	"gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.ApiService/health"
	broadcast "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Broadcast"
	config "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Config"
	logger "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Logger"
	implementation "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Repository/Implementation"
	interfaces "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container manages dependencies and their lifecycle
type Container struct {
	config *config.Config
	logger *logger.Logger

	mongoClient *mongo.Client
	registry    *alerting.TokenRegistry
	hub         *broadcast.Hub
	relay       *alerting.RelayClient
	dispatcher  *alerting.Dispatcher

	// Mutex for thread-safe access
	mu sync.Mutex

	// Cleanup functions, run in reverse order on Shutdown
	cleanupFuncs []func() error
}

// NewContainer loads configuration and builds the process-wide singletons
func NewContainer() (*Container, error) {
	cfg, err := config.LoadBridgeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return NewContainerWithConfig(cfg, logger.NewLogger(&cfg.Logging)), nil
}

// NewContainerWithConfig builds a container around an existing configuration
func NewContainerWithConfig(cfg *config.Config, log *logger.Logger) *Container {
	registry := alerting.NewTokenRegistry()
	relay := alerting.NewRelayClient(cfg.Relay.URL, cfg.Relay.Timeout)

	c := &Container{
		config:     cfg,
		logger:     log,
		registry:   registry,
		hub:        broadcast.NewHub(cfg.Live, log),
		relay:      relay,
		dispatcher: alerting.NewDispatcher(registry, relay, log),
	}
	c.AddCleanupFunc(func() error {
		c.hub.Close()
		return nil
	})
	return c
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

func (c *Container) GetTokenRegistry() *alerting.TokenRegistry {
	return c.registry
}

func (c *Container) GetHub() *broadcast.Hub {
	return c.hub
}

func (c *Container) GetDispatcher() *alerting.Dispatcher {
	return c.dispatcher
}

// GetMongoClient connects on first use
func (c *Container) GetMongoClient() (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mongoClient == nil {
		client, err := health.ConnectMongoWithTimeout(&c.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.mongoClient = client
		c.cleanupFuncs = append(c.cleanupFuncs, func() error {
			return client.Disconnect(context.Background())
		})
		c.logger.Logger.Info().Str("database", c.config.Database.Name).Msg("MongoDB connected")
	}

	return c.mongoClient, nil
}

// Repositories groups the MongoDB-backed stores
type Repositories struct {
	Client   *mongo.Client
	Patients interfaces.PatientDirectory
	Doctors  interfaces.DoctorRepository
	Flaps    interfaces.FlapRepository
}

// GetRepositories builds the repositories over the configured collections
func (c *Container) GetRepositories() (*Repositories, error) {
	client, err := c.GetMongoClient()
	if err != nil {
		return nil, err
	}

	dbCfg := c.config.Database
	db := client.Database(dbCfg.Name)
	patients := db.Collection(dbCfg.PatientCollection)
	doctors := db.Collection(dbCfg.DoctorCollection)
	flaps := db.Collection(dbCfg.FlapDataCollection)

	return &Repositories{
		Client:   client,
		Patients: implementation.NewMongoPatientDirectory(patients, doctors, dbCfg.OperationTimeout),
		Doctors:  implementation.NewMongoDoctorRepository(doctors, dbCfg.OperationTimeout),
		Flaps:    implementation.NewMongoFlapRepository(flaps, dbCfg.OperationTimeout),
	}, nil
}

// AddCleanupFunc adds a cleanup function
func (c *Container) AddCleanupFunc(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}

// Shutdown runs cleanup functions in reverse registration order
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}

	c.logger.Info("Container shutdown complete")
	return nil
}
