package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-this-secret-in-production"

// Config holds all configuration for the bridge process
type Config struct {
	// API server configuration
	Server ServerConfig `json:"server"`

	// WebSocket live channel configuration
	Live LiveConfig `json:"live"`

	// MongoDB configuration
	Database DatabaseConfig `json:"database"`

	// MQTT configuration
	MQTT MQTTConfig `json:"mqtt"`

	// Push relay configuration
	Relay RelayConfig `json:"relay"`

	// Auth configuration
	Auth AuthConfig `json:"auth"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// CORS configuration
	CORS CORSConfig `json:"cors"`
}

// ServerConfig holds HTTP API server configuration
type ServerConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// LiveConfig holds configuration for the WebSocket viewer server
type LiveConfig struct {
	Port           string        `json:"port"`
	WriteWait      time.Duration `json:"write_wait"`
	PongWait       time.Duration `json:"pong_wait"`
	SendBuffer     int           `json:"send_buffer"`
	MaxMessageSize int64         `json:"max_message_size"`
}

// DatabaseConfig holds MongoDB configuration
type DatabaseConfig struct {
	URI                string        `json:"uri"`
	Name               string        `json:"name"`
	PatientCollection  string        `json:"patient_collection"`
	DoctorCollection   string        `json:"doctor_collection"`
	FlapDataCollection string        `json:"flap_data_collection"`
	ConnectTimeout     time.Duration `json:"connect_timeout"`
	OperationTimeout   time.Duration `json:"operation_timeout"`
}

// MQTTConfig holds MQTT-related configuration
type MQTTConfig struct {
	BrokerHost    string        `json:"broker_host"`
	BrokerPort    int           `json:"broker_port"`
	BrokerUser    string        `json:"broker_user"`
	BrokerPass    string        `json:"broker_pass"`
	UseTLS        bool          `json:"use_tls"`
	CACertPath    string        `json:"ca_cert_path"`
	CertPath      string        `json:"cert_path"`
	KeyPath       string        `json:"key_path"`
	ClientID      string        `json:"client_id"`
	SensorTopic   string        `json:"sensor_topic"`
	ResponseTopic string        `json:"response_topic"`
	QoS           int           `json:"qos"`
	KeepAlive     time.Duration `json:"keep_alive"`
	PingTimeout   time.Duration `json:"ping_timeout"`
}

// RelayConfig holds the external push relay endpoint
type RelayConfig struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	JWTSecretKey        string        `json:"jwt_secret_key"`
	JWTIssuer           string        `json:"jwt_issuer"`
	AccessTokenDuration time.Duration `json:"access_token_duration"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout or stderr
	EnableCaller bool   `json:"enable_caller"`
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// LoadBridgeConfig loads configuration for the bridge process
func LoadBridgeConfig() (*Config, error) {
	// A missing .env file is fine, variables may be set directly
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "5000"),
			ReadTimeout:     getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDuration("IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Live: LiveConfig{
			Port:           getEnv("LIVE_PORT", "8080"),
			WriteWait:      getDuration("LIVE_WRITE_WAIT", 10*time.Second),
			PongWait:       getDuration("LIVE_PONG_WAIT", 60*time.Second),
			SendBuffer:     getInt("LIVE_SEND_BUFFER", 32),
			MaxMessageSize: int64(getInt("LIVE_MAX_MESSAGE_SIZE", 512)),
		},
		Database: DatabaseConfig{
			URI:                getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Name:               getEnv("MONGO_DB", "vescueye"),
			PatientCollection:  getEnv("MONGO_PATIENT_COLLECTION", "patients"),
			DoctorCollection:   getEnv("MONGO_DOCTOR_COLLECTION", "doctors"),
			FlapDataCollection: getEnv("MONGO_FLAPDATA_COLLECTION", "flapdatas"),
			ConnectTimeout:     getDuration("MONGO_CONNECT_TIMEOUT", 20*time.Second),
			OperationTimeout:   getDuration("MONGO_OPERATION_TIMEOUT", 10*time.Second),
		},
		MQTT: MQTTConfig{
			BrokerHost:    getEnv("AWS_IOT_ENDPOINT", "localhost"),
			BrokerPort:    getInt("BROKER_PORT", 8883),
			BrokerUser:    getEnv("BROKER_USER", ""),
			BrokerPass:    getEnv("BROKER_PASS", ""),
			UseTLS:        getBool("BROKER_TLS", true),
			CACertPath:    getEnv("AWS_IOT_CA", ""),
			CertPath:      getEnv("AWS_IOT_CERTIFICATE", ""),
			KeyPath:       getEnv("AWS_IOT_PRIVATE_KEY", ""),
			ClientID:      getEnv("AWS_IOT_CLIENT_ID", "flap-bridge"),
			SensorTopic:   getEnv("MQTT_SENSOR_TOPIC", "sensor/data"),
			ResponseTopic: getEnv("MQTT_RESPONSE_TOPIC", "sensor/response"),
			QoS:           getInt("MQTT_QOS", 1),
			KeepAlive:     getDuration("MQTT_KEEP_ALIVE", 30*time.Second),
			PingTimeout:   getDuration("MQTT_PING_TIMEOUT", 10*time.Second),
		},
		Relay: RelayConfig{
			URL:     getEnv("PUSH_RELAY_URL", ""),
			Timeout: getDuration("PUSH_RELAY_TIMEOUT", 15*time.Second),
		},
		Auth: AuthConfig{
			JWTSecretKey:        getEnv("JWT_SECRET", defaultJWTSecret),
			JWTIssuer:           getEnv("JWT_ISSUER", "flap-bridge"),
			AccessTokenDuration: getDuration("JWT_ACCESS_TOKEN_DURATION", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			Format:       getEnv("LOG_FORMAT", "text"),
			Output:       getEnv("LOG_OUTPUT", "stdout"),
			EnableCaller: getBool("LOG_ENABLE_CALLER", false),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders:   getStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			ExposedHeaders:   getStringSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length"}),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getInt("CORS_MAX_AGE", 43200), // 12 hours
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Relay.URL == "" {
		return fmt.Errorf("PUSH_RELAY_URL is required")
	}
	if c.Database.URI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MQTT.SensorTopic == "" || c.MQTT.ResponseTopic == "" {
		return fmt.Errorf("MQTT sensor and response topics are required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.Live.SendBuffer <= 0 {
		return fmt.Errorf("LIVE_SEND_BUFFER must be positive")
	}
	if c.Live.PongWait <= 0 {
		return fmt.Errorf("LIVE_PONG_WAIT must be positive, got %s", c.Live.PongWait)
	}
	if c.Live.WriteWait <= 0 {
		return fmt.Errorf("LIVE_WRITE_WAIT must be positive, got %s", c.Live.WriteWait)
	}
	if c.Live.MaxMessageSize <= 0 {
		return fmt.Errorf("LIVE_MAX_MESSAGE_SIZE must be positive")
	}
	if c.Auth.JWTSecretKey == defaultJWTSecret {
		log.Println("WARNING: Using default JWT secret. Change JWT_SECRET in production!")
	}
	return nil
}

// GetMQTTBrokerURL returns the MQTT broker URL
func (c *Config) GetMQTTBrokerURL() string {
	scheme := "tcp"
	if c.MQTT.UseTLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.MQTT.BrokerHost, c.MQTT.BrokerPort)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return intValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "1" || value == "true" || value == "TRUE" {
		return true
	}
	if value == "0" || value == "false" || value == "FALSE" {
		return false
	}
	log.Fatalf("invalid %s: %q (expected true/false or 1/0)", key, value)
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return duration
}

func getStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
