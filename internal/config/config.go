package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	Drive    DriveConfig
	Queue    QueueConfig
	Env      string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RabbitMQConfig holds RabbitMQ configuration
type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// RedisConfig holds Redis configuration for the send-velocity window
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// GatewayConfig holds messaging gateway configuration
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DriveConfig holds document storage configuration
type DriveConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// QueueConfig holds tenant queue tuning parameters
type QueueConfig struct {
	BatchSize     int
	BatchDelay    time.Duration
	SubBatchDelay time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	WindowCap     int
	WindowSize    time.Duration
	LockTimeout   time.Duration
	CleanupMaxAge time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "staffhub"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "staffhub_db"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_DEFAULT_USER", "guest"),
			Password: getEnv("RABBITMQ_DEFAULT_PASS", "guest"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Gateway: GatewayConfig{
			BaseURL: getEnv("WHATSAPP_API_URL", "https://graph.facebook.com/v18.0"),
			Timeout: getEnvAsDuration("WHATSAPP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Drive: DriveConfig{
			BaseURL:     getEnv("DRIVE_API_URL", "https://www.googleapis.com/drive/v3"),
			AccessToken: getEnv("DRIVE_ACCESS_TOKEN", ""),
			Timeout:     getEnvAsDuration("DRIVE_TIMEOUT_SECONDS", 15*time.Second),
		},
		Queue: QueueConfig{
			BatchSize:     getEnvAsInt("QUEUE_BATCH_SIZE", 10),
			BatchDelay:    getEnvAsDuration("QUEUE_BATCH_DELAY_MS", time.Second),
			SubBatchDelay: getEnvAsDuration("QUEUE_SUB_BATCH_DELAY_MS", 500*time.Millisecond),
			MaxRetries:    getEnvAsInt("QUEUE_MAX_RETRIES", 3),
			RetryDelay:    getEnvAsDuration("QUEUE_RETRY_DELAY_MS", 5*time.Second),
			WindowCap:     getEnvAsInt("QUEUE_WINDOW_CAP", 20),
			WindowSize:    time.Minute,
			LockTimeout:   getEnvAsDuration("FOLDER_LOCK_TIMEOUT_SECONDS", 30*time.Second),
			CleanupMaxAge: 24 * time.Hour,
		},
		Env: getEnv("ENV", "development"),
	}

	// Validate required fields
	if config.Database.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD is required")
	}

	return config, nil
}

// GetDatabaseDSN returns PostgreSQL connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// GetRabbitMQURL returns RabbitMQ connection URL
func (c *Config) GetRabbitMQURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		c.RabbitMQ.User,
		c.RabbitMQ.Password,
		c.RabbitMQ.Host,
		c.RabbitMQ.Port,
	)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnv gets environment variable or returns default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer or returns default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration reads a numeric env var, interpreting the value as
// milliseconds when the key ends in _MS and seconds otherwise
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	if strings.HasSuffix(key, "_MS") {
		return time.Duration(intValue) * time.Millisecond
	}
	return time.Duration(intValue) * time.Second
}
