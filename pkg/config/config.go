package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/johnquangdev/meeting-copilot/pkg/validator"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Copilot  CopilotConfig
	NATS     NATSConfig
	LiveKit  LiveKitConfig
	Events   EventsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080" validate:"required"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development" validate:"oneof=development staging production test"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"meeting_copilot"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25" validate:"gte=1"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5" validate:"gte=0"`

	// AutoMigrate applies pending sql-migrate files at startup. Refused in production.
	AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET" default:"your-access-secret-change-in-production" validate:"required"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
	Issuer       string        `envconfig:"JWT_ISSUER" default:"meeting-copilot"`
}

// StorageConfig holds storage configuration for the run archive
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"meeting-copilot"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// CopilotConfig holds the suggestion pipeline settings
type CopilotConfig struct {
	Provider    string        `envconfig:"COPILOT_PROVIDER" default:"openai" validate:"required"`
	Model       string        `envconfig:"COPILOT_MODEL" default:"gpt-4o-mini" validate:"required"`
	APIKey      string        `envconfig:"COPILOT_API_KEY"`
	BaseURL     string        `envconfig:"COPILOT_BASE_URL" default:"https://api.openai.com/v1" validate:"required,url"`
	Timeout     time.Duration `envconfig:"COPILOT_TIMEOUT" default:"30s" validate:"gt=0"`
	MaxAttempts int           `envconfig:"COPILOT_MAX_ATTEMPTS" default:"3" validate:"gte=1,lte=10"`
	RetryMin    time.Duration `envconfig:"COPILOT_RETRY_INITIAL" default:"4s" validate:"gt=0"`
	RetryMax    time.Duration `envconfig:"COPILOT_RETRY_MAX" default:"10s" validate:"gtefield=RetryMin"`
	Temperature float64       `envconfig:"COPILOT_TEMPERATURE" default:"0.3" validate:"gte=0,lte=2"`
	MaxTokens   int           `envconfig:"COPILOT_MAX_TOKENS" default:"2000" validate:"gte=1"`

	DefaultLanguage     string        `envconfig:"COPILOT_DEFAULT_LANGUAGE" default:"en" validate:"oneof=en fr"`
	RealtimeWindow      int           `envconfig:"COPILOT_REALTIME_WINDOW" default:"50" validate:"gte=1"`
	RealtimeMinSegments int           `envconfig:"COPILOT_REALTIME_MIN_SEGMENTS" default:"10" validate:"gte=1,ltefield=RealtimeWindow"`
	RealtimeMinInterval time.Duration `envconfig:"COPILOT_REALTIME_MIN_INTERVAL" default:"20s"`
	DefaultConfidence   float64       `envconfig:"COPILOT_DEFAULT_CONFIDENCE" default:"0.8" validate:"gte=0,lte=1"`

	Workers         int           `envconfig:"COPILOT_WORKERS" default:"2" validate:"gte=1"`
	QueueSize       int           `envconfig:"COPILOT_QUEUE_SIZE" default:"64" validate:"gte=1"`
	RunAttempts     int           `envconfig:"COPILOT_RUN_ATTEMPTS" default:"3" validate:"gte=1"`
	RunRetryBase    time.Duration `envconfig:"COPILOT_RUN_RETRY_BASE" default:"2s"`
	// RunTimeout stops a job from starting new attempts. A run already underway finishes.
	RunTimeout      time.Duration `envconfig:"COPILOT_RUN_TIMEOUT" default:"5m" validate:"gt=0"`
	Retention       time.Duration `envconfig:"COPILOT_RETENTION" default:"2160h" validate:"gt=0"`
	CleanupInterval time.Duration `envconfig:"COPILOT_CLEANUP_INTERVAL" default:"24h" validate:"gt=0"`
	StaleRunAfter   time.Duration `envconfig:"COPILOT_STALE_RUN_AFTER" default:"10m" validate:"gt=0"`
	LockTTL         time.Duration `envconfig:"COPILOT_LOCK_TTL" default:"3m" validate:"gt=0"`
	LockWait        time.Duration `envconfig:"COPILOT_LOCK_WAIT" default:"2m"`
}

// NATSConfig holds NATS configuration. An empty URL disables the bus.
type NATSConfig struct {
	URL           string `envconfig:"NATS_URL"`
	SubjectPrefix string `envconfig:"NATS_SUBJECT_PREFIX" default:"meetings"`
}

// LiveKitConfig holds the credentials used to verify LiveKit webhooks
type LiveKitConfig struct {
	APIKey    string `envconfig:"LIVEKIT_API_KEY"`
	APISecret string `envconfig:"LIVEKIT_API_SECRET"`
}

// EventsConfig holds the shared secret for signed internal event hooks
type EventsConfig struct {
	SigningSecret string `envconfig:"EVENTS_SIGNING_SECRET"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{}
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Validate(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if worst := c.Copilot.WorstCaseRun(); c.Copilot.LockTTL <= worst {
		return fmt.Errorf("invalid configuration: COPILOT_LOCK_TTL %s must exceed the longest possible run %s", c.Copilot.LockTTL, worst)
	}
	return nil
}

// runPersistMargin covers the database writes around the model call
const runPersistMargin = 30 * time.Second

// WorstCaseRun bounds how long a single run can hold the meeting lock:
// every model attempt timing out plus the longest backoff between them.
func (c CopilotConfig) WorstCaseRun() time.Duration {
	attempts := time.Duration(c.MaxAttempts)
	return attempts*c.Timeout + (attempts-1)*c.RetryMax + runPersistMargin
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
