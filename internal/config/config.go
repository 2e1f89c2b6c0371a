package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the automation service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Classifier ClassifierConfig
	Automation AutomationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN switches the
// service onto the in-memory ticket store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
}

// AuthConfig defines operator authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// ClassifierConfig selects and configures the analysis collaborator. An
// empty APIKey switches the service onto the keyword heuristic.
type ClassifierConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	TimeoutSeconds  int
	CacheTTLMinutes int
}

// AutomationConfig tunes pipeline execution.
type AutomationConfig struct {
	MaxSteps           int
	CallTimeoutSeconds int
	BatchWorkers       int
	TeamInbox          string
	SeedFile           string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-autopilot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Classifier: ClassifierConfig{
			BaseURL:         getEnv("CLASSIFIER_BASE_URL", "https://api.openai.com/v1"),
			APIKey:          os.Getenv("CLASSIFIER_API_KEY"),
			Model:           getEnv("CLASSIFIER_MODEL", "gpt-4o-mini"),
			TimeoutSeconds:  getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 30),
			CacheTTLMinutes: getEnvAsInt("CLASSIFIER_CACHE_TTL_MINUTES", 1440),
		},
		Automation: AutomationConfig{
			MaxSteps:           getEnvAsInt("AUTOMATION_MAX_STEPS", 64),
			CallTimeoutSeconds: getEnvAsInt("AUTOMATION_CALL_TIMEOUT_SECONDS", 30),
			BatchWorkers:       getEnvAsInt("AUTOMATION_BATCH_WORKERS", 4),
			TeamInbox:          getEnv("AUTOMATION_TEAM_INBOX", "support-team@company.example"),
			SeedFile:           os.Getenv("AUTOMATION_SEED_FILE"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the classifier call timeout duration.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the classification cache entry lifetime.
func (c ClassifierConfig) CacheTTL() time.Duration {
	if c.CacheTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// CallTimeout returns the per-collaborator-call timeout duration.
func (a AutomationConfig) CallTimeout() time.Duration {
	if a.CallTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.CallTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
