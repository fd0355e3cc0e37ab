package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Realtime RealtimeConfig
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

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. Setting REDIS_ADDR to an
// empty string disables Redis entirely; dependents fall back to their
// in-process stores.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int

	LoginDelayThreshold   int
	LoginLockThreshold    int
	LoginDelayStepSeconds int
	LoginWindowMinutes    int
}

// RealtimeConfig configures the websocket relay listener.
type RealtimeConfig struct {
	Host          string
	Port          int
	AllowedOrigin string
	BypassToken   string
	SendBuffer    int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	// An explicitly empty REDIS_ADDR opts out of Redis; only an unset
	// variable takes the default.
	redisAddr := "127.0.0.1:6379"
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		redisAddr = v
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "service-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginDelayThreshold:     getEnvAsInt("AUTH_LOGIN_DELAY_THRESHOLD", 3),
			LoginLockThreshold:      getEnvAsInt("AUTH_LOGIN_LOCK_THRESHOLD", 5),
			LoginDelayStepSeconds:   getEnvAsInt("AUTH_LOGIN_DELAY_STEP_SECONDS", 2),
			LoginWindowMinutes:      getEnvAsInt("AUTH_LOGIN_WINDOW_MINUTES", 15),
		},
		Realtime: RealtimeConfig{
			Host:          getEnv("REALTIME_HOST", "0.0.0.0"),
			Port:          getEnvAsInt("REALTIME_PORT", 8081),
			AllowedOrigin: getEnv("REALTIME_ALLOWED_ORIGIN", "*"),
			BypassToken:   os.Getenv("REALTIME_BYPASS_TOKEN"),
			SendBuffer:    getEnvAsInt("REALTIME_SEND_BUFFER", 32),
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
