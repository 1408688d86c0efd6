package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Bolt        BoltConfig
	Buffer      BufferConfig
	Remote      RemoteConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host          string
	Port          string `validate:"required,numeric"`
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int `validate:"gte=0"`
	EnablePprof   bool
	EnableMetrics bool
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// BoltConfig points at the single bbolt file shared by the local task
// mirror and the write outbox.
type BoltConfig struct {
	Path       string `validate:"required"`
	TaskBucket string `validate:"required"`
}

type BufferConfig struct {
	Bucket         string `validate:"required"`
	RetentionHours int    `validate:"gt=0"`
	SyncInterval   time.Duration
	BatchSize      int `validate:"gt=0"`
	MaxRetry       int `validate:"gt=0"`
}

// Retention converts RetentionHours into a duration.
func (b BufferConfig) Retention() time.Duration {
	return time.Duration(b.RetentionHours) * time.Hour
}

// Remote backends.
const (
	RemoteMemory   = "memory"
	RemotePostgres = "postgres"
	RemoteRedis    = "redis"
)

type RemoteConfig struct {
	Backend          string        `validate:"oneof=memory postgres redis"`
	Latency          time.Duration `validate:"gte=0"`
	CallTimeout      time.Duration
	MaxFailures      uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
	RedisPrefix      string
	MonitorInterval  time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string `validate:"oneof=debug info warn error dpanic panic fatal"`
	Encoding string `validate:"oneof=json console"`
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "taskstore"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			EnablePprof:   getBool("SERVER_ENABLE_PPROF", false),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", false),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "tasks_db"),
			User:            getString("DB_USER", "tasks_user"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "taskstore"),
		},
		Bolt: BoltConfig{
			Path:       getString("BOLTDB_PATH", "./data/tasks.db"),
			TaskBucket: getString("BOLTDB_TASK_BUCKET", "tasks"),
		},
		Buffer: BufferConfig{
			Bucket:         getString("BUFFER_BUCKET", "outbox"),
			RetentionHours: getInt("BUFFER_RETENTION_HOURS", 24),
			SyncInterval:   getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			BatchSize:      getInt("BUFFER_BATCH_SIZE", 100),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 3),
		},
		Remote: RemoteConfig{
			Backend:          strings.ToLower(getString("REMOTE_BACKEND", RemoteMemory)),
			Latency:          getDuration("REMOTE_LATENCY", 0),
			CallTimeout:      getDuration("REMOTE_CALL_TIMEOUT", 3*time.Second),
			MaxFailures:      uint32(getInt("REMOTE_BREAKER_MAX_FAILURES", 5)),
			OpenTimeout:      getDuration("REMOTE_BREAKER_OPEN_TIMEOUT", 30*time.Second),
			HalfOpenRequests: uint32(getInt("REMOTE_BREAKER_HALF_OPEN", 1)),
			RedisPrefix:      getString("REMOTE_REDIS_PREFIX", "taskstore:"),
			MonitorInterval:  getDuration("MONITOR_INTERVAL", 10*time.Second),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    strings.ToLower(getString("LOG_LEVEL", "info")),
			Encoding: strings.ToLower(getString("LOG_ENCODING", "json")),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Bolt.TaskBucket == c.Buffer.Bucket {
		return fmt.Errorf("config: task bucket and outbox bucket must differ (%q)", c.Bolt.TaskBucket)
	}
	return nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
