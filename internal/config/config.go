package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Auth       AuthConfig       `mapstructure:"auth"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Session    SessionConfig    `mapstructure:"session"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
}

// AuthConfig holds API key authentication settings. Requests to protected
// routes must carry one of the configured keys in the x-api-key header.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// SessionConfig controls honeypot session lifecycle.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
	// IntelMessageThreshold is the message count after which a session with
	// any extracted entities is considered intelligence-complete.
	IntelMessageThreshold int `mapstructure:"intel_message_threshold"`
}

// AgentConfig controls the reply-generation agent.
type AgentConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	DefaultPersona string `mapstructure:"default_persona"`
	BaseDelayMs    int    `mapstructure:"base_delay_ms"`
}

// EvaluationConfig holds the outbound evaluation-endpoint callback settings.
type EvaluationConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	CallbackURL string        `mapstructure:"callback_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/honeytrap-lab")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("HONEYTRAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("app.environment", "HONEYTRAP_APP_ENVIRONMENT")
	v.BindEnv("redis.enabled", "HONEYTRAP_REDIS_ENABLED")
	v.BindEnv("redis.host", "HONEYTRAP_REDIS_HOST")
	v.BindEnv("redis.port", "HONEYTRAP_REDIS_PORT")
	v.BindEnv("redis.password", "HONEYTRAP_REDIS_PASSWORD")
	v.BindEnv("database.enabled", "HONEYTRAP_DATABASE_ENABLED")
	v.BindEnv("database.host", "HONEYTRAP_DATABASE_HOST")
	v.BindEnv("database.port", "HONEYTRAP_DATABASE_PORT")
	v.BindEnv("database.user", "HONEYTRAP_DATABASE_USER")
	v.BindEnv("database.password", "HONEYTRAP_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "HONEYTRAP_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "HONEYTRAP_DATABASE_SSLMODE")
	v.BindEnv("nats.enabled", "HONEYTRAP_NATS_ENABLED")
	v.BindEnv("nats.url", "HONEYTRAP_NATS_URL")
	v.BindEnv("auth.api_keys", "HONEYTRAP_AUTH_API_KEYS")
	v.BindEnv("evaluation.callback_url", "HONEYTRAP_EVALUATION_CALLBACK_URL")

	// Read config file; a missing file is fine, defaults and env take over
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "honeytrap-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "honeytrap")
	v.SetDefault("database.dbname", "honeytrap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "honeytrap:")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.stream_name", "HONEYTRAP_EVENTS")

	v.SetDefault("auth.api_keys", []string{"test-key-123"})

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type", "x-api-key", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_minute", 120)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.intel_message_threshold", 10)

	v.SetDefault("agent.enabled", true)
	v.SetDefault("agent.default_persona", "")
	v.SetDefault("agent.base_delay_ms", 1500)

	v.SetDefault("evaluation.enabled", false)
	v.SetDefault("evaluation.timeout", 5*time.Second)
	v.SetDefault("evaluation.max_retries", 3)
}
