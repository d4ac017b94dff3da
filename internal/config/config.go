package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Ownership policies for assignment routes.
const (
	OwnershipOwnerOnly    = "owner_only"
	OwnershipOwnerOrAdmin = "owner_or_admin"
)

type Config struct {
	Port        string `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
	LogLevel    slog.Level
	RedisURL    string `mapstructure:"redis_url"`

	Database  DatabaseConfig  `mapstructure:"database"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Casdoor   CasdoorConfig   `mapstructure:"casdoor"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// AssignmentOwnership is either owner_only or owner_or_admin.
	AssignmentOwnership string `mapstructure:"assignment_ownership"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	TimeZone        string        `mapstructure:"timezone"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

// ConnectionString returns DSN verbatim when set, otherwise a key/value
// string built from the individual fields.
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.TimeZone)
}

type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	ClientID    string   `mapstructure:"client_id"`
}

type CasdoorConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Cert         string `mapstructure:"cert"`
	Organization string `mapstructure:"organization"`
	Application  string `mapstructure:"application"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ServiceName       string `mapstructure:"service_name"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// LoadConfig reads .env (if present), an optional config.yaml and the
// process environment, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Comma separated broker lists arrive from the environment as one string.
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}

	cfg.LogLevel = ParseLogLevel(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: port is required")
	}
	switch c.AssignmentOwnership {
	case OwnershipOwnerOnly, OwnershipOwnerOrAdmin:
	default:
		return fmt.Errorf("config: unknown assignment_ownership %q", c.AssignmentOwnership)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("config: kafka enabled without brokers")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("config: rate limit needs positive rps and burst")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ParseLogLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("environment", "development")
	v.SetDefault("assignment_ownership", OwnershipOwnerOnly)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "pelangi")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "Asia/Jakarta")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("kafka.topic_prefix", "pelangi")
	v.SetDefault("kafka.client_id", "pelangi-service")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("tracing.service_name", "pelangi-service")
	v.SetDefault("tracing.collector_endpoint", "http://localhost:14268/api/traces")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)
}

func bindEnv(v *viper.Viper) {
	bindings := map[string]string{
		"port":                       "PORT",
		"environment":                "ENVIRONMENT",
		"redis_url":                  "REDIS_URL",
		"assignment_ownership":       "ASSIGNMENT_OWNERSHIP",
		"database.dsn":               "DATABASE_URL",
		"database.host":              "DB_HOST",
		"database.port":              "DB_PORT",
		"database.user":              "DB_USER",
		"database.password":          "DB_PASSWORD",
		"database.name":              "DB_NAME",
		"database.sslmode":           "DB_SSLMODE",
		"database.auto_migrate":      "DB_AUTO_MIGRATE",
		"database.log_queries":       "DB_LOG_QUERIES",
		"kafka.enabled":              "KAFKA_ENABLED",
		"kafka.brokers":              "KAFKA_BROKERS",
		"kafka.topic_prefix":         "KAFKA_TOPIC_PREFIX",
		"casdoor.endpoint":           "CASDOOR_ENDPOINT",
		"casdoor.client_id":          "CASDOOR_CLIENT_ID",
		"casdoor.client_secret":      "CASDOOR_CLIENT_SECRET",
		"casdoor.cert":               "CASDOOR_CERT",
		"casdoor.organization":       "CASDOOR_ORGANIZATION",
		"casdoor.application":        "CASDOOR_APPLICATION",
		"log.level":                  "LOG_LEVEL",
		"log.file":                   "LOG_FILE",
		"tracing.enabled":            "TRACING_ENABLED",
		"tracing.collector_endpoint": "JAEGER_ENDPOINT",
		"rate_limit.enabled":         "RATE_LIMIT_ENABLED",
		"rate_limit.rps":             "RATE_LIMIT_RPS",
		"rate_limit.burst":           "RATE_LIMIT_BURST",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}
