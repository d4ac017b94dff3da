package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLogLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ASSIGNMENT_OWNERSHIP", OwnershipOwnerOrAdmin)
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, OwnershipOwnerOrAdmin, cfg.AssignmentOwnership)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestValidate(t *testing.T) {
	base := Config{Port: "8080", AssignmentOwnership: OwnershipOwnerOnly}
	require.NoError(t, base.Validate())

	bad := base
	bad.AssignmentOwnership = "anyone"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Kafka.Enabled = true
	assert.Error(t, bad.Validate())

	bad = base
	bad.RateLimit = RateLimitConfig{Enabled: true, RPS: 0, Burst: 10}
	assert.Error(t, bad.Validate())
}

func TestConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "pelangi", SSLMode: "disable", TimeZone: "UTC"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=pelangi sslmode=disable TimeZone=UTC", d.ConnectionString())

	d.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", d.ConnectionString())
}
