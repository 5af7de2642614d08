package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("booking")
	require.NoError(t, err)

	assert.Equal(t, "booking", cfg.Server.ServiceName)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Booking.CancellationGracePeriod)
	assert.Equal(t, 10.0, cfg.Booking.CancellationFeePct)
	assert.Equal(t, 1.50, cfg.Booking.PerStopSurcharge)
	assert.Equal(t, 1.25, cfg.Routing.RoadFactor)
	assert.Equal(t, 30.0, cfg.Routing.FallbackSpeedKmh)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CANCELLATION_GRACE_PERIOD", "30m")
	t.Setenv("CANCELLATION_FEE_PCT", "15")
	t.Setenv("DB_NAME", "sendme_test")

	cfg, err := Load("booking")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Booking.CancellationGracePeriod)
	assert.Equal(t, 15.0, cfg.Booking.CancellationFeePct)
	assert.Equal(t, "sendme_test", cfg.Database.DBName)
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{
		Host: "db.local", Port: "5433", User: "app", Password: "secret",
		DBName: "sendme", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db.local port=5433 user=app password=secret dbname=sendme sslmode=require",
		db.DSN(),
	)
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.local", Port: "6380"}
	assert.Equal(t, "cache.local:6380", r.RedisAddr())
}
