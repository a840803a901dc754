package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVICE_NAME", "APP_PORT", "OTP_TTL_MINUTES", "SMTP_DISABLED", "REDIS_HOST", "JWT_TTL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "rentalhub", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.False(t, cfg.SMTPDisabled)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("OTP_TTL_MINUTES", "3")
	t.Setenv("OTP_COOLDOWN", "10s")
	t.Setenv("SMTP_DISABLED", "true")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("ADMIN_ID", "777")

	cfg := Load()

	assert.Equal(t, 9090, cfg.AppPort)
	assert.Equal(t, 3*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 10*time.Second, cfg.OTPCooldown)
	assert.True(t, cfg.SMTPDisabled)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.Equal(t, int64(777), cfg.AdminID)
}

func TestPostgresURL(t *testing.T) {
	cfg := Config{
		PostgresUser:     "postgres",
		PostgresPassword: "secret",
		PostgresHost:     "db",
		PostgresPort:     "5433",
		PostgresDB:       "rentalhub",
		PostgresSSLMode:  "disable",
	}

	assert.Equal(t, "postgres://postgres:secret@db:5433/rentalhub?sslmode=disable", cfg.PostgresURL())
}
