package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MigrationsPath   string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	OTPTTL           time.Duration
	OTPWindow        time.Duration
	OTPMaxPerWindow  int
	OTPCooldown      time.Duration
	JWTSecret        string
	JWTTTL           time.Duration
	PasswordHashCost int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPDisabled bool

	FrontendBaseURL string

	AdminBotToken   string
	AdminID         int64
	AdminUsername   string
	AdminIdentityID string

	SeedAdminEmail    string
	SeedAdminPassword string
	SeedAdminName     string
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "rentalhub"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "rentalhub"))
	cfg.PostgresSSLMode = cast.ToString(getOrReturnDefault("POSTGRES_SSLMODE", "disable"))
	cfg.MigrationsPath = cast.ToString(getOrReturnDefault("MIGRATIONS_PATH", "migrations"))

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", ""))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))

	cfg.OTPTTL = time.Duration(cast.ToInt(getOrReturnDefault("OTP_TTL_MINUTES", 10))) * time.Minute
	cfg.OTPWindow = cast.ToDuration(getOrReturnDefault("OTP_WINDOW", "10m"))
	cfg.OTPMaxPerWindow = cast.ToInt(getOrReturnDefault("OTP_MAX_PER_WINDOW", 5))
	cfg.OTPCooldown = cast.ToDuration(getOrReturnDefault("OTP_COOLDOWN", "45s"))
	cfg.JWTSecret = cast.ToString(getOrReturnDefault("JWT_SECRET", "dev-secret-please-change"))
	cfg.JWTTTL = cast.ToDuration(getOrReturnDefault("JWT_TTL", "24h"))
	cfg.PasswordHashCost = cast.ToInt(getOrReturnDefault("PASSWORD_HASH_COST", 10))

	cfg.SMTPHost = cast.ToString(getOrReturnDefault("SMTP_HOST", "smtp.gmail.com"))
	cfg.SMTPPort = cast.ToInt(getOrReturnDefault("SMTP_PORT", 465))
	cfg.SMTPUser = cast.ToString(getOrReturnDefault("SMTP_USER", ""))
	cfg.SMTPPassword = cast.ToString(getOrReturnDefault("SMTP_PASSWORD", ""))
	cfg.SMTPFrom = cast.ToString(getOrReturnDefault("SMTP_FROM", "no-reply@rentalhub.local"))
	cfg.SMTPDisabled = cast.ToBool(getOrReturnDefault("SMTP_DISABLED", false))

	cfg.FrontendBaseURL = cast.ToString(getOrReturnDefault("FRONTEND_BASE_URL", "http://localhost:3000"))

	cfg.AdminBotToken = cast.ToString(getOrReturnDefault("ADMIN_BOT_TOKEN", ""))
	cfg.AdminID = cast.ToInt64(getOrReturnDefault("ADMIN_ID", 0))
	cfg.AdminUsername = cast.ToString(getOrReturnDefault("ADMIN_USERNAME", ""))
	cfg.AdminIdentityID = cast.ToString(getOrReturnDefault("ADMIN_IDENTITY_ID", ""))

	cfg.SeedAdminEmail = cast.ToString(getOrReturnDefault("SEED_ADMIN_EMAIL", ""))
	cfg.SeedAdminPassword = cast.ToString(getOrReturnDefault("SEED_ADMIN_PASSWORD", ""))
	cfg.SeedAdminName = cast.ToString(getOrReturnDefault("SEED_ADMIN_NAME", "Administrator"))

	return cfg
}

// PostgresURL is the DSN shared by the pool and the migrator.
func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func (c Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func (c Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
