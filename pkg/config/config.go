package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Receipts     ReceiptsConfig
	Email        EmailConfig
	Outbox       OutboxConfig
	Queue        QueueConfig
	Dashboard    DashboardConfig
	RateLimit    RateLimitConfig
	DefaultAdmin DefaultAdminConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReceiptsConfig controls where generated actas and countersigned uploads live.
type ReceiptsConfig struct {
	Dir                string
	SignedURLSecret    string
	SignedURLTTL       time.Duration
	MaxUploadBytes     int64
	AllowedUploadMIMEs []string
}

// EmailConfig configures outbound notifications. An empty APIKey disables them.
type EmailConfig struct {
	APIKey  string
	APIURL  string
	From    string
	Timeout time.Duration
}

// Enabled reports whether notifications should be produced at all.
func (c EmailConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// OutboxConfig tunes the notification outbox sweeper.
type OutboxConfig struct {
	SweepSchedule string
	MaxAttempts   int
}

// QueueConfig sizes the in-process job queues.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// RateLimitConfig bounds login attempts per client.
type RateLimitConfig struct {
	LoginPerSecond float64
	LoginBurst     int
}

// DefaultAdminConfig seeds the first administrator on an empty database.
type DefaultAdminConfig struct {
	Email    string
	Password string
	Name     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("SIGNED_UPLOAD_MAX_BYTES")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Receipts = ReceiptsConfig{
		Dir:                v.GetString("RECEIPTS_DIR"),
		SignedURLSecret:    v.GetString("RECEIPTS_SIGNED_URL_SECRET"),
		SignedURLTTL:       parseDuration(v.GetString("RECEIPTS_SIGNED_URL_TTL"), 15*time.Minute),
		MaxUploadBytes:     maxUpload,
		AllowedUploadMIMEs: splitAndTrim(v.GetString("SIGNED_UPLOAD_ALLOWED_MIME_TYPES")),
	}

	cfg.Email = EmailConfig{
		APIKey:  v.GetString("EMAIL_API_KEY"),
		APIURL:  v.GetString("EMAIL_API_URL"),
		From:    v.GetString("EMAIL_FROM"),
		Timeout: parseDuration(v.GetString("EMAIL_TIMEOUT"), 10*time.Second),
	}

	cfg.Outbox = OutboxConfig{
		SweepSchedule: v.GetString("OUTBOX_SWEEP_SCHEDULE"),
		MaxAttempts:   v.GetInt("OUTBOX_MAX_ATTEMPTS"),
	}

	cfg.Queue = QueueConfig{
		Workers:    v.GetInt("QUEUE_WORKERS"),
		BufferSize: v.GetInt("QUEUE_BUFFER"),
		MaxRetries: v.GetInt("QUEUE_RETRIES"),
		RetryDelay: parseDuration(v.GetString("QUEUE_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 30*time.Second),
	}

	cfg.RateLimit = RateLimitConfig{
		LoginPerSecond: v.GetFloat64("LOGIN_RATE_LIMIT"),
		LoginBurst:     v.GetInt("LOGIN_RATE_BURST"),
	}

	cfg.DefaultAdmin = DefaultAdminConfig{
		Email:    strings.ToLower(strings.TrimSpace(v.GetString("DEFAULT_ADMIN_EMAIL"))),
		Password: v.GetString("DEFAULT_ADMIN_PASSWORD"),
		Name:     v.GetString("DEFAULT_ADMIN_NAME"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academy_inventory")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "academy-inventory")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RECEIPTS_DIR", "./actas")
	v.SetDefault("RECEIPTS_SIGNED_URL_SECRET", "dev_receipts_secret")
	v.SetDefault("RECEIPTS_SIGNED_URL_TTL", "15m")
	v.SetDefault("SIGNED_UPLOAD_MAX_BYTES", 10*1024*1024)
	v.SetDefault("SIGNED_UPLOAD_ALLOWED_MIME_TYPES", "application/pdf,image/jpeg,image/png")

	v.SetDefault("EMAIL_API_KEY", "")
	v.SetDefault("EMAIL_API_URL", "https://api.resend.com/emails")
	v.SetDefault("EMAIL_FROM", "Inventario Academia <no-reply@academia.com>")
	v.SetDefault("EMAIL_TIMEOUT", "10s")

	v.SetDefault("OUTBOX_SWEEP_SCHEDULE", "@every 1m")
	v.SetDefault("OUTBOX_MAX_ATTEMPTS", 5)

	v.SetDefault("QUEUE_WORKERS", 2)
	v.SetDefault("QUEUE_BUFFER", 256)
	v.SetDefault("QUEUE_RETRIES", 3)
	v.SetDefault("QUEUE_RETRY_DELAY", "2s")

	v.SetDefault("DASHBOARD_CACHE_TTL", "30s")
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_BURST", 10)

	v.SetDefault("DEFAULT_ADMIN_EMAIL", "admin@academia.com")
	v.SetDefault("DEFAULT_ADMIN_PASSWORD", "admin123")
	v.SetDefault("DEFAULT_ADMIN_NAME", "Administrador")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
