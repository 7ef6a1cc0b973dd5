package config

import (
	"errors"
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

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Schedule      ScheduleConfig
	Dashboard     DashboardConfig
	Reports       ReportsConfig
	Notifications NotificationsConfig
	Profile       ProfileConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	AutoMigrate   bool
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	SingleSession     bool
	SessionPurgeSpec  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScheduleConfig tunes caching of expanded semester schedules.
type ScheduleConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// DashboardConfig governs dashboard caching and the once-per-session alert.
type DashboardConfig struct {
	CacheTTL       time.Duration
	AlertTTL       time.Duration
	UpcomingWindow time.Duration
}

// ReportsConfig configures asynchronous report generation.
type ReportsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupSpec       string
	WorkerConcurrency int
	WorkerRetries     int
}

// NotificationsConfig drives the reminder scheduler and email delivery.
// An empty CronSpec runs the scan every ScanInterval.
type NotificationsConfig struct {
	Enabled        bool
	CronSpec       string
	ScanInterval   time.Duration
	Timezone       string
	SendGridAPIKey string
	FromName       string
	FromEmail      string
	Workers        int
}

// ProfileConfig limits avatar uploads.
type ProfileConfig struct {
	AvatarDir        string
	AvatarMaxBytes   int64
	AvatarPublicPath string
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
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
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:   v.GetBool("DB_AUTO_MIGRATE"),
		MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		SingleSession:     v.GetBool("AUTH_SINGLE_SESSION"),
		SessionPurgeSpec:  v.GetString("AUTH_SESSION_PURGE_SPEC"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Schedule = ScheduleConfig{
		CacheEnabled: v.GetBool("SCHEDULE_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("SCHEDULE_CACHE_TTL"), 30*time.Minute),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL:       parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), time.Minute),
		AlertTTL:       parseDuration(v.GetString("DASHBOARD_ALERT_TTL"), 12*time.Hour),
		UpcomingWindow: parseDuration(v.GetString("DASHBOARD_UPCOMING_WINDOW"), 7*24*time.Hour),
	}

	cfg.Reports = ReportsConfig{
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupSpec:       v.GetString("REPORTS_CLEANUP_SPEC"),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}

	cfg.Notifications = NotificationsConfig{
		Enabled:        v.GetBool("ENABLE_REMINDERS"),
		CronSpec:       v.GetString("REMINDERS_CRON_SPEC"),
		ScanInterval:   parseDuration(v.GetString("REMINDERS_SCAN_INTERVAL"), time.Minute),
		Timezone:       v.GetString("REMINDERS_TIMEZONE"),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		FromEmail:      v.GetString("MAIL_FROM_EMAIL"),
		Workers:        v.GetInt("REMINDERS_WORKERS"),
	}

	maxAvatar := v.GetInt64("AVATAR_MAX_BYTES")
	if maxAvatar <= 0 {
		maxAvatar = 2 * 1024 * 1024
	}
	cfg.Profile = ProfileConfig{
		AvatarDir:        v.GetString("AVATAR_STORAGE_DIR"),
		AvatarMaxBytes:   maxAvatar,
		AvatarPublicPath: v.GetString("AVATAR_PUBLIC_PATH"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance_tracker")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_MIGRATIONS_DIR", "")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "attendance-tracker")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("AUTH_SINGLE_SESSION", false)
	v.SetDefault("AUTH_SESSION_PURGE_SPEC", "@daily")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULE_CACHE_ENABLED", true)
	v.SetDefault("SCHEDULE_CACHE_TTL", "30m")

	v.SetDefault("DASHBOARD_CACHE_TTL", "1m")
	v.SetDefault("DASHBOARD_ALERT_TTL", "12h")
	v.SetDefault("DASHBOARD_UPCOMING_WINDOW", "168h")

	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_SPEC", "@hourly")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_REMINDERS", false)
	v.SetDefault("REMINDERS_CRON_SPEC", "")
	v.SetDefault("REMINDERS_SCAN_INTERVAL", "1m")
	v.SetDefault("REMINDERS_TIMEZONE", "UTC")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "Attendance Tracker")
	v.SetDefault("MAIL_FROM_EMAIL", "no-reply@attendance.local")
	v.SetDefault("REMINDERS_WORKERS", 2)

	v.SetDefault("AVATAR_STORAGE_DIR", "./avatars")
	v.SetDefault("AVATAR_MAX_BYTES", 2*1024*1024)
	v.SetDefault("AVATAR_PUBLIC_PATH", "/static/avatars")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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

// ScanSpec is the cron spec the reminder scan runs on.
func (n NotificationsConfig) ScanSpec() string {
	if strings.TrimSpace(n.CronSpec) != "" {
		return n.CronSpec
	}
	interval := n.ScanInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return "@every " + interval.String()
}
