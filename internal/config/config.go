package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Org      OrgConfig
	Cron     CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

// OrgConfig holds the organization calendar
type OrgConfig struct {
	UTCOffsetHours int
	WeeklyOffDay   string
}

type CronConfig struct {
	Enabled  bool
	Interval time.Duration
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "payroll"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:               appPort,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Organization calendar
	offset, err := strconv.Atoi(getEnv("ORG_UTC_OFFSET_HOURS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORG_UTC_OFFSET_HOURS: %w", err)
	}

	config.Org = OrgConfig{
		UTCOffsetHours: offset,
		WeeklyOffDay:   getEnv("WEEKLY_OFF_DAY", "sunday"),
	}

	// Cron configuration
	cronEnabled, err := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_ENABLED: %w", err)
	}
	cronInterval, err := time.ParseDuration(getEnv("CRON_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_INTERVAL: %w", err)
	}

	config.Cron = CronConfig{
		Enabled:  cronEnabled,
		Interval: cronInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if c.Org.UTCOffsetHours < -12 || c.Org.UTCOffsetHours > 14 {
		return fmt.Errorf("ORG_UTC_OFFSET_HOURS must be between -12 and 14")
	}
	if _, err := clock.ParseWeekday(c.Org.WeeklyOffDay); err != nil {
		return fmt.Errorf("invalid WEEKLY_OFF_DAY: %w", err)
	}
	if c.Cron.Enabled && c.Cron.Interval <= 0 {
		return fmt.Errorf("CRON_INTERVAL must be positive")
	}
	return nil
}

// Calendar builds the organization calendar from the configured offset and off-day
func (c *Config) Calendar() clock.Calendar {
	offDay, err := clock.ParseWeekday(c.Org.WeeklyOffDay)
	if err != nil {
		offDay = time.Sunday
	}
	return clock.NewCalendar(c.Org.UTCOffsetHours, offDay)
}

// AccessTTL returns the parsed access token lifetime
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWT.AccessExpiration)
	if err != nil {
		return time.Hour
	}
	return d
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
