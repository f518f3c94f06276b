package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL    string
	MigrationsPath string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Habit tracking
	HabitTargetDays int
	DefaultTimezone string

	// Calendar
	CalendarTimeout     time.Duration
	CalendarCacheTTL    time.Duration
	ScheduleHorizonDays int
	ScheduleMaxSlots    int
	AllowPrivateFeeds   bool

	// Google OAuth (Calendar)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Gemini AI (optional study planner)
	GeminiAPIKey string

	// Email delivery: "smtp" or "ses"
	EmailProvider string
	AWSRegion     string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		Env:                 getEnvOrDefault("ENV", "development"),
		DatabaseURL:         mustGetEnv("DATABASE_URL"),
		MigrationsPath:      getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		RedisURL:            mustGetEnv("REDIS_URL"),
		JWTSecret:           mustGetEnv("JWT_SECRET"),
		HabitTargetDays:     getEnvAsIntOrDefault("HABIT_TARGET_DAYS", 70),
		DefaultTimezone:     getEnvOrDefault("DEFAULT_TIMEZONE", "UTC"),
		CalendarTimeout:     time.Duration(getEnvAsIntOrDefault("CALENDAR_TIMEOUT_SECONDS", 5)) * time.Second,
		CalendarCacheTTL:    time.Duration(getEnvAsIntOrDefault("CALENDAR_CACHE_TTL_MINUTES", 360)) * time.Minute,
		ScheduleHorizonDays: getEnvAsIntOrDefault("SCHEDULE_HORIZON_DAYS", 7),
		ScheduleMaxSlots:    getEnvAsIntOrDefault("SCHEDULE_MAX_SLOTS", 10),
		AllowPrivateFeeds:   getEnvOrDefault("ICAL_ALLOW_PRIVATE_FEEDS", "false") == "true",
		GoogleClientID:      getEnvOrDefault("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnvOrDefault("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:   getEnvOrDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/calendar/callback"),
		GeminiAPIKey:        getEnvOrDefault("GEMINI_API_KEY", ""),
		EmailProvider:       getEnvOrDefault("EMAIL_PROVIDER", "smtp"),
		AWSRegion:           getEnvOrDefault("AWS_REGION", "us-east-1"),
		SMTPHost:            getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:            getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:            getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:            getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:            getEnvOrDefault("SMTP_FROM", "noreply@studystreak.app"),
		FrontendURL:         getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.HabitTargetDays <= 0 {
		cfg.HabitTargetDays = 70
	}
	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		panic(fmt.Sprintf("invalid DEFAULT_TIMEZONE %q: %v", cfg.DefaultTimezone, err))
	}

	return cfg
}

// Location returns the zone used for users without their own timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) GoogleCalendarEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) UseSES() bool {
	return c.EmailProvider == "ses"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
