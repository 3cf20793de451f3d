package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	UploadDir   string
	AppURL      string
	// Comma separated list, "*" allows every origin
	AllowedOrigins []string

	// Redis is optional: empty URL means a single instance with the in-process hub only
	RedisURL string

	// Expiration scanner
	ScanSchedule string
	ScanTimezone string
	ScanLockTTL  time.Duration

	// Lead time (days) before expiration at which warnings start, per periodicity
	ThresholdMonthlyDays   int
	ThresholdQuarterlyDays int
	ThresholdBiannualDays  int
	ThresholdAnnualDays    int
	ThresholdDefaultDays   int

	// Email (Resend)
	ResendAPIKey        string
	EmailFrom           string
	EmailFromName       string
	EmailTestMode       bool // When true, emails are logged to console instead of sent
	EmailCriticalAlerts bool // Also mail notifications classified "critique"

	// Cloudflare R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	MetricsEnabled bool
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		DBPath:                 getEnv("DB_PATH", "db/app.db"),
		Environment:            getEnv("ENVIRONMENT", "development"),
		UploadDir:              getEnv("UPLOAD_DIR", "static/uploads"),
		AppURL:                 getEnv("APP_URL", "http://localhost:8080"),
		AllowedOrigins:         strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		RedisURL:               getEnv("REDIS_URL", ""),
		ScanSchedule:           getEnv("SCAN_SCHEDULE", "0 7 * * *"),
		ScanTimezone:           getEnv("SCAN_TIMEZONE", "Africa/Casablanca"),
		ScanLockTTL:            getEnvDuration("SCAN_LOCK_TTL", 30*time.Minute),
		ThresholdMonthlyDays:   getEnvInt("EXPIRATION_THRESHOLD_MONTHLY", 7),
		ThresholdQuarterlyDays: getEnvInt("EXPIRATION_THRESHOLD_QUARTERLY", 14),
		ThresholdBiannualDays:  getEnvInt("EXPIRATION_THRESHOLD_BIANNUAL", 30),
		ThresholdAnnualDays:    getEnvInt("EXPIRATION_THRESHOLD_ANNUAL", 60),
		ThresholdDefaultDays:   getEnvInt("EXPIRATION_DEFAULT_THRESHOLD_DAYS", 60),
		ResendAPIKey:           getEnv("RESEND_API_KEY", ""),
		EmailFrom:              getEnv("EMAIL_FROM", "noreply@betconsulting.ma"),
		EmailFromName:          getEnv("EMAIL_FROM_NAME", "BET Consulting Back Office"),
		EmailTestMode:          getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		EmailCriticalAlerts:    getEnvBool("EMAIL_CRITICAL_ALERTS", false),
		R2AccountID:            getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:          getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:      getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:           getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:            getEnv("R2_PUBLIC_URL", ""),
		MetricsEnabled:         getEnvBool("METRICS_ENABLED", true),
	}
}

// Location returns the time zone used to compute calendar days for the scanner.
// Falls back to UTC when the zone database does not know the configured name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ScanTimezone)
	if err != nil {
		log.Printf("[WARNING] Unknown SCAN_TIMEZONE %q, using UTC: %v", c.ScanTimezone, err)
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("Using default value for %s: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		log.Printf("[WARNING] Invalid integer for %s (%q), using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("[WARNING] Invalid duration for %s (%q), using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
