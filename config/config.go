package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PartnersFile string

	CatalogBackend string // json | postgres | sqlite
	CatalogPath    string
	SQLitePath     string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	FeedsDir        string
	ErrorReportPath string

	MaxConcurrency   int
	ImageConcurrency int
	ImageRatePerSec  float64
	MaxRetries       int
	FetchTimeout     time.Duration
	ImageTimeout     time.Duration

	FetchTransport string // http | browser
	ChromeBin      string

	RedisURL               string
	ValidatePartnerImages  bool
	GeneratedImagesEnabled bool
	ImageBankFile          string

	MaxProductsPerPartner     int
	DeactivateAfterAbsentRuns int
	ShortDescriptionLength    int
	MaxPrice                  float64

	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		PartnersFile: getEnv("PARTNERS_FILE", ""),

		CatalogBackend: strings.ToLower(getEnv("CATALOG_BACKEND", "json")),
		CatalogPath:    getEnv("CATALOG_PATH", "./data/products.json"),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/catalog.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "feeds"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "feeds123"),
		PostgresDB:       getEnv("POSTGRES_DB", "catalog"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		FeedsDir:        getEnv("FEEDS_DIR", "./data/feeds"),
		ErrorReportPath: getEnv("ERROR_REPORT_PATH", "./output/ingestion_errors.csv"),

		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 2),
		ImageConcurrency: getEnvInt("IMAGE_CONCURRENCY", 10),
		ImageRatePerSec:  getEnvFloat("IMAGE_RATE_PER_SEC", 20),
		MaxRetries:       getEnvInt("MAX_RETRIES", 4),
		FetchTimeout:     getEnvSeconds("FETCH_TIMEOUT_SEC", 30),
		ImageTimeout:     getEnvSeconds("IMAGE_TIMEOUT_SEC", 5),

		FetchTransport: strings.ToLower(getEnv("FETCH_TRANSPORT", "http")),
		ChromeBin:      getEnv("CHROME_BIN", ""),

		RedisURL:               getEnv("REDIS_URL", ""),
		ValidatePartnerImages:  getEnvBool("VALIDATE_PARTNER_IMAGES", true),
		GeneratedImagesEnabled: getEnvBool("GENERATED_IMAGES_ENABLED", true),
		ImageBankFile:          getEnv("IMAGE_BANK_FILE", ""),

		MaxProductsPerPartner:     getEnvInt("MAX_PRODUCTS_PER_PARTNER", 0),
		DeactivateAfterAbsentRuns: getEnvInt("DEACTIVATE_AFTER_ABSENT_RUNS", 3),
		ShortDescriptionLength:    getEnvInt("SHORT_DESCRIPTION_LENGTH", 160),
		MaxPrice:                  getEnvFloat("MAX_PRICE", 50000),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}
