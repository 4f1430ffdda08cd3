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
	DatasetPath      string
	Sites            []string
	LimitPerCategory int
	MaxPages         int
	WaitTimeout      time.Duration
	RateLimitMs      int
	MaxRetries       int

	RatesURL   string
	RateBases  []string
	ChromeBin  string
	Headless   bool
	LoadImages bool

	LogLevel        string
	FluentEnabled   bool
	FluentHost      string
	FluentPort      int
	PostgresEnabled bool

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DatasetPath:      getEnv("DATASET_PATH", "csvs/housings.csv"),
		Sites:            getEnvList("SITES", []string{"listam", "estateam", "realestateam"}),
		LimitPerCategory: getEnvInt("LIMIT_PER_CATEGORY", 10),
		MaxPages:         getEnvInt("MAX_PAGES", 0),
		WaitTimeout:      time.Duration(getEnvInt("WAIT_TIMEOUT_SEC", 20)) * time.Second,
		RateLimitMs:      getEnvInt("RATE_LIMIT_MS", 0),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),

		RatesURL:   getEnv("RATES_URL", "https://open.er-api.com/v6/latest/"),
		RateBases:  getEnvList("RATE_BASES", []string{"AMD", "USD"}),
		ChromeBin:  getEnv("CHROME_BIN", ""),
		Headless:   getEnvBool("HEADLESS", true),
		LoadImages: getEnvBool("LOAD_IMAGES", false),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		FluentEnabled:   getEnvBool("FLUENTBIT_ENABLED", false),
		FluentHost:      getEnv("FLUENTBIT_HOST", "localhost"),
		FluentPort:      getEnvInt("FLUENTBIT_PORT", 24224),
		PostgresEnabled: getEnvBool("POSTGRES_ENABLED", false),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "housings"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
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

// SiteEnabled reports whether the named site adapter should run.
func (c *Config) SiteEnabled(name string) bool {
	for _, s := range c.Sites {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
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
		log.Printf("[config] %s=%q is not an integer, using %d", key, val, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
		log.Printf("[config] %s=%q is not a boolean, using %t", key, val, fallback)
	}
	return fallback
}

// getEnvList reads a comma-separated list, dropping blank items.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
