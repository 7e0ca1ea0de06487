package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort string
	Secret   string

	AdminUsername string
	AdminPassword string

	StoreBackend   string
	DatabaseDriver string
	DatabaseDSN    string
	RedisAddr      string
	RedisDB        int

	SeedCSV         string
	ReceiptTemplate string

	OpenAIAPIKey     string
	OpenAIModel      string
	AssistantTimeout time.Duration

	AllowOversell   bool
	LowStockDefault int64
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	cfg := Config{
		HTTPPort:         getenv("HTTP_PORT", "8080"),
		Secret:           getenv("SECRET", "dev_secret"),
		AdminUsername:    getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:    getenv("ADMIN_PASSWORD", "1234"),
		StoreBackend:     strings.ToLower(getenv("STORE_BACKEND", "sql")),
		DatabaseDriver:   strings.ToLower(getenv("DATABASE_DRIVER", "sqlite")),
		DatabaseDSN:      getenv("DATABASE_DSN", "pharmacy.db"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		SeedCSV:          getenv("SEED_CSV", "assets/medicines.csv"),
		ReceiptTemplate:  getenv("RECEIPT_TEMPLATE", "assets/receipt.yaml"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getenv("OPENAI_MODEL", "gpt-4o"),
		AssistantTimeout: 20 * time.Second,
		LowStockDefault:  10,
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}

	switch cfg.StoreBackend {
	case "sql", "redis", "memory":
	default:
		log.Printf("invalid STORE_BACKEND value %q, defaulting to sql", cfg.StoreBackend)
		cfg.StoreBackend = "sql"
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			log.Printf("invalid REDIS_DB value %q, defaulting to 0", v)
		} else {
			cfg.RedisDB = n
		}
	}

	if v := os.Getenv("ASSISTANT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Printf("invalid ASSISTANT_TIMEOUT value %q, defaulting to %s", v, cfg.AssistantTimeout)
		} else {
			cfg.AssistantTimeout = d
		}
	}

	if v := os.Getenv("ALLOW_OVERSELL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid ALLOW_OVERSELL value %q, defaulting to false", v)
		}
		cfg.AllowOversell = b
	}

	if v := os.Getenv("LOW_STOCK_DEFAULT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			log.Printf("invalid LOW_STOCK_DEFAULT value %q, defaulting to %d", v, cfg.LowStockDefault)
		} else {
			cfg.LowStockDefault = n
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
