package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                string
	CatalogBaseURL      string
	CatalogImageBaseURL string
	PayPalBaseURL       string
	PayPalClientID      string
	PayPalSecret        string
	BackendBaseURL      string
	BackendToken        string
	DataDir             string
	RedisAddr           string
	PostgresDSN         string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() Config {
	_ = godotenv.Load() // load .env if it exists
	cfg := Config{
		Addr:                getenv("STOREFRONT_ADDR", ":8080"),
		CatalogBaseURL:      getenv("CATALOG_BASE_URL", "https://api.artic.edu/api/v1"),
		CatalogImageBaseURL: getenv("CATALOG_IMAGE_BASE_URL", "https://www.artic.edu"),
		PayPalBaseURL:       getenv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
		PayPalClientID:      getenv("PAYPAL_CLIENT_ID", ""),
		PayPalSecret:        getenv("PAYPAL_SECRET", ""),
		BackendBaseURL:      getenv("BACKEND_BASE_URL", ""),
		BackendToken:        getenv("BACKEND_TOKEN", ""),
		DataDir:             getenv("DATA_DIR", ""),
		RedisAddr:           getenv("REDIS_ADDR", ""),
		PostgresDSN:         getenv("POSTGRES_DSN", ""),
	}
	log.Printf("[config] STOREFRONT_ADDR=%s", cfg.Addr)
	log.Printf("[config] CATALOG_BASE_URL=%s", cfg.CatalogBaseURL)
	log.Printf("[config] PAYPAL_BASE_URL=%s", cfg.PayPalBaseURL)
	return cfg
}
