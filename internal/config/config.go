package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Mocks     MocksConfig     `json:"mocks"`
	Clerk     ClerkConfig     `json:"clerk"`
	Admin     AdminConfig     `json:"admin"`
	Storage   StorageConfig   `json:"storage"`
	Catalog   CatalogConfig   `json:"catalog"`
	Coupons   CouponsConfig   `json:"coupons"`
	SendGrid  SendGridConfig  `json:"sendgrid"`
	LogSink   LogSinkConfig   `json:"logsink"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

type MocksConfig struct {
	Enable bool   `json:"enable"`
	Email  string `json:"email"`
}

type ClerkConfig struct {
	SecretKey      string `json:"secret_key"`
	PublishableKey string `json:"publishable_key"`
}

func (c ClerkConfig) Enabled() bool {
	return c.SecretKey != ""
}

type AdminConfig struct {
	Emails []string `json:"emails"`
}

// StorageConfig picks the key value backend. Redis wins over blob, blob over files.
type StorageConfig struct {
	RedisAddr     string `json:"redis_addr"`
	BlobAccount   string `json:"blob_account"`
	BlobKey       string `json:"blob_key"`
	BlobContainer string `json:"blob_container"`
	Dir           string `json:"dir"`
}

// CatalogConfig controls the artificial delay on recipe and game lookups.
type CatalogConfig struct {
	Latency time.Duration `json:"latency"`
}

type CouponsConfig struct {
	Latency     time.Duration `json:"latency"`
	MinPurchase int64         `json:"min_purchase"`
	MaxDiscount int64         `json:"max_discount"`
}

type SendGridConfig struct {
	APIKey string `json:"api_key"`
	From   string `json:"from"`
}

type LogSinkConfig struct {
	AccountName string `json:"account_name"`
	AccountKey  string `json:"account_key"`
	Container   string `json:"container"`
}

func (c LogSinkConfig) Enabled() bool {
	return c.AccountName != "" && c.AccountKey != "" && c.Container != ""
}

type TelemetryConfig struct {
	Endpoint    string `json:"endpoint"`
	ServiceName string `json:"service_name"`
}

func (c TelemetryConfig) Enabled() bool {
	return c.Endpoint != ""
}

func Load() (*Config, error) {
	catalogLatency, err := getDurationOrDefault("CATALOG_LATENCY", 300*time.Millisecond)
	if err != nil {
		return nil, err
	}
	couponLatency, err := getDurationOrDefault("COUPON_LATENCY", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	minPurchase, err := getIntOrDefault("COUPON_MIN_PURCHASE", 100)
	if err != nil {
		return nil, err
	}
	maxDiscount, err := getIntOrDefault("COUPON_MAX_DISCOUNT", 500)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Mocks: MocksConfig{
			Enable: os.Getenv("ENABLE_MOCKS") != "",
			Email:  os.Getenv("MOCK_EMAIL"),
		},
		Clerk: ClerkConfig{
			SecretKey:      os.Getenv("CLERK_SECRET_KEY"),
			PublishableKey: os.Getenv("CLERK_PUBLISHABLE_KEY"),
		},
		Admin: AdminConfig{
			Emails: splitList(os.Getenv("ADMIN_EMAILS")),
		},
		Storage: StorageConfig{
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			BlobAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
			BlobKey:       os.Getenv("AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"),
			BlobContainer: getEnvOrDefault("AZURE_STORAGE_CONTAINER", "suvai"),
			Dir:           getEnvOrDefault("CACHE_DIR", "cache"),
		},
		Catalog: CatalogConfig{
			Latency: catalogLatency,
		},
		Coupons: CouponsConfig{
			Latency:     couponLatency,
			MinPurchase: minPurchase,
			MaxDiscount: maxDiscount,
		},
		SendGrid: SendGridConfig{
			APIKey: os.Getenv("SENDGRID_API_KEY"),
			From:   getEnvOrDefault("SENDGRID_FROM", "orders@suvaichaalai.com"),
		},
		LogSink: LogSinkConfig{
			AccountName: os.Getenv("LOGSINK_ACCOUNT_NAME"),
			AccountKey:  os.Getenv("LOGSINK_ACCOUNT_KEY"),
			Container:   os.Getenv("LOGSINK_CONTAINER"),
		},
		Telemetry: TelemetryConfig{
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", "suvai"),
		},
	}

	return config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getIntOrDefault(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
