package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port    string
	BaseURL string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Schema isolates the document tables; it stands in for the original
	// deployment's table-name prefix.
	Schema string
}

type RedisConfig struct {
	Addr string
}

type AuthConfig struct {
	JWTSecret string
}

type PaymentConfig struct {
	SecretKey     string
	WebhookSecret string
}

type ShippingConfig struct {
	APIKey        string
	SenderName    string
	SenderStreet  string
	SenderCity    string
	SenderState   string
	SenderZip     string
	SenderCountry string
	SenderEmail   string
	SenderPhone   string
}

type EmailConfig struct {
	APIKey     string
	FromEmail  string
	FromName   string
	AdminEmail string
}

type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Payment  PaymentConfig
	Shipping ShippingConfig
	Email    EmailConfig
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. Postgres settings and the token secret are hard requirements;
// provider secrets may be absent, which disables the dependent feature
// instead of failing startup.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{}

	cfg.App.Port = getenv("APP_PORT", "8080")
	cfg.App.BaseURL = getenv("APP_BASE_URL", "http://localhost:8080")

	cfg.Postgres.Host = os.Getenv("DB_HOST")
	cfg.Postgres.Port = getenv("DB_PORT", "5432")
	cfg.Postgres.User = os.Getenv("DB_USER")
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	cfg.Postgres.SSLMode = getenv("DB_SSLMODE", "disable")
	cfg.Postgres.Schema = getenv("DB_SCHEMA", "storefront")
	for name, v := range map[string]string{
		"DB_HOST": cfg.Postgres.Host,
		"DB_USER": cfg.Postgres.User,
		"DB_NAME": cfg.Postgres.DBName,
	} {
		if v == "" {
			return nil, fmt.Errorf("%s is required", name)
		}
	}

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg.Payment.SecretKey = os.Getenv("PAYMENT_SECRET_KEY")
	cfg.Payment.WebhookSecret = os.Getenv("PAYMENT_WEBHOOK_SECRET")

	cfg.Shipping.APIKey = os.Getenv("SHIPPING_API_KEY")
	cfg.Shipping.SenderName = os.Getenv("SHIPPING_SENDER_NAME")
	cfg.Shipping.SenderStreet = os.Getenv("SHIPPING_SENDER_STREET")
	cfg.Shipping.SenderCity = os.Getenv("SHIPPING_SENDER_CITY")
	cfg.Shipping.SenderState = os.Getenv("SHIPPING_SENDER_STATE")
	cfg.Shipping.SenderZip = os.Getenv("SHIPPING_SENDER_ZIP")
	cfg.Shipping.SenderCountry = getenv("SHIPPING_SENDER_COUNTRY", "US")
	cfg.Shipping.SenderEmail = os.Getenv("SHIPPING_SENDER_EMAIL")
	cfg.Shipping.SenderPhone = os.Getenv("SHIPPING_SENDER_PHONE")

	cfg.Email.APIKey = os.Getenv("EMAIL_API_KEY")
	cfg.Email.FromEmail = os.Getenv("EMAIL_FROM_ADDRESS")
	cfg.Email.FromName = getenv("EMAIL_FROM_NAME", "Bookstore")
	cfg.Email.AdminEmail = os.Getenv("EMAIL_ADMIN_ADDRESS")

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
