package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime settings of the API server.
type Config struct {
	AppPort          string
	DatabaseDriver   string
	DatabaseDSN      string
	JWTSecret        string
	JWTTTL           time.Duration
	RabbitMQURL      string
	RedisURL         string
	PayPalClientID   string
	PayPalSecret     string
	PayPalMode       string
	PayPalCurrency   string
	CORSOrigins      string
	PaymentRateLimit int
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "storefront.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("PAYPAL_CLIENT_ID", "")
	v.SetDefault("PAYPAL_CLIENT_SECRET", "")
	v.SetDefault("PAYPAL_MODE", "sandbox")
	v.SetDefault("PAYPAL_CURRENCY", "USD")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("PAYMENT_RATE_LIMIT", 30)
}

// Load reads configuration from the environment and, when CONFIG_FILE is set,
// from that file. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		DatabaseDriver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           v.GetDuration("JWT_TTL"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		RedisURL:         v.GetString("REDIS_URL"),
		PayPalClientID:   v.GetString("PAYPAL_CLIENT_ID"),
		PayPalSecret:     v.GetString("PAYPAL_CLIENT_SECRET"),
		PayPalMode:       strings.ToLower(v.GetString("PAYPAL_MODE")),
		PayPalCurrency:   strings.ToUpper(v.GetString("PAYPAL_CURRENCY")),
		CORSOrigins:      v.GetString("CORS_ORIGINS"),
		PaymentRateLimit: v.GetInt("PAYMENT_RATE_LIMIT"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	switch c.PayPalMode {
	case "sandbox", "live":
	default:
		return fmt.Errorf("unsupported PAYPAL_MODE %q", c.PayPalMode)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}
