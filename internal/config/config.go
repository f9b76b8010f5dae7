package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	Env         string `yaml:"env" env:"ENV" env-default:"dev"`
	HTTPAddr    string `yaml:"http_addr" env:"HTTP_ADDR"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFile     string `yaml:"log_file" env:"LOG_FILE"`
	SeedData    bool   `yaml:"seed_data" env:"SEED_DATA" env-default:"true"`

	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Services Services `yaml:"services"`
	Payment  Payment  `yaml:"payment"`
	Tracing  Tracing  `yaml:"tracing"`
}

// Postgres is optional; without a URL the service keeps state in memory.
type Postgres struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

type Redis struct {
	Addr string        `yaml:"addr" env:"REDIS_ADDR"`
	TTL  time.Duration `yaml:"ttl" env:"REDIS_CACHE_TTL" env-default:"30s"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"minishop.events"`
}

type Services struct {
	ProductURL    string        `yaml:"product_url" env:"PRODUCT_SERVICE_URL" env-default:"http://localhost:3001"`
	OrderURL      string        `yaml:"order_url" env:"ORDER_SERVICE_URL" env-default:"http://localhost:3002"`
	ClientURL     string        `yaml:"client_url" env:"CLIENT_SERVICE_URL" env-default:"http://localhost:3004"`
	ClientTimeout time.Duration `yaml:"client_timeout" env:"HTTP_CLIENT_TIMEOUT" env-default:"3s"`
}

type Payment struct {
	ApprovalRate float64 `yaml:"approval_rate" env:"PAYMENT_APPROVAL_RATE" env-default:"0.8"`
	Seed         int64   `yaml:"seed" env:"PAYMENT_SEED" env-default:"0"`
}

type Tracing struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Defaults are the per-binary values for keys that differ between services.
type Defaults struct {
	ServiceName string
	HTTPAddr    string
}

// Load reads .env (if present), then CONFIG_PATH (if set), then the environment.
func Load(d Defaults) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = d.ServiceName
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = d.HTTPAddr
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.ServiceName == "" {
		errs = append(errs, errors.New("SERVICE_NAME is required"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if c.Payment.ApprovalRate < 0 || c.Payment.ApprovalRate > 1 {
		errs = append(errs, fmt.Errorf("PAYMENT_APPROVAL_RATE must be within [0,1], got %v", c.Payment.ApprovalRate))
	}
	if c.Services.ClientTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_CLIENT_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// KafkaEnabled reports whether any broker is configured.
func (c *Config) KafkaEnabled() bool {
	for _, b := range c.Kafka.Brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

// Help renders the env variable table for -h output.
func Help() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
