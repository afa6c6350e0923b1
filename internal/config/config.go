// Package config assembles the process configuration from an optional .env
// file, an optional YAML file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"

	// FileEnv names the environment variable holding the YAML config path.
	FileEnv = "KITCHEN_CONFIG"
)

type Config struct {
	ServiceName     string        `yaml:"service_name"`
	Env             string        `yaml:"env"`
	LogLevel        string        `yaml:"log_level"`
	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`

	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Notify    NotifyConfig    `yaml:"notify"`

	// Settings seeds the kitchen settings until a row has been saved.
	Settings SettingsDefaults `yaml:"settings"`
}

type StoreConfig struct {
	Driver       string `yaml:"driver"`
	URL          string `yaml:"url"`
	Key          string `yaml:"key"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type TelemetryConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AuthHeader string `yaml:"auth_header"`
	Insecure   bool   `yaml:"insecure"`
}

type KafkaConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type NotifyConfig struct {
	Region   string `yaml:"region"`
	TopicARN string `yaml:"topic_arn"`
}

// SettingsDefaults uses pointers so a YAML file can override single fields.
type SettingsDefaults struct {
	KitchenName           *string  `yaml:"kitchen_name"`
	LowStockThreshold     *float64 `yaml:"low_stock_threshold"`
	EnableNotifications   *bool    `yaml:"enable_notifications"`
	EnableRealTimeUpdates *bool    `yaml:"enable_real_time_updates"`
	MisuseThreshold       *float64 `yaml:"misuse_threshold"`
}

// Resolve applies the overrides on top of the built-in defaults.
func (d SettingsDefaults) Resolve() (settings.Settings, error) {
	s := settings.Patch{
		KitchenName:           d.KitchenName,
		LowStockThreshold:     d.LowStockThreshold,
		EnableNotifications:   d.EnableNotifications,
		EnableRealTimeUpdates: d.EnableRealTimeUpdates,
		MisuseThreshold:       d.MisuseThreshold,
	}.Apply(settings.Defaults())
	if err := s.Validate(); err != nil {
		return settings.Settings{}, fmt.Errorf("config: settings defaults: %w", err)
	}
	return s, nil
}

func Default() Config {
	return Config{
		ServiceName:     "kitchen-keeper",
		Env:             "dev",
		LogLevel:        "info",
		HTTPAddr:        ":8080",
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
		Store:           StoreConfig{Driver: DriverMemory, MaxOpenConns: 10},
		Kafka:           KafkaConfig{Topic: "kitchen.events"},
		Mongo:           MongoConfig{Database: "kitchen"},
	}
}

// Load reads .env (if present), then the YAML file named by KITCHEN_CONFIG
// (if set), then the environment, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SERVICE_NAME", &cfg.ServiceName)
	str("ENV", &cfg.Env)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("STORE_DRIVER", &cfg.Store.Driver)
	str("DATA_STORE_URL", &cfg.Store.URL)
	str("DATA_STORE_KEY", &cfg.Store.Key)
	str("OTEL_ENDPOINT", &cfg.Telemetry.Endpoint)
	str("OTEL_AUTH_HEADER", &cfg.Telemetry.AuthHeader)
	str("KAFKA_BROKER", &cfg.Kafka.Broker)
	str("KAFKA_TOPIC", &cfg.Kafka.Topic)
	str("MONGO_URI", &cfg.Mongo.URI)
	str("MONGO_DATABASE", &cfg.Mongo.Database)
	str("AWS_REGION", &cfg.Notify.Region)
	str("SNS_TOPIC_ARN", &cfg.Notify.TopicARN)

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("OTEL_INSECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: OTEL_INSECURE: %w", err)
		}
		cfg.Telemetry.Insecure = b
	}
	if v, ok := lookup("SHUTDOWN_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.URL == "" {
			errs = append(errs, errors.New("DATA_STORE_URL is required for the postgres driver"))
		}
		if c.Store.Key == "" {
			errs = append(errs, errors.New("DATA_STORE_KEY is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR must not be empty"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if _, err := c.Settings.Resolve(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
