package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Storage  StorageConfig  `yaml:"storage"`
	Booking  BookingConfig  `yaml:"booking"`
	Payment  PaymentConfig  `yaml:"payment"`
	Flights  FlightsConfig  `yaml:"flights"`
}

type HTTPConfig struct {
	Address                string   `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	AllowedOrigins         []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds" env:"HTTP_SHUTDOWN_TIMEOUT_SECONDS" env-default:"5"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	Name     string `yaml:"name" env:"POSTGRES_DB" env-default:"flightbooking"`
	SSLMode  string `yaml:"ssl_mode" env:"POSTGRES_SSLMODE" env-default:"disable"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	BookingTopic       string   `yaml:"booking_topic" env:"KAFKA_BOOKING_TOPIC" env-default:"bookings"`
	NotificationsTopic string   `yaml:"notifications_topic" env:"KAFKA_NOTIFICATIONS_TOPIC" env-default:"notifications"`
	GroupID            string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"flightbooking-worker"`
}

// StorageConfig selects the backing medium for the booking record store.
// Supported drivers: redis, postgres, memory.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"redis"`
}

type BookingConfig struct {
	PNRAttempts         int `yaml:"pnr_attempts" env:"BOOKING_PNR_ATTEMPTS" env-default:"5"`
	SessionTTLMinutes   int `yaml:"session_ttl_minutes" env:"BOOKING_SESSION_TTL_MINUTES" env-default:"60"`
	SessionSweepSeconds int `yaml:"session_sweep_seconds" env:"BOOKING_SESSION_SWEEP_SECONDS" env-default:"60"`
}

type PaymentConfig struct {
	SuccessRate     float64 `yaml:"success_rate" env:"PAYMENT_SUCCESS_RATE" env-default:"0.9"`
	TimeoutSeconds  int     `yaml:"timeout_seconds" env:"PAYMENT_TIMEOUT_SECONDS" env-default:"300"`
	NPRRate         float64 `yaml:"npr_rate" env:"PAYMENT_NPR_RATE" env-default:"133.25"`
	CallbackBaseURL string  `yaml:"callback_base_url" env:"PAYMENT_CALLBACK_BASE_URL" env-default:"http://localhost:8080/api/v1/payments"`
}

type FlightsConfig struct {
	CatalogPath     string `yaml:"catalog_path" env:"FLIGHTS_CATALOG_PATH" env-default:"flights.yaml"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" env:"FLIGHTS_CACHE_TTL_SECONDS" env-default:"300"`
}

// LoadConfig reads the yaml file at path and then applies environment
// overrides. A missing file is not an error: the config is built from the
// environment and defaults alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	return &cfg, nil
}
