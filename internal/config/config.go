package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Политики обработки отказа геокодера
const (
	GeocodePolicyFallback = "fallback" // подставить координаты центра города
	GeocodePolicyReject   = "reject"   // вернуть клиенту 400 с просьбой указать координаты вручную
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL   string `env:"DATABASE_URL"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string        `env:"REDIS_PASSWORD"`
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Auth Config
	JWTSecret string `env:"JWT_SECRET"`

	// CORS Config
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Geocoding Config
	GeocoderURL           string        `env:"GEOCODER_URL" envDefault:"https://api.opencagedata.com/geocode/v1/json"`
	GeocoderAPIKey        string        `env:"OPENCAGE_API_KEY"`
	GeocoderAddressSuffix string        `env:"GEOCODER_ADDRESS_SUFFIX" envDefault:"Recife, Pernambuco, Brasil"`
	GeocoderTimeout       time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"5s"`
	GeocoderRatePerSecond float64       `env:"GEOCODER_RATE_PER_SECOND" envDefault:"1"`
	GeocodeFailurePolicy  string        `env:"GEOCODE_FAILURE_POLICY" envDefault:"fallback"`
	DefaultLatitude       float64       `env:"DEFAULT_LATITUDE" envDefault:"-8.0476"`
	DefaultLongitude      float64       `env:"DEFAULT_LONGITUDE" envDefault:"-34.877"`

	// Realtime Config
	RealtimeChannel string        `env:"REALTIME_CHANNEL" envDefault:"occurrences:events"`
	NotifyTimeout   time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"3s"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		DBMaxConns:            int32(getEnvAsInt("DB_MAX_CONNS", 10)),
		MigrationsDir:         getEnv("MIGRATIONS_DIR", "migrations"),
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:             os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
		CacheTTL:              getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		CORSAllowedOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		GeocoderURL:           getEnv("GEOCODER_URL", "https://api.opencagedata.com/geocode/v1/json"),
		GeocoderAPIKey:        os.Getenv("OPENCAGE_API_KEY"),
		GeocoderAddressSuffix: getEnv("GEOCODER_ADDRESS_SUFFIX", "Recife, Pernambuco, Brasil"),
		GeocoderTimeout:       getEnvAsDuration("GEOCODER_TIMEOUT", 5*time.Second),
		GeocoderRatePerSecond: getEnvAsFloat("GEOCODER_RATE_PER_SECOND", 1),
		GeocodeFailurePolicy:  strings.ToLower(getEnv("GEOCODE_FAILURE_POLICY", GeocodePolicyFallback)),
		DefaultLatitude:       getEnvAsFloat("DEFAULT_LATITUDE", -8.0476),
		DefaultLongitude:      getEnvAsFloat("DEFAULT_LONGITUDE", -34.877),
		RealtimeChannel:       getEnv("REALTIME_CHANNEL", "occurrences:events"),
		NotifyTimeout:         getEnvAsDuration("NOTIFY_TIMEOUT", 3*time.Second),
		WebhookURL:            os.Getenv("WEBHOOK_URL"),
		WebhookSecret:         os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:        getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:     getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:      getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	switch c.GeocodeFailurePolicy {
	case GeocodePolicyFallback, GeocodePolicyReject:
	default:
		return fmt.Errorf("GEOCODE_FAILURE_POLICY must be %q or %q, got %q",
			GeocodePolicyFallback, GeocodePolicyReject, c.GeocodeFailurePolicy)
	}
	return nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsList разбирает список через запятую, пустые элементы отбрасываются
func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
