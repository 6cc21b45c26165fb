package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultPaymentThreshold is the share of the fee total that must be paid before registration opens.
const DefaultPaymentThreshold = 0.7

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	CORS         CORSConfig
	Log          LogConfig
	Cache        CacheConfig
	Registration RegistrationConfig
	Currency     CurrencyConfig
	Grades       GradesConfig
	Actor        ActorConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs the read-through cache used for catalog and program data.
type CacheConfig struct {
	Enabled         bool
	CatalogTTL      time.Duration
	RefreshSchedule string
}

// RegistrationConfig holds the registration gating policy.
type RegistrationConfig struct {
	FeeTablePath     string
	PaymentThreshold float64
}

// CurrencyConfig controls how fee amounts are rendered.
type CurrencyConfig struct {
	Code      string
	MajorUnit string
	MinorUnit string
}

// GradesConfig tunes grading and the publication workers.
type GradesConfig struct {
	Scale          string
	PublishWorkers int
	PublishRetries int
}

// ActorConfig names the headers the upstream gateway uses to forward the authenticated actor.
type ActorConfig struct {
	IDHeader   string
	RoleHeader string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:         v.GetBool("ENABLE_CACHE"),
		CatalogTTL:      parseDuration(v.GetString("CATALOG_CACHE_TTL"), 15*time.Minute),
		RefreshSchedule: v.GetString("CATALOG_REFRESH_SCHEDULE"),
	}

	cfg.Registration = RegistrationConfig{
		FeeTablePath:     v.GetString("FEE_TABLE_PATH"),
		PaymentThreshold: parseThreshold(v.GetFloat64("REGISTRATION_PAYMENT_THRESHOLD")),
	}

	cfg.Currency = CurrencyConfig{
		Code:      v.GetString("CURRENCY_CODE"),
		MajorUnit: v.GetString("CURRENCY_MAJOR_UNIT"),
		MinorUnit: v.GetString("CURRENCY_MINOR_UNIT"),
	}

	cfg.Grades = GradesConfig{
		Scale:          v.GetString("GRADE_SCALE"),
		PublishWorkers: v.GetInt("GRADE_PUBLISH_WORKERS"),
		PublishRetries: v.GetInt("GRADE_PUBLISH_RETRIES"),
	}

	cfg.Actor = ActorConfig{
		IDHeader:   v.GetString("ACTOR_ID_HEADER"),
		RoleHeader: v.GetString("ACTOR_ROLE_HEADER"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "unireg")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("CATALOG_CACHE_TTL", "15m")
	v.SetDefault("CATALOG_REFRESH_SCHEDULE", "@every 10m")

	v.SetDefault("FEE_TABLE_PATH", "./config/fees.yaml")
	v.SetDefault("REGISTRATION_PAYMENT_THRESHOLD", DefaultPaymentThreshold)

	v.SetDefault("CURRENCY_CODE", "GHS")
	v.SetDefault("CURRENCY_MAJOR_UNIT", "cedis")
	v.SetDefault("CURRENCY_MINOR_UNIT", "pesewas")

	v.SetDefault("GRADE_SCALE", "")
	v.SetDefault("GRADE_PUBLISH_WORKERS", 2)
	v.SetDefault("GRADE_PUBLISH_RETRIES", 3)

	v.SetDefault("ACTOR_ID_HEADER", "X-Actor-ID")
	v.SetDefault("ACTOR_ROLE_HEADER", "X-Actor-Role")
}

// parseThreshold keeps the payment threshold inside (0, 1].
func parseThreshold(raw float64) float64 {
	if raw <= 0 || raw > 1 {
		return DefaultPaymentThreshold
	}
	return raw
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
