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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Log       LogConfig
	CORS      CORSConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Registry  RegistryConfig
	Catalog   CatalogConfig
	Scheduler SchedulerConfig
	Imports   ImportsConfig
	Exports   ExportsConfig
	Realtime  RealtimeConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig governs token validation on mutating routes. Tokens are issued by the
// institution's identity provider and signed with a shared HS256 secret.
type JWTConfig struct {
	Enabled bool
	Secret  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles recommendation caching.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// RegistryConfig points at the read-only roster registry used to seed the catalog.
type RegistryConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// CatalogConfig controls where reference data comes from when the registry is off.
type CatalogConfig struct {
	SeedFile string
}

// SchedulerConfig tunes the scheduling command and recommendation engine.
type SchedulerConfig struct {
	SessionHours        float64
	RecommendationLimit int
}

// ImportsConfig configures CSV uploads and the import worker pool.
type ImportsConfig struct {
	Workers          int
	Retries          int
	MaxFileSizeBytes int64
	StorageDir       string
}

// ExportsConfig controls timetable export storage and signed download links.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

type RealtimeConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.JWT = JWTConfig{
		Enabled: v.GetBool("JWT_ENABLED"),
		Secret:  v.GetString("JWT_SECRET"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_RECOMMENDATION_CACHE"),
		TTL:     parseDuration(v.GetString("RECOMMENDATION_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Registry = RegistryConfig{
		Enabled:      v.GetBool("ENABLE_REGISTRY"),
		Host:         v.GetString("REGISTRY_DB_HOST"),
		Port:         v.GetInt("REGISTRY_DB_PORT"),
		User:         v.GetString("REGISTRY_DB_USER"),
		Password:     v.GetString("REGISTRY_DB_PASSWORD"),
		Name:         v.GetString("REGISTRY_DB_NAME"),
		SSLMode:      v.GetString("REGISTRY_DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("REGISTRY_DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("REGISTRY_DB_MAX_IDLE_CONNS"),
	}

	cfg.Catalog = CatalogConfig{SeedFile: v.GetString("CATALOG_SEED_FILE")}

	sessionHours := v.GetFloat64("SCHEDULER_SESSION_HOURS")
	if sessionHours <= 0 {
		sessionHours = 4
	}
	limit := v.GetInt("SCHEDULER_RECOMMENDATION_LIMIT")
	if limit <= 0 {
		limit = 3
	}
	cfg.Scheduler = SchedulerConfig{
		SessionHours:        sessionHours,
		RecommendationLimit: limit,
	}

	maxUpload := v.GetInt64("IMPORTS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Imports = ImportsConfig{
		Workers:          v.GetInt("IMPORTS_WORKER_CONCURRENCY"),
		Retries:          v.GetInt("IMPORTS_WORKER_RETRIES"),
		MaxFileSizeBytes: maxUpload,
		StorageDir:       v.GetString("IMPORTS_STORAGE_DIR"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), time.Hour),
	}

	cfg.Realtime = RealtimeConfig{Enabled: v.GetBool("ENABLE_REALTIME")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetDefault("JWT_ENABLED", false)
	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_RECOMMENDATION_CACHE", false)
	v.SetDefault("RECOMMENDATION_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_REGISTRY", false)
	v.SetDefault("REGISTRY_DB_HOST", "localhost")
	v.SetDefault("REGISTRY_DB_PORT", 5432)
	v.SetDefault("REGISTRY_DB_USER", "postgres")
	v.SetDefault("REGISTRY_DB_PASSWORD", "postgres")
	v.SetDefault("REGISTRY_DB_NAME", "academic_registry")
	v.SetDefault("REGISTRY_DB_SSL_MODE", "disable")
	v.SetDefault("REGISTRY_DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("REGISTRY_DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("CATALOG_SEED_FILE", "")

	v.SetDefault("SCHEDULER_SESSION_HOURS", 4)
	v.SetDefault("SCHEDULER_RECOMMENDATION_LIMIT", 3)

	v.SetDefault("IMPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("IMPORTS_WORKER_RETRIES", 1)
	v.SetDefault("IMPORTS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("IMPORTS_STORAGE_DIR", "./imports")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "1h")

	v.SetDefault("ENABLE_REALTIME", true)
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
