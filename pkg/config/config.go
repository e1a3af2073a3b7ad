package config

import (
	"errors"
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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Engine   EngineConfig
	Sync     SyncConfig
	Imports  ImportConfig
	Exports  ExportConfig
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

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig tunes audience resolution and snapshot refresh behaviour.
type EngineConfig struct {
	SingleSectionFallback bool
	LabelFallback         bool
	AudienceCacheTTL      time.Duration
	WatermarkInterval     time.Duration
}

// SyncConfig bounds the batch sync writer.
type SyncConfig struct {
	MaxBatchSize int
	MaxRetries   int
	RetryBackoff time.Duration
	Concurrency  int
}

// ImportConfig gates the bulk grade import endpoint.
type ImportConfig struct {
	Enabled bool
	MaxRows int
}

// ExportConfig gates roster export endpoints.
type ExportConfig struct {
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Engine = EngineConfig{
		SingleSectionFallback: v.GetBool("ENGINE_SINGLE_SECTION_FALLBACK"),
		LabelFallback:         v.GetBool("ENGINE_LABEL_FALLBACK"),
		AudienceCacheTTL:      parseDuration(v.GetString("ENGINE_AUDIENCE_CACHE_TTL"), 5*time.Minute),
		WatermarkInterval:     parseDuration(v.GetString("ENGINE_WATERMARK_INTERVAL"), time.Minute),
	}

	cfg.Sync = SyncConfig{
		MaxBatchSize: v.GetInt("SYNC_MAX_BATCH_SIZE"),
		MaxRetries:   v.GetInt("SYNC_MAX_RETRIES"),
		RetryBackoff: parseDuration(v.GetString("SYNC_RETRY_BACKOFF"), 500*time.Millisecond),
		Concurrency:  v.GetInt("SYNC_CONCURRENCY"),
	}

	cfg.Imports = ImportConfig{
		Enabled: v.GetBool("IMPORTS_ENABLED"),
		MaxRows: v.GetInt("IMPORTS_MAX_ROWS"),
	}

	cfg.Exports = ExportConfig{Enabled: v.GetBool("EXPORTS_ENABLED")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "smart_student")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "assignment-engine")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENGINE_SINGLE_SECTION_FALLBACK", true)
	v.SetDefault("ENGINE_LABEL_FALLBACK", true)
	v.SetDefault("ENGINE_AUDIENCE_CACHE_TTL", "5m")
	v.SetDefault("ENGINE_WATERMARK_INTERVAL", "1m")

	v.SetDefault("SYNC_MAX_BATCH_SIZE", 500)
	v.SetDefault("SYNC_MAX_RETRIES", 3)
	v.SetDefault("SYNC_RETRY_BACKOFF", "500ms")
	v.SetDefault("SYNC_CONCURRENCY", 4)

	v.SetDefault("IMPORTS_ENABLED", true)
	v.SetDefault("IMPORTS_MAX_ROWS", 10000)

	v.SetDefault("EXPORTS_ENABLED", true)
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
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
