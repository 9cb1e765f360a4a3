package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	AppBaseURL  string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration

	ReplicateAPIToken string
	ReplicateBaseURL  string

	MinIOEndpoint     string
	MinIOAccessKey    string
	MinIOSecretKey    string
	MinIOBucket       string
	MinIOUseSSL       bool
	StoragePublicBase string
	StoragePath       string
	ThumbnailMaxWidth int

	RedisAddr       string
	GalleryCacheTTL time.Duration

	GeoIPDBPath string

	PollInterval   time.Duration
	RescanInterval time.Duration

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		AppBaseURL:  getEnv("APP_BASE_URL", "http://localhost:8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      time.Hour * time.Duration(getEnvInt("JWT_TTL_HOURS", 72)),

		ReplicateAPIToken: os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateBaseURL:  getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),

		MinIOEndpoint:     os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:    os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:    os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:       getEnv("MINIO_BUCKET", "headshots"),
		MinIOUseSSL:       os.Getenv("MINIO_USE_SSL") == "true",
		StoragePublicBase: getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:9000"),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		ThumbnailMaxWidth: getEnvInt("THUMBNAIL_MAX_WIDTH", 512),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		GalleryCacheTTL: time.Second * time.Duration(getEnvInt("GALLERY_CACHE_TTL_SECONDS", 30)),

		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		PollInterval:   time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)),
		RescanInterval: time.Second * time.Duration(getEnvInt("POLL_RESCAN_SECONDS", 30)),

		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
