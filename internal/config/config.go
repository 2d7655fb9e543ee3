package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	CorsAllowedOrigins []string
	BaseURL            string
	BlogTitle          string

	Backend       string
	DatabaseURL   string
	MongoURL      string
	MongoDBName   string
	RedisURL      string
	PostsFile     string
	KVURL         string
	KVRestURL     string
	KVRestToken   string
	ImgBBAPIKey   string
	CacheRedisURL string
	CacheTTL      time.Duration
	StoreTimeout  time.Duration

	AuthToken     string
	JWTSecret     string
	AdminUsername string
	AdminPassword string

	GeminiAPIKey string
	GeminiModel  string
}

func Load() Config {
	_ = godotenv.Load()

	cfg, err := fromEnv(os.Getenv)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func fromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		value := strings.TrimSpace(getenv(key))
		if value == "" {
			return fallback
		}
		return value
	}

	cfg := Config{
		Port:               get("PORT", "8080"),
		CorsAllowedOrigins: splitCSV(get("CORS_ALLOWED_ORIGINS", "*")),
		BaseURL:            get("BASE_URL", ""),
		BlogTitle:          get("BLOG_TITLE", "Vignettes"),

		Backend:       strings.ToLower(get("BACKEND", "")),
		DatabaseURL:   get("DATABASE_URL", ""),
		MongoURL:      get("MONGO_URL", ""),
		MongoDBName:   get("MONGO_DBNAME", "vignettes"),
		RedisURL:      get("REDIS_URL", ""),
		PostsFile:     get("POSTS_FILE", "data/posts.json"),
		KVURL:         get("KV_URL", ""),
		KVRestURL:     get("KV_REST_API_URL", ""),
		KVRestToken:   get("KV_REST_API_TOKEN", ""),
		ImgBBAPIKey:   get("IMGBB_API_KEY", ""),
		CacheRedisURL: get("CACHE_REDIS_URL", ""),

		AuthToken:     get("AUTH_TOKEN", ""),
		JWTSecret:     get("JWT_SECRET", ""),
		AdminUsername: get("ADMIN_USERNAME", "admin"),
		AdminPassword: get("ADMIN_PASSWORD", ""),

		GeminiAPIKey: get("GEMINI_API_KEY", get("API_KEY", "")),
		GeminiModel:  get("GEMINI_MODEL", ""),
	}

	var err error
	if cfg.CacheTTL, err = time.ParseDuration(get("CACHE_TTL", "1h")); err != nil {
		return Config{}, fmt.Errorf("CACHE_TTL: %w", err)
	}
	if cfg.StoreTimeout, err = time.ParseDuration(get("STORE_TIMEOUT", "10s")); err != nil {
		return Config{}, fmt.Errorf("STORE_TIMEOUT: %w", err)
	}

	// Without an explicit BACKEND, a DATABASE_URL keeps the Postgres
	// setup working unchanged.
	if cfg.Backend == "" {
		if cfg.DatabaseURL != "" {
			cfg.Backend = "postgres"
		} else {
			cfg.Backend = "file"
		}
	}

	switch cfg.Backend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required")
		}
	case "mongo":
		if cfg.MongoURL == "" {
			return Config{}, fmt.Errorf("MONGO_URL is required")
		}
	case "redis":
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required")
		}
	case "kvhttp":
		if cfg.KVURL == "" {
			return Config{}, fmt.Errorf("KV_URL is required")
		}
	case "kvrest":
		if cfg.KVRestURL == "" || cfg.KVRestToken == "" {
			return Config{}, fmt.Errorf("KV_REST_API_URL and KV_REST_API_TOKEN are required")
		}
	case "file", "memory":
	default:
		return Config{}, fmt.Errorf("unknown BACKEND %q", cfg.Backend)
	}

	if cfg.AuthToken == "" {
		return Config{}, fmt.Errorf("AUTH_TOKEN is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD is required")
	}

	return cfg, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
