package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSheet    = "sheet"
	BackendRemote   = "remote"
)

// DefaultSheetRefresh is how often a spreadsheet source is reloaded.
const DefaultSheetRefresh = 5 * time.Minute

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	StoreBackend       string
	DataFile           string
	SeedFile           string
	SheetURL           string
	RemoteURL          string
	RedisURL           string
	RedisKey           string
	Postgres           Postgres
	RefreshInterval    time.Duration
	ReloadOnRead       bool
	HTTPTimeout        time.Duration
	Location           *time.Location
	CORSAllowedOrigins []string
	StaticDir          string
	WriteRateLimit     int
	ViewCacheTTL       time.Duration
}

// Postgres holds the connection settings for the postgres backend
type Postgres struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Load reads configuration from a .env file (when present) and environment
// variables
func Load() (*Config, error) {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SERVER_PORT", 3000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendFile)
	v.SetDefault("DATA_FILE", "dados.JSON")
	v.SetDefault("SEED_FILE", "")
	v.SetDefault("SHEET_URL", "")
	v.SetDefault("REMOTE_URL", "http://localhost:3000")
	v.SetDefault("REDIS_URL", "redis://localhost:6379")
	v.SetDefault("REDIS_KEY", "staffdir:employees")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "staffdir")
	v.SetDefault("POSTGRES_PASSWORD", "dev")
	v.SetDefault("POSTGRES_DB", "staffdir")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("REFRESH_INTERVAL", "")
	v.SetDefault("RELOAD_ON_READ", "")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("TIME_ZONE", "America/Sao_Paulo")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("WRITE_RATE_LIMIT", 30)
	v.SetDefault("VIEW_CACHE_TTL", "30s")
}

func fromViper(v *viper.Viper) (*Config, error) {
	backend := strings.ToLower(v.GetString("STORE_BACKEND"))
	switch backend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres, BackendSheet, BackendRemote:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q", backend)
	}

	port, err := parseInt(v, "SERVER_PORT")
	if err != nil {
		return nil, err
	}
	pgPort, err := parseInt(v, "POSTGRES_PORT")
	if err != nil {
		return nil, err
	}
	writeLimit, err := parseInt(v, "WRITE_RATE_LIMIT")
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parseDuration(v, "HTTP_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration(v, "VIEW_CACHE_TTL", 0)
	if err != nil {
		return nil, err
	}

	defaultRefresh := time.Duration(0)
	if backend == BackendSheet {
		defaultRefresh = DefaultSheetRefresh
	}
	refresh, err := parseDuration(v, "REFRESH_INTERVAL", defaultRefresh)
	if err != nil {
		return nil, err
	}

	reloadOnRead := backend != BackendSheet
	if raw := v.GetString("RELOAD_ON_READ"); raw != "" {
		reloadOnRead = v.GetBool("RELOAD_ON_READ")
	}

	loc, err := time.LoadLocation(v.GetString("TIME_ZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE: %w", err)
	}

	cfg := &Config{
		Environment:  v.GetString("ENVIRONMENT"),
		ServerPort:   port,
		LogLevel:     v.GetString("LOG_LEVEL"),
		StoreBackend: backend,
		DataFile:     v.GetString("DATA_FILE"),
		SeedFile:     v.GetString("SEED_FILE"),
		SheetURL:     v.GetString("SHEET_URL"),
		RemoteURL:    v.GetString("REMOTE_URL"),
		RedisURL:     v.GetString("REDIS_URL"),
		RedisKey:     v.GetString("REDIS_KEY"),
		Postgres: Postgres{
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     pgPort,
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			Database: v.GetString("POSTGRES_DB"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		},
		RefreshInterval:    refresh,
		ReloadOnRead:       reloadOnRead,
		HTTPTimeout:        httpTimeout,
		Location:           loc,
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		StaticDir:          v.GetString("STATIC_DIR"),
		WriteRateLimit:     writeLimit,
		ViewCacheTTL:       cacheTTL,
	}

	if cfg.StoreBackend == BackendSheet && cfg.SheetURL == "" {
		return nil, fmt.Errorf("SHEET_URL is required for the sheet backend")
	}
	return cfg, nil
}

func parseInt(v *viper.Viper, key string) (int, error) {
	var n int
	if _, err := fmt.Sscan(v.GetString(key), &n); err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
