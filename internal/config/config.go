package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names an optional YAML file layered between defaults and the environment.
const PathEnvVar = "CONFIG_PATH"

// Config captures all runtime configuration derived from defaults, an optional
// config file and environment variables (highest priority).
type Config struct {
	Port                string `koanf:"port"`
	LogLevel            string `koanf:"log_level"`
	DBURL               string `koanf:"db_url"`
	AuthURL             string `koanf:"auth_url"`
	AuthAPIKey          string `koanf:"auth_api_key"`
	AuthJWTSecret       string `koanf:"auth_jwt_secret"`
	AuthJWTAudience     string `koanf:"auth_jwt_audience"`
	AuthTimeoutSecs     int    `koanf:"auth_timeout_secs"`
	CORSOrigins         string `koanf:"cors_allowed_origins"`
	RateLimitRequests   int    `koanf:"rate_limit_requests"`
	RateLimitWindowSecs int    `koanf:"rate_limit_window_secs"`
	NATSURL             string `koanf:"nats_url"`
	ReadTimeoutSecs     int    `koanf:"server_read_timeout"`
	WriteTimeoutSecs    int    `koanf:"server_write_timeout"`
	IdleTimeoutSecs     int    `koanf:"server_idle_timeout"`
	DBMaxConns          int    `koanf:"db_max_conns"`
	DBMinConns          int    `koanf:"db_min_conns"`
	DBMaxIdleSecs       int    `koanf:"db_max_conn_idle_secs"`
	DBMaxLifeSecs       int    `koanf:"db_max_conn_lifetime_secs"`
	DBConnTimeoutSecs   int    `koanf:"db_conn_timeout_secs"`
	DBStatementCache    int    `koanf:"db_statement_cache_capacity"`
}

func defaults() *Config {
	return &Config{
		Port:                "8080",
		LogLevel:            "info",
		AuthJWTAudience:     "authenticated",
		AuthTimeoutSecs:     5,
		CORSOrigins:         "*",
		RateLimitRequests:   0,
		RateLimitWindowSecs: 60,
		ReadTimeoutSecs:     15,
		WriteTimeoutSecs:    15,
		IdleTimeoutSecs:     60,
		DBMaxConns:          20,
		DBMinConns:          2,
		DBMaxIdleSecs:       300,
		DBMaxLifeSecs:       3600,
		DBConnTimeoutSecs:   10,
		DBStatementCache:    256,
	}
}

// Load reads configuration from defaults, CONFIG_PATH and environment
// variables, then validates the result.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := strings.TrimSpace(os.Getenv(PathEnvVar)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Empty variables are treated as unset so defaults survive.
	if err := k.Load(env.ProviderWithValue("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(key, value string) (string, interface{}) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return strings.ToLower(key), strings.TrimSpace(value)
}

func (cfg Config) validate() error {
	if cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if cfg.AuthURL == "" {
		return fmt.Errorf("AUTH_URL is required")
	}
	if cfg.AuthAPIKey == "" {
		return fmt.Errorf("AUTH_API_KEY is required")
	}
	if cfg.AuthTimeoutSecs <= 0 {
		return fmt.Errorf("AUTH_TIMEOUT_SECS must be positive")
	}
	if cfg.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be non-negative")
	}
	if cfg.RateLimitRequests > 0 && cfg.RateLimitWindowSecs <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECS must be positive when rate limiting is enabled")
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if len(cfg.AllowedOrigins()) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}
	return nil
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (cfg Config) AllowedOrigins() []string {
	parts := strings.Split(cfg.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
