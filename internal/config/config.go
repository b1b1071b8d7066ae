package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures all runtime configuration derived from environment variables
// and, optionally, a YAML file named by CINELOG_CONFIG.
type Config struct {
	Port               string   `yaml:"port"`
	LogLevel           string   `yaml:"log_level"`
	BackendURL         string   `yaml:"backend_url"`
	BackendTimeoutSecs int      `yaml:"backend_timeout_secs"`
	PosterBaseURL      string   `yaml:"poster_base_url"`
	SessionCookieName  string   `yaml:"session_cookie_name"`
	SessionTTLHours    int      `yaml:"session_ttl_hours"`
	CookieSecure       bool     `yaml:"cookie_secure"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	DBURL              string   `yaml:"db_url"`
	ReadTimeoutSecs    int      `yaml:"read_timeout_secs"`
	WriteTimeoutSecs   int      `yaml:"write_timeout_secs"`
	IdleTimeoutSecs    int      `yaml:"idle_timeout_secs"`
	DBMaxConns         int      `yaml:"db_max_conns"`
	DBMinConns         int      `yaml:"db_min_conns"`
	DBMaxIdleSecs      int      `yaml:"db_max_conn_idle_secs"`
	DBMaxLifeSecs      int      `yaml:"db_max_conn_lifetime_secs"`
	DBConnTimeoutSecs  int      `yaml:"db_conn_timeout_secs"`
	DBStatementCache   int      `yaml:"db_statement_cache_capacity"`
}

// Defaults returns the configuration used when nothing overrides a field.
func Defaults() Config {
	return Config{
		Port:               "8080",
		LogLevel:           "info",
		BackendTimeoutSecs: 5,
		PosterBaseURL:      "https://image.tmdb.org/t/p/w500",
		SessionCookieName:  "lb_session",
		SessionTTLHours:    24 * 30,
		CORSAllowedOrigins: []string{"*"},
		ReadTimeoutSecs:    15,
		WriteTimeoutSecs:   15,
		IdleTimeoutSecs:    60,
		DBMaxConns:         10,
		DBMinConns:         1,
		DBMaxIdleSecs:      300,
		DBMaxLifeSecs:      3600,
		DBConnTimeoutSecs:  10,
		DBStatementCache:   128,
	}
}

// Load reads configuration from the optional YAML file and environment
// variables, applying defaults and validation. Environment wins over the file.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CINELOG_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.BackendURL = getEnv("BACKEND_URL", cfg.BackendURL)
	cfg.BackendTimeoutSecs = getEnvInt("BACKEND_TIMEOUT_SECS", cfg.BackendTimeoutSecs)
	cfg.PosterBaseURL = getEnv("POSTER_BASE_URL", cfg.PosterBaseURL)
	cfg.SessionCookieName = getEnv("SESSION_COOKIE_NAME", cfg.SessionCookieName)
	cfg.SessionTTLHours = getEnvInt("SESSION_TTL_HOURS", cfg.SessionTTLHours)
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", cfg.CookieSecure)
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
	cfg.DBURL = getEnv("DB_URL", cfg.DBURL)
	cfg.ReadTimeoutSecs = getEnvInt("SERVER_READ_TIMEOUT", cfg.ReadTimeoutSecs)
	cfg.WriteTimeoutSecs = getEnvInt("SERVER_WRITE_TIMEOUT", cfg.WriteTimeoutSecs)
	cfg.IdleTimeoutSecs = getEnvInt("SERVER_IDLE_TIMEOUT", cfg.IdleTimeoutSecs)
	cfg.DBMaxConns = getEnvInt("DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.DBMinConns = getEnvInt("DB_MIN_CONNS", cfg.DBMinConns)
	cfg.DBMaxIdleSecs = getEnvInt("DB_MAX_CONN_IDLE_SECS", cfg.DBMaxIdleSecs)
	cfg.DBMaxLifeSecs = getEnvInt("DB_MAX_CONN_LIFETIME_SECS", cfg.DBMaxLifeSecs)
	cfg.DBConnTimeoutSecs = getEnvInt("DB_CONN_TIMEOUT_SECS", cfg.DBConnTimeoutSecs)
	cfg.DBStatementCache = getEnvInt("DB_STATEMENT_CACHE_CAPACITY", cfg.DBStatementCache)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.BackendTimeoutSecs <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT_SECS must be positive")
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME cannot be blank")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(payload, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
