package config

import (
	"errors"
	"fmt"
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

// Config is the process configuration, read from the environment.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Scoring   ScoringConfig
	Dashboard DashboardConfig
	Reports   ReportsConfig
	Realtime  RealtimeConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectAttempts int
}

// RedisConfig addresses the cache. URL, when set, wins over the discrete fields.
type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScoringConfig holds the grading policy knobs shared by cycles, events and sessions.
type ScoringConfig struct {
	Precision           int
	DefaultMinPassing   float64
	PenaltyRate         float64
	SessionPassingScore float64
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ReportsConfig configures asynchronous report generation.
type ReportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// RealtimeConfig toggles the live session websocket feed.
type RealtimeConfig struct {
	LiveSessionsEnabled bool
}

const (
	devJWTSecret     = "dev_secret"
	devReportsSecret = "dev_reports_secret"
)

// defaults doubles as the list of recognised keys. Duration entries are also
// the fallback when an override does not parse.
var defaults = map[string]interface{}{
	"ENV":        EnvDevelopment,
	"PORT":       8080,
	"API_PREFIX": "/api",

	"DB_HOST":              "localhost",
	"DB_PORT":              5432,
	"DB_USER":              "postgres",
	"DB_PASSWORD":          "postgres",
	"DB_NAME":              "grid_training",
	"DB_SSL_MODE":          "disable",
	"DB_MAX_OPEN_CONNS":    10,
	"DB_MAX_IDLE_CONNS":    5,
	"DB_CONN_MAX_LIFETIME": "1h",
	"DB_CONNECT_ATTEMPTS":  5,

	"REDIS_URL":      "",
	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     6379,
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"JWT_SECRET":               devJWTSecret,
	"JWT_ISSUER":               "grid-training-eval",
	"JWT_EXPIRATION":           "1h",
	"REFRESH_TOKEN_EXPIRATION": "168h",

	"ALLOWED_ORIGINS": "",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "json",

	"SCORING_PRECISION":           2,
	"SCORING_DEFAULT_MIN_PASSING": 70,
	"SCORING_PENALTY_RATE":        0.30,
	"SCORING_SESSION_PASSING":     70,

	"ENABLE_DASHBOARD_CACHE": true,
	"DASHBOARD_CACHE_TTL":    "5m",

	"ENABLE_REPORTS":             true,
	"REPORTS_STORAGE_DIR":        "./exports",
	"REPORTS_SIGNED_URL_SECRET":  devReportsSecret,
	"REPORTS_SIGNED_URL_TTL":     "24h",
	"REPORTS_CLEANUP_INTERVAL":   "1h",
	"REPORTS_WORKER_CONCURRENCY": 1,
	"REPORTS_WORKER_RETRIES":     3,

	"ENABLE_LIVE_SESSIONS": true,
}

// Load reads the process environment, then an optional .env file in the
// working directory, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	cfg := &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSL_MODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: duration(v, "DB_CONN_MAX_LIFETIME"),
			ConnectAttempts: v.GetInt("DB_CONNECT_ATTEMPTS"),
		},
		Redis: RedisConfig{
			URL:      v.GetString("REDIS_URL"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:            v.GetString("JWT_SECRET"),
			Issuer:            v.GetString("JWT_ISSUER"),
			Expiration:        duration(v, "JWT_EXPIRATION"),
			RefreshExpiration: duration(v, "REFRESH_TOKEN_EXPIRATION"),
		},
		CORS: CORSConfig{AllowedOrigins: list(v.GetString("ALLOWED_ORIGINS"))},
		Log:  LogConfig{Level: v.GetString("LOG_LEVEL"), Format: v.GetString("LOG_FORMAT")},
		Scoring: ScoringConfig{
			Precision:           v.GetInt("SCORING_PRECISION"),
			DefaultMinPassing:   v.GetFloat64("SCORING_DEFAULT_MIN_PASSING"),
			PenaltyRate:         v.GetFloat64("SCORING_PENALTY_RATE"),
			SessionPassingScore: v.GetFloat64("SCORING_SESSION_PASSING"),
		},
		Dashboard: DashboardConfig{
			CacheEnabled: v.GetBool("ENABLE_DASHBOARD_CACHE"),
			CacheTTL:     duration(v, "DASHBOARD_CACHE_TTL"),
		},
		Reports: ReportsConfig{
			Enabled:           v.GetBool("ENABLE_REPORTS"),
			StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
			SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
			SignedURLTTL:      duration(v, "REPORTS_SIGNED_URL_TTL"),
			CleanupInterval:   duration(v, "REPORTS_CLEANUP_INTERVAL"),
			WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
			WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
		},
		Realtime: RealtimeConfig{LiveSessionsEnabled: v.GetBool("ENABLE_LIVE_SESSIONS")},
	}
	if cfg.Scoring.Precision < 0 {
		cfg.Scoring.Precision = defaults["SCORING_PRECISION"].(int)
	}
	if cfg.Reports.WorkerConcurrency < 1 {
		cfg.Reports.WorkerConcurrency = 1
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that are only acceptable on a developer machine.
func (c *Config) Validate() error {
	if c.Env != EnvProduction {
		return nil
	}
	var problems []string
	if c.JWT.Secret == devJWTSecret || len(c.JWT.Secret) < 32 {
		problems = append(problems, "JWT_SECRET must be set to at least 32 characters")
	}
	if c.Reports.Enabled && (c.Reports.SignedURLSecret == devReportsSecret || c.Reports.SignedURLSecret == "") {
		problems = append(problems, "REPORTS_SIGNED_URL_SECRET must be set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid production config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func duration(v *viper.Viper, key string) time.Duration {
	if d, err := time.ParseDuration(v.GetString(key)); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaults[key].(string))
	return d
}

// list splits a comma separated value, dropping blanks.
func list(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
