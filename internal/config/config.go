package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port               string        `envconfig:"PORT" default:"5000"`
	DBURL              string        `envconfig:"DB_URL"`
	JWTSecret          string        `envconfig:"JWT_SECRET"`
	JWTTTL             time.Duration `envconfig:"JWT_TTL" default:"24h"`
	ClientURL          string        `envconfig:"CLIENT_URL" default:"http://localhost:5173"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat          string        `envconfig:"LOG_FORMAT" default:"json"`
	ReadTimeoutSecs    int           `envconfig:"SERVER_READ_TIMEOUT" default:"15"`
	WriteTimeoutSecs   int           `envconfig:"SERVER_WRITE_TIMEOUT" default:"15"`
	IdleTimeoutSecs    int           `envconfig:"SERVER_IDLE_TIMEOUT" default:"60"`
	DBMaxConns         int           `envconfig:"DB_MAX_CONNS" default:"20"`
	DBMinConns         int           `envconfig:"DB_MIN_CONNS" default:"2"`
	DBMaxIdleSecs      int           `envconfig:"DB_MAX_CONN_IDLE_SECS" default:"300"`
	DBMaxLifeSecs      int           `envconfig:"DB_MAX_CONN_LIFETIME_SECS" default:"3600"`
	DBConnTimeoutSecs  int           `envconfig:"DB_CONN_TIMEOUT_SECS" default:"10"`
	DBStatementCache   int           `envconfig:"DB_STATEMENT_CACHE_CAPACITY" default:"256"`
	DBAutoMigrate      bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	AuthRateLimitRPS   float64       `envconfig:"AUTH_RATE_LIMIT_RPS" default:"5"`
	AuthRateLimitBurst int           `envconfig:"AUTH_RATE_LIMIT_BURST" default:"10"`
	TrustProxyHeaders  bool          `envconfig:"TRUST_PROXY_HEADERS" default:"false"`
	BcryptCost         int           `envconfig:"BCRYPT_COST" default:"10"`
	AdminName          string        `envconfig:"ADMIN_NAME" default:"System Administrator Account"`
	AdminEmail         string        `envconfig:"ADMIN_EMAIL"`
	AdminPassword      string        `envconfig:"ADMIN_PASSWORD"`
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTTTL <= 0 {
		return Config{}, fmt.Errorf("JWT_TTL must be positive")
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or text")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.AuthRateLimitRPS < 0 || cfg.AuthRateLimitBurst < 0 {
		return Config{}, fmt.Errorf("AUTH_RATE_LIMIT_RPS and AUTH_RATE_LIMIT_BURST must be non-negative")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return Config{}, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

// SeedAdmin reports whether an admin account should be seeded at startup.
func (c Config) SeedAdmin() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}
