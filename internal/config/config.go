package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/damoang/angple-blog/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	CORS      CORSConfig      `yaml:"cors"`
	Redirects RedirectsConfig `yaml:"redirects"`
	Revisions RevisionsConfig `yaml:"revisions"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // development, production
	Env  string `yaml:"-"`
}

// DatabaseConfig MySQL connection settings
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// RedisConfig Redis connection settings
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// JWTConfig token settings
type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // minutes
	RefreshIn int    `yaml:"refresh_in"` // minutes
}

// CORSConfig allowed origins (comma separated)
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

// RedirectsConfig request-time redirect serving
type RedirectsConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxHops          int           `yaml:"max_hops"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	HitFlushInterval time.Duration `yaml:"hit_flush_interval"`
	LockTTL          time.Duration `yaml:"lock_ttl"`
}

// RateLimitConfig requests per minute; 0 disables the limiter
type RateLimitConfig struct {
	PublicPerMinute int `yaml:"public_per_minute"`
	AdminPerMinute  int `yaml:"admin_per_minute"`
}

// RevisionsConfig revision engine settings
type RevisionsConfig struct {
	MaxPerEntity          int  `yaml:"max_per_entity"` // 0 = unlimited
	SnapshotBeforeRestore bool `yaml:"snapshot_before_restore"`
	ConflictRetries       int  `yaml:"conflict_retries"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8082, Mode: "development"},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            3306,
			User:            "root",
			DBName:          "angple_blog",
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: 300,
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379, PoolSize: 10},
		JWT:   JWTConfig{ExpiresIn: 15, RefreshIn: 10080},
		CORS:  CORSConfig{AllowOrigins: "http://localhost:3000"},
		Redirects: RedirectsConfig{
			Enabled:          true,
			MaxHops:          10,
			CacheTTL:         10 * time.Minute,
			HitFlushInterval: 10 * time.Second,
			LockTTL:          5 * time.Second,
		},
		Revisions: RevisionsConfig{
			MaxPerEntity:          50,
			SnapshotBeforeRestore: true,
			ConflictRetries:       3,
		},
		RateLimit: RateLimitConfig{PublicPerMinute: 120, AdminPerMinute: 60},
	}
}

// Load reads the YAML file at path on top of Default and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("config file %s not found, using defaults", path)
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Env = os.Getenv("APP_ENV")
	overrideInt(&cfg.Server.Port, "PORT")
	overrideString(&cfg.Server.Mode, "SERVER_MODE")

	overrideString(&cfg.Database.Host, "DB_HOST")
	overrideInt(&cfg.Database.Port, "DB_PORT")
	overrideString(&cfg.Database.User, "DB_USER")
	overrideString(&cfg.Database.Password, "DB_PASSWORD")
	overrideString(&cfg.Database.DBName, "DB_NAME")

	overrideString(&cfg.Redis.Host, "REDIS_HOST")
	overrideInt(&cfg.Redis.Port, "REDIS_PORT")
	overrideString(&cfg.Redis.Password, "REDIS_PASSWORD")
	overrideInt(&cfg.Redis.DB, "REDIS_DB")

	overrideString(&cfg.JWT.Secret, "JWT_SECRET")
	overrideString(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")

	overrideBool(&cfg.Redirects.Enabled, "REDIRECTS_ENABLED")
	overrideInt(&cfg.Revisions.MaxPerEntity, "REVISIONS_MAX_PER_ENTITY")
	overrideBool(&cfg.Revisions.SnapshotBeforeRestore, "REVISIONS_SNAPSHOT_BEFORE_RESTORE")

	overrideInt(&cfg.RateLimit.PublicPerMinute, "RATE_LIMIT_PUBLIC_PER_MINUTE")
	overrideInt(&cfg.RateLimit.AdminPerMinute, "RATE_LIMIT_ADMIN_PER_MINUTE")
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		} else {
			logger.Warn("ignoring %s=%q: %v", key, v, err)
		}
	}
}

func overrideBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		} else {
			logger.Warn("ignoring %s=%q: %v", key, v, err)
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Redirects.MaxHops < 1 {
		return fmt.Errorf("redirects.max_hops must be at least 1, got %d", c.Redirects.MaxHops)
	}
	if c.Revisions.ConflictRetries < 1 {
		return fmt.Errorf("revisions.conflict_retries must be at least 1, got %d", c.Revisions.ConflictRetries)
	}
	if c.Revisions.MaxPerEntity < 0 {
		return fmt.Errorf("revisions.max_per_entity cannot be negative")
	}
	if c.RateLimit.PublicPerMinute < 0 || c.RateLimit.AdminPerMinute < 0 {
		return fmt.Errorf("rate_limit values cannot be negative")
	}
	if !c.IsDevelopment() && c.JWT.Secret == "" {
		return errors.New("jwt.secret is required outside development")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Mode == "development" || c.Server.Env == "local" || c.Server.Env == "development"
}

// GetDSN builds the MySQL DSN
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// LogResolved prints the effective configuration with secrets masked
func LogResolved(cfg *Config) {
	logger.GetLogger().Info().
		Int("port", cfg.Server.Port).
		Str("mode", cfg.Server.Mode).
		Str("db", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)).
		Str("db_password", mask(cfg.Database.Password)).
		Str("redis", fmt.Sprintf("%s:%d/%d", cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.DB)).
		Str("jwt_secret", mask(cfg.JWT.Secret)).
		Bool("redirects_enabled", cfg.Redirects.Enabled).
		Int("redirects_max_hops", cfg.Redirects.MaxHops).
		Int("revisions_max_per_entity", cfg.Revisions.MaxPerEntity).
		Bool("revisions_snapshot_before_restore", cfg.Revisions.SnapshotBeforeRestore).
		Msg("resolved config")
}

func mask(secret string) string {
	if secret == "" {
		return "(empty)"
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
