// Package config loads the server configuration.
//
// LAYERING:
// Values are applied in this order, each layer overriding the one before:
//
//  1. DefaultConfig()
//  2. an optional YAML file (--config flag or CONFIG_FILE)
//  3. environment variables, after a .env file has been loaded into the process
//  4. explicit command-line flags (applied by cmd/server)
//
// A missing YAML file or .env file is not an error; a malformed one is.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	Port        int          `yaml:"port"`
	CORSOrigins []string     `yaml:"cors_origins"`
	AdminEmails []string     `yaml:"admin_emails"`
	Database    DatabaseConf `yaml:"database"`
	Auth        AuthConf     `yaml:"auth"`
	Cache       CacheConf    `yaml:"cache"`
	Storage     StorageConf  `yaml:"storage"`
	Log         LogConf      `yaml:"log"`
}

type DatabaseConf struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	DSN    string `yaml:"dsn"`
}

type AuthConf struct {
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

// CacheConf configures the identity cache. With RedisAddr empty an
// in-process LRU of Size entries is used.
type CacheConf struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
	Size      int           `yaml:"size"`
}

// StorageConf configures the Supabase bucket that holds uploaded documents.
// Storage is disabled when URL is empty.
type StorageConf struct {
	URL    string `yaml:"url"`
	Key    string `yaml:"key"`
	Bucket string `yaml:"bucket"`
}

type LogConf struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// DefaultConfig returns a configuration that runs locally against a SQLite
// file with no external services.
func DefaultConfig() *Config {
	return &Config{
		Port:        8080,
		CORSOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		Database: DatabaseConf{
			Driver: "sqlite",
			DSN:    "data/tenxdev.db",
		},
		Cache: CacheConf{
			TTL:  5 * time.Minute,
			Size: 1024,
		},
		Storage: StorageConf{
			Bucket: "documents",
		},
		Log: LogConf{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (if any), and
// the environment. envFiles are loaded with godotenv first; variables
// already set in the process win over the files.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// applyEnvOverrides copies every set environment variable onto c.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		c.AdminEmails = splitList(v)
	}

	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	// DATABASE_URL is what most hosts inject; DB_DSN takes precedence.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
		if os.Getenv("DB_DRIVER") == "" && isPostgresURL(v) {
			c.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		c.Auth.JWTIssuer = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		c.Cache.TTL = ttl
	}
	if v := os.Getenv("CACHE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_SIZE %q: %w", v, err)
		}
		c.Cache.Size = size
	}

	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.Storage.URL = v
	}
	if v := os.Getenv("SUPABASE_KEY"); v != "" {
		c.Storage.Key = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return nil
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("invalid database driver: %q (valid: sqlite, postgres)", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database DSN not configured (set DB_DSN or DATABASE_URL)"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT secret not configured (set JWT_SECRET)"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache TTL must be positive, got %s", c.Cache.TTL))
	}
	if c.Cache.RedisAddr == "" && c.Cache.Size < 1 {
		errs = append(errs, fmt.Errorf("cache size must be at least 1, got %d", c.Cache.Size))
	}
	if c.Storage.URL != "" && (c.Storage.Key == "" || c.Storage.Bucket == "") {
		errs = append(errs, errors.New("storage needs SUPABASE_KEY and STORAGE_BUCKET when SUPABASE_URL is set"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format: %q (valid: text, json)", c.Log.Format))
	}
	return errors.Join(errs...)
}

// StorageEnabled reports whether document uploads can be resolved.
func (c *Config) StorageEnabled() bool {
	return c.Storage.URL != ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
