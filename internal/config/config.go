// Package config loads client settings from a TOML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofrs/uuid/v5"
	"github.com/joho/godotenv"
)

const appDir = "garment"

// Config holds everything the CLI needs to reach the store and resolve the owner.
type Config struct {
	DatabaseURL string        `toml:"database_url"`
	SessionPath string        `toml:"session_path"`           // persisted session (access token)
	JWTSecret   string        `toml:"jwt_secret,omitempty"`   // verifies the session token when set
	OwnerID     string        `toml:"owner_id,omitempty"`     // fixed owner; wins over the session
	LogLevel    string        `toml:"log_level"`              // debug, info, warn, error
	Development bool          `toml:"development"`            // human-readable logs
	Timeout     time.Duration `toml:"timeout"`                // per-command deadline
	AutoMigrate bool          `toml:"auto_migrate,omitempty"` // run migrations before each command
}

// Dir returns the per-user config directory.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appDir)
}

// DefaultPath is the config file location used when none is given.
func DefaultPath() string { return filepath.Join(Dir(), "config.toml") }

// Default returns a Config with every optional field filled.
func Default() *Config {
	return &Config{
		SessionPath: filepath.Join(Dir(), "session.json"),
		LogLevel:    "info",
		Timeout:     30 * time.Second,
	}
}

// Read decodes TOML from r on top of the defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Load builds the effective config: defaults, then the TOML file at path
// (a missing file is fine), then .env files, then GARMENT_* variables.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if cfg, err = Read(f); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}

	if err := loadDotenv(envFiles...); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes cfg to path, refusing to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()
	return Write(f, cfg)
}

func loadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, p := range files {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		// existing environment wins over the file
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	setStr := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setStr(&c.DatabaseURL, "GARMENT_DATABASE_URL", "DATABASE_URL")
	setStr(&c.SessionPath, "GARMENT_SESSION")
	setStr(&c.JWTSecret, "GARMENT_JWT_SECRET")
	setStr(&c.OwnerID, "GARMENT_OWNER_ID")
	setStr(&c.LogLevel, "GARMENT_LOG_LEVEL")

	if v := os.Getenv("GARMENT_DEV"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GARMENT_DEV: %w", err)
		}
		c.Development = b
	}
	if v := os.Getenv("GARMENT_AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GARMENT_AUTO_MIGRATE: %w", err)
		}
		c.AutoMigrate = b
	}
	if v := os.Getenv("GARMENT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GARMENT_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks the fields needed to talk to the store.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.OwnerID, validation.By(isUUID)),
		validation.Field(&c.SessionPath, validation.When(c.OwnerID == "", validation.Required)),
	)
}

func isUUID(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.FromString(s); err != nil {
		return errors.New("must be a UUID")
	}
	return nil
}
