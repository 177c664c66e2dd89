// Package config loads runtime settings from the environment, an optional
// .env file and an optional YAML file of per-mode overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ayusman/drivethru/internal/game"
	"github.com/ayusman/drivethru/internal/gesture"
)

// Score backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds every setting the drivethru command reads.
type Config struct {
	Addr         string        `env:"DRIVETHRU_ADDR" envDefault:":8080"`
	Mode         game.Mode     `env:"DRIVETHRU_MODE" envDefault:"default"`
	Player       string        `env:"DRIVETHRU_PLAYER" envDefault:"player"`
	Camera       int           `env:"DRIVETHRU_CAMERA" envDefault:"0"`
	DBPath       string        `env:"DRIVETHRU_DB"`
	PluginDir    string        `env:"DRIVETHRU_PLUGINS" envDefault:"plugins"`
	ModesFile    string        `env:"DRIVETHRU_MODES_FILE"`
	FingerPolicy string        `env:"DRIVETHRU_FINGER_POLICY" envDefault:"proximal"`
	FrameBudget  time.Duration `env:"DRIVETHRU_FRAME_BUDGET" envDefault:"30ms"`
	Tray         bool          `env:"DRIVETHRU_TRAY" envDefault:"true"`
	CORSOrigins  []string      `env:"DRIVETHRU_CORS_ORIGINS" envSeparator:","`
	ScoreBackend string        `env:"SCORE_BACKEND" envDefault:"sqlite"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`

	Redis Redis

	// Overrides is set when ModesFile names a file.
	Overrides *Overrides
}

// Redis holds the Redis score backend settings.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads the given .env files, or .env in the working directory when
// none are given, then parses the environment. Missing .env files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBPath == "" {
		path, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.ModesFile != "" {
		o, err := LoadOverrides(cfg.ModesFile)
		if err != nil {
			return nil, err
		}
		cfg.Overrides = o
	}

	return &cfg, nil
}

// Validate checks settings that cannot be expressed as env defaults.
func (c *Config) Validate() error {
	if c.Player == "" {
		return errors.New("DRIVETHRU_PLAYER must not be empty")
	}
	if c.Camera < 0 {
		return fmt.Errorf("DRIVETHRU_CAMERA must not be negative, got %d", c.Camera)
	}
	if c.FrameBudget <= 0 {
		return fmt.Errorf("DRIVETHRU_FRAME_BUDGET must be positive, got %s", c.FrameBudget)
	}
	if _, err := gesture.ParsePolicy(c.FingerPolicy); err != nil {
		return fmt.Errorf("DRIVETHRU_FINGER_POLICY: %w", err)
	}
	switch c.ScoreBackend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("SCORE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendRedis, c.ScoreBackend)
	}
	return nil
}

// Extractor returns the configured finger policy.
func (c *Config) Extractor() gesture.Extractor {
	ex, err := gesture.ParsePolicy(c.FingerPolicy)
	if err != nil {
		return gesture.ProximalPolicy{}
	}
	return ex
}

// DefaultDBPath returns ~/.drivethru/drivethru.db, creating the directory.
func DefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dbDir := filepath.Join(homeDir, ".drivethru")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return filepath.Join(dbDir, "drivethru.db"), nil
}
