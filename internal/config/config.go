package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds file- and environment-driven configuration.
// Environment variables override values from the YAML file.
type Config struct {
	Gateway struct {
		BaseURL string        `yaml:"base_url"` // default: http://localhost:8080/api
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"gateway"`
	Session struct {
		Path     string `yaml:"path"`      // sqlite file, default: ~/.tracker/session.db
		MySQLDSN string `yaml:"mysql_dsn"` // when set, sessions live in MySQL instead
	} `yaml:"session"`
	View struct {
		PageSize int `yaml:"page_size"`
	} `yaml:"view"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	var cfg Config
	cfg.Gateway.BaseURL = "http://localhost:8080/api"
	cfg.Gateway.Timeout = 30 * time.Second
	if dir, err := Dir(); err == nil {
		cfg.Session.Path = filepath.Join(dir, "session.db")
	}
	cfg.View.PageSize = 100
	return cfg
}

// Dir is the per-user state directory (~/.tracker).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tracker"), nil
}

// Load reads the YAML file named by TRACKER_CONFIG (or ~/.tracker/config.yaml
// when present) and then applies environment overrides.
func Load() (Config, error) {
	path := os.Getenv("TRACKER_CONFIG")
	explicit := path != ""
	if !explicit {
		if dir, err := Dir(); err == nil {
			path = filepath.Join(dir, "config.yaml")
		}
	}
	return load(path, explicit, os.Getenv)
}

func load(path string, mustExist bool, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !mustExist:
		default:
			return cfg, err
		}
	}

	if v := getenv("TRACKER_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := getenv("TRACKER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, errors.New("TRACKER_TIMEOUT must be a duration like 30s")
		}
		cfg.Gateway.Timeout = d
	}
	if v := getenv("TRACKER_SESSION_DB"); v != "" {
		cfg.Session.Path = v
	}
	if v := getenv("TRACKER_MYSQL_DSN"); v != "" {
		cfg.Session.MySQLDSN = v
	}
	if v := getenv("TRACKER_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.New("TRACKER_PAGE_SIZE must be an integer")
		}
		cfg.View.PageSize = n
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Gateway.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("gateway base URL must be an absolute http(s) URL, got %q", c.Gateway.BaseURL)
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive, got %s", c.Gateway.Timeout)
	}
	if c.View.PageSize <= 0 {
		return fmt.Errorf("page size must be > 0, got %d", c.View.PageSize)
	}
	if c.Session.Path == "" && c.Session.MySQLDSN == "" {
		return errors.New("either a session path or a MySQL DSN is required")
	}
	return nil
}
