package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort         = 8000
	DefaultStatePath    = "state.json"
	DefaultDatabasePath = "hourbank.db"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Mirror    MirrorConfig    `yaml:"mirror"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Browser   BrowserConfig   `yaml:"browser"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig selects the persistence backend. Path is used by the file and
// sqlite drivers and URL by the redis and postgres drivers.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

type MirrorConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type BrowserConfig struct {
	Open  bool          `yaml:"open"`
	Delay time.Duration `yaml:"delay"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: DefaultPort,
		},
		Store: StoreConfig{
			Driver: "file",
		},
		Mirror: MirrorConfig{
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Browser: BrowserConfig{
			Open:  true,
			Delay: 500 * time.Millisecond,
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. path takes precedence over HOURBANK_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("HOURBANK_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("HOURBANK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("HOURBANK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HOURBANK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if driver := os.Getenv("HOURBANK_STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
	}
	if storePath := os.Getenv("HOURBANK_STORE_PATH"); storePath != "" {
		cfg.Store.Path = storePath
	}
	if storeURL := os.Getenv("HOURBANK_STORE_URL"); storeURL != "" {
		cfg.Store.URL = storeURL
	}
	if url := os.Getenv("HOURBANK_MIRROR_URL"); url != "" {
		cfg.Mirror.URL = url
	}
	if timeout := os.Getenv("HOURBANK_MIRROR_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HOURBANK_MIRROR_TIMEOUT: %w", err)
		}
		cfg.Mirror.Timeout = d
	}
	if level := os.Getenv("HOURBANK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("HOURBANK_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if mode := os.Getenv("HOURBANK_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyPortArgument overrides the port with a command-line argument. Values
// that are not a valid port are ignored and reported as false.
func (c *Config) ApplyPortArgument(arg string) bool {
	port, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || port <= 0 || port > 65535 {
		return false
	}
	c.Server.Port = port
	return true
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// executableDir returns the directory holding the running binary. Default
// store paths live there so the document stays beside the program no matter
// where it is started from. Falls back to the working directory.
var executableDir = func() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func (c *Config) normalize() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "", "file":
		c.Store.Driver = "file"
		if c.Store.Path == "" {
			c.Store.Path = filepath.Join(executableDir(), DefaultStatePath)
		}
	case "sqlite":
		if c.Store.Path == "" {
			c.Store.Path = filepath.Join(executableDir(), DefaultDatabasePath)
		}
	case "redis", "postgres":
		if c.Store.URL == "" {
			return fmt.Errorf("store driver %s requires store.url", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Transport.Mode {
	case "", "http":
		c.Transport.Mode = "http"
	case "stdio":
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}

	if c.Mirror.Timeout <= 0 {
		c.Mirror.Timeout = 5 * time.Second
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
