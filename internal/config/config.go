package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ClientsPathEnvVar names an extra client-definition path (file or
// directory) loaded between the built-in and user directories.
const ClientsPathEnvVar = "AGENTLINK_CLIENTS_PATH"

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Clients ClientsConfig `koanf:"clients"`
	Prompts PromptsConfig `koanf:"prompts"`
	Tracing TracingConfig `koanf:"tracing"`
	Logging LoggingConfig `koanf:"logging"`
}

type ServerConfig struct {
	Port      int    `koanf:"port"`
	AuthToken string `koanf:"auth_token"`
}

// ClientsConfig controls where CLI client definitions are discovered and
// the execution defaults applied when a definition omits them.
type ClientsConfig struct {
	BuiltinDir     string `koanf:"builtin_dir"`
	UserDir        string `koanf:"user_dir"`
	DefaultTimeout int    `koanf:"default_timeout"`
	MaxTimeout     int    `koanf:"max_timeout"`
}

type PromptsConfig struct {
	BaseDir  string        `koanf:"base_dir"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type TracingConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"`
	SamplingRate float64 `koanf:"sampling_rate"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Clients: ClientsConfig{
			BuiltinDir:     "conf/clients",
			UserDir:        "~/.agentlink/clients",
			DefaultTimeout: 300,
			MaxTimeout:     1800,
		},
		Prompts: PromptsConfig{
			BaseDir:  "conf/prompts",
			CacheTTL: 5 * time.Minute,
		},
		Tracing: TracingConfig{
			SamplingRate: 0.1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from YAML file + environment variables.
// Loading order: defaults → YAML file → env vars (later overrides earlier).
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	cfg := Defaults()

	// Load YAML file (optional, may not exist)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			// Only fail if the file was explicitly specified and can't be read
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	} else {
		// Try default path, ignore if not found
		_ = k.Load(file.Provider("agentlink.yaml"), yaml.Parser())
	}

	// Load environment variables.
	// AGENTLINK_SERVER__AUTH_TOKEN → server.auth_token
	// Double underscore (__) separates nesting levels.
	// Single underscore within a level is preserved (e.g., auth_token).
	err := k.Load(env.Provider("AGENTLINK_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "AGENTLINK_")
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "__", ".")
		return s
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Clients.BuiltinDir = ExpandHome(cfg.Clients.BuiltinDir)
	cfg.Clients.UserDir = ExpandHome(cfg.Clients.UserDir)
	cfg.Prompts.BaseDir = ExpandHome(cfg.Prompts.BaseDir)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Clients.BuiltinDir == "" {
		return fmt.Errorf("config: clients.builtin_dir is required")
	}
	if cfg.Clients.DefaultTimeout <= 0 {
		return fmt.Errorf("config: clients.default_timeout must be positive")
	}
	if cfg.Clients.MaxTimeout < cfg.Clients.DefaultTimeout {
		return fmt.Errorf("config: clients.max_timeout must be >= clients.default_timeout")
	}
	return nil
}

// ExpandHome resolves a leading ~/ against the current user's home
// directory. Paths without the prefix are returned unchanged.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
