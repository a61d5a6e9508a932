// Package config loads server configuration from the environment and an
// optional per-project .kuzumem/config.yaml, with flags > env > file >
// defaults precedence handled by the caller's flag binding.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Defaults for the HTTP transport.
const (
	DefaultHTTPPort = 8001
	DefaultHost     = "localhost"
)

// Config is the resolved server configuration.
type Config struct {
	// ClientProjectRoot is the default project root when tool calls omit one.
	ClientProjectRoot string `mapstructure:"client_project_root"`
	// DBPathOverride forces every handle to one absolute database path.
	// Breaks multi-project isolation; test harnesses only.
	DBPathOverride string `mapstructure:"db_path_override"`
	Host           string `mapstructure:"host"`
	HTTPPort       int    `mapstructure:"http_port"`
	// DebugLevel maps 0-3 onto slog levels (warn, info, debug, debug+source).
	DebugLevel int `mapstructure:"debug_level"`
	// LogFile receives logs in HTTP mode; empty means stderr only.
	LogFile string `mapstructure:"log_file"`
}

// Load resolves configuration: defaults, then .kuzumem/config.yaml found by
// walking up from cwd, then environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("host", DefaultHost)
	v.SetDefault("http_port", DefaultHTTPPort)
	v.SetDefault("debug_level", 1)

	if path := findConfigFile(); path != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	bindEnv(v, "client_project_root", "CLIENT_PROJECT_ROOT")
	bindEnv(v, "db_path_override", "DB_PATH_OVERRIDE")
	bindEnv(v, "host", "HOST")
	bindEnv(v, "http_port", "HTTP_STREAM_PORT")
	bindEnv(v, "debug_level", "DEBUG_LEVEL")
	bindEnv(v, "log_file", "KUZUMEM_LOG_FILE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DebugLevel < 0 || cfg.DebugLevel > 3 {
		return nil, fmt.Errorf("DEBUG_LEVEL must be 0-3, got %d", cfg.DebugLevel)
	}
	if cfg.DBPathOverride != "" && !filepath.IsAbs(cfg.DBPathOverride) {
		return nil, fmt.Errorf("DB_PATH_OVERRIDE must be absolute, got %q", cfg.DBPathOverride)
	}
	return &cfg, nil
}

// findConfigFile walks up from the working directory looking for
// .kuzumem/config.yaml.
func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".kuzumem", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func bindEnv(v *viper.Viper, key, env string) {
	if val := os.Getenv(env); val != "" {
		v.Set(key, val)
	}
}
