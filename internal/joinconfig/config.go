// Package joinconfig loads and live-reloads configuration for
// cmd/joind: listen address, default definition name, schema file path,
// and log level.
package joinconfig

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds every setting joind accepts from flags, env vars,
// or a config file.
type Config struct {
	Addr         string `mapstructure:"addr"`
	DefaultDef   string `mapstructure:"default_def"`
	SchemaFile   string `mapstructure:"schema_file"`
	LogLevel     string `mapstructure:"log_level"`
	PoolSize     int    `mapstructure:"pool_size"`
	WebhookURL   string `mapstructure:"webhook_url"`
}

// Defaults returns the zero-config baseline.
func Defaults() Config {
	return Config{
		Addr:       ":8080",
		DefaultDef: "default",
		LogLevel:   "info",
		PoolSize:   0, // 0 means an unbounded GoExecutor
	}
}

// Load builds a viper instance seeded with defaults, then layers in an
// optional config file (TOML or YAML, detected by extension) and
// JOINCORE_-prefixed environment variables. The returned *viper.Viper
// can be handed to Watch for live reload.
func Load(configPath string) (Config, *viper.Viper, error) {
	v := viper.New()

	defaults := Defaults()
	v.SetDefault("addr", defaults.Addr)
	v.SetDefault("default_def", defaults.DefaultDef)
	v.SetDefault("schema_file", defaults.SchemaFile)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("pool_size", defaults.PoolSize)
	v.SetDefault("webhook_url", defaults.WebhookURL)

	v.SetEnvPrefix("JOINCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, nil, fmt.Errorf("joinconfig: read config file %q: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, nil, fmt.Errorf("joinconfig: unmarshal config: %w", err)
	}
	return cfg, v, nil
}

// Watch invokes onChange with the freshly reloaded Config every time the
// underlying config file changes on disk. It is a no-op if v was built
// from Load("") (no config file to watch).
func Watch(v *viper.Viper, onChange func(Config)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
