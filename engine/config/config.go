// Package config loads engine configuration from environment variables and
// an optional YAML file, and watches that file for edits.
package config

import (
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the engine's runtime configuration: where the backing store
// lives, and the credentials for a normlite+auth connection.
type Config struct {
	// DataDir names a directory for a file-backed store. It is loaded but
	// not read by the normsql command, which takes the store path from the
	// DSN alone.
	DataDir string `mapstructure:"data_dir"`
	// Memory records whether an in-memory store is wanted. It is loaded but
	// not read by the normsql command, which picks an in-memory or
	// file-backed client from the DSN kind alone.
	Memory bool `mapstructure:"memory"`
	// RootPageID overrides the stable bootstrap root page id every client
	// creates its databases under.
	RootPageID string `mapstructure:"root_page_id"`
	// Isolation names the declared isolation level; the engine only ever
	// implements READ COMMITTED. The field records what a caller asked for
	// and is not otherwise consulted or logged.
	Isolation string `mapstructure:"isolation"`
	// AuthToken is the bearer token for a normlite+auth://internal DSN.
	AuthToken string `mapstructure:"auth_token"`
}

const envPrefix = "NORMSQL"

func defaults(v *viper.Viper) {
	v.SetDefault("data_dir", ".")
	v.SetDefault("memory", true)
	v.SetDefault("isolation", "READ COMMITTED")
}

// Load reads Config from environment variables prefixed NORMSQL_ and,
// when path is non-empty, an additional YAML file, which takes precedence
// over unset environment values. logger defaults to slog.Default() when
// nil.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if path != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			logger.Info("config file changed, reload the process to apply it", slog.String("file", e.Name))
		})
		v.WatchConfig()
	}

	logger.Debug("config loaded", slog.String("data_dir", cfg.DataDir), slog.Bool("memory", cfg.Memory))
	return &cfg, nil
}
