package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DocRootConfig says where one dependency crate's rendered docs live. A bare
// string in the config file is shorthand for a remote root URL.
type DocRootConfig struct {
	// Policy is "local", "remote", or "unknown".
	Policy string `mapstructure:"policy"`
	URL    string `mapstructure:"url"`
}

type RenderConfig struct {
	// Channel selects the standard-library docs used for primitive links:
	// "stable" or "nightly".
	Channel string `mapstructure:"channel"`
	// DocRoots overrides the recorded location of a crate's docs, keyed by
	// crate name.
	DocRoots map[string]DocRootConfig `mapstructure:"doc_roots"`
}

type DaemonConfig struct {
	ExpirationSeconds int `mapstructure:"expiration_seconds"`
}

type Config struct {
	Render RenderConfig `mapstructure:"render"`
	Daemon DaemonConfig `mapstructure:"daemon"`
}

// cacheBase returns the base cache directory for oxidoc.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/oxidoc as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "oxidoc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "oxidoc")
	}
	return filepath.Join(os.TempDir(), "oxidoc")
}

// DBPath returns the path to the DuckDB database file.
func DBPath() string {
	return filepath.Join(cacheBase(), "db.db")
}

// CASDir returns the path to the content-addressable storage directory.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

// SnapshotCacheDir returns the path to the snapshot cache directory.
func SnapshotCacheDir() string {
	return filepath.Join(cacheBase(), "snapshots")
}

// LogPath returns the path to the daemon's log file.
func LogPath() string {
	return filepath.Join(cacheBase(), "daemon.log")
}

// SocketPath returns the path to the daemon's unix socket.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "oxidoc", "daemon.sock")
	}
	return filepath.Join(fmt.Sprintf("/run/user/%d", os.Getuid()), "oxidoc", "daemon.sock")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "oxidoc"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "oxidoc"))
	}

	viper.SetDefault("render.channel", "stable")
	viper.SetDefault("daemon.expiration_seconds", 600)

	viper.SetEnvPrefix("OXIDOC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func stringToDocRootHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(DocRootConfig{}) {
			return data, nil
		}
		if f.Kind() == reflect.String {
			return DocRootConfig{Policy: "remote", URL: data.(string)}, nil
		}
		return data, nil
	}
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToDocRootHookFunc(),
		Result:     &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for name, root := range config.Render.DocRoots {
		if err := validateDocRoot(name, root); err != nil {
			return nil, err
		}
	}

	return &config, nil
}

// Nightly reports whether primitive links should target the nightly docs.
func (c *Config) Nightly() bool {
	return c.Render.Channel == "nightly"
}

func validateDocRoot(name string, root DocRootConfig) error {
	switch root.Policy {
	case "local", "unknown":
		return nil
	case "remote", "":
		if root.URL == "" {
			return fmt.Errorf("doc root for %s: remote policy requires a url", name)
		}
		return nil
	default:
		return fmt.Errorf("doc root for %s: unknown policy %q", name, root.Policy)
	}
}
