// Package config resolves li settings from flags, environment, an optional
// YAML file and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	KeyDatabaseURL  = "database_url"
	KeyUserAgent    = "useragent"
	KeyFetchTimeout = "fetch_timeout"
	KeyLogLevel     = "log_level"
	KeyPrettyLog    = "pretty_log"

	// DefaultUserAgent is sent with every metadata fetch unless overridden.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.3"

	DefaultFetchTimeout = 30 * time.Second
	DefaultLogLevel     = "warn"
)

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	KeyDatabaseURL:  "LI_DATABASE_URL",
	KeyUserAgent:    "LI_USERAGENT",
	KeyFetchTimeout: "LI_FETCH_TIMEOUT",
	KeyLogLevel:     "LI_LOG_LEVEL",
	KeyPrettyLog:    "LI_PRETTY_LOG",
}

// flagBindings maps config keys to persistent flag names.
var flagBindings = map[string]string{
	KeyDatabaseURL: "database-url",
	KeyLogLevel:    "log-level",
}

// Config is the resolved runtime configuration.
type Config struct {
	DatabaseURL  string
	UserAgent    string
	FetchTimeout time.Duration
	LogLevel     string
	PrettyLog    bool
}

// Dir returns the directory holding config.yaml and the default database.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "li"), nil
}

// DefaultDatabaseURL points at links.db inside Dir.
func DefaultDatabaseURL() string {
	dir, err := Dir()
	if err != nil {
		return "sqlite://links.db"
	}
	return "sqlite://" + filepath.Join(dir, "links.db")
}

// Load resolves the configuration. configFile overrides the default
// location; when it is empty a missing config.yaml is not an error.
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault(KeyDatabaseURL, DefaultDatabaseURL())
	v.SetDefault(KeyUserAgent, DefaultUserAgent)
	v.SetDefault(KeyFetchTimeout, DefaultFetchTimeout)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyPrettyLog, true)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := readConfigFile(v, configFile); err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabaseURL:  v.GetString(KeyDatabaseURL),
		UserAgent:    v.GetString(KeyUserAgent),
		FetchTimeout: v.GetDuration(KeyFetchTimeout),
		LogLevel:     v.GetString(KeyLogLevel),
		PrettyLog:    v.GetBool(KeyPrettyLog),
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database url is empty")
	}
	if cfg.FetchTimeout < 0 {
		return Config{}, fmt.Errorf("fetch timeout must not be negative, got %s", cfg.FetchTimeout)
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
		return nil
	}

	dir, err := Dir()
	if err != nil {
		// No home directory; run on env and defaults alone.
		return nil
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
