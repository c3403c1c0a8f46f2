package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configName is the config file searched in the working directory.
const configName = "sampass"

// envPrefix is the environment variable prefix for sampass settings.
const envPrefix = "SAMPASS"

// envKeySeparator replaces "." of nested keys in environment variable names.
const envKeySeparator = "_"

// LoaderConfig holds optional file overrides and the flags to bind.
type LoaderConfig struct {
	ConfigFile string         // explicit config file (must exist)
	EnvFile    string         // explicit .env file (must exist)
	Flags      *pflag.FlagSet // parsed command flags; see FlagKeys
	Dir        string         // directory searched for sampass.yaml and .env; "" = CWD
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithFlags binds parsed flags; changed flags win over every other source.
func WithFlags(fs *pflag.FlagSet) LoaderOption {
	return func(lc *LoaderConfig) { lc.Flags = fs }
}

// WithDir sets the directory searched for the default config and .env files.
func WithDir(dir string) LoaderOption {
	return func(lc *LoaderConfig) { lc.Dir = dir }
}

// FlagKeys maps flag names to config keys.
var FlagKeys = map[string]string{
	"input":          "input",
	"reference":      "reference",
	"output":         "output",
	"format":         "format",
	"assume-sorted":  "assume_sorted",
	"stop-after":     "stop_after",
	"batch-size":     "batch_size",
	"join-timeout":   "join_timeout",
	"max-in-flight":  "max_in_flight",
	"consumers":      "consumers",
	"progress-every": "progress_every",
	"quiet":          "quiet",
	"metrics-file":   "metrics.textfile",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// Load resolves the configuration, highest precedence first: changed flags,
// SAMPASS_* environment variables, the config file, defaults. A .env file is
// loaded into the environment first and never overrides variables already set.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, o := range opts {
		o(&lc)
	}

	if err := loadEnvFile(lc); err != nil {
		return nil, err
	}

	v := viper.New()
	applyDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(dirOrDot(lc.Dir))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if lc.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if lc.Flags != nil {
		for name, key := range FlagKeys {
			if f := lc.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Quiet {
		cfg.Log.Level = "warn"
	}
	cfg.Log.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("input", "")
	v.SetDefault("reference", "")
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("assume_sorted", DefaultAssumeSorted)
	v.SetDefault("stop_after", 0)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("join_timeout", DefaultJoinTimeout)
	v.SetDefault("max_in_flight", 0)
	v.SetDefault("consumers", DefaultConsumers)
	v.SetDefault("progress_every", DefaultProgressEvery)
	v.SetDefault("quiet", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.no_color", false)
	v.SetDefault("log.timestamp", false)

	v.SetDefault("metrics.textfile", "")
}

func loadEnvFile(lc LoaderConfig) error {
	if lc.EnvFile != "" {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return fmt.Errorf("load env file %s: %w", lc.EnvFile, err)
		}
		return nil
	}
	path := dirOrDot(lc.Dir) + string(os.PathSeparator) + ".env"
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
