// Package config manages configuration for the zero CLI and its HTTP facade.
// It uses Viper for unified configuration management from files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudemu/zero/internal/constants"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the configuration shared by every zero command.
// It supports loading from YAML files and ZERO_* environment variables.
type Config struct {
	// Endpoint switches the CLI to remote mode against a `zero serve` instance.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty" validate:"omitempty,url"`

	// StorageDir is the root directory of the filesystem storage driver.
	StorageDir string `mapstructure:"storage_dir" yaml:"storage_dir" validate:"required"`
	// DatabasePath is the SQLite file holding metadata. Empty means in-memory.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path,omitempty"`
	// DockerHost overrides DOCKER_HOST for the docker compute driver.
	DockerHost string `mapstructure:"docker_host" yaml:"docker_host,omitempty"`

	Port      int    `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`

	FunctionTimeout        time.Duration `mapstructure:"function_timeout" yaml:"function_timeout" validate:"gt=0"`
	QueueVisibilityTimeout time.Duration `mapstructure:"queue_visibility_timeout" yaml:"queue_visibility_timeout" validate:"gt=0"`
}

var validate = validator.New()

var configKeys = []string{
	"endpoint",
	"storage_dir",
	"database_path",
	"docker_host",
	"port",
	"log_level",
	"log_format",
	"function_timeout",
	"queue_visibility_timeout",
}

// Load loads the configuration using Viper.
// When path is empty the file at ~/.zero/config.yaml is used if present;
// an explicit path must exist. Environment variables take precedence over
// config file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := loadConfigFile(v, path); err != nil {
		return nil, fmt.Errorf("error loading config file: %w", err)
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration against its validation rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Save writes the configuration to path, or to ~/.zero/config.yaml when path is empty.
// Overwrites the existing config file if it exists.
func Save(cfg *Config, path string) (string, error) {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPermissions); err != nil {
		return "", fmt.Errorf("error creating config directory: %w", err)
	}

	v := viper.New()
	v.Set("endpoint", cfg.Endpoint)
	v.Set("storage_dir", cfg.StorageDir)
	v.Set("database_path", cfg.DatabasePath)
	v.Set("docker_host", cfg.DockerHost)
	v.Set("port", cfg.Port)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_format", cfg.LogFormat)
	v.Set("function_timeout", cfg.FunctionTimeout.String())
	v.Set("queue_visibility_timeout", cfg.QueueVisibilityTimeout.String())

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("error writing config file: %w", err)
	}

	if err := os.Chmod(path, constants.ConfigFilePermissions); err != nil {
		return "", fmt.Errorf("error setting config file permissions: %w", err)
	}

	return path, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}

	return constants.ConfigFilePath(homeDir), nil
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// IsRemote reports whether commands should be sent to a remote endpoint.
func (c *Config) IsRemote() bool {
	return c.Endpoint != ""
}

// Helper functions

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage_dir", constants.DefaultStorageDirName)
	v.SetDefault("database_path", "")
	v.SetDefault("port", constants.DefaultPort)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("function_timeout", constants.DefaultFunctionTimeout)
	v.SetDefault("queue_visibility_timeout", constants.DefaultQueueVisibilityTimeout)
}

func loadConfigFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = GetConfigPath(); err != nil {
			// no resolvable home directory: run on defaults
			return nil //nolint:nilerr // defaults are a valid configuration
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return nil
		}
		return err
	}

	return nil
}

func bindEnvVars(v *viper.Viper) {
	for _, key := range configKeys {
		_ = v.BindEnv(key, constants.EnvPrefix+"_"+strings.ToUpper(key))
	}
}
