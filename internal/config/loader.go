// Package config loads tally settings from a YAML file and TALLY_ environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/tgienger/tally/internal/models"
)

// Path returns the default config file location
func Path() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "tally", "config.yaml"), nil
}

// Load reads path (a missing file is not an error) and applies TALLY_
// environment overrides such as TALLY_USER_ROLE on top of the defaults.
func Load(path string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// keys must be known for env overrides to reach Unmarshal
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("user.id", def.User.ID)
	v.SetDefault("user.role", def.User.Role)
	v.SetDefault("surface", def.Surface)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	if _, err := models.ParseRole(c.User.Role); err != nil {
		return fmt.Errorf("user.role: %w", err)
	}
	if _, err := models.ParseSurface(c.Surface); err != nil {
		return fmt.Errorf("surface: %w", err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: %w: %q", models.ErrValidation, c.Log.Format)
	}
	return nil
}

// Actor returns the configured editor identity
func (c *Config) Actor() models.Actor {
	role, _ := models.ParseRole(c.User.Role)
	return models.Actor{UserID: c.User.ID, Role: role}
}
