package config

import (
	"os"
	"path/filepath"

	"github.com/tgienger/tally/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		User: UserConfig{
			ID:   defaultUser(),
			Role: string(models.RoleStaff),
		},
		Surface: string(models.SurfaceList),
	}
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "anonymous"
}

// WriteDefault writes the default configuration to path, creating parent
// directories as needed
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	content := "# tally configuration\n" + string(data)
	return os.WriteFile(path, []byte(content), 0644)
}
