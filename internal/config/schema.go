package config

// Config represents the full tally configuration
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging configuration
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// Identity used as the editor of every mutation
	User UserConfig `yaml:"user" mapstructure:"user"`

	// Origin surface recorded for CLI mutations
	Surface string `yaml:"surface" mapstructure:"surface"`
}

// DatabaseConfig locates the SQLite database
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // empty means the XDG data dir
}

// LogConfig configures the structured logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// UserConfig is the editor identity
type UserConfig struct {
	ID   string `yaml:"id" mapstructure:"id"`
	Role string `yaml:"role" mapstructure:"role"` // manager or staff
}
