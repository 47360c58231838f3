// Package config loads and validates application configuration from
// environment variables and optional config files.
package config

// Config holds all application configuration, organized into logical
// groups.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	API      APIConfig      `mapstructure:"api"      validate:"required"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the database settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// APIConfig contains the JSON:API tuning knobs. The page size cap and the
// include depth cap are deliberately configuration, not protocol constants.
type APIConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	DefaultPageSize int    `mapstructure:"default_page_size" validate:"required,gt=0"`
	MaxPageSize     int    `mapstructure:"max_page_size"     validate:"required,gtefield=DefaultPageSize"`
	MaxIncludeDepth int    `mapstructure:"max_include_depth" validate:"required,gt=0"`
}
