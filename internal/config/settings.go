package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable the server reads.
const EnvPrefix = "CODEMASTER_MCP"

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// Code source constants
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CodesSettings configuration for the code master data
type CodesSettings struct {
	Source         string        `mapstructure:"source"` // SourceFile or SourceSQLite
	Path           string        `mapstructure:"path"`
	Mode           string        `mapstructure:"mode"` // eager or lazy
	DefaultLocale  string        `mapstructure:"default_locale"`
	ReloadInterval time.Duration `mapstructure:"reload_interval"`
	LoadTimeout    time.Duration `mapstructure:"load_timeout"`
	SearchEnabled  bool          `mapstructure:"search_enabled"`
	MaxResults     int           `mapstructure:"max_results"`
}

// Settings application settings
type Settings struct {
	Transport string        `mapstructure:"transport"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Auth      AuthSettings  `mapstructure:"auth"`
	Codes     CodesSettings `mapstructure:"codes"`
}

// settingKeys maps each nested key to its CLI flag.
var settingKeys = map[string]string{
	"transport":             "transport",
	"host":                  "host",
	"port":                  "port",
	"auth.type":             "auth-type",
	"auth.basic.username":   "auth-basic-username",
	"auth.basic.password":   "auth-basic-password",
	"auth.api_keys":         "auth-api-keys",
	"codes.source":          "codes-source",
	"codes.path":            "codes-path",
	"codes.mode":            "codes-mode",
	"codes.default_locale":  "codes-default-locale",
	"codes.reload_interval": "codes-reload-interval",
	"codes.load_timeout":    "codes-load-timeout",
	"codes.search_enabled":  "codes-search-enabled",
	"codes.max_results":     "codes-max-results",
}

// EnvVar returns the environment variable name of a settings key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("transport", "stdio")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("auth.type", AuthTypeNone)

	// Code data defaults
	v.SetDefault("codes.source", SourceFile)
	v.SetDefault("codes.path", defaultCodesPath())
	v.SetDefault("codes.mode", codes.ModeNameEager)
	v.SetDefault("codes.default_locale", "")
	v.SetDefault("codes.reload_interval", time.Duration(0))
	v.SetDefault("codes.load_timeout", 30*time.Second)
	v.SetDefault("codes.search_enabled", true)
	v.SetDefault("codes.max_results", 20)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind env vars and, if provided, CLI flags (highest priority) for nested config
	for key, flag := range settingKeys {
		_ = v.BindEnv(key, EnvVar(key))
		if flags != nil {
			if f := flags.Lookup(flag); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Handle explicit parsing of API keys if provided via env var as comma-separated string
	if apiKeysEnv := os.Getenv(EnvVar("auth.api_keys")); apiKeysEnv != "" {
		if len(settings.Auth.APIKeys) == 0 || (len(settings.Auth.APIKeys) == 1 && strings.Contains(settings.Auth.APIKeys[0], ",")) {
			settings.Auth.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}

	// Trim spaces from API keys and drop empty ones
	for i := range settings.Auth.APIKeys {
		settings.Auth.APIKeys[i] = strings.TrimSpace(settings.Auth.APIKeys[i])
	}
	settings.Auth.APIKeys = filterEmptyStrings(settings.Auth.APIKeys)

	settings.Codes.Source = strings.ToLower(strings.TrimSpace(settings.Codes.Source))
	settings.Codes.Mode = strings.ToLower(strings.TrimSpace(settings.Codes.Mode))
	settings.Codes.Path = expandHomeDir(settings.Codes.Path)

	return &settings, nil
}

// defaultCodesPath returns the default location of the code data file
func defaultCodesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".codemaster-mcp", "codes.yaml")
	}
	return filepath.Join(home, ".codemaster-mcp", "codes.yaml")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// filterEmptyStrings removes empty strings from a slice
func filterEmptyStrings(s []string) []string {
	var result []string
	for _, str := range s {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete auth config,
// or an unusable code data configuration.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case "stdio", "sse":
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	return validateCodesSettings(&s.Codes)
}

// validateCodesSettings validates the code data configuration
func validateCodesSettings(c *CodesSettings) error {
	switch c.Source {
	case SourceFile, SourceSQLite:
		// valid
	default:
		return errors.New("codes-source must be 'file' or 'sqlite', got: " + c.Source)
	}

	if c.Path == "" {
		return errors.New("codes-path cannot be empty")
	}

	if _, err := codes.ParseMode(c.Mode); err != nil {
		return errors.New("codes-mode must be 'eager' or 'lazy', got: " + c.Mode)
	}

	if c.DefaultLocale != "" {
		if _, err := codes.ParseLocale(c.DefaultLocale); err != nil {
			return errors.New("codes-default-locale is not a valid language tag: " + c.DefaultLocale)
		}
	}

	if c.ReloadInterval < 0 {
		return errors.New("codes-reload-interval cannot be negative")
	}

	if c.LoadTimeout <= 0 {
		return errors.New("codes-load-timeout must be positive")
	}

	if c.MaxResults <= 0 {
		return errors.New("codes-max-results must be positive")
	}

	return nil
}
