// Package config loads application configuration with Viper.
//
// Sources, in increasing precedence:
//  1. Built-in defaults (Defaults)
//  2. An optional YAML config file
//  3. Environment variables prefixed SNIPSTASH_ (dots become underscores,
//     e.g. github.client_id → SNIPSTASH_GITHUB_CLIENT_ID)
//
// A missing config file is fine — defaults plus env cover the common
// single-binary deployment. A file that exists but fails to parse is an
// error: silently ignoring a broken config is worse than refusing to start.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Tag namespace scopes. The original schema this app descends from shared
// one tag namespace across all users, almost certainly by accident; the
// scope is therefore an explicit configuration choice rather than an
// inherited surprise.
const (
	TagScopeOwner  = "owner"  // tag names unique per user (default)
	TagScopeGlobal = "global" // tag names unique across all users
)

// GitHubConfig holds the OAuth app credentials for the GitHub login path.
// All three must be set for GitHub login to be enabled.
type GitHubConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
}

// Config is the top-level application configuration.
type Config struct {
	Port            int    `mapstructure:"port"`
	DBPath          string `mapstructure:"db_path"`
	LogLevel        string `mapstructure:"log_level"` // debug, info, warn, error
	JWTSecret       string `mapstructure:"jwt_secret"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes"`
	BcryptCost      int    `mapstructure:"bcrypt_cost"`
	TagScope        string `mapstructure:"tag_scope"`

	GitHub GitHubConfig `mapstructure:"github"`
}

// GitHubEnabled reports whether the GitHub OAuth login path is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHub.ClientID != "" && c.GitHub.ClientSecret != ""
}

// Load reads configuration from the optional YAML file at path (empty
// means no file) layered with SNIPSTASH_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "data/snipstash.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("token_ttl_minutes", 60)
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("tag_scope", TagScopeOwner)

	// Viper only surfaces env vars for keys it already knows about, so
	// secret-bearing keys get explicit empty defaults.
	v.SetDefault("jwt_secret", "")
	v.SetDefault("github.client_id", "")
	v.SetDefault("github.client_secret", "")
	v.SetDefault("github.callback_url", "")

	v.SetEnvPrefix("SNIPSTASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port must be in 1..65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path must not be empty")
	}
	if c.TagScope != TagScopeOwner && c.TagScope != TagScopeGlobal {
		return fmt.Errorf("config: tag_scope must be %q or %q, got %q",
			TagScopeOwner, TagScopeGlobal, c.TagScope)
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("config: token_ttl_minutes must be positive, got %d", c.TokenTTLMinutes)
	}
	// bcrypt rejects costs outside [4,31] itself; catch the obvious ones
	// here so the mistake surfaces at startup instead of at first signup.
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("config: bcrypt_cost must be in 4..31, got %d", c.BcryptCost)
	}
	return nil
}
