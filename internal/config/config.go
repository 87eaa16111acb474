package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the admin interface settings. It is populated once at startup
// and never mutated afterwards.
type Config struct {
	Name      string `mapstructure:"name"`
	URLPrefix string `mapstructure:"url_prefix"`
	SiteName  string `mapstructure:"site_name"`

	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`

	EnableSearch       bool `mapstructure:"enable_search"`
	EnableBatchActions bool `mapstructure:"enable_batch_actions"`

	RequireAuth bool `mapstructure:"require_auth"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Name:               "admin",
		URLPrefix:          "/admin",
		SiteName:           "Admin",
		DefaultPageSize:    20,
		MaxPageSize:        100,
		EnableSearch:       true,
		EnableBatchActions: true,
		RequireAuth:        true,
	}
}

// Load reads the admin configuration from the given file (optional) and the
// environment via Viper, falling back to the defaults above.
func Load(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("name", "admin")
	v.SetDefault("url_prefix", "/admin")
	v.SetDefault("site_name", "Admin")
	v.SetDefault("default_page_size", 20)
	v.SetDefault("max_page_size", 100)
	v.SetDefault("enable_search", true)
	v.SetDefault("enable_batch_actions", true)
	v.SetDefault("require_auth", true)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("steward")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("steward")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse admin config: %w", err)
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	if !strings.HasPrefix(cfg.URLPrefix, "/") {
		cfg.URLPrefix = "/" + cfg.URLPrefix
	}

	return cfg, nil
}
