// internal/core/config/viper.go
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults match DefaultConfig
	def := DefaultConfig()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("server.max_message_size", def.Server.MaxMessageSize)
	v.SetDefault("xpath.replacements", []string{})
	v.SetDefault("xpath.rule_files", []string{})
	v.SetDefault("xpath.load_from_db", def.XPath.LoadFromDB)
	v.SetDefault("database.url", "")

	// Bind environment variables with XR_ prefix
	v.SetEnvPrefix("XR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MaxMessageSize: v.GetInt("server.max_message_size"),
		},
		XPath: XPathConfig{
			Replacements: v.GetStringSlice("xpath.replacements"),
			RuleFiles:    v.GetStringSlice("xpath.rule_files"),
			LoadFromDB:   v.GetBool("xpath.load_from_db"),
		},
		DatabaseURL: v.GetString("database.url"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive timeout and message size.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxMessageSize <= 0 {
		return fmt.Errorf("max_message_size must be positive, got %d", cfg.Server.MaxMessageSize)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
// InConfig looks at the file only; IsSet would also see XR_HMAC_SECRET.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use XR_HMAC_SECRET environment variable)")
	}
	return nil
}
