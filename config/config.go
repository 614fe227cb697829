package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// DefaultUserAgent is sent to the lookup source so it serves its normal HTML page
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Log      LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	StaticDir       string        `mapstructure:"static_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// UpstreamConfig holds configuration for the barcode lookup source
type UpstreamConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	SearchPath string        `mapstructure:"search_path"`
	UserAgent  string        `mapstructure:"user_agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// InsecureSkipVerify disables TLS certificate and hostname checks.
	// Only meant for development against a misconfigured upstream.
	InsecureSkipVerify bool  `mapstructure:"insecure_skip_verify"`
	MaxBodyBytes       int64 `mapstructure:"max_body_bytes"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// flagKeys maps command-line flag names to configuration keys
var flagKeys = map[string]string{
	"port":                 "server.port",
	"environment":          "server.environment",
	"static-dir":           "server.static_dir",
	"upstream-url":         "upstream.base_url",
	"timeout":              "upstream.timeout",
	"insecure-skip-verify": "upstream.insecure_skip_verify",
	"log-level":            "log.level",
	"log-format":           "log.format",
}

// Load loads configuration from flags, environment variables and config files.
// flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/upclookup/")

	// Environment variable settings
	v.SetEnvPrefix("UPCLOOKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.static_dir", "./public")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Upstream defaults
	v.SetDefault("upstream.base_url", "https://go-upc.com")
	v.SetDefault("upstream.search_path", "/search")
	v.SetDefault("upstream.user_agent", DefaultUserAgent)
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.insecure_skip_verify", false)
	v.SetDefault("upstream.max_body_bytes", 5<<20)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// bindFlags binds only the flags that were registered on the set, so a
// subcommand with fewer flags still loads cleanly.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %q: %w", name, err)
		}
	}
	return nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already present in the environment are left untouched.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return gotenv.Load(".env")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set UPCLOOKUP_SERVER_PORT)")
	}

	u, err := url.Parse(config.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream base URL must be an absolute http(s) URL, got: %q", config.Upstream.BaseURL)
	}

	if config.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got: %s", config.Upstream.Timeout)
	}

	if config.Upstream.MaxBodyBytes <= 0 {
		return fmt.Errorf("upstream max body bytes must be positive, got: %d", config.Upstream.MaxBodyBytes)
	}

	if config.Log.Format != "console" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got: %s", config.Log.Format)
	}

	if config.Upstream.InsecureSkipVerify && config.Server.Environment == "production" {
		return fmt.Errorf("insecure upstream TLS is not allowed in production")
	}

	return nil
}
