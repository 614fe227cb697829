package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("UPCLOOKUP_SERVER_PORT")
		os.Unsetenv("UPCLOOKUP_SERVER_ENVIRONMENT")
		os.Unsetenv("UPCLOOKUP_SERVER_STATIC_DIR")
		os.Unsetenv("UPCLOOKUP_UPSTREAM_BASE_URL")
		os.Unsetenv("UPCLOOKUP_UPSTREAM_TIMEOUT")
		os.Unsetenv("UPCLOOKUP_UPSTREAM_INSECURE_SKIP_VERIFY")
		os.Unsetenv("UPCLOOKUP_UPSTREAM_MAX_BODY_BYTES")
		os.Unsetenv("UPCLOOKUP_LOG_LEVEL")
		os.Unsetenv("UPCLOOKUP_LOG_FORMAT")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load(nil)
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Server.StaticDir != "./public" {
			t.Errorf("Server.StaticDir = %s, want ./public", cfg.Server.StaticDir)
		}
		if cfg.Server.ShutdownTimeout != 10*time.Second {
			t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
		}
		if cfg.Upstream.BaseURL != "https://go-upc.com" {
			t.Errorf("Upstream.BaseURL = %s, want https://go-upc.com", cfg.Upstream.BaseURL)
		}
		if cfg.Upstream.SearchPath != "/search" {
			t.Errorf("Upstream.SearchPath = %s, want /search", cfg.Upstream.SearchPath)
		}
		if cfg.Upstream.UserAgent != DefaultUserAgent {
			t.Errorf("Upstream.UserAgent = %s, want %s", cfg.Upstream.UserAgent, DefaultUserAgent)
		}
		if cfg.Upstream.Timeout != 10*time.Second {
			t.Errorf("Upstream.Timeout = %v, want 10s", cfg.Upstream.Timeout)
		}
		if cfg.Upstream.InsecureSkipVerify {
			t.Error("Upstream.InsecureSkipVerify = true, want false")
		}
		if cfg.Upstream.MaxBodyBytes != 5<<20 {
			t.Errorf("Upstream.MaxBodyBytes = %d, want %d", cfg.Upstream.MaxBodyBytes, 5<<20)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
			t.Errorf("Log = %+v, want info/console", cfg.Log)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("UPCLOOKUP_SERVER_PORT", "9090")
		os.Setenv("UPCLOOKUP_SERVER_ENVIRONMENT", "staging")
		os.Setenv("UPCLOOKUP_SERVER_STATIC_DIR", "/srv/www")
		os.Setenv("UPCLOOKUP_UPSTREAM_BASE_URL", "http://localhost:9999")
		os.Setenv("UPCLOOKUP_UPSTREAM_TIMEOUT", "3s")
		os.Setenv("UPCLOOKUP_UPSTREAM_INSECURE_SKIP_VERIFY", "true")
		os.Setenv("UPCLOOKUP_LOG_FORMAT", "json")
		defer cleanupEnv()

		cfg, err := Load(nil)
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "staging" {
			t.Errorf("Server.Environment = %s, want staging", cfg.Server.Environment)
		}
		if cfg.Server.StaticDir != "/srv/www" {
			t.Errorf("Server.StaticDir = %s, want /srv/www", cfg.Server.StaticDir)
		}
		if cfg.Upstream.BaseURL != "http://localhost:9999" {
			t.Errorf("Upstream.BaseURL = %s, want http://localhost:9999", cfg.Upstream.BaseURL)
		}
		if cfg.Upstream.Timeout != 3*time.Second {
			t.Errorf("Upstream.Timeout = %v, want 3s", cfg.Upstream.Timeout)
		}
		if !cfg.Upstream.InsecureSkipVerify {
			t.Error("Upstream.InsecureSkipVerify = false, want true")
		}
		if cfg.Log.Format != "json" {
			t.Errorf("Log.Format = %s, want json", cfg.Log.Format)
		}
	})

	t.Run("flags override environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("UPCLOOKUP_SERVER_PORT", "9090")
		defer cleanupEnv()

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("port", "", "")
		flags.Duration("timeout", 0, "")
		if err := flags.Parse([]string{"--port=7070", "--timeout=2s"}); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}

		cfg, err := Load(flags)
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
		if cfg.Upstream.Timeout != 2*time.Second {
			t.Errorf("Upstream.Timeout = %v, want 2s", cfg.Upstream.Timeout)
		}
	})

	t.Run("fails validation for insecure mode in production", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("UPCLOOKUP_SERVER_ENVIRONMENT", "production")
		os.Setenv("UPCLOOKUP_UPSTREAM_INSECURE_SKIP_VERIFY", "true")
		defer cleanupEnv()

		_, err := Load(nil)
		if err == nil {
			t.Fatal("Load() error = nil, want error for insecure mode in production")
		}
		if err.Error() != "invalid configuration: insecure upstream TLS is not allowed in production" {
			t.Errorf("Load() error = %v", err)
		}
	})

	t.Run("fails validation for invalid log format", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("UPCLOOKUP_LOG_FORMAT", "xml")
		defer cleanupEnv()

		_, err := Load(nil)
		if err == nil {
			t.Error("Load() error = nil, want error for invalid log format")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
		defer func() {
			os.Unsetenv("TEST_VAR_1")
			os.Unsetenv("TEST_VAR_2")
			os.Unsetenv("TEST_VAR_3")
		}()

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_VAR_3") != "value3" {
			t.Errorf("TEST_VAR_3 = %s, want value3", os.Getenv("TEST_VAR_3"))
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		os.Setenv("TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("TEST_OVERRIDE")

		err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080", Environment: "development"},
			Upstream: UpstreamConfig{
				BaseURL:      "https://go-upc.com",
				Timeout:      10 * time.Second,
				MaxBodyBytes: 1024,
			},
			Log: LogConfig{Level: "info", Format: "console"},
		}
	}

	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"relative base URL", func(c *Config) { c.Upstream.BaseURL = "/search" }},
		{"non-http base URL", func(c *Config) { c.Upstream.BaseURL = "ftp://go-upc.com" }},
		{"zero timeout", func(c *Config) { c.Upstream.Timeout = 0 }},
		{"negative max body", func(c *Config) { c.Upstream.MaxBodyBytes = -1 }},
		{"unknown log format", func(c *Config) { c.Log.Format = "text" }},
		{"insecure in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Upstream.InsecureSkipVerify = true
		}},
	}

	for _, tt := range tests {
		t.Run("fails for "+tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := validate(cfg); err == nil {
				t.Error("validate() error = nil, want error")
			}
		})
	}

	t.Run("allows insecure mode outside production", func(t *testing.T) {
		cfg := valid()
		cfg.Upstream.InsecureSkipVerify = true
		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})
}
