package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default(t.TempDir())
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Upload.MaxImageSize != 5<<20 {
		t.Errorf("max image size = %d, want 5MB", cfg.Upload.MaxImageSize)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SCHOOLCMS_SERVER_PORT", "9090")
	t.Setenv("SCHOOLCMS_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SCHOOLCMS_SERVER_SHUTDOWN_TIMEOUT", "5s")

	v := viper.New()
	v.SetEnvPrefix("SCHOOLCMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v, t.TempDir())

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("addr = %q", cfg.Addr())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"mysql without dsn", func(c *Config) { c.Database.Driver = "mysql"; c.Database.DSN = "" }},
		{"negative rate limit", func(c *Config) { c.Auth.LoginRateLimit = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero image size", func(c *Config) { c.Upload.MaxImageSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schoolcms.yaml")

	if err := WriteDefault(path, dir, false); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if err := WriteDefault(path, dir, false); err == nil {
		t.Error("expected error when file exists without force")
	}
	if err := WriteDefault(path, dir, true); err != nil {
		t.Fatalf("WriteDefault with force: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("unmarshal written config: %v", err)
	}
	if cfg.Server.Port != 3000 || cfg.Database.Driver != "sqlite" {
		t.Errorf("unexpected round-tripped config: %+v", cfg.Server)
	}
}

func TestMarshalRedactsSecrets(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Auth.JWTSecret = "top-secret"
	cfg.SeedAdmin.Password = "hunter2"

	out, err := Marshal(&cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(out), "top-secret") || strings.Contains(string(out), "hunter2") {
		t.Errorf("secrets leaked:\n%s", out)
	}
	if cfg.Auth.JWTSecret != "top-secret" {
		t.Error("Marshal must not modify its argument")
	}
}
