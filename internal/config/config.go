package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration of schoolcms. It is loaded
// from schoolcms.yaml, SCHOOLCMS_* environment variables and CLI flags.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	SeedAdmin SeedAdminConfig `mapstructure:"seed_admin" yaml:"seed_admin"`
	Upload    UploadConfig    `mapstructure:"upload" yaml:"upload"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	MaxBodySize     int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
	// StaticDir, when set, is served at / (the public frontend).
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`
}

// DatabaseConfig selects the record store backend.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"`
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// AuthConfig controls token signing and login throttling.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	// LoginRateLimit is the number of login attempts allowed per IP per
	// minute. Zero disables the limit.
	LoginRateLimit int `mapstructure:"login_rate_limit" yaml:"login_rate_limit"`
}

// SeedAdminConfig describes the administrator created on first run when the
// admins table is empty. Leaving Password empty disables seeding.
type SeedAdminConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Name     string `mapstructure:"name" yaml:"name"`
	Email    string `mapstructure:"email" yaml:"email"`
}

// UploadConfig controls local file storage.
type UploadConfig struct {
	Dir          string `mapstructure:"dir" yaml:"dir"`
	MaxImageSize int64  `mapstructure:"max_image_size" yaml:"max_image_size"`
	MaxFileSize  int64  `mapstructure:"max_file_size" yaml:"max_file_size"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns the configuration used when nothing else is set. The
// database and upload paths are resolved relative to dataDir.
func Default(dataDir string) Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
			MaxBodySize:     10 << 20,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             filepath.Join(dataDir, "schoolcms.db"),
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: AuthConfig{
			LoginRateLimit: 10,
		},
		SeedAdmin: SeedAdminConfig{
			Username: "admin",
			Name:     "Administrator",
		},
		Upload: UploadConfig{
			Dir:          filepath.Join(dataDir, "uploads"),
			MaxImageSize: 5 << 20,
			MaxFileSize:  20 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// SetDefaults registers every key of Default(dataDir) with v so that
// environment variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper, dataDir string) {
	d := Default(dataDir)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)
	v.SetDefault("server.static_dir", d.Server.StaticDir)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.login_rate_limit", d.Auth.LoginRateLimit)

	v.SetDefault("seed_admin.username", d.SeedAdmin.Username)
	v.SetDefault("seed_admin.password", d.SeedAdmin.Password)
	v.SetDefault("seed_admin.name", d.SeedAdmin.Name)
	v.SetDefault("seed_admin.email", d.SeedAdmin.Email)

	v.SetDefault("upload.dir", d.Upload.Dir)
	v.SetDefault("upload.max_image_size", d.Upload.MaxImageSize)
	v.SetDefault("upload.max_file_size", d.Upload.MaxFileSize)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodySize <= 0 {
		return fmt.Errorf("server.max_body_size must be positive")
	}

	switch c.Database.Driver {
	case "sqlite":
	case "mysql", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be sqlite, mysql or postgres, got %q", c.Database.Driver)
	}

	if c.Auth.LoginRateLimit < 0 {
		return fmt.Errorf("auth.login_rate_limit must not be negative")
	}
	if c.Upload.Dir == "" {
		return fmt.Errorf("upload.dir is required")
	}
	if c.Upload.MaxImageSize <= 0 || c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload size limits must be positive")
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ParseLevel maps a logging.level value to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", level)
	}
}

// NewLogger builds the process logger described by the logging section.
// dev forces debug level.
func (c *Config) NewLogger(dev bool) *slog.Logger {
	level, err := ParseLevel(c.Logging.Level)
	if err != nil || dev {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// WriteDefault writes a default configuration file to path as
// YAML. It refuses to overwrite an existing file unless force is set.
func WriteDefault(path, dataDir string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	cfg := Default(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := "# schoolcms configuration\n# Every key can be overridden with SCHOOLCMS_<SECTION>_<KEY>.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML with secrets redacted.
func Marshal(cfg *Config) ([]byte, error) {
	redacted := *cfg
	if redacted.Auth.JWTSecret != "" {
		redacted.Auth.JWTSecret = "********"
	}
	if redacted.SeedAdmin.Password != "" {
		redacted.SeedAdmin.Password = "********"
	}
	return yaml.Marshal(&redacted)
}
