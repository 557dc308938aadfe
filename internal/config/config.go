package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	Upload    UploadConfig    `yaml:"upload"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Backup    BackupConfig    `yaml:"backup"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// AuthConfig contains authentication settings.
// An empty APIKey disables bearer authentication.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// UploadConfig bounds document conversion uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// RateLimitConfig controls the DELETE rate limiter token bucket.
type RateLimitConfig struct {
	DeleteBurst    int      `yaml:"delete_burst"`
	DeleteInterval Duration `yaml:"delete_interval"`
}

// BackupConfig contains backup scheduling and S3-compatible storage settings.
// An empty Bucket keeps backups local-only. A zero Interval disables the
// scheduled backup worker.
type BackupConfig struct {
	Interval  Duration `yaml:"interval"`
	Dir       string   `yaml:"dir"`
	Keep      int      `yaml:"keep"`
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"-"` // env-only
	SecretKey string   `yaml:"-"` // env-only
	UseSSL    *bool    `yaml:"use_ssl"`
	Prefix    string   `yaml:"prefix"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("SCRIPTDESK_CONFIG_PATH", "config/scriptdesk.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			Path:         "data/scriptdesk.db",
			MaxOpenConns: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Upload: UploadConfig{
			MaxBytes: 10 << 20,
		},
		RateLimit: RateLimitConfig{
			DeleteBurst:    100,
			DeleteInterval: Duration(100 * time.Millisecond),
		},
		Backup: BackupConfig{
			Dir:    "data/backups",
			Keep:   7,
			Prefix: "scriptdesk",
		},
	}
}

func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("SCRIPTDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	setDuration(&cfg.Server.ReadTimeout, "SCRIPTDESK_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "SCRIPTDESK_WRITE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "SCRIPTDESK_SHUTDOWN_TIMEOUT")

	// Database
	if v := os.Getenv("SCRIPTDESK_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SCRIPTDESK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SCRIPTDESK_DB_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.MaxOpenConns = n
		}
	}

	// Auth
	if v := os.Getenv("SCRIPTDESK_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Log
	if v := os.Getenv("SCRIPTDESK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SCRIPTDESK_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// CORS (comma-separated)
	if v := os.Getenv("SCRIPTDESK_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}

	// Upload
	if v := os.Getenv("SCRIPTDESK_UPLOAD_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxBytes = n
		}
	}

	// Rate limit
	if v := os.Getenv("SCRIPTDESK_DELETE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.DeleteBurst = n
		}
	}
	setDuration(&cfg.RateLimit.DeleteInterval, "SCRIPTDESK_DELETE_INTERVAL")

	// Backup
	setDuration(&cfg.Backup.Interval, "SCRIPTDESK_BACKUP_INTERVAL")
	if v := os.Getenv("SCRIPTDESK_BACKUP_DIR"); v != "" {
		cfg.Backup.Dir = v
	}
	if v := os.Getenv("SCRIPTDESK_BACKUP_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backup.Keep = n
		}
	}
	if v := os.Getenv("SCRIPTDESK_BACKUP_BUCKET"); v != "" {
		cfg.Backup.Bucket = v
	}
	if v := os.Getenv("SCRIPTDESK_S3_ENDPOINT"); v != "" {
		cfg.Backup.Endpoint = v
	}
	if v := os.Getenv("SCRIPTDESK_S3_REGION"); v != "" {
		cfg.Backup.Region = v
	}
	if v := os.Getenv("SCRIPTDESK_S3_ACCESS_KEY"); v != "" {
		cfg.Backup.AccessKey = v
	}
	if v := os.Getenv("SCRIPTDESK_S3_SECRET_KEY"); v != "" {
		cfg.Backup.SecretKey = v
	}
	if v := os.Getenv("SCRIPTDESK_S3_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.Backup.UseSSL = &useSSL
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

// validate checks that configuration values are usable.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("database.driver %q must be sqlite or sqlite3", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", c.Log.Format)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	if c.RateLimit.DeleteBurst < 1 || c.RateLimit.DeleteInterval <= 0 {
		return fmt.Errorf("rate_limit requires a positive burst and interval")
	}
	if c.Backup.Interval < 0 || c.Backup.Keep < 0 {
		return fmt.Errorf("backup.interval and backup.keep must not be negative")
	}
	if c.Backup.Interval > 0 && c.Backup.Dir == "" {
		return fmt.Errorf("backup.dir is required when backup.interval is set")
	}
	if c.Backup.Bucket != "" && c.Backup.Endpoint == "" {
		return fmt.Errorf("backup.endpoint is required when backup.bucket is set")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
