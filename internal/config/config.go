package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Memory    MemoryConfig    `yaml:"memory"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the repository backend: "postgres" or "memory".
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

type LLMConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// MemoryConfig configures the user memory service. Provider is "mem0"
// (hosted API) or "sqlite" (local file).
type MemoryConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Provider   string        `yaml:"provider"`
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	SQLitePath string        `yaml:"sqlite_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// AuthConfig holds the HMAC secret used by the identity provider to sign
// access tokens. Empty means every request runs as the local dev user.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	SentryDSN string `yaml:"sentry_dsn"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
	if d.MaxConns > 0 {
		dsn += fmt.Sprintf("&pool_max_conns=%d", d.MaxConns)
	}
	return dsn
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A .env file in the working directory is loaded first when present.
// Env vars use the prefix LOGAN_ and underscore-separated paths:
//
//	LOGAN_SERVER_HOST, LOGAN_SERVER_PORT, LOGAN_STORAGE_DRIVER,
//	LOGAN_DB_HOST, LOGAN_DB_PORT, LOGAN_DB_NAME, LOGAN_DB_USER,
//	LOGAN_DB_PASSWORD, LOGAN_DB_SSLMODE,
//	LOGAN_LLM_BASE_URL, LOGAN_LLM_API_KEY, LOGAN_LLM_MODEL,
//	LOGAN_MEMORY_PROVIDER, LOGAN_MEMORY_API_KEY, LOGAN_MEMORY_SQLITE_PATH,
//	LOGAN_AUTH_JWT_SECRET, LOGAN_LOG_LEVEL, LOGAN_LOG_FORMAT, LOGAN_SENTRY_DSN,
//	LOGAN_TAILSCALE_ENABLED, LOGAN_TAILSCALE_HOSTNAME
//
// OPENAI_API_KEY, MEM0_API_KEY and ENABLE_MEMORY are honoured as well.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{Memory: MemoryConfig{Enabled: true}}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Host, "LOGAN_SERVER_HOST")
	setInt(&cfg.Server.Port, "LOGAN_SERVER_PORT")
	setString(&cfg.Storage.Driver, "LOGAN_STORAGE_DRIVER")

	setString(&cfg.Database.Host, "LOGAN_DB_HOST")
	setInt(&cfg.Database.Port, "LOGAN_DB_PORT")
	setString(&cfg.Database.Name, "LOGAN_DB_NAME")
	setString(&cfg.Database.User, "LOGAN_DB_USER")
	setString(&cfg.Database.Password, "LOGAN_DB_PASSWORD")
	setString(&cfg.Database.SSLMode, "LOGAN_DB_SSLMODE")

	setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.APIKey, "LOGAN_LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LOGAN_LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LOGAN_LLM_MODEL")

	setString(&cfg.Memory.APIKey, "MEM0_API_KEY")
	setString(&cfg.Memory.APIKey, "LOGAN_MEMORY_API_KEY")
	setString(&cfg.Memory.Provider, "LOGAN_MEMORY_PROVIDER")
	setString(&cfg.Memory.SQLitePath, "LOGAN_MEMORY_SQLITE_PATH")
	if v := os.Getenv("ENABLE_MEMORY"); v == "false" {
		cfg.Memory.Enabled = false
	}

	setString(&cfg.Auth.JWTSecret, "LOGAN_AUTH_JWT_SECRET")
	setString(&cfg.Logging.Level, "LOGAN_LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOGAN_LOG_FORMAT")
	setString(&cfg.Logging.SentryDSN, "LOGAN_SENTRY_DSN")

	if v := os.Getenv("LOGAN_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	setString(&cfg.Tailscale.Hostname, "LOGAN_TAILSCALE_HOSTNAME")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "postgres"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.Memory.Provider == "" {
		cfg.Memory.Provider = "mem0"
	}
	if cfg.Memory.BaseURL == "" {
		cfg.Memory.BaseURL = "https://api.mem0.ai"
	}
	if cfg.Memory.SQLitePath == "" {
		cfg.Memory.SQLitePath = "data/memory.db"
	}
	if cfg.Memory.Timeout == 0 {
		cfg.Memory.Timeout = 2 * time.Second
	}
	// The hosted provider cannot work without a key.
	if cfg.Memory.Provider == "mem0" && cfg.Memory.APIKey == "" {
		cfg.Memory.Enabled = false
	}
	if cfg.RateLimit.PerMinute == 0 {
		cfg.RateLimit.PerMinute = 20
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "logan"
	}
	if cfg.Tailscale.StateDir == "" {
		cfg.Tailscale.StateDir = "data/tsnet"
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	switch c.Memory.Provider {
	case "mem0", "sqlite":
	default:
		return fmt.Errorf("memory.provider %q is not supported", c.Memory.Provider)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported", c.Logging.Format)
	}
	return nil
}
