package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	Drafts    DraftsConfig    `yaml:"drafts"`
	Wizard    WizardConfig    `yaml:"wizard"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TransportConfig selects how MCP clients connect: "http" or "stdio".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DBConfig selects the SQL backend. Path is used by sqlite, DSN by postgres.
type DBConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DraftsConfig selects where drafts live: "sql" or "redis". Events are
// published on Redis whenever Redis.Addr is set.
type DraftsConfig struct {
	Backend string `yaml:"backend"`
}

type WizardConfig struct {
	AutosaveDebounce time.Duration `yaml:"autosave_debounce"`
	UndoDepth        int           `yaml:"undo_depth"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	ReapInterval     time.Duration `yaml:"reap_interval"`
}

type TelemetryConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Insecure bool          `yaml:"insecure"`
	Interval time.Duration `yaml:"interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "careplan.db",
		},
		Redis: RedisConfig{
			Prefix: "careplan",
		},
		Drafts: DraftsConfig{
			Backend: "sql",
		},
		Wizard: WizardConfig{
			AutosaveDebounce: 500 * time.Millisecond,
			UndoDepth:        50,
			IdleTimeout:      30 * time.Minute,
			ReapInterval:     time.Minute,
		},
		Telemetry: TelemetryConfig{
			Interval: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CAREPLAN_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("db.path is required for sqlite")
		}
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("invalid db driver %q", c.DB.Driver)
	}
	switch c.Drafts.Backend {
	case "sql":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis draft backend")
		}
	default:
		return fmt.Errorf("invalid drafts backend %q", c.Drafts.Backend)
	}
	if c.Wizard.UndoDepth < 0 {
		return fmt.Errorf("wizard.undo_depth must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("CAREPLAN_SERVER_HOST", &cfg.Server.Host)
	setString("CAREPLAN_TRANSPORT_MODE", &cfg.Transport.Mode)
	setString("CAREPLAN_DB_DRIVER", &cfg.DB.Driver)
	setString("CAREPLAN_DB_PATH", &cfg.DB.Path)
	setString("CAREPLAN_DB_DSN", &cfg.DB.DSN)
	setString("CAREPLAN_REDIS_ADDR", &cfg.Redis.Addr)
	setString("CAREPLAN_REDIS_PASSWORD", &cfg.Redis.Password)
	setString("CAREPLAN_REDIS_PREFIX", &cfg.Redis.Prefix)
	setString("CAREPLAN_DRAFTS_BACKEND", &cfg.Drafts.Backend)
	setString("CAREPLAN_OTLP_ENDPOINT", &cfg.Telemetry.Endpoint)
	setString("CAREPLAN_LOG_LEVEL", &cfg.Log.Level)

	if err := setInt("CAREPLAN_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := setInt("CAREPLAN_REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}
	if err := setInt("CAREPLAN_UNDO_DEPTH", &cfg.Wizard.UndoDepth); err != nil {
		return err
	}
	if err := setBool("CAREPLAN_AUTH_ENABLED", &cfg.Auth.Enabled); err != nil {
		return err
	}
	if err := setBool("CAREPLAN_OTLP_INSECURE", &cfg.Telemetry.Insecure); err != nil {
		return err
	}
	if err := setDuration("CAREPLAN_AUTOSAVE_DEBOUNCE", &cfg.Wizard.AutosaveDebounce); err != nil {
		return err
	}
	if err := setDuration("CAREPLAN_IDLE_TIMEOUT", &cfg.Wizard.IdleTimeout); err != nil {
		return err
	}
	return setDuration("CAREPLAN_REAP_INTERVAL", &cfg.Wizard.ReapInterval)
}

func setString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func setInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}

func setBool(name string, dst *bool) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = b
	return nil
}

func setDuration(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
