package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "DATAPAD_"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Navigator NavigatorConfig `yaml:"navigator"`
	Session   SessionConfig   `yaml:"session"`
	Activity  ActivityConfig  `yaml:"activity"`
	MCP       MCPConfig       `yaml:"mcp"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type UpstreamConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
}

type CatalogConfig struct {
	MaxID int `yaml:"max_id"`
}

type NavigatorConfig struct {
	LegacyJumpResult bool `yaml:"legacy_jump_result"`
}

type SessionConfig struct {
	CookieName    string        `yaml:"cookie_name"`
	TTL           time.Duration `yaml:"ttl"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

type ActivityConfig struct {
	Retention time.Duration `yaml:"retention"`
}

type MCPConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Transport   string            `yaml:"transport"` // "http" (mounted at /mcp) or "stdio"
	AuthEnabled bool              `yaml:"auth_enabled"`
	Tokens      map[string]string `yaml:"tokens"` // bearer token -> client name
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "datapad.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Upstream: UpstreamConfig{
			BaseURL:       "https://akabab.github.io/starwars-api/api",
			Timeout:       10 * time.Second,
			RatePerSecond: 20,
			Burst:         10,
		},
		Catalog: CatalogConfig{
			MaxID: 88,
		},
		Session: SessionConfig{
			CookieName:    "datapad_session",
			TTL:           30 * 24 * time.Hour,
			PruneInterval: time.Hour,
		},
		Activity: ActivityConfig{
			Retention: 30 * 24 * time.Hour,
		},
		MCP: MCPConfig{
			Enabled:   true,
			Transport: "http",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
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
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Catalog.MaxID < 1 {
		return fmt.Errorf("catalog.max_id must be at least 1, got %d", c.Catalog.MaxID)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Upstream.RatePerSecond < 0 {
		return fmt.Errorf("upstream.rate_per_second must not be negative")
	}
	switch c.MCP.Transport {
	case "http", "stdio":
	default:
		return fmt.Errorf("mcp.transport must be http or stdio, got %q", c.MCP.Transport)
	}
	if c.MCP.AuthEnabled && len(c.MCP.Tokens) == 0 {
		return fmt.Errorf("mcp.auth_enabled requires at least one entry in mcp.tokens")
	}
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

func applyEnv(cfg *Config) error {
	if host := os.Getenv(envPrefix + "SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if err := envInt("SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if dbPath := os.Getenv(envPrefix + "DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv(envPrefix + "LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if baseURL := os.Getenv(envPrefix + "UPSTREAM_BASE_URL"); baseURL != "" {
		cfg.Upstream.BaseURL = baseURL
	}
	if err := envDuration("UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout); err != nil {
		return err
	}
	if raw := os.Getenv(envPrefix + "UPSTREAM_RATE_PER_SECOND"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %sUPSTREAM_RATE_PER_SECOND: %w", envPrefix, err)
		}
		cfg.Upstream.RatePerSecond = rate
	}
	if err := envInt("UPSTREAM_BURST", &cfg.Upstream.Burst); err != nil {
		return err
	}
	if err := envInt("CATALOG_MAX_ID", &cfg.Catalog.MaxID); err != nil {
		return err
	}
	if err := envBool("NAVIGATOR_LEGACY_JUMP_RESULT", &cfg.Navigator.LegacyJumpResult); err != nil {
		return err
	}
	if name := os.Getenv(envPrefix + "SESSION_COOKIE_NAME"); name != "" {
		cfg.Session.CookieName = name
	}
	if err := envDuration("SESSION_TTL", &cfg.Session.TTL); err != nil {
		return err
	}
	if err := envBool("MCP_ENABLED", &cfg.MCP.Enabled); err != nil {
		return err
	}
	if transport := os.Getenv(envPrefix + "MCP_TRANSPORT"); transport != "" {
		cfg.MCP.Transport = transport
	}
	if err := envBool("MCP_AUTH_ENABLED", &cfg.MCP.AuthEnabled); err != nil {
		return err
	}
	// DATAPAD_MCP_TOKENS=token1:client1,token2:client2
	if raw := os.Getenv(envPrefix + "MCP_TOKENS"); raw != "" {
		tokens := map[string]string{}
		for _, pair := range strings.Split(raw, ",") {
			token, client, ok := strings.Cut(strings.TrimSpace(pair), ":")
			if !ok || token == "" || client == "" {
				return fmt.Errorf("invalid %sMCP_TOKENS entry %q", envPrefix, pair)
			}
			tokens[token] = client
		}
		cfg.MCP.Tokens = tokens
	}
	return nil
}

func envInt(name string, dst *int) error {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = v
	return nil
}

func envBool(name string, dst *bool) error {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = v
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = v
	return nil
}
