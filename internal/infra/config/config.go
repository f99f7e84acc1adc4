// Package config provides application-wide configuration loaded from env vars,
// optionally layered over a YAML file. All fields have safe defaults so the
// binary runs locally without any setup.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for hellomcp.
type Config struct {
	// MCP
	MCPServerURL string `yaml:"mcp_server_url"` // MCP_SERVER_URL, default "http://localhost:8000/mcp"

	// HTTP
	Host      string `yaml:"host"`       // HOST, default "0.0.0.0"
	Port      int    `yaml:"port"`       // PORT, default 9999
	PublicURL string `yaml:"public_url"` // PUBLIC_URL, default derived from host and port

	// Storage
	DBPath string `yaml:"db_path"` // DB_PATH, default ":memory:"

	// Logging
	LogLevel  string `yaml:"log_level"`  // LOG_LEVEL, default "info"
	LogFormat string `yaml:"log_format"` // LOG_FORMAT: "text" or "json"

	// Tool catalog refresh; "off" disables it.
	ToolSyncSchedule string `yaml:"tool_sync_schedule"` // TOOL_SYNC_SCHEDULE, default "@every 10m"

	// Redis task event sink; disabled when RedisAddr is empty.
	RedisAddr   string `yaml:"redis_addr"`   // REDIS_ADDR
	RedisStream string `yaml:"redis_stream"` // REDIS_STREAM, default "hellomcp:task-events"
}

const (
	envKeyConfigFile       = "HELLOMCP_CONFIG"
	envKeyMCPServerURL     = "MCP_SERVER_URL"
	envKeyHost             = "HOST"
	envKeyPort             = "PORT"
	envKeyPublicURL        = "PUBLIC_URL"
	envKeyDBPath           = "DB_PATH"
	envKeyLogLevel         = "LOG_LEVEL"
	envKeyLogFormat        = "LOG_FORMAT"
	envKeyToolSyncSchedule = "TOOL_SYNC_SCHEDULE"
	envKeyRedisAddr        = "REDIS_ADDR"
	envKeyRedisStream      = "REDIS_STREAM"

	scheduleOff = "off"
)

// ErrInvalidPort is returned when PORT is not a number in 1..65535.
var ErrInvalidPort = errors.New("invalid port")

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		MCPServerURL:     "http://localhost:8000/mcp",
		Host:             "0.0.0.0",
		Port:             9999,
		DBPath:           ":memory:",
		LogLevel:         "info",
		LogFormat:        "text",
		ToolSyncSchedule: "@every 10m",
		RedisStream:      "hellomcp:task-events",
	}
}

// Load reads the file named by HELLOMCP_CONFIG (if any) over the defaults,
// then applies environment variables, which win over the file.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envKeyConfigFile); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.MCPServerURL = envOr(envKeyMCPServerURL, cfg.MCPServerURL)
	cfg.Host = envOr(envKeyHost, cfg.Host)
	cfg.PublicURL = envOr(envKeyPublicURL, cfg.PublicURL)
	cfg.DBPath = envOr(envKeyDBPath, cfg.DBPath)
	cfg.LogLevel = envOr(envKeyLogLevel, cfg.LogLevel)
	cfg.LogFormat = envOr(envKeyLogFormat, cfg.LogFormat)
	cfg.ToolSyncSchedule = envOr(envKeyToolSyncSchedule, cfg.ToolSyncSchedule)
	cfg.RedisAddr = envOr(envKeyRedisAddr, cfg.RedisAddr)
	cfg.RedisStream = envOr(envKeyRedisStream, cfg.RedisStream)

	if raw := os.Getenv(envKeyPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidPort, envKeyPort, raw)
		}
		cfg.Port = port
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Port)
	}

	if strings.EqualFold(cfg.ToolSyncSchedule, scheduleOff) {
		cfg.ToolSyncSchedule = ""
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://" + net.JoinHostPort(publicHost(cfg.Host), strconv.Itoa(cfg.Port)) + "/"
	}
	return cfg, nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// publicHost maps wildcard listen hosts to something a client can dial.
func publicHost(host string) string {
	switch host {
	case "", "0.0.0.0", "::":
		return "localhost"
	default:
		return host
	}
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
