// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath        = "config.toml"
	DefaultHTTPAddr          = ":4000"
	DefaultClientOrigin      = "http://localhost:5173"
	DefaultJWTExpiresIn      = "720h"
	DefaultPGHost            = "127.0.0.1"
	DefaultPGPort            = 5432
	DefaultPGUser            = "postgres"
	DefaultPGDatabase        = "tessenger"
	DefaultPGSSLMode         = "disable"
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultPongTimeout       = 2 * time.Second
	DefaultSendBuffer        = 32
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Admin    AdminConfig    `toml:"admin"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	Chat     ChatConfig     `toml:"chat"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP listen address and the browser client origin
// allowed by CORS (credentialed requests need an exact origin).
type ServerConfig struct {
	Addr         string `toml:"addr"`
	ClientOrigin string `toml:"client_origin"`
}

// AdminConfig holds the account seeded on first run (username, password).
type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// AuthConfig holds JWT secret and token expiry (e.g. 720h).
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// ExpiresIn parses the configured token lifetime, falling back to the default.
func (c AuthConfig) ExpiresIn() time.Duration {
	d, err := time.ParseDuration(c.JWTExpiresIn)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultJWTExpiresIn)
	}
	return d
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// ChatConfig holds realtime connection tunables.
type ChatConfig struct {
	HeartbeatInterval string `toml:"heartbeat_interval"`
	PongTimeout       string `toml:"pong_timeout"`
	SendBuffer        int    `toml:"send_buffer"`
}

// Heartbeat returns the ping interval, falling back to the default.
func (c ChatConfig) Heartbeat() time.Duration {
	return parseDurationOr(c.HeartbeatInterval, DefaultHeartbeatInterval)
}

// Timeout returns the pong wait, falling back to the default.
func (c ChatConfig) Timeout() time.Duration {
	return parseDurationOr(c.PongTimeout, DefaultPongTimeout)
}

// Buffer returns the per-connection send buffer size, falling back to the default.
func (c ChatConfig) Buffer() int {
	if c.SendBuffer <= 0 {
		return DefaultSendBuffer
	}
	return c.SendBuffer
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:         DefaultHTTPAddr,
			ClientOrigin: DefaultClientOrigin,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultConfigPath {
			// Running without a config file is fine; defaults plus env apply.
			return cfg, nil
		}
		return Config{}, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
