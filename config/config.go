/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/suparena/objectstore/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "objectstore"

// Reader looks up a single configuration value.
type Reader interface {
	Get(section, key string) (string, error)
}

// Settings is the typed view of the configuration.
type Settings struct {
	Database   DatabaseSettings   `mapstructure:"database" yaml:"database"`
	Supervisor SupervisorSettings `mapstructure:"supervisor" yaml:"supervisor"`
	Log        LogSettings        `mapstructure:"log" yaml:"log"`
	Metrics    MetricsSettings    `mapstructure:"metrics" yaml:"metrics"`
}

type DatabaseSettings struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Connection  string `mapstructure:"connection" yaml:"connection"`
	Schema      string `mapstructure:"schema" yaml:"schema"`
	UnionSchema bool   `mapstructure:"union_schema" yaml:"union_schema"`
}

type SupervisorSettings struct {
	Interval       time.Duration `mapstructure:"interval" yaml:"interval"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
}

type LogSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path" yaml:"path,omitempty"`
}

type MetricsSettings struct {
	Listen string `mapstructure:"listen" yaml:"listen,omitempty"`
}

var defaults = map[string]any{
	"database.backend":           "mongodb",
	"database.connection":        "mongodb://localhost:27017/objectstore",
	"database.schema":            "default",
	"database.union_schema":      false,
	"supervisor.interval":        10 * time.Second,
	"supervisor.reconnect_delay": time.Second,
	"log.level":                  "info",
	"log.format":                 "json",
	"log.path":                   "",
	"metrics.listen":             "",
}

// Config is a loaded configuration.
type Config struct {
	v *viper.Viper
}

// Load reads the optional YAML file at path and the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return &Config{v: v}, nil
}

// Get returns section.key as a string. Unknown keys fail with a KeyNotFoundError.
func (c *Config) Get(section, key string) (string, error) {
	name := section + "." + key
	if !c.v.IsSet(name) {
		return "", errors.NewKeyNotFoundError(section, key)
	}
	return c.v.GetString(name), nil
}

// Set overrides section.key, typically from a command line flag.
func (c *Config) Set(section, key string, value any) {
	c.v.Set(section+"."+key, value)
}

// Settings decodes and validates the configuration.
func (c *Config) Settings() (Settings, error) {
	var s Settings
	if err := c.v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings a process needs to start.
func (s Settings) Validate() error {
	if s.Database.Backend == "" {
		return errors.NewKeyNotFoundError("database", "backend")
	}
	if s.Database.Schema == "" {
		return errors.NewKeyNotFoundError("database", "schema")
	}
	if s.Supervisor.Interval <= 0 {
		return fmt.Errorf("supervisor.interval must be positive, got %s", s.Supervisor.Interval)
	}
	if s.Supervisor.ReconnectDelay < 0 {
		return fmt.Errorf("supervisor.reconnect_delay must not be negative, got %s", s.Supervisor.ReconnectDelay)
	}
	switch s.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", s.Log.Format)
	}
	return nil
}

// YAML renders the settings with connection credentials masked.
func (s Settings) YAML() ([]byte, error) {
	s.Database.Connection = maskConnection(s.Database.Connection)
	return yaml.Marshal(s)
}

func maskConnection(conn string) string {
	u, err := url.Parse(conn)
	if err != nil || u.Scheme == "" {
		return conn
	}
	q := u.Query()
	if q.Has("secret_key") {
		q.Set("secret_key", "xxxxx")
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}
