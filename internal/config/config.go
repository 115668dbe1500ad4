// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package config loads the immutable runtime configuration for accountd.
//
// Precedence, lowest to highest: compiled-in defaults, an optional YAML
// config file, command-line flags. The resulting Config is assembled once
// at startup and passed into constructors; nothing reads configuration
// ad hoc at request time.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default token lifetimes, used when the config leaves them unset.
const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Config holds all runtime settings for the accountd server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	JWT      JWTConfig      `koanf:"jwt"`
	SMTP     SMTPConfig     `koanf:"smtp"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string `koanf:"addr"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `koanf:"format"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// RedisConfig holds settings for the transient challenge store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// JWTConfig holds token signing settings. AccessTTL and RefreshTTL fall
// back to DefaultAccessTTL/DefaultRefreshTTL when zero.
type JWTConfig struct {
	Secret     string        `koanf:"secret"`
	Issuer     string        `koanf:"issuer"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	FromName string `koanf:"from_name"`
}

// Flags registers the configuration flags on the given flag set. The flag
// defaults double as the configuration defaults.
func Flags(fs *pflag.FlagSet) {
	fs.String("server.addr", ":8080", "HTTP listen address")
	fs.String("server.metrics_addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	fs.String("log.format", "json", "log format (json or text)")
	fs.String("database.url", "", "PostgreSQL connection URL")
	fs.String("redis.addr", "localhost:6379", "redis address for the challenge cache")
	fs.String("redis.password", "", "redis password")
	fs.Int("redis.db", 1, "redis database number")
	fs.String("jwt.secret", "", "HMAC secret for signing tokens")
	fs.String("jwt.issuer", "accountd", "token issuer name")
	fs.Duration("jwt.access_ttl", DefaultAccessTTL, "access token lifetime")
	fs.Duration("jwt.refresh_ttl", DefaultRefreshTTL, "refresh token lifetime")
	fs.String("smtp.host", "", "SMTP host for challenge code delivery")
	fs.Int("smtp.port", 465, "SMTP port")
	fs.String("smtp.username", "", "SMTP username")
	fs.String("smtp.password", "", "SMTP password")
	fs.String("smtp.from", "", "sender address for outbound mail")
	fs.String("smtp.from_name", "Account Service", "sender display name")
}

// Load builds a Config from the optional YAML file at path and the given
// flag set. Flags that were explicitly set override file values.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.JWT.AccessTTL <= 0 {
		c.JWT.AccessTTL = DefaultAccessTTL
	}
	if c.JWT.RefreshTTL <= 0 {
		c.JWT.RefreshTTL = DefaultRefreshTTL
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate checks that the settings required to serve are present.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	if c.Redis.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("redis.addr is required")
	}
	if c.JWT.Secret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("jwt.secret is required")
	}
	return nil
}
