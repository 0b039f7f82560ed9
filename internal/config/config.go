// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

// Package config loads sessiongate settings from defaults, an optional YAML
// file, the environment and command-line flags, in that order of precedence.
package config

import (
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

// Default values.
const (
	DefaultHTTPAddr  = "0.0.0.0:5000"
	DefaultLogFormat = "json"
	DefaultLogLevel  = "info"

	envPrefix = "SESSIONGATE_"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the complete server configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Database DatabaseConfig `koanf:"database"`
	Store    StoreConfig    `koanf:"store"`
	Auth     AuthConfig     `koanf:"auth"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr           string        `koanf:"addr"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	WebDir         string        `koanf:"web_dir"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	User           string        `koanf:"user"`
	Password       string        `koanf:"password"`
	Name           string        `koanf:"name"`
	SSLMode        string        `koanf:"sslmode"`
	MaxConns       int32         `koanf:"max_conns"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
}

// StoreConfig selects the credential store backend.
type StoreConfig struct {
	Driver string `koanf:"driver"`
}

// AuthConfig configures hashing and token issuance.
type AuthConfig struct {
	TokenSecret string        `koanf:"token_secret"`
	TokenTTL    time.Duration `koanf:"token_ttl"`
	BcryptCost  int           `koanf:"bcrypt_cost"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

func defaults() map[string]any {
	return map[string]any{
		"http.addr":                DefaultHTTPAddr,
		"http.allowed_origins":     []string{"http://localhost:3000"},
		"http.web_dir":             "",
		"http.read_timeout":        15 * time.Second,
		"http.write_timeout":       15 * time.Second,
		"database.host":            "localhost",
		"database.port":            5432,
		"database.user":            "sessiongate",
		"database.password":        "",
		"database.name":            "sessiongate",
		"database.sslmode":         "disable",
		"database.max_conns":       10,
		"database.connect_timeout": 30 * time.Second,
		"database.auto_migrate":    true,
		"store.driver":             DriverPostgres,
		"auth.token_secret":        "",
		"auth.token_ttl":           24 * time.Hour,
		"auth.bcrypt_cost":         bcrypt.DefaultCost,
		"metrics.addr":             "",
		"log.format":               DefaultLogFormat,
		"log.level":                DefaultLogLevel,
	}
}

// envAliases maps the unprefixed variable names used by earlier deployments.
var envAliases = map[string]string{
	"DB_HOST":     "database.host",
	"DB_PORT":     "database.port",
	"DB_USER":     "database.user",
	"DB_PASSWORD": "database.password",
	"DB_NAME":     "database.name",
	"JWT_SECRET":  "auth.token_secret",
	"PORT":        "http.addr",
}

// flagKeys maps flags registered by RegisterFlags to config keys.
var flagKeys = map[string]string{
	"addr":         "http.addr",
	"web-dir":      "http.web_dir",
	"store":        "store.driver",
	"auto-migrate": "database.auto_migrate",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
}

// RegisterFlags adds the config-backed flags to fs. Flags override every
// other source, but only when set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", DefaultHTTPAddr, "HTTP listen address")
	fs.String("web-dir", "", "directory of a built single-page UI to serve (empty = disabled)")
	fs.String("store", DriverPostgres, "credential store driver (postgres or memory)")
	fs.Bool("auto-migrate", true, "apply pending database migrations at startup")
	fs.String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
}

// Load builds a Config. path may be empty, in which case no file is read.
// fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", aliasEnv), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	prefixed := prefixedEnvKeys()
	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(name, value string) (string, any) {
		key, ok := prefixed[name]
		if !ok {
			return "", nil
		}
		return key, envValue(key, value)
	}), nil)
	if err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if fs != nil {
		err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		}), nil)
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	return &cfg, nil
}

func aliasEnv(name, value string) (string, any) {
	key, ok := envAliases[name]
	if !ok || value == "" {
		return "", nil
	}
	if name == "PORT" {
		return key, net.JoinHostPort("0.0.0.0", value)
	}
	return key, envValue(key, value)
}

// prefixedEnvKeys returns SESSIONGATE_HTTP_ADDR style names for every key.
func prefixedEnvKeys() map[string]string {
	keys := make(map[string]string)
	for key := range defaults() {
		name := envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		keys[name] = key
	}
	return keys
}

func envValue(key, value string) any {
	if key == "http.allowed_origins" {
		var origins []string
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		return origins
	}
	return value
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "is required")
	}
	for _, origin := range c.HTTP.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return invalid("http.allowed_origins", "entries must be '*' or start with http:// or https://, got %q", origin)
		}
	}
	if c.Auth.TokenSecret == "" {
		return invalid("auth.token_secret", "is required (set JWT_SECRET or SESSIONGATE_AUTH_TOKEN_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return invalid("auth.token_ttl", "must be positive")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return invalid("auth.bcrypt_cost", "must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := c.LogLevel(); err != nil {
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return invalid("database", "host and name are required for the postgres store")
		}
		if c.Database.MaxConns <= 0 {
			return invalid("database.max_conns", "must be positive")
		}
	case DriverMemory:
	default:
		return invalid("store.driver", "must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Store.Driver)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, oops.Code("CONFIG_INVALID").With("key", "log.level").Wrap(err)
	}
	return level, nil
}

// URL returns the PostgreSQL connection URL.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(key+" "+format, args...)
}
