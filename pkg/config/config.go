// Package config loads server and CLI settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML or YAML file, chosen by extension
//  3. THINKOFYOU_* environment variables, after loading a .env file from
//     the working directory if one exists
//
// A minimal thinkofyou.toml:
//
//	[server]
//	listen = ":8080"
//
//	[store]
//	backend = "sqlite"
//	path = "taps.db"
//
//	[[people]]
//	key = "s3cret-sam"
//	name = "Sam"
//	owner = "sam"
//	partner = "alex"
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "THINKOFYOU_"

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Store   StoreConfig   `toml:"store" yaml:"store"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`
	Notify  NotifyConfig  `toml:"notify" yaml:"notify"`
	People  []Person      `toml:"people" yaml:"people"`
	Display DisplayConfig `toml:"display" yaml:"display"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Listen          string `toml:"listen" yaml:"listen"`
	ShutdownTimeout string `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StoreConfig selects the tap store backend.
type StoreConfig struct {
	Backend  string `toml:"backend" yaml:"backend"` // memory, sqlite, redis, mongo
	Path     string `toml:"path" yaml:"path"`
	URL      string `toml:"url" yaml:"url"`
	Database string `toml:"database" yaml:"database"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Backend string `toml:"backend" yaml:"backend"` // null, file, redis
	Dir     string `toml:"dir" yaml:"dir"`
	URL     string `toml:"url" yaml:"url"`
	Prefix  string `toml:"prefix" yaml:"prefix"`
	TTL     string `toml:"ttl" yaml:"ttl"`
}

// NotifyConfig selects where tap events are announced.
type NotifyConfig struct {
	Backend string `toml:"backend" yaml:"backend"` // none, kafka
	Brokers string `toml:"brokers" yaml:"brokers"`
	Topic   string `toml:"topic" yaml:"topic"`
}

// Person maps an access key to who is tapping and whose bubbles they see.
type Person struct {
	Key     string `toml:"key" yaml:"key"`
	Name    string `toml:"name" yaml:"name"`
	Owner   string `toml:"owner" yaml:"owner"`
	Partner string `toml:"partner" yaml:"partner"`
}

// DisplayConfig controls rendering.
type DisplayConfig struct {
	Limit    int     `toml:"limit" yaml:"limit"`
	Width    float64 `toml:"width" yaml:"width"`
	Height   float64 `toml:"height" yaml:"height"`
	TimeZone string  `toml:"timezone" yaml:"timezone"`
}

// Defaults.
const (
	DefaultListen          = ":8080"
	DefaultShutdownTimeout = "10s"
	DefaultStore           = "memory"
	DefaultCache           = "null"
	DefaultCacheTTL        = "10m"
	DefaultNotify          = "none"
	DefaultTopic           = "thinkofyou.taps"
	DefaultLimit           = 40
	DefaultTimeZone        = "Local"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero-valued fields.
func (c *Config) SetDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStore
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = DefaultCache
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Notify.Backend == "" {
		c.Notify.Backend = DefaultNotify
	}
	if c.Notify.Topic == "" {
		c.Notify.Topic = DefaultTopic
	}
	if c.Display.Limit == 0 {
		c.Display.Limit = DefaultLimit
	}
	if c.Display.Width == 0 {
		c.Display.Width = bubble.ReferenceWidth
	}
	if c.Display.Height == 0 {
		c.Display.Height = bubble.ReferenceHeight
	}
	if c.Display.TimeZone == "" {
		c.Display.TimeZone = DefaultTimeZone
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"memory", "sqlite", "redis", "mongo"}, c.Store.Backend) {
		return invalid("store.backend: unknown backend %q", c.Store.Backend)
	}
	switch c.Store.Backend {
	case "sqlite":
		if c.Store.Path == "" {
			return invalid("store.path is required for sqlite")
		}
	case "redis", "mongo":
		if c.Store.URL == "" {
			return invalid("store.url is required for %s", c.Store.Backend)
		}
	}

	if !slices.Contains([]string{"null", "file", "redis"}, c.Cache.Backend) {
		return invalid("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.URL == "" {
		return invalid("cache.url is required for redis")
	}
	if _, err := parseDuration("cache.ttl", c.Cache.TTL); err != nil {
		return err
	}
	if _, err := parseDuration("server.shutdown_timeout", c.Server.ShutdownTimeout); err != nil {
		return err
	}

	if !slices.Contains([]string{"none", "kafka"}, c.Notify.Backend) {
		return invalid("notify.backend: unknown backend %q", c.Notify.Backend)
	}
	if c.Notify.Backend == "kafka" && c.Notify.Brokers == "" {
		return invalid("notify.brokers is required for kafka")
	}

	seen := make(map[string]bool, len(c.People))
	for i, p := range c.People {
		if p.Key == "" {
			return invalid("people[%d].key is required", i)
		}
		if seen[p.Key] {
			return invalid("people[%d].key is duplicated", i)
		}
		seen[p.Key] = true
		if err := errors.ValidateOwner(p.Owner); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "people[%d].owner", i)
		}
		if err := errors.ValidateOwner(p.Partner); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "people[%d].partner", i)
		}
		if p.Owner == p.Partner {
			return invalid("people[%d]: owner and partner must differ", i)
		}
	}

	if c.Display.Limit < 0 {
		return invalid("display.limit must not be negative")
	}
	if err := errors.ValidateSize(c.Display.Width, c.Display.Height); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "display size")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Display.TimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Display.TimeZone)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "display.timezone %q", c.Display.TimeZone)
	}
	return loc, nil
}

// CacheTTL returns the parsed cache TTL.
func (c *Config) CacheTTL() time.Duration {
	d, _ := parseDuration("cache.ttl", c.Cache.TTL)
	return d
}

// ShutdownTimeout returns the parsed server shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := parseDuration("server.shutdown_timeout", c.Server.ShutdownTimeout)
	return d
}

// Load reads path (if non-empty), applies environment overrides, fills
// defaults and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	c := &Config{}
	if path != "" {
		if err := c.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config file")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(c)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return invalid("%s: unknown key %q", filepath.Base(path), undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !stderrors.Is(err, io.EOF) {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
	default:
		return invalid("unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}
	return nil
}

// applyEnv overlays THINKOFYOU_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LISTEN":        &c.Server.Listen,
		"STORE":         &c.Store.Backend,
		"STORE_PATH":    &c.Store.Path,
		"STORE_URL":     &c.Store.URL,
		"STORE_DB":      &c.Store.Database,
		"STORE_PREFIX":  &c.Store.Prefix,
		"CACHE":         &c.Cache.Backend,
		"CACHE_DIR":     &c.Cache.Dir,
		"CACHE_URL":     &c.Cache.URL,
		"CACHE_TTL":     &c.Cache.TTL,
		"NOTIFY":        &c.Notify.Backend,
		"KAFKA_BROKERS": &c.Notify.Brokers,
		"KAFKA_TOPIC":   &c.Notify.Topic,
		"TZ":            &c.Display.TimeZone,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return invalid("%sLIMIT: %v", EnvPrefix, err)
		}
		c.Display.Limit = n
	}
	return nil
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, invalid("%s: invalid duration %q", field, s)
	}
	return d, nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}
