package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/thinkofyou/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, ":8080", c.Server.Listen)
	assert.Equal(t, "memory", c.Store.Backend)
	assert.Equal(t, "null", c.Cache.Backend)
	assert.Equal(t, "none", c.Notify.Backend)
	assert.Equal(t, 40, c.Display.Limit)
	assert.Equal(t, 900.0, c.Display.Width)
	assert.Equal(t, 680.0, c.Display.Height)
	assert.Equal(t, "Local", c.Display.TimeZone)
	assert.Equal(t, 10*time.Minute, c.CacheTTL())
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout())
	require.NoError(t, c.Validate())
}

const tomlConfig = `
[server]
listen = ":9090"

[store]
backend = "sqlite"
path = "taps.db"

[display]
limit = 12
timezone = "UTC"

[[people]]
key = "k-sam"
name = "Sam"
owner = "sam"
partner = "alex"

[[people]]
key = "k-alex"
name = "Alex"
owner = "alex"
partner = "sam"
`

const yamlConfig = `
server:
  listen: ":9090"
store:
  backend: sqlite
  path: taps.db
display:
  limit: 12
  timezone: UTC
people:
  - key: k-sam
    name: Sam
    owner: sam
    partner: alex
  - key: k-alex
    name: Alex
    owner: alex
    partner: sam
`

func TestLoadFormats(t *testing.T) {
	for _, tt := range []struct{ name, content string }{
		{"thinkofyou.toml", tomlConfig},
		{"thinkofyou.yaml", yamlConfig},
		{"thinkofyou.yml", yamlConfig},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeFile(t, tt.name, tt.content))
			require.NoError(t, err)

			assert.Equal(t, ":9090", c.Server.Listen)
			assert.Equal(t, "sqlite", c.Store.Backend)
			assert.Equal(t, "taps.db", c.Store.Path)
			assert.Equal(t, 12, c.Display.Limit)
			require.Len(t, c.People, 2)
			assert.Equal(t, Person{Key: "k-sam", Name: "Sam", Owner: "sam", Partner: "alex"}, c.People[0])

			// Untouched sections still get defaults.
			assert.Equal(t, "null", c.Cache.Backend)
			assert.Equal(t, 900.0, c.Display.Width)

			loc, err := c.Location()
			require.NoError(t, err)
			assert.Equal(t, time.UTC, loc)
		})
	}
}

func TestLoadNoFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultListen, c.Server.Listen)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "c.json", `{}`},
		{"bad toml", "c.toml", `[server`},
		{"unknown toml key", "c.toml", "[server]\nlistne = \":1\"\n"},
		{"unknown yaml key", "c.yaml", "server:\n  listne: \":1\"\n"},
		{"invalid backend", "c.toml", "[store]\nbackend = \"postgres\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("THINKOFYOU_LISTEN", ":7000")
	t.Setenv("THINKOFYOU_STORE", "redis")
	t.Setenv("THINKOFYOU_STORE_URL", "redis://localhost:6379/0")
	t.Setenv("THINKOFYOU_LIMIT", "5")
	t.Setenv("THINKOFYOU_TZ", "UTC")

	c, err := Load(writeFile(t, "c.toml", tomlConfig))
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.Server.Listen)
	assert.Equal(t, "redis", c.Store.Backend)
	assert.Equal(t, "redis://localhost:6379/0", c.Store.URL)
	assert.Equal(t, 5, c.Display.Limit)
}

func TestEnvBadLimit(t *testing.T) {
	t.Setenv("THINKOFYOU_LIMIT", "lots")
	_, err := Load("")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestValidate(t *testing.T) {
	person := Person{Key: "k", Owner: "sam", Partner: "alex"}
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"sqlite without path", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"redis without url", func(c *Config) { c.Store.Backend = "redis" }},
		{"mongo without url", func(c *Config) { c.Store.Backend = "mongo" }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis cache without url", func(c *Config) { c.Cache.Backend = "redis" }},
		{"bad ttl", func(c *Config) { c.Cache.TTL = "soon" }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = "-1m" }},
		{"bad shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = "x" }},
		{"unknown notify", func(c *Config) { c.Notify.Backend = "sns" }},
		{"kafka without brokers", func(c *Config) { c.Notify.Backend = "kafka" }},
		{"empty key", func(c *Config) { c.People = []Person{{Owner: "sam", Partner: "alex"}} }},
		{"duplicate key", func(c *Config) { c.People = []Person{person, person} }},
		{"bad owner", func(c *Config) { c.People = []Person{{Key: "k", Owner: "Sam!", Partner: "alex"}} }},
		{"bad partner", func(c *Config) { c.People = []Person{{Key: "k", Owner: "sam"}} }},
		{"self partner", func(c *Config) { c.People = []Person{{Key: "k", Owner: "sam", Partner: "sam"}} }},
		{"negative limit", func(c *Config) { c.Display.Limit = -1 }},
		{"tiny canvas", func(c *Config) { c.Display.Width = 1 }},
		{"bad timezone", func(c *Config) { c.Display.TimeZone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
		})
	}

	c := Default()
	c.People = []Person{person}
	assert.NoError(t, c.Validate())
}
