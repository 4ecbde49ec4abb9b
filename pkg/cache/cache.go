// Package cache stores rendered artifacts so repeated requests for an
// unchanged snapshot skip the layout and serialization work.
//
// Three backends are provided:
//   - [NullCache]: never stores anything (the default)
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: shared storage for multi-instance deployments
//
// Keys are produced by a [Keyer] so every caller hashes the same inputs the
// same way:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.ArtifactKey("sam", cache.ArtifactKeyOpts{
//	    IDs: bubble.IDs(records), Width: 900, Height: 680, Format: "svg",
//	})
//	if data, ok, _ := c.Get(ctx, key); ok {
//	    return data
//	}
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// A miss is reported as (nil, false, nil); errors are reserved for
// backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey identifies a rendered artifact of an owner's snapshot.
	// The record ids are part of the key, so a new tap never hits a stale
	// entry and nothing needs invalidating.
	ArtifactKey(owner string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	IDs      []string `json:"ids"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Format   string   `json:"format"`
	TimeZone string   `json:"tz,omitempty"`
	Style    string   `json:"style,omitempty"`
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey returns "artifact:<owner>:<hash(opts)>".
func (DefaultKeyer) ArtifactKey(owner string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+owner, opts)
}

// NullCache misses on every Get and drops every Set.
type NullCache struct{}

// NewNullCache returns the disabled cache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error  { return nil }
func (NullCache) Delete(context.Context, string) error                      { return nil }
func (NullCache) Close() error                                              { return nil }

var (
	_ Keyer = DefaultKeyer{}
	_ Cache = NullCache{}
)
