// Package access maps shared-secret keys to identities.
//
// A key is a bearer token passed as the k query parameter (or the
// X-Access-Key header). It is a convenience gate, not a security boundary:
// anyone holding the URL holds the identity.
package access

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/matzehuels/thinkofyou/pkg/errors"
)

// Identity is who a key belongs to. Owner is the stream the holder taps
// into; Partner is the stream they watch.
type Identity struct {
	Key     string
	Name    string
	Owner   string
	Partner string
}

// Keys resolves access keys.
type Keys struct {
	ids []Identity
}

// NewKeys validates identities and builds a resolver.
func NewKeys(ids ...Identity) (*Keys, error) {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id.Key == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "access key for %q is empty", id.Owner)
		}
		if seen[id.Key] {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "access key for %q is duplicated", id.Owner)
		}
		seen[id.Key] = true
		if err := errors.ValidateOwner(id.Owner); err != nil {
			return nil, err
		}
		if err := errors.ValidateOwner(id.Partner); err != nil {
			return nil, err
		}
	}
	return &Keys{ids: ids}, nil
}

// Len returns the number of configured keys.
func (k *Keys) Len() int { return len(k.ids) }

// Resolve returns the identity for key. Every configured key is compared in
// constant time so the lookup does not leak which prefix matched.
func (k *Keys) Resolve(key string) (Identity, error) {
	var (
		found Identity
		ok    bool
	)
	for _, id := range k.ids {
		if subtle.ConstantTimeCompare([]byte(id.Key), []byte(key)) == 1 {
			found, ok = id, true
		}
	}
	if !ok || key == "" {
		return Identity{}, errors.New(errors.ErrCodeUnauthorized, "unknown access key")
	}
	return found, nil
}

type ctxKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity attached by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// KeyFromRequest extracts the access key from the query or header.
func KeyFromRequest(r *http.Request) string {
	if k := r.URL.Query().Get("k"); k != "" {
		return k
	}
	return r.Header.Get("X-Access-Key")
}

// Middleware rejects requests without a valid key and attaches the identity
// otherwise. onDenied writes the rejection.
func (k *Keys) Middleware(onDenied func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := k.Resolve(KeyFromRequest(r))
			if err != nil {
				onDenied(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
