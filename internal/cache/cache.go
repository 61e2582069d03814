// Package cache stores raw upstream responses keyed by request parameters.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// Cache is a byte-oriented TTL cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key builds a stable key from request parameters. Parameters named in
// exclude (such as credentials) do not contribute.
func Key(prefix string, params map[string]string, exclude ...string) string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	names := make([]string, 0, len(params))
	for k := range params {
		if !skip[k] {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
		b.WriteByte('&')
	}
	sum := sha1.Sum([]byte(b.String()))
	return prefix + "_" + hex.EncodeToString(sum[:])
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
