// Package schemacache memoizes project field schema lookups for a bounded
// time window.
//
// Entries are keyed by a hash of the fetch kind, the local project, the
// tracker URL and project reference, and the sorted ignored-field set. Fetches are not serialized: two concurrent misses for
// the same key both call the fetcher and the last write wins. Failed fetches
// are never stored.
package schemacache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/TWRT/issue-bridge/internal/models"
)

// DefaultTTL is how long a fetched schema stays valid.
const DefaultTTL = 600 * time.Second

// KindProjectFields tags keys produced for project custom field lookups.
const KindProjectFields = "project_fields"

// FetchFunc loads the schema from the tracker on a cache miss.
type FetchFunc func(ctx context.Context) ([]models.FieldSchema, error)

// Key identifies one cached lookup. Scope is the local project the lookup
// was made for; two local projects never share an entry even when they point
// at the same tracker project.
type Key struct {
	Kind         string
	Scope        string
	TrackerURL   string
	ProjectRef   string
	IgnoreFields []string
}

// ProjectFieldsKey builds the key for a project custom field lookup.
func ProjectFieldsKey(scope, trackerURL, projectRef string, ignoreFields []string) Key {
	return Key{
		Kind:         KindProjectFields,
		Scope:        scope,
		TrackerURL:   strings.TrimRight(trackerURL, "/"),
		ProjectRef:   projectRef,
		IgnoreFields: ignoreFields,
	}
}

// Hash returns a stable hex digest of the key. The ignored set is sorted
// first so that ordering differences map to the same entry.
func (k Key) Hash() string {
	ignored := slices.Clone(k.IgnoreFields)
	slices.Sort(ignored)
	ignored = slices.Compact(ignored)
	if ignored == nil {
		ignored = []string{}
	}

	b, _ := json.Marshal(struct {
		Kind    string   `json:"kind"`
		Scope   string   `json:"scope"`
		URL     string   `json:"url"`
		Project string   `json:"project"`
		Ignored []string `json:"ignored"`
	}{k.Kind, k.Scope, k.TrackerURL, k.ProjectRef, ignored})

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

type Entry struct {
	Key       string
	Scope     string
	Value     []models.FieldSchema
	ExpiresAt time.Time
}

type Cache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]Entry
}

type Option func(*Cache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached schema for k, calling fetch only when no live entry
// exists.
func (c *Cache) Get(ctx context.Context, k Key, fetch FetchFunc) ([]models.FieldSchema, error) {
	key := k.Hash()

	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = Entry{Key: key, Scope: k.Scope, Value: v, ExpiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return v, nil
}

func (c *Cache) lookup(key string) ([]models.FieldSchema, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.ExpiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.Value, true
}

// Invalidate drops every entry stored for the local project scope.
func (c *Cache) Invalidate(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.Scope == scope {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
