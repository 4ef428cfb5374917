package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/randalmurphal/lazyreg/pkg/lazyreg/registry"
)

// CacheConfig configures a Cache.
type CacheConfig struct {
	// MaxEntries caps the number of keys. Zero means unbounded.
	MaxEntries int
}

// Cache is a shared in-memory store of JSON documents. Values are addressed
// by key, and fields inside a document by gjson path syntax ("profile.name",
// "tags.0").
type Cache struct {
	guard      registry.InitGuard
	id         string
	maxEntries int

	mu   sync.RWMutex
	data map[string][]byte
}

// Init prepares an empty cache. A second call after a successful one changes
// nothing, including the cached documents.
func (c *Cache) Init(cfg CacheConfig) error {
	_, err := c.guard.Do(func() error {
		c.id = uuid.NewString()
		c.maxEntries = cfg.MaxEntries
		c.mu.Lock()
		c.data = make(map[string][]byte)
		c.mu.Unlock()
		return nil
	})
	return err
}

// Set stores v, encoded as JSON, under key.
func (c *Cache) Set(key string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.SetRaw(key, doc)
}

// SetRaw stores a JSON document under key. The document is copied.
func (c *Cache) SetRaw(key string, doc []byte) error {
	if !gjson.ValidBytes(doc) {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		return ErrNotInitialized
	}
	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		return ErrCacheFull
	}

	stored := make([]byte, len(doc))
	copy(stored, doc)
	c.data[key] = stored
	return nil
}

// Get returns a copy of the document stored under key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.data[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, true
}

// Lookup returns the value at path inside the document stored under key.
func (c *Cache) Lookup(key, path string) (gjson.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.data[key]
	if !ok {
		return gjson.Result{}, false
	}
	res := gjson.GetBytes(doc, path)
	return res, res.Exists()
}

// Update sets the value at path inside the document stored under key.
func (c *Cache) Update(key, path string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.data[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	updated, err := sjson.SetBytes(doc, path, v)
	if err != nil {
		return fmt.Errorf("update %s at %s: %w", key, path, err)
	}
	c.data[key] = updated
	return nil
}

// Delete removes key and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.data[key]; !ok {
		return false
	}
	delete(c.data, key)
	return true
}

// Clear removes every document.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// ID returns the identifier assigned by Init.
func (c *Cache) ID() string {
	return c.id
}

// NewCache returns a constructor for a Cache.
func NewCache(cfg CacheConfig) registry.Constructor[*Cache] {
	return func(_ context.Context) (*Cache, error) {
		c := &Cache{}
		if err := c.Init(cfg); err != nil {
			return nil, err
		}
		return c, nil
	}
}
