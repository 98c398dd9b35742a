// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sigcache holds the cross-stage signal cache: one entry per
// reference key, written by the resolve stage and extended in place by the
// grounding stage. Passes run workers concurrently, so all mutation goes
// through the cache's lock and merges by key without clobbering sibling
// fields.
package sigcache

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/pdiddy/citegate/pkg/types"
)

// Cache is the keyed signal map plus its backing file path.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]types.CacheEntry
}

// Load reads the cache at path. A missing or corrupt file yields an empty
// cache: the cache is derived state and every reader must tolerate absent
// entries anyway.
func Load(path string) *Cache {
	c := &Cache{path: path, entries: make(map[string]types.CacheEntry)}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		c.entries = make(map[string]types.CacheEntry)
	}
	return c
}

// Get returns the entry for key and whether it exists.
func (c *Cache) Get(key string) (types.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// SetResolution overwrites the resolution fields of key's entry while
// preserving any ground signals a previous grounding run attached.
func (c *Cache) SetResolution(key string, entry types.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[key]; ok && entry.GroundSignals == nil {
		entry.GroundSignals = prev.GroundSignals
	}
	c.entries[key] = entry
}

// SetGroundSignals attaches ground signals to key's entry, creating a
// stub entry when resolution has not run, and never touching the
// resolution fields.
func (c *Cache) SetGroundSignals(key string, gs types.GroundSignals) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := c.entries[key]
	entry.GroundSignals = &gs
	c.entries[key] = entry
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache atomically to its backing file.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding signal cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing signal cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}
