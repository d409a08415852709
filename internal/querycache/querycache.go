// Package querycache is a read-through cache keyed by hierarchical query
// keys. Mutations invalidate whole key groups and the next read refetches;
// there is no versioning or conflict resolution.
package querycache

import (
	"strings"
	"sync"
)

const sep = "/"

// Query key builders. Keys form a hierarchy so that invalidating "patients"
// also drops "patients/id/42".
func PatientsAll() string                    { return "patients" }
func PatientByID(id string) string           { return "patients" + sep + "id" + sep + id }
func PatientsByUser(userID string) string    { return "patients" + sep + "user" + sep + userID }
func TreatmentsByPatient(pid string) string  { return "treatments" + sep + "patient" + sep + pid }
func NotesByAssociation(assoc string) string { return "notes" + sep + "association" + sep + assoc }

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
}

func New() *Cache {
	return &Cache{entries: map[string]any{}}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Invalidate drops the key itself and every key beneath it.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key == prefix || strings.HasPrefix(key, prefix+sep) {
			delete(c.entries, key)
		}
	}
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]any{}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Lookup reads a typed value from the cache; a miss or a type mismatch both
// count as a miss.
func Lookup[T any](c *Cache, key string) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
