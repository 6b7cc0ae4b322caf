package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]FeedDefinition)
	registryMu sync.RWMutex
)

// Register adds a feed definition to the registry.
// Panics if the definition is invalid or its key is already registered.
func Register(def FeedDefinition) {
	if err := def.Validate(); err != nil {
		panic(err.Error())
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("feed already registered: %s", def.Key))
	}

	registry[def.Key] = def
}

// Replace swaps the registered definitions for defs. Used when layouts are
// loaded from an external file at startup.
func Replace(defs []FeedDefinition) error {
	next := make(map[string]FeedDefinition, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
		if _, exists := next[def.Key]; exists {
			return fmt.Errorf("%w: duplicate feed key %q", ErrInvalidLayout, def.Key)
		}
		next[def.Key] = def
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	registry = next
	return nil
}

// Get returns a feed definition by key.
// Returns false if not found.
func Get(key string) (FeedDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered feed definitions.
// Sorted by load order then by key for consistent ordering.
func All() []FeedDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]FeedDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// FeedCount returns the number of registered feeds.
func FeedCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered feeds.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]FeedDefinition)
}
