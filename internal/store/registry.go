package store

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor opens a Store at the given location (a file path for the
// durable drivers, ignored by memory).
type Constructor func(path string) (Store, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register adds a store constructor under the given driver name.
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// Open resolves the driver and opens a store at path.
func Open(driver, path string) (Store, error) {
	mu.RLock()
	ctor, ok := registry[driver]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown store driver: %s", driver)
	}
	return ctor(path)
}

// Drivers returns the names of all registered drivers, sorted.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
