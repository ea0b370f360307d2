package crawler

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Crawler)
)

// Register adds a source adapter under its Name. Registering the same name
// twice panics; adapters register once from their constructors.
func Register(c Crawler) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[c.Name()]; dup {
		panic(fmt.Sprintf("crawler: duplicate registration for %q", c.Name()))
	}
	registry[c.Name()] = c
}

// Get returns the adapter registered under name.
func Get(name string) (Crawler, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("crawler: unknown source %q", name)
	}
	return c, nil
}

// List returns all registered adapters sorted by name.
func List() []Crawler {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Crawler, 0, len(names))
	for _, name := range names {
		out = append(out, registry[name])
	}
	return out
}
