package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Factory builds an unconnected adapter.
type Factory func(*slog.Logger) Adapter

var (
	// ErrNoDriver is returned when no schema driver is configured.
	ErrNoDriver = errors.New("schema driver not specified")
	// ErrUnknownDriver is wrapped by UnknownAdapterError.
	ErrUnknownDriver = errors.New("unknown schema driver")
)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes a catalog adapter available under name. Adapter packages
// call it from init(); registering a name twice replaces the factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[strings.ToLower(name)] = factory
}

// Get returns the factory registered under name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := factories[strings.ToLower(name)]
	return f, ok
}

// NewAdapter creates the adapter for cfg.Type. A nil logger discards.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, ErrNoDriver
	}
	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger), nil
}

// ListAdapters returns the registered driver names, sorted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// UnknownAdapterError reports a schema driver nobody registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("%s %q (available: %s); check schema_driver in leaplineage.yaml",
		ErrUnknownDriver, e.Type, strings.Join(e.Available, ", "))
}

func (e *UnknownAdapterError) Unwrap() error {
	return ErrUnknownDriver
}
