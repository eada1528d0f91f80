package indexer

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
)

// Factory is a function that creates a new managed index instance.
type Factory func(cfg config.IndexConfig, log *logger.Logger) (ManagedIndex, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register registers a managed index factory with the given type name.
// This is typically called in init() functions of index packages.
// The type name is case-insensitive and will be stored in lowercase.
func Register(indexType string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	name := strings.ToLower(indexType)
	if _, exists := registry[name]; exists {
		logger.GetDefaultLogger().Infof("index type %s already in index registry. "+
			"It will be overwritten.", name)
	}

	registry[name] = factory
}

// GetFactory returns the factory for the given index type.
// Returns nil if the type is not registered.
// The lookup is case-insensitive.
func GetFactory(indexType string) Factory {
	mu.RLock()
	defer mu.RUnlock()
	return registry[strings.ToLower(indexType)]
}

// ListRegistered returns the sorted list of all registered index types.
func ListRegistered() []string {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	slices.Sort(types)

	return types
}

// Create creates a new managed index using the factory registered for cfg.Type.
// Returns an error if the type is not registered, if creation fails, or if the
// index reports a name other than the configured one.
func Create(cfg config.IndexConfig, log *logger.Logger) (ManagedIndex, error) {
	factory := GetFactory(cfg.Type)
	if factory == nil {
		return nil, fmt.Errorf("unknown index type: %s (registered types: %v)", cfg.Type, ListRegistered())
	}

	idx, err := factory(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s index %s: %w", cfg.Type, cfg.Name, err)
	}

	if idx.Name() != cfg.Name {
		return nil, fmt.Errorf("%s index reports name %q, configured as %q", cfg.Type, idx.Name(), cfg.Name)
	}

	return idx, nil
}
