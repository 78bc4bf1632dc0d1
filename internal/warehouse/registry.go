package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// Options carries backend settings that are not part of the connection target.
type Options struct {
	// InsertMethod selects COPY or VALUES on PostgreSQL. Other engines ignore it.
	InsertMethod string
	Logger       snapload.Logger
}

// Factory opens a warehouse for a resolved connection configuration.
type Factory func(ctx context.Context, cfg *snapload.ConnectionConfig, opts Options) (snapload.Warehouse, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available under engine. Backends call it from init.
// It panics on an empty engine name, a nil factory or a duplicate registration.
func Register(engine string, factory Factory) {
	engine = strings.ToLower(strings.TrimSpace(engine))
	if engine == "" {
		panic("warehouse: Register called with empty engine name")
	}
	if factory == nil {
		panic("warehouse: Register called with nil factory for " + engine)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[engine]; dup {
		panic("warehouse: Register called twice for " + engine)
	}
	registry[engine] = factory
}

// Open resolves cfg.Engine (aliases included) and opens the matching backend.
func Open(ctx context.Context, cfg *snapload.ConnectionConfig, opts Options) (snapload.Warehouse, error) {
	if cfg == nil {
		return nil, fmt.Errorf("connection config is nil: %w", snapload.ErrInvalidConfig)
	}
	engine := snapload.CanonicalEngine(cfg.Engine)

	registryMu.RLock()
	factory, ok := registry[engine]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("engine %q (registered: %s): %w",
			engine, strings.Join(Engines(), ", "), snapload.ErrUnsupportedEngine)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NewNullLogger()
	}
	if opts.InsertMethod == "" {
		opts.InsertMethod = snapload.DefaultInsertMethod
	}
	return factory(ctx, cfg, opts)
}

// Engines returns the registered engine names in sorted order.
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe renders the label backends return from Warehouse.Describe,
// for example "postgresql (localhost:15432/nyc_warehouse)".
func Describe(cfg *snapload.ConnectionConfig) string {
	return fmt.Sprintf("%s (%s)", snapload.CanonicalEngine(cfg.Engine), cfg.Target())
}
