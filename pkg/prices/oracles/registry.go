package oracles

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
)

// Factory builds an oracle from its config block.
type Factory func(name string, cfg map[string]interface{}, logger *logging.Logger) (Oracle, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register adds an oracle factory to the registry
func Register(oracleType string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[oracleType] = factory
}

// Create creates a new oracle instance by type
func Create(oracleType, name string, cfg map[string]interface{}, logger *logging.Logger) (Oracle, error) {
	mu.RLock()
	factory, ok := registry[oracleType]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOracle, oracleType)
	}

	if name == "" {
		name = oracleType
	}
	if cfg == nil {
		cfg = map[string]interface{}{}
	}
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return factory(name, cfg, logger.With("oracle", name))
}

// List returns all registered oracle types
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build creates the enabled oracles in configured order. The returned
// slice is never mutated afterwards.
func Build(cfgs []config.OracleConfig, logger *logging.Logger) ([]Oracle, error) {
	out := make([]Oracle, 0, len(cfgs))
	for _, oc := range cfgs {
		if !oc.Enabled {
			continue
		}
		o, err := Create(oc.Type, oc.Name, oc.Config, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create oracle %s: %w", oc.Name, err)
		}
		logger.Info("Oracle created", "type", oc.Type, "name", o.Name())
		out = append(out, o)
	}
	return out, nil
}
