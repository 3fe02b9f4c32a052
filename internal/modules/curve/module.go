package curve

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/plutodigital/curve-subgraph/internal/modules/core"
	"github.com/plutodigital/curve-subgraph/internal/modules/loader"
	"github.com/plutodigital/curve-subgraph/internal/registry"
	"github.com/plutodigital/curve-subgraph/internal/store"
)

// Module materializes StableSwap pool state from registry and pool events.
type Module struct {
	store    store.Store
	reader   registry.StateReader
	manifest *core.Manifest
	logger   zerolog.Logger

	registryAddress common.Address
	config          *Config

	handlers map[common.Hash]handlerFunc
	names    map[common.Hash]string
}

type handlerFunc func(ctx context.Context, event *core.Event) error

// Config represents the module configuration, parsed from the manifest context
type Config struct {
	RegistryAddress string     `yaml:"registryAddress"`
	Pools           []SeedPool `yaml:"pools"`
}

// SeedPool registers a pool that predates the registry's PoolAdded events.
// The name drives reference-asset classification for asset type 3.
type SeedPool struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
}

// NewModule creates the module from a manifest file.
func NewModule(manifestPath string, reader registry.StateReader, logger zerolog.Logger) (*Module, error) {
	manifestLoader := loader.NewManifestLoader(logger)
	manifest, err := manifestLoader.LoadFromFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	return NewModuleFromManifest(manifest, reader, logger)
}

// ParseConfig extracts the module configuration from a manifest context.
func ParseConfig(manifest *core.Manifest) (*Config, error) {
	var config Config
	if manifest.Context != nil {
		contextBytes, _ := yaml.Marshal(manifest.Context)
		if err := yaml.Unmarshal(contextBytes, &config); err != nil {
			return nil, fmt.Errorf("failed to parse module config: %w", err)
		}
	}

	if config.RegistryAddress == "" {
		return nil, fmt.Errorf("manifest context is missing registryAddress")
	}
	config.RegistryAddress = strings.ToLower(config.RegistryAddress)
	for i := range config.Pools {
		config.Pools[i].Address = strings.ToLower(config.Pools[i].Address)
	}

	return &config, nil
}

// NewModuleFromManifest creates the module from an already parsed manifest.
func NewModuleFromManifest(manifest *core.Manifest, reader registry.StateReader, logger zerolog.Logger) (*Module, error) {
	config, err := ParseConfig(manifest)
	if err != nil {
		return nil, err
	}

	module := &Module{
		reader:          reader,
		manifest:        manifest,
		logger:          logger.With().Str("module", manifest.Name).Logger(),
		registryAddress: common.HexToAddress(config.RegistryAddress),
		config:          config,
		handlers:        make(map[common.Hash]handlerFunc),
		names:           make(map[common.Hash]string),
	}

	module.registerEventHandlers()

	return module, nil
}

// Name returns the module name
func (m *Module) Name() string {
	return m.manifest.Name
}

// Version returns the module version
func (m *Module) Version() string {
	return m.manifest.Version
}

// Manifest returns the module manifest
func (m *Module) Manifest() *core.Manifest {
	return m.manifest
}

// Initialize sets up the entity store and registers any seed pools that
// existed before the registry started emitting PoolAdded events.
func (m *Module) Initialize(ctx context.Context, s store.Store) error {
	m.store = s

	startBlock := m.GetStartBlock()
	for _, seed := range m.config.Pools {
		address := common.HexToAddress(seed.Address)
		if _, err := m.store.Pool(ctx, poolID(address)); err == nil {
			continue
		} else if err != store.ErrNotFound {
			return fmt.Errorf("failed to check seed pool %s: %w", seed.Address, err)
		}

		if err := m.createPool(ctx, address, seed.Name, startBlock); err != nil {
			return fmt.Errorf("failed to register seed pool %s: %w", seed.Address, err)
		}
	}

	m.logger.Info().
		Str("registry", m.registryAddress.Hex()).
		Int("seed_pools", len(m.config.Pools)).
		Msg("Curve module initialized")

	return nil
}

// HandleEvent processes a single event log
func (m *Module) HandleEvent(ctx context.Context, log *types.Log, timestamp int64) error {
	event := core.NewEvent(log, timestamp)

	topic0 := event.Topic0()
	if topic0 == (common.Hash{}) {
		return nil
	}

	handler, exists := m.handlers[topic0]
	if !exists {
		return nil
	}

	event.Name = m.names[topic0]

	m.logger.Debug().
		Str("event", event.Name).
		Str("address", event.Address.Hex()).
		Uint64("block", event.BlockNumber).
		Msg("Calling event handler")

	if err := handler(ctx, event); err != nil {
		m.logger.Error().
			Err(err).
			Str("event", event.Name).
			Str("address", event.Address.Hex()).
			Str("tx_hash", event.TransactionHash.Hex()).
			Msg("Handler failed")
		return fmt.Errorf("%s handler: %w", event.Name, err)
	}

	return nil
}

// GetEventFilters returns the event filters this module is interested in
func (m *Module) GetEventFilters() []core.EventFilter {
	filters := make([]core.EventFilter, 0, len(m.handlers))
	for topic := range m.handlers {
		filters = append(filters, core.EventFilter{Topic0: topic.Hex()})
	}
	return filters
}

// GetStartBlock returns the block number from which this module should start processing
func (m *Module) GetStartBlock() uint64 {
	if len(m.manifest.DataSources) > 0 && m.manifest.DataSources[0].Source.StartBlock != nil {
		return *m.manifest.DataSources[0].Source.StartBlock
	}
	return 0
}

func (m *Module) registerEventHandlers() {
	m.register(sigTokenExchange, "TokenExchange", m.handleTokenExchange)
	m.register(sigTokenExchangeUnderlying, "TokenExchangeUnderlying", m.handleTokenExchangeUnderlying)
	m.register(sigRemoveLiquidityOne, "RemoveLiquidityOne", m.handleRemoveLiquidityOne)
	m.register(sigNewAdmin, "NewAdmin", m.handleNewAdmin)
	m.register(sigNewFee, "NewFee", m.handleNewFee)
	m.register(sigNewParameters, "NewParameters", m.handleNewParameters)
	m.register(sigRampA, "RampA", m.handleRampA)
	m.register(sigStopRampA, "StopRampA", m.handleStopRampA)
	m.register(sigPoolAdded, "PoolAdded", m.handlePoolAdded)

	for coins := minPoolCoins; coins <= maxPoolCoins; coins++ {
		m.register(addLiquiditySignature(coins), "AddLiquidity", m.handleAddLiquidity)
		m.register(removeLiquiditySignature(coins), "RemoveLiquidity", m.handleRemoveLiquidity)
		m.register(removeLiquidityImbalanceSignature(coins), "RemoveLiquidityImbalance", m.handleRemoveLiquidityImbalance)
	}
}

func (m *Module) register(signature, name string, handler handlerFunc) {
	topic := core.SignatureTopic(signature)
	m.handlers[topic] = handler
	m.names[topic] = name
}

// poolName resolves the configured pool name used for reference-asset
// classification. Pools without a configured name classify as OTHER.
func (m *Module) poolName(address common.Address) string {
	id := poolID(address)
	for _, seed := range m.config.Pools {
		if seed.Address == id {
			return seed.Name
		}
	}
	return ""
}

func poolID(address common.Address) string {
	return strings.ToLower(address.Hex())
}
