package core

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutodigital/curve-subgraph/internal/store"
)

// fakeModule records the logs routed to it.
type fakeModule struct {
	name       string
	filters    []EventFilter
	startBlock uint64
	handled    []*types.Log
	handleErr  error
}

func (m *fakeModule) Name() string    { return m.name }
func (m *fakeModule) Version() string { return "0.0.1" }

func (m *fakeModule) Manifest() *Manifest {
	return &Manifest{
		Name:    m.name,
		Version: "0.0.1",
		DataSources: []DataSource{{
			Kind:   "ethereum/contract",
			Name:   "Test",
			Source: DataSourceSource{ABI: "Test"},
			Mapping: DataSourceMapping{
				EventHandlers: []EventHandler{{Event: "Ping()", Handler: "handlePing"}},
			},
		}},
	}
}

func (m *fakeModule) Initialize(_ context.Context, _ store.Store) error { return nil }

func (m *fakeModule) HandleEvent(_ context.Context, log *types.Log, _ int64) error {
	m.handled = append(m.handled, log)
	return m.handleErr
}

func (m *fakeModule) GetEventFilters() []EventFilter { return m.filters }
func (m *fakeModule) GetStartBlock() uint64          { return m.startBlock }

func newTestRegistry(t *testing.T, modules ...*fakeModule) *ModuleRegistry {
	t.Helper()
	registry := NewModuleRegistry(store.NewMemory(), zerolog.Nop())
	for _, module := range modules {
		require.NoError(t, registry.RegisterModule(module))
	}
	require.NoError(t, registry.Start())
	return registry
}

func TestRegisterModuleRejectsDuplicates(t *testing.T) {
	module := &fakeModule{name: "dup", filters: []EventFilter{{Topic0: "0xabc"}}}
	registry := NewModuleRegistry(store.NewMemory(), zerolog.Nop())

	require.NoError(t, registry.RegisterModule(module))
	err := registry.RegisterModule(module)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterModuleValidatesManifest(t *testing.T) {
	bad := &Manifest{Name: "bad"} // missing version and data sources
	require.Error(t, bad.ValidateManifest())

	noHandlers := &Manifest{
		Name:    "bad",
		Version: "0.0.1",
		DataSources: []DataSource{{
			Kind:   "ethereum/contract",
			Name:   "Test",
			Source: DataSourceSource{ABI: "Test"},
		}},
	}
	require.Error(t, noHandlers.ValidateManifest())
}

func TestProcessEventRoutesByTopic(t *testing.T) {
	topic := SignatureTopic("Ping()")
	interested := &fakeModule{name: "interested", filters: []EventFilter{{Topic0: topic.Hex()}}}
	other := &fakeModule{name: "other", filters: []EventFilter{{Topic0: SignatureTopic("Pong()").Hex()}}}
	registry := newTestRegistry(t, interested, other)

	log := &types.Log{
		Address: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Topics:  []common.Hash{topic},
	}
	require.NoError(t, registry.ProcessEvent(context.Background(), log, 1620000000))

	assert.Len(t, interested.handled, 1)
	assert.Empty(t, other.handled)
}

func TestProcessEventRoutesByAddress(t *testing.T) {
	address := common.HexToAddress("0x3333333333333333333333333333333333333333")
	module := &fakeModule{name: "addr", filters: []EventFilter{{Address: address.Hex()}}}
	registry := newTestRegistry(t, module)

	log := &types.Log{
		Address: address,
		Topics:  []common.Hash{SignatureTopic("Unrelated()")},
	}
	require.NoError(t, registry.ProcessEvent(context.Background(), log, 1620000000))
	assert.Len(t, module.handled, 1)

	// Logs from other contracts are ignored.
	log2 := &types.Log{
		Address: common.HexToAddress("0x4444444444444444444444444444444444444444"),
		Topics:  []common.Hash{SignatureTopic("Unrelated()")},
	}
	require.NoError(t, registry.ProcessEvent(context.Background(), log2, 1620000000))
	assert.Len(t, module.handled, 1)
}

func TestProcessEventPropagatesHandlerError(t *testing.T) {
	topic := SignatureTopic("Ping()")
	module := &fakeModule{
		name:      "failing",
		filters:   []EventFilter{{Topic0: topic.Hex()}},
		handleErr: ErrInvalidEvent{Reason: "missing coin"},
	}
	registry := newTestRegistry(t, module)

	log := &types.Log{Topics: []common.Hash{topic}}
	err := registry.ProcessEvent(context.Background(), log, 1620000000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Contains(t, err.Error(), "missing coin")
}

func TestTopicFilters(t *testing.T) {
	pingTopic := SignatureTopic("Ping()")
	pongTopic := SignatureTopic("Pong()")
	module := &fakeModule{
		name: "topics",
		filters: []EventFilter{
			{Topic0: pingTopic.Hex()},
			{Topic0: pongTopic.Hex()},
		},
	}
	registry := newTestRegistry(t, module)

	topics := registry.TopicFilters()
	assert.ElementsMatch(t, []common.Hash{pingTopic, pongTopic}, topics)
}

func TestStartBlockIsLowestAcrossModules(t *testing.T) {
	a := &fakeModule{name: "a", startBlock: 500, filters: []EventFilter{{Topic0: "0xaa"}}}
	b := &fakeModule{name: "b", startBlock: 100, filters: []EventFilter{{Topic0: "0xbb"}}}
	registry := newTestRegistry(t, a, b)

	assert.Equal(t, uint64(100), registry.StartBlock())
}

func TestEventWordDecoding(t *testing.T) {
	data := make([]byte, 64)
	data[31] = 0x07
	data[63] = 0x2a
	event := NewEvent(&types.Log{Data: data}, 1620000000)

	assert.Equal(t, big.NewInt(7), event.Word(0))
	assert.Equal(t, big.NewInt(42), event.Word(1))
	assert.Zero(t, event.Word(2).Sign())
	assert.Equal(t, 2, event.WordCount())
}
