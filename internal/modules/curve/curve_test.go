package curve

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutodigital/curve-subgraph/internal/model"
	"github.com/plutodigital/curve-subgraph/internal/modules/core"
	"github.com/plutodigital/curve-subgraph/internal/registry"
	"github.com/plutodigital/curve-subgraph/internal/store"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

var (
	testRegistryAddress = common.HexToAddress("0x90e00ace148ca3b23ac1bc8c240c2a7dd9c2d7f5")
	testPoolAddress     = common.HexToAddress("0xbebc44782c7db0a1a60cb6fe97d0b483032ff1c7")
	testDAI             = common.HexToAddress("0x6b175474e89094c44da98b954eedeac495271d0f")
	testUSDC            = common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	testBuyer           = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

const (
	testStartBlock = uint64(11000000)
	testBlock      = uint64(12700000)
	testTimestamp  = int64(1620000000) // exactly on an hour boundary
)

var exp18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func tokens18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), exp18)
}

// stubReader serves canned contract state. Nil fields read as unavailable.
type stubReader struct {
	coins              []common.Address
	underlying         []common.Address
	balances           []*big.Int
	underlyingBalances []*big.Int
	rates              []*big.Int
	virtualPrice       *big.Int
	assetType          *big.Int
	coinCount          int
	underlyingCount    int
	a                  *big.Int
	fee                *big.Int
	adminFee           *big.Int
	owner              common.Address
	metadata           map[common.Address]registry.TokenMetadata
}

func (r *stubReader) Coins(_ context.Context, _ common.Address, _ uint64) ([]common.Address, bool) {
	return r.coins, r.coins != nil
}

func (r *stubReader) UnderlyingCoins(_ context.Context, _ common.Address, _ uint64) ([]common.Address, bool) {
	return r.underlying, r.underlying != nil
}

func (r *stubReader) Balances(_ context.Context, _ common.Address, _ uint64) ([]*big.Int, bool) {
	return r.balances, r.balances != nil
}

func (r *stubReader) UnderlyingBalances(_ context.Context, _ common.Address, _ uint64) ([]*big.Int, bool) {
	return r.underlyingBalances, r.underlyingBalances != nil
}

func (r *stubReader) Rates(_ context.Context, _ common.Address, _ uint64) ([]*big.Int, bool) {
	return r.rates, r.rates != nil
}

func (r *stubReader) VirtualPrice(_ context.Context, _ common.Address, _ uint64) (*big.Int, bool) {
	return r.virtualPrice, r.virtualPrice != nil
}

func (r *stubReader) PoolAssetType(_ context.Context, _ common.Address, _ uint64) (*big.Int, bool) {
	return r.assetType, r.assetType != nil
}

func (r *stubReader) NCoins(_ context.Context, _ common.Address, _ uint64) (int, int, bool) {
	return r.coinCount, r.underlyingCount, r.coinCount > 0
}

func (r *stubReader) ParameterA(_ context.Context, _ common.Address, _ uint64) (*big.Int, bool) {
	return r.a, r.a != nil
}

func (r *stubReader) Fee(_ context.Context, _ common.Address, _ uint64) (*big.Int, bool) {
	return r.fee, r.fee != nil
}

func (r *stubReader) AdminFee(_ context.Context, _ common.Address, _ uint64) (*big.Int, bool) {
	return r.adminFee, r.adminFee != nil
}

func (r *stubReader) Owner(_ context.Context, _ common.Address, _ uint64) (common.Address, bool) {
	return r.owner, r.owner != (common.Address{})
}

func (r *stubReader) TokenMetadata(_ context.Context, token common.Address) registry.TokenMetadata {
	if metadata, ok := r.metadata[token]; ok {
		return metadata
	}
	return registry.TokenMetadata{Decimals: 18}
}

func newStubReader() *stubReader {
	return &stubReader{
		coins:           []common.Address{testDAI, testUSDC},
		balances:        []*big.Int{tokens18(1000), tokens18(1000)},
		rates:           []*big.Int{new(big.Int).Set(exp18), new(big.Int).Set(exp18)},
		virtualPrice:    new(big.Int).Set(exp18),
		coinCount:       2,
		underlyingCount: 0,
		a:               big.NewInt(100),
		fee:             big.NewInt(4000000),          // 0.0004 at precision 10
		adminFee:        big.NewInt(5000000000),       // 0.5 at precision 10
		owner:           common.HexToAddress("0x2222222222222222222222222222222222222222"),
		metadata: map[common.Address]registry.TokenMetadata{
			testDAI:  {Name: "Dai Stablecoin", Symbol: "DAI", Decimals: 18},
			testUSDC: {Name: "USD Coin", Symbol: "USDC", Decimals: 18},
		},
	}
}

func testManifest(poolName string) *core.Manifest {
	start := testStartBlock
	address := testRegistryAddress.Hex()

	return &core.Manifest{
		Name:    "curve-pools",
		Version: "1.0.0",
		DataSources: []core.DataSource{{
			Kind:    "ethereum/contract",
			Name:    "MainRegistry",
			Network: "mainnet",
			Source: core.DataSourceSource{
				Address:    &address,
				ABI:        "Registry",
				StartBlock: &start,
			},
			Mapping: core.DataSourceMapping{
				Entities: []string{"Pool"},
				EventHandlers: []core.EventHandler{
					{Event: sigPoolAdded, Handler: "handlePoolAdded"},
				},
			},
		}},
		Context: map[string]interface{}{
			"registryAddress": address,
			"pools": []interface{}{
				map[string]interface{}{
					"address": testPoolAddress.Hex(),
					"name":    poolName,
				},
			},
		},
	}
}

func newTestModule(t *testing.T, reader *stubReader, poolName string) (*Module, *store.Memory) {
	t.Helper()

	m, err := NewModuleFromManifest(testManifest(poolName), reader, testLogger())
	require.NoError(t, err)

	memory := store.NewMemory()
	require.NoError(t, m.Initialize(context.Background(), memory))

	return m, memory
}

func dataWords(values ...*big.Int) []byte {
	data := make([]byte, 0, len(values)*32)
	for _, value := range values {
		data = append(data, common.BigToHash(value).Bytes()...)
	}
	return data
}

func newLog(address common.Address, signature string, indexed *common.Address, logIndex uint, data []byte) *types.Log {
	topics := []common.Hash{core.SignatureTopic(signature)}
	if indexed != nil {
		topics = append(topics, common.BytesToHash(indexed.Bytes()))
	}
	return &types.Log{
		Address:     address,
		Topics:      topics,
		Data:        data,
		BlockNumber: testBlock,
		TxHash:      common.HexToHash("0xabcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"),
		Index:       logIndex,
	}
}

func exchangeLog(logIndex uint, soldID, sold, boughtID, bought *big.Int) *types.Log {
	return newLog(testPoolAddress, sigTokenExchange, &testBuyer, logIndex,
		dataWords(soldID, sold, boughtID, bought))
}

func Test_TokenExchange_MaterializesExchangeAndVolume(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	log := exchangeLog(5, big.NewInt(0), tokens18(100), big.NewInt(1), tokens18(99))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	exchange, ok := memory.ExchangeByID("e-" + log.TxHash.Hex() + "-5")
	require.True(t, ok)
	assert.Equal(t, poolID(testPoolAddress), exchange.PoolID)
	assert.True(t, exchange.AmountSold.Equal(decimal.NewFromInt(100)), "sold %s", exchange.AmountSold)
	assert.True(t, exchange.AmountBought.Equal(decimal.NewFromInt(99)), "bought %s", exchange.AmountBought)
	assert.Equal(t, exchange.BuyerID, exchange.ReceiverID)

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pool.ExchangeCount)
	assert.True(t, pool.VirtualPrice.Equal(decimal.NewFromInt(1)))

	// (100 + 99) / 2 lands in all three windows
	expected := decimal.RequireFromString("99.5")

	hourly, err := memory.HourlyTradeVolume(ctx, fmt.Sprintf("%s-hour-%d", pool.ID, testTimestamp))
	require.NoError(t, err)
	assert.True(t, hourly.Volume.Equal(expected), "hourly %s", hourly.Volume)

	daily, err := memory.DailyTradeVolume(ctx, fmt.Sprintf("%s-day-%d", pool.ID, testTimestamp/daySeconds*daySeconds))
	require.NoError(t, err)
	assert.True(t, daily.Volume.Equal(expected), "daily %s", daily.Volume)

	weekly, err := memory.WeeklyTradeVolume(ctx, fmt.Sprintf("%s-week-%d", pool.ID, testTimestamp/weekSeconds*weekSeconds))
	require.NoError(t, err)
	assert.True(t, weekly.Volume.Equal(expected), "weekly %s", weekly.Volume)
}

func Test_TokenExchange_AccumulatesAcrossTrades(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	require.NoError(t, m.HandleEvent(ctx, exchangeLog(1, big.NewInt(0), tokens18(100), big.NewInt(1), tokens18(99)), testTimestamp))
	require.NoError(t, m.HandleEvent(ctx, exchangeLog(2, big.NewInt(1), tokens18(50), big.NewInt(0), tokens18(49)), testTimestamp+60))

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pool.ExchangeCount)

	hourly, err := memory.HourlyTradeVolume(ctx, fmt.Sprintf("%s-hour-%d", pool.ID, testTimestamp))
	require.NoError(t, err)
	assert.True(t, hourly.Volume.Equal(decimal.RequireFromString("149")), "hourly %s", hourly.Volume)
}

func Test_TokenExchange_RecoversFees(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	log := exchangeLog(7, big.NewInt(0), tokens18(100), big.NewInt(1), tokens18(99))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)

	// fee = 99 * 1 / (1 - 0.0004) * 0.0004 * (1 - 0.5)
	day := testTimestamp / daySeconds * daySeconds
	daily, err := memory.DailyFee(ctx, fmt.Sprintf("%s-1-day-%d", pool.ID, day))
	require.NoError(t, err)
	assert.InDelta(t, 0.0198079231692677, daily.Amount.InexactFloat64(), 1e-12)

	week := testTimestamp / weekSeconds * weekSeconds
	weekly, err := memory.WeeklyFee(ctx, fmt.Sprintf("%s-1-week-%d", pool.ID, week))
	require.NoError(t, err)
	assert.True(t, weekly.Amount.Equal(daily.Amount))

	month := testTimestamp / monthSeconds * monthSeconds
	monthly, err := memory.MonthlyFee(ctx, fmt.Sprintf("%s-1-month-%d", pool.ID, month))
	require.NoError(t, err)
	assert.True(t, monthly.Amount.Equal(daily.Amount))
}

func Test_TokenExchange_MissingCoinFails(t *testing.T) {
	m, _ := newTestModule(t, newStubReader(), "3pool")

	// Coin index 5 does not exist in a 2-coin pool.
	log := exchangeLog(3, big.NewInt(5), tokens18(100), big.NewInt(1), tokens18(99))
	err := m.HandleEvent(context.Background(), log, testTimestamp)
	require.Error(t, err)
}

func Test_TokenExchangeUnderlying_SkipsFeeBuckets(t *testing.T) {
	reader := newStubReader()
	reader.underlying = []common.Address{testDAI, testUSDC}
	reader.underlyingBalances = []*big.Int{tokens18(500), tokens18(500)}
	reader.underlyingCount = 2

	m, memory := newTestModule(t, reader, "3pool")
	ctx := context.Background()

	log := newLog(testPoolAddress, sigTokenExchangeUnderlying, &testBuyer, 9,
		dataWords(big.NewInt(0), tokens18(10), big.NewInt(1), tokens18(9)))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pool.ExchangeCount)

	_, ok := memory.ExchangeByID("e-" + log.TxHash.Hex() + "-9")
	assert.True(t, ok)

	day := testTimestamp / daySeconds * daySeconds
	_, err = memory.DailyFee(ctx, fmt.Sprintf("%s-1-day-%d", pool.ID, day))
	assert.Equal(t, store.ErrNotFound, err)
}

func Test_AddLiquidity_AppendsLog(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	provider := common.HexToAddress("0x3333333333333333333333333333333333333333")
	log := newLog(testPoolAddress, addLiquiditySignature(2), &provider, 4,
		dataWords(tokens18(100), tokens18(200), big.NewInt(10), big.NewInt(20), tokens18(300), tokens18(900)))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	record, err := memory.AddLiquidityByID("al-" + log.TxHash.Hex() + "-4")
	require.NoError(t, err)
	require.Len(t, record.TokenAmounts, 2)
	assert.Equal(t, 0, record.TokenAmounts[0].Cmp(tokens18(100)))
	assert.Equal(t, 0, record.TokenAmounts[1].Cmp(tokens18(200)))
	require.Len(t, record.Fees, 2)
	assert.Equal(t, 0, record.Fees[0].Cmp(big.NewInt(10)))
	assert.Equal(t, 0, record.Invariant.Cmp(tokens18(300)))
	assert.Equal(t, 0, record.TokenSupply.Cmp(tokens18(900)))
	assert.Equal(t, poolID(testPoolAddress), record.PoolID)
}

func Test_RemoveLiquidity_BalancedOmitsInvariant(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	provider := common.HexToAddress("0x3333333333333333333333333333333333333333")
	log := newLog(testPoolAddress, removeLiquiditySignature(2), &provider, 6,
		dataWords(tokens18(10), tokens18(20), big.NewInt(1), big.NewInt(2), tokens18(870)))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	record, err := memory.RemoveLiquidityByID("rl-" + log.TxHash.Hex() + "-6")
	require.NoError(t, err)
	assert.Nil(t, record.Invariant)
	assert.Equal(t, 0, record.TokenSupply.Cmp(tokens18(870)))
}

func Test_RemoveLiquidityImbalance_CarriesInvariant(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	provider := common.HexToAddress("0x3333333333333333333333333333333333333333")
	log := newLog(testPoolAddress, removeLiquidityImbalanceSignature(2), &provider, 8,
		dataWords(tokens18(10), tokens18(20), big.NewInt(1), big.NewInt(2), tokens18(250), tokens18(860)))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	record, err := memory.RemoveLiquidityByID("rli-" + log.TxHash.Hex() + "-8")
	require.NoError(t, err)
	require.NotNil(t, record.Invariant)
	assert.Equal(t, 0, record.Invariant.Cmp(tokens18(250)))
}

func Test_RemoveLiquidityOne_AppendsLog(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	provider := common.HexToAddress("0x3333333333333333333333333333333333333333")
	log := newLog(testPoolAddress, sigRemoveLiquidityOne, &provider, 2,
		dataWords(tokens18(30), tokens18(29)))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	record, err := memory.RemoveLiquidityOneByID("rlo-" + log.TxHash.Hex() + "-2")
	require.NoError(t, err)
	assert.Equal(t, 0, record.TokenAmount.Cmp(tokens18(30)))
	assert.Equal(t, 0, record.CoinAmount.Cmp(tokens18(29)))
}

func Test_NewFee_UpdatesPoolAndAppendsChangelogs(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	log := newLog(testPoolAddress, sigNewFee, nil, 1,
		dataWords(big.NewInt(3000000), big.NewInt(5000000000)))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.True(t, pool.Fee.Equal(decimal.RequireFromString("0.0003")), "fee %s", pool.Fee)
	assert.True(t, pool.AdminFee.Equal(decimal.RequireFromString("0.5")), "admin fee %s", pool.AdminFee)

	counts := memory.Counts()
	assert.Equal(t, 1, counts["admin_fee_logs"])
	assert.Equal(t, 1, counts["fee_logs"])
	assert.Equal(t, 0, counts["amp_logs"])
}

func Test_NewParameters_AppendsThreeChangelogs(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	log := newLog(testPoolAddress, sigNewParameters, nil, 1,
		dataWords(big.NewInt(200), big.NewInt(3000000), big.NewInt(5000000000)))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.Equal(t, 0, pool.A.Cmp(big.NewInt(200)))

	counts := memory.Counts()
	assert.Equal(t, 1, counts["admin_fee_logs"])
	assert.Equal(t, 1, counts["fee_logs"])
	assert.Equal(t, 1, counts["amp_logs"])
}

func Test_RampA_UpdatesAmplification(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	log := newLog(testPoolAddress, sigRampA, nil, 1,
		dataWords(big.NewInt(100), big.NewInt(500), big.NewInt(1620000000), big.NewInt(1620600000)))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.Equal(t, 0, pool.A.Cmp(big.NewInt(500)))
	assert.Equal(t, 1, memory.Counts()["amp_logs"])
}

func Test_StopRampA_SettlesAmplification(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	log := newLog(testPoolAddress, sigStopRampA, nil, 1,
		dataWords(big.NewInt(350), big.NewInt(1620300000)))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.Equal(t, 0, pool.A.Cmp(big.NewInt(350)))
}

func Test_NewAdmin_TransfersOwnership(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	admin := common.HexToAddress("0x4444444444444444444444444444444444444444")
	log := newLog(testPoolAddress, sigNewAdmin, &admin, 1, nil)
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.Equal(t, "0x4444444444444444444444444444444444444444", pool.Owner)
	assert.Equal(t, 1, memory.Counts()["ownerships"])
}

func Test_TruncatedEventData_IsRejected(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	// Exchange payload cut to three of four words.
	log := newLog(testPoolAddress, sigTokenExchange, &testBuyer, 9,
		dataWords(big.NewInt(0), tokens18(100), big.NewInt(1)))
	err := m.HandleEvent(ctx, log, testTimestamp)
	require.Error(t, err)

	var invalid core.ErrInvalidEvent
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, memory.Counts()["exchanges"])

	// Liquidity payload short of the pool's coin count.
	provider := common.HexToAddress("0x3333333333333333333333333333333333333333")
	log = newLog(testPoolAddress, addLiquiditySignature(2), &provider, 10,
		dataWords(tokens18(100), tokens18(200)))
	err = m.HandleEvent(ctx, log, testTimestamp)
	require.Error(t, err)
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, memory.Counts()["add_liquidity"])
}

func Test_UntrackedPool_IsIgnored(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")

	unknown := common.HexToAddress("0x9999999999999999999999999999999999999999")
	log := newLog(unknown, sigNewFee, nil, 1, dataWords(big.NewInt(1), big.NewInt(2)))
	require.NoError(t, m.HandleEvent(context.Background(), log, testTimestamp))

	counts := memory.Counts()
	assert.Equal(t, 0, counts["fee_logs"])
	assert.Equal(t, 0, counts["admin_fee_logs"])
}

func Test_AssetType_ClassifiesOnce(t *testing.T) {
	reader := newStubReader()
	reader.assetType = big.NewInt(0)

	m, memory := newTestModule(t, reader, "3pool")
	ctx := context.Background()

	require.NoError(t, m.HandleEvent(ctx, exchangeLog(1, big.NewInt(0), tokens18(1), big.NewInt(1), tokens18(1)), testTimestamp))

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	require.NotNil(t, pool.AssetType)
	assert.Equal(t, model.AssetTypeUSD, *pool.AssetType)

	// A later, different reading must not reclassify.
	reader.assetType = big.NewInt(2)
	require.NoError(t, m.HandleEvent(ctx, exchangeLog(2, big.NewInt(0), tokens18(1), big.NewInt(1), tokens18(1)), testTimestamp+60))

	pool, err = memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.Equal(t, model.AssetTypeUSD, *pool.AssetType)
}

func Test_AssetType_ReferenceAssetByPoolName(t *testing.T) {
	cases := []struct {
		name     string
		poolName string
		expected model.AssetType
	}{
		{"link pool", "link", model.AssetTypeLINK},
		{"euro pool", "eurs", model.AssetTypeEUR},
		{"fallback", "frax", model.AssetTypeOther},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reader := newStubReader()
			reader.assetType = big.NewInt(3)

			m, memory := newTestModule(t, reader, tc.poolName)
			ctx := context.Background()

			require.NoError(t, m.HandleEvent(ctx, exchangeLog(1, big.NewInt(0), tokens18(1), big.NewInt(1), tokens18(1)), testTimestamp))

			pool, err := memory.Pool(ctx, poolID(testPoolAddress))
			require.NoError(t, err)
			require.NotNil(t, pool.AssetType)
			assert.Equal(t, tc.expected, *pool.AssetType)
		})
	}
}

func Test_AssetType_NotReadBeforeCutover(t *testing.T) {
	reader := newStubReader()
	reader.assetType = big.NewInt(0)

	m, memory := newTestModule(t, reader, "3pool")
	ctx := context.Background()

	log := exchangeLog(1, big.NewInt(0), tokens18(1), big.NewInt(1), tokens18(1))
	log.BlockNumber = assetTypeAvailableBlock - 1
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.Nil(t, pool.AssetType)
}

func Test_SaveCoins_SnapshotsBalancesAndTotal(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	require.NoError(t, m.HandleEvent(ctx, exchangeLog(1, big.NewInt(0), tokens18(1), big.NewInt(1), tokens18(1)), testTimestamp))

	id := poolID(testPoolAddress)
	coin, err := memory.Coin(ctx, fmt.Sprintf("%s-0", id))
	require.NoError(t, err)
	assert.True(t, coin.Balance.Equal(decimal.NewFromInt(1000)), "balance %s", coin.Balance)
	assert.True(t, coin.Rate.Equal(decimal.NewFromInt(1)), "rate %s", coin.Rate)

	total, ok := memory.TotalBalanceByID(fmt.Sprintf("%s-total-balance-%d", id, testBlock))
	require.True(t, ok)
	assert.True(t, total.Balance.Equal(decimal.NewFromInt(2000)), "total %s", total.Balance)
	assert.Equal(t, "DAI+USDC", total.Name)
	assert.Equal(t, 2, memory.CoinBalances())
}

func Test_SaveCoins_SkipsEmptySymbolsInTotalName(t *testing.T) {
	reader := newStubReader()
	reader.metadata[testUSDC] = registry.TokenMetadata{Name: "USD Coin", Symbol: "", Decimals: 18}

	m, memory := newTestModule(t, reader, "3pool")
	ctx := context.Background()

	require.NoError(t, m.HandleEvent(ctx, exchangeLog(1, big.NewInt(0), tokens18(1), big.NewInt(1), tokens18(1)), testTimestamp))

	total, ok := memory.TotalBalanceByID(fmt.Sprintf("%s-total-balance-%d", poolID(testPoolAddress), testBlock))
	require.True(t, ok)
	assert.Equal(t, "DAI", total.Name)
}

func Test_SaveCoins_UnavailableReadsDefault(t *testing.T) {
	reader := newStubReader()
	reader.balances = nil
	reader.rates = nil

	m, memory := newTestModule(t, reader, "3pool")
	ctx := context.Background()

	require.NoError(t, m.HandleEvent(ctx, exchangeLog(1, big.NewInt(0), tokens18(1), big.NewInt(1), tokens18(1)), testTimestamp))

	coin, err := memory.Coin(ctx, fmt.Sprintf("%s-0", poolID(testPoolAddress)))
	require.NoError(t, err)
	assert.True(t, coin.Balance.IsZero())
	assert.True(t, coin.Rate.Equal(decimal.NewFromInt(1)))
}

func Test_SaveCoins_ShortReadsFallBackToDefaults(t *testing.T) {
	// A pool contract can answer get_balances/get_rates with fewer entries
	// than the registry's coin count; the missing tail reads as default.
	reader := newStubReader()
	reader.balances = []*big.Int{tokens18(1000)}
	reader.rates = []*big.Int{tokens18(1)}
	reader.underlying = []common.Address{testDAI, testUSDC}
	reader.underlyingBalances = []*big.Int{tokens18(500)}
	reader.underlyingCount = 2

	m, memory := newTestModule(t, reader, "3pool")
	ctx := context.Background()

	require.NoError(t, m.HandleEvent(ctx, exchangeLog(1, big.NewInt(0), tokens18(1), big.NewInt(1), tokens18(1)), testTimestamp))

	id := poolID(testPoolAddress)
	coin0, err := memory.Coin(ctx, fmt.Sprintf("%s-0", id))
	require.NoError(t, err)
	assert.True(t, coin0.Balance.Equal(decimal.NewFromInt(1000)))

	coin1, err := memory.Coin(ctx, fmt.Sprintf("%s-1", id))
	require.NoError(t, err)
	assert.True(t, coin1.Balance.IsZero())
	assert.True(t, coin1.Rate.Equal(decimal.NewFromInt(1)))

	underlying1, err := memory.UnderlyingCoin(ctx, fmt.Sprintf("%s-1", id))
	require.NoError(t, err)
	assert.True(t, underlying1.Balance.IsZero())

	total, ok := memory.TotalBalanceByID(fmt.Sprintf("%s-total-balance-%d", id, testBlock))
	require.True(t, ok)
	assert.True(t, total.Balance.Equal(decimal.NewFromInt(1000)), "total %s", total.Balance)
}

func Test_PoolAdded_RegistersPool(t *testing.T) {
	reader := newStubReader()
	m, memory := newTestModule(t, reader, "3pool")
	ctx := context.Background()

	newPool := common.HexToAddress("0x7f90122bf0700f9e7e1f688fe926940e8839f353")
	log := newLog(testRegistryAddress, sigPoolAdded, &newPool, 1, nil)
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	pool, err := memory.Pool(ctx, poolID(newPool))
	require.NoError(t, err)
	assert.Equal(t, 2, pool.CoinCount)
	assert.Equal(t, testBlock, pool.AddedAtBlock)
	assert.True(t, pool.Fee.Equal(decimal.RequireFromString("0.0004")), "fee %s", pool.Fee)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", pool.Owner)
}

func Test_PoolAdded_IgnoresForeignRegistry(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	newPool := common.HexToAddress("0x7f90122bf0700f9e7e1f688fe926940e8839f353")
	foreign := common.HexToAddress("0x8888888888888888888888888888888888888888")
	log := newLog(foreign, sigPoolAdded, &newPool, 1, nil)
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	_, err := memory.Pool(ctx, poolID(newPool))
	assert.Equal(t, store.ErrNotFound, err)
}

func Test_Replay_IsIdempotentPerLogKey(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	log := exchangeLog(5, big.NewInt(0), tokens18(100), big.NewInt(1), tokens18(99))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))
	require.NoError(t, m.HandleEvent(ctx, log, testTimestamp))

	// The log record keys collide, so only one exchange exists; the
	// counters, which are not keyed, double up.
	assert.Equal(t, 1, memory.Counts()["exchanges"])

	pool, err := memory.Pool(ctx, poolID(testPoolAddress))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pool.ExchangeCount)
}

func Test_EventFilters_CoverAllCoinCounts(t *testing.T) {
	m, _ := newTestModule(t, newStubReader(), "3pool")

	filters := m.GetEventFilters()
	topics := make(map[string]bool, len(filters))
	for _, filter := range filters {
		topics[filter.Topic0] = true
	}

	for coins := minPoolCoins; coins <= maxPoolCoins; coins++ {
		assert.True(t, topics[core.SignatureTopic(addLiquiditySignature(coins)).Hex()])
		assert.True(t, topics[core.SignatureTopic(removeLiquiditySignature(coins)).Hex()])
		assert.True(t, topics[core.SignatureTopic(removeLiquidityImbalanceSignature(coins)).Hex()])
	}
	assert.True(t, topics[core.SignatureTopic(sigTokenExchange).Hex()])
	assert.True(t, topics[core.SignatureTopic(sigPoolAdded).Hex()])
}
