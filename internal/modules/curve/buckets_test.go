package curve

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutodigital/curve-subgraph/internal/model"
	"github.com/plutodigital/curve-subgraph/internal/store"
)

func Test_BucketStart(t *testing.T) {
	assert.Equal(t, int64(1620000000), bucketStart(1620000000, hourSeconds))
	assert.Equal(t, int64(1620000000), bucketStart(1620003599, hourSeconds))
	assert.Equal(t, int64(1620003600), bucketStart(1620003600, hourSeconds))

	assert.Equal(t, int64(1620000000), bucketStart(1620000000, daySeconds))
	assert.Equal(t, int64(1620000000), bucketStart(1620086399, daySeconds))
	assert.Equal(t, int64(1619654400), bucketStart(1620000000, weekSeconds))
	assert.Equal(t, int64(1620000000), bucketStart(1620000000, monthSeconds))
}

func Test_VolumeBuckets_ZeroInitialized(t *testing.T) {
	m, _ := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	pool := &model.Pool{ID: "0xpool"}

	hourly, err := m.getHourlyTradeVolume(ctx, pool, 1620001234)
	require.NoError(t, err)
	assert.Equal(t, "0xpool-hour-1620000000", hourly.ID)
	assert.Equal(t, int64(1620000000), hourly.Timestamp)
	assert.True(t, hourly.Volume.IsZero())
	assert.Equal(t, "Mon, 03 May 2021 00:00:00 GMT", hourly.Date)
}

func Test_VolumeBuckets_LoadExisting(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	pool := &model.Pool{ID: "0xpool"}

	daily, err := m.getDailyTradeVolume(ctx, pool, 1620001234)
	require.NoError(t, err)
	daily.Volume = decimal.RequireFromString("12.5")
	require.NoError(t, memory.SaveDailyTradeVolume(ctx, daily))

	// A timestamp later in the same day resolves to the same bucket.
	again, err := m.getDailyTradeVolume(ctx, pool, 1620001234+3600)
	require.NoError(t, err)
	assert.Equal(t, daily.ID, again.ID)
	assert.True(t, again.Volume.Equal(decimal.RequireFromString("12.5")))
}

func Test_FeeBuckets_KeyedByCoinIndex(t *testing.T) {
	m, memory := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	pool := &model.Pool{ID: "0xpool"}
	coin := &model.Coin{ID: "0xpool-1", Index: 1}

	daily, err := m.getDailyFee(ctx, pool, 1620001234, coin)
	require.NoError(t, err)
	day := bucketStart(1620001234, daySeconds)
	assert.Equal(t, fmt.Sprintf("0xpool-1-day-%d", day), daily.ID)
	assert.Equal(t, "0xpool-1", daily.CoinID)
	assert.True(t, daily.Amount.IsZero())

	daily.Amount = decimal.RequireFromString("0.25")
	require.NoError(t, memory.SaveDailyFee(ctx, daily))

	other := &model.Coin{ID: "0xpool-0", Index: 0}
	otherDaily, err := m.getDailyFee(ctx, pool, 1620001234, other)
	require.NoError(t, err)
	assert.True(t, otherDaily.Amount.IsZero(), "buckets must not leak across coins")
}

func Test_FeeBuckets_MonthWindowIsThirtyDays(t *testing.T) {
	m, _ := newTestModule(t, newStubReader(), "3pool")
	ctx := context.Background()

	pool := &model.Pool{ID: "0xpool"}
	coin := &model.Coin{ID: "0xpool-0", Index: 0}

	monthly, err := m.getMonthlyFee(ctx, pool, 1620001234, coin)
	require.NoError(t, err)
	assert.Equal(t, int64(1620000000), monthly.Timestamp)
	assert.Equal(t, int64(0), monthly.Timestamp%int64(monthSeconds))
}

func Test_Store_ErrNotFoundContract(t *testing.T) {
	memory := store.NewMemory()

	_, err := memory.Pool(context.Background(), "missing")
	assert.Equal(t, store.ErrNotFound, err)
}
