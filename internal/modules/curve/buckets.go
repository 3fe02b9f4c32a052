package curve

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plutodigital/curve-subgraph/internal/model"
	"github.com/plutodigital/curve-subgraph/internal/store"
	"github.com/plutodigital/curve-subgraph/internal/units"
)

// Aggregation windows in seconds. The month window is a fixed 30 days,
// not a calendar month.
const (
	hourSeconds  = 60 * 60
	daySeconds   = 60 * 60 * 24
	weekSeconds  = 60 * 60 * 24 * 7
	monthSeconds = 60 * 60 * 24 * 30
)

// bucketStart truncates a timestamp to the start of its window.
func bucketStart(timestamp, window int64) int64 {
	return timestamp / window * window
}

func (m *Module) getHourlyTradeVolume(ctx context.Context, pool *model.Pool, timestamp int64) (*model.HourlyTradeVolume, error) {
	hour := bucketStart(timestamp, hourSeconds)
	id := fmt.Sprintf("%s-hour-%d", pool.ID, hour)

	volume, err := m.store.HourlyTradeVolume(ctx, id)
	if err == store.ErrNotFound {
		return &model.HourlyTradeVolume{
			ID:        id,
			PoolID:    pool.ID,
			Timestamp: hour,
			Date:      units.FormatDate(hour),
			Volume:    decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load hourly volume %s: %w", id, err)
	}
	return volume, nil
}

func (m *Module) getDailyTradeVolume(ctx context.Context, pool *model.Pool, timestamp int64) (*model.DailyTradeVolume, error) {
	day := bucketStart(timestamp, daySeconds)
	id := fmt.Sprintf("%s-day-%d", pool.ID, day)

	volume, err := m.store.DailyTradeVolume(ctx, id)
	if err == store.ErrNotFound {
		return &model.DailyTradeVolume{
			ID:        id,
			PoolID:    pool.ID,
			Timestamp: day,
			Date:      units.FormatDate(day),
			Volume:    decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load daily volume %s: %w", id, err)
	}
	return volume, nil
}

func (m *Module) getWeeklyTradeVolume(ctx context.Context, pool *model.Pool, timestamp int64) (*model.WeeklyTradeVolume, error) {
	week := bucketStart(timestamp, weekSeconds)
	id := fmt.Sprintf("%s-week-%d", pool.ID, week)

	volume, err := m.store.WeeklyTradeVolume(ctx, id)
	if err == store.ErrNotFound {
		return &model.WeeklyTradeVolume{
			ID:        id,
			PoolID:    pool.ID,
			Timestamp: week,
			Date:      units.FormatDate(week),
			Volume:    decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly volume %s: %w", id, err)
	}
	return volume, nil
}

func (m *Module) getDailyFee(ctx context.Context, pool *model.Pool, timestamp int64, coin *model.Coin) (*model.DailyFee, error) {
	day := bucketStart(timestamp, daySeconds)
	id := fmt.Sprintf("%s-%d-day-%d", pool.ID, coin.Index, day)

	fee, err := m.store.DailyFee(ctx, id)
	if err == store.ErrNotFound {
		return &model.DailyFee{
			ID:        id,
			PoolID:    pool.ID,
			CoinID:    coin.ID,
			Timestamp: day,
			Date:      units.FormatDate(day),
			Amount:    decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load daily fee %s: %w", id, err)
	}
	return fee, nil
}

func (m *Module) getWeeklyFee(ctx context.Context, pool *model.Pool, timestamp int64, coin *model.Coin) (*model.WeeklyFee, error) {
	week := bucketStart(timestamp, weekSeconds)
	id := fmt.Sprintf("%s-%d-week-%d", pool.ID, coin.Index, week)

	fee, err := m.store.WeeklyFee(ctx, id)
	if err == store.ErrNotFound {
		return &model.WeeklyFee{
			ID:        id,
			PoolID:    pool.ID,
			CoinID:    coin.ID,
			Timestamp: week,
			Date:      units.FormatDate(week),
			Amount:    decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly fee %s: %w", id, err)
	}
	return fee, nil
}

func (m *Module) getMonthlyFee(ctx context.Context, pool *model.Pool, timestamp int64, coin *model.Coin) (*model.MonthlyFee, error) {
	month := bucketStart(timestamp, monthSeconds)
	id := fmt.Sprintf("%s-%d-month-%d", pool.ID, coin.Index, month)

	fee, err := m.store.MonthlyFee(ctx, id)
	if err == store.ErrNotFound {
		return &model.MonthlyFee{
			ID:        id,
			PoolID:    pool.ID,
			CoinID:    coin.ID,
			Timestamp: month,
			Date:      units.FormatDate(month),
			Amount:    decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly fee %s: %w", id, err)
	}
	return fee, nil
}
