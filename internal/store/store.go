// Package store defines the entity repository used by the event reducers.
// The reducers only ever load by deterministic key and save whole records,
// so the interface is a keyed load/save pair per entity kind. The Postgres
// implementation lives in internal/database; Memory below backs the tests.
package store

import (
	"context"
	"errors"

	"github.com/plutodigital/curve-subgraph/internal/model"
)

// ErrNotFound is returned by load methods when no record exists under the
// requested key.
var ErrNotFound = errors.New("not found")

// Store is the persistence seam injected into the indexing module.
//
// Load methods return ErrNotFound when absent. Save methods upsert: live
// records (Pool, Coin, buckets) are overwritten, append-only log records
// land on the same key with the same content when an event is reprocessed.
type Store interface {
	Pool(ctx context.Context, id string) (*model.Pool, error)
	SavePool(ctx context.Context, pool *model.Pool) error

	Token(ctx context.Context, id string) (*model.Token, error)
	SaveToken(ctx context.Context, token *model.Token) error

	Account(ctx context.Context, id string) (*model.Account, error)
	SaveAccount(ctx context.Context, account *model.Account) error

	Coin(ctx context.Context, id string) (*model.Coin, error)
	SaveCoin(ctx context.Context, coin *model.Coin) error

	UnderlyingCoin(ctx context.Context, id string) (*model.UnderlyingCoin, error)
	SaveUnderlyingCoin(ctx context.Context, coin *model.UnderlyingCoin) error

	SaveCoinBalance(ctx context.Context, balance *model.CoinBalance) error
	SaveTotalBalance(ctx context.Context, balance *model.TotalBalance) error

	SaveAddLiquidity(ctx context.Context, event *model.AddLiquidityEvent) error
	SaveRemoveLiquidity(ctx context.Context, event *model.RemoveLiquidityEvent) error
	SaveRemoveLiquidityOne(ctx context.Context, event *model.RemoveLiquidityOneEvent) error
	SaveExchange(ctx context.Context, exchange *model.Exchange) error
	SaveTransferOwnership(ctx context.Context, event *model.TransferOwnershipEvent) error
	SaveAdminFeeChange(ctx context.Context, log *model.AdminFeeChangelog) error
	SaveFeeChange(ctx context.Context, log *model.FeeChangelog) error
	SaveAmplificationChange(ctx context.Context, log *model.AmplificationCoeffChangelog) error

	HourlyTradeVolume(ctx context.Context, id string) (*model.HourlyTradeVolume, error)
	SaveHourlyTradeVolume(ctx context.Context, volume *model.HourlyTradeVolume) error
	DailyTradeVolume(ctx context.Context, id string) (*model.DailyTradeVolume, error)
	SaveDailyTradeVolume(ctx context.Context, volume *model.DailyTradeVolume) error
	WeeklyTradeVolume(ctx context.Context, id string) (*model.WeeklyTradeVolume, error)
	SaveWeeklyTradeVolume(ctx context.Context, volume *model.WeeklyTradeVolume) error

	DailyFee(ctx context.Context, id string) (*model.DailyFee, error)
	SaveDailyFee(ctx context.Context, fee *model.DailyFee) error
	WeeklyFee(ctx context.Context, id string) (*model.WeeklyFee, error)
	SaveWeeklyFee(ctx context.Context, fee *model.WeeklyFee) error
	MonthlyFee(ctx context.Context, id string) (*model.MonthlyFee, error)
	SaveMonthlyFee(ctx context.Context, fee *model.MonthlyFee) error
}
