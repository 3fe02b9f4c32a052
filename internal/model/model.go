// Package model defines the derived entities maintained by the indexer.
// Entities are identified by deterministic string keys so that reprocessing
// an event maps onto the same records.
package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// AssetType is the reference-asset classification of a pool. The zero state
// is "not yet classified", carried as a nil pointer on Pool, which is
// distinct from an explicit OTHER classification.
type AssetType string

const (
	AssetTypeUSD    AssetType = "USD"
	AssetTypeETH    AssetType = "ETH"
	AssetTypeBTC    AssetType = "BTC"
	AssetTypeLINK   AssetType = "LINK"
	AssetTypeEUR    AssetType = "EUR"
	AssetTypeCrypto AssetType = "CRYPTO"
	AssetTypeOther  AssetType = "OTHER"
)

// Pool is the live state of a tracked StableSwap pool. ID is the swap
// contract address in lowercase hex.
type Pool struct {
	ID              string          `db:"id"`
	RegistryAddress string          `db:"registry_address"`
	SwapAddress     string          `db:"swap_address"`
	Name            string          `db:"name"`
	AssetType       *AssetType      `db:"asset_type"`
	CoinCount       int             `db:"coin_count"`
	UnderlyingCount int             `db:"underlying_count"`
	A               *big.Int        `db:"a"`
	Fee             decimal.Decimal `db:"fee"`
	AdminFee        decimal.Decimal `db:"admin_fee"`
	VirtualPrice    decimal.Decimal `db:"virtual_price"`
	Owner           string          `db:"owner"`
	ExchangeCount   uint64          `db:"exchange_count"`
	AddedAtBlock    uint64          `db:"added_at_block"`
}

// Token is an ERC-20 token referenced by pool coins. ID is the token
// address in lowercase hex.
type Token struct {
	ID       string `db:"id"`
	Address  string `db:"address"`
	Name     string `db:"name"`
	Symbol   string `db:"symbol"`
	Decimals int32  `db:"decimals"`
}

// Account is a liquidity provider or trader address.
type Account struct {
	ID      string `db:"id"`
	Address string `db:"address"`
}

// Coin is the current state of one position in a pool's coin array.
// ID is "<pool>-<index>"; the record is overwritten on every snapshot
// refresh rather than versioned.
type Coin struct {
	ID                   string          `db:"id"`
	Index                int             `db:"index"`
	PoolID               string          `db:"pool_id"`
	TokenID              string          `db:"token_id"`
	Balance              decimal.Decimal `db:"balance"`
	Rate                 decimal.Decimal `db:"rate"`
	Updated              int64           `db:"updated"`
	UpdatedAtBlock       uint64          `db:"updated_at_block"`
	UpdatedAtTransaction string          `db:"updated_at_transaction"`
}

// UnderlyingCoin mirrors Coin for the unwrapped asset behind each position.
// Underlying coins carry no separate exchange rate.
type UnderlyingCoin struct {
	ID                   string          `db:"id"`
	Index                int             `db:"index"`
	PoolID               string          `db:"pool_id"`
	TokenID              string          `db:"token_id"`
	Balance              decimal.Decimal `db:"balance"`
	Updated              int64           `db:"updated"`
	UpdatedAtBlock       uint64          `db:"updated_at_block"`
	UpdatedAtTransaction string          `db:"updated_at_transaction"`
}

// CoinBalance is an immutable per-block balance snapshot of one coin.
// ID is "<pool>-<index>-<block>", so at most one snapshot exists per
// pool/coin/block.
type CoinBalance struct {
	ID        string          `db:"id"`
	PoolID    string          `db:"pool_id"`
	Index     int             `db:"index"`
	CoinID    string          `db:"coin_id"`
	Block     uint64          `db:"block"`
	Timestamp int64           `db:"timestamp"`
	Date      string          `db:"date"`
	Balance   decimal.Decimal `db:"balance"`
}

// TotalBalance is an immutable per-block snapshot of the sum of all coin
// balances in a pool. ID is "<pool>-total-balance-<block>".
type TotalBalance struct {
	ID        string          `db:"id"`
	PoolID    string          `db:"pool_id"`
	Block     uint64          `db:"block"`
	Timestamp int64           `db:"timestamp"`
	Date      string          `db:"date"`
	Balance   decimal.Decimal `db:"balance"`
	Name      string          `db:"name"`
}

// AddLiquidityEvent is the append-only log record of an AddLiquidity event.
type AddLiquidityEvent struct {
	ID           string     `db:"id"`
	PoolID       string     `db:"pool_id"`
	ProviderID   string     `db:"provider_id"`
	TokenAmounts []*big.Int `db:"token_amounts"`
	Fees         []*big.Int `db:"fees"`
	Invariant    *big.Int   `db:"invariant"`
	TokenSupply  *big.Int   `db:"token_supply"`
	Block        uint64     `db:"block"`
	Timestamp    int64      `db:"timestamp"`
	Transaction  string     `db:"transaction"`
}

// RemoveLiquidityEvent covers both the balanced and the imbalanced removal
// variants; Invariant is nil for the balanced one, which does not emit it.
type RemoveLiquidityEvent struct {
	ID           string     `db:"id"`
	PoolID       string     `db:"pool_id"`
	ProviderID   string     `db:"provider_id"`
	TokenAmounts []*big.Int `db:"token_amounts"`
	Fees         []*big.Int `db:"fees"`
	Invariant    *big.Int   `db:"invariant"`
	TokenSupply  *big.Int   `db:"token_supply"`
	Block        uint64     `db:"block"`
	Timestamp    int64      `db:"timestamp"`
	Transaction  string     `db:"transaction"`
}

// RemoveLiquidityOneEvent is the single-coin withdrawal log record.
type RemoveLiquidityOneEvent struct {
	ID          string   `db:"id"`
	PoolID      string   `db:"pool_id"`
	ProviderID  string   `db:"provider_id"`
	TokenAmount *big.Int `db:"token_amount"`
	CoinAmount  *big.Int `db:"coin_amount"`
	Block       uint64   `db:"block"`
	Timestamp   int64    `db:"timestamp"`
	Transaction string   `db:"transaction"`
}

// Exchange is the trade log record. Buyer and receiver are the same
// account; the contract does not report a separate recipient.
type Exchange struct {
	ID            string          `db:"id"`
	PoolID        string          `db:"pool_id"`
	BuyerID       string          `db:"buyer_id"`
	ReceiverID    string          `db:"receiver_id"`
	TokenSoldID   string          `db:"token_sold_id"`
	TokenBoughtID string          `db:"token_bought_id"`
	AmountSold    decimal.Decimal `db:"amount_sold"`
	AmountBought  decimal.Decimal `db:"amount_bought"`
	Block         uint64          `db:"block"`
	Timestamp     int64           `db:"timestamp"`
	Transaction   string          `db:"transaction"`
}

// TransferOwnershipEvent records a NewAdmin event.
type TransferOwnershipEvent struct {
	ID          string `db:"id"`
	PoolID      string `db:"pool_id"`
	NewAdmin    string `db:"new_admin"`
	Block       uint64 `db:"block"`
	Timestamp   int64  `db:"timestamp"`
	Transaction string `db:"transaction"`
}

// AdminFeeChangelog records an admin fee change as a precision-scaled value.
type AdminFeeChangelog struct {
	ID          string          `db:"id"`
	PoolID      string          `db:"pool_id"`
	Value       decimal.Decimal `db:"value"`
	Block       uint64          `db:"block"`
	Timestamp   int64           `db:"timestamp"`
	Transaction string          `db:"transaction"`
}

// FeeChangelog records a trade fee change as a precision-scaled value.
type FeeChangelog struct {
	ID          string          `db:"id"`
	PoolID      string          `db:"pool_id"`
	Value       decimal.Decimal `db:"value"`
	Block       uint64          `db:"block"`
	Timestamp   int64           `db:"timestamp"`
	Transaction string          `db:"transaction"`
}

// AmplificationCoeffChangelog records a change of the pool's A parameter.
type AmplificationCoeffChangelog struct {
	ID          string   `db:"id"`
	PoolID      string   `db:"pool_id"`
	Value       *big.Int `db:"value"`
	Block       uint64   `db:"block"`
	Timestamp   int64    `db:"timestamp"`
	Transaction string   `db:"transaction"`
}

// HourlyTradeVolume accumulates trade volume per pool per hour window.
// Timestamp is the window start; Date is display only.
type HourlyTradeVolume struct {
	ID        string          `db:"id"`
	PoolID    string          `db:"pool_id"`
	Timestamp int64           `db:"timestamp"`
	Date      string          `db:"date"`
	Volume    decimal.Decimal `db:"volume"`
}

// DailyTradeVolume accumulates trade volume per pool per day window.
type DailyTradeVolume struct {
	ID        string          `db:"id"`
	PoolID    string          `db:"pool_id"`
	Timestamp int64           `db:"timestamp"`
	Date      string          `db:"date"`
	Volume    decimal.Decimal `db:"volume"`
}

// WeeklyTradeVolume accumulates trade volume per pool per week window.
type WeeklyTradeVolume struct {
	ID        string          `db:"id"`
	PoolID    string          `db:"pool_id"`
	Timestamp int64           `db:"timestamp"`
	Date      string          `db:"date"`
	Volume    decimal.Decimal `db:"volume"`
}

// DailyFee accumulates recovered protocol fees per pool and bought coin
// per day window.
type DailyFee struct {
	ID        string          `db:"id"`
	PoolID    string          `db:"pool_id"`
	CoinID    string          `db:"coin_id"`
	Timestamp int64           `db:"timestamp"`
	Date      string          `db:"date"`
	Amount    decimal.Decimal `db:"amount"`
}

// WeeklyFee accumulates recovered protocol fees per week window.
type WeeklyFee struct {
	ID        string          `db:"id"`
	PoolID    string          `db:"pool_id"`
	CoinID    string          `db:"coin_id"`
	Timestamp int64           `db:"timestamp"`
	Date      string          `db:"date"`
	Amount    decimal.Decimal `db:"amount"`
}

// MonthlyFee accumulates recovered protocol fees per 30-day window. The
// window is a fixed 30 days, not a calendar month.
type MonthlyFee struct {
	ID        string          `db:"id"`
	PoolID    string          `db:"pool_id"`
	CoinID    string          `db:"coin_id"`
	Timestamp int64           `db:"timestamp"`
	Date      string          `db:"date"`
	Amount    decimal.Decimal `db:"amount"`
}
