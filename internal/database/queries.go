package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DTOs for API responses (lightweight, no ORM tags)
type PoolDTO struct {
	Address         string  `json:"address"`
	Name            string  `json:"name"`
	AssetType       *string `json:"asset_type,omitempty"`
	CoinCount       int     `json:"coin_count"`
	UnderlyingCount int     `json:"underlying_count"`
	A               *string `json:"a,omitempty"`
	Fee             string  `json:"fee"`
	AdminFee        string  `json:"admin_fee"`
	VirtualPrice    string  `json:"virtual_price"`
	Owner           string  `json:"owner"`
	ExchangeCount   int64   `json:"exchange_count"`
	AddedAtBlock    int64   `json:"added_at_block"`
}

type CoinDTO struct {
	Index        int     `json:"index"`
	TokenAddress string  `json:"token_address"`
	Symbol       *string `json:"symbol,omitempty"`
	Name         *string `json:"name,omitempty"`
	Decimals     *int32  `json:"decimals,omitempty"`
	Balance      string  `json:"balance"`
	Rate         string  `json:"rate"`
}

type TokenDTO struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

type ExchangeDTO struct {
	ID           string `json:"id"`
	Buyer        string `json:"buyer"`
	TokenSold    string `json:"token_sold"`
	TokenBought  string `json:"token_bought"`
	AmountSold   string `json:"amount_sold"`
	AmountBought string `json:"amount_bought"`
	Block        int64  `json:"block"`
	Timestamp    int64  `json:"timestamp"`
	Transaction  string `json:"transaction"`
}

type VolumePointDTO struct {
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
	Volume    string `json:"volume"`
}

type FeePointDTO struct {
	CoinID    string `json:"coin_id"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
	Amount    string `json:"amount"`
}

type StatsDTO struct {
	TotalPools     int64 `json:"total_pools"`
	TotalTokens    int64 `json:"total_tokens"`
	TotalExchanges int64 `json:"total_exchanges"`
}

func ListPools(ctx context.Context, db *pgxpool.Pool, limit, offset int) ([]PoolDTO, error) {
	query := `
		SELECT id, name, asset_type, coin_count, underlying_count, a::text,
		       fee::text, admin_fee::text, virtual_price::text,
		       owner, exchange_count, added_at_block
		FROM pools
		ORDER BY added_at_block, id
		LIMIT $1 OFFSET $2`

	rows, err := db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query pools: %w", err)
	}
	defer rows.Close()

	var pools []PoolDTO
	for rows.Next() {
		var p PoolDTO
		err := rows.Scan(&p.Address, &p.Name, &p.AssetType, &p.CoinCount, &p.UnderlyingCount,
			&p.A, &p.Fee, &p.AdminFee, &p.VirtualPrice, &p.Owner, &p.ExchangeCount, &p.AddedAtBlock)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pool: %w", err)
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

func GetPool(ctx context.Context, db *pgxpool.Pool, address string) (*PoolDTO, error) {
	query := `
		SELECT id, name, asset_type, coin_count, underlying_count, a::text,
		       fee::text, admin_fee::text, virtual_price::text,
		       owner, exchange_count, added_at_block
		FROM pools WHERE id = $1`

	var p PoolDTO
	err := db.QueryRow(ctx, query, address).Scan(
		&p.Address, &p.Name, &p.AssetType, &p.CoinCount, &p.UnderlyingCount,
		&p.A, &p.Fee, &p.AdminFee, &p.VirtualPrice, &p.Owner, &p.ExchangeCount, &p.AddedAtBlock)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func ListPoolCoins(ctx context.Context, db *pgxpool.Pool, address string) ([]CoinDTO, error) {
	query := `
		SELECT c."index", c.token_id, t.symbol, t.name, t.decimals,
		       c.balance::text, c.rate::text
		FROM coins c
		LEFT JOIN tokens t ON t.id = c.token_id
		WHERE c.pool_id = $1
		ORDER BY c."index"`

	rows, err := db.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("failed to query coins: %w", err)
	}
	defer rows.Close()

	var coins []CoinDTO
	for rows.Next() {
		var c CoinDTO
		err := rows.Scan(&c.Index, &c.TokenAddress, &c.Symbol, &c.Name, &c.Decimals,
			&c.Balance, &c.Rate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coin: %w", err)
		}
		coins = append(coins, c)
	}
	return coins, rows.Err()
}

func ListTokens(ctx context.Context, db *pgxpool.Pool, limit, offset int, search *string) ([]TokenDTO, error) {
	query := `
		SELECT id, name, symbol, decimals
		FROM tokens`
	args := []interface{}{limit, offset}
	if search != nil {
		query += ` WHERE symbol ILIKE '%' || $3 || '%' OR name ILIKE '%' || $3 || '%'`
		args = append(args, *search)
	}
	query += `
		ORDER BY symbol, id
		LIMIT $1 OFFSET $2`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []TokenDTO
	for rows.Next() {
		var t TokenDTO
		if err := rows.Scan(&t.Address, &t.Name, &t.Symbol, &t.Decimals); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func ListPoolExchanges(ctx context.Context, db *pgxpool.Pool, address string, limit, offset int) ([]ExchangeDTO, error) {
	query := `
		SELECT e.id, a.address, e.token_sold_id, e.token_bought_id,
		       e.amount_sold::text, e.amount_bought::text,
		       e.block, e.timestamp, e.transaction
		FROM exchanges e
		LEFT JOIN accounts a ON a.id = e.buyer_id
		WHERE e.pool_id = $1
		ORDER BY e.block DESC, e.timestamp DESC
		LIMIT $2 OFFSET $3`

	rows, err := db.Query(ctx, query, address, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []ExchangeDTO
	for rows.Next() {
		var e ExchangeDTO
		err := rows.Scan(&e.ID, &e.Buyer, &e.TokenSold, &e.TokenBought,
			&e.AmountSold, &e.AmountBought, &e.Block, &e.Timestamp, &e.Transaction)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, e)
	}
	return exchanges, rows.Err()
}

// ListPoolVolume returns the volume buckets of a pool for the hour, day or
// week window, newest first.
func ListPoolVolume(ctx context.Context, db *pgxpool.Pool, address, window string, limit, offset int) ([]VolumePointDTO, error) {
	var table string
	switch window {
	case "hour":
		table = "hourly_trade_volume"
	case "day":
		table = "daily_trade_volume"
	case "week":
		table = "weekly_trade_volume"
	default:
		return nil, fmt.Errorf("unknown volume window %q", window)
	}

	query := fmt.Sprintf(`
		SELECT timestamp, date, volume::text
		FROM %s
		WHERE pool_id = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3`, table)

	rows, err := db.Query(ctx, query, address, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var points []VolumePointDTO
	for rows.Next() {
		var p VolumePointDTO
		if err := rows.Scan(&p.Timestamp, &p.Date, &p.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan volume point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ListPoolFees returns the recovered fee buckets of a pool for the day,
// week or month window, newest first.
func ListPoolFees(ctx context.Context, db *pgxpool.Pool, address, window string, limit, offset int) ([]FeePointDTO, error) {
	var table string
	switch window {
	case "day":
		table = "daily_fees"
	case "week":
		table = "weekly_fees"
	case "month":
		table = "monthly_fees"
	default:
		return nil, fmt.Errorf("unknown fee window %q", window)
	}

	query := fmt.Sprintf(`
		SELECT coin_id, timestamp, date, amount::text
		FROM %s
		WHERE pool_id = $1
		ORDER BY timestamp DESC, coin_id
		LIMIT $2 OFFSET $3`, table)

	rows, err := db.Query(ctx, query, address, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var points []FeePointDTO
	for rows.Next() {
		var p FeePointDTO
		if err := rows.Scan(&p.CoinID, &p.Timestamp, &p.Date, &p.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan fee point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func GetStats(ctx context.Context, db *pgxpool.Pool) (*StatsDTO, error) {
	var stats StatsDTO
	err := db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM pools),
			(SELECT COUNT(*) FROM tokens),
			(SELECT COUNT(*) FROM exchanges)`,
	).Scan(&stats.TotalPools, &stats.TotalTokens, &stats.TotalExchanges)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	return &stats, nil
}
