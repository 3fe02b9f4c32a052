package database

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/plutodigital/curve-subgraph/internal/model"
	"github.com/plutodigital/curve-subgraph/internal/store"
)

// querier is the executor surface shared by pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists entities in Postgres. Saves are idempotent upserts keyed
// by the entity IDs, so replaying a block is safe.
type Store struct {
	db *Database
	q  querier
}

func NewStore(db *Database) *Store {
	return &Store{db: db, q: db.pool}
}

var _ store.Store = (*Store)(nil)

// InTransaction runs fn with every store access scoped to one database
// transaction. Event processing is single-threaded, so swapping the
// executor for the duration of the callback is safe.
func (s *Store) InTransaction(ctx context.Context, fn func() error) error {
	return s.db.Transaction(ctx, func(tx pgx.Tx) error {
		s.q = tx
		defer func() { s.q = s.db.pool }()
		return fn()
	})
}

// SetCursor advances the sync cursor through the current executor, so a
// call made inside InTransaction commits atomically with the entity
// writes of the same block.
func (s *Store) SetCursor(ctx context.Context, blockNumber uint64) error {
	query := `
		INSERT INTO indexer_state (chain_id, last_block_number, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (chain_id)
		DO UPDATE SET last_block_number = EXCLUDED.last_block_number, updated_at = NOW()`

	if _, err := s.q.Exec(ctx, query, s.db.chainID, blockNumber); err != nil {
		return fmt.Errorf("failed to update sync cursor: %w", err)
	}
	return nil
}

// Numerics travel as strings: large unsigned integers do not fit the
// native integer types and pgx has no codec for shopspring decimals.

func bigToString(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func stringToBig(s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(*s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", *s)
	}
	return v, nil
}

func bigsToStrings(values []*big.Int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = "0"
			continue
		}
		out[i] = v.String()
	}
	return out
}

func stringsToBigs(values []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, s := range values {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		out[i] = v
	}
	return out, nil
}

func mapNotFound(err error, what, id string) error {
	if err == pgx.ErrNoRows {
		return store.ErrNotFound
	}
	return fmt.Errorf("failed to load %s %s: %w", what, id, err)
}

func (s *Store) Pool(ctx context.Context, id string) (*model.Pool, error) {
	query := `
		SELECT id, registry_address, swap_address, name, asset_type,
		       coin_count, underlying_count, a::text,
		       fee::text, admin_fee::text, virtual_price::text,
		       owner, exchange_count, added_at_block
		FROM pools WHERE id = $1`

	var (
		pool                    model.Pool
		assetType               *string
		a, fee, adminFee, price *string
	)
	err := s.q.QueryRow(ctx, query, id).Scan(
		&pool.ID, &pool.RegistryAddress, &pool.SwapAddress, &pool.Name, &assetType,
		&pool.CoinCount, &pool.UnderlyingCount, &a,
		&fee, &adminFee, &price,
		&pool.Owner, &pool.ExchangeCount, &pool.AddedAtBlock,
	)
	if err != nil {
		return nil, mapNotFound(err, "pool", id)
	}

	if assetType != nil {
		at := model.AssetType(*assetType)
		pool.AssetType = &at
	}
	if pool.A, err = stringToBig(a); err != nil {
		return nil, err
	}
	if fee != nil {
		if pool.Fee, err = decimal.NewFromString(*fee); err != nil {
			return nil, err
		}
	}
	if adminFee != nil {
		if pool.AdminFee, err = decimal.NewFromString(*adminFee); err != nil {
			return nil, err
		}
	}
	if price != nil {
		if pool.VirtualPrice, err = decimal.NewFromString(*price); err != nil {
			return nil, err
		}
	}

	return &pool, nil
}

func (s *Store) SavePool(ctx context.Context, pool *model.Pool) error {
	query := `
		INSERT INTO pools (id, registry_address, swap_address, name, asset_type,
		                   coin_count, underlying_count, a, fee, admin_fee,
		                   virtual_price, owner, exchange_count, added_at_block)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10::numeric,
		        $11::numeric, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			asset_type = EXCLUDED.asset_type,
			coin_count = EXCLUDED.coin_count,
			underlying_count = EXCLUDED.underlying_count,
			a = EXCLUDED.a,
			fee = EXCLUDED.fee,
			admin_fee = EXCLUDED.admin_fee,
			virtual_price = EXCLUDED.virtual_price,
			owner = EXCLUDED.owner,
			exchange_count = EXCLUDED.exchange_count`

	var assetType *string
	if pool.AssetType != nil {
		at := string(*pool.AssetType)
		assetType = &at
	}

	_, err := s.q.Exec(ctx, query,
		pool.ID, pool.RegistryAddress, pool.SwapAddress, pool.Name, assetType,
		pool.CoinCount, pool.UnderlyingCount, bigToString(pool.A),
		pool.Fee.String(), pool.AdminFee.String(), pool.VirtualPrice.String(),
		pool.Owner, pool.ExchangeCount, pool.AddedAtBlock,
	)
	if err != nil {
		return fmt.Errorf("failed to save pool %s: %w", pool.ID, err)
	}
	return nil
}

func (s *Store) Token(ctx context.Context, id string) (*model.Token, error) {
	var token model.Token
	err := s.q.QueryRow(ctx,
		`SELECT id, address, name, symbol, decimals FROM tokens WHERE id = $1`, id,
	).Scan(&token.ID, &token.Address, &token.Name, &token.Symbol, &token.Decimals)
	if err != nil {
		return nil, mapNotFound(err, "token", id)
	}
	return &token, nil
}

func (s *Store) SaveToken(ctx context.Context, token *model.Token) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO tokens (id, address, name, symbol, decimals)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			decimals = EXCLUDED.decimals`,
		token.ID, token.Address, token.Name, token.Symbol, token.Decimals)
	if err != nil {
		return fmt.Errorf("failed to save token %s: %w", token.ID, err)
	}
	return nil
}

func (s *Store) Account(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := s.q.QueryRow(ctx,
		`SELECT id, address FROM accounts WHERE id = $1`, id,
	).Scan(&account.ID, &account.Address)
	if err != nil {
		return nil, mapNotFound(err, "account", id)
	}
	return &account, nil
}

func (s *Store) SaveAccount(ctx context.Context, account *model.Account) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO accounts (id, address)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`,
		account.ID, account.Address)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	return nil
}

func (s *Store) Coin(ctx context.Context, id string) (*model.Coin, error) {
	query := `
		SELECT id, "index", pool_id, token_id, balance::text, rate::text,
		       updated, updated_at_block, updated_at_transaction
		FROM coins WHERE id = $1`

	var (
		coin          model.Coin
		balance, rate string
	)
	err := s.q.QueryRow(ctx, query, id).Scan(
		&coin.ID, &coin.Index, &coin.PoolID, &coin.TokenID, &balance, &rate,
		&coin.Updated, &coin.UpdatedAtBlock, &coin.UpdatedAtTransaction,
	)
	if err != nil {
		return nil, mapNotFound(err, "coin", id)
	}
	if coin.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, err
	}
	if coin.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, err
	}
	return &coin, nil
}

func (s *Store) SaveCoin(ctx context.Context, coin *model.Coin) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO coins (id, "index", pool_id, token_id, balance, rate,
		                   updated, updated_at_block, updated_at_transaction)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			token_id = EXCLUDED.token_id,
			balance = EXCLUDED.balance,
			rate = EXCLUDED.rate,
			updated = EXCLUDED.updated,
			updated_at_block = EXCLUDED.updated_at_block,
			updated_at_transaction = EXCLUDED.updated_at_transaction`,
		coin.ID, coin.Index, coin.PoolID, coin.TokenID,
		coin.Balance.String(), coin.Rate.String(),
		coin.Updated, coin.UpdatedAtBlock, coin.UpdatedAtTransaction)
	if err != nil {
		return fmt.Errorf("failed to save coin %s: %w", coin.ID, err)
	}
	return nil
}

func (s *Store) UnderlyingCoin(ctx context.Context, id string) (*model.UnderlyingCoin, error) {
	query := `
		SELECT id, "index", pool_id, token_id, balance::text,
		       updated, updated_at_block, updated_at_transaction
		FROM underlying_coins WHERE id = $1`

	var (
		coin    model.UnderlyingCoin
		balance string
	)
	err := s.q.QueryRow(ctx, query, id).Scan(
		&coin.ID, &coin.Index, &coin.PoolID, &coin.TokenID, &balance,
		&coin.Updated, &coin.UpdatedAtBlock, &coin.UpdatedAtTransaction,
	)
	if err != nil {
		return nil, mapNotFound(err, "underlying coin", id)
	}
	if coin.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, err
	}
	return &coin, nil
}

func (s *Store) SaveUnderlyingCoin(ctx context.Context, coin *model.UnderlyingCoin) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO underlying_coins (id, "index", pool_id, token_id, balance,
		                              updated, updated_at_block, updated_at_transaction)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			token_id = EXCLUDED.token_id,
			balance = EXCLUDED.balance,
			updated = EXCLUDED.updated,
			updated_at_block = EXCLUDED.updated_at_block,
			updated_at_transaction = EXCLUDED.updated_at_transaction`,
		coin.ID, coin.Index, coin.PoolID, coin.TokenID, coin.Balance.String(),
		coin.Updated, coin.UpdatedAtBlock, coin.UpdatedAtTransaction)
	if err != nil {
		return fmt.Errorf("failed to save underlying coin %s: %w", coin.ID, err)
	}
	return nil
}

func (s *Store) SaveCoinBalance(ctx context.Context, balance *model.CoinBalance) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO coin_balances (id, pool_id, "index", coin_id, block, timestamp, date, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric)
		ON CONFLICT (id) DO NOTHING`,
		balance.ID, balance.PoolID, balance.Index, balance.CoinID,
		balance.Block, balance.Timestamp, balance.Date, balance.Balance.String())
	if err != nil {
		return fmt.Errorf("failed to save coin balance %s: %w", balance.ID, err)
	}
	return nil
}

func (s *Store) SaveTotalBalance(ctx context.Context, balance *model.TotalBalance) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO total_balances (id, pool_id, block, timestamp, date, balance, name)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)
		ON CONFLICT (id) DO UPDATE SET
			balance = EXCLUDED.balance,
			name = EXCLUDED.name`,
		balance.ID, balance.PoolID, balance.Block, balance.Timestamp,
		balance.Date, balance.Balance.String(), balance.Name)
	if err != nil {
		return fmt.Errorf("failed to save total balance %s: %w", balance.ID, err)
	}
	return nil
}

func (s *Store) SaveAddLiquidity(ctx context.Context, event *model.AddLiquidityEvent) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO add_liquidity_events (id, pool_id, provider_id, token_amounts, fees,
		                                  invariant, token_supply, block, timestamp, transaction)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.PoolID, event.ProviderID,
		bigsToStrings(event.TokenAmounts), bigsToStrings(event.Fees),
		bigToString(event.Invariant), bigToString(event.TokenSupply),
		event.Block, event.Timestamp, event.Transaction)
	if err != nil {
		return fmt.Errorf("failed to save add liquidity event %s: %w", event.ID, err)
	}
	return nil
}

func (s *Store) SaveRemoveLiquidity(ctx context.Context, event *model.RemoveLiquidityEvent) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO remove_liquidity_events (id, pool_id, provider_id, token_amounts, fees,
		                                     invariant, token_supply, block, timestamp, transaction)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.PoolID, event.ProviderID,
		bigsToStrings(event.TokenAmounts), bigsToStrings(event.Fees),
		bigToString(event.Invariant), bigToString(event.TokenSupply),
		event.Block, event.Timestamp, event.Transaction)
	if err != nil {
		return fmt.Errorf("failed to save remove liquidity event %s: %w", event.ID, err)
	}
	return nil
}

func (s *Store) SaveRemoveLiquidityOne(ctx context.Context, event *model.RemoveLiquidityOneEvent) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO remove_liquidity_one_events (id, pool_id, provider_id, token_amount,
		                                         coin_amount, block, timestamp, transaction)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.PoolID, event.ProviderID,
		bigToString(event.TokenAmount), bigToString(event.CoinAmount),
		event.Block, event.Timestamp, event.Transaction)
	if err != nil {
		return fmt.Errorf("failed to save remove liquidity one event %s: %w", event.ID, err)
	}
	return nil
}

func (s *Store) SaveExchange(ctx context.Context, exchange *model.Exchange) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO exchanges (id, pool_id, buyer_id, receiver_id, token_sold_id,
		                       token_bought_id, amount_sold, amount_bought,
		                       block, timestamp, transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		exchange.ID, exchange.PoolID, exchange.BuyerID, exchange.ReceiverID,
		exchange.TokenSoldID, exchange.TokenBoughtID,
		exchange.AmountSold.String(), exchange.AmountBought.String(),
		exchange.Block, exchange.Timestamp, exchange.Transaction)
	if err != nil {
		return fmt.Errorf("failed to save exchange %s: %w", exchange.ID, err)
	}
	return nil
}

func (s *Store) SaveTransferOwnership(ctx context.Context, event *model.TransferOwnershipEvent) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO transfer_ownership_events (id, pool_id, new_admin, block, timestamp, transaction)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.PoolID, event.NewAdmin,
		event.Block, event.Timestamp, event.Transaction)
	if err != nil {
		return fmt.Errorf("failed to save ownership event %s: %w", event.ID, err)
	}
	return nil
}

func (s *Store) SaveAdminFeeChange(ctx context.Context, event *model.AdminFeeChangelog) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO admin_fee_changelog (id, pool_id, value, block, timestamp, transaction)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.PoolID, event.Value.String(),
		event.Block, event.Timestamp, event.Transaction)
	if err != nil {
		return fmt.Errorf("failed to save admin fee changelog %s: %w", event.ID, err)
	}
	return nil
}

func (s *Store) SaveFeeChange(ctx context.Context, event *model.FeeChangelog) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO fee_changelog (id, pool_id, value, block, timestamp, transaction)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.PoolID, event.Value.String(),
		event.Block, event.Timestamp, event.Transaction)
	if err != nil {
		return fmt.Errorf("failed to save fee changelog %s: %w", event.ID, err)
	}
	return nil
}

func (s *Store) SaveAmplificationChange(ctx context.Context, event *model.AmplificationCoeffChangelog) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO amplification_changelog (id, pool_id, value, block, timestamp, transaction)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.PoolID, bigToString(event.Value),
		event.Block, event.Timestamp, event.Transaction)
	if err != nil {
		return fmt.Errorf("failed to save amplification changelog %s: %w", event.ID, err)
	}
	return nil
}

func (s *Store) HourlyTradeVolume(ctx context.Context, id string) (*model.HourlyTradeVolume, error) {
	var (
		v      model.HourlyTradeVolume
		volume string
	)
	err := s.q.QueryRow(ctx,
		`SELECT id, pool_id, timestamp, date, volume::text FROM hourly_trade_volume WHERE id = $1`, id,
	).Scan(&v.ID, &v.PoolID, &v.Timestamp, &v.Date, &volume)
	if err != nil {
		return nil, mapNotFound(err, "hourly volume", id)
	}
	if v.Volume, err = decimal.NewFromString(volume); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) SaveHourlyTradeVolume(ctx context.Context, v *model.HourlyTradeVolume) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO hourly_trade_volume (id, pool_id, timestamp, date, volume)
		VALUES ($1, $2, $3, $4, $5::numeric)
		ON CONFLICT (id) DO UPDATE SET volume = EXCLUDED.volume`,
		v.ID, v.PoolID, v.Timestamp, v.Date, v.Volume.String())
	if err != nil {
		return fmt.Errorf("failed to save hourly volume %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) DailyTradeVolume(ctx context.Context, id string) (*model.DailyTradeVolume, error) {
	var (
		v      model.DailyTradeVolume
		volume string
	)
	err := s.q.QueryRow(ctx,
		`SELECT id, pool_id, timestamp, date, volume::text FROM daily_trade_volume WHERE id = $1`, id,
	).Scan(&v.ID, &v.PoolID, &v.Timestamp, &v.Date, &volume)
	if err != nil {
		return nil, mapNotFound(err, "daily volume", id)
	}
	if v.Volume, err = decimal.NewFromString(volume); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) SaveDailyTradeVolume(ctx context.Context, v *model.DailyTradeVolume) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO daily_trade_volume (id, pool_id, timestamp, date, volume)
		VALUES ($1, $2, $3, $4, $5::numeric)
		ON CONFLICT (id) DO UPDATE SET volume = EXCLUDED.volume`,
		v.ID, v.PoolID, v.Timestamp, v.Date, v.Volume.String())
	if err != nil {
		return fmt.Errorf("failed to save daily volume %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) WeeklyTradeVolume(ctx context.Context, id string) (*model.WeeklyTradeVolume, error) {
	var (
		v      model.WeeklyTradeVolume
		volume string
	)
	err := s.q.QueryRow(ctx,
		`SELECT id, pool_id, timestamp, date, volume::text FROM weekly_trade_volume WHERE id = $1`, id,
	).Scan(&v.ID, &v.PoolID, &v.Timestamp, &v.Date, &volume)
	if err != nil {
		return nil, mapNotFound(err, "weekly volume", id)
	}
	if v.Volume, err = decimal.NewFromString(volume); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) SaveWeeklyTradeVolume(ctx context.Context, v *model.WeeklyTradeVolume) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO weekly_trade_volume (id, pool_id, timestamp, date, volume)
		VALUES ($1, $2, $3, $4, $5::numeric)
		ON CONFLICT (id) DO UPDATE SET volume = EXCLUDED.volume`,
		v.ID, v.PoolID, v.Timestamp, v.Date, v.Volume.String())
	if err != nil {
		return fmt.Errorf("failed to save weekly volume %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) DailyFee(ctx context.Context, id string) (*model.DailyFee, error) {
	var (
		f      model.DailyFee
		amount string
	)
	err := s.q.QueryRow(ctx,
		`SELECT id, pool_id, coin_id, timestamp, date, amount::text FROM daily_fees WHERE id = $1`, id,
	).Scan(&f.ID, &f.PoolID, &f.CoinID, &f.Timestamp, &f.Date, &amount)
	if err != nil {
		return nil, mapNotFound(err, "daily fee", id)
	}
	if f.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) SaveDailyFee(ctx context.Context, f *model.DailyFee) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO daily_fees (id, pool_id, coin_id, timestamp, date, amount)
		VALUES ($1, $2, $3, $4, $5, $6::numeric)
		ON CONFLICT (id) DO UPDATE SET amount = EXCLUDED.amount`,
		f.ID, f.PoolID, f.CoinID, f.Timestamp, f.Date, f.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to save daily fee %s: %w", f.ID, err)
	}
	return nil
}

func (s *Store) WeeklyFee(ctx context.Context, id string) (*model.WeeklyFee, error) {
	var (
		f      model.WeeklyFee
		amount string
	)
	err := s.q.QueryRow(ctx,
		`SELECT id, pool_id, coin_id, timestamp, date, amount::text FROM weekly_fees WHERE id = $1`, id,
	).Scan(&f.ID, &f.PoolID, &f.CoinID, &f.Timestamp, &f.Date, &amount)
	if err != nil {
		return nil, mapNotFound(err, "weekly fee", id)
	}
	if f.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) SaveWeeklyFee(ctx context.Context, f *model.WeeklyFee) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO weekly_fees (id, pool_id, coin_id, timestamp, date, amount)
		VALUES ($1, $2, $3, $4, $5, $6::numeric)
		ON CONFLICT (id) DO UPDATE SET amount = EXCLUDED.amount`,
		f.ID, f.PoolID, f.CoinID, f.Timestamp, f.Date, f.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to save weekly fee %s: %w", f.ID, err)
	}
	return nil
}

func (s *Store) MonthlyFee(ctx context.Context, id string) (*model.MonthlyFee, error) {
	var (
		f      model.MonthlyFee
		amount string
	)
	err := s.q.QueryRow(ctx,
		`SELECT id, pool_id, coin_id, timestamp, date, amount::text FROM monthly_fees WHERE id = $1`, id,
	).Scan(&f.ID, &f.PoolID, &f.CoinID, &f.Timestamp, &f.Date, &amount)
	if err != nil {
		return nil, mapNotFound(err, "monthly fee", id)
	}
	if f.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) SaveMonthlyFee(ctx context.Context, f *model.MonthlyFee) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO monthly_fees (id, pool_id, coin_id, timestamp, date, amount)
		VALUES ($1, $2, $3, $4, $5, $6::numeric)
		ON CONFLICT (id) DO UPDATE SET amount = EXCLUDED.amount`,
		f.ID, f.PoolID, f.CoinID, f.Timestamp, f.Date, f.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to save monthly fee %s: %w", f.ID, err)
	}
	return nil
}
