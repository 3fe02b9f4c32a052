package curve

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/plutodigital/curve-subgraph/internal/model"
	"github.com/plutodigital/curve-subgraph/internal/modules/core"
	"github.com/plutodigital/curve-subgraph/internal/store"
	"github.com/plutodigital/curve-subgraph/internal/units"
)

// feePrecision is the fixed-point precision of the fee and admin_fee
// values emitted by StableSwap contracts.
const feePrecision = 10

// assetTypeAvailableBlock is the first block at which the registry's pool
// asset types are known to be populated. batch_set_pool_asset_type() emits
// no events, so earlier blocks cannot be classified reliably.
const assetTypeAvailableBlock = 12667823

// createPool materializes a new pool from registry state at the given block.
func (m *Module) createPool(ctx context.Context, address common.Address, name string, block uint64) error {
	coinCount, underlyingCount, ok := m.reader.NCoins(ctx, address, block)
	if !ok {
		return fmt.Errorf("pool %s is not known to the registry at block %d", address.Hex(), block)
	}

	pool := &model.Pool{
		ID:              poolID(address),
		RegistryAddress: strings.ToLower(m.registryAddress.Hex()),
		SwapAddress:     poolID(address),
		Name:            name,
		CoinCount:       coinCount,
		UnderlyingCount: underlyingCount,
		VirtualPrice:    decimal.Zero,
		AddedAtBlock:    block,
	}

	if a, ok := m.reader.ParameterA(ctx, address, block); ok {
		pool.A = a
	}
	if fee, ok := m.reader.Fee(ctx, address, block); ok {
		pool.Fee = units.ScaleDecimal(fee, feePrecision)
	}
	if adminFee, ok := m.reader.AdminFee(ctx, address, block); ok {
		pool.AdminFee = units.ScaleDecimal(adminFee, feePrecision)
	}
	if owner, ok := m.reader.Owner(ctx, address, block); ok {
		pool.Owner = strings.ToLower(owner.Hex())
	}

	if err := m.store.SavePool(ctx, pool); err != nil {
		return fmt.Errorf("failed to save pool %s: %w", pool.ID, err)
	}

	m.logger.Info().
		Str("pool", pool.ID).
		Str("name", name).
		Int("coins", coinCount).
		Uint64("block", block).
		Msg("Pool registered")

	return nil
}

// refreshPoolSnapshot brings a pool's derived state up to the event's
// block: reference-asset classification, coin balances and rates, and the
// current virtual price. The pool is mutated in place; callers persist it.
func (m *Module) refreshPoolSnapshot(ctx context.Context, pool *model.Pool, event *core.Event) error {
	swapAddress := common.HexToAddress(pool.SwapAddress)

	if event.BlockNumber >= assetTypeAvailableBlock && pool.AssetType == nil {
		if raw, ok := m.reader.PoolAssetType(ctx, swapAddress, event.BlockNumber); ok {
			if assetType, classified := classifyAssetType(raw.Int64(), pool.Name); classified {
				pool.AssetType = &assetType
			}
		}
	}

	if err := m.saveCoins(ctx, pool, event); err != nil {
		return err
	}

	if virtualPrice, ok := m.reader.VirtualPrice(ctx, swapAddress, event.BlockNumber); ok {
		pool.VirtualPrice = units.ScaleDecimal(virtualPrice, units.DefaultDecimals)
	}

	return nil
}

// classifyAssetType maps a registry asset type code to a reference asset.
// Unknown codes leave the pool unclassified so a later read can settle it.
func classifyAssetType(code int64, poolName string) (model.AssetType, bool) {
	switch code {
	case 0:
		return model.AssetTypeUSD, true
	case 1:
		return model.AssetTypeETH, true
	case 2:
		return model.AssetTypeBTC, true
	case 3:
		if poolName == "link" {
			return model.AssetTypeLINK, true
		}
		if strings.HasPrefix(poolName, "eur") {
			return model.AssetTypeEUR, true
		}
		return model.AssetTypeOther, true
	case 4:
		return model.AssetTypeCrypto, true
	default:
		return "", false
	}
}

// saveCoins refreshes the pool's coin and underlying coin records from the
// registry, appends per-block balance snapshots, and records the summed
// total balance. Unavailable reads fall back to zero balances and unit
// rates rather than failing the event.
func (m *Module) saveCoins(ctx context.Context, pool *model.Pool, event *core.Event) error {
	swapAddress := common.HexToAddress(pool.SwapAddress)
	block := event.BlockNumber

	var symbols []string
	totalBalance := decimal.Zero

	coins, hasCoins := m.reader.Coins(ctx, swapAddress, block)
	if hasCoins {
		balances, hasBalances := m.reader.Balances(ctx, swapAddress, block)
		rates, hasRates := m.reader.Rates(ctx, swapAddress, block)

		for i := 0; i < pool.CoinCount && i < len(coins); i++ {
			token, err := m.getOrCreateToken(ctx, coins[i])
			if err != nil {
				return err
			}
			if token.Symbol != "" {
				symbols = append(symbols, token.Symbol)
			}

			coin := &model.Coin{
				ID:                   fmt.Sprintf("%s-%d", pool.ID, i),
				Index:                i,
				PoolID:               pool.ID,
				TokenID:              token.ID,
				Balance:              decimal.Zero,
				Rate:                 decimal.NewFromInt(1),
				Updated:              event.Timestamp,
				UpdatedAtBlock:       block,
				UpdatedAtTransaction: event.TransactionHash.Hex(),
			}
			if hasBalances && i < len(balances) {
				coin.Balance = units.ScaleDecimal(balances[i], token.Decimals)
			}
			if hasRates && i < len(rates) {
				coin.Rate = units.ScaleDecimal(rates[i], units.DefaultDecimals)
			}

			if err := m.store.SaveCoin(ctx, coin); err != nil {
				return fmt.Errorf("failed to save coin %s: %w", coin.ID, err)
			}

			coinBalance := &model.CoinBalance{
				ID:        fmt.Sprintf("%s-%d-%d", pool.ID, i, block),
				PoolID:    pool.ID,
				Index:     i,
				CoinID:    coin.ID,
				Block:     block,
				Timestamp: event.Timestamp,
				Date:      units.FormatDate(event.Timestamp),
				Balance:   coin.Balance,
			}
			if err := m.store.SaveCoinBalance(ctx, coinBalance); err != nil {
				return fmt.Errorf("failed to save coin balance %s: %w", coinBalance.ID, err)
			}

			totalBalance = totalBalance.Add(coin.Balance)
		}
	}

	total := &model.TotalBalance{
		ID:        fmt.Sprintf("%s-total-balance-%d", pool.ID, block),
		PoolID:    pool.ID,
		Block:     block,
		Timestamp: event.Timestamp,
		Date:      units.FormatDate(event.Timestamp),
		Balance:   totalBalance,
		Name:      strings.Join(symbols, "+"),
	}
	if err := m.store.SaveTotalBalance(ctx, total); err != nil {
		return fmt.Errorf("failed to save total balance %s: %w", total.ID, err)
	}

	underlyingCoins, hasUnderlying := m.reader.UnderlyingCoins(ctx, swapAddress, block)
	if hasUnderlying {
		underlyingBalances, hasBalances := m.reader.UnderlyingBalances(ctx, swapAddress, block)

		for i := 0; i < pool.UnderlyingCount && i < len(underlyingCoins); i++ {
			token, err := m.getOrCreateToken(ctx, underlyingCoins[i])
			if err != nil {
				return err
			}

			coin := &model.UnderlyingCoin{
				ID:                   fmt.Sprintf("%s-%d", pool.ID, i),
				Index:                i,
				PoolID:               pool.ID,
				TokenID:              token.ID,
				Balance:              decimal.Zero,
				Updated:              event.Timestamp,
				UpdatedAtBlock:       block,
				UpdatedAtTransaction: event.TransactionHash.Hex(),
			}
			if hasBalances && i < len(underlyingBalances) {
				coin.Balance = units.ScaleDecimal(underlyingBalances[i], units.DefaultDecimals)
			}

			if err := m.store.SaveUnderlyingCoin(ctx, coin); err != nil {
				return fmt.Errorf("failed to save underlying coin %s: %w", coin.ID, err)
			}
		}
	}

	return nil
}

// getOrCreateToken resolves a token entity, fetching ERC-20 metadata from
// the chain on first sight.
func (m *Module) getOrCreateToken(ctx context.Context, address common.Address) (*model.Token, error) {
	id := strings.ToLower(address.Hex())

	token, err := m.store.Token(ctx, id)
	if err == nil {
		return token, nil
	}
	if err != store.ErrNotFound {
		return nil, fmt.Errorf("failed to load token %s: %w", id, err)
	}

	metadata := m.reader.TokenMetadata(ctx, address)
	token = &model.Token{
		ID:       id,
		Address:  id,
		Name:     metadata.Name,
		Symbol:   metadata.Symbol,
		Decimals: metadata.Decimals,
	}

	if err := m.store.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save token %s: %w", id, err)
	}

	m.logger.Debug().
		Str("token", id).
		Str("symbol", token.Symbol).
		Int32("decimals", token.Decimals).
		Msg("Token registered")

	return token, nil
}

// getOrRegisterAccount resolves an account entity, creating it on first sight.
func (m *Module) getOrRegisterAccount(ctx context.Context, address common.Address) (*model.Account, error) {
	id := strings.ToLower(address.Hex())

	account, err := m.store.Account(ctx, id)
	if err == nil {
		return account, nil
	}
	if err != store.ErrNotFound {
		return nil, fmt.Errorf("failed to load account %s: %w", id, err)
	}

	account = &model.Account{ID: id, Address: id}
	if err := m.store.SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account %s: %w", id, err)
	}

	return account, nil
}
