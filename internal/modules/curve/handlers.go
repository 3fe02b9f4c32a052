package curve

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/plutodigital/curve-subgraph/internal/model"
	"github.com/plutodigital/curve-subgraph/internal/modules/core"
	"github.com/plutodigital/curve-subgraph/internal/store"
	"github.com/plutodigital/curve-subgraph/internal/units"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// eventID is the deterministic key suffix shared by all event log records.
// Replaying the same log lands on the same record.
func eventID(event *core.Event) string {
	return fmt.Sprintf("%s-%d", event.TransactionHash.Hex(), event.LogIndex)
}

// indexedAddress reads the first indexed parameter as an address.
func indexedAddress(event *core.Event) common.Address {
	if len(event.Log.Topics) >= 2 {
		return common.BytesToAddress(event.Log.Topics[1].Bytes())
	}
	return common.Address{}
}

// requireWords rejects logs whose data payload is shorter than the event
// layout, before any state is derived from zero-filled reads.
func requireWords(event *core.Event, count int) error {
	if event.WordCount() < count {
		return core.ErrInvalidEvent{
			Reason: fmt.Sprintf("log %s carries %d data words, expected %d",
				eventID(event), event.WordCount(), count),
		}
	}
	return nil
}

// eventWords slices count consecutive data words starting at offset.
func eventWords(event *core.Event, offset, count int) []*big.Int {
	words := make([]*big.Int, count)
	for i := 0; i < count; i++ {
		words[i] = event.Word(offset + i)
	}
	return words
}

// loadPool resolves the pool a log was emitted by. Events from contracts
// the module does not track resolve to nil and are ignored.
func (m *Module) loadPool(ctx context.Context, event *core.Event) (*model.Pool, error) {
	pool, err := m.store.Pool(ctx, poolID(event.Address))
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pool %s: %w", poolID(event.Address), err)
	}
	return pool, nil
}

func (m *Module) handleAddLiquidity(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	provider, err := m.getOrRegisterAccount(ctx, indexedAddress(event))
	if err != nil {
		return err
	}

	coins := pool.CoinCount
	if err := requireWords(event, 2*coins+2); err != nil {
		return err
	}

	record := &model.AddLiquidityEvent{
		ID:           "al-" + eventID(event),
		PoolID:       pool.ID,
		ProviderID:   provider.ID,
		TokenAmounts: eventWords(event, 0, coins),
		Fees:         eventWords(event, coins, coins),
		Invariant:    event.Word(2 * coins),
		TokenSupply:  event.Word(2*coins + 1),
		Block:        event.BlockNumber,
		Timestamp:    event.Timestamp,
		Transaction:  event.TransactionHash.Hex(),
	}
	if err := m.store.SaveAddLiquidity(ctx, record); err != nil {
		return fmt.Errorf("failed to save add liquidity log %s: %w", record.ID, err)
	}

	return m.store.SavePool(ctx, pool)
}

func (m *Module) handleRemoveLiquidity(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	provider, err := m.getOrRegisterAccount(ctx, indexedAddress(event))
	if err != nil {
		return err
	}

	// The balanced removal does not emit an invariant.
	coins := pool.CoinCount
	if err := requireWords(event, 2*coins+1); err != nil {
		return err
	}

	record := &model.RemoveLiquidityEvent{
		ID:           "rl-" + eventID(event),
		PoolID:       pool.ID,
		ProviderID:   provider.ID,
		TokenAmounts: eventWords(event, 0, coins),
		Fees:         eventWords(event, coins, coins),
		TokenSupply:  event.Word(2 * coins),
		Block:        event.BlockNumber,
		Timestamp:    event.Timestamp,
		Transaction:  event.TransactionHash.Hex(),
	}
	if err := m.store.SaveRemoveLiquidity(ctx, record); err != nil {
		return fmt.Errorf("failed to save remove liquidity log %s: %w", record.ID, err)
	}

	return m.store.SavePool(ctx, pool)
}

func (m *Module) handleRemoveLiquidityImbalance(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	provider, err := m.getOrRegisterAccount(ctx, indexedAddress(event))
	if err != nil {
		return err
	}

	coins := pool.CoinCount
	if err := requireWords(event, 2*coins+2); err != nil {
		return err
	}

	record := &model.RemoveLiquidityEvent{
		ID:           "rli-" + eventID(event),
		PoolID:       pool.ID,
		ProviderID:   provider.ID,
		TokenAmounts: eventWords(event, 0, coins),
		Fees:         eventWords(event, coins, coins),
		Invariant:    event.Word(2 * coins),
		TokenSupply:  event.Word(2*coins + 1),
		Block:        event.BlockNumber,
		Timestamp:    event.Timestamp,
		Transaction:  event.TransactionHash.Hex(),
	}
	if err := m.store.SaveRemoveLiquidity(ctx, record); err != nil {
		return fmt.Errorf("failed to save remove liquidity log %s: %w", record.ID, err)
	}

	return m.store.SavePool(ctx, pool)
}

func (m *Module) handleRemoveLiquidityOne(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	provider, err := m.getOrRegisterAccount(ctx, indexedAddress(event))
	if err != nil {
		return err
	}

	if err := requireWords(event, 2); err != nil {
		return err
	}

	record := &model.RemoveLiquidityOneEvent{
		ID:          "rlo-" + eventID(event),
		PoolID:      pool.ID,
		ProviderID:  provider.ID,
		TokenAmount: event.Word(0),
		CoinAmount:  event.Word(1),
		Block:       event.BlockNumber,
		Timestamp:   event.Timestamp,
		Transaction: event.TransactionHash.Hex(),
	}
	if err := m.store.SaveRemoveLiquidityOne(ctx, record); err != nil {
		return fmt.Errorf("failed to save remove liquidity one log %s: %w", record.ID, err)
	}

	return m.store.SavePool(ctx, pool)
}

func (m *Module) handleTokenExchange(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	if err := requireWords(event, 4); err != nil {
		return err
	}

	soldID := event.Word(0).Int64()
	coinSold, err := m.store.Coin(ctx, fmt.Sprintf("%s-%d", pool.ID, soldID))
	if err != nil {
		return fmt.Errorf("failed to load sold coin %d of pool %s: %w", soldID, pool.ID, err)
	}
	tokenSold, err := m.store.Token(ctx, coinSold.TokenID)
	if err != nil {
		return fmt.Errorf("failed to load sold token %s: %w", coinSold.TokenID, err)
	}
	amountSold := units.ScaleDecimal(event.Word(1), tokenSold.Decimals)

	boughtID := event.Word(2).Int64()
	coinBought, err := m.store.Coin(ctx, fmt.Sprintf("%s-%d", pool.ID, boughtID))
	if err != nil {
		return fmt.Errorf("failed to load bought coin %d of pool %s: %w", boughtID, pool.ID, err)
	}
	tokenBought, err := m.store.Token(ctx, coinBought.TokenID)
	if err != nil {
		return fmt.Errorf("failed to load bought token %s: %w", coinBought.TokenID, err)
	}
	amountBought := units.ScaleDecimal(event.Word(3), tokenBought.Decimals)

	buyer, err := m.getOrRegisterAccount(ctx, indexedAddress(event))
	if err != nil {
		return err
	}

	exchange := &model.Exchange{
		ID:            "e-" + eventID(event),
		PoolID:        pool.ID,
		BuyerID:       buyer.ID,
		ReceiverID:    buyer.ID,
		TokenSoldID:   tokenSold.ID,
		TokenBoughtID: tokenBought.ID,
		AmountSold:    amountSold,
		AmountBought:  amountBought,
		Block:         event.BlockNumber,
		Timestamp:     event.Timestamp,
		Transaction:   event.TransactionHash.Hex(),
	}
	if err := m.store.SaveExchange(ctx, exchange); err != nil {
		return fmt.Errorf("failed to save exchange %s: %w", exchange.ID, err)
	}

	if err := m.accumulateVolume(ctx, pool, event.Timestamp, amountSold.Add(amountBought).Div(two)); err != nil {
		return err
	}

	pool.ExchangeCount++
	if err := m.store.SavePool(ctx, pool); err != nil {
		return fmt.Errorf("failed to save pool %s: %w", pool.ID, err)
	}

	// The contract deducts the trade fee from the bought amount before
	// scaling by the coin rate, so the collected fee is recovered as
	// fee = bought * rate / (1 - tradeFee) * tradeFee * (1 - adminFee).
	fee := amountBought.Mul(coinBought.Rate).
		Div(one.Sub(pool.Fee)).
		Mul(pool.Fee).
		Mul(one.Sub(pool.AdminFee))

	return m.accumulateFees(ctx, pool, event.Timestamp, coinBought, fee)
}

func (m *Module) handleTokenExchangeUnderlying(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	if err := requireWords(event, 4); err != nil {
		return err
	}

	soldID := event.Word(0).Int64()
	coinSold, err := m.store.UnderlyingCoin(ctx, fmt.Sprintf("%s-%d", pool.ID, soldID))
	if err != nil {
		return fmt.Errorf("failed to load sold underlying coin %d of pool %s: %w", soldID, pool.ID, err)
	}
	tokenSold, err := m.store.Token(ctx, coinSold.TokenID)
	if err != nil {
		return fmt.Errorf("failed to load sold token %s: %w", coinSold.TokenID, err)
	}
	amountSold := units.ScaleDecimal(event.Word(1), tokenSold.Decimals)

	boughtID := event.Word(2).Int64()
	coinBought, err := m.store.UnderlyingCoin(ctx, fmt.Sprintf("%s-%d", pool.ID, boughtID))
	if err != nil {
		return fmt.Errorf("failed to load bought underlying coin %d of pool %s: %w", boughtID, pool.ID, err)
	}
	tokenBought, err := m.store.Token(ctx, coinBought.TokenID)
	if err != nil {
		return fmt.Errorf("failed to load bought token %s: %w", coinBought.TokenID, err)
	}
	amountBought := units.ScaleDecimal(event.Word(3), tokenBought.Decimals)

	buyer, err := m.getOrRegisterAccount(ctx, indexedAddress(event))
	if err != nil {
		return err
	}

	exchange := &model.Exchange{
		ID:            "e-" + eventID(event),
		PoolID:        pool.ID,
		BuyerID:       buyer.ID,
		ReceiverID:    buyer.ID,
		TokenSoldID:   tokenSold.ID,
		TokenBoughtID: tokenBought.ID,
		AmountSold:    amountSold,
		AmountBought:  amountBought,
		Block:         event.BlockNumber,
		Timestamp:     event.Timestamp,
		Transaction:   event.TransactionHash.Hex(),
	}
	if err := m.store.SaveExchange(ctx, exchange); err != nil {
		return fmt.Errorf("failed to save exchange %s: %w", exchange.ID, err)
	}

	if err := m.accumulateVolume(ctx, pool, event.Timestamp, amountSold.Add(amountBought).Div(two)); err != nil {
		return err
	}

	// No fee recovery here: underlying trades route through wrapped
	// balances whose rate the fee formula does not apply to.
	pool.ExchangeCount++
	if err := m.store.SavePool(ctx, pool); err != nil {
		return fmt.Errorf("failed to save pool %s: %w", pool.ID, err)
	}

	return nil
}

// accumulateVolume adds a trade's mean leg size to the hour, day and week
// windows covering the timestamp.
func (m *Module) accumulateVolume(ctx context.Context, pool *model.Pool, timestamp int64, volume decimal.Decimal) error {
	hourly, err := m.getHourlyTradeVolume(ctx, pool, timestamp)
	if err != nil {
		return err
	}
	hourly.Volume = hourly.Volume.Add(volume)
	if err := m.store.SaveHourlyTradeVolume(ctx, hourly); err != nil {
		return fmt.Errorf("failed to save hourly volume %s: %w", hourly.ID, err)
	}

	daily, err := m.getDailyTradeVolume(ctx, pool, timestamp)
	if err != nil {
		return err
	}
	daily.Volume = daily.Volume.Add(volume)
	if err := m.store.SaveDailyTradeVolume(ctx, daily); err != nil {
		return fmt.Errorf("failed to save daily volume %s: %w", daily.ID, err)
	}

	weekly, err := m.getWeeklyTradeVolume(ctx, pool, timestamp)
	if err != nil {
		return err
	}
	weekly.Volume = weekly.Volume.Add(volume)
	if err := m.store.SaveWeeklyTradeVolume(ctx, weekly); err != nil {
		return fmt.Errorf("failed to save weekly volume %s: %w", weekly.ID, err)
	}

	return nil
}

// accumulateFees adds a recovered fee to the day, week and month windows
// of the bought coin.
func (m *Module) accumulateFees(ctx context.Context, pool *model.Pool, timestamp int64, coin *model.Coin, fee decimal.Decimal) error {
	daily, err := m.getDailyFee(ctx, pool, timestamp, coin)
	if err != nil {
		return err
	}
	daily.Amount = daily.Amount.Add(fee)
	if err := m.store.SaveDailyFee(ctx, daily); err != nil {
		return fmt.Errorf("failed to save daily fee %s: %w", daily.ID, err)
	}

	weekly, err := m.getWeeklyFee(ctx, pool, timestamp, coin)
	if err != nil {
		return err
	}
	weekly.Amount = weekly.Amount.Add(fee)
	if err := m.store.SaveWeeklyFee(ctx, weekly); err != nil {
		return fmt.Errorf("failed to save weekly fee %s: %w", weekly.ID, err)
	}

	monthly, err := m.getMonthlyFee(ctx, pool, timestamp, coin)
	if err != nil {
		return err
	}
	monthly.Amount = monthly.Amount.Add(fee)
	if err := m.store.SaveMonthlyFee(ctx, monthly); err != nil {
		return fmt.Errorf("failed to save monthly fee %s: %w", monthly.ID, err)
	}

	return nil
}

func (m *Module) handleNewAdmin(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	admin := indexedAddress(event)
	pool.Owner = strings.ToLower(admin.Hex())

	record := &model.TransferOwnershipEvent{
		ID:          "to-" + eventID(event),
		PoolID:      pool.ID,
		NewAdmin:    pool.Owner,
		Block:       event.BlockNumber,
		Timestamp:   event.Timestamp,
		Transaction: event.TransactionHash.Hex(),
	}
	if err := m.store.SaveTransferOwnership(ctx, record); err != nil {
		return fmt.Errorf("failed to save ownership log %s: %w", record.ID, err)
	}

	return m.store.SavePool(ctx, pool)
}

func (m *Module) handleNewFee(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	if err := requireWords(event, 2); err != nil {
		return err
	}

	pool.Fee = units.ScaleDecimal(event.Word(0), feePrecision)
	pool.AdminFee = units.ScaleDecimal(event.Word(1), feePrecision)

	adminFeeLog := &model.AdminFeeChangelog{
		ID:          "af-" + eventID(event),
		PoolID:      pool.ID,
		Value:       pool.AdminFee,
		Block:       event.BlockNumber,
		Timestamp:   event.Timestamp,
		Transaction: event.TransactionHash.Hex(),
	}
	if err := m.store.SaveAdminFeeChange(ctx, adminFeeLog); err != nil {
		return fmt.Errorf("failed to save admin fee log %s: %w", adminFeeLog.ID, err)
	}

	feeLog := &model.FeeChangelog{
		ID:          "f-" + eventID(event),
		PoolID:      pool.ID,
		Value:       pool.Fee,
		Block:       event.BlockNumber,
		Timestamp:   event.Timestamp,
		Transaction: event.TransactionHash.Hex(),
	}
	if err := m.store.SaveFeeChange(ctx, feeLog); err != nil {
		return fmt.Errorf("failed to save fee log %s: %w", feeLog.ID, err)
	}

	return m.store.SavePool(ctx, pool)
}

func (m *Module) handleNewParameters(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	if err := requireWords(event, 3); err != nil {
		return err
	}

	pool.A = event.Word(0)
	pool.Fee = units.ScaleDecimal(event.Word(1), feePrecision)
	pool.AdminFee = units.ScaleDecimal(event.Word(2), feePrecision)

	adminFeeLog := &model.AdminFeeChangelog{
		ID:          "af-" + eventID(event),
		PoolID:      pool.ID,
		Value:       pool.AdminFee,
		Block:       event.BlockNumber,
		Timestamp:   event.Timestamp,
		Transaction: event.TransactionHash.Hex(),
	}
	if err := m.store.SaveAdminFeeChange(ctx, adminFeeLog); err != nil {
		return fmt.Errorf("failed to save admin fee log %s: %w", adminFeeLog.ID, err)
	}

	amplificationLog := &model.AmplificationCoeffChangelog{
		ID:          "a-" + eventID(event),
		PoolID:      pool.ID,
		Value:       pool.A,
		Block:       event.BlockNumber,
		Timestamp:   event.Timestamp,
		Transaction: event.TransactionHash.Hex(),
	}
	if err := m.store.SaveAmplificationChange(ctx, amplificationLog); err != nil {
		return fmt.Errorf("failed to save amplification log %s: %w", amplificationLog.ID, err)
	}

	feeLog := &model.FeeChangelog{
		ID:          "f-" + eventID(event),
		PoolID:      pool.ID,
		Value:       pool.Fee,
		Block:       event.BlockNumber,
		Timestamp:   event.Timestamp,
		Transaction: event.TransactionHash.Hex(),
	}
	if err := m.store.SaveFeeChange(ctx, feeLog); err != nil {
		return fmt.Errorf("failed to save fee log %s: %w", feeLog.ID, err)
	}

	return m.store.SavePool(ctx, pool)
}

func (m *Module) handleRampA(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	// Words are old_A, new_A, initial_time, future_time.
	if err := requireWords(event, 4); err != nil {
		return err
	}
	pool.A = event.Word(1)

	record := &model.AmplificationCoeffChangelog{
		ID:          "a-" + eventID(event),
		PoolID:      pool.ID,
		Value:       pool.A,
		Block:       event.BlockNumber,
		Timestamp:   event.Timestamp,
		Transaction: event.TransactionHash.Hex(),
	}
	if err := m.store.SaveAmplificationChange(ctx, record); err != nil {
		return fmt.Errorf("failed to save amplification log %s: %w", record.ID, err)
	}

	return m.store.SavePool(ctx, pool)
}

func (m *Module) handleStopRampA(ctx context.Context, event *core.Event) error {
	pool, err := m.loadPool(ctx, event)
	if err != nil || pool == nil {
		return err
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	if err := requireWords(event, 2); err != nil {
		return err
	}
	pool.A = event.Word(0)

	record := &model.AmplificationCoeffChangelog{
		ID:          "a-" + eventID(event),
		PoolID:      pool.ID,
		Value:       pool.A,
		Block:       event.BlockNumber,
		Timestamp:   event.Timestamp,
		Transaction: event.TransactionHash.Hex(),
	}
	if err := m.store.SaveAmplificationChange(ctx, record); err != nil {
		return fmt.Errorf("failed to save amplification log %s: %w", record.ID, err)
	}

	return m.store.SavePool(ctx, pool)
}

func (m *Module) handlePoolAdded(ctx context.Context, event *core.Event) error {
	if event.Address != m.registryAddress {
		return nil
	}

	address := indexedAddress(event)
	id := poolID(address)

	if _, err := m.store.Pool(ctx, id); err == nil {
		return nil
	} else if err != store.ErrNotFound {
		return fmt.Errorf("failed to check pool %s: %w", id, err)
	}

	if err := m.createPool(ctx, address, m.poolName(address), event.BlockNumber); err != nil {
		return err
	}

	pool, err := m.store.Pool(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to reload pool %s: %w", id, err)
	}

	if err := m.refreshPoolSnapshot(ctx, pool, event); err != nil {
		return err
	}

	return m.store.SavePool(ctx, pool)
}
