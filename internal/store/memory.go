package store

import (
	"context"
	"sync"

	"github.com/plutodigital/curve-subgraph/internal/model"
)

// Memory is a map-backed Store. It copies records on save and load so a
// caller mutating a returned record cannot bypass Save. Used by tests and
// by the dry-run mode of the indexer.
type Memory struct {
	mu sync.RWMutex

	pools           map[string]model.Pool
	tokens          map[string]model.Token
	accounts        map[string]model.Account
	coins           map[string]model.Coin
	underlying      map[string]model.UnderlyingCoin
	coinBalances    map[string]model.CoinBalance
	totalBalances   map[string]model.TotalBalance
	addLiquidity    map[string]model.AddLiquidityEvent
	removeLiquidity map[string]model.RemoveLiquidityEvent
	removeOne       map[string]model.RemoveLiquidityOneEvent
	exchanges       map[string]model.Exchange
	ownerships      map[string]model.TransferOwnershipEvent
	adminFeeLogs    map[string]model.AdminFeeChangelog
	feeLogs         map[string]model.FeeChangelog
	ampLogs         map[string]model.AmplificationCoeffChangelog
	hourlyVolumes   map[string]model.HourlyTradeVolume
	dailyVolumes    map[string]model.DailyTradeVolume
	weeklyVolumes   map[string]model.WeeklyTradeVolume
	dailyFees       map[string]model.DailyFee
	weeklyFees      map[string]model.WeeklyFee
	monthlyFees     map[string]model.MonthlyFee
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		pools:           make(map[string]model.Pool),
		tokens:          make(map[string]model.Token),
		accounts:        make(map[string]model.Account),
		coins:           make(map[string]model.Coin),
		underlying:      make(map[string]model.UnderlyingCoin),
		coinBalances:    make(map[string]model.CoinBalance),
		totalBalances:   make(map[string]model.TotalBalance),
		addLiquidity:    make(map[string]model.AddLiquidityEvent),
		removeLiquidity: make(map[string]model.RemoveLiquidityEvent),
		removeOne:       make(map[string]model.RemoveLiquidityOneEvent),
		exchanges:       make(map[string]model.Exchange),
		ownerships:      make(map[string]model.TransferOwnershipEvent),
		adminFeeLogs:    make(map[string]model.AdminFeeChangelog),
		feeLogs:         make(map[string]model.FeeChangelog),
		ampLogs:         make(map[string]model.AmplificationCoeffChangelog),
		hourlyVolumes:   make(map[string]model.HourlyTradeVolume),
		dailyVolumes:    make(map[string]model.DailyTradeVolume),
		weeklyVolumes:   make(map[string]model.WeeklyTradeVolume),
		dailyFees:       make(map[string]model.DailyFee),
		weeklyFees:      make(map[string]model.WeeklyFee),
		monthlyFees:     make(map[string]model.MonthlyFee),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Pool(_ context.Context, id string) (*model.Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pools[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) SavePool(_ context.Context, pool *model.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[pool.ID] = *pool
	return nil
}

func (m *Memory) Token(_ context.Context, id string) (*model.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *Memory) SaveToken(_ context.Context, token *model.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.ID] = *token
	return nil
}

func (m *Memory) Account(_ context.Context, id string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) SaveAccount(_ context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = *account
	return nil
}

func (m *Memory) Coin(_ context.Context, id string) (*model.Coin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.coins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) SaveCoin(_ context.Context, coin *model.Coin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coins[coin.ID] = *coin
	return nil
}

func (m *Memory) UnderlyingCoin(_ context.Context, id string) (*model.UnderlyingCoin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.underlying[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) SaveUnderlyingCoin(_ context.Context, coin *model.UnderlyingCoin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.underlying[coin.ID] = *coin
	return nil
}

func (m *Memory) SaveCoinBalance(_ context.Context, balance *model.CoinBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coinBalances[balance.ID] = *balance
	return nil
}

func (m *Memory) SaveTotalBalance(_ context.Context, balance *model.TotalBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalBalances[balance.ID] = *balance
	return nil
}

func (m *Memory) SaveAddLiquidity(_ context.Context, event *model.AddLiquidityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLiquidity[event.ID] = *event
	return nil
}

func (m *Memory) SaveRemoveLiquidity(_ context.Context, event *model.RemoveLiquidityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLiquidity[event.ID] = *event
	return nil
}

func (m *Memory) SaveRemoveLiquidityOne(_ context.Context, event *model.RemoveLiquidityOneEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeOne[event.ID] = *event
	return nil
}

func (m *Memory) SaveExchange(_ context.Context, exchange *model.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges[exchange.ID] = *exchange
	return nil
}

func (m *Memory) SaveTransferOwnership(_ context.Context, event *model.TransferOwnershipEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ownerships[event.ID] = *event
	return nil
}

func (m *Memory) SaveAdminFeeChange(_ context.Context, log *model.AdminFeeChangelog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adminFeeLogs[log.ID] = *log
	return nil
}

func (m *Memory) SaveFeeChange(_ context.Context, log *model.FeeChangelog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feeLogs[log.ID] = *log
	return nil
}

func (m *Memory) SaveAmplificationChange(_ context.Context, log *model.AmplificationCoeffChangelog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ampLogs[log.ID] = *log
	return nil
}

func (m *Memory) HourlyTradeVolume(_ context.Context, id string) (*model.HourlyTradeVolume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.hourlyVolumes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (m *Memory) SaveHourlyTradeVolume(_ context.Context, volume *model.HourlyTradeVolume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hourlyVolumes[volume.ID] = *volume
	return nil
}

func (m *Memory) DailyTradeVolume(_ context.Context, id string) (*model.DailyTradeVolume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.dailyVolumes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (m *Memory) SaveDailyTradeVolume(_ context.Context, volume *model.DailyTradeVolume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyVolumes[volume.ID] = *volume
	return nil
}

func (m *Memory) WeeklyTradeVolume(_ context.Context, id string) (*model.WeeklyTradeVolume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.weeklyVolumes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (m *Memory) SaveWeeklyTradeVolume(_ context.Context, volume *model.WeeklyTradeVolume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weeklyVolumes[volume.ID] = *volume
	return nil
}

func (m *Memory) DailyFee(_ context.Context, id string) (*model.DailyFee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.dailyFees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (m *Memory) SaveDailyFee(_ context.Context, fee *model.DailyFee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyFees[fee.ID] = *fee
	return nil
}

func (m *Memory) WeeklyFee(_ context.Context, id string) (*model.WeeklyFee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.weeklyFees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (m *Memory) SaveWeeklyFee(_ context.Context, fee *model.WeeklyFee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weeklyFees[fee.ID] = *fee
	return nil
}

func (m *Memory) MonthlyFee(_ context.Context, id string) (*model.MonthlyFee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.monthlyFees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (m *Memory) SaveMonthlyFee(_ context.Context, fee *model.MonthlyFee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.monthlyFees[fee.ID] = *fee
	return nil
}

// CoinBalances returns the number of stored coin balance snapshots.
func (m *Memory) CoinBalances() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.coinBalances)
}

// TotalBalanceByID looks up a total balance snapshot. Test helper.
func (m *Memory) TotalBalanceByID(id string) (*model.TotalBalance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tb, ok := m.totalBalances[id]
	if !ok {
		return nil, false
	}
	return &tb, true
}

// ExchangeByID looks up an exchange log record. Test helper.
func (m *Memory) ExchangeByID(id string) (*model.Exchange, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exchanges[id]
	if !ok {
		return nil, false
	}
	return &e, true
}

// AddLiquidityByID looks up an add liquidity log record. Test helper.
func (m *Memory) AddLiquidityByID(id string) (*model.AddLiquidityEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.addLiquidity[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// RemoveLiquidityByID looks up a remove liquidity log record. Test helper.
func (m *Memory) RemoveLiquidityByID(id string) (*model.RemoveLiquidityEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.removeLiquidity[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// RemoveLiquidityOneByID looks up a single-coin withdrawal log record.
// Test helper.
func (m *Memory) RemoveLiquidityOneByID(id string) (*model.RemoveLiquidityOneEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.removeOne[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// Counts reports how many records of each append-only log kind exist.
// Test helper.
func (m *Memory) Counts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int{
		"add_liquidity":    len(m.addLiquidity),
		"remove_liquidity": len(m.removeLiquidity),
		"remove_one":       len(m.removeOne),
		"exchanges":        len(m.exchanges),
		"ownerships":       len(m.ownerships),
		"admin_fee_logs":   len(m.adminFeeLogs),
		"fee_logs":         len(m.feeLogs),
		"amp_logs":         len(m.ampLogs),
	}
}
