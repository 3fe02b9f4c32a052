package processor

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/plutodigital/curve-subgraph/internal/config"
	"github.com/plutodigital/curve-subgraph/internal/modules/core"
)

const logFetchRetries = 3

// ChainClient is the RPC surface the sync loop needs.
type ChainClient interface {
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
	GetHeader(ctx context.Context, number uint64) (*types.Header, error)
	GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	Retry(ctx context.Context, fn func() error, maxRetries int) error
	IsConnected(ctx context.Context) bool
}

// EntityStore scopes entity writes and the sync cursor to a transaction.
// Committing a block's reductions together with the cursor advance keeps
// a replay after a crash from double-counting aggregate buckets.
type EntityStore interface {
	InTransaction(ctx context.Context, fn func() error) error
	SetCursor(ctx context.Context, blockNumber uint64) error
}

// CursorSource reads the persisted sync cursor.
type CursorSource interface {
	GetLastBlockNumber(ctx context.Context) (uint64, error)
}

// Indexer drives the sync loop: it pulls matching logs in block ranges,
// orders them, and feeds them one block at a time through the module
// registry, each block inside its own transaction. Processing is strictly
// sequential so that every reducer observes events in chain order.
type Indexer struct {
	config  *config.Config
	chain   ChainClient
	cursor  CursorSource
	store   EntityStore
	modules *core.ModuleRegistry

	logger zerolog.Logger
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewIndexer creates a new indexer instance
func NewIndexer(cfg *config.Config, chain ChainClient, cursor CursorSource, store EntityStore, modules *core.ModuleRegistry, logger zerolog.Logger) *Indexer {
	ctx, cancel := context.WithCancel(context.Background())

	return &Indexer{
		config:  cfg,
		chain:   chain,
		cursor:  cursor,
		store:   store,
		modules: modules,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts the indexer and blocks until shutdown
func (i *Indexer) Start() error {
	i.logger.Info().Msg("Starting indexer")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	i.wg.Add(1)
	go i.syncLoop()

	select {
	case sig := <-sigChan:
		i.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-i.ctx.Done():
		i.logger.Info().Msg("Context cancelled")
	}

	i.Stop()
	return nil
}

// Stop stops the indexer gracefully
func (i *Indexer) Stop() {
	i.logger.Info().Msg("Stopping indexer")

	i.cancel()
	i.wg.Wait()

	i.logger.Info().Msg("Indexer stopped")
}

// syncLoop is the main synchronization loop
func (i *Indexer) syncLoop() {
	defer i.wg.Done()

	lastBlock, err := i.cursor.GetLastBlockNumber(i.ctx)
	if err != nil {
		i.logger.Error().Err(err).Msg("Failed to get last block number")
		return
	}

	// Never start before the earliest module start block.
	if start := i.modules.StartBlock(); lastBlock+1 < start {
		lastBlock = start - 1
		i.logger.Info().Uint64("block", start).Msg("Starting from module start block")
	} else {
		i.logger.Info().Uint64("block", lastBlock).Msg("Resuming from last indexed block")
	}

	topics := i.modules.TopicFilters()

	consecutiveErrors := 0
	maxConsecutiveErrors := 10

	for {
		select {
		case <-i.ctx.Done():
			i.logger.Info().Msg("Sync loop stopped")
			return
		default:
			latestBlock, err := i.chain.GetLatestBlockNumber(i.ctx)
			if err != nil {
				i.logger.Error().Err(err).Msg("Failed to get latest block number")
				consecutiveErrors++
				if consecutiveErrors >= maxConsecutiveErrors {
					i.logger.Error().Msg("Too many consecutive errors, stopping sync")
					return
				}
				time.Sleep(5 * time.Second)
				continue
			}

			// Stay a few blocks behind the head to avoid reorged logs.
			if latestBlock < i.config.Indexer.Confirmations {
				time.Sleep(i.config.Chain.BlockTime)
				continue
			}
			head := latestBlock - i.config.Indexer.Confirmations

			if lastBlock >= head {
				i.logger.Debug().
					Uint64("current", lastBlock).
					Uint64("head", head).
					Msg("Caught up with chain")
				time.Sleep(i.config.Chain.BlockTime)
				continue
			}

			from := lastBlock + 1
			to := from + i.config.Indexer.BatchSize - 1
			if to > head {
				to = head
			}

			startTime := time.Now()
			committed, processed, err := i.processRange(from, to, topics)
			processingTime := time.Since(startTime)

			// Fully reduced blocks stay committed even when a later block
			// in the range failed; the retry resumes after them.
			if committed > lastBlock {
				lastBlock = committed
			}

			if err != nil {
				i.logger.Error().
					Err(err).
					Uint64("from", from).
					Uint64("to", to).
					Uint64("committed", committed).
					Dur("duration", processingTime).
					Msg("Failed to process block range")

				consecutiveErrors++
				if consecutiveErrors >= maxConsecutiveErrors {
					i.logger.Error().Msg("Too many consecutive errors, stopping sync")
					return
				}

				time.Sleep(5 * time.Second)
				continue
			}

			consecutiveErrors = 0

			lag := head - to
			i.logger.Info().
				Uint64("from", from).
				Uint64("to", to).
				Int("events", processed).
				Uint64("lag", lag).
				Dur("duration", processingTime).
				Msg("Block range processed")

			// If we're far behind, don't sleep
			if lag > 100 {
				continue
			}
			if lag > 10 {
				time.Sleep(100 * time.Millisecond)
			} else {
				time.Sleep(500 * time.Millisecond)
			}
		}
	}
}

// processRange fetches the matching logs for a block range and reduces
// them block by block, each block's events and cursor advance in one
// transaction. Returns the last committed block and the number of events
// handled; on error the cursor is at the last committed block.
func (i *Indexer) processRange(from, to uint64, topics []common.Hash) (uint64, int, error) {
	ctx, cancel := context.WithTimeout(i.ctx, 2*time.Minute)
	defer cancel()

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
	}
	if len(topics) > 0 {
		query.Topics = [][]common.Hash{topics}
	}

	var logs []types.Log
	err := i.chain.Retry(ctx, func() error {
		var fetchErr error
		logs, fetchErr = i.chain.GetLogs(ctx, query)
		return fetchErr
	}, logFetchRetries)
	if err != nil {
		return from - 1, 0, fmt.Errorf("failed to fetch logs %d-%d: %w", from, to, err)
	}

	// Node responses are not guaranteed ordered across blocks.
	sort.Slice(logs, func(a, b int) bool {
		if logs[a].BlockNumber != logs[b].BlockNumber {
			return logs[a].BlockNumber < logs[b].BlockNumber
		}
		return logs[a].Index < logs[b].Index
	})

	committed := from - 1
	processed := 0

	for start := 0; start < len(logs); {
		block := logs[start].BlockNumber
		end := start
		for end < len(logs) && logs[end].BlockNumber == block {
			end++
		}

		header, err := i.chain.GetHeader(ctx, block)
		if err != nil {
			return committed, processed, fmt.Errorf("failed to fetch header %d: %w", block, err)
		}
		timestamp := int64(header.Time)

		err = i.store.InTransaction(ctx, func() error {
			for idx := start; idx < end; idx++ {
				log := &logs[idx]
				if log.Removed {
					continue
				}
				if err := i.modules.ProcessEvent(ctx, log, timestamp); err != nil {
					return fmt.Errorf("failed to process event at block %d log %d: %w",
						log.BlockNumber, log.Index, err)
				}
			}
			return i.store.SetCursor(ctx, block)
		})
		if err != nil {
			return committed, processed, err
		}

		committed = block
		processed += end - start
		start = end
	}

	// Blocks past the last event carried nothing to reduce.
	if committed < to {
		if err := i.store.SetCursor(ctx, to); err != nil {
			return committed, processed, err
		}
	}

	return to, processed, nil
}

// GetStatus returns the current indexer status
func (i *Indexer) GetStatus(ctx context.Context) (map[string]interface{}, error) {
	lastBlock, err := i.cursor.GetLastBlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	latestBlock, err := i.chain.GetLatestBlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"last_indexed_block": lastBlock,
		"latest_block":       latestBlock,
		"lag":                latestBlock - lastBlock,
		"syncing":            lastBlock < latestBlock,
		"connected":          i.chain.IsConnected(ctx),
	}, nil
}
