package core

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// EventHandlerFunc is the function signature for event handlers
type EventHandlerFunc func(ctx context.Context, event *Event) error

// Event carries a raw log together with the block context a handler needs.
// Handlers decode the data words themselves; the fixed layouts of the
// watched contracts make full ABI unpacking unnecessary.
type Event struct {
	Log *types.Log

	Name    string
	Address common.Address

	TransactionHash common.Hash
	BlockNumber     uint64
	LogIndex        uint
	Timestamp       int64
}

// NewEvent wraps a log with its block timestamp.
func NewEvent(log *types.Log, timestamp int64) *Event {
	return &Event{
		Log:             log,
		Address:         log.Address,
		TransactionHash: log.TxHash,
		BlockNumber:     log.BlockNumber,
		LogIndex:        log.Index,
		Timestamp:       timestamp,
	}
}

// Topic0 returns the event signature hash of the underlying log.
func (e *Event) Topic0() common.Hash {
	if len(e.Log.Topics) == 0 {
		return common.Hash{}
	}
	return e.Log.Topics[0]
}

// Word returns the i-th 32-byte word of the log data as a big integer.
// Out-of-range words read as zero.
func (e *Event) Word(i int) *big.Int {
	start := i * 32
	if start+32 > len(e.Log.Data) {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(e.Log.Data[start : start+32])
}

// WordCount returns the number of complete 32-byte words in the log data.
func (e *Event) WordCount() int {
	return len(e.Log.Data) / 32
}

// SignatureTopic computes the topic0 hash for a canonical event signature
// string such as "Transfer(address,address,uint256)".
func SignatureTopic(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}

// ErrInvalidEvent marks a log whose payload does not match the layout the
// handler expects.
type ErrInvalidEvent struct {
	Reason string
}

func (e ErrInvalidEvent) Error() string {
	return "invalid event: " + e.Reason
}
