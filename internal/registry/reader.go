// Package registry reads on-chain pool state from the main registry and
// the StableSwap pool contracts. Every read is a single point-in-time
// attempt pinned to the triggering block; a reverted or unsupported call
// is reported as "no data", never as an error, and is not retried here.
package registry

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// TokenMetadata holds the ERC-20 identity of a coin. Fields keep their
// defaults when the corresponding call reverts.
type TokenMetadata struct {
	Name     string
	Symbol   string
	Decimals int32
}

// StateReader is the contract-state surface the indexing module consumes.
// All reads follow the value-or-unavailable convention: ok is false when
// the call reverted or the pool version does not support it.
type StateReader interface {
	Coins(ctx context.Context, pool common.Address, block uint64) ([]common.Address, bool)
	UnderlyingCoins(ctx context.Context, pool common.Address, block uint64) ([]common.Address, bool)
	Balances(ctx context.Context, pool common.Address, block uint64) ([]*big.Int, bool)
	UnderlyingBalances(ctx context.Context, pool common.Address, block uint64) ([]*big.Int, bool)
	Rates(ctx context.Context, pool common.Address, block uint64) ([]*big.Int, bool)
	VirtualPrice(ctx context.Context, pool common.Address, block uint64) (*big.Int, bool)
	PoolAssetType(ctx context.Context, pool common.Address, block uint64) (*big.Int, bool)
	NCoins(ctx context.Context, pool common.Address, block uint64) (coins, underlying int, ok bool)
	ParameterA(ctx context.Context, pool common.Address, block uint64) (*big.Int, bool)
	Fee(ctx context.Context, pool common.Address, block uint64) (*big.Int, bool)
	AdminFee(ctx context.Context, pool common.Address, block uint64) (*big.Int, bool)
	Owner(ctx context.Context, pool common.Address, block uint64) (common.Address, bool)
	TokenMetadata(ctx context.Context, token common.Address) TokenMetadata
}

// Reader implements StateReader against an Ethereum RPC backend.
type Reader struct {
	caller        bind.ContractCaller
	registry      *bind.BoundContract
	stableSwapABI abi.ABI
	erc20ABI      abi.ABI
	logger        zerolog.Logger
}

// NewReader binds the registry contract at the given address.
func NewReader(caller bind.ContractCaller, registryAddress common.Address, logger zerolog.Logger) (*Reader, error) {
	registryABI, err := abi.JSON(strings.NewReader(registryABIString))
	if err != nil {
		return nil, err
	}
	stableSwapABI, err := abi.JSON(strings.NewReader(stableSwapABIString))
	if err != nil {
		return nil, err
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIString))
	if err != nil {
		return nil, err
	}

	return &Reader{
		caller:        caller,
		registry:      bind.NewBoundContract(registryAddress, registryABI, caller, nil, nil),
		stableSwapABI: stableSwapABI,
		erc20ABI:      erc20ABI,
		logger:        logger.With().Str("component", "state_reader").Logger(),
	}, nil
}

func callOpts(ctx context.Context, block uint64) *bind.CallOpts {
	return &bind.CallOpts{
		Context:     ctx,
		BlockNumber: new(big.Int).SetUint64(block),
	}
}

func (r *Reader) registryAddresses(ctx context.Context, method string, pool common.Address, block uint64) ([]common.Address, bool) {
	var out []interface{}
	if err := r.registry.Call(callOpts(ctx, block), &out, method, pool); err != nil {
		r.logger.Debug().Err(err).Str("method", method).Str("pool", pool.Hex()).Msg("Registry call reverted")
		return nil, false
	}
	if len(out) == 0 {
		return nil, false
	}
	addrs, ok := out[0].([8]common.Address)
	if !ok {
		return nil, false
	}
	return addrs[:], true
}

func (r *Reader) registryAmounts(ctx context.Context, method string, pool common.Address, block uint64) ([]*big.Int, bool) {
	var out []interface{}
	if err := r.registry.Call(callOpts(ctx, block), &out, method, pool); err != nil {
		r.logger.Debug().Err(err).Str("method", method).Str("pool", pool.Hex()).Msg("Registry call reverted")
		return nil, false
	}
	if len(out) == 0 {
		return nil, false
	}
	amounts, ok := out[0].([8]*big.Int)
	if !ok {
		return nil, false
	}
	return amounts[:], true
}

func (r *Reader) Coins(ctx context.Context, pool common.Address, block uint64) ([]common.Address, bool) {
	return r.registryAddresses(ctx, "get_coins", pool, block)
}

func (r *Reader) UnderlyingCoins(ctx context.Context, pool common.Address, block uint64) ([]common.Address, bool) {
	return r.registryAddresses(ctx, "get_underlying_coins", pool, block)
}

func (r *Reader) Balances(ctx context.Context, pool common.Address, block uint64) ([]*big.Int, bool) {
	return r.registryAmounts(ctx, "get_balances", pool, block)
}

func (r *Reader) UnderlyingBalances(ctx context.Context, pool common.Address, block uint64) ([]*big.Int, bool) {
	return r.registryAmounts(ctx, "get_underlying_balances", pool, block)
}

func (r *Reader) Rates(ctx context.Context, pool common.Address, block uint64) ([]*big.Int, bool) {
	return r.registryAmounts(ctx, "get_rates", pool, block)
}

func (r *Reader) PoolAssetType(ctx context.Context, pool common.Address, block uint64) (*big.Int, bool) {
	var out []interface{}
	if err := r.registry.Call(callOpts(ctx, block), &out, "get_pool_asset_type", pool); err != nil {
		r.logger.Debug().Err(err).Str("pool", pool.Hex()).Msg("get_pool_asset_type reverted")
		return nil, false
	}
	if len(out) == 0 {
		return nil, false
	}
	assetType, ok := out[0].(*big.Int)
	return assetType, ok
}

func (r *Reader) NCoins(ctx context.Context, pool common.Address, block uint64) (int, int, bool) {
	var out []interface{}
	if err := r.registry.Call(callOpts(ctx, block), &out, "get_n_coins", pool); err != nil {
		r.logger.Debug().Err(err).Str("pool", pool.Hex()).Msg("get_n_coins reverted")
		return 0, 0, false
	}
	if len(out) == 0 {
		return 0, 0, false
	}
	counts, ok := out[0].([2]*big.Int)
	if !ok {
		return 0, 0, false
	}
	return int(counts[0].Int64()), int(counts[1].Int64()), true
}

func (r *Reader) poolUint(ctx context.Context, method string, pool common.Address, block uint64) (*big.Int, bool) {
	contract := bind.NewBoundContract(pool, r.stableSwapABI, r.caller, nil, nil)
	var out []interface{}
	if err := contract.Call(callOpts(ctx, block), &out, method); err != nil {
		r.logger.Debug().Err(err).Str("method", method).Str("pool", pool.Hex()).Msg("Pool call reverted")
		return nil, false
	}
	if len(out) == 0 {
		return nil, false
	}
	value, ok := out[0].(*big.Int)
	return value, ok
}

func (r *Reader) VirtualPrice(ctx context.Context, pool common.Address, block uint64) (*big.Int, bool) {
	return r.poolUint(ctx, "get_virtual_price", pool, block)
}

func (r *Reader) ParameterA(ctx context.Context, pool common.Address, block uint64) (*big.Int, bool) {
	return r.poolUint(ctx, "A", pool, block)
}

func (r *Reader) Fee(ctx context.Context, pool common.Address, block uint64) (*big.Int, bool) {
	return r.poolUint(ctx, "fee", pool, block)
}

func (r *Reader) AdminFee(ctx context.Context, pool common.Address, block uint64) (*big.Int, bool) {
	return r.poolUint(ctx, "admin_fee", pool, block)
}

func (r *Reader) Owner(ctx context.Context, pool common.Address, block uint64) (common.Address, bool) {
	contract := bind.NewBoundContract(pool, r.stableSwapABI, r.caller, nil, nil)
	var out []interface{}
	if err := contract.Call(callOpts(ctx, block), &out, "owner"); err != nil {
		r.logger.Debug().Err(err).Str("pool", pool.Hex()).Msg("owner reverted")
		return common.Address{}, false
	}
	if len(out) == 0 {
		return common.Address{}, false
	}
	owner, ok := out[0].(common.Address)
	return owner, ok
}

// TokenMetadata fetches ERC-20 identity with per-field fallbacks. A token
// that reverts on all three calls still yields usable defaults.
func (r *Reader) TokenMetadata(ctx context.Context, token common.Address) TokenMetadata {
	metadata := TokenMetadata{Decimals: 18}

	contract := bind.NewBoundContract(token, r.erc20ABI, r.caller, nil, nil)
	opts := &bind.CallOpts{Context: ctx}

	var out []interface{}
	if err := contract.Call(opts, &out, "name"); err != nil {
		r.logger.Debug().Err(err).Str("token", token.Hex()).Msg("Failed to fetch token name")
	} else if name, ok := first(out).(string); ok {
		metadata.Name = name
	}

	out = nil
	if err := contract.Call(opts, &out, "symbol"); err != nil {
		r.logger.Debug().Err(err).Str("token", token.Hex()).Msg("Failed to fetch token symbol")
	} else if symbol, ok := first(out).(string); ok {
		metadata.Symbol = symbol
	}

	out = nil
	if err := contract.Call(opts, &out, "decimals"); err != nil {
		r.logger.Debug().Err(err).Str("token", token.Hex()).Msg("Failed to fetch token decimals")
	} else if decimals, ok := first(out).(uint8); ok {
		metadata.Decimals = int32(decimals)
	}

	return metadata
}

func first(out []interface{}) interface{} {
	if len(out) == 0 {
		return nil
	}
	return out[0]
}
