package curve

import "fmt"

// StableSwap pools emit fixed-size coin arrays, so the AddLiquidity and
// RemoveLiquidity family has a distinct signature (and topic0) per coin
// count. Every supported count is registered against the same handler;
// the handler slices the data words by the pool's own coin count.
const (
	minPoolCoins = 2
	maxPoolCoins = 4
)

const (
	sigTokenExchange           = "TokenExchange(address,int128,uint256,int128,uint256)"
	sigTokenExchangeUnderlying = "TokenExchangeUnderlying(address,int128,uint256,int128,uint256)"
	sigRemoveLiquidityOne      = "RemoveLiquidityOne(address,uint256,uint256)"
	sigNewAdmin                = "NewAdmin(address)"
	sigNewFee                  = "NewFee(uint256,uint256)"
	sigNewParameters           = "NewParameters(uint256,uint256,uint256)"
	sigRampA                   = "RampA(uint256,uint256,uint256,uint256)"
	sigStopRampA               = "StopRampA(uint256,uint256)"
	sigPoolAdded               = "PoolAdded(address,bytes)"
)

func addLiquiditySignature(coins int) string {
	return fmt.Sprintf("AddLiquidity(address,uint256[%d],uint256[%d],uint256,uint256)", coins, coins)
}

func removeLiquiditySignature(coins int) string {
	return fmt.Sprintf("RemoveLiquidity(address,uint256[%d],uint256[%d],uint256)", coins, coins)
}

func removeLiquidityImbalanceSignature(coins int) string {
	return fmt.Sprintf("RemoveLiquidityImbalance(address,uint256[%d],uint256[%d],uint256,uint256)", coins, coins)
}
