package market

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// poolABI is parsed once; PoolABI is a compile-time constant so a parse
// failure is a programming error.
var poolABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		panic("market: invalid pool ABI: " + err.Error())
	}
	return parsed
}()

// BaseUnits scales a decimal token amount into its integer base-unit
// representation (e.g. 1.5 with 18 decimals -> 1500000000000000000).
// Fractional dust below the token's precision is truncated.
func BaseUnits(amount float64, decimals int) *big.Int {
	return decimal.NewFromFloat(amount).Shift(int32(decimals)).BigInt()
}

// FromBaseUnits converts an integer base-unit amount back to a decimal value.
func FromBaseUnits(amount *big.Int, decimals int) float64 {
	if amount == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(amount, -int32(decimals)).Float64()
	return f
}

// CreateAddLiquidityTransactionData encodes
// joinswapExternAmountIn(tokenIn, tokenAmountIn, minPoolAmountOut).
// minPoolAmountOut is always zero: the flow carries no slippage protection.
func CreateAddLiquidityTransactionData(tokenIn string, amount float64, decimals int) string {
	data, _ := poolABI.Pack("joinswapExternAmountIn",
		common.HexToAddress(tokenIn),
		BaseUnits(amount, decimals),
		big.NewInt(0),
	)
	return hexutil.Encode(data)
}

// CreateAddLiquidityAllowanceTransactionData encodes approve(spender, amount)
// against the token contract the transaction is sent to.
func CreateAddLiquidityAllowanceTransactionData(spenderAddress string, amount float64, decimals int) string {
	data, _ := poolABI.Pack("approve",
		common.HexToAddress(spenderAddress),
		BaseUnits(amount, decimals),
	)
	return hexutil.Encode(data)
}

// CreateRemoveLiquidityTransactionData encodes
// exitswapExternAmountOut(tokenOut, tokenAmountOut, maxPoolAmountIn).
func CreateRemoveLiquidityTransactionData(tokenOut string, amount, maximumPoolShares float64, decimals int) string {
	data, _ := poolABI.Pack("exitswapExternAmountOut",
		common.HexToAddress(tokenOut),
		BaseUnits(amount, decimals),
		BaseUnits(maximumPoolShares, decimals),
	)
	return hexutil.Encode(data)
}

// AddLiquidityAllowanceTransaction builds the approve descriptor granting the
// asset's pool permission to pull OCEAN from the user. Sent to the OCEAN token
// contract.
func AddLiquidityAllowanceTransaction(amount float64, dataset *Asset, oceanAddress string) TransactionDescriptor {
	data := CreateAddLiquidityAllowanceTransactionData(
		dataset.Price.Address,
		amount,
		dataset.DataTokenInfo.Decimals,
	)
	return TransactionDescriptor{
		To:     oceanAddress,
		Data:   data,
		Amount: 0,
		Symbol: OCEAN,
	}
}

// AddLiquidityTransaction builds the joinswap descriptor adding `value` of
// `token` to the asset's pool.
func AddLiquidityTransaction(token Token, value float64, dataset *Asset) TransactionDescriptor {
	data := CreateAddLiquidityTransactionData(token.Address, value, token.Decimals)
	return TransactionDescriptor{
		To:     dataset.Price.Address,
		Data:   data,
		Amount: 0,
		Symbol: OCEAN,
	}
}

// RemoveLiquidityTransaction builds the exitswap descriptor withdrawing
// `value` of `token` while burning at most maximumPoolShares.
func RemoveLiquidityTransaction(token Token, value, maximumPoolShares float64, dataset *Asset, oceanAddress string) TransactionDescriptor {
	data := CreateRemoveLiquidityTransactionData(token.Address, value, maximumPoolShares, token.Decimals)
	return TransactionDescriptor{
		To:              dataset.Price.Address,
		Data:            data,
		Amount:          0,
		Symbol:          OCEAN,
		ContractAddress: oceanAddress,
		Decimals:        token.Decimals,
	}
}
