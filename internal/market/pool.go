package market

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// poolDecimals applies to pool share tokens and OCEAN alike.
const poolDecimals = 18

// ContractCaller is the read-only JSON-RPC surface the pool reader needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// PoolReader performs read calls against data pool contracts.
type PoolReader struct {
	eth ContractCaller
}

func NewPoolReader(eth ContractCaller) *PoolReader {
	return &PoolReader{eth: eth}
}

func (r *PoolReader) callBig(ctx context.Context, contract, method string, args ...interface{}) (*big.Int, error) {
	data, err := poolABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	to := common.HexToAddress(contract)
	out, err := r.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, contract, err)
	}
	values, err := poolABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: expected one return value, got %d", method, len(values))
	}
	result, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected return type %T", method, values[0])
	}
	return result, nil
}

// SharesBalance returns the account's pool share balance.
func (r *PoolReader) SharesBalance(ctx context.Context, account, poolAddress string) (float64, error) {
	balance, err := r.callBig(ctx, poolAddress, "balanceOf", common.HexToAddress(account))
	if err != nil {
		return 0, err
	}
	return FromBaseUnits(balance, poolDecimals), nil
}

// TotalSupply returns the pool's total share supply.
func (r *PoolReader) TotalSupply(ctx context.Context, poolAddress string) (float64, error) {
	supply, err := r.callBig(ctx, poolAddress, "totalSupply")
	if err != nil {
		return 0, err
	}
	return FromBaseUnits(supply, poolDecimals), nil
}

// SwapFee returns the pool's swap fee as a fraction (0.001 == 0.1%).
func (r *PoolReader) SwapFee(ctx context.Context, poolAddress string) (float64, error) {
	fee, err := r.callBig(ctx, poolAddress, "getSwapFee")
	if err != nil {
		return 0, err
	}
	return FromBaseUnits(fee, poolDecimals), nil
}

// TokenBalance returns the pool's reserve of the given bound token.
func (r *PoolReader) TokenBalance(ctx context.Context, poolAddress, tokenAddress string) (float64, error) {
	balance, err := r.callBig(ctx, poolAddress, "getBalance", common.HexToAddress(tokenAddress))
	if err != nil {
		return 0, err
	}
	return FromBaseUnits(balance, poolDecimals), nil
}

// MaxAddLiquidity is the largest single-sided amount of the token the pool
// accepts in one join: half of the current reserve.
func (r *PoolReader) MaxAddLiquidity(ctx context.Context, poolAddress, tokenAddress string) (float64, error) {
	reserve, err := r.TokenBalance(ctx, poolAddress, tokenAddress)
	if err != nil {
		return 0, err
	}
	return reserve / 2, nil
}

// ExpectedPoolShare quotes the pool shares minted for a single-sided deposit
// of amountIn, using the pool's own pure pricing function with freshly read
// inputs.
func (r *PoolReader) ExpectedPoolShare(ctx context.Context, poolAddress, tokenAddress string, amountIn float64) (float64, error) {
	token := common.HexToAddress(tokenAddress)

	balanceIn, err := r.callBig(ctx, poolAddress, "getBalance", token)
	if err != nil {
		return 0, err
	}
	weightIn, err := r.callBig(ctx, poolAddress, "getDenormalizedWeight", token)
	if err != nil {
		return 0, err
	}
	supply, err := r.callBig(ctx, poolAddress, "totalSupply")
	if err != nil {
		return 0, err
	}
	totalWeight, err := r.callBig(ctx, poolAddress, "getTotalDenormalizedWeight")
	if err != nil {
		return 0, err
	}
	fee, err := r.callBig(ctx, poolAddress, "getSwapFee")
	if err != nil {
		return 0, err
	}

	out, err := r.callBig(ctx, poolAddress, "calcPoolOutGivenSingleIn",
		balanceIn, weightIn, supply, totalWeight, BaseUnits(amountIn, poolDecimals), fee)
	if err != nil {
		return 0, err
	}
	return FromBaseUnits(out, poolDecimals), nil
}

// SingleOutGivenPoolIn quotes the token amount received for burning
// poolAmountIn shares against a single side of the pool.
func (r *PoolReader) SingleOutGivenPoolIn(ctx context.Context, poolAddress, tokenAddress string, poolAmountIn float64) (float64, error) {
	token := common.HexToAddress(tokenAddress)

	balanceOut, err := r.callBig(ctx, poolAddress, "getBalance", token)
	if err != nil {
		return 0, err
	}
	weightOut, err := r.callBig(ctx, poolAddress, "getDenormalizedWeight", token)
	if err != nil {
		return 0, err
	}
	supply, err := r.callBig(ctx, poolAddress, "totalSupply")
	if err != nil {
		return 0, err
	}
	totalWeight, err := r.callBig(ctx, poolAddress, "getTotalDenormalizedWeight")
	if err != nil {
		return 0, err
	}
	fee, err := r.callBig(ctx, poolAddress, "getSwapFee")
	if err != nil {
		return 0, err
	}

	out, err := r.callBig(ctx, poolAddress, "calcSingleOutGivenPoolIn",
		balanceOut, weightOut, supply, totalWeight, BaseUnits(poolAmountIn, poolDecimals), fee)
	if err != nil {
		return 0, err
	}
	return FromBaseUnits(out, poolDecimals), nil
}

// CurrentTokens lists the tokens bound to the pool (OCEAN plus the datatoken).
func (r *PoolReader) CurrentTokens(ctx context.Context, poolAddress string) ([]common.Address, error) {
	data, err := poolABI.Pack("getCurrentTokens")
	if err != nil {
		return nil, fmt.Errorf("pack getCurrentTokens: %w", err)
	}
	to := common.HexToAddress(poolAddress)
	out, err := r.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call getCurrentTokens on %s: %w", poolAddress, err)
	}
	values, err := poolABI.Unpack("getCurrentTokens", out)
	if err != nil {
		return nil, fmt.Errorf("unpack getCurrentTokens: %w", err)
	}
	tokens, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unpack getCurrentTokens: unexpected return type %T", values[0])
	}
	return tokens, nil
}

// ERC20Balance reads balanceOf(account) on an arbitrary token contract,
// scaled by the token's decimals.
func (r *PoolReader) ERC20Balance(ctx context.Context, tokenAddress, account string, decimals int) (float64, error) {
	balance, err := r.callBig(ctx, tokenAddress, "balanceOf", common.HexToAddress(account))
	if err != nil {
		return 0, err
	}
	return FromBaseUnits(balance, decimals), nil
}
