package market

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAsset() *Asset {
	return &Asset{
		ID: "did:op:1234",
		Price: Price{
			Type:      "pool",
			Value:     0.5,
			Ocean:     1000,
			Datatoken: 4000,
			Address:   "0x2112000000000000000000000000000000000021",
		},
		DataTokenInfo: DataTokenInfo{
			Address:  "0x0db10000000000000000000000000000000000bd",
			Name:     "Shrimp Dataset Token",
			Symbol:   "SHRIMP-42",
			Decimals: 18,
		},
	}
}

func TestBaseUnits(t *testing.T) {
	assert.Equal(t, "1500000000000000000", BaseUnits(1.5, 18).String())
	assert.Equal(t, "1", BaseUnits(0.000001, 6).String())
	assert.Equal(t, "0", BaseUnits(0, 18).String())
	// dust below token precision is truncated, not rounded up
	assert.Equal(t, "1", BaseUnits(0.0000019, 6).String())
}

func TestFromBaseUnits(t *testing.T) {
	assert.InDelta(t, 1.5, FromBaseUnits(BaseUnits(1.5, 18), 18), 1e-12)
	assert.Equal(t, float64(0), FromBaseUnits(nil, 18))
}

func TestCreateAddLiquidityTransactionDataDeterministic(t *testing.T) {
	tokenIn := "0x0db10000000000000000000000000000000000bd"

	first := CreateAddLiquidityTransactionData(tokenIn, 12.5, 18)
	second := CreateAddLiquidityTransactionData(tokenIn, 12.5, 18)
	assert.Equal(t, first, second)

	// selector + 3 words
	require.True(t, strings.HasPrefix(first, "0x"))
	assert.Len(t, first, 2+8+3*64)
	selector := hexutil.Encode(poolABI.Methods["joinswapExternAmountIn"].ID)
	assert.True(t, strings.HasPrefix(first, selector))

	// minPoolAmountOut is always the zero word
	assert.Equal(t, strings.Repeat("0", 64), first[len(first)-64:])
}

func TestCreateAddLiquidityAllowanceTransactionData(t *testing.T) {
	data := CreateAddLiquidityAllowanceTransactionData("0x2112000000000000000000000000000000000021", 3, 18)
	selector := hexutil.Encode(poolABI.Methods["approve"].ID)
	assert.True(t, strings.HasPrefix(data, selector))
	assert.Len(t, data, 2+8+2*64)
}

func TestCreateRemoveLiquidityTransactionData(t *testing.T) {
	data := CreateRemoveLiquidityTransactionData("0x0db10000000000000000000000000000000000bd", 5, 40, 18)
	selector := hexutil.Encode(poolABI.Methods["exitswapExternAmountOut"].ID)
	assert.True(t, strings.HasPrefix(data, selector))
	assert.Len(t, data, 2+8+3*64)
}

func TestAddLiquidityAllowanceTransaction(t *testing.T) {
	asset := testAsset()
	oceanAddress := "0x0cea000000000000000000000000000000000cea"

	tx := AddLiquidityAllowanceTransaction(10, asset, oceanAddress)
	assert.Equal(t, oceanAddress, tx.To)
	assert.Equal(t, OCEAN, tx.Symbol)
	assert.Zero(t, tx.Amount)
	assert.NotEmpty(t, tx.Data)
}

func TestAddLiquidityTransaction(t *testing.T) {
	asset := testAsset()
	token := Token{Symbol: OCEAN, Address: "0x0cea000000000000000000000000000000000cea", Decimals: 18}

	tx := AddLiquidityTransaction(token, 10, asset)
	assert.Equal(t, asset.Price.Address, tx.To)
	assert.Equal(t, OCEAN, tx.Symbol)
	assert.Zero(t, tx.Amount)
}

func TestRemoveLiquidityTransaction(t *testing.T) {
	asset := testAsset()
	oceanAddress := "0x0cea000000000000000000000000000000000cea"
	token := Token{Symbol: OCEAN, Address: oceanAddress, Decimals: 18}

	tx := RemoveLiquidityTransaction(token, 5, 40, asset, oceanAddress)
	assert.Equal(t, asset.Price.Address, tx.To)
	assert.Equal(t, oceanAddress, tx.ContractAddress)
	assert.Equal(t, 18, tx.Decimals)
}
