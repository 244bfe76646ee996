package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharesPercentage(t *testing.T) {
	assert.Equal(t, 25.0, SharesPercentage(50, 200))
	assert.Equal(t, 0.0, SharesPercentage(0, 200))
	assert.Equal(t, 0.0, SharesPercentage(50, 0))
	assert.Equal(t, 0.0, SharesPercentage(0, 0))
}

func TestPreviewSharesPercentage(t *testing.T) {
	// preview is computed against supply after minting
	assert.Equal(t, 20.0, PreviewSharesPercentage(50, 200))
	assert.Equal(t, 0.0, PreviewSharesPercentage(0, 200))
	assert.Equal(t, 0.0, PreviewSharesPercentage(50, 0))
}

func TestNewPoolShareRecord(t *testing.T) {
	record := NewPoolShareRecord("0xpool", "did:op:1", 50, 200)
	assert.Equal(t, 25.0, record.SharesPercentage)
	assert.Equal(t, 50.0, record.Shares)
	assert.Equal(t, 200.0, record.TotalPoolSupply)

	empty := NewPoolShareRecord("0xpool", "did:op:1", 0, 0)
	assert.Equal(t, 0.0, empty.SharesPercentage)
}

func TestHasShares(t *testing.T) {
	shares := SharesByDataAssetID{
		"did:op:1": NewPoolShareRecord("0xpool", "did:op:1", 50, 200),
		"did:op:2": NewPoolShareRecord("0xpool2", "did:op:2", 0, 200),
	}
	assert.True(t, HasShares(shares, "did:op:1"))
	assert.False(t, HasShares(shares, "did:op:2"))
	assert.False(t, HasShares(shares, "did:op:unknown"))
}

func TestTotalUserLiquidityInPool(t *testing.T) {
	asset := testAsset()
	shares := SharesByDataAssetID{
		asset.ID: NewPoolShareRecord(asset.Price.Address, asset.ID, 50, 200),
	}

	// 25% of 1000 OCEAN + 25% of 4000 DT valued at 0.5 OCEAN each
	got := TotalUserLiquidityInPool(shares, asset)
	assert.InDelta(t, 250+1000*0.5, got, 1e-9)
}

func TestTotalUserLiquidityInPoolLinearInShares(t *testing.T) {
	asset := testAsset()
	base := SharesByDataAssetID{
		asset.ID: NewPoolShareRecord(asset.Price.Address, asset.ID, 10, 200),
	}
	doubled := SharesByDataAssetID{
		asset.ID: NewPoolShareRecord(asset.Price.Address, asset.ID, 20, 200),
	}
	assert.InDelta(t, 2*TotalUserLiquidityInPool(base, asset), TotalUserLiquidityInPool(doubled, asset), 1e-9)
}

func TestTotalUserLiquidityInPoolZeroSupplyIsNaN(t *testing.T) {
	asset := testAsset()
	shares := SharesByDataAssetID{
		asset.ID: {PoolAddress: asset.Price.Address, DID: asset.ID, Shares: 0, TotalPoolSupply: 0},
	}
	// undefined without shares; HasShares is the guard screens use
	assert.True(t, math.IsNaN(TotalUserLiquidityInPool(shares, asset)))
	assert.False(t, HasShares(shares, asset.ID))
}

func TestAssetMetadata(t *testing.T) {
	asset := testAsset()
	assert.Nil(t, asset.Metadata())

	asset.Service = []Service{
		{Type: "access"},
		{Type: "metadata", Attributes: MetaAttributes{Main: MetaMain{Name: "Shrimp Dataset"}}},
	}
	meta := asset.Metadata()
	assert.NotNil(t, meta)
	assert.Equal(t, "Shrimp Dataset", meta.Main.Name)

	var nilAsset *Asset
	assert.Nil(t, nilAsset.Metadata())
}
