package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/betbot/goocean/internal/market"
)

func intPtr(v int) *int { return &v }

func asset(id string) *market.Asset {
	return &market.Asset{ID: id}
}

func TestReduceConnectionFlags(t *testing.T) {
	state := InitialState()

	state = Reduce(state, StartConnecting{})
	assert.True(t, state.IsConnectingToOceanMarket)

	state = Reduce(state, Connected{})
	assert.False(t, state.IsConnectingToOceanMarket)

	state = Reduce(Reduce(state, StartConnecting{}), ConnectError{})
	assert.False(t, state.IsConnectingToOceanMarket)
}

func TestReduceAppendAfterSet(t *testing.T) {
	state := InitialState()

	state = Reduce(state, SetAssets{Assets: []*market.Asset{asset("x")}, NextPage: intPtr(2)})
	state = Reduce(state, AppendAssets{Assets: []*market.Asset{asset("a"), asset("b")}, NextPage: intPtr(3)})

	ids := make([]string, 0, len(state.TopOceanMarketAssets))
	for _, a := range state.TopOceanMarketAssets {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"x", "a", "b"}, ids)
	assert.Equal(t, 3, *state.NextTopOceanMarketAssetsPage)
	assert.False(t, state.IsLoadingOceanMarketAssets)
}

func TestReduceAppendDoesNotMutatePriorState(t *testing.T) {
	first := Reduce(InitialState(), SetAssets{Assets: []*market.Asset{asset("x")}, NextPage: intPtr(2)})
	_ = Reduce(first, AppendAssets{Assets: []*market.Asset{asset("a")}, NextPage: nil})

	assert.Len(t, first.TopOceanMarketAssets, 1)
	assert.Equal(t, "x", first.TopOceanMarketAssets[0].ID)
}

func TestReduceAssetsErrorIdempotent(t *testing.T) {
	state := Reduce(InitialState(), StartFetchAssets{})
	assert.True(t, state.IsLoadingOceanMarketAssets)

	state = Reduce(state, AssetsError{})
	assert.False(t, state.IsLoadingOceanMarketAssets)

	state = Reduce(state, AssetsError{})
	assert.False(t, state.IsLoadingOceanMarketAssets)
}

func TestReduceBalance(t *testing.T) {
	state := Reduce(InitialState(), StartFetchBalance{})
	assert.True(t, state.IsFetchingOceanTokenBalance)

	state = Reduce(state, SetBalance{Balance: 12.5})
	assert.Equal(t, 12.5, state.OceanTokenBalance)
	assert.False(t, state.IsFetchingOceanTokenBalance)
}

func TestReducePoolShares(t *testing.T) {
	state := Reduce(InitialState(), StartFetchPoolShares{AssetID: "did:op:1"})
	assert.Equal(t, "did:op:1", state.FetchingOceanPoolSharesID)

	record := market.NewPoolShareRecord("0xpool", "did:op:1", 50, 200)
	state = Reduce(state, SetPoolShares{Shares: market.SharesByDataAssetID{"did:op:1": record}})
	assert.Empty(t, state.FetchingOceanPoolSharesID)
	assert.Equal(t, 25.0, state.OceanPoolShares["did:op:1"].SharesPercentage)

	// merging keeps existing records for other assets
	other := market.NewPoolShareRecord("0xpool2", "did:op:2", 10, 100)
	state = Reduce(state, SetPoolShares{Shares: market.SharesByDataAssetID{"did:op:2": other}})
	assert.Len(t, state.OceanPoolShares, 2)
}

func TestStoreDispatchAndSubscribe(t *testing.T) {
	s := New()

	var seen []float64
	unsubscribe := s.Subscribe(func(state State) {
		seen = append(seen, state.OceanTokenBalance)
	})

	s.Dispatch(SetBalance{Balance: 1})
	s.Dispatch(SetBalance{Balance: 2})
	unsubscribe()
	s.Dispatch(SetBalance{Balance: 3})

	assert.Equal(t, []float64{1, 2}, seen)
	assert.Equal(t, 3.0, s.State().OceanTokenBalance)
}
