// Package store holds the durable market state for an app session and the
// action layer that mutates it. State changes only through dispatched
// actions; screens and servers read snapshots.
package store

import (
	"github.com/betbot/goocean/internal/market"
)

// State is the single market state record. Mutation is by replacement: every
// reduction returns a new value and never edits slices or maps in place.
type State struct {
	IsConnectingToOceanMarket    bool
	TopOceanMarketAssets         []*market.Asset
	NextTopOceanMarketAssetsPage *int // nil once the last page has been fetched
	IsLoadingOceanMarketAssets   bool
	OceanTokenBalance            float64
	IsFetchingOceanTokenBalance  bool
	FetchingOceanPoolSharesID    string
	OceanPoolShares              market.SharesByDataAssetID
}

// InitialState returns the empty/zero session state.
func InitialState() State {
	return State{
		TopOceanMarketAssets: []*market.Asset{},
	}
}

// Action is the closed set of state transitions. One struct per kind, each
// carrying only its payload, so the reducer switch is exhaustive.
type Action interface{ isAction() }

type StartConnecting struct{}
type Connected struct{}
type ConnectError struct{}

type StartFetchAssets struct{}

// SetAssets replaces the asset list (refresh).
type SetAssets struct {
	Assets   []*market.Asset
	NextPage *int
}

// AppendAssets concatenates a further page. Order is preserved and duplicates
// are not removed.
type AppendAssets struct {
	Assets   []*market.Asset
	NextPage *int
}

type AssetsError struct{}

type StartFetchBalance struct{}

type SetBalance struct {
	Balance float64
}

// StartFetchPoolShares tracks the asset whose pool share fetch is in flight.
type StartFetchPoolShares struct {
	AssetID string
}

// SetPoolShares merges fetched records into the pool-share cache and clears
// the in-flight tracker.
type SetPoolShares struct {
	Shares market.SharesByDataAssetID
}

func (StartConnecting) isAction()      {}
func (Connected) isAction()            {}
func (ConnectError) isAction()         {}
func (StartFetchAssets) isAction()     {}
func (SetAssets) isAction()            {}
func (AppendAssets) isAction()         {}
func (AssetsError) isAction()          {}
func (StartFetchBalance) isAction()    {}
func (SetBalance) isAction()           {}
func (StartFetchPoolShares) isAction() {}
func (SetPoolShares) isAction()        {}

// Reduce is the pure state transition function. Unknown actions return the
// state unchanged.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case StartConnecting:
		state.IsConnectingToOceanMarket = true
		return state

	case Connected, ConnectError:
		state.IsConnectingToOceanMarket = false
		return state

	case StartFetchAssets:
		state.IsLoadingOceanMarketAssets = true
		return state

	case SetAssets:
		state.TopOceanMarketAssets = a.Assets
		state.NextTopOceanMarketAssetsPage = a.NextPage
		state.IsLoadingOceanMarketAssets = false
		return state

	case AppendAssets:
		combined := make([]*market.Asset, 0, len(state.TopOceanMarketAssets)+len(a.Assets))
		combined = append(combined, state.TopOceanMarketAssets...)
		combined = append(combined, a.Assets...)
		state.TopOceanMarketAssets = combined
		state.NextTopOceanMarketAssetsPage = a.NextPage
		state.IsLoadingOceanMarketAssets = false
		return state

	case AssetsError:
		state.IsLoadingOceanMarketAssets = false
		return state

	case StartFetchBalance:
		state.IsFetchingOceanTokenBalance = true
		return state

	case SetBalance:
		state.OceanTokenBalance = a.Balance
		state.IsFetchingOceanTokenBalance = false
		return state

	case StartFetchPoolShares:
		state.FetchingOceanPoolSharesID = a.AssetID
		return state

	case SetPoolShares:
		merged := make(market.SharesByDataAssetID, len(state.OceanPoolShares)+len(a.Shares))
		for did, record := range state.OceanPoolShares {
			merged[did] = record
		}
		for did, record := range a.Shares {
			merged[did] = record
		}
		state.OceanPoolShares = merged
		state.FetchingOceanPoolSharesID = ""
		return state
	}
	return state
}
