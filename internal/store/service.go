package store

import (
	"context"
	"sync/atomic"

	"github.com/betbot/goocean/internal/market"
	"github.com/betbot/goocean/pkg/logger"
)

// MarketAPI is the slice of the market client the action layer uses.
type MarketAPI interface {
	Connect(ctx context.Context, walletAddress string) error
	GetOceanTokenBalance(ctx context.Context) float64
	GetAssetsWithLiquidity(ctx context.Context, page int) *market.AssetsResponse
	GetAccountSinglePoolShare(ctx context.Context, poolAddress string) float64
	GetPoolSharesTotalSupply(ctx context.Context, poolAddress string) float64
}

// Notifier surfaces a non-blocking user message (the toast analog).
type Notifier func(message string)

const initialAssetsPage = 1

// Service is the async action layer: each method runs its adapter calls
// sequentially and dispatches results into the store. Failures never
// propagate; they end a call early after an error dispatch or notification.
type Service struct {
	api           MarketAPI
	store         *Store
	notify        Notifier
	walletAddress string

	// poolShareGen orders pool-share fetches; responses from a superseded
	// fetch are discarded instead of overwriting newer state.
	poolShareGen atomic.Int64
}

// NewService wires the action layer. notify may be nil.
func NewService(api MarketAPI, store *Store, walletAddress string, notify Notifier) *Service {
	if notify == nil {
		notify = func(string) {}
	}
	return &Service{
		api:           api,
		store:         store,
		notify:        notify,
		walletAddress: walletAddress,
	}
}

// ConnectToOceanMarket establishes the wallet session. Connection failures
// surface as a notification plus a ConnectError dispatch.
func (s *Service) ConnectToOceanMarket(ctx context.Context) {
	s.store.Dispatch(StartConnecting{})

	if s.walletAddress == "" {
		s.notify("Cannot connect to Ocean Market: no smart wallet account")
		s.store.Dispatch(ConnectError{})
		return
	}

	if err := s.api.Connect(ctx, s.walletAddress); err != nil {
		s.notify("Cannot connect to Ocean Market: " + err.Error())
		s.store.Dispatch(ConnectError{})
		return
	}
	s.store.Dispatch(Connected{})
}

// FetchTopAssets loads the first page (isRefresh) or the next page of the
// pool-priced asset listing. A non-refresh call is a no-op while a fetch is
// already in flight or once the cursor is exhausted.
func (s *Service) FetchTopAssets(ctx context.Context, isRefresh bool) {
	state := s.store.State()

	if !isRefresh && state.IsLoadingOceanMarketAssets {
		return
	}

	requestPage := initialAssetsPage
	if !isRefresh {
		if state.NextTopOceanMarketAssetsPage == nil {
			return
		}
		requestPage = *state.NextTopOceanMarketAssetsPage
	}

	s.store.Dispatch(StartFetchAssets{})

	response := s.api.GetAssetsWithLiquidity(ctx, requestPage)
	if response == nil {
		s.store.Dispatch(AssetsError{})
		return
	}

	var nextPage *int
	if next := response.Page + 1; next <= response.TotalPages {
		nextPage = &next
	}

	if isRefresh {
		s.store.Dispatch(SetAssets{Assets: response.Results, NextPage: nextPage})
	} else {
		s.store.Dispatch(AppendAssets{Assets: response.Results, NextPage: nextPage})
	}
}

// FetchOceanTokenBalance refreshes the account's OCEAN balance.
func (s *Service) FetchOceanTokenBalance(ctx context.Context) {
	s.store.Dispatch(StartFetchBalance{})
	balance := s.api.GetOceanTokenBalance(ctx)
	s.store.Dispatch(SetBalance{Balance: balance})
}

// FetchPoolShare loads the account's position in one pool and merges the
// record keyed by the asset's DID. The share and supply reads run
// sequentially; a fetch superseded by a newer one discards its response.
func (s *Service) FetchPoolShare(ctx context.Context, poolAddress, did string) {
	generation := s.poolShareGen.Add(1)

	s.store.Dispatch(StartFetchPoolShares{AssetID: did})

	shares := s.api.GetAccountSinglePoolShare(ctx, poolAddress)
	totalSupply := s.api.GetPoolSharesTotalSupply(ctx, poolAddress)

	if s.poolShareGen.Load() != generation {
		logger.WithField("module", "store").Debugf("discarding stale pool share response for %s", did)
		return
	}

	merged := market.SharesByDataAssetID{}
	for id, record := range s.store.State().OceanPoolShares {
		merged[id] = record
	}
	if shares != 0 {
		merged[did] = market.NewPoolShareRecord(poolAddress, did, shares, totalSupply)
	}
	s.store.Dispatch(SetPoolShares{Shares: merged})
}
