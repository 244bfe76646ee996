package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/goocean/internal/market"
	"github.com/betbot/goocean/internal/store"
)

type fakeMarket struct {
	assets     map[string]*market.Asset
	pages      int
	assetCalls int
}

func (f *fakeMarket) Connect(ctx context.Context, walletAddress string) error { return nil }

func (f *fakeMarket) GetOceanTokenBalance(ctx context.Context) float64 { return 7.5 }

func (f *fakeMarket) GetAssetsWithLiquidity(ctx context.Context, page int) *market.AssetsResponse {
	f.assetCalls++
	if page > f.pages {
		return nil
	}
	return &market.AssetsResponse{
		Results:    []*market.Asset{{ID: "did:op:listed"}},
		Page:       page,
		TotalPages: f.pages,
	}
}

func (f *fakeMarket) GetAccountSinglePoolShare(ctx context.Context, poolAddress string) float64 {
	return 0
}

func (f *fakeMarket) GetPoolSharesTotalSupply(ctx context.Context, poolAddress string) float64 {
	return 0
}

func (f *fakeMarket) GetSingleAsset(ctx context.Context, did string) *market.Asset {
	return f.assets[did]
}

func newTestServer(t *testing.T) (*Server, *store.Store, *fakeMarket) {
	t.Helper()
	fake := &fakeMarket{
		pages:  2,
		assets: map[string]*market.Asset{"did:op:solo": {ID: "did:op:solo"}},
	}
	st := store.New()
	service := store.NewService(fake, st, "0xwallet", nil)
	return New(st, service, fake, nil, "0xwallet"), st, fake
}

func do(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	server, _, _ := newTestServer(t)
	w := do(t, server.Router(), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStateAndRefresh(t *testing.T) {
	server, st, _ := newTestServer(t)
	router := server.Router()

	w := do(t, router, http.MethodPost, "/api/v1/assets/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, st.State().TopOceanMarketAssets, 1)

	w = do(t, router, http.MethodGet, "/api/v1/state")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["asset_count"])
	assert.Equal(t, float64(2), body["next_page"])
}

func TestRefreshThrottled(t *testing.T) {
	server, _, fake := newTestServer(t)
	router := server.Router()

	w := do(t, router, http.MethodPost, "/api/v1/assets/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, fake.assetCalls)

	// a second refresh inside the gate interval is rejected without an
	// upstream query
	w = do(t, router, http.MethodPost, "/api/v1/assets/refresh")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, fake.assetCalls)
}

func TestAssetLookup(t *testing.T) {
	server, _, _ := newTestServer(t)
	router := server.Router()

	// not in the store, resolved through the adapter
	w := do(t, router, http.MethodGet, "/api/v1/assets/did:op:solo")
	require.Equal(t, http.StatusOK, w.Code)
	var asset market.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asset))
	assert.Equal(t, "did:op:solo", asset.ID)

	w = do(t, router, http.MethodGet, "/api/v1/assets/did:op:missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBalanceRefresh(t *testing.T) {
	server, st, _ := newTestServer(t)
	w := do(t, server.Router(), http.MethodPost, "/api/v1/balance/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7.5, st.State().OceanTokenBalance)
}

func TestHistoryDisabled(t *testing.T) {
	server, _, _ := newTestServer(t)
	w := do(t, server.Router(), http.MethodGet, "/api/v1/history/balance")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
