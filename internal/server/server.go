// Package server exposes the market state over a small read-only HTTP API so
// an external frontend can render the store without linking the Go code.
// Mutating endpoints only trigger refreshes; transactions never go through it.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/betbot/goocean/internal/common"
	"github.com/betbot/goocean/internal/history"
	"github.com/betbot/goocean/internal/market"
	"github.com/betbot/goocean/internal/store"
)

// refreshMinInterval gates the manual refresh endpoint so a polling frontend
// cannot hammer Aquarius.
const refreshMinInterval = 5 * time.Second

// AssetResolver is the single adapter read the API needs beyond the store.
type AssetResolver interface {
	GetSingleAsset(ctx context.Context, did string) *market.Asset
}

type Server struct {
	store    *store.Store
	service  *store.Service
	resolver AssetResolver
	recorder *history.Recorder // nil disables the history endpoints
	account  string

	refreshGate *common.Debouncer
}

func New(st *store.Store, service *store.Service, resolver AssetResolver, recorder *history.Recorder, account string) *Server {
	return &Server{
		store:    st,
		service:  service,
		resolver: resolver,
		recorder: recorder,
		account:  account,

		refreshGate: common.NewDebouncer(refreshMinInterval),
	}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api/v1")
	api.GET("/state", s.handleState)
	api.GET("/assets", s.handleAssets)
	api.GET("/assets/:did", s.handleAsset)
	api.POST("/assets/refresh", s.handleAssetsRefresh)
	api.POST("/assets/more", s.handleAssetsMore)
	api.GET("/balance", s.handleBalance)
	api.POST("/balance/refresh", s.handleBalanceRefresh)
	api.GET("/pool-shares", s.handlePoolShares)
	api.GET("/history/balance", s.handleBalanceHistory)
	api.GET("/history/pool-shares", s.handlePoolShareHistory)

	return r
}

func (s *Server) handleState(c *gin.Context) {
	state := s.store.State()
	c.JSON(http.StatusOK, gin.H{
		"is_connecting":        state.IsConnectingToOceanMarket,
		"is_loading_assets":    state.IsLoadingOceanMarketAssets,
		"is_fetching_balance":  state.IsFetchingOceanTokenBalance,
		"asset_count":          len(state.TopOceanMarketAssets),
		"next_page":            state.NextTopOceanMarketAssetsPage,
		"ocean_token_balance":  state.OceanTokenBalance,
		"fetching_pool_shares": state.FetchingOceanPoolSharesID,
	})
}

func (s *Server) handleAssets(c *gin.Context) {
	state := s.store.State()
	c.JSON(http.StatusOK, gin.H{
		"assets":    state.TopOceanMarketAssets,
		"next_page": state.NextTopOceanMarketAssetsPage,
	})
}

func (s *Server) handleAsset(c *gin.Context) {
	did := c.Param("did")
	for _, asset := range s.store.State().TopOceanMarketAssets {
		if asset != nil && asset.ID == did {
			c.JSON(http.StatusOK, asset)
			return
		}
	}
	if asset := s.resolver.GetSingleAsset(c.Request.Context(), did); asset != nil {
		c.JSON(http.StatusOK, asset)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
}

func (s *Server) handleAssetsRefresh(c *gin.Context) {
	now := time.Now()
	if !s.refreshGate.Ready(now) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "refresh throttled, try again shortly"})
		return
	}
	s.refreshGate.Mark(now)

	s.service.FetchTopAssets(c.Request.Context(), true)
	s.handleAssets(c)
}

func (s *Server) handleAssetsMore(c *gin.Context) {
	s.service.FetchTopAssets(c.Request.Context(), false)
	s.handleAssets(c)
}

func (s *Server) handleBalance(c *gin.Context) {
	state := s.store.State()
	c.JSON(http.StatusOK, gin.H{
		"balance":     state.OceanTokenBalance,
		"is_fetching": state.IsFetchingOceanTokenBalance,
	})
}

func (s *Server) handleBalanceRefresh(c *gin.Context) {
	s.service.FetchOceanTokenBalance(c.Request.Context())
	s.handleBalance(c)
}

func (s *Server) handlePoolShares(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pool_shares": s.store.State().OceanPoolShares})
}

func (s *Server) handleBalanceHistory(c *gin.Context) {
	if s.recorder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history recording disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	snaps, err := s.recorder.BalanceHistory(c.Request.Context(), s.account, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}

func (s *Server) handlePoolShareHistory(c *gin.Context) {
	if s.recorder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history recording disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	snaps, err := s.recorder.PoolShareHistory(c.Request.Context(), s.account, c.Query("pool"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}
