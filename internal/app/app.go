// Package app wires configuration, wallet session, market client, store and
// history recorder into one bundle the commands share.
package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/pkg/errors"

	"github.com/betbot/goocean/internal/history"
	"github.com/betbot/goocean/internal/market"
	"github.com/betbot/goocean/internal/store"
	"github.com/betbot/goocean/internal/walletconnect"
	"github.com/betbot/goocean/pkg/config"
	"github.com/betbot/goocean/pkg/logger"
	"github.com/betbot/goocean/pkg/persistence"
)

const defaultDerivationPath = "m/44'/60'/0'/0/0"

type App struct {
	Config      *config.Config
	Store       *store.Store
	Service     *store.Service
	Market      *market.Client
	Session     *walletconnect.Session
	Persistence persistence.Service
	Recorder    *history.Recorder

	sessionStore  *walletconnect.SessionStore
	WalletAddress string

	historyMu     sync.Mutex
	lastBalance   float64
	balanceSeen   bool
	lastShareKeys map[string]float64
	unsubscribe   func()
}

// Options tweak Bootstrap. Zero value is fine.
type Options struct {
	ConfigPath   string
	Notifier     store.Notifier
	OnPairingURI func(uri string)
	// RecordHistory enables the sqlite snapshot recorder.
	RecordHistory bool
}

// Bootstrap loads config, initializes logging and builds the full component
// graph. Call Close when done.
func Bootstrap(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	walletAddress, err := resolveWalletAddress(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "data dir")
	}
	sessionStore, err := walletconnect.OpenSessionStore(filepath.Join(cfg.DataDir, "wc-session"))
	if err != nil {
		return nil, err
	}

	session := walletconnect.NewSession(walletconnect.Config{
		BridgeURL: cfg.Wallet.BridgeURL,
		ChainID:   cfg.Ocean.ChainID,
		Meta: walletconnect.ClientMeta{
			Name:        "Ocean Market client",
			Description: "Liquidity client for the Ocean Market",
			URL:         "https://market.oceanprotocol.com",
		},
		OnPairingURI: opts.OnPairingURI,
	}, sessionStore)

	client := market.NewClient(market.ClientConfig{
		MetadataURI:  cfg.Ocean.MetadataURI,
		NodeURL:      cfg.NodeURL(),
		OceanAddress: cfg.Ocean.OceanAddress,
		ChainID:      cfg.Ocean.ChainID,
	}, session)

	st := store.New()
	service := store.NewService(client, st, walletAddress, opts.Notifier)

	a := &App{
		Config:        cfg,
		Store:         st,
		Service:       service,
		Market:        client,
		Session:       session,
		Persistence:   persistence.NewJSONFileService(filepath.Join(cfg.DataDir, "state")),
		sessionStore:  sessionStore,
		WalletAddress: walletAddress,
		lastShareKeys: map[string]float64{},
	}

	if opts.RecordHistory {
		recorder, err := history.Open(filepath.Join(cfg.DataDir, "history.db"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Recorder = recorder
		a.startHistoryRecording()
	}
	return a, nil
}

// resolveWalletAddress uses the configured address, falling back to deriving
// the first account from the mnemonic.
func resolveWalletAddress(cfg *config.Config) (string, error) {
	if cfg.Wallet.Address != "" {
		return cfg.Wallet.Address, nil
	}
	mnemonic := strings.TrimSpace(cfg.Wallet.Mnemonic)
	if mnemonic == "" {
		return "", nil
	}

	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return "", errors.Wrap(err, "invalid mnemonic")
	}
	path, err := hdwallet.ParseDerivationPath(defaultDerivationPath)
	if err != nil {
		return "", err
	}
	account, err := wallet.Derive(path, false)
	if err != nil {
		return "", errors.Wrap(err, "derive account")
	}
	return strings.ToLower(account.Address.Hex()), nil
}

// startHistoryRecording snapshots balance and pool-share changes as they land
// in the store.
func (a *App) startHistoryRecording() {
	a.unsubscribe = a.Store.Subscribe(func(state store.State) {
		a.historyMu.Lock()
		defer a.historyMu.Unlock()

		ctx := context.Background()
		if !a.balanceSeen || state.OceanTokenBalance != a.lastBalance {
			a.balanceSeen = true
			a.lastBalance = state.OceanTokenBalance
			if err := a.Recorder.RecordBalance(ctx, a.WalletAddress, state.OceanTokenBalance); err != nil {
				logger.Warnf("recording balance snapshot: %v", err)
			}
		}
		for did, record := range state.OceanPoolShares {
			if a.lastShareKeys[did] == record.Shares {
				continue
			}
			a.lastShareKeys[did] = record.Shares
			if err := a.Recorder.RecordPoolShare(ctx, a.WalletAddress, record); err != nil {
				logger.Warnf("recording pool share snapshot: %v", err)
			}
		}
	})
}

func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.Session != nil {
		_ = a.Session.Close()
	}
	if a.Recorder != nil {
		_ = a.Recorder.Close()
	}
	if a.sessionStore != nil {
		_ = a.sessionStore.Close()
	}
}
