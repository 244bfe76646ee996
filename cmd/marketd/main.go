// marketd serves the market state over HTTP for an external frontend and
// keeps the asset listing and balance fresh in the background.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/betbot/goocean/internal/app"
	"github.com/betbot/goocean/internal/server"
	"github.com/betbot/goocean/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	refreshEvery := flag.Duration("refresh", 5*time.Minute, "asset/balance refresh interval")
	flag.Parse()

	_ = godotenv.Load()

	a, err := app.Bootstrap(app.Options{
		ConfigPath: *configPath,
		Notifier:   func(msg string) { logger.Warn(msg) },
		OnPairingURI: func(uri string) {
			logger.Infof("pairing URI: %s", uri)
		},
		RecordHistory: true,
	})
	if err != nil {
		logger.Errorf("bootstrap: %v", err)
		return
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Session connect may block on wallet approval; the API serves the
	// session-free reads meanwhile.
	go a.Service.ConnectToOceanMarket(ctx)

	go refreshLoop(ctx, a, *refreshEvery)

	srv := &http.Server{
		Addr:    a.Config.Server.ListenAddr,
		Handler: server.New(a.Store, a.Service, a.Market, a.Recorder, a.WalletAddress).Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("marketd listening on %s", a.Config.Server.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Errorf("serve: %v", err)
	}
}

func refreshLoop(ctx context.Context, a *app.App, interval time.Duration) {
	a.Service.FetchTopAssets(ctx, true)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Service.FetchTopAssets(ctx, true)
			if a.Session.Connected() {
				a.Service.FetchOceanTokenBalance(ctx)
			}
		}
	}
}
