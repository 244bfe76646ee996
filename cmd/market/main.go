// market is the command-line client: connect a wallet session, browse
// pool-priced datasets, inspect positions and submit liquidity transactions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/betbot/goocean/internal/app"
	"github.com/betbot/goocean/internal/market"
	"github.com/betbot/goocean/internal/stories"
	"github.com/betbot/goocean/pkg/format"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	a, err := app.Bootstrap(app.Options{
		ConfigPath: *configPath,
		Notifier:   func(msg string) { fmt.Fprintln(os.Stderr, msg) },
		OnPairingURI: func(uri string) {
			fmt.Println("Scan with your wallet to approve the session:")
			fmt.Println("  " + uri)
		},
		RecordHistory: true,
	})
	if err != nil {
		fatal(err)
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, a, flag.Arg(0), flag.Args()[1:]); err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	switch command {
	case "connect":
		return cmdConnect(ctx, a)
	case "assets":
		return cmdAssets(ctx, a, args)
	case "asset":
		return cmdAsset(ctx, a, args)
	case "balance":
		return cmdBalance(ctx, a)
	case "shares":
		return cmdShares(ctx, a, args)
	case "add":
		return cmdAdd(ctx, a, args)
	case "quote-remove":
		return cmdQuoteRemove(ctx, a, args)
	case "stories":
		return cmdStories(ctx, a)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdConnect(ctx context.Context, a *app.App) error {
	a.Service.ConnectToOceanMarket(ctx)
	if !a.Session.Connected() {
		return fmt.Errorf("connection failed")
	}
	fmt.Printf("connected, account=%s\n", a.Session.Account())
	return nil
}

func cmdAssets(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("assets", flag.ContinueOnError)
	pages := fs.Int("pages", 1, "number of pages to fetch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.Service.FetchTopAssets(ctx, true)
	for i := 1; i < *pages; i++ {
		a.Service.FetchTopAssets(ctx, false)
	}

	state := a.Store.State()
	if len(state.TopOceanMarketAssets) == 0 {
		return fmt.Errorf("no assets fetched")
	}
	for _, asset := range state.TopOceanMarketAssets {
		printAssetLine(asset)
	}
	if state.NextTopOceanMarketAssetsPage != nil {
		fmt.Printf("next page: %d\n", *state.NextTopOceanMarketAssetsPage)
	}
	return nil
}

func cmdAsset(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: market asset <did>")
	}
	asset := a.Market.GetSingleAsset(ctx, args[0])
	if asset == nil {
		return fmt.Errorf("asset %s not found", args[0])
	}
	printAssetLine(asset)
	fmt.Printf("  pool: %s\n", asset.Price.Address)
	fmt.Printf("  reserves: %s OCEAN / %s DT\n",
		format.Money(asset.Price.Ocean, 2), format.Money(asset.Price.Datatoken, 2))
	fmt.Printf("  swap fee: %s\n", format.Percent(a.Market.GetSwapFee(ctx, asset.Price.Address)*100, 2))
	return nil
}

func cmdBalance(ctx context.Context, a *app.App) error {
	if err := connectSession(ctx, a); err != nil {
		return err
	}
	a.Service.FetchOceanTokenBalance(ctx)
	fmt.Printf("%s %s\n", format.Money(a.Store.State().OceanTokenBalance, 4), market.OCEAN)
	return nil
}

func cmdShares(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("shares", flag.ContinueOnError)
	pool := fs.String("pool", "", "pool address")
	did := fs.String("did", "", "data asset DID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pool == "" || *did == "" {
		return fmt.Errorf("usage: market shares -pool <address> -did <did>")
	}
	if err := connectSession(ctx, a); err != nil {
		return err
	}

	a.Service.FetchPoolShare(ctx, *pool, *did)
	record, ok := a.Store.State().OceanPoolShares[*did]
	if !ok {
		fmt.Println("no shares in this pool")
		return nil
	}
	fmt.Printf("shares: %s (%s of pool)\n",
		format.Money(record.Shares, 6), format.Percent(record.SharesPercentage, 4))
	return nil
}

func cmdAdd(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	pool := fs.String("pool", "", "pool address")
	amount := fs.Float64("amount", 0, "OCEAN amount to deposit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pool == "" || *amount <= 0 {
		return fmt.Errorf("usage: market add -pool <address> -amount <ocean>")
	}
	if err := connectSession(ctx, a); err != nil {
		return err
	}

	max := a.Market.GetMaxAddLiquidity(ctx, *pool, a.Config.Ocean.OceanAddress)
	if max > 0 && *amount > max {
		return fmt.Errorf("amount exceeds pool maximum of %s", format.Money(max, 4))
	}
	expected := a.Market.GetExpectedPoolShare(ctx, *pool, a.Config.Ocean.OceanAddress, *amount)
	fmt.Printf("depositing %s OCEAN for ~%s pool shares, approve both transactions in your wallet\n",
		format.Money(*amount, 4), format.Money(expected, 6))

	receipt := a.Market.AddLiquidity(ctx, *pool, *amount)
	if receipt == nil {
		return fmt.Errorf("add liquidity failed")
	}
	fmt.Printf("mined in block %d, tx %s\n", receipt.BlockNumber, receipt.TransactionHash)
	return nil
}

func cmdQuoteRemove(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("quote-remove", flag.ContinueOnError)
	pool := fs.String("pool", "", "pool address")
	shares := fs.Float64("shares", 0, "pool shares to burn")
	split := fs.Bool("split", false, "quote an OCEAN + datatoken split withdrawal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pool == "" || *shares <= 0 {
		return fmt.Errorf("usage: market quote-remove -pool <address> -shares <n> [-split]")
	}

	quote := a.Market.GetRemoveLiquidityExpectedAssetsValue(ctx, *pool, *shares, *split)
	if quote == nil {
		return fmt.Errorf("quote failed")
	}
	fmt.Printf("burning %s shares returns ~%s OCEAN", format.Money(*shares, 6), format.Money(quote.OceanAmount, 4))
	if *split {
		fmt.Printf(" + ~%s DT", format.Money(quote.DatatokenAmount, 4))
	}
	fmt.Println()
	return nil
}

func cmdStories(ctx context.Context, a *app.App) error {
	if a.Config.Stories.FeedURL == "" {
		return fmt.Errorf("stories.feed_url is not configured")
	}
	feed, err := stories.NewClient(a.Config.Stories.FeedURL).Fetch(ctx)
	if err != nil {
		return err
	}
	tracker, err := stories.NewTracker(a.Persistence)
	if err != nil {
		return err
	}
	if err := tracker.Prune(feed); err != nil {
		return err
	}

	for _, story := range tracker.Unseen(feed) {
		fmt.Printf("* %s (%s)\n", story.Title, story.ID)
		if err := tracker.MarkSeen(story.ID); err != nil {
			return err
		}
	}
	return nil
}

// connectSession ensures the wallet session is live before account reads.
func connectSession(ctx context.Context, a *app.App) error {
	if a.Session.Connected() {
		return nil
	}
	a.Service.ConnectToOceanMarket(ctx)
	if !a.Session.Connected() {
		return fmt.Errorf("wallet session required, run 'market connect' first")
	}
	return nil
}

func printAssetLine(asset *market.Asset) {
	name := asset.DataTokenInfo.Name
	if metadata := asset.Metadata(); metadata != nil && metadata.Main.Name != "" {
		name = metadata.Main.Name
	}
	fmt.Printf("%-40s %-10s %s OCEAN\n", name, asset.DataTokenInfo.Symbol, format.Money(asset.Price.Ocean, 2))
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: market [-config file] <command>

commands:
  connect                                 pair a wallet session
  assets [-pages n]                       list pool-priced datasets
  asset <did>                             show one dataset
  balance                                 show OCEAN balance
  shares -pool <addr> -did <did>          show pool position
  add -pool <addr> -amount <ocean>        add single-sided liquidity
  quote-remove -pool <addr> -shares <n>   quote a withdrawal
  stories                                 show unseen announcements`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
