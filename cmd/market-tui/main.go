// market-tui is a terminal frontend for browsing pool-priced datasets and
// adding or removing liquidity. Keyboard input drives the same store/service
// layer the other commands use; amount typing is debounced before quoting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/betbot/goocean/internal/app"
	"github.com/betbot/goocean/internal/common"
	"github.com/betbot/goocean/internal/market"
	"github.com/betbot/goocean/internal/store"
	"github.com/betbot/goocean/pkg/format"
)

// quoteDebounce matches the 600ms input debounce of the liquidity screens.
const quoteDebounce = 600 * time.Millisecond

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("25")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))
)

// program is set before Run so debounced callbacks can push messages in.
var program *tea.Program

type view int

const (
	viewBrowse view = iota
	viewDetail
	viewAdd
	viewRemove
)

type model struct {
	app   *app.App
	ctx   context.Context
	quote *common.Coalescer

	view     view
	cursor   int
	assets   []*market.Asset
	nextPage *int

	asset  *market.Asset
	record *market.PoolShareRecord

	input          string
	expectedShare  float64
	previewPercent float64
	removeQuote    *market.TokensReceived

	status     string
	pairingURI string
	err        string
}

type assetsLoadedMsg struct{ state store.State }

type shareLoadedMsg struct {
	record *market.PoolShareRecord
}

type addQuoteMsg struct {
	share      float64
	percentage float64
}

type removeQuoteMsg struct{ quote *market.TokensReceived }

type connectedMsg struct{ account string }

type pairingURIMsg string

type statusMsg string

type errMsg string

func initialModel(a *app.App, ctx context.Context) model {
	return model{
		app:    a,
		ctx:    ctx,
		quote:  common.NewCoalescer(quoteDebounce),
		view:   viewBrowse,
		status: "loading assets...",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchAssetsCmd(true), m.connectCmd())
}

func (m model) fetchAssetsCmd(refresh bool) tea.Cmd {
	return func() tea.Msg {
		m.app.Service.FetchTopAssets(m.ctx, refresh)
		return assetsLoadedMsg{state: m.app.Store.State()}
	}
}

func (m model) connectCmd() tea.Cmd {
	return func() tea.Msg {
		m.app.Service.ConnectToOceanMarket(m.ctx)
		if !m.app.Session.Connected() {
			return errMsg("wallet session not connected")
		}
		m.app.Service.FetchOceanTokenBalance(m.ctx)
		return connectedMsg{account: m.app.Session.Account()}
	}
}

func (m model) fetchShareCmd(asset *market.Asset) tea.Cmd {
	return func() tea.Msg {
		m.app.Service.FetchPoolShare(m.ctx, asset.Price.Address, asset.ID)
		record, ok := m.app.Store.State().OceanPoolShares[asset.ID]
		if !ok {
			return shareLoadedMsg{}
		}
		return shareLoadedMsg{record: &record}
	}
}

// scheduleAddQuote runs the expected-share quote after the typing pause.
func (m *model) scheduleAddQuote() {
	asset := m.asset
	amount, err := strconv.ParseFloat(m.input, 64)
	if err != nil || amount <= 0 {
		m.expectedShare = 0
		m.previewPercent = 0
		return
	}
	m.quote.Do(func() {
		share := m.app.Market.GetExpectedPoolShare(m.ctx, asset.Price.Address, m.app.Config.Ocean.OceanAddress, amount)
		supply := m.app.Market.GetPoolSharesTotalSupply(m.ctx, asset.Price.Address)
		program.Send(addQuoteMsg{
			share:      share,
			percentage: market.PreviewSharesPercentage(share, supply),
		})
	})
}

func (m *model) scheduleRemoveQuote() {
	asset := m.asset
	shares, err := strconv.ParseFloat(m.input, 64)
	if err != nil || shares <= 0 {
		m.removeQuote = nil
		return
	}
	m.quote.Do(func() {
		quote := m.app.Market.GetRemoveLiquidityExpectedAssetsValue(m.ctx, asset.Price.Address, shares, true)
		program.Send(removeQuoteMsg{quote: quote})
	})
}

func (m model) addLiquidityCmd(amount float64) tea.Cmd {
	asset := m.asset
	return func() tea.Msg {
		receipt := m.app.Market.AddLiquidity(m.ctx, asset.Price.Address, amount)
		if receipt == nil {
			return errMsg("add liquidity failed")
		}
		return statusMsg(fmt.Sprintf("mined in block %d: %s", receipt.BlockNumber, receipt.TransactionHash))
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case assetsLoadedMsg:
		m.assets = msg.state.TopOceanMarketAssets
		m.nextPage = msg.state.NextTopOceanMarketAssetsPage
		m.status = fmt.Sprintf("%d assets", len(m.assets))
		if m.cursor >= len(m.assets) && len(m.assets) > 0 {
			m.cursor = len(m.assets) - 1
		}
		return m, nil

	case connectedMsg:
		m.status = "connected as " + msg.account
		m.pairingURI = ""
		return m, nil

	case pairingURIMsg:
		m.pairingURI = string(msg)
		return m, nil

	case shareLoadedMsg:
		m.record = msg.record
		return m, nil

	case addQuoteMsg:
		m.expectedShare = msg.share
		m.previewPercent = msg.percentage
		return m, nil

	case removeQuoteMsg:
		m.removeQuote = msg.quote
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case errMsg:
		m.err = string(msg)
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quote.Stop()
		return m, tea.Quit
	}

	switch m.view {
	case viewBrowse:
		switch key {
		case "q":
			m.quote.Stop()
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.assets)-1 {
				m.cursor++
			}
		case "n":
			if m.nextPage != nil {
				return m, m.fetchAssetsCmd(false)
			}
		case "R":
			return m, m.fetchAssetsCmd(true)
		case "enter":
			if m.cursor < len(m.assets) {
				m.asset = m.assets[m.cursor]
				m.record = nil
				m.view = viewDetail
				return m, m.fetchShareCmd(m.asset)
			}
		}

	case viewDetail:
		switch key {
		case "q", "esc":
			m.view = viewBrowse
		case "a":
			m.view = viewAdd
			m.input = ""
			m.expectedShare = 0
		case "r":
			if m.record != nil {
				m.view = viewRemove
				m.input = ""
				m.removeQuote = nil
			}
		}

	case viewAdd, viewRemove:
		switch key {
		case "esc":
			m.quote.Stop()
			m.view = viewDetail
		case "enter":
			if m.view == viewAdd {
				amount, err := strconv.ParseFloat(m.input, 64)
				if err != nil || amount <= 0 {
					m.err = "enter a positive amount"
					return m, nil
				}
				m.status = "submitting..."
				m.view = viewDetail
				return m, m.addLiquidityCmd(amount)
			}
			// remove stays a quote-only flow in the TUI
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
				m.reschedule()
			}
		default:
			if len(key) == 1 && (key >= "0" && key <= "9" || key == ".") {
				m.input += key
				m.reschedule()
			}
		}
	}
	return m, nil
}

func (m *model) reschedule() {
	if m.view == viewAdd {
		m.scheduleAddQuote()
	} else {
		m.scheduleRemoveQuote()
	}
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Ocean Market") + "  " + dimStyle.Render(m.status) + "\n\n")

	if m.pairingURI != "" {
		b.WriteString("Approve the session in your wallet:\n  " + m.pairingURI + "\n\n")
	}

	switch m.view {
	case viewBrowse:
		m.renderBrowse(&b)
	case viewDetail:
		m.renderDetail(&b)
	case viewAdd:
		m.renderDetail(&b)
		b.WriteString(fmt.Sprintf("\nOCEAN to deposit: %s_\n", m.input))
		if m.expectedShare > 0 {
			b.WriteString(fmt.Sprintf("expected pool shares: ~%s (%s of pool after deposit)\n",
				format.Money(m.expectedShare, 6), format.Percent(m.previewPercent, 4)))
		}
		b.WriteString(dimStyle.Render("enter submit · esc back") + "\n")
	case viewRemove:
		m.renderDetail(&b)
		b.WriteString(fmt.Sprintf("\npool shares to burn: %s_\n", m.input))
		if m.removeQuote != nil {
			b.WriteString(fmt.Sprintf("returns ~%s OCEAN + ~%s DT\n",
				format.Money(m.removeQuote.OceanAmount, 4), format.Money(m.removeQuote.DatatokenAmount, 4)))
		}
		b.WriteString(dimStyle.Render("esc back") + "\n")
	}

	if m.err != "" {
		b.WriteString("\n" + errStyle.Render(m.err) + "\n")
	}
	return b.String()
}

func (m model) renderBrowse(b *strings.Builder) {
	if len(m.assets) == 0 {
		b.WriteString(dimStyle.Render("no assets yet") + "\n")
		return
	}
	for i, asset := range m.assets {
		line := fmt.Sprintf("%-40s %-10s %s OCEAN",
			truncate(assetName(asset), 40), asset.DataTokenInfo.Symbol, format.Money(asset.Price.Ocean, 2))
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	footer := "enter detail · R refresh · q quit"
	if m.nextPage != nil {
		footer = "n next page · " + footer
	}
	b.WriteString("\n" + dimStyle.Render(footer) + "\n")
}

func (m model) renderDetail(b *strings.Builder) {
	if m.asset == nil {
		return
	}
	b.WriteString(selectedStyle.Render(assetName(m.asset)) + "\n")
	b.WriteString(fmt.Sprintf("pool:     %s\n", m.asset.Price.Address))
	b.WriteString(fmt.Sprintf("reserves: %s OCEAN / %s %s\n",
		format.Money(m.asset.Price.Ocean, 2), format.Money(m.asset.Price.Datatoken, 2), m.asset.DataTokenInfo.Symbol))
	if m.record != nil {
		shares := market.SharesByDataAssetID{m.asset.ID: *m.record}
		position := fmt.Sprintf("position: %s shares (%s)",
			format.Money(m.record.Shares, 6), format.Percent(m.record.SharesPercentage, 4))
		if market.HasShares(shares, m.asset.ID) {
			total := market.TotalUserLiquidityInPool(shares, m.asset)
			position += fmt.Sprintf(", ~%s OCEAN", format.Money(total, 2))
		}
		b.WriteString(position + "\n")
	} else {
		b.WriteString(dimStyle.Render("no position in this pool") + "\n")
	}
	if m.view == viewDetail {
		b.WriteString("\n" + dimStyle.Render("a add liquidity · r remove · esc back") + "\n")
	}
}

func assetName(asset *market.Asset) string {
	if metadata := asset.Metadata(); metadata != nil && metadata.Main.Name != "" {
		return metadata.Main.Name
	}
	return asset.DataTokenInfo.Name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	_ = godotenv.Load()

	a, err := app.Bootstrap(app.Options{
		ConfigPath: *configPath,
		OnPairingURI: func(uri string) {
			if program != nil {
				program.Send(pairingURIMsg(uri))
			}
		},
		RecordHistory: true,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	program = tea.NewProgram(initialModel(a, ctx), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		os.Exit(1)
	}
}
