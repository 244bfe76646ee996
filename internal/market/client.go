package market

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/goocean/pkg/logger"
)

var (
	errNoProvider = errors.New("no provider")
	errNoAccount  = errors.New("no account")
)

// Session is the wallet session transactions are submitted through. The
// WalletConnect implementation lives in internal/walletconnect.
type Session interface {
	Connect(ctx context.Context, account string) error
	Account() string
	Connected() bool
	// SendTransaction submits an unsigned transaction to the session peer for
	// signing and returns the transaction hash.
	SendTransaction(ctx context.Context, to string, data string) (string, error)
	Close() error
}

// ClientConfig is the Ocean Market environment the client operates in.
type ClientConfig struct {
	MetadataURI  string
	NodeURL      string
	OceanAddress string
	ChainID      int64
}

// Client bridges the application to the Ocean Market: Aquarius metadata, pool
// contract reads and liquidity submission through the wallet session.
//
// Every method catches its own failures, logs a diagnostic and resolves with
// a safe default (nil or 0). Callers cannot distinguish "failed" from
// "succeeded with zero"; screens treat both as an empty result.
//
// Construct with NewClient and inject where needed; there is no package-level
// instance.
type Client struct {
	cfg      ClientConfig
	session  Session
	aquarius *AquariusClient
	log      *logrus.Entry

	mu   sync.Mutex
	eth  *ethclient.Client
	pool *PoolReader
}

// NewClient creates a disconnected client. Connect must succeed before the
// account and pool operations return live values.
func NewClient(cfg ClientConfig, session Session) *Client {
	return &Client{
		cfg:      cfg,
		session:  session,
		aquarius: NewAquariusClient(cfg.MetadataURI),
		log:      logger.WithField("module", "ocean"),
	}
}

// Connect establishes the wallet session for walletAddress and dials the
// JSON-RPC node. It returns the error instead of swallowing it so the caller
// can surface a connection toast; it still never panics or leaves partial
// state behind.
func (c *Client) Connect(ctx context.Context, walletAddress string) error {
	if err := c.ensureNode(ctx); err != nil {
		logger.ReportError("Unable to connect to Ocean Market", map[string]interface{}{"error": err})
		return err
	}
	if err := c.session.Connect(ctx, walletAddress); err != nil {
		logger.ReportError("Unable to connect to Ocean Market", map[string]interface{}{"error": err})
		return err
	}
	return nil
}

func (c *Client) ensureNode(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eth != nil {
		return nil
	}
	eth, err := ethclient.DialContext(ctx, c.cfg.NodeURL)
	if err != nil {
		return errors.Wrap(err, "dial node")
	}
	c.eth = eth
	c.pool = NewPoolReader(eth)
	return nil
}

// reader dials the node on first use; pool reads and quotes need no wallet
// session.
func (c *Client) reader(ctx context.Context) (*PoolReader, error) {
	if err := c.ensureNode(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool, nil
}

func (c *Client) account() (string, error) {
	if c.session == nil || !c.session.Connected() {
		return "", errNoAccount
	}
	account := c.session.Account()
	if account == "" {
		return "", errNoAccount
	}
	return account, nil
}

// GetOceanTokenBalance returns the account's OCEAN balance, or 0 when the
// session or node is unavailable.
func (c *Client) GetOceanTokenBalance(ctx context.Context) float64 {
	account, err := c.account()
	if err != nil {
		logger.ReportError("Unable to get Ocean token balance", map[string]interface{}{"error": err})
		return 0
	}
	reader, err := c.reader(ctx)
	if err != nil {
		logger.ReportError("Unable to get Ocean token balance", map[string]interface{}{"error": err})
		return 0
	}
	balance, err := reader.ERC20Balance(ctx, c.cfg.OceanAddress, account, poolDecimals)
	if err != nil {
		logger.ReportError("Unable to get Ocean token balance", map[string]interface{}{"error": err})
		return 0
	}
	return balance
}

// GetAssetsWithLiquidity returns one page of pool-priced assets, or nil on
// any failure. Requires no wallet session.
func (c *Client) GetAssetsWithLiquidity(ctx context.Context, page int) *AssetsResponse {
	response, err := c.aquarius.QueryAssetsWithLiquidity(ctx, page)
	if err != nil {
		logger.ReportError("Unable to get Ocean Market assets", map[string]interface{}{"error": err})
		return nil
	}
	return response
}

// GetSingleAsset resolves one DDO, or nil on failure.
func (c *Client) GetSingleAsset(ctx context.Context, did string) *Asset {
	asset, err := c.aquarius.ResolveAsset(ctx, did)
	if err != nil {
		logger.ReportError("Unable to get single Ocean Market asset", map[string]interface{}{"error": err, "did": did})
		return nil
	}
	return asset
}

// GetAccountSinglePoolShare returns the account's share balance in one pool.
func (c *Client) GetAccountSinglePoolShare(ctx context.Context, poolAddress string) float64 {
	account, err := c.account()
	if err != nil {
		logger.ReportError("Unable to get account's single pool share", map[string]interface{}{"error": err})
		return 0
	}
	reader, err := c.reader(ctx)
	if err != nil {
		logger.ReportError("Unable to get account's single pool share", map[string]interface{}{"error": err})
		return 0
	}
	shares, err := reader.SharesBalance(ctx, account, poolAddress)
	if err != nil {
		logger.ReportError("Unable to get account's single pool share", map[string]interface{}{"error": err, "pool": poolAddress})
		return 0
	}
	return shares
}

// GetPoolSharesTotalSupply returns the pool's total share supply.
func (c *Client) GetPoolSharesTotalSupply(ctx context.Context, poolAddress string) float64 {
	reader, err := c.reader(ctx)
	if err != nil {
		logger.ReportError("Unable to get pool shares total supply", map[string]interface{}{"error": err})
		return 0
	}
	supply, err := reader.TotalSupply(ctx, poolAddress)
	if err != nil {
		logger.ReportError("Unable to get pool shares total supply", map[string]interface{}{"error": err, "pool": poolAddress})
		return 0
	}
	return supply
}

// GetMaxAddLiquidity returns the largest single-sided deposit the pool
// accepts for the token.
func (c *Client) GetMaxAddLiquidity(ctx context.Context, poolAddress, tokenAddress string) float64 {
	reader, err := c.reader(ctx)
	if err != nil {
		logger.ReportError("Unable to get max liquidity - no provider", nil)
		return 0
	}
	max, err := reader.MaxAddLiquidity(ctx, poolAddress, tokenAddress)
	if err != nil {
		logger.ReportError("Unable to get max liquidity", map[string]interface{}{"error": err, "pool": poolAddress})
		return 0
	}
	return max
}

// GetExpectedPoolShare quotes the pool shares minted for a single-sided
// deposit of tokenAmount.
func (c *Client) GetExpectedPoolShare(ctx context.Context, poolAddress, tokenAddress string, tokenAmount float64) float64 {
	reader, err := c.reader(ctx)
	if err != nil {
		logger.ReportError("Unable to get expected pool share - no provider", nil)
		return 0
	}
	share, err := reader.ExpectedPoolShare(ctx, poolAddress, tokenAddress, tokenAmount)
	if err != nil {
		logger.ReportError("Unable to get expected pool share", map[string]interface{}{"error": err, "pool": poolAddress})
		return 0
	}
	return share
}

// GetSwapFee returns the pool's swap fee fraction.
func (c *Client) GetSwapFee(ctx context.Context, poolAddress string) float64 {
	reader, err := c.reader(ctx)
	if err != nil {
		logger.ReportError("Unable to get swap fee - no provider", nil)
		return 0
	}
	fee, err := reader.SwapFee(ctx, poolAddress)
	if err != nil {
		logger.ReportError("Unable to get swap fee", map[string]interface{}{"error": err, "pool": poolAddress})
		return 0
	}
	return fee
}

// GetRemoveLiquidityExpectedAssetsValue quotes the tokens received for
// burning poolShares. With includeDatatokens the shares are split between the
// OCEAN and datatoken sides of the pool. Returns nil on failure.
func (c *Client) GetRemoveLiquidityExpectedAssetsValue(ctx context.Context, poolAddress string, poolShares float64, includeDatatokens bool) *TokensReceived {
	reader, err := c.reader(ctx)
	if err != nil {
		logger.ReportError("Unable to get expected removal value - no provider", nil)
		return nil
	}

	if !includeDatatokens {
		oceanOut, err := reader.SingleOutGivenPoolIn(ctx, poolAddress, c.cfg.OceanAddress, poolShares)
		if err != nil {
			logger.ReportError("Unable to get expected removal value", map[string]interface{}{"error": err, "pool": poolAddress})
			return nil
		}
		return &TokensReceived{OceanAmount: oceanOut}
	}

	datatoken, err := c.poolDatatoken(ctx, reader, poolAddress)
	if err != nil {
		logger.ReportError("Unable to get expected removal value", map[string]interface{}{"error": err, "pool": poolAddress})
		return nil
	}
	half := poolShares / 2
	oceanOut, err := reader.SingleOutGivenPoolIn(ctx, poolAddress, c.cfg.OceanAddress, half)
	if err != nil {
		logger.ReportError("Unable to get expected removal value", map[string]interface{}{"error": err, "pool": poolAddress})
		return nil
	}
	datatokenOut, err := reader.SingleOutGivenPoolIn(ctx, poolAddress, datatoken, half)
	if err != nil {
		logger.ReportError("Unable to get expected removal value", map[string]interface{}{"error": err, "pool": poolAddress})
		return nil
	}
	return &TokensReceived{OceanAmount: oceanOut, DatatokenAmount: datatokenOut}
}

// poolDatatoken resolves the non-OCEAN token bound to the pool.
func (c *Client) poolDatatoken(ctx context.Context, reader *PoolReader, poolAddress string) (string, error) {
	tokens, err := reader.CurrentTokens(ctx, poolAddress)
	if err != nil {
		return "", err
	}
	ocean := common.HexToAddress(c.cfg.OceanAddress)
	for _, token := range tokens {
		if token != ocean {
			return token.Hex(), nil
		}
	}
	return "", errors.Errorf("pool %s has no datatoken side", poolAddress)
}

// AddLiquidity submits an approve followed by a single-sided OCEAN join and
// waits for the join to be mined. Returns nil on any failure.
func (c *Client) AddLiquidity(ctx context.Context, poolAddress string, amount float64) *TransactionReceipt {
	account, err := c.account()
	if err != nil {
		logger.ReportError("Unable to add liquidity", map[string]interface{}{"error": err})
		return nil
	}

	approveData := CreateAddLiquidityAllowanceTransactionData(poolAddress, amount, poolDecimals)
	if _, err := c.session.SendTransaction(ctx, c.cfg.OceanAddress, approveData); err != nil {
		logger.ReportError("Unable to add liquidity", map[string]interface{}{"error": err, "stage": "approve"})
		return nil
	}

	joinData := CreateAddLiquidityTransactionData(c.cfg.OceanAddress, amount, poolDecimals)
	hash, err := c.session.SendTransaction(ctx, poolAddress, joinData)
	if err != nil {
		logger.ReportError("Unable to add liquidity", map[string]interface{}{"error": err, "stage": "join"})
		return nil
	}

	receipt, err := c.waitMined(ctx, hash)
	if err != nil {
		logger.ReportError("Unable to add liquidity", map[string]interface{}{"error": err, "stage": "wait", "tx": hash})
		return nil
	}
	receipt.From = account
	return receipt
}

// waitMined polls for the transaction receipt until mined or ctx expires.
func (c *Client) waitMined(ctx context.Context, hash string) (*TransactionReceipt, error) {
	c.mu.Lock()
	eth := c.eth
	c.mu.Unlock()
	if eth == nil {
		return nil, errNoProvider
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		receipt, err := eth.TransactionReceipt(ctx, common.HexToHash(hash))
		if err == nil && receipt != nil {
			return &TransactionReceipt{
				Status:           receipt.Status == 1,
				TransactionHash:  receipt.TxHash.Hex(),
				TransactionIndex: receipt.TransactionIndex,
				BlockHash:        receipt.BlockHash.Hex(),
				BlockNumber:      receipt.BlockNumber.Uint64(),
				GasUsed:          receipt.GasUsed,
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetAccountPoolShares scans the given assets for pools the account holds
// shares in. Returns nil when the session or node is unavailable.
func (c *Client) GetAccountPoolShares(ctx context.Context, assets []*Asset) SharesByDataAssetID {
	account, err := c.account()
	if err != nil {
		logger.ReportError("Unable to get account pool shares", map[string]interface{}{"error": err})
		return nil
	}
	reader, err := c.reader(ctx)
	if err != nil {
		logger.ReportError("Unable to get account pool shares", map[string]interface{}{"error": err})
		return nil
	}

	result := SharesByDataAssetID{}
	for _, asset := range assets {
		if asset == nil || asset.Price.Address == "" {
			continue
		}
		shares, err := reader.SharesBalance(ctx, account, asset.Price.Address)
		if err != nil || shares == 0 {
			continue
		}
		supply, err := reader.TotalSupply(ctx, asset.Price.Address)
		if err != nil {
			continue
		}
		result[asset.ID] = NewPoolShareRecord(asset.Price.Address, asset.ID, shares, supply)
	}
	return result
}

// OceanToken is the liquidity token descriptor used by the add/remove flows
// when the supported-assets registry carries no OCEAN entry.
func (c *Client) OceanToken() Token {
	return Token{
		Symbol:   OCEAN,
		Name:     "Ocean Token",
		Address:  c.cfg.OceanAddress,
		Decimals: poolDecimals,
	}
}
