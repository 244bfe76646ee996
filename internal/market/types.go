// Package market implements the Ocean Market client: Aquarius metadata
// queries, Balancer pool reads over JSON-RPC, liquidity transaction builders
// and the pool-share math used by the liquidity screens.
package market

// OCEAN is the symbol of the Ocean token, the quote side of every data pool.
const OCEAN = "OCEAN"

// Asset is a dataset listing (DDO) as returned by Aquarius. Immutable once
// fetched.
type Asset struct {
	ID            string        `json:"id"`
	Price         Price         `json:"price"`
	DataTokenInfo DataTokenInfo `json:"dataTokenInfo"`
	Service       []Service     `json:"service"`
}

// Price describes the asset's pool pricing: spot value in OCEAN plus the two
// pool reserves and the pool contract address.
type Price struct {
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	Ocean     float64 `json:"ocean"`
	Datatoken float64 `json:"datatoken"`
	Address   string  `json:"address"`
}

// DataTokenInfo identifies the asset-specific token priced against OCEAN.
type DataTokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Service is one entry of a DDO's service list.
type Service struct {
	Type       string         `json:"type"`
	Attributes MetaAttributes `json:"attributes"`
}

// MetaAttributes carries the dataset metadata of a "metadata" service entry.
type MetaAttributes struct {
	Main                  MetaMain               `json:"main"`
	AdditionalInformation map[string]interface{} `json:"additionalInformation"`
}

type MetaMain struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	License     string `json:"license"`
	DateCreated string `json:"dateCreated"`
}

// Metadata returns the metadata attributes of the asset, or nil when the DDO
// carries no metadata service.
func (a *Asset) Metadata() *MetaAttributes {
	if a == nil {
		return nil
	}
	for i := range a.Service {
		if a.Service[i].Type == "metadata" {
			return &a.Service[i].Attributes
		}
	}
	return nil
}

// AssetsResponse is a page of the Aquarius ddo/query listing.
type AssetsResponse struct {
	Results      []*Asset `json:"results"`
	Page         int      `json:"page"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// PoolShareRecord is the cached pool position for one asset.
type PoolShareRecord struct {
	PoolAddress      string  `json:"poolAddress"`
	Shares           float64 `json:"shares"`
	DID              string  `json:"did"`
	TotalPoolSupply  float64 `json:"totalPoolSupply"`
	SharesPercentage float64 `json:"sharesPercentage"`
}

// NewPoolShareRecord builds a record with its percentage invariant
// established: sharesPercentage = shares/totalSupply*100, or 0 when either
// side is zero.
func NewPoolShareRecord(poolAddress, did string, shares, totalPoolSupply float64) PoolShareRecord {
	return PoolShareRecord{
		PoolAddress:      poolAddress,
		Shares:           shares,
		DID:              did,
		TotalPoolSupply:  totalPoolSupply,
		SharesPercentage: SharesPercentage(shares, totalPoolSupply),
	}
}

// SharesByDataAssetID maps asset DID to the account's pool share record.
type SharesByDataAssetID map[string]PoolShareRecord

// TransactionReceipt mirrors the receipt handed back after a submitted
// liquidity transaction is mined.
type TransactionReceipt struct {
	Status           bool   `json:"status"`
	TransactionHash  string `json:"transactionHash"`
	TransactionIndex uint   `json:"transactionIndex"`
	BlockHash        string `json:"blockHash"`
	BlockNumber      uint64 `json:"blockNumber"`
	From             string `json:"from"`
	To               string `json:"to"`
	GasUsed          uint64 `json:"gasUsed"`
}

// TokensReceived is the quoted output of a remove-liquidity operation.
type TokensReceived struct {
	DatatokenAmount float64 `json:"dtAmount"`
	OceanAmount     float64 `json:"oceanAmount"`
}

// Token describes a liquidity-side ERC20 (in practice, OCEAN).
type Token struct {
	Symbol   string
	Name     string
	Address  string
	Decimals int
}

// TransactionDescriptor is a self-contained instruction for the downstream
// transaction confirmation flow. Created fresh per user action; never shared.
type TransactionDescriptor struct {
	To              string  `json:"to"`
	Data            string  `json:"data"`
	Amount          float64 `json:"amount"`
	Symbol          string  `json:"symbol"`
	ContractAddress string  `json:"contractAddress,omitempty"`
	Decimals        int     `json:"decimals,omitempty"`
}
