package market

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// AssetsPageSize is the fixed Aquarius page size.
const AssetsPageSize = 20

// poolPricedQuery selects pool-priced assets that are not in purgatory.
const poolPricedQuery = "(price.type:pool) -isInPurgatory:true"

// AquariusClient queries the Ocean metadata cache (Aquarius).
type AquariusClient struct {
	http *resty.Client
}

// NewAquariusClient creates a client for the given Aquarius base URI.
func NewAquariusClient(baseURL string) *AquariusClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() == 429
		}).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp.StatusCode() == 429 {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if wait, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return wait, nil
					}
				}
				return 10 * time.Second, nil
			}
			return 0, nil
		})

	return &AquariusClient{http: client}
}

type ddoQueryRequest struct {
	Offset int            `json:"offset"`
	Page   int            `json:"page"`
	Query  ddoQuery       `json:"query"`
	Sort   map[string]int `json:"sort"`
}

type ddoQuery struct {
	NativeSearch int            `json:"nativeSearch"`
	QueryString  ddoQueryString `json:"query_string"`
}

type ddoQueryString struct {
	Query string `json:"query"`
}

// QueryAssetsWithLiquidity fetches one page of pool-priced assets sorted by
// OCEAN reserve descending.
func (c *AquariusClient) QueryAssetsWithLiquidity(ctx context.Context, page int) (*AssetsResponse, error) {
	body := ddoQueryRequest{
		Offset: AssetsPageSize,
		Page:   page,
		Query: ddoQuery{
			NativeSearch: 1,
			QueryString:  ddoQueryString{Query: poolPricedQuery},
		},
		Sort: map[string]int{"price.ocean": -1},
	}

	var result AssetsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result).
		Post("/api/v1/aquarius/assets/ddo/query")
	if err != nil {
		return nil, errors.Wrap(err, "aquarius ddo query")
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("aquarius ddo query: unexpected status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Results == nil {
		return nil, errors.New("aquarius ddo query: empty response body")
	}
	return &result, nil
}

// ResolveAsset fetches a single DDO by its identifier.
func (c *AquariusClient) ResolveAsset(ctx context.Context, did string) (*Asset, error) {
	var asset Asset
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&asset).
		Get("/api/v1/aquarius/assets/ddo/" + did)
	if err != nil {
		return nil, errors.Wrapf(err, "aquarius resolve %s", did)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("aquarius resolve %s: unexpected status %d", did, resp.StatusCode())
	}
	if asset.ID == "" {
		return nil, fmt.Errorf("aquarius resolve %s: empty DDO", did)
	}
	return &asset, nil
}
