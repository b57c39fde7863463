package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

const coinMarketCapName = "CoinMarketCap"

// CoinMarketCap is the broad ranked listing (up to 1000 assets sorted
// by 30d change). It requires an API key; callers skip constructing
// the adapter when no key is configured, which silently disables the
// source without failing the run.
type CoinMarketCap struct {
	guard    *guard
	baseURL  string
	apiKey   string
	pageSize int
}

type cmcListingResponse struct {
	Data []cmcListing `json:"data"`
}

type cmcListing struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Rank   int    `json:"cmc_rank"`
	Quote  struct {
		USD struct {
			Price            float64  `json:"price"`
			PercentChange30d *float64 `json:"percent_change_30d"`
			PercentChange7d  *float64 `json:"percent_change_7d"`
			Volume24h        float64  `json:"volume_24h"`
			MarketCap        float64  `json:"market_cap"`
		} `json:"USD"`
	} `json:"quote"`
}

func NewCoinMarketCap(cfg Config, apiKey string) *CoinMarketCap {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://pro-api.coinmarketcap.com"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &CoinMarketCap{
		guard:    newGuard(coinMarketCapName, cfg.RPS, cfg.Burst, cfg.Timeout),
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		pageSize: pageSize,
	}
}

func (c *CoinMarketCap) Name() string { return coinMarketCapName }

func (c *CoinMarketCap) Fetch(ctx context.Context) ([]domain.MarketRecord, error) {
	params := url.Values{
		"start":   {"1"},
		"limit":   {strconv.Itoa(c.pageSize)},
		"convert": {"USD"},
		"sort":    {"percent_change_30d"},
	}
	header := http.Header{"X-CMC_PRO_API_KEY": {c.apiKey}}

	var resp cmcListingResponse
	endpoint := c.baseURL + "/v1/cryptocurrency/listings/latest?" + params.Encode()
	if err := c.guard.getJSON(ctx, endpoint, header, &resp); err != nil {
		return nil, fmt.Errorf("fetch listings: %w", err)
	}

	records := make([]domain.MarketRecord, 0, len(resp.Data))
	for _, l := range resp.Data {
		records = append(records, domain.MarketRecord{
			ID:            strings.ReplaceAll(strings.ToLower(l.Name), " ", "-"),
			Name:          l.Name,
			Symbol:        strings.ToUpper(l.Symbol),
			CurrentPrice:  l.Quote.USD.Price,
			MonthlyChange: coalesce(l.Quote.USD.PercentChange30d),
			WeeklyChange:  coalesce(l.Quote.USD.PercentChange7d),
			MarketCapRank: l.Rank,
			Volume24h:     l.Quote.USD.Volume24h,
			MarketCap:     l.Quote.USD.MarketCap,
			Source:        coinMarketCapName,
		})
	}
	return records, nil
}
