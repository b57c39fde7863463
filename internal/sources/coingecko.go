package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

const coinGeckoName = "CoinGecko"

// CoinGecko is the established-coin baseline: top coins by market cap
// with measured 7d/30d performance. No API key required on the free
// tier.
type CoinGecko struct {
	guard    *guard
	baseURL  string
	pageSize int
}

// coinGeckoMarket mirrors /coins/markets rows. The API has shipped the
// 30d/7d change under two names across versions; both are mapped and
// coalesced in toRecord.
type coinGeckoMarket struct {
	ID                           string   `json:"id"`
	Symbol                       string   `json:"symbol"`
	Name                         string   `json:"name"`
	CurrentPrice                 float64  `json:"current_price"`
	Change30dInCurrency          *float64 `json:"price_change_percentage_30d_in_currency"`
	Change30d                    *float64 `json:"price_change_percentage_30d"`
	Change7dInCurrency           *float64 `json:"price_change_percentage_7d_in_currency"`
	Change7d                     *float64 `json:"price_change_percentage_7d"`
	MarketCapRank                int      `json:"market_cap_rank"`
	TotalVolume                  float64  `json:"total_volume"`
	MarketCap                    float64  `json:"market_cap"`
}

func NewCoinGecko(cfg Config) *CoinGecko {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 250
	}
	return &CoinGecko{
		guard:    newGuard(coinGeckoName, cfg.RPS, cfg.Burst, cfg.Timeout),
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
	}
}

func (c *CoinGecko) Name() string { return coinGeckoName }

func (c *CoinGecko) Fetch(ctx context.Context) ([]domain.MarketRecord, error) {
	params := url.Values{
		"vs_currency":             {"usd"},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(c.pageSize)},
		"page":                    {"1"},
		"sparkline":               {"false"},
		"price_change_percentage": {"7d,30d"},
		"locale":                  {"en"},
	}

	var markets []coinGeckoMarket
	if err := c.guard.getJSON(ctx, c.baseURL+"/coins/markets?"+params.Encode(), nil, &markets); err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	records := make([]domain.MarketRecord, 0, len(markets))
	for _, m := range markets {
		records = append(records, m.toRecord())
	}
	return records, nil
}

func (m coinGeckoMarket) toRecord() domain.MarketRecord {
	return domain.MarketRecord{
		ID:            m.ID,
		Name:          m.Name,
		Symbol:        strings.ToUpper(m.Symbol),
		CurrentPrice:  m.CurrentPrice,
		MonthlyChange: coalesce(m.Change30dInCurrency, m.Change30d),
		WeeklyChange:  coalesce(m.Change7dInCurrency, m.Change7d),
		MarketCapRank: m.MarketCapRank,
		Volume24h:     m.TotalVolume,
		MarketCap:     m.MarketCap,
		Source:        coinGeckoName,
	}
}

// coalesce picks the first present, finite field. Missing fields
// default to 0 so MonthlyChange is always a real number downstream.
func coalesce(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil && isFinite(*v) {
			return *v
		}
	}
	return 0
}
