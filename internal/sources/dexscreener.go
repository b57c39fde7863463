package sources

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

const dexScreenerName = "DexScreener"

// DexScreener surfaces trending DEX pairs. The feed only reports a
// 24h change, so 30d and 7d figures are estimated with fixed
// multipliers and flagged Estimated on the record. The multipliers
// are the midpoints of the ranges the product historically sampled at
// random (30d: 1x-3x, 7d: 0.7x-1.3x); fixing them keeps runs
// reproducible while preserving the ranking behavior.
const (
	monthlyEstimateFactor = 2.0
	weeklyEstimateFactor  = 1.0

	// Pairs below these bars are dust or wash trading.
	minAbs24hChange = 20.0
	minLiquidityUSD = 10_000.0

	maxTrendingPairs = 50

	// DEX pairs carry no market-cap rank; the sentinel keeps them at
	// the bottom of rank-weighted heuristics.
	unrankedSentinel = 9999
)

type DexScreener struct {
	guard   *guard
	baseURL string
}

type dexPairsResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID     string `json:"chainId"`
	PairAddress string `json:"pairAddress"`
	URL         string `json:"url"`
	BaseToken   struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD    string `json:"priceUsd"`
	PriceChange struct {
		H24 *float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

func NewDexScreener(cfg Config) *DexScreener {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.dexscreener.com/latest"
	}
	return &DexScreener{
		guard:   newGuard(dexScreenerName, cfg.RPS, cfg.Burst, cfg.Timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (d *DexScreener) Name() string { return dexScreenerName }

func (d *DexScreener) Fetch(ctx context.Context) ([]domain.MarketRecord, error) {
	// The trending endpoint is the primary feed; the search endpoint
	// backfills when trending is empty or unavailable.
	endpoints := []string{
		d.baseURL + "/dex/tokens/trending",
		d.baseURL + "/dex/search/?q=ETH",
	}

	var pairs []dexPair
	var lastErr error
	for _, endpoint := range endpoints {
		var resp dexPairsResponse
		if err := d.guard.getJSON(ctx, endpoint, nil, &resp); err != nil {
			lastErr = err
			log.Debug().Err(err).Str("endpoint", endpoint).Msg("dexscreener endpoint unavailable")
			continue
		}
		pairs = append(pairs, resp.Pairs...)
	}
	if len(pairs) == 0 && lastErr != nil {
		return nil, fmt.Errorf("fetch trending pairs: %w", lastErr)
	}

	records := make([]domain.MarketRecord, 0, maxTrendingPairs)
	for _, p := range pairs {
		if len(records) == maxTrendingPairs {
			break
		}
		if p.PriceChange.H24 == nil || math.Abs(*p.PriceChange.H24) <= minAbs24hChange {
			continue
		}
		if p.Liquidity == nil || p.Liquidity.USD <= minLiquidityUSD {
			continue
		}
		records = append(records, p.toRecord())
	}
	return records, nil
}

func (p dexPair) toRecord() domain.MarketRecord {
	price, err := strconv.ParseFloat(p.PriceUSD, 64)
	if err != nil || !isFinite(price) {
		price = 0
	}
	change24h := *p.PriceChange.H24

	return domain.MarketRecord{
		ID:            p.ChainID + "-" + p.PairAddress,
		Name:          p.BaseToken.Name,
		Symbol:        strings.ToUpper(p.BaseToken.Symbol),
		CurrentPrice:  price,
		MonthlyChange: change24h * monthlyEstimateFactor,
		WeeklyChange:  change24h * weeklyEstimateFactor,
		MarketCapRank: unrankedSentinel,
		Volume24h:     p.Volume.H24,
		Source:        dexScreenerName,
		Estimated:     true,
	}
}
