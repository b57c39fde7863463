package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

func testConfig(baseURL string) Config {
	return Config{BaseURL: baseURL, RPS: 100, Burst: 100, Timeout: 2 * time.Second}
}

func TestCoinGecko_FieldFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currency"))
		assert.Equal(t, "7d,30d", q.Get("price_change_percentage"))

		w.Header().Set("Content-Type", "application/json")
		// First row uses the _in_currency names, second the bare
		// names, third has neither.
		w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":65000,
			 "price_change_percentage_30d_in_currency":12.5,
			 "price_change_percentage_7d_in_currency":3.1,
			 "market_cap_rank":1,"total_volume":3.2e10,"market_cap":1.2e12},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":3200,
			 "price_change_percentage_30d":-8.4,
			 "price_change_percentage_7d":-1.2,
			 "market_cap_rank":2,"total_volume":1.4e10,"market_cap":3.9e11},
			{"id":"stalecoin","symbol":"stl","name":"Stalecoin","current_price":1.0,
			 "market_cap_rank":900,"total_volume":1e6,"market_cap":1e8}
		]`))
	}))
	defer srv.Close()

	src := NewCoinGecko(testConfig(srv.URL))
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "BTC", records[0].Symbol)
	assert.Equal(t, 12.5, records[0].MonthlyChange)
	assert.Equal(t, 3.1, records[0].WeeklyChange)
	assert.Equal(t, "CoinGecko", records[0].Source)

	assert.Equal(t, -8.4, records[1].MonthlyChange)
	assert.Equal(t, -1.2, records[1].WeeklyChange)

	// Missing change fields coalesce to 0, never NaN or null.
	assert.Equal(t, 0.0, records[2].MonthlyChange)
	assert.Equal(t, 0.0, records[2].WeeklyChange)
}

func TestCoinGecko_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewCoinGecko(testConfig(srv.URL))
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
}

func TestCoinGecko_MalformedJSONIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"`))
	}))
	defer srv.Close()

	src := NewCoinGecko(testConfig(srv.URL))
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
}

func TestCoinMarketCap_MappingAndAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cryptocurrency/listings/latest", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("X-CMC_PRO_API_KEY"))
		assert.Equal(t, "percent_change_30d", r.URL.Query().Get("sort"))

		w.Write([]byte(`{"data":[
			{"name":"Shiba Inu","symbol":"shib","cmc_rank":15,
			 "quote":{"USD":{"price":0.000024,"percent_change_30d":41.7,
			                 "percent_change_7d":9.9,"volume_24h":5e8,"market_cap":1.4e10}}},
			{"name":"Deadcoin","symbol":"DEAD","cmc_rank":990,
			 "quote":{"USD":{"price":0.5,"volume_24h":1e5,"market_cap":1e7}}}
		]}`))
	}))
	defer srv.Close()

	src := NewCoinMarketCap(testConfig(srv.URL), "secret-key")
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "shiba-inu", records[0].ID)
	assert.Equal(t, "SHIB", records[0].Symbol)
	assert.Equal(t, 41.7, records[0].MonthlyChange)
	assert.Equal(t, 15, records[0].MarketCapRank)
	assert.Equal(t, "CoinMarketCap", records[0].Source)

	assert.Equal(t, 0.0, records[1].MonthlyChange)
}

func TestDexScreener_FilterAndEstimation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dex/tokens/trending" {
			w.Write([]byte(`{"pairs":[]}`))
			return
		}
		w.Write([]byte(`{"pairs":[
			{"chainId":"solana","pairAddress":"abc123","url":"https://dexscreener.com/solana/abc123",
			 "baseToken":{"name":"Mooner","symbol":"moon"},"priceUsd":"0.0000042",
			 "priceChange":{"h24":45.0},"volume":{"h24":250000},"liquidity":{"usd":80000}},
			{"chainId":"eth","pairAddress":"def456","url":"",
			 "baseToken":{"name":"Quiet","symbol":"QT"},"priceUsd":"1.20",
			 "priceChange":{"h24":5.0},"volume":{"h24":9000},"liquidity":{"usd":50000}},
			{"chainId":"bsc","pairAddress":"ghi789","url":"",
			 "baseToken":{"name":"Thin","symbol":"THN"},"priceUsd":"0.30",
			 "priceChange":{"h24":-60.0},"volume":{"h24":120000},"liquidity":{"usd":5000}},
			{"chainId":"eth","pairAddress":"jkl012","url":"",
			 "baseToken":{"name":"NoChange","symbol":"NC"},"priceUsd":"2.00",
			 "volume":{"h24":100000},"liquidity":{"usd":90000}}
		]}`))
	}))
	defer srv.Close()

	src := NewDexScreener(testConfig(srv.URL))
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)

	// Only the first pair survives: |h24|>20 and liquidity>10k.
	require.Len(t, records, 1)
	got := records[0]
	assert.Equal(t, "solana-abc123", got.ID)
	assert.Equal(t, "MOON", got.Symbol)
	assert.Equal(t, 45.0*monthlyEstimateFactor, got.MonthlyChange)
	assert.Equal(t, 45.0*weeklyEstimateFactor, got.WeeklyChange)
	assert.True(t, got.Estimated, "scaled figures must be flagged")
	assert.Equal(t, unrankedSentinel, got.MarketCapRank)
	assert.InDelta(t, 0.0000042, got.CurrentPrice, 1e-12)
}

func TestDexScreener_FallsBackToSearchEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dex/tokens/trending" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"pairs":[
			{"chainId":"eth","pairAddress":"xyz","url":"",
			 "baseToken":{"name":"Backfill","symbol":"BF"},"priceUsd":"0.9",
			 "priceChange":{"h24":-33.0},"volume":{"h24":400000},"liquidity":{"usd":60000}}
		]}`))
	}))
	defer srv.Close()

	src := NewDexScreener(testConfig(srv.URL))
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "BF", records[0].Symbol)
}

type fakeSource struct {
	name    string
	records []domain.MarketRecord
	err     error
	delay   time.Duration
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]domain.MarketRecord, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.records, f.err
}

func TestFetchAll_IsolatesFailures(t *testing.T) {
	ok := &fakeSource{name: "ok", records: []domain.MarketRecord{{Symbol: "BTC", MonthlyChange: 10}}}
	broken := &fakeSource{name: "broken", err: errors.New("boom")}
	empty := &fakeSource{name: "empty"}

	results := FetchAll(context.Background(), time.Second, ok, broken, empty)
	require.Len(t, results, 3)
	assert.Len(t, results[0], 1)
	assert.Empty(t, results[1])
	assert.Empty(t, results[2])
}

func TestFetchAll_SlowSourceTimesOutAlone(t *testing.T) {
	fast := &fakeSource{name: "fast", records: []domain.MarketRecord{{Symbol: "ETH", MonthlyChange: -5}}}
	slow := &fakeSource{name: "slow", delay: 500 * time.Millisecond,
		records: []domain.MarketRecord{{Symbol: "SOL", MonthlyChange: 8}}}

	start := time.Now()
	results := FetchAll(context.Background(), 50*time.Millisecond, fast, slow)
	elapsed := time.Since(start)

	assert.Len(t, results[0], 1, "fast source unaffected by slow sibling")
	assert.Empty(t, results[1], "slow source treated as failed")
	assert.Less(t, elapsed, 400*time.Millisecond)
}
