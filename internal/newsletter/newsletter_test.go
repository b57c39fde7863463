package newsletter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

func sampleRecords() []domain.MarketRecord {
	return []domain.MarketRecord{
		{ID: "mooner", Name: "Mooner", Symbol: "MOON", CurrentPrice: 0.0000042,
			MonthlyChange: 240, WeeklyChange: 80, Source: "DexScreener", Estimated: true,
			Quotes: []domain.Quote{{Text: "Massive gains", Source: "Micro Cap Alerts", Link: "https://example.com/moon"}}},
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", CurrentPrice: 65250.4,
			MonthlyChange: 12.5, WeeklyChange: 3.1, Source: "CoinGecko",
			Quotes: []domain.Quote{{Text: "Strong momentum", Source: "CryptoNews Daily", Link: "https://example.com/btc"}}},
		{ID: "sadcoin", Name: "Sadcoin", Symbol: "SAD", CurrentPrice: 1.23,
			MonthlyChange: -47.2, WeeklyChange: -12.0, Source: "CoinMarketCap",
			Quotes: []domain.Quote{{Text: "regulatory trouble and decline", Source: "Market Watch Crypto", Link: "https://example.com/sad"}}},
	}
}

func TestRender_ContainsRankedRows(t *testing.T) {
	html, err := Render(Input{
		Records:     sampleRecords(),
		BaseURL:     "https://cryptomonth.info",
		DisplayDate: "August 30, 2026",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "August 30, 2026")
	assert.Contains(t, html, "MOON")
	// The template escaper rewrites "+" to "&#43;" in table cells.
	assert.Contains(t, html, "&#43;240.0% (est.)")
	assert.Contains(t, html, "BTC")
	assert.Contains(t, html, "&#43;12.5%")
	assert.Contains(t, html, "SAD")
	assert.Contains(t, html, "-47.2%")
	assert.Contains(t, html, `href="https://cryptomonth.info#bitcoin"`)
}

func TestRender_EstimatedCaveatOnlyWhenNeeded(t *testing.T) {
	withEst, err := Render(Input{Records: sampleRecords(), BaseURL: "https://x", DisplayDate: "d"})
	require.NoError(t, err)
	assert.Contains(t, withEst, "low-confidence estimates")

	measured := sampleRecords()[1:]
	withoutEst, err := Render(Input{Records: measured, BaseURL: "https://x", DisplayDate: "d"})
	require.NoError(t, err)
	assert.NotContains(t, withoutEst, "low-confidence estimates")
}

func TestRender_GainersLosersPartitioned(t *testing.T) {
	html, err := Render(Input{
		Records: sampleRecords(), BaseURL: "https://x", DisplayDate: "d",
		GainersLimit: 1, LosersLimit: 10,
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Top 1 Gainers")
	// The limit-1 gainer view keeps the biggest mover only.
	assert.Contains(t, html, "MOON")
	gainerSection := html[strings.Index(html, "Top 1 Gainers"):strings.Index(html, "Top 10 Losers")]
	assert.NotContains(t, gainerSection, "BTC")
	assert.NotContains(t, gainerSection, "SAD")
}

func TestRender_SponsorBlock(t *testing.T) {
	sponsor := &Sponsor{
		CompanyName: "Ledgerworks",
		Pitch:       "Cold storage for <everyone>",
		Website:     "https://ledgerworks.example",
		WeekStart:   "2026-08-31",
		WeekEnd:     "2026-09-06",
	}
	html, err := Render(Input{Records: sampleRecords(), BaseURL: "https://x", DisplayDate: "d", Sponsor: sponsor})
	require.NoError(t, err)

	assert.Contains(t, html, "Sponsored Content")
	assert.Contains(t, html, "Ledgerworks")
	assert.Contains(t, html, "Cold storage for &lt;everyone&gt;", "pitch is escaped")
	assert.NotContains(t, html, "advertiser portal")
}

func TestRender_HouseAdWithoutSponsor(t *testing.T) {
	html, err := Render(Input{Records: sampleRecords(), BaseURL: "https://x", DisplayDate: "d"})
	require.NoError(t, err)
	assert.Contains(t, html, "advertiser portal")
}

func TestRender_EscapesUpstreamNames(t *testing.T) {
	records := []domain.MarketRecord{{
		ID: "xss", Name: `<script>alert(1)</script>`, Symbol: "XSS",
		CurrentPrice: 1, MonthlyChange: 99, Source: "CoinGecko",
	}}
	html, err := Render(Input{Records: records, BaseURL: "https://x", DisplayDate: "d"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestMarketAnalysis_MentionsLeadersAndCauses(t *testing.T) {
	analysis := string(marketAnalysis(sampleRecords()))
	assert.Contains(t, analysis, "Mooner")
	assert.Contains(t, analysis, "+240.0%")
	assert.Contains(t, analysis, "Sadcoin")
	assert.Contains(t, analysis, "regulatory concerns")
	assert.Contains(t, analysis, "contrarian opportunities")
	// Extreme lead gainer triggers the volatility caution.
	assert.Contains(t, analysis, "exercise caution")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "CryptoMonth Weekly Newsletter - August 30, 2026",
		Subject("CryptoMonth Weekly Newsletter", "August 30, 2026"))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$0.000004", formatPrice(0.0000042))
	assert.Equal(t, "$65,250.40", formatPrice(65250.4))
	assert.Equal(t, "$1.23", formatPrice(1.23))
}
