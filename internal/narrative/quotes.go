// Package narrative synthesizes display copy for market records:
// news-style quotes, a sentiment score, mention counts and exchange
// listings. Everything here is generated from price performance alone.
// None of it is real news or measured social data, and it must never
// be presented as such.
package narrative

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Quote tier boundaries on the 30d change, in percent.
const (
	tierExtreme = 500
	tierHigh    = 100
	tierSevere  = -50
)

// Reliable, stable URLs that broadcast services accept in link
// validation. One is chosen per record by symbol hash.
var linkTemplates = []string{
	"https://coinmarketcap.com/currencies/%s/",
	"https://coingecko.com/en/coins/%s",
	"https://coinbase.com/price/%s",
	"https://crypto.com/price/%s",
	"https://binance.com/en/trade/%s_USDT",
}

type quoteTemplate struct {
	text   string
	source string
}

var extremeGainQuotes = []quoteTemplate{
	{"%[1]s (%[2]s) delivers astronomical %[3]s gains, becoming the month's biggest moonshot discovery.", "DeFi Moonshots"},
	{"Explosive %[3]s surge in %[1]s catches institutional attention as retail investors celebrate massive returns.", "Crypto Rockets"},
	{"%[1]s's phenomenal %[3]s rally demonstrates the potential of discovering early-stage cryptocurrency gems.", "Gem Hunters"},
}

var highGainQuotes = []quoteTemplate{
	{"%[1]s skyrockets %[3]s as investors discover this hidden gem in the %[4]s ecosystem.", "Hidden Gems Weekly"},
	{"Massive %[3]s gains in %[1]s highlight the explosive potential of micro-cap cryptocurrencies.", "Micro Cap Alerts"},
}

var moderateGainQuotes = []quoteTemplate{
	{"%[1]s shows strong momentum with %[3]s gains, attracting attention from cryptocurrency investors.", "CryptoNews Daily"},
	{"Market analysts highlight %[1]s's solid %[3]s performance amid broader cryptocurrency adoption trends.", "Blockchain Today"},
}

var severeLossQuotes = []quoteTemplate{
	{"%[1]s experiences severe %[3]s decline as market volatility impacts high-risk cryptocurrency investments.", "Risk Analysis Weekly"},
	{"Devastating %[5]s drop in %[1]s serves as reminder of cryptocurrency market volatility and investment risks.", "Market Crash Report"},
}

var mildLossQuotes = []quoteTemplate{
	{"%[1]s faces headwinds with %[3]s decline as market correction affects cryptocurrency valuations.", "Market Watch Crypto"},
	{"Despite %[5]s pullback, %[1]s maintains strong fundamentals according to blockchain analysts.", "Crypto Fundamentals"},
}

// symbolHash gives a stable per-asset value so that quote links,
// mention spreads and exchange list lengths vary across assets without
// any run-to-run randomness.
func symbolHash(symbol string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToUpper(symbol)))
	return h.Sum32()
}

func slugName(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func slugSymbol(symbol string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(symbol) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func recordLink(name, symbol string) string {
	tmpl := linkTemplates[symbolHash(symbol)%uint32(len(linkTemplates))]
	if strings.Contains(tmpl, "coinmarketcap") || strings.Contains(tmpl, "coingecko") {
		return fmt.Sprintf(tmpl, slugName(name))
	}
	return fmt.Sprintf(tmpl, slugSymbol(symbol))
}
