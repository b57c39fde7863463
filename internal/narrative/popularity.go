package narrative

// Synthetic popularity and listing heuristics. The original system
// randomized these on every run; here the spread comes from a stable
// symbol hash so the numbers are reproducible.

const dexScreenerSource = "DexScreener"

// Mentions fabricates a popularity count weighted by market-cap rank
// and 24h volume.
func Mentions(symbol, source string, marketCapRank int, volume24h float64) int {
	h := symbolHash(symbol)

	if source == dexScreenerSource {
		// DEX tokens have low baseline visibility.
		return 20 + int(h%100)
	}

	rank := marketCapRank
	if rank <= 0 {
		rank = 1000
	}
	base := 1000 / rank
	if base < 50 {
		base = 50
	}

	mentions := float64(base)
	if volume24h > 1_000_000_000 {
		mentions *= 1.5
	}
	// Stable spread in [1.0, 1.5) replacing the original per-run
	// random multiplier.
	mentions *= 1 + float64(h%50)/100
	return int(mentions)
}

var (
	majorExchanges    = []string{"Binance", "Coinbase", "Kraken", "KuCoin", "Gate.io"}
	dexExchanges      = []string{"Uniswap", "PancakeSwap", "SushiSwap", "1inch"}
	smallCapExchanges = []string{"MEXC", "BitMart", "LBank", "Hotbit", "ProBit"}
)

// Exchanges fabricates a where-to-buy list from the market-cap rank
// tier. List lengths vary per symbol, deterministically.
func Exchanges(symbol string, marketCapRank int) []string {
	h := symbolHash(symbol)

	if marketCapRank > 0 && marketCapRank <= 100 {
		return clone(majorExchanges[:3+int(h%2)])
	}
	if marketCapRank > 0 && marketCapRank <= 1000 {
		out := clone(majorExchanges[:2])
		return append(out, smallCapExchanges[:2+int(h%2)]...)
	}
	out := clone(dexExchanges[:2+int(h%2)])
	return append(out, smallCapExchanges[:1+int(h%2)]...)
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
