package narrative

import (
	"fmt"
	"math"
	"time"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

// Generator produces the synthetic narrative fields for a record. It
// is a pure function of its inputs plus the supplied "as of" date, so
// two runs over the same data produce identical copy.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorAt pins the quote date, used by tests and by batch runs
// that want the newsletter date on every quote.
func NewGeneratorAt(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Enrich fills the narrative fields of every record in place.
func (g *Generator) Enrich(records []domain.MarketRecord) []domain.MarketRecord {
	for i := range records {
		r := &records[i]
		r.Quotes = g.Quotes(r.Name, r.Symbol, r.MonthlyChange, r.Source)
		r.Sentiment = Sentiment(joinQuoteText(r.Quotes), r.MonthlyChange)
		r.Mentions = Mentions(r.Symbol, r.Source, r.MarketCapRank, r.Volume24h)
		r.Exchanges = Exchanges(r.Symbol, r.MarketCapRank)
	}
	return records
}

// Quotes returns 2-3 generated news-style quotes tiered by the
// magnitude of the 30d change.
func (g *Generator) Quotes(name, symbol string, monthlyChange float64, source string) []domain.Quote {
	var templates []quoteTemplate
	changeStr := fmt.Sprintf("%.1f%%", monthlyChange)

	switch {
	case monthlyChange > tierExtreme:
		templates = extremeGainQuotes
		changeStr = fmt.Sprintf("%.0f%%", monthlyChange)
	case monthlyChange > tierHigh:
		templates = highGainQuotes
	case monthlyChange > 0:
		templates = moderateGainQuotes
	case monthlyChange < tierSevere:
		templates = severeLossQuotes
	default:
		templates = mildLossQuotes
	}

	absStr := fmt.Sprintf("%.1f%%", math.Abs(monthlyChange))
	date := g.now().UTC().Format("2006-01-02")
	link := recordLink(name, symbol)

	quotes := make([]domain.Quote, 0, len(templates))
	for _, tmpl := range templates {
		quotes = append(quotes, domain.Quote{
			Text:   fmt.Sprintf(tmpl.text, name, symbol, changeStr, source, absStr),
			Source: tmpl.source,
			Date:   date,
			Link:   link,
		})
	}
	return quotes
}

func joinQuoteText(quotes []domain.Quote) string {
	text := ""
	for i, q := range quotes {
		if i > 0 {
			text += " "
		}
		text += q.Text
	}
	return text
}
