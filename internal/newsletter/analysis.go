package newsletter

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/cryptomonth/cryptomonth/internal/aggregate"
	"github.com/cryptomonth/cryptomonth/internal/domain"
)

// theme buckets recognized in generated quote text. The analysis
// paragraph name-drops them when several top gainers share one.
var gainerThemes = []struct {
	key      string
	triggers []string
	copyText string
}{
	{"defi", []string{"defi", "decentralized"},
		"DeFi protocols including %s are benefiting from increased institutional adoption and yield farming opportunities"},
	{"ai", []string{" ai ", "artificial intelligence"},
		"AI-focused tokens such as %s are gaining traction as the sector attracts significant investment and development activity"},
	{"scaling", []string{"layer", "scaling"},
		"Layer 2 and scaling solutions like %s continue to see adoption as gas fees drive users to more efficient alternatives"},
}

var loserThemes = []struct {
	triggers []string
	label    string
}{
	{[]string{"regulatory", "legal"}, "regulatory concerns"},
	{[]string{"bankruptcy", "liquidation"}, "financial distress"},
	{[]string{"hack", "exploit"}, "security issues"},
}

func quoteText(r domain.MarketRecord) string {
	parts := make([]string, 0, len(r.Quotes))
	for _, q := range r.Quotes {
		parts = append(parts, strings.ToLower(q.Text))
	}
	return " " + strings.Join(parts, " ") + " "
}

func sourceLink(r domain.MarketRecord) string {
	if len(r.Quotes) == 0 {
		return ""
	}
	q := r.Quotes[0]
	return fmt.Sprintf(` (<a href="%s" style="color: #1d4ed8;">%s</a>)`,
		template.HTMLEscapeString(q.Link), template.HTMLEscapeString(q.Source))
}

func name(r domain.MarketRecord) string {
	return template.HTMLEscapeString(r.Name)
}

// marketAnalysis writes the lead paragraph: momentum summary for the
// top five gainers with shared-theme and risk commentary, then the top
// three losers with cause and rebound commentary. The returned HTML
// contains only our own markup plus escaped upstream names.
func marketAnalysis(records []domain.MarketRecord) template.HTML {
	gainers := aggregate.Gainers(records, 5)
	losers := aggregate.Losers(records, 3)
	if len(gainers) == 0 && len(losers) == 0 {
		return ""
	}

	var b strings.Builder

	if len(gainers) > 0 {
		lead := gainers[0]
		fmt.Fprintf(&b, "The top gainers this month show strong momentum with %s leading at +%.1f%%%s. ",
			name(lead), lead.MonthlyChange, sourceLink(lead))

		for _, theme := range gainerThemes {
			var matched []string
			for _, g := range gainers {
				text := quoteText(g)
				for _, trigger := range theme.triggers {
					if strings.Contains(text, trigger) {
						matched = append(matched, name(g))
						break
					}
				}
			}
			if len(matched) > 1 {
				fmt.Fprintf(&b, theme.copyText+". ", strings.Join(matched[:2], " and "))
			}
		}

		switch {
		case lead.MonthlyChange > 100:
			fmt.Fprintf(&b, "However, investors should exercise caution with extreme gainers like %s, as triple-digit gains often indicate high volatility and potential for significant corrections. ", name(lead))
		case lead.MonthlyChange > 50:
			b.WriteString("While these gains are impressive, rapid price appreciation can lead to increased volatility and potential pullbacks. ")
		}

		if len(gainers) > 1 {
			fmt.Fprintf(&b, "Investment insight: these gains suggest continued interest in utility-driven cryptocurrencies with active development%s.", sourceLink(gainers[1]))
		}
	}

	if len(losers) > 0 {
		parts := make([]string, 0, len(losers))
		for _, l := range losers {
			parts = append(parts, fmt.Sprintf("%s (%.1f%%)", name(l), l.MonthlyChange))
		}
		fmt.Fprintf(&b, " The biggest losers include %s", joinNatural(parts))

		var causes []string
		seen := map[string]bool{}
		for _, l := range losers {
			text := quoteText(l)
			for _, theme := range loserThemes {
				for _, trigger := range theme.triggers {
					if strings.Contains(text, trigger) && !seen[theme.label] {
						causes = append(causes, theme.label)
						seen[theme.label] = true
						break
					}
				}
			}
		}
		if len(causes) > 0 {
			if len(causes) > 2 {
				causes = causes[:2]
			}
			fmt.Fprintf(&b, ", primarily due to %s%s", strings.Join(causes, " and "), sourceLink(losers[0]))
		}
		b.WriteString(". ")

		worst := losers[0]
		switch {
		case math.Abs(worst.MonthlyChange) > 30:
			fmt.Fprintf(&b, "Some analysts suggest that oversold conditions in tokens like %s could present contrarian opportunities for experienced investors willing to accept high risk. ", name(worst))
		case math.Abs(worst.MonthlyChange) > 15:
			b.WriteString("Some of these declining tokens may find support at current levels, though recovery timelines remain uncertain. ")
		}
		b.WriteString("Investment insight: these declines highlight the importance of thorough due diligence and risk management in cryptocurrency investments.")
	}

	return template.HTML(b.String())
}

func joinNatural(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}
