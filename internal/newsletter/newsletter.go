// Package newsletter renders the weekly HTML email from an aggregated
// record list. The renderer is a pure function of its input; sending
// is the convertkit package's job.
package newsletter

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/cryptomonth/cryptomonth/internal/aggregate"
	"github.com/cryptomonth/cryptomonth/internal/domain"
)

// Sponsor is the advertiser block shown in a sponsored issue. Nil
// sponsor renders the house ad instead.
type Sponsor struct {
	CompanyName string
	Pitch       string
	Website     string
	WeekStart   string
	WeekEnd     string
}

// Input is everything one rendered issue depends on.
type Input struct {
	Records      []domain.MarketRecord
	BaseURL      string
	DisplayDate  string
	GainersLimit int
	LosersLimit  int
	Sponsor      *Sponsor
}

// Subject builds the broadcast subject line for an issue date.
func Subject(prefix, displayDate string) string {
	return fmt.Sprintf("%s - %s", prefix, displayDate)
}

type row struct {
	Rank      int
	Record    domain.MarketRecord
	Change30d string
	Change7d  string
	Price     string
	Anchor    string
}

type viewData struct {
	DisplayDate    string
	BaseURL        string
	Analysis       template.HTML
	Gainers        []row
	Losers         []row
	GainersLimit   int
	LosersLimit    int
	WebGainersNote string
	Sponsor        *Sponsor
	SponsorWeek    string
	HasEstimates   bool
}

// Render produces the complete HTML document for one issue.
func Render(in Input) (string, error) {
	if in.GainersLimit <= 0 {
		in.GainersLimit = 50
	}
	if in.LosersLimit <= 0 {
		in.LosersLimit = 10
	}

	data := viewData{
		DisplayDate:  in.DisplayDate,
		BaseURL:      in.BaseURL,
		Analysis:     marketAnalysis(in.Records),
		Gainers:      buildRows(aggregate.Gainers(in.Records, in.GainersLimit)),
		Losers:       buildRows(aggregate.Losers(in.Records, in.LosersLimit)),
		GainersLimit: in.GainersLimit,
		LosersLimit:  in.LosersLimit,
		Sponsor:      in.Sponsor,
	}
	if in.Sponsor != nil {
		data.SponsorWeek = in.Sponsor.WeekStart + " - " + in.Sponsor.WeekEnd
	}
	for _, r := range in.Records {
		if r.Estimated {
			data.HasEstimates = true
			break
		}
	}

	var b strings.Builder
	if err := issueTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render newsletter: %w", err)
	}
	return b.String(), nil
}

func buildRows(records []domain.MarketRecord) []row {
	rows := make([]row, 0, len(records))
	for i, r := range records {
		rows = append(rows, row{
			Rank:      i + 1,
			Record:    r,
			Change30d: formatChange(r.MonthlyChange, r.Estimated),
			Change7d:  formatChange(r.WeeklyChange, r.Estimated),
			Price:     formatPrice(r.CurrentPrice),
			Anchor:    r.ID,
		})
	}
	return rows
}

func formatChange(change float64, estimated bool) string {
	s := fmt.Sprintf("%.1f%%", change)
	if change > 0 {
		s = "+" + s
	}
	if estimated {
		s += " (est.)"
	}
	return s
}

// formatPrice keeps sub-cent prices readable: six decimals under one
// cent, grouped two-decimal rendering otherwise.
func formatPrice(price float64) string {
	if price < 0.01 {
		return fmt.Sprintf("$%.6f", price)
	}
	return "$" + groupThousands(fmt.Sprintf("%.2f", price))
}

func groupThousands(s string) string {
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	if len(intPart) <= 3 {
		return intPart + frac
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + frac
}
