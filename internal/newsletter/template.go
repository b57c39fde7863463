package newsletter

import "html/template"

var issueTemplate = template.Must(template.New("issue").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>CryptoMonth Weekly Newsletter - {{.DisplayDate}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 0; background-color: #f9fafb; line-height: 1.6; }
        .container { max-width: 800px; margin: 0 auto; background-color: white; }
        .content { padding: 30px; }
        .greeting { font-size: 16px; color: #374151; margin-bottom: 25px; }
        .chart-container { background-color: #f9fafb; border-radius: 12px; padding: 20px; margin: 20px 0; }
        .crypto-row { display: flex; align-items: center; padding: 12px 0; border-bottom: 1px solid #e5e7eb; }
        .crypto-row:last-child { border-bottom: none; }
        .rank { width: 50px; font-weight: 600; color: #6b7280; font-size: 14px; }
        .crypto-info { width: 180px; }
        .crypto-symbol { font-weight: 700; color: #1d4ed8; text-decoration: none; font-size: 14px; }
        .crypto-name { font-size: 12px; color: #6b7280; margin-top: 4px; }
        .performance { flex: 1; margin: 0 20px; }
        .change-30d { font-weight: 600; font-size: 15px; margin-bottom: 4px; }
        .change-7d { font-size: 13px; color: #6b7280; }
        .positive { color: #059669; }
        .negative { color: #dc2626; }
        .price { width: 120px; text-align: right; color: #374151; font-size: 14px; font-weight: 500; }
        .section-title { font-size: 20px; font-weight: 700; color: #111827; margin: 30px 0 15px 0; }
        .caveat { font-size: 12px; color: #6b7280; margin: 10px 0; }
        .ad-section { background-color: #f9fafb; border: 1px solid #e5e7eb; border-radius: 8px; padding: 20px; margin: 25px 0; text-align: center; }
        .ad-label { font-size: 12px; color: #6b7280; margin-bottom: 10px; }
        .footer { background-color: #f9fafb; padding: 30px; text-align: center; color: #6b7280; font-size: 14px; }
        .unsubscribe { color: #6b7280; text-decoration: none; }
    </style>
</head>
<body>
    <div class="container">
        <div class="content">
            <div class="greeting">
                Hey there,<br><br>
                Hope you're having a great week. Here's what's been happening in crypto markets over the past 30 days.
            </div>

            <p style="margin-bottom: 25px; color: #374151; line-height: 1.6;">{{.Analysis}}</p>

{{if .Sponsor}}
            <div class="ad-section" style="text-align: left;">
                <div style="display: flex; justify-content: space-between;">
                    <div class="ad-label">Sponsored Content</div>
                    <div style="font-size: 10px; color: #6b7280;">{{.SponsorWeek}}</div>
                </div>
                <h3 style="font-size: 18px; font-weight: bold; color: #1f2937; margin-bottom: 10px;">{{.Sponsor.CompanyName}}</h3>
                <p style="color: #374151; line-height: 1.6; margin-bottom: 10px;">{{.Sponsor.Pitch}}</p>
                <p style="margin-bottom: 10px;">
                    <a href="{{.Sponsor.Website}}" target="_blank" rel="noopener noreferrer" style="color: #1d4ed8; text-decoration: underline; font-weight: 500;">Learn more about {{.Sponsor.CompanyName}}</a>
                </p>
                <div style="font-size: 10px; color: #6b7280; padding-top: 10px; border-top: 1px solid #d1d5db;">
                    This is a paid advertisement. Visit <a href="{{.BaseURL}}/advertise" style="color: #1d4ed8;">CryptoMonth.info</a> to learn more about advertising opportunities.
                </div>
            </div>
{{else}}
            <div class="ad-section">
                <div class="ad-label">Advertisement</div>
                <p>If you would like to sponsor this newsletter, visit our <a href="{{.BaseURL}}/advertise" style="color: #1d4ed8;">advertiser portal</a></p>
            </div>
{{end}}

            <p style="margin-bottom: 15px; color: #374151; line-height: 1.6;">Below is a quick list of the Top {{.GainersLimit}} gains and {{.LosersLimit}} losses over the past 30 days. For information on where to buy these currencies and news mentions, click on the currency for more information.</p>

            <h2 class="section-title">Top {{.GainersLimit}} Gainers (30 Days)</h2>
            <div class="chart-container">
{{range .Gainers}}
                <div class="crypto-row">
                    <div class="rank">#{{.Rank}}</div>
                    <div class="crypto-info">
                        <a href="{{$.BaseURL}}#{{.Anchor}}" class="crypto-symbol">{{.Record.Symbol}}</a>
                        <div class="crypto-name">{{.Record.Name}}</div>
                    </div>
                    <div class="performance">
                        <div class="change-30d positive">{{.Change30d}}</div>
                        <div class="change-7d">7d: {{.Change7d}}</div>
                    </div>
                    <div class="price">{{.Price}}</div>
                </div>
{{end}}
            </div>

            <h2 class="section-title">Top {{.LosersLimit}} Losers (30 Days)</h2>
            <div class="chart-container">
{{range .Losers}}
                <div class="crypto-row">
                    <div class="rank">#{{.Rank}}</div>
                    <div class="crypto-info">
                        <a href="{{$.BaseURL}}#{{.Anchor}}" class="crypto-symbol">{{.Record.Symbol}}</a>
                        <div class="crypto-name">{{.Record.Name}}</div>
                    </div>
                    <div class="performance">
                        <div class="change-30d negative">{{.Change30d}}</div>
                        <div class="change-7d">7d: {{.Change7d}}</div>
                    </div>
                    <div class="price">{{.Price}}</div>
                </div>
{{end}}
            </div>

{{if .HasEstimates}}
            <p class="caveat">Figures marked (est.) are projected from 24-hour trading data for newly trending pairs and are low-confidence estimates, not measured 30-day performance.</p>
{{end}}
        </div>

        <div class="footer">
            <p>This newsletter is generated from CryptoMonth's analysis of cryptocurrency market data.</p>
            <p>Visit <a href="{{.BaseURL}}" style="color: #1d4ed8;">CryptoMonth.info</a> for real-time updates and detailed analysis.</p>
            <p><a href="%%unsubscribe_url%%" class="unsubscribe">Unsubscribe</a> | <a href="%%manage_preferences_url%%" class="unsubscribe">Update Preferences</a></p>
        </div>
    </div>
</body>
</html>
`))
