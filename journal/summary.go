package journal

import (
	"io"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

// Summary aggregates the trades of one period.
type Summary struct {
	Symbol string
	Start  time.Time
	End    time.Time

	Trades int
	Wins   int
	Losses int

	NetPL        decimal.Decimal
	GrossProfit  decimal.Decimal
	GrossLoss    decimal.Decimal
	WinRate      decimal.Decimal // percent
	MaxLossRun   int
	FinalStreak  int
	ProfitFactor decimal.Decimal
}

// Summarize assumes trades are ordered by close time.
func Summarize(symbol string, start, end time.Time, trades []TradeRecord) Summary {
	s := Summary{Symbol: symbol, Start: start, End: end}

	run := 0
	for _, t := range trades {
		if symbol != "" && t.Symbol != symbol {
			continue
		}
		s.Trades++
		s.NetPL = s.NetPL.Add(t.RealizedPL)
		if t.RealizedPL.IsPositive() {
			s.Wins++
			s.GrossProfit = s.GrossProfit.Add(t.RealizedPL)
			run = 0
		} else {
			s.Losses++
			s.GrossLoss = s.GrossLoss.Add(t.RealizedPL.Abs())
			run++
			if run > s.MaxLossRun {
				s.MaxLossRun = run
			}
		}
		s.FinalStreak = t.LossStreak
	}

	if s.Trades > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).Div(decimal.NewFromInt(int64(s.Trades))).Mul(decimal.NewFromInt(100))
	}
	if s.GrossLoss.IsPositive() {
		s.ProfitFactor = s.GrossProfit.Div(s.GrossLoss)
	}
	return s
}

var summaryFuncs = template.FuncMap{
	"fixed2": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var summaryTemplate = template.Must(template.New("summary").Funcs(summaryFuncs).Parse(SummaryOrgTemplate))

// WriteOrg renders the summary as an org-mode section.
func (s Summary) WriteOrg(w io.Writer) error {
	return summaryTemplate.Execute(w, s)
}

const SummaryOrgTemplate = `* SESSION: {{if .Symbol}}{{.Symbol}}{{else}}(all symbols){{end}}
:PROPERTIES:
:START:       [{{.Start.Format "2006-01-02 Mon 15:04"}}]
:END_TIME:    [{{(orTime .End).Format "2006-01-02 Mon 15:04"}}]
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:NET_PL:      {{fixed2 .NetPL}}
:WIN_RATE:    {{fixed2 .WinRate}}
:END:

** Performance Summary
| Metric           | Value |
|------------------+-------|
| Net P/L          | {{fixed2 .NetPL}} |
| Gross profit     | {{fixed2 .GrossProfit}} |
| Gross loss       | {{fixed2 .GrossLoss}} |
| Profit factor    | {{if .ProfitFactor.IsZero}}(no losses){{else}}{{fixed2 .ProfitFactor}}{{end}} |
| Longest loss run | {{.MaxLossRun}} |
| Final loss count | {{.FinalStreak}} |
`
