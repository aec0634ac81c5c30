// Package forecast rolls open opportunities up into commit, best case and
// pipeline totals for a calendar month.
package forecast

import (
	"time"

	"pestcrm_backend/internal/pipeline/domain"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// Period is the calendar month being forecast. Start and End are midnight of
// the first and last day, in the location they were derived from.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthContaining returns the calendar month that contains t, in t's location.
func MonthContaining(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// Day truncates t to midnight of its calendar day in t's location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Contains reports whether day falls within the period, inclusive.
func (p Period) Contains(day time.Time) bool {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, p.Start.Location())
	return !d.Before(p.Start) && !d.After(p.End)
}

// Totals are cumulative category amounts: Commit <= BestCase <= Pipeline.
type Totals struct {
	Commit   decimal.Decimal
	BestCase decimal.Decimal
	Pipeline decimal.Decimal
}

// ForecastData is one aggregated snapshot before it is stored.
type ForecastData struct {
	Totals
	OpportunityCount int
}

// Aggregate sums opportunity amounts with funnel semantics: commit counts
// toward all three totals, best case toward best case and pipeline, and any
// other category toward pipeline only. Closed opportunities are ignored.
func Aggregate(opportunities []domain.Opportunity) ForecastData {
	data := ForecastData{Totals: Totals{Commit: decimal.Zero, BestCase: decimal.Zero, Pipeline: decimal.Zero}}
	for _, o := range opportunities {
		if !o.IsOpen() {
			continue
		}
		data.OpportunityCount++

		switch o.ForecastCategory {
		case domain.ForecastCommit:
			data.Commit = data.Commit.Add(o.Amount)
			data.BestCase = data.BestCase.Add(o.Amount)
		case domain.ForecastBestCase:
			data.BestCase = data.BestCase.Add(o.Amount)
		}
		data.Pipeline = data.Pipeline.Add(o.Amount)
	}
	return data
}
