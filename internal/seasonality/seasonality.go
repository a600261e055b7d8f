// Package seasonality compares the two half-year windows of a price series:
// the six months from May to October against the six months from November to April.
//
// Each window's return is the six-month change of the month-end close, read at the
// window's last month (October for May-Oct, April for Nov-Apr). Only years that have
// both windows are kept.
package seasonality

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

// Lookback is the number of months a half-year return spans.
const Lookback = 6

const (
	mayOctEnd = time.October
	novAprEnd = time.April
)

// MonthEnd is the last close of a calendar month.
type MonthEnd struct {
	// Date is the last calendar day of the month.
	Date  time.Time
	Close decimal.Decimal
}

// HalfYearReturn is the six-month change ending at a month end, as a fraction.
type HalfYearReturn struct {
	Date   time.Time
	Return float64
}

// YearRow holds both half-year returns of one year, as fractions.
type YearRow struct {
	Year   int
	MayOct float64
	NovApr float64
}

// HalfStats summarises the returns of one half-year window.
type HalfStats struct {
	Wins    int
	Losses  int
	Total   int
	WinRate float64
	// MeanPct and StdDevPct are in percent. StdDevPct is the sample deviation
	// and is NaN with fewer than two returns.
	MeanPct   float64
	StdDevPct float64
}

// Report is the half-year comparison for one symbol.
type Report struct {
	Symbol string
	From   time.Time
	To     time.Time
	Years  []YearRow
	MayOct HalfStats
	NovApr HalfStats
}

// MonthEndCloses resamples a series to one close per calendar month.
// A month without observations repeats the previous month's close.
func MonthEndCloses(series types.PriceSeries) []MonthEnd {
	if series.Len() == 0 {
		return nil
	}

	var months []MonthEnd

	for _, obs := range series.Observations {
		end := monthEnd(obs.Date)

		if n := len(months); n > 0 {
			last := months[n-1]
			if last.Date.Equal(end) {
				months[n-1].Close = obs.Close
				continue
			}

			for gap := monthEnd(last.Date.AddDate(0, 0, 1)); gap.Before(end); gap = monthEnd(gap.AddDate(0, 0, 1)) {
				months = append(months, MonthEnd{Date: gap, Close: last.Close})
			}
		}

		months = append(months, MonthEnd{Date: end, Close: obs.Close})
	}

	return months
}

// HalfYearReturns computes close[m]/close[m-Lookback] - 1 for every month with a full lookback.
// Months whose base close is zero are skipped.
func HalfYearReturns(months []MonthEnd) []HalfYearReturn {
	if len(months) <= Lookback {
		return nil
	}

	returns := make([]HalfYearReturn, 0, len(months)-Lookback)

	for i := Lookback; i < len(months); i++ {
		base := months[i-Lookback].Close
		if base.IsZero() {
			continue
		}

		change := months[i].Close.Div(base).Sub(decimal.NewFromInt(1))
		returns = append(returns, HalfYearReturn{Date: months[i].Date, Return: change.InexactFloat64()})
	}

	return returns
}

// Compute builds the half-year report for a series.
func Compute(series types.PriceSeries) (Report, error) {
	months := MonthEndCloses(series)
	if len(months) <= Lookback {
		return Report{}, errors.NewInsufficientDataErrorf(Lookback+1, len(months), series.Symbol,
			"need at least %d month-end closes for %s, got %d", Lookback+1, series.Symbol, len(months))
	}

	mayOct := make(map[int]float64)
	novApr := make(map[int]float64)

	for _, r := range HalfYearReturns(months) {
		switch r.Date.Month() {
		case mayOctEnd:
			mayOct[r.Date.Year()] = r.Return
		case novAprEnd:
			novApr[r.Date.Year()] = r.Return
		}
	}

	years := make([]YearRow, 0, len(mayOct))

	for year, mo := range mayOct {
		na, ok := novApr[year]
		if !ok {
			continue
		}

		years = append(years, YearRow{Year: year, MayOct: mo, NovApr: na})
	}

	if len(years) == 0 {
		return Report{}, errors.NewInsufficientDataErrorf(1, 0, series.Symbol,
			"no year of %s has both an April and an October half-year return", series.Symbol)
	}

	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })

	mayOctReturns := make([]float64, len(years))
	novAprReturns := make([]float64, len(years))

	for i, y := range years {
		mayOctReturns[i] = y.MayOct
		novAprReturns[i] = y.NovApr
	}

	first, _ := series.First()
	last, _ := series.Last()

	return Report{
		Symbol: series.Symbol,
		From:   first.Date,
		To:     last.Date,
		Years:  years,
		MayOct: Summarize(mayOctReturns),
		NovApr: Summarize(novAprReturns),
	}, nil
}

// Summarize computes win/loss counts, mean and sample standard deviation of fractional returns.
// A zero return counts as neither a win nor a loss.
func Summarize(returns []float64) HalfStats {
	stats := HalfStats{
		Wins:      0,
		Losses:    0,
		Total:     len(returns),
		WinRate:   0,
		MeanPct:   math.NaN(),
		StdDevPct: math.NaN(),
	}

	if stats.Total == 0 {
		return stats
	}

	var sum float64

	for _, r := range returns {
		switch {
		case r > 0:
			stats.Wins++
		case r < 0:
			stats.Losses++
		}

		sum += r
	}

	mean := sum / float64(stats.Total)
	stats.WinRate = float64(stats.Wins) / float64(stats.Total)
	stats.MeanPct = mean * 100

	if stats.Total < 2 {
		return stats
	}

	var squaredDiffSum float64

	for _, r := range returns {
		diff := r - mean
		squaredDiffSum += diff * diff
	}

	stats.StdDevPct = math.Sqrt(squaredDiffSum/float64(stats.Total-1)) * 100

	return stats
}

func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}
