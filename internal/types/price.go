package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

// DateLayout is the calendar date format used for the date column.
const DateLayout = "2006-01-02"

// PriceObservation is one trading day of a price series.
type PriceObservation struct {
	// Date is the trading day at UTC midnight.
	Date time.Time
	// Open is the price at market open.
	Open decimal.Decimal
	// Close is the price at market close.
	Close decimal.Decimal
}

// PriceSeries is the daily open/close history of a single symbol, ordered by ascending date.
type PriceSeries struct {
	Symbol       string
	Observations []PriceObservation
}

// Len returns the number of observations.
func (s PriceSeries) Len() int {
	return len(s.Observations)
}

// First returns the earliest observation and false when the series is empty.
func (s PriceSeries) First() (PriceObservation, bool) {
	if len(s.Observations) == 0 {
		return PriceObservation{}, false
	}

	return s.Observations[0], true
}

// Last returns the latest observation and false when the series is empty.
func (s PriceSeries) Last() (PriceObservation, bool) {
	if len(s.Observations) == 0 {
		return PriceObservation{}, false
	}

	return s.Observations[len(s.Observations)-1], true
}

// CheckOrder returns an error if dates are not strictly ascending.
func (s PriceSeries) CheckOrder() error {
	for i := 1; i < len(s.Observations); i++ {
		prev, cur := s.Observations[i-1].Date, s.Observations[i].Date
		if !cur.After(prev) {
			return errors.Newf(errors.ErrCodeUnsortedSeries,
				"%s: date %s at row %d does not follow %s", s.Symbol, cur.Format(DateLayout), i, prev.Format(DateLayout))
		}
	}

	return nil
}

// Between returns the observations dated on or after from and strictly before to.
func (s PriceSeries) Between(from, to time.Time) PriceSeries {
	kept := make([]PriceObservation, 0, len(s.Observations))

	for _, o := range s.Observations {
		if !o.Date.Before(from) && o.Date.Before(to) {
			kept = append(kept, o)
		}
	}

	return PriceSeries{Symbol: s.Symbol, Observations: kept}
}

// NegativePrices returns the observations carrying a negative open or close.
func (s PriceSeries) NegativePrices() []PriceObservation {
	var flagged []PriceObservation

	for _, o := range s.Observations {
		if o.Open.IsNegative() || o.Close.IsNegative() {
			flagged = append(flagged, o)
		}
	}

	return flagged
}

// Validate checks ordering and sign of every observation.
func (s PriceSeries) Validate() error {
	if err := s.CheckOrder(); err != nil {
		return err
	}

	if flagged := s.NegativePrices(); len(flagged) > 0 {
		return errors.Newf(errors.ErrCodeNegativePrice,
			"%s: %d observations with negative prices, first on %s", s.Symbol, len(flagged), flagged[0].Date.Format(DateLayout))
	}

	return nil
}

// TruncateToDate drops the clock part of t, keeping its calendar date in t's location, and returns it at UTC midnight.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
