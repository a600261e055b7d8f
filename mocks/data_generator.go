package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/table"
)

// DataGenerator generates realistic daily price tables for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how price data is generated.
type GeneratorConfig struct {
	// Symbol is the ticker placed in the second column level (e.g. "^GSPC")
	Symbol string
	// StartDate is the first calendar day considered; weekends are skipped
	StartDate time.Time
	// Days is the number of trading days to generate
	Days int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls daily price movement (0.01 = 1% typical daily volatility)
	Volatility float64
	// Trend is the total drift over the whole series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average daily volume
	VolumeBase float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "^GSPC",
		StartDate:    time.Date(1985, 1, 2, 0, 0, 0, 0, time.UTC),
		Days:         500,
		InitialPrice: 167.2,
		Volatility:   0.01,
		Trend:        0.0,
		VolumeBase:   80_000_000,
	}
}

// TradingDays returns the first n weekdays on or after start.
func TradingDays(start time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)

	for d := start; len(days) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}

		days = append(days, d)
	}

	return days
}

// Generate creates a table shaped like the Yahoo provider output: (field, symbol) labels
// for Open, High, Low, Close and Volume. Prices follow a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) *table.Table {
	index := TradingDays(config.StartDate, config.Days)

	opens := make([]float64, config.Days)
	highs := make([]float64, config.Days)
	lows := make([]float64, config.Days)
	closes := make([]float64, config.Days)
	volumes := make([]float64, config.Days)

	currentPrice := config.InitialPrice

	for i := 0; i < config.Days; i++ {
		open := currentPrice

		// Box-Muller transform for a normal draw
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Days)

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		opens[i] = roundToDecimals(open, 2)
		closes[i] = roundToDecimals(close, 2)
		highs[i] = roundToDecimals(math.Max(open, close)+highExtension, 2)
		lows[i] = roundToDecimals(math.Max(math.Min(open, close)-lowExtension, 0.01), 2)
		volumes[i] = math.Round(config.VolumeBase * (0.7 + g.rng.Float64()*0.6))

		currentPrice = close
	}

	tbl := table.New(index)
	for _, col := range []struct {
		field  string
		values []float64
	}{
		{table.FieldOpen, opens},
		{table.FieldHigh, highs},
		{table.FieldLow, lows},
		{table.FieldClose, closes},
		{table.FieldVolume, volumes},
	} {
		// lengths always match the index
		_ = tbl.AddColumn(col.values, col.field, config.Symbol)
	}

	return tbl
}

// GenerateSeries generates a table and normalizes it into a PriceSeries.
func (g *DataGenerator) GenerateSeries(config GeneratorConfig) types.PriceSeries {
	series, err := g.Generate(config).Normalize(config.Symbol)
	if err != nil {
		panic(err)
	}

	return series
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
