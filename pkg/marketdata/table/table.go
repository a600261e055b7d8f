// Package table holds the date-indexed price table returned by market data providers
// and the steps that normalise it into a PriceSeries.
//
// Columns may carry more than one label level, e.g. ("Close", "^GSPC"). Flatten collapses
// such labels to the field level when the extra levels are constant across all columns.
package table

import (
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

// Field names produced by the providers.
const (
	FieldOpen     = "Open"
	FieldHigh     = "High"
	FieldLow      = "Low"
	FieldClose    = "Close"
	FieldAdjClose = "Adj Close"
	FieldVolume   = "Volume"
)

// DefaultIndexName names the date index.
const DefaultIndexName = "Date"

// Column is one labelled column of values aligned with the table index.
// A NaN value marks a missing observation.
type Column struct {
	Label  []string
	Values []float64
}

// Field returns the first label level.
func (c Column) Field() string {
	if len(c.Label) == 0 {
		return ""
	}

	return c.Label[0]
}

// Table is a date-indexed set of columns.
type Table struct {
	IndexName string
	Index     []time.Time
	Columns   []Column
}

// New creates an empty table with the given index.
func New(index []time.Time) *Table {
	return &Table{
		IndexName: DefaultIndexName,
		Index:     index,
		Columns:   nil,
	}
}

// AddColumn appends a column. Its values must align with the index.
func (t *Table) AddColumn(values []float64, label ...string) error {
	if len(values) != len(t.Index) {
		return errors.Newf(errors.ErrCodeShapeMismatch,
			"column %s has %d values for %d index entries", strings.Join(label, "/"), len(values), len(t.Index))
	}

	if len(label) == 0 {
		return errors.New(errors.ErrCodeShapeMismatch, "column label must have at least one level")
	}

	t.Columns = append(t.Columns, Column{Label: slices.Clone(label), Values: values})

	return nil
}

// Rows returns the number of index entries.
func (t *Table) Rows() int {
	return len(t.Index)
}

// Levels returns the number of label levels shared by every column.
func (t *Table) Levels() (int, error) {
	if len(t.Columns) == 0 {
		return 0, errors.New(errors.ErrCodeShapeMismatch, "table has no columns")
	}

	levels := len(t.Columns[0].Label)
	for _, c := range t.Columns[1:] {
		if len(c.Label) != levels {
			return 0, errors.Newf(errors.ErrCodeShapeMismatch,
				"column %s has %d label levels, expected %d", strings.Join(c.Label, "/"), len(c.Label), levels)
		}
	}

	return levels, nil
}

// Flatten collapses multi-level labels to the field level.
// Every level after the first must carry a single value across all columns;
// a table holding more than one symbol is rejected.
func (t *Table) Flatten() (*Table, error) {
	levels, err := t.Levels()
	if err != nil {
		return nil, err
	}

	for level := 1; level < levels; level++ {
		distinct := make(map[string]struct{})
		for _, c := range t.Columns {
			distinct[c.Label[level]] = struct{}{}
		}

		if len(distinct) != 1 {
			values := make([]string, 0, len(distinct))
			for v := range distinct {
				values = append(values, v)
			}

			sort.Strings(values)

			return nil, errors.Newf(errors.ErrCodeShapeMismatch,
				"cannot flatten column level %d: %d distinct values %v", level, len(values), values)
		}
	}

	flat := &Table{
		IndexName: t.IndexName,
		Index:     slices.Clone(t.Index),
		Columns:   make([]Column, 0, len(t.Columns)),
	}

	seen := make(map[string]struct{}, len(t.Columns))

	for _, c := range t.Columns {
		field := c.Field()
		if _, dup := seen[field]; dup {
			return nil, errors.Newf(errors.ErrCodeShapeMismatch, "duplicate column %q after flattening", field)
		}

		seen[field] = struct{}{}
		flat.Columns = append(flat.Columns, Column{Label: []string{field}, Values: slices.Clone(c.Values)})
	}

	return flat, nil
}

// Column returns the single-level column with the given field name.
func (t *Table) Column(field string) (Column, bool) {
	for _, c := range t.Columns {
		if len(c.Label) == 1 && c.Label[0] == field {
			return c, true
		}
	}

	return Column{}, false
}

// Select keeps the named fields in the given order. The table must already be flat.
func (t *Table) Select(fields ...string) (*Table, error) {
	levels, err := t.Levels()
	if err != nil {
		return nil, err
	}

	if levels != 1 {
		return nil, errors.Newf(errors.ErrCodeShapeMismatch, "select needs single-level columns, table has %d levels", levels)
	}

	selected := &Table{
		IndexName: t.IndexName,
		Index:     t.Index,
		Columns:   make([]Column, 0, len(fields)),
	}

	for _, f := range fields {
		c, ok := t.Column(f)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeColumnNotFound, "column %q not found", f)
		}

		selected.Columns = append(selected.Columns, c)
	}

	return selected, nil
}

// Series converts a flat table holding Open and Close into a PriceSeries.
// Rows missing either price are dropped, rows are sorted by date and
// a repeated date keeps its last row.
func (t *Table) Series(symbol string) (types.PriceSeries, error) {
	open, ok := t.Column(FieldOpen)
	if !ok {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeColumnNotFound, "column %q not found", FieldOpen)
	}

	closing, ok := t.Column(FieldClose)
	if !ok {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeColumnNotFound, "column %q not found", FieldClose)
	}

	byDate := make(map[time.Time]types.PriceObservation, len(t.Index))

	for i, ts := range t.Index {
		o, c := open.Values[i], closing.Values[i]
		if math.IsNaN(o) || math.IsNaN(c) {
			continue
		}

		date := types.TruncateToDate(ts)
		byDate[date] = types.PriceObservation{
			Date:  date,
			Open:  decimal.NewFromFloat(o),
			Close: decimal.NewFromFloat(c),
		}
	}

	observations := make([]types.PriceObservation, 0, len(byDate))
	for _, o := range byDate {
		observations = append(observations, o)
	}

	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Date.Before(observations[j].Date)
	})

	return types.PriceSeries{Symbol: symbol, Observations: observations}, nil
}

// Normalize runs Flatten, Select(Open, Close) and Series.
func (t *Table) Normalize(symbol string) (types.PriceSeries, error) {
	flat, err := t.Flatten()
	if err != nil {
		return types.PriceSeries{}, err
	}

	selected, err := flat.Select(FieldOpen, FieldClose)
	if err != nil {
		return types.PriceSeries{}, err
	}

	return selected.Series(symbol)
}
