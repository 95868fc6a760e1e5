package models

import (
	"fmt"
	"time"
)

// Category is the logical consumption type a caller asks for. It names what
// the user wants (electricity or gas), not a concrete column: the analysis
// engine resolves the matching column per dataset.
type Category string

const (
	Electricity Category = "electricity"
	Gas         Category = "gas"
)

// Canonical column names produced by the ingest layer when it normalizes a
// source file. Datasets built by hand may use any names; these are the exact
// matches the resolver tries first.
const (
	DateColumn        = "date"
	ElectricityColumn = "electricity_consumption"
	GasColumn         = "gas_consumption"
)

// ParseCategory validates a user-supplied category string.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case Electricity, Gas:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown category: %s (available: electricity, gas)", s)
	}
}

// CanonicalColumn returns the canonical column name for the category, or ""
// when the category has none.
func (c Category) CanonicalColumn() string {
	switch c {
	case Electricity:
		return ElectricityColumn
	case Gas:
		return GasColumn
	default:
		return ""
	}
}

// Row is one day of readings. Values is keyed by column name; an absent key
// means the source had no usable value for that column on that day.
type Row struct {
	Date   time.Time
	Values map[string]float64
}

// Dataset is an in-memory table of daily readings: one date-like column plus
// zero or more named numeric series columns. It is replaced wholesale on each
// load and never partially mutated, so queries can treat it as read-only.
type Dataset struct {
	Name       string    // store key, usually the source file's base name
	Source     string    // file path or URL the data came from
	LoadedAt   time.Time // when the load happened
	DateColumn string    // name of the date-like column
	Columns    []string  // all column names in original file order
	Rows       []Row     // rows in original file order
}

// SeriesColumns returns the column names excluding the date column, in
// original order.
func (d *Dataset) SeriesColumns() []string {
	cols := make([]string, 0, len(d.Columns))
	for _, col := range d.Columns {
		if col != d.DateColumn {
			cols = append(cols, col)
		}
	}
	return cols
}

// HasColumn reports whether the dataset has a column with the given name.
func (d *Dataset) HasColumn(name string) bool {
	for _, col := range d.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// DatasetInfo summarizes a stored dataset for listings.
type DatasetInfo struct {
	Name     string
	Source   string
	LoadedAt time.Time
	Columns  []string
	Rows     int
}

// Observation pairs a reading with the day it occurred.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PeriodData is the cleaned two-column (date, value) view of one series over
// a period, restricted to days where the value is present. Fallback is true
// when gas data was substituted for an unusable electricity series, so
// callers can label which series they are actually showing.
type PeriodData struct {
	Category Category      `json:"category"`
	Column   string        `json:"column"`
	Fallback bool          `json:"fallback"`
	Points   []Observation `json:"points"`
}
