package analysis

import (
	"log/slog"
	"sync"

	"github.com/jmartel/consoscan/pkg/models"
)

// Analyzer answers bounded statistical queries over the loaded dataset.
// Every public query runs the same pipeline: validate the range, resolve the
// series column, filter the rows, compute. Queries are read-only; the
// dataset is only ever replaced wholesale via SetDataset, and each query
// captures the dataset reference once at entry so a concurrent reload never
// tears an in-flight computation.
//
// Expected empty-data outcomes (no rows in range, series entirely missing)
// come back as nil results, not errors. Errors are reserved for malformed
// input and for queries issued before any dataset was loaded.
type Analyzer struct {
	mu      sync.RWMutex
	dataset *models.Dataset

	logger *slog.Logger
}

// New creates an Analyzer that writes its diagnostics to logger. A nil
// logger discards them.
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{logger: logger}
}

// SetDataset replaces the dataset the analyzer queries. Passing nil clears
// it, after which queries fail with ErrNoDataset.
func (a *Analyzer) SetDataset(ds *models.Dataset) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dataset = ds
}

// Dataset returns the currently loaded dataset, or nil.
func (a *Analyzer) Dataset() *models.Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

// Minimum returns the smallest value of the category's series in the range
// and the day it occurred. Days with a missing value are skipped; on ties
// the earliest day wins. A nil result means no usable data in the range.
func (a *Analyzer) Minimum(start, end string, cat models.Category) (*models.Observation, error) {
	_, slice, err := a.prepare(start, end, cat)
	if err != nil {
		return nil, err
	}

	var best *models.Observation
	for _, row := range slice.Rows {
		v, ok := row.Values[slice.Series.Column]
		if !ok {
			continue
		}
		if best == nil || v < best.Value {
			best = &models.Observation{Date: row.Date, Value: v}
		}
	}
	return best, nil
}

// Maximum is the counterpart of Minimum: the largest value and its day, with
// the earliest day winning ties. A nil result means no usable data.
func (a *Analyzer) Maximum(start, end string, cat models.Category) (*models.Observation, error) {
	_, slice, err := a.prepare(start, end, cat)
	if err != nil {
		return nil, err
	}

	var best *models.Observation
	for _, row := range slice.Rows {
		v, ok := row.Values[slice.Series.Column]
		if !ok {
			continue
		}
		if best == nil || v > best.Value {
			best = &models.Observation{Date: row.Date, Value: v}
		}
	}
	return best, nil
}

// Average returns the arithmetic mean of the series over the range. Missing
// values are excluded from both the sum and the count. A nil result means
// the range held no present values at all.
func (a *Analyzer) Average(start, end string, cat models.Category) (*float64, error) {
	_, slice, err := a.prepare(start, end, cat)
	if err != nil {
		return nil, err
	}

	var sum float64
	var n int
	for _, row := range slice.Rows {
		if v, ok := row.Values[slice.Series.Column]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

// CountAboveThreshold counts the days whose value is strictly greater than
// threshold. A nil result means no rows in the range at all; a zero result
// means rows exist but none qualify. Missing values never qualify.
func (a *Analyzer) CountAboveThreshold(start, end string, cat models.Category, threshold float64) (*int, error) {
	_, slice, err := a.prepare(start, end, cat)
	if err != nil {
		return nil, err
	}
	if slice.Empty() {
		return nil, nil
	}

	count := 0
	for _, row := range slice.Rows {
		if v, ok := row.Values[slice.Series.Column]; ok && v > threshold {
			count++
		}
	}
	return &count, nil
}

// CountBelowThreshold counts the days whose value is strictly less than
// threshold, with the same nil-versus-zero distinction as
// CountAboveThreshold.
func (a *Analyzer) CountBelowThreshold(start, end string, cat models.Category, threshold float64) (*int, error) {
	_, slice, err := a.prepare(start, end, cat)
	if err != nil {
		return nil, err
	}
	if slice.Empty() {
		return nil, nil
	}

	count := 0
	for _, row := range slice.Rows {
		if v, ok := row.Values[slice.Series.Column]; ok && v < threshold {
			count++
		}
	}
	return &count, nil
}

// PeriodSlice returns the (date, value) table for the range, restricted to
// days where the series value is present, ready for plotting or export.
//
// When electricity was requested and every value in the range is missing,
// the gas series over the same rows is tried instead; a non-empty substitute
// comes back tagged with Fallback=true and the gas category so callers can
// label what they are actually showing. Failures during that substitution
// are absorbed into a nil result — only the fallback attempt is forgiven,
// the primary path reports its errors normally.
func (a *Analyzer) PeriodSlice(start, end string, cat models.Category) (*models.PeriodData, error) {
	ds, slice, err := a.prepare(start, end, cat)
	if err != nil {
		return nil, err
	}
	if slice.Empty() {
		return nil, nil
	}

	data := collectPresent(slice.Rows, slice.Series)
	if len(data.Points) > 0 {
		return data, nil
	}

	a.logger.Warn("all values in period are missing",
		"category", cat, "column", slice.Series.Column)

	if cat != models.Electricity {
		return nil, nil
	}

	gasSeries, err := ResolveSeries(ds, models.Gas)
	if err != nil {
		a.logger.Warn("gas fallback unavailable", "error", err)
		return nil, nil
	}

	fallback := collectPresent(slice.Rows, gasSeries)
	if len(fallback.Points) == 0 {
		return nil, nil
	}

	a.logger.Info("using gas consumption data as fallback",
		"column", gasSeries.Column, "points", len(fallback.Points))
	fallback.Fallback = true
	return fallback, nil
}

// prepare runs the shared validate -> resolve -> filter pipeline and emits
// the per-step diagnostics. It returns the dataset snapshot the whole query
// must keep using.
func (a *Analyzer) prepare(start, end string, cat models.Category) (*models.Dataset, FilteredSlice, error) {
	ds := a.Dataset()
	if ds == nil {
		return nil, FilteredSlice{}, ErrNoDataset
	}

	rng, err := ValidateRange(start, end)
	if err != nil {
		a.logger.Error("date range rejected", "start", start, "end", end, "error", err)
		return nil, FilteredSlice{}, err
	}
	a.logger.Debug("validated date range", "start", rng.Start, "end", rng.End)

	series, err := ResolveSeries(ds, cat)
	if err != nil {
		a.logger.Error("series resolution failed", "category", cat, "error", err)
		return nil, FilteredSlice{}, err
	}
	a.logger.Info("resolved series column",
		"category", cat, "column", series.Column, "rule", series.Rule)

	slice := FilterRange(ds, rng, series)
	if slice.Empty() {
		a.logger.Warn("no rows between dates",
			"start", rng.Start, "end", rng.End, "rows", len(ds.Rows))
	}
	return ds, slice, nil
}

// collectPresent builds the two-column period view from the rows where the
// series value is present.
func collectPresent(rows []models.Row, series ResolvedSeries) *models.PeriodData {
	data := &models.PeriodData{Category: series.Category, Column: series.Column}
	for _, row := range rows {
		if v, ok := row.Values[series.Column]; ok {
			data.Points = append(data.Points, models.Observation{Date: row.Date, Value: v})
		}
	}
	return data
}
