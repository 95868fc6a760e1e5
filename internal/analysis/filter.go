package analysis

import (
	"github.com/jmartel/consoscan/pkg/models"
)

// FilteredSlice is the subset of dataset rows whose date falls inside one
// validated range, paired with the series column the query resolved. It is
// built and consumed within a single query call.
type FilteredSlice struct {
	Rows   []models.Row
	Series ResolvedSeries
	Range  DateRange
}

// FilterRange restricts a dataset to the rows inside the range, keeping the
// dataset's original row order. An empty result is a valid outcome, not an
// error; callers decide how to react.
func FilterRange(ds *models.Dataset, rng DateRange, series ResolvedSeries) FilteredSlice {
	var rows []models.Row
	for _, row := range ds.Rows {
		if rng.Contains(row.Date) {
			rows = append(rows, row)
		}
	}
	return FilteredSlice{Rows: rows, Series: series, Range: rng}
}

// Empty reports whether no rows fell inside the range.
func (s FilteredSlice) Empty() bool {
	return len(s.Rows) == 0
}
