package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmartel/consoscan/pkg/models"
)

// ErrNoDataset means a query ran before any dataset was loaded. That is a
// usage error on the caller's side, never retried.
var ErrNoDataset = errors.New("no dataset loaded")

// InvalidRangeError reports a malformed or inverted date range. The offending
// inputs are echoed so the message can go straight to the user.
type InvalidRangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range %q to %q: %s", e.Start, e.End, e.Reason)
}

// SeriesNotFoundError reports that no column in the dataset could back the
// requested category. The available columns are included so callers can
// suggest alternatives.
type SeriesNotFoundError struct {
	Category models.Category
	Columns  []string
}

func (e *SeriesNotFoundError) Error() string {
	if len(e.Columns) == 0 {
		return fmt.Sprintf("no %s consumption data available: dataset has no columns", e.Category)
	}
	return fmt.Sprintf("no %s consumption data available in columns: %s",
		e.Category, strings.Join(e.Columns, ", "))
}
