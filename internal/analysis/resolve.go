package analysis

import (
	"strings"

	"github.com/jmartel/consoscan/pkg/models"
)

// Rule names reported in ResolvedSeries and in diagnostics.
const (
	RuleExact    = "exact"
	RuleKeyword  = "keyword"
	RuleFallback = "fallback"
)

// categoryKeywords are the case-insensitive substrings the keyword rule
// accepts per category. The accented spellings tolerate localized headers
// (the upstream feed labels columns in French).
var categoryKeywords = map[models.Category][]string{
	models.Electricity: {"electr", "électr"},
	models.Gas:         {"gas", "gaz"},
}

// ResolvedSeries names the dataset column chosen to back a category, and the
// rule that chose it. It is recomputed on every query because the dataset may
// have been replaced since the last call.
type ResolvedSeries struct {
	Column   string
	Category models.Category
	Rule     string
}

// matchRule is one step of the resolution order. A rule either picks a
// column from the given candidates or declines; rules have no other inputs,
// which keeps the precedence testable in isolation.
type matchRule struct {
	name  string
	match func(columns []string) (string, bool)
}

// ResolveSeries locates the best-matching column for a category. Resolution
// order, first match wins:
//
//  1. exact: the canonical column name for the category
//  2. keyword: case-insensitive substring match, first column in original
//     dataset order
//  3. fallback: the only non-date column, when exactly one exists
//
// It never invents data: if no rule matches, or the dataset has no date-like
// column at all, it fails with a SeriesNotFoundError.
func ResolveSeries(ds *models.Dataset, cat models.Category) (ResolvedSeries, error) {
	if ds.DateColumn == "" || !ds.HasColumn(ds.DateColumn) {
		return ResolvedSeries{}, &SeriesNotFoundError{Category: cat, Columns: ds.Columns}
	}

	candidates := ds.SeriesColumns()
	for _, rule := range resolutionRules(cat, len(candidates) == 1) {
		if col, ok := rule.match(candidates); ok {
			return ResolvedSeries{Column: col, Category: cat, Rule: rule.name}, nil
		}
	}

	return ResolvedSeries{}, &SeriesNotFoundError{Category: cat, Columns: ds.Columns}
}

// resolutionRules builds the ordered rule list for a category. single tells
// the fallback rule whether the dataset has exactly one non-date column; the
// fallback only applies in that unambiguous case.
func resolutionRules(cat models.Category, single bool) []matchRule {
	return []matchRule{
		{name: RuleExact, match: exactMatch(cat.CanonicalColumn())},
		{name: RuleKeyword, match: keywordMatch(categoryKeywords[cat])},
		{name: RuleFallback, match: soleColumnMatch(single)},
	}
}

// exactMatch accepts only the canonical column name.
func exactMatch(canonical string) func([]string) (string, bool) {
	return func(columns []string) (string, bool) {
		if canonical == "" {
			return "", false
		}
		for _, col := range columns {
			if col == canonical {
				return col, true
			}
		}
		return "", false
	}
}

// keywordMatch accepts the first column containing any keyword, compared
// case-insensitively. Scanning columns in order keeps the choice
// reproducible when several columns match.
func keywordMatch(keywords []string) func([]string) (string, bool) {
	return func(columns []string) (string, bool) {
		for _, col := range columns {
			lower := strings.ToLower(col)
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					return col, true
				}
			}
		}
		return "", false
	}
}

// soleColumnMatch accepts the only non-date column when the dataset has
// exactly one. With several unmatched columns there is no defensible pick,
// so the rule declines and resolution fails instead of guessing.
func soleColumnMatch(single bool) func([]string) (string, bool) {
	return func(columns []string) (string, bool) {
		if single && len(columns) == 1 {
			return columns[0], true
		}
		return "", false
	}
}
