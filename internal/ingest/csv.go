package ingest

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/jmartel/consoscan/pkg/models"
)

// Column name fragments recognized when locating series in raw files.
// French open-data feeds name columns after the grid operators: RTE for
// electricity, GRTgaz and Teréga for gas.
var (
	datePatterns = []string{"date", "temps", "time", "période", "periode"}
	elecPatterns = []string{"électricité", "electricite", "électr", "electr", "rte"}
	gasPatterns  = []string{"gaz", "gas", "grtgaz", "teréga", "terega"}
)

// ignoreFlagColumn marks rows excluded from analysis at the source.
// A row is dropped when this column holds "oui".
const ignoreFlagColumn = "flag_ignore"

// dateLayouts are tried in order when parsing date cells
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006", // French files are day-first
	"2006/01/02",
}

// Loader turns raw CSV exports into canonical datasets.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger discards diagnostics.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{logger: logger}
}

// LoadFile reads a CSV file from disk and parses it into a dataset named
// after the file.
func (l *Loader) LoadFile(path string) (*models.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return l.Parse(name, path, raw)
}

// Parse converts raw CSV bytes into a canonical dataset. The separator and
// text encoding are sniffed, column names are located heuristically and
// renamed to the canonical date/electricity/gas set, rows with unparsable
// dates are dropped and unparsable readings become missing values.
func (l *Loader) Parse(name, source string, raw []byte) (*models.Dataset, error) {
	text, usedLatin1 := decodeText(raw)
	if usedLatin1 {
		l.logger.Info("file is not valid UTF-8, decoded as Latin-1", "name", name)
	}
	text = strings.TrimPrefix(text, "﻿")

	firstLine, _, _ := strings.Cut(text, "\n")
	sep := detectSeparator(firstLine)
	l.logger.Debug("detected CSV separator", "separator", string(sep))

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("file does not have enough columns")
	}
	rows := records[1:]

	dateIdx := findDateColumn(header, rows)
	if dateIdx == -1 {
		return nil, fmt.Errorf("no date column found, header: %s", strings.Join(header, ", "))
	}

	elecIdx := findSeriesColumn(header, elecPatterns, dateIdx)
	gasIdx := findSeriesColumn(header, gasPatterns, dateIdx)
	if elecIdx == -1 && gasIdx == -1 {
		// No name matched: fall back to the numeric columns in order.
		elecIdx, gasIdx = numericFallback(header, rows, dateIdx)
	}
	if elecIdx == -1 && gasIdx == -1 {
		return nil, fmt.Errorf("no consumption columns found, header: %s", strings.Join(header, ", "))
	}

	ignoreIdx := -1
	for i, col := range header {
		if strings.EqualFold(col, ignoreFlagColumn) {
			ignoreIdx = i
			break
		}
	}

	ds := &models.Dataset{
		Name:       name,
		Source:     source,
		LoadedAt:   time.Now().UTC(),
		DateColumn: models.DateColumn,
		Columns:    []string{models.DateColumn},
	}
	if elecIdx != -1 {
		ds.Columns = append(ds.Columns, models.ElectricityColumn)
	}
	if gasIdx != -1 {
		ds.Columns = append(ds.Columns, models.GasColumn)
	}
	l.logger.Info("mapped CSV columns",
		"date", header[dateIdx],
		"electricity", columnName(header, elecIdx),
		"gas", columnName(header, gasIdx))

	ignored := 0
	for _, record := range rows {
		if ignoreIdx != -1 && ignoreIdx < len(record) &&
			strings.EqualFold(strings.TrimSpace(record[ignoreIdx]), "oui") {
			ignored++
			continue
		}
		if dateIdx >= len(record) {
			continue
		}
		date, ok := parseDate(record[dateIdx])
		if !ok {
			// Skip rows we can't date
			continue
		}

		row := models.Row{Date: date, Values: map[string]float64{}}
		if elecIdx != -1 && elecIdx < len(record) {
			if v, ok := parseReading(record[elecIdx]); ok {
				row.Values[models.ElectricityColumn] = v
			}
		}
		if gasIdx != -1 && gasIdx < len(record) {
			if v, ok := parseReading(record[gasIdx]); ok {
				row.Values[models.GasColumn] = v
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	if ignored > 0 {
		l.logger.Info("filtered out rows flagged to ignore", "rows", ignored)
	}
	l.logger.Info("parsed dataset",
		"name", name, "rows", len(ds.Rows), "columns", strings.Join(ds.Columns, ","))

	return ds, nil
}

// decodeText returns the file contents as a string, falling back to
// Latin-1 when the bytes are not valid UTF-8. The second return reports
// whether the fallback was used.
func decodeText(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), false
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw), false
	}
	return string(decoded), true
}

// detectSeparator picks the field separator from the header line.
// Semicolons win because French exports use them with decimal commas.
func detectSeparator(line string) rune {
	if strings.ContainsRune(line, ';') {
		return ';'
	}
	return ','
}

// findDateColumn locates the date column by name, then by checking whether
// the first column holds dates, then by scanning every column for date-like
// values. Returns -1 when nothing qualifies.
func findDateColumn(header []string, rows [][]string) int {
	for _, pattern := range datePatterns {
		for i, col := range header {
			if strings.Contains(strings.ToLower(col), pattern) {
				return i
			}
		}
	}

	if columnHoldsDates(rows, 0) {
		return 0
	}
	for i := 1; i < len(header); i++ {
		if columnHoldsDates(rows, i) {
			return i
		}
	}
	return -1
}

// columnHoldsDates samples up to five non-empty cells and reports whether
// any of them parses as a date.
func columnHoldsDates(rows [][]string, idx int) bool {
	sampled := 0
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			continue
		}
		if _, ok := parseDate(cell); ok {
			return true
		}
		sampled++
		if sampled >= 5 {
			break
		}
	}
	return false
}

// findSeriesColumn returns the first column whose name contains one of the
// patterns, in pattern order. The date column is never a candidate.
func findSeriesColumn(header []string, patterns []string, dateIdx int) int {
	for _, pattern := range patterns {
		for i, col := range header {
			if i == dateIdx {
				continue
			}
			if strings.Contains(strings.ToLower(col), pattern) {
				return i
			}
		}
	}
	return -1
}

// numericFallback maps the first numeric column to electricity and the
// second to gas when no column name matched.
func numericFallback(header []string, rows [][]string, dateIdx int) (int, int) {
	elec, gas := -1, -1
	for i := range header {
		if i == dateIdx || !columnHoldsNumbers(rows, i) {
			continue
		}
		if elec == -1 {
			elec = i
		} else {
			gas = i
			break
		}
	}
	return elec, gas
}

// columnHoldsNumbers samples up to five non-empty cells and requires every
// one of them to parse as a reading.
func columnHoldsNumbers(rows [][]string, idx int) bool {
	sampled := 0
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			continue
		}
		if _, ok := parseReading(cell); !ok {
			return false
		}
		sampled++
		if sampled >= 5 {
			break
		}
	}
	return sampled > 0
}

// parseDate attempts the known layouts in order. Parsed times are
// normalized to UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseReading parses a numeric cell, tolerating French formatting:
// spaces or narrow no-break spaces as thousand separators and a decimal
// comma when no decimal point is present.
func parseReading(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func columnName(header []string, idx int) string {
	if idx == -1 {
		return ""
	}
	return header[idx]
}
