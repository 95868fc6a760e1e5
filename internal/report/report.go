package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/jmartel/consoscan/pkg/models"
)

// Summary carries the headline statistics rendered above the observation
// table. Nil fields mean the period held no usable values and render as n/a.
type Summary struct {
	DatasetName string
	Start       string
	End         string
	Minimum     *models.Observation
	Maximum     *models.Observation
	Average     *float64
}

// BuildPeriodPDF renders a minimal PDF report for a period.
func BuildPeriodPDF(summary Summary, data *models.PeriodData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Energy Consumption Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Dataset: %s", summary.DatasetName))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", summary.Start, summary.End))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Series: %s", seriesLabel(data)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Minimum: %s", FormatObservation(summary.Minimum)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Maximum: %s", FormatObservation(summary.Maximum)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Average: %s", FormatAverage(summary.Average)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Observations: %d", len(data.Points)))
	pdf.Ln(8)

	// Observations table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Consumption", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, obs := range data.Points {
		pdf.CellFormat(60, 6, obs.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, fmt.Sprintf("%.2f", obs.Value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPeriodXLSX renders a minimal XLSX report for a period.
func BuildPeriodXLSX(summary Summary, data *models.PeriodData) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	obsSheet := "observations"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(obsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Energy Consumption Report")
	_ = f.SetCellValue(summarySheet, "A3", "Dataset")
	_ = f.SetCellValue(summarySheet, "B3", summary.DatasetName)
	_ = f.SetCellValue(summarySheet, "A4", "Period")
	_ = f.SetCellValue(summarySheet, "B4", fmt.Sprintf("%s to %s", summary.Start, summary.End))
	_ = f.SetCellValue(summarySheet, "A5", "Series")
	_ = f.SetCellValue(summarySheet, "B5", seriesLabel(data))
	_ = f.SetCellValue(summarySheet, "A6", "Minimum")
	_ = f.SetCellValue(summarySheet, "B6", FormatObservation(summary.Minimum))
	_ = f.SetCellValue(summarySheet, "A7", "Maximum")
	_ = f.SetCellValue(summarySheet, "B7", FormatObservation(summary.Maximum))
	_ = f.SetCellValue(summarySheet, "A8", "Average")
	_ = f.SetCellValue(summarySheet, "B8", FormatAverage(summary.Average))
	_ = f.SetCellValue(summarySheet, "A9", "Observations")
	_ = f.SetCellValue(summarySheet, "B9", len(data.Points))

	_ = f.SetCellValue(obsSheet, "A1", "Date")
	_ = f.SetCellValue(obsSheet, "B1", "Consumption")
	for i, obs := range data.Points {
		row := i + 2
		_ = f.SetCellValue(obsSheet, fmt.Sprintf("A%d", row), obs.Date.Format("2006-01-02"))
		_ = f.SetCellValue(obsSheet, fmt.Sprintf("B%d", row), obs.Value)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePeriodCSV writes the period as a two-column CSV that the ingest
// layer can read back.
func WritePeriodCSV(w io.Writer, data *models.PeriodData) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{models.DateColumn, data.Column}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, obs := range data.Points {
		record := []string{
			obs.Date.Format(time.RFC3339),
			strconv.FormatFloat(obs.Value, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing observation: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// seriesLabel names the series a report covers, marking substituted data.
func seriesLabel(data *models.PeriodData) string {
	label := fmt.Sprintf("%s (%s)", data.Category, data.Column)
	if data.Fallback {
		label += " - substituted for electricity"
	}
	return label
}

// FormatObservation renders a dated reading, or n/a for the no-data result.
func FormatObservation(obs *models.Observation) string {
	if obs == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f on %s", obs.Value, obs.Date.Format("2006-01-02"))
}

// FormatAverage renders a mean value, or n/a for the no-data result.
func FormatAverage(avg *float64) string {
	if avg == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *avg)
}
