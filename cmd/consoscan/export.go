package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmartel/consoscan/internal/analysis"
	"github.com/jmartel/consoscan/internal/logging"
	"github.com/jmartel/consoscan/internal/report"
)

var (
	exportFrom     string
	exportTo       string
	exportDataset  string
	exportCategory string
	exportFormat   string
	exportOut      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a period report to PDF, XLSX or CSV",
	Long: `Builds a report for the period: headline statistics plus the dated
observations. PDF and XLSX carry a summary section; CSV holds the
observations alone in a form the load command reads back.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End date (YYYY-MM-DD, inclusive)")
	exportCmd.Flags().StringVar(&exportDataset, "dataset", "", "Dataset to export (default: most recently loaded)")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "electricity or gas (default from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "pdf", "Output format: pdf, xlsx or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default: consoscan_<category>_<timestamp>.<format>)")
	exportCmd.MarkFlagRequired("from")
	exportCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Export started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cat, err := resolveCategory(cfg, exportCategory)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	ds, err := loadDatasetForAnalysis(st, exportDataset)
	if err != nil {
		return err
	}

	analyzer := analysis.New(logging.Logger())
	analyzer.SetDataset(ds)

	data, err := analyzer.PeriodSlice(exportFrom, exportTo, cat)
	if err != nil {
		return err
	}
	if data == nil {
		fmt.Printf("No data available between %s and %s, nothing to export\n", exportFrom, exportTo)
		return nil
	}

	min, err := analyzer.Minimum(exportFrom, exportTo, cat)
	if err != nil {
		return err
	}
	max, err := analyzer.Maximum(exportFrom, exportTo, cat)
	if err != nil {
		return err
	}
	avg, err := analyzer.Average(exportFrom, exportTo, cat)
	if err != nil {
		return err
	}

	summary := report.Summary{
		DatasetName: ds.Name,
		Start:       exportFrom,
		End:         exportTo,
		Minimum:     min,
		Maximum:     max,
		Average:     avg,
	}

	var output []byte
	switch exportFormat {
	case "pdf":
		output, err = report.BuildPeriodPDF(summary, data)
	case "xlsx":
		output, err = report.BuildPeriodXLSX(summary, data)
	case "csv":
		var buf bytes.Buffer
		err = report.WritePeriodCSV(&buf, data)
		output = buf.Bytes()
	default:
		return fmt.Errorf("unknown format: %s (available: pdf, xlsx, csv)", exportFormat)
	}
	if err != nil {
		return fmt.Errorf("building %s report: %w", exportFormat, err)
	}

	outPath := exportOut
	if outPath == "" {
		outPath = fmt.Sprintf("consoscan_%s_%s.%s", data.Category, time.Now().Format("20060102_150405"), exportFormat)
	}
	if err := os.WriteFile(outPath, output, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Printf("✓ Wrote %s (%s)\n", outPath, humanize.Bytes(uint64(len(output))))
	fmt.Printf("  - Observations: %d\n", len(data.Points))
	if data.Fallback {
		fmt.Println("  - Note: gas data substituted for the electricity period")
	}

	return nil
}
