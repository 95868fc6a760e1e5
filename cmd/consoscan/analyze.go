package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmartel/consoscan/internal/analysis"
	"github.com/jmartel/consoscan/internal/logging"
	"github.com/jmartel/consoscan/internal/report"
)

var (
	analyzeFrom     string
	analyzeTo       string
	analyzeDataset  string
	analyzeCategory string
	analyzeAbove    float64
	analyzeBelow    float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute consumption statistics for a date range",
	Long: `Computes the minimum, maximum and average consumption between two dates,
both inclusive. With --above or --below it also counts the observations
strictly beyond the threshold. Statistics print as n/a when the period
holds no usable values.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "Start date (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "End date (YYYY-MM-DD, inclusive)")
	analyzeCmd.Flags().StringVar(&analyzeDataset, "dataset", "", "Dataset to analyze (default: most recently loaded)")
	analyzeCmd.Flags().StringVar(&analyzeCategory, "category", "", "electricity or gas (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeAbove, "above", 0, "Count observations strictly above this threshold")
	analyzeCmd.Flags().Float64Var(&analyzeBelow, "below", 0, "Count observations strictly below this threshold")
	analyzeCmd.MarkFlagRequired("from")
	analyzeCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Analyze started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cat, err := resolveCategory(cfg, analyzeCategory)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	ds, err := loadDatasetForAnalysis(st, analyzeDataset)
	if err != nil {
		return err
	}

	analyzer := analysis.New(logging.Logger())
	analyzer.SetDataset(ds)

	min, err := analyzer.Minimum(analyzeFrom, analyzeTo, cat)
	if err != nil {
		return err
	}
	max, err := analyzer.Maximum(analyzeFrom, analyzeTo, cat)
	if err != nil {
		return err
	}
	avg, err := analyzer.Average(analyzeFrom, analyzeTo, cat)
	if err != nil {
		return err
	}

	fmt.Printf("\nDataset: %s (%d rows)\n", ds.Name, len(ds.Rows))
	fmt.Printf("Period:  %s to %s\n", analyzeFrom, analyzeTo)
	fmt.Printf("Series:  %s\n", cat)
	fmt.Println("----------------------------------------")
	fmt.Printf("%-10s %s\n", "Minimum:", report.FormatObservation(min))
	fmt.Printf("%-10s %s\n", "Maximum:", report.FormatObservation(max))
	fmt.Printf("%-10s %s\n", "Average:", report.FormatAverage(avg))

	if cmd.Flags().Changed("above") {
		n, err := analyzer.CountAboveThreshold(analyzeFrom, analyzeTo, cat, analyzeAbove)
		if err != nil {
			return err
		}
		fmt.Printf("Above %.2f: %s\n", analyzeAbove, formatCount(n))
	}
	if cmd.Flags().Changed("below") {
		n, err := analyzer.CountBelowThreshold(analyzeFrom, analyzeTo, cat, analyzeBelow)
		if err != nil {
			return err
		}
		fmt.Printf("Below %.2f: %s\n", analyzeBelow, formatCount(n))
	}
	fmt.Println("----------------------------------------")

	return nil
}

// formatCount renders a threshold count, or n/a when the period held no rows.
func formatCount(n *int) string {
	if n == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *n)
}
