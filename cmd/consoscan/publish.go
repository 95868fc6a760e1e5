package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmartel/consoscan/internal/analysis"
	"github.com/jmartel/consoscan/internal/logging"
	"github.com/jmartel/consoscan/internal/publisher"
)

var (
	publishFrom     string
	publishTo       string
	publishDataset  string
	publishCategory string
	publishLimit    int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish period observations to MQTT and Home Assistant",
	Long: `Computes the period observations for a date range and publishes each one
to the targets enabled in config: an MQTT topic per category and the Home
Assistant backfill HTTP API.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishFrom, "from", "", "Start date (YYYY-MM-DD)")
	publishCmd.Flags().StringVar(&publishTo, "to", "", "End date (YYYY-MM-DD, inclusive)")
	publishCmd.Flags().StringVar(&publishDataset, "dataset", "", "Dataset to publish (default: most recently loaded)")
	publishCmd.Flags().StringVar(&publishCategory, "category", "", "electricity or gas (default from config)")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of observations to publish (0 = no limit)")
	publishCmd.MarkFlagRequired("from")
	publishCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !cfg.MQTT.Enabled && !cfg.HomeAssistant.Enabled {
		return fmt.Errorf("no publishing targets are enabled in config")
	}

	cat, err := resolveCategory(cfg, publishCategory)
	if err != nil {
		return err
	}

	pub, err := publisher.New(cfg.MQTT, cfg.HomeAssistant, logging.Logger())
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	ds, err := loadDatasetForAnalysis(st, publishDataset)
	if err != nil {
		return err
	}

	analyzer := analysis.New(logging.Logger())
	analyzer.SetDataset(ds)

	data, err := analyzer.PeriodSlice(publishFrom, publishTo, cat)
	if err != nil {
		return err
	}
	if data == nil {
		fmt.Printf("No data available between %s and %s, nothing to publish\n", publishFrom, publishTo)
		return nil
	}

	if publishLimit > 0 && len(data.Points) > publishLimit {
		data.Points = data.Points[:publishLimit]
		fmt.Printf("Limiting to %d observations (--limit flag)\n", publishLimit)
	}

	fmt.Printf("Publishing %d observations for %s...\n", len(data.Points), data.Category)
	published, err := pub.PublishPeriod(data)
	if err != nil {
		return fmt.Errorf("publishing (sent %d observations): %w", published, err)
	}

	fmt.Printf("✓ Published %d observations\n", published)
	if data.Fallback {
		fmt.Println("  - Note: gas data substituted for the electricity period")
	}

	return nil
}
