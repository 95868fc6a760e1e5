package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmartel/consoscan/internal/ingest"
	"github.com/jmartel/consoscan/internal/logging"
)

var loadName string

var loadCmd = &cobra.Command{
	Use:   "load <file.csv>",
	Short: "Load a consumption CSV file into the database",
	Long: `Parses a local CSV file, normalizing its column names to the canonical
date/electricity/gas set, and stores the result in the database. Loading a
file under an existing dataset name replaces that dataset wholesale.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadName, "name", "", "Dataset name (default: the file's base name)")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Load started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Printf("Loading data from file: %s\n", args[0])
	loader := ingest.NewLoader(logging.Logger())
	ds, err := loader.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("loading file: %w", err)
	}
	if loadName != "" {
		ds.Name = loadName
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	if err := st.SaveDataset(ds); err != nil {
		return fmt.Errorf("saving dataset: %w", err)
	}

	fmt.Printf("✓ Loaded dataset '%s'\n", ds.Name)
	fmt.Printf("  - Rows: %d\n", len(ds.Rows))
	fmt.Printf("  - Columns: %s\n", strings.Join(ds.Columns, ", "))
	if len(ds.Rows) > 0 {
		first, last := ds.Rows[0].Date, ds.Rows[0].Date
		for _, row := range ds.Rows {
			if row.Date.Before(first) {
				first = row.Date
			}
			if row.Date.After(last) {
				last = row.Date
			}
		}
		fmt.Printf("  - Dates: %s to %s\n", first.Format("2006-01-02"), last.Format("2006-01-02"))
	}

	return nil
}
