package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmartel/consoscan/internal/config"
	"github.com/jmartel/consoscan/internal/logging"
	"github.com/jmartel/consoscan/internal/store"
	"github.com/jmartel/consoscan/pkg/models"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "consoscan",
	Short: "Analyze household and open-data energy consumption",
	Long: `Consoscan loads energy consumption CSV files (local or downloaded from
open-data portals such as ODRE), stores them in a local SQLite database and
answers questions about a date range: minimum, maximum, average and
threshold statistics, plus exports and Home Assistant publishing.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is <data_dir>/consoscan.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file and applies its log level
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}

	logging.SetLevel(logging.ParseLevel(cfg.GetLogLevel()))
	if verbose {
		logging.SetLevel(slog.LevelDebug)
	}
	return cfg, nil
}

// getDBPath returns the database file path
func getDBPath(cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.GetDatabasePath()
}

// openStore opens the dataset database
func openStore(cfg *config.Config) (*store.Store, error) {
	path := getDBPath(cfg)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return store.New(path)
}

// loadDatasetForAnalysis retrieves the dataset the analysis commands work
// on: the named one when --dataset is given, the most recently loaded one
// otherwise.
func loadDatasetForAnalysis(st *store.Store, name string) (*models.Dataset, error) {
	if name != "" {
		ds, err := st.LoadDataset(name)
		if err != nil {
			return nil, err
		}
		if ds == nil {
			return nil, fmt.Errorf("dataset not found: %s", name)
		}
		return ds, nil
	}

	ds, err := st.LatestDataset()
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("no datasets stored yet, run 'consoscan load' or 'consoscan fetch' first")
	}
	return ds, nil
}

// resolveCategory picks the analysis category from the flag value, falling
// back to the configured default.
func resolveCategory(cfg *config.Config, value string) (models.Category, error) {
	if value == "" {
		value = cfg.GetDefaultCategory()
	}
	return models.ParseCategory(value)
}
