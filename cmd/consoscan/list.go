package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored datasets",
	Long:  `Displays all datasets stored in the database, most recently loaded first.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	infos, err := st.ListDatasets()
	if err != nil {
		return fmt.Errorf("listing datasets: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No datasets stored")
		return nil
	}

	fmt.Println("\nStored Datasets:")
	fmt.Println("--------------------------------------------------------------------------------")
	fmt.Printf("%-24s  %8s  %-16s  %s\n", "Name", "Rows", "Loaded", "Columns")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, info := range infos {
		fmt.Printf("%-24s  %8d  %-16s  %s\n",
			info.Name,
			info.Rows,
			info.LoadedAt.Format("2006-01-02 15:04"),
			strings.Join(info.Columns, ", "))
	}

	fmt.Println("--------------------------------------------------------------------------------")
	fmt.Printf("Total: %d datasets\n", len(infos))

	return nil
}
