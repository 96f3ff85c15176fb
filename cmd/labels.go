package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hemedy99/facegate/internal/config"
	"github.com/hemedy99/facegate/internal/database/sqlite"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List enrolled labels and their stored image counts",
	RunE:  runLabels,
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}

func runLabels(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := sqlite.Initialize(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	labels := sqlite.NewLabelRepository(pool)
	images := sqlite.NewImageRepository(pool)
	ctx := context.Background()

	all, err := labels.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list labels: %w", err)
	}
	if len(all) == 0 {
		fmt.Println("No labels enrolled")
		return nil
	}

	total := 0
	for _, label := range all {
		rows, err := images.ListByLabel(ctx, label.ID)
		if err != nil {
			return fmt.Errorf("failed to count images for %s: %w", label.Name, err)
		}
		fmt.Printf("%-30s %d images\n", label.Name, len(rows))
		total += len(rows)
	}
	fmt.Printf("\n%d labels, %d images\n", len(all), total)
	return nil
}
