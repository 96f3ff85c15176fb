package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hemedy99/facegate/internal/config"
	"github.com/hemedy99/facegate/internal/database/sqlite"
	"github.com/hemedy99/facegate/internal/enroll"
	"github.com/hemedy99/facegate/internal/trainer"
	"github.com/hemedy99/facegate/internal/vision"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the recognition model from the stored corpus",
	Long: `Run a full retrain over every stored image and overwrite the model
artifact. This is the same operation the admin train endpoint triggers.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := sqlite.Initialize(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	labels := sqlite.NewLabelRepository(pool)
	images := sqlite.NewImageRepository(pool)

	loader := enroll.NewLoader(cfg.Storage.DataDir, labels, images)
	ctx := context.Background()

	if err := loader.Rebuild(ctx); err != nil {
		return fmt.Errorf("failed to rebuild image store: %w", err)
	}

	// Create progress bar lazily; the corpus size is only known once the
	// loader starts reporting.
	var bar *progressbar.ProgressBar
	loader.Progress = func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Loading corpus"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("images"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		}
		bar.Add(1)
	}

	state := &trainer.ModelState{}
	orchestrator := trainer.NewOrchestrator(loader, vision.NewEigenRecognizer(), cfg.Storage.ModelPath, state)

	if err := orchestrator.Train(ctx); err != nil {
		if errors.Is(err, trainer.ErrEmptyCorpus) {
			return errors.New("no stored images to train on; enroll someone first")
		}
		return fmt.Errorf("training failed: %w", err)
	}

	fmt.Printf("\nModel written to %s\n", cfg.Storage.ModelPath)
	return nil
}
