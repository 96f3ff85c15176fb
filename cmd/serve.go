package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hemedy99/facegate/internal/auth"
	"github.com/hemedy99/facegate/internal/config"
	"github.com/hemedy99/facegate/internal/database/sqlite"
	"github.com/hemedy99/facegate/internal/enroll"
	"github.com/hemedy99/facegate/internal/predict"
	"github.com/hemedy99/facegate/internal/trainer"
	"github.com/hemedy99/facegate/internal/vision"
	"github.com/hemedy99/facegate/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrollment and recognition server",
	Long: `Start the facegate server.
On boot the image store is rebuilt from the data directory and the model is
trained over the full corpus before the first request is served.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides FACEGATE_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides FACEGATE_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Server.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Server.Host = host
	}

	pool, err := sqlite.Initialize(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	labels := sqlite.NewLabelRepository(pool)
	images := sqlite.NewImageRepository(pool)

	detector, err := vision.NewPigoDetector(cfg.Vision)
	if err != nil {
		return fmt.Errorf("failed to load face detector: %w", err)
	}
	recognizer := vision.NewEigenRecognizer()

	registry := enroll.NewRegistry(cfg.Storage.DataDir, labels)
	capturer := enroll.NewCapturer(registry, images, detector)
	loader := enroll.NewLoader(cfg.Storage.DataDir, labels, images)

	state := &trainer.ModelState{}
	orchestrator := trainer.NewOrchestrator(loader, recognizer, cfg.Storage.ModelPath, state)
	predictor := predict.NewService(detector, labels, state)

	// The filesystem is the source of truth; the database rows are rebuilt
	// from the image tree on every boot.
	ctx := context.Background()
	fmt.Println("Rebuilding image store from the data directory...")
	if err := loader.Rebuild(ctx); err != nil {
		return fmt.Errorf("failed to rebuild image store: %w", err)
	}

	if err := orchestrator.Train(ctx); err != nil {
		if !errors.Is(err, trainer.ErrEmptyCorpus) {
			return fmt.Errorf("initial training failed: %w", err)
		}
		if restoreErr := orchestrator.Restore(); restoreErr == nil {
			fmt.Println("Empty corpus; serving the previously trained model")
		} else {
			fmt.Println("Warning: no training data yet, predictions are disabled until the first enrollment and train")
		}
	}

	server := web.NewServer(cfg, web.Deps{
		Verifier:  auth.NewVerifier(cfg.Storage.CredentialsPath),
		Registry:  registry,
		Capturer:  capturer,
		Trainer:   orchestrator,
		Predictor: predictor,
		Detector:  detector,
		Labels:    labels,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting facegate on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
