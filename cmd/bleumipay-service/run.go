package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/LavaJover/shvark-bleumipay-service/internal/app/setup"
	"github.com/LavaJover/shvark-bleumipay-service/internal/config"
	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/jobs"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [payment|order|retry]",
		Short: "Run one reconciliation job and exit",
		Long: `Run one reconciliation pass synchronously, the way GET /cron?id= does.

Examples:
  bleumipay-service run order
  bleumipay-service run payment`,
		Args: cobra.MaximumNArgs(1),
		RunE: runJob,
	}
}

func runJob(cmd *cobra.Command, args []string) error {
	var id string
	if len(args) > 0 {
		id = args[0]
	}
	if _, err := jobs.ParseJobID(id); err != nil {
		fmt.Println(jobs.InvalidJobMessage)
		return nil
	}

	cfg := config.MustLoad()
	logCloser, err := logger.Setup(cfg.LogConfig)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logCloser.Close()

	deps, err := setup.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}
	defer deps.Close()

	ucs, err := setup.InitializeUseCases(deps)
	if err != nil {
		return fmt.Errorf("init usecases: %w", err)
	}

	err = ucs.Runner.Run(cmd.Context(), id)
	if errors.Is(err, domain.ErrJobLocked) {
		fmt.Printf("%s job is already running\n", id)
		return nil
	}
	return err
}
