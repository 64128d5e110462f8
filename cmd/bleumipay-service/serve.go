package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/app/background"
	"github.com/LavaJover/shvark-bleumipay-service/internal/app/setup"
	"github.com/LavaJover/shvark-bleumipay-service/internal/config"
	"github.com/LavaJover/shvark-bleumipay-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-bleumipay-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the cron trigger, checkout endpoints and health checks",
		Long: `Start the HTTP server (cron trigger, checkout, metrics) and the gRPC
health service. With cron.scheduler_enabled the jobs are also triggered
in-process on their configured intervals.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// gRPC health
	grpcServer, healthServer := grpcapi.NewServer()
	lis, err := net.Listen("tcp", net.JoinHostPort(cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	go func() {
		slog.Info("gRPC server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server stopped", "error", err.Error())
			stop()
		}
	}()

	// HTTP
	router := handlers.NewRouter(
		handlers.NewCronHandler(ucs.Runner),
		handlers.NewCheckoutHandler(ucs.CheckoutUsecase),
		nil,
	)
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err.Error())
			stop()
		}
	}()

	var tasks *background.BackgroundTasks
	if cfg.Cron.SchedulerEnabled {
		tasks = background.NewBackgroundTasks(ucs.Runner, cfg.Cron)
		if err := tasks.StartAll(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	grpcapi.SetServing(healthServer, true)
	<-ctx.Done()
	slog.Info("shutting down")

	grpcapi.SetServing(healthServer, false)
	if tasks != nil {
		tasks.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "error", err.Error())
	}
	grpcServer.GracefulStop()
	return nil
}
