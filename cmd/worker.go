package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/practice-gateway/internal/usage"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that run outside the HTTP server.`,
}

var usageWorkerCmd = &cobra.Command{
	Use:   "usage",
	Short: "Start the usage reset worker",
	Long:  `Run the daily and monthly usage counter resets for every tenant on cron schedules.`,
	Run: func(cmd *cobra.Command, args []string) {
		startUsageWorker()
	},
}

var (
	dailySchedule   string
	monthlySchedule string
	runOnce         bool
)

func startUsageWorker() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	logger := deps.Logger

	if runOnce {
		n, err := deps.Usage.CheckAll(context.Background())
		_ = deps.Close()
		if err != nil {
			logger.Error("usage reset sweep failed", "tenants", n, "error", err)
			os.Exit(1)
		}
		logger.Info("usage reset sweep done", "tenants", n)
		return
	}

	daily := getStringFlag(dailySchedule, deps.Config.Usage.DailyResetSchedule)
	monthly := getStringFlag(monthlySchedule, deps.Config.Usage.MonthlyResetSchedule)

	scheduler, err := usage.NewScheduler(deps.Usage, daily, monthly, logger)
	if err != nil {
		logger.Error("invalid usage reset schedule", "error", err)
		os.Exit(1)
	}

	logger.Info("starting usage worker",
		"daily_schedule", daily,
		"monthly_schedule", monthly,
		"storage", deps.Config.Storage.Backend)
	scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("usage worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	logger.Info("received signal, shutting down usage worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	scheduler.Stop(ctx)
	if err := deps.Close(); err != nil {
		logger.Error("storage close error", "error", err)
	}
	logger.Info("usage worker shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	usageWorkerCmd.Flags().StringVar(&dailySchedule, "daily", "", "Cron schedule for the daily reset sweep (overrides config)")
	usageWorkerCmd.Flags().StringVar(&monthlySchedule, "monthly", "", "Cron schedule for the monthly reset sweep (overrides config)")
	usageWorkerCmd.Flags().BoolVar(&runOnce, "once", false, "Run one reset sweep and exit")

	workerCmd.AddCommand(usageWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
