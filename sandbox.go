package main

import (
	"os"
	"os/signal"
	"syscall"

	"orderbot/pkg/config"
	"orderbot/pkg/services/sandbox"

	"github.com/spf13/cobra"
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Serve a local copy of the order shop",
	Long: `Serve the order page, the order table and the robot part images on
SANDBOX_ADDR. Submitting an order fails with a server error at
SANDBOX_ERROR_RATE (0 to 1).

Point the robot at it with:
  ORDER_PAGE_URL=http://127.0.0.1:8099/ ORDERS_URL=http://127.0.0.1:8099/orders.csv orderbot`,
	RunE: runSandbox,
}

func runSandbox(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return sandbox.Serve(ctx, cfg.SandboxAddr, sandbox.Config{
		ErrorRate: cfg.SandboxErrorRate,
		Orders:    sandbox.DefaultOrders(),
	}, logger)
}
