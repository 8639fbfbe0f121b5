// Package main provides the orderbot CLI: it orders every robot listed in the
// order table through the web shop and archives the receipts.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderbot/pkg/config"
	"orderbot/pkg/services/archive"
	"orderbot/pkg/services/browser"
	"orderbot/pkg/services/ledger"
	"orderbot/pkg/services/ocr"
	"orderbot/pkg/services/orders"
	"orderbot/pkg/services/receipt"
	"orderbot/pkg/services/robot"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "orderbot",
	Short: "Order robots from the RobotSpareBin shop and archive the receipts",
	Long: `orderbot downloads the order table, fills the order form once per row in a
Chrome session, stores a PDF receipt with the robot screenshot for every order
and zips the receipts when all orders went through.

Settings come from the environment or a .env file:
  ORDER_PAGE_URL, ORDERS_URL, ORDERS_FILE, OUTPUT_DIR, HEADLESS, CHROME_BIN,
  CHROME_CONTROL_URL, DATABASE_URL, AZURE_VISION_ENDPOINT, AZURE_VISION_KEY,
  LOG_LEVEL, SANDBOX_ADDR, SANDBOX_ERROR_RATE

Examples:
  orderbot                  # Order against the live shop
  orderbot sandbox          # Serve a local copy of the shop`,
	SilenceUsage: true,
	RunE:         runOrders,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file read before the environment")
	rootCmd.AddCommand(sandboxCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds a production logger at level, or a development logger
// when level is debug.
func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func browserConfig(cfg config.Config) browser.Config {
	bc := browser.DefaultConfig()
	bc.Headless = cfg.Headless
	bc.Bin = cfg.ChromeBin
	bc.ControlURL = cfg.ChromeControlURL
	return bc
}

func runOrders(cmd *cobra.Command, args []string) error {
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

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	session := browser.NewSession(browserConfig(cfg), logger)
	defer session.Close()
	if err := session.Open(ctx, cfg.OrderPageURL); err != nil {
		logger.Error("Failed to open order page", zap.String("url", cfg.OrderPageURL), zap.Error(err))
		return err
	}

	var recorder robot.Recorder
	if cfg.DatabaseURL != "" {
		l, err := ledger.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("Ledger unavailable, outcomes will only be logged", zap.Error(err))
		} else {
			defer l.Close()
			recorder = l
		}
	}

	var transcriber receipt.Transcriber
	if cfg.OCREnabled() {
		transcriber = ocr.NewService(cfg.AzureVisionEndpoint, cfg.AzureVisionKey, "")
	}

	p := &robot.Pipeline{
		RunID:    uuid.NewString(),
		Orders:   orders.NewFetcher(&http.Client{Timeout: time.Minute}, cfg.OrdersURL, cfg.OrdersFile, logger),
		Robot:    robot.New(session, cfg.OutputDir, robot.DefaultTiming(), logger),
		Receipts: receipt.NewComposer(session, cfg.OutputDir, transcriber, logger),
		Archive: func() (string, int, error) {
			return archive.Zip(cfg.OutputDir, archive.DefaultName)
		},
		Ledger: recorder,
		Log:    logger,
	}

	sum, err := p.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d orders processed, receipts archived to %s\n", len(sum.Records), sum.Archive)
	return nil
}
