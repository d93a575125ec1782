package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vitwit/kycsbt"
	"github.com/vitwit/kycsbt/config"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/metrics"
	"github.com/vitwit/kycsbt/reconciler"
	"github.com/vitwit/kycsbt/types"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool

	cfg *types.Config
	log logger.Logger = logger.NoopLogger{}
)

var rootCmd = &cobra.Command{
	Use:   "kycctl",
	Short: "Inspect and manage KYC soulbound tokens on HashKey Chain",
	Long: `kycctl reads and writes the KycSBT registry for the wallet configured
with KYC_PRIVATE_KEY (or private_key in kycsbt.yaml).

Network selection is persisted, so "kycctl network select 177" sticks
for later invocations until changed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		l, err := logger.NewZapLogger(level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./kycsbt.yaml or ~/.config/kycsbt/kycsbt.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(statusCmd, requestCmd, revokeCmd, restoreCmd, humanCmd, feeCmd)
	rootCmd.AddCommand(networkCmd, watchCmd, serveCmd, adminCmd, versionCmd)
}

// openClient builds the facade for one command. Callers must Close it.
func openClient(ctx context.Context, opts ...kycsbt.Option) (*kycsbt.KycSBT, error) {
	base := []kycsbt.Option{
		kycsbt.WithLogger(log),
		kycsbt.WithNotifier(reconciler.LogNotifier{Logger: log}),
	}
	return kycsbt.New(ctx, cfg, append(base, opts...)...)
}

// prometheusRecorder registers collectors on a fresh registry so /metrics
// only shows kycsbt series.
func prometheusRecorder() (metrics.Recorder, *prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPrometheusRecorder(reg)
	if err != nil {
		return nil, nil, err
	}
	return rec, reg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResult(cmd, kycsbt.GetVersion(), func() string {
			return "kycctl " + kycsbt.Version
		})
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
