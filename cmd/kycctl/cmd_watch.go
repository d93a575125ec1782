package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitwit/kycsbt"
	"github.com/vitwit/kycsbt/server"
	"golang.org/x/sync/errgroup"
)

var (
	metricsAddr string
	listenAddr  string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the wallet's KYC state as blocks arrive",
	Long: `Keeps the wallet's KYC view in sync with the registry, refreshing on
every new block, and prints the view whenever it changes. Stop with Ctrl-C.

With --metrics-addr the prometheus metrics are served at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	rec, reg, err := prometheusRecorder()
	if err != nil {
		return err
	}

	addr := metricsAddr
	if addr == "" && cfg.EnableMetrics {
		addr = cfg.MetricsAddr
	}

	k, err := openClient(cmd.Context(), kycsbt.WithMetrics(rec))
	if err != nil {
		return err
	}
	defer k.Close()

	session, err := k.Session()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return session.Run(ctx)
	})
	if addr != "" {
		api := server.New(k, server.WithLogger(log), server.WithMetrics(rec), server.WithGatherer(reg))
		g.Go(func() error {
			return api.ListenAndServe(ctx, addr)
		})
	}
	g.Go(func() error {
		return printChanges(ctx, cmd, k)
	})
	return g.Wait()
}

// printChanges prints the view each time it differs from the last one
// printed, until ctx is done.
func printChanges(ctx context.Context, cmd *cobra.Command, k *kycsbt.KycSBT) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		view := k.Reconciler().View()
		if view.Loading {
			continue
		}
		balance := k.Balance().Formatted()
		snapshot, err := json.Marshal(struct {
			View    any
			Balance string
		}{view, balance})
		if err != nil {
			return err
		}
		if string(snapshot) == string(last) {
			continue
		}
		last = snapshot

		if err := printResult(cmd, view, func() string { return renderView(view, balance) + "\n" }); err != nil {
			return err
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	rec, reg, err := prometheusRecorder()
	if err != nil {
		return err
	}

	k, err := openClient(cmd.Context(), kycsbt.WithMetrics(rec))
	if err != nil {
		return err
	}
	defer k.Close()

	addr := listenAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	api := server.New(k,
		server.WithLogger(log),
		server.WithMetrics(rec),
		server.WithGatherer(reg),
		server.WithTimeout(cfg.DefaultTimeout),
	)
	return api.ListenAndServe(cmd.Context(), addr)
}
