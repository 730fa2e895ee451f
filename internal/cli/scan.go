package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cosmoswatch/upgradewatch/internal/control"
	"github.com/cosmoswatch/upgradewatch/internal/scan"
)

var (
	scanMainnets []string
	scanTestnets []string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a one-shot scan and print results as JSON",
	Run:   runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanMainnets, "mainnets", nil, "mainnet networks to scan")
	scanCmd.Flags().StringSliceVar(&scanTestnets, "testnets", nil, "testnet networks to scan")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	cfg := setup()

	if len(scanMainnets) == 0 && len(scanTestnets) == 0 {
		slog.Error("No networks requested, pass --mainnets and/or --testnets")
		os.Exit(1)
	}

	app, err := control.NewApp(control.Config{
		Registry:  cfg.Registry,
		Probe:     cfg.Probe,
		Query:     cfg.Query,
		Redis:     cfg.Redis,
		Blacklist: cfg.Blacklist,
	})
	if err != nil {
		slog.Error("Failed to initialize upgrade watcher", "error", err)
		os.Exit(1)
	}

	results := app.ScanAll(context.Background(), scan.Request{
		Mainnets: scanMainnets,
		Testnets: scanTestnets,
	})

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		slog.Error("Failed to encode results", "error", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))
}
