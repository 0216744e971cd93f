package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zsiec/mockingress/internal/health"
	"github.com/zsiec/mockingress/internal/logger"
	"github.com/zsiec/mockingress/internal/logscrape"
	"github.com/zsiec/mockingress/internal/model"
)

func newScrapeCommand() *cobra.Command {
	var (
		serial    string
		adbPath   string
		asJSON    bool
		preflight bool
		clearLog  bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Rebuild impressions from the collector output in a device log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if adbPath != "" {
				cfg.Scraper.AdbPath = adbPath
			}
			if serial != "" {
				cfg.Scraper.Serial = serial
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if preflight {
				checker := health.NewAdbChecker(cfg.Scraper.AdbPath, cfg.Scraper.Serial)
				if err := checker.Check(ctx); err != nil {
					return fmt.Errorf("adb preflight: %w", err)
				}
			}

			source := logscrape.NewAdbSource(cfg.Scraper.AdbPath, cfg.Scraper.Serial)
			scraper := logscrape.New(source, &cfg.Scraper, logger.FromLogrus(log))

			impressions, err := scraper.Impressions(ctx)
			if err != nil {
				return err
			}

			if clearLog {
				if err := source.Clear(ctx); err != nil {
					return err
				}
			}

			return printImpressions(cmd.OutOrStdout(), impressions, asJSON)
		},
	}

	cmd.Flags().StringVarP(&serial, "serial", "s", "", "Device serial, overrides scraper.serial")
	cmd.Flags().StringVar(&adbPath, "adb", "", "Path to adb, overrides scraper.adb_path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print impressions as JSON")
	cmd.Flags().BoolVar(&preflight, "preflight", true, "Check adb and the device before scraping")
	cmd.Flags().BoolVar(&clearLog, "clear", false, "Clear the device log after scraping")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	return cmd
}

func printImpressions(w io.Writer, impressions []model.Impression, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(impressions)
	}

	_, err := io.WriteString(w, renderSummary(impressions))
	return err
}
