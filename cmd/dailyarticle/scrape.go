package main

import (
	"fmt"
	"time"

	"github.com/pevans/dailyarticle/bootstrap"
	"github.com/pevans/dailyarticle/registry"
	"github.com/pevans/dailyarticle/runlog"
	"github.com/pevans/dailyarticle/scraper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func scrapeCmd(c *cli) *cobra.Command {
	var (
		tier   string
		source string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape sources into the article cache",
		Long: `Scrape sources into the article cache and record each run.

Without flags every source is scraped, primary sources first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(app *bootstrap.App) error {
				scrapers, err := pickScrapers(app.Registry, tier, source)
				if err != nil {
					return err
				}

				reports := registry.Run(cmd.Context(), scrapers)
				runs := make([]runlog.Run, 0, len(reports))
				for _, report := range reports {
					run, err := app.RunLog.Record(report)
					if err != nil {
						app.Logger.Warn("failed to record scraper run",
							zap.String("source", report.SourceKey),
							zap.Error(err),
						)
						continue
					}
					runs = append(runs, *run)
				}

				if c.format == formatJSON {
					return printJSON(cmd.OutOrStdout(), runs)
				}
				for _, report := range reports {
					printReport(cmd.OutOrStdout(), report)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "all", "sources to scrape: primary, backup, or all")
	cmd.Flags().StringVar(&source, "source", "", "scrape a single source by key")

	return cmd
}

// pickScrapers resolves the scrape flags to a list of scrapers.
func pickScrapers(reg *registry.Registry, tier, source string) ([]scraper.Scraper, error) {
	if source != "" {
		s, ok := reg.Get(source)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", source)
		}
		return []scraper.Scraper{s}, nil
	}

	switch scraper.Tier(tier) {
	case scraper.TierPrimary:
		return reg.Primary(), nil
	case scraper.TierBackup:
		return reg.Backup(), nil
	}
	if tier != "all" {
		return nil, fmt.Errorf("invalid tier %q (valid: primary, backup, all)", tier)
	}
	return append(reg.Primary(), reg.Backup()...), nil
}

func statusCmd(c *cli) *cobra.Command {
	var (
		source string
		limit  int
		since  string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent scraper runs",
		Long: `Show recent scraper runs, newest first.

Without --source the latest run of every source is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var window time.Duration
			if since != "" {
				d, err := parseDuration(since)
				if err != nil {
					return err
				}
				window = d
			}

			return c.withApp(func(app *bootstrap.App) error {
				var (
					runs []runlog.Run
					err  error
				)
				if source != "" {
					runs, err = app.RunLog.List(source, limit)
				} else {
					runs, err = app.RunLog.Latest()
				}
				if err != nil {
					return err
				}

				if window > 0 {
					runs = runsSince(runs, time.Now().Add(-window))
				}

				if c.format == formatJSON {
					return printJSON(cmd.OutOrStdout(), runs)
				}
				printRuns(cmd.OutOrStdout(), runs)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "show the run history of one source")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of runs with --source")
	cmd.Flags().StringVar(&since, "since", "", "only runs started within this window (e.g. 12h, 7d, 2w)")

	return cmd
}

// runsSince keeps the runs started at or after cutoff.
func runsSince(runs []runlog.Run, cutoff time.Time) []runlog.Run {
	kept := make([]runlog.Run, 0, len(runs))
	for _, r := range runs {
		if !r.StartedAt.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}
