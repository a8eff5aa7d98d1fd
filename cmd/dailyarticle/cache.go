package main

import (
	"fmt"

	"github.com/pevans/dailyarticle/bootstrap"
	"github.com/spf13/cobra"
)

func cacheCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the article cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache entry counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(func(app *bootstrap.App) error {
					stats, err := app.Cache.Stats()
					if err != nil {
						return err
					}
					if c.format == formatJSON {
						return printJSON(cmd.OutOrStdout(), stats)
					}
					printCacheStats(cmd.OutOrStdout(), stats)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Remove expired entries from the cache file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(func(app *bootstrap.App) error {
					removed, err := app.Cache.Prune()
					if err != nil {
						return err
					}
					if c.format == formatJSON {
						return printJSON(cmd.OutOrStdout(), map[string]int{"removed": removed})
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", removed)
					return nil
				})
			},
		},
	)

	return cmd
}
