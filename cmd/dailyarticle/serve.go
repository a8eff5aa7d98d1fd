package main

import (
	"github.com/pevans/dailyarticle/api"
	"github.com/pevans/dailyarticle/bootstrap"
	"github.com/spf13/cobra"
)

func serveCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(app *bootstrap.App) error {
				if addr == "" {
					addr = app.Config.API.Addr
				}
				return api.NewAPIServer(api.Options{
					Selector: app.Selector,
					Topics:   app.Topics,
					Sources:  app.Sources,
					Runs:     app.RunLog,
					Cache:    app.Cache,
					Settings: app.Config,
					Logger:   app.Logger,
				}).Serve(cmd.Context(), addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config api.addr)")

	return cmd
}
