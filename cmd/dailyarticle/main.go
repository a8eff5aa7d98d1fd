package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/dailyarticle/bootstrap"
	"github.com/pevans/dailyarticle/config"
	"github.com/pevans/dailyarticle/logging"
	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// cli holds the global flags shared by every command.
type cli struct {
	configPath string
	verbose    bool
	format     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "dailyarticle",
		Short: "dailyarticle - one news article a day, drawn by topic",
		Long: `dailyarticle scrapes a fixed set of news sources, classifies each article
into a topic, and picks one article per day with a weighted topic draw.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.format != formatText && c.format != formatJSON {
				return fmt.Errorf("invalid format %q (valid: text, json)", c.format)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: ./dailyarticle.yaml or ~/.dailyarticle/dailyarticle.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&c.format, "format", "f", formatText, "output format: text or json")

	root.AddCommand(
		todayCmd(c),
		reloadCmd(c),
		topicCmd(c),
		topicsCmd(c),
		scrapeCmd(c),
		statusCmd(c),
		cacheCmd(c),
		serveCmd(c),
	)

	return root
}

// openApp loads configuration and builds the application.
func (c *cli) openApp() (*bootstrap.App, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if c.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:       level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, err
	}

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return app, nil
}

// withApp runs fn against a freshly built application and closes it after.
func (c *cli) withApp(fn func(app *bootstrap.App) error) error {
	app, err := c.openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app)
}
