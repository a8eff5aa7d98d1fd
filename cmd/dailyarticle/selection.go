package main

import (
	"github.com/pevans/dailyarticle/article"
	"github.com/pevans/dailyarticle/bootstrap"
	"github.com/spf13/cobra"
)

// articleOutput is the JSON form of a printed article.
type articleOutput struct {
	Date    string       `json:"date,omitempty"`
	Topic   string       `json:"topic,omitempty"`
	Article article.View `json:"article"`
}

func todayCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's article, selecting one if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(app *bootstrap.App) error {
				a, err := app.Selector.Today(cmd.Context())
				if err != nil {
					return err
				}
				return c.printSelection(cmd, app, a)
			})
		},
	}
}

func reloadCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Replace today's article with a new draw",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(app *bootstrap.App) error {
				a, err := app.Selector.Reload(cmd.Context())
				if err != nil {
					return err
				}
				return c.printSelection(cmd, app, a)
			})
		},
	}
}

func topicCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "topic <key>",
		Short: "Show a random article on one topic without changing today's article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(app *bootstrap.App) error {
				topic, err := app.Topics.Resolve(args[0])
				if err != nil {
					return err
				}

				a, err := app.Selector.ByTopic(cmd.Context(), topic)
				if err != nil {
					return err
				}

				view := article.NewView(a, app.Topics)
				if c.format == formatJSON {
					return printJSON(cmd.OutOrStdout(), articleOutput{Topic: string(topic), Article: view})
				}
				printArticle(cmd.OutOrStdout(), view, "")
				return nil
			})
		},
	}
}

func topicsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the topic table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(app *bootstrap.App) error {
				if c.format == formatJSON {
					return printJSON(cmd.OutOrStdout(), app.Topics.Topics)
				}
				printTopics(cmd.OutOrStdout(), app.Topics)
				return nil
			})
		},
	}
}

// printSelection prints the selected article with today's date.
func (c *cli) printSelection(cmd *cobra.Command, app *bootstrap.App, a *article.Article) error {
	date := ""
	if sel := app.Selector.Current(); sel != nil {
		date = sel.Date
	}

	view := article.NewView(a, app.Topics)
	if c.format == formatJSON {
		return printJSON(cmd.OutOrStdout(), articleOutput{Date: date, Article: view})
	}
	printArticle(cmd.OutOrStdout(), view, date)
	return nil
}
