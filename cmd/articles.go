package cmd

import (
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/news"
	"github.com/spigell/outlet-matcher/internal/outlet"
)

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Manage recent coverage of outlets",
}

var articlesRefreshCmd = &cobra.Command{
	Use:   "refresh [outlet-id...]",
	Short: "Fetch recent articles from outlet feeds",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := setup(ctx)
		defer env.close()

		outlets, err := env.store.Outlets(ctx)
		if err != nil {
			env.logger.Fatal("listing outlets", zap.Error(err))
		}

		targets := feedTargets(outlets, args)
		if len(targets) == 0 {
			env.logger.Warn("no outlet has a feed url", zap.Strings("requested", args))
			return
		}

		client := news.New(env.logger)
		cfg := env.config.News
		if cfg.MaxItems > 0 {
			client.MaxItems = cfg.MaxItems
		}
		if cfg.MaxAge > 0 {
			client.MaxAge = cfg.MaxAge
		}
		if cfg.UserAgent != "" {
			client.UserAgent = cfg.UserAgent
		}
		client.Delay = cfg.Delay

		matcher, err := env.newMatcher(ctx)
		if err != nil {
			env.logger.Fatal("creating a matcher", zap.Error(err))
		}

		articles, errs := client.Refresh(ctx, targets)

		ids := make([]string, 0, len(articles))
		for id := range articles {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			if err := matcher.UpdateRecentArticles(ctx, id, articles[id]); err != nil {
				env.logger.Error("saving articles", zap.String("outlet", id), zap.Error(err))
				errs[id] = err
			}
		}

		env.logger.Info("articles refreshed",
			zap.Int("feeds", len(targets)),
			zap.Int("updated", len(articles)),
			zap.Int("failed", len(errs)),
		)
		if len(errs) > 0 {
			os.Exit(1)
		}
	},
}

var articlesListCmd = &cobra.Command{
	Use:   "list <outlet-id>",
	Short: "Show the stored articles of an outlet",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := setup(ctx)
		defer env.close()

		format, _ := cmd.Flags().GetString("format")

		all, err := env.store.Articles(ctx)
		if err != nil {
			env.logger.Fatal("reading articles", zap.Error(err))
		}
		articles := all[args[0]]

		rows := make([][]string, 0, len(articles))
		for _, a := range articles {
			published := ""
			if !a.PublishedAt.IsZero() {
				published = a.PublishedAt.Format("2006-01-02")
			}
			rows = append(rows, []string{published, a.Title, a.URL})
		}

		asTable, err := useTable(format)
		if err != nil {
			env.logger.Fatal("printing articles", zap.Error(err))
		}
		if err := printOutput(os.Stdout, asTable, articles, []string{"Published", "Title", "URL"}, rows, nil); err != nil {
			env.logger.Fatal("printing articles", zap.Error(err))
		}
	},
}

func init() {
	articlesListCmd.Flags().String("format", formatAuto, "output format: auto, table or json")

	articlesCmd.AddCommand(articlesRefreshCmd, articlesListCmd)
	rootCmd.AddCommand(articlesCmd)
}

// feedTargets returns the outlets with a feed, restricted to ids when given.
func feedTargets(outlets *outlet.Outlets, ids []string) []news.Target {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var targets []news.Target
	for _, o := range outlets.Items {
		if o.FeedURL == "" {
			continue
		}
		if len(wanted) > 0 && !wanted[o.Key()] {
			continue
		}
		targets = append(targets, news.Target{OutletID: o.Key(), FeedURL: o.FeedURL})
	}
	return targets
}
