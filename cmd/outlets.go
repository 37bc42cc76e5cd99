package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/directory"
	"github.com/spigell/outlet-matcher/internal/secrets"
)

var outletsCmd = &cobra.Command{
	Use:   "outlets",
	Short: "Manage the outlet catalog",
}

var outletsImportCmd = &cobra.Command{
	Use:   "import <file-or-url>",
	Short: "Import outlets from a JSON/YAML file or a remote directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := setup(ctx)
		defer env.close()

		source := args[0]

		var token string
		if directory.IsRemote(source) {
			var err error
			token, err = secrets.Load(secrets.Source{
				Name: "directory token",
				File: env.config.Directory.TokenFile,
				Env:  "OUTLET_MATCHER_DIRECTORY_TOKEN",
			})
			switch {
			case errors.Is(err, secrets.ErrNotConfigured):
				env.logger.Debug("no directory token configured, fetching anonymously")
			case err != nil:
				env.logger.Fatal("loading directory token", zap.Error(err),
					zap.String("hint", "set OUTLET_MATCHER_DIRECTORY_TOKEN or OUTLET_MATCHER_DIRECTORY_TOKEN_FILE"),
				)
			}
		}

		outlets, err := directory.New(env.logger, token).Load(ctx, source)
		if err != nil {
			env.logger.Fatal("loading outlets", zap.Error(err), zap.String("source", source))
		}

		n, err := env.store.UpsertOutlets(ctx, outlets)
		if err != nil {
			env.logger.Fatal("importing outlets", zap.Error(err))
		}

		env.logger.Info("outlets imported", zap.Int("count", n), zap.String("source", source))
	},
}

var outletsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the outlet catalog",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		env := setup(ctx)
		defer env.close()

		format, _ := cmd.Flags().GetString("format")

		outlets, err := env.store.Outlets(ctx)
		if err != nil {
			env.logger.Fatal("listing outlets", zap.Error(err))
		}

		rows := make([][]string, 0, outlets.Len())
		for _, o := range outlets.Items {
			rows = append(rows, []string{o.Key(), o.Name, o.Prestige, o.SectionName, o.FeedURL})
		}

		asTable, err := useTable(format)
		if err != nil {
			env.logger.Fatal("printing outlets", zap.Error(err))
		}
		if err := printOutput(os.Stdout, asTable, outlets.Items,
			[]string{"ID", "Name", "Prestige", "Section", "Feed"}, rows, nil,
		); err != nil {
			env.logger.Fatal("printing outlets", zap.Error(err))
		}
	},
}

var outletsDeleteCmd = &cobra.Command{
	Use:   "delete <outlet-id>",
	Short: "Delete an outlet and its recent articles",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := setup(ctx)
		defer env.close()

		if err := env.store.DeleteOutlet(ctx, args[0]); err != nil {
			env.logger.Fatal("deleting outlet", zap.Error(err), zap.String("outlet", args[0]))
		}
		env.logger.Info("outlet deleted", zap.String("outlet", args[0]))
	},
}

func init() {
	outletsListCmd.Flags().String("format", formatAuto, "output format: auto, table or json")

	outletsCmd.AddCommand(outletsImportCmd, outletsListCmd, outletsDeleteCmd)
	rootCmd.AddCommand(outletsCmd)
}
