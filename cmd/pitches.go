package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/utils"
)

var pitchesCmd = &cobra.Command{
	Use:   "pitches",
	Short: "List saved pitches, newest first",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		env := setup(ctx)
		defer env.close()

		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")

		pitches, err := env.store.Pitches(ctx, limit)
		if err != nil {
			env.logger.Fatal("listing pitches", zap.Error(err))
		}

		rows := make([][]string, 0, len(pitches))
		for _, p := range pitches {
			rows = append(rows, []string{
				p.CreatedAt.Local().Format("2006-01-02 15:04"),
				utils.TruncateForLog(p.Abstract, 60),
				p.Industry,
				p.Specialization,
				strconv.Itoa(p.MatchesFound),
				strings.Join(p.TopOutlets, ", "),
			})
		}

		asTable, err := useTable(format)
		if err != nil {
			env.logger.Fatal("printing pitches", zap.Error(err))
		}
		if err := printOutput(os.Stdout, asTable, pitches,
			[]string{"Created", "Abstract", "Industry", "Specialization", "Matches", "Top outlets"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		); err != nil {
			env.logger.Fatal("printing pitches", zap.Error(err))
		}
	},
}

func init() {
	pitchesCmd.Flags().IntP("limit", "l", 20, "maximum number of pitches, 0 for all")
	pitchesCmd.Flags().String("format", formatAuto, "output format: auto, table or json")

	rootCmd.AddCommand(pitchesCmd)
}
