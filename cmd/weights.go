package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/feedback"
	"github.com/spigell/outlet-matcher/internal/matching"
)

type weightRow struct {
	Field     string  `json:"field"`
	Weight    float64 `json:"weight"`
	Successes int     `json:"successes"`
	Total     int     `json:"total"`
}

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show the effective field weights",
	Long: `Show the field weights after configured overrides and feedback recalibration.
With --set the overrides are applied on top for a preview; they are not saved.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		env := setup(ctx)
		defer env.close()

		set, _ := cmd.Flags().GetStringToString("set")
		format, _ := cmd.Flags().GetString("format")

		overrides := make(map[string]float64, len(set))
		for key, raw := range set {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				env.logger.Fatal("parsing weight", zap.String("field", key), zap.Error(err))
			}
			overrides[key] = v
		}
		overrides, err := canonicalWeights(overrides)
		if err != nil {
			env.logger.Fatal("parsing weights", zap.Error(err))
		}

		matcher, err := env.newMatcher(ctx)
		if err != nil {
			env.logger.Fatal("creating a matcher", zap.Error(err))
		}

		weights := matcher.Weights()
		if len(overrides) > 0 {
			if weights, err = matcher.SetWeights(overrides); err != nil {
				env.logger.Fatal("applying weights", zap.Error(err))
			}
		}

		records, err := env.store.Feedback(ctx)
		if err != nil {
			env.logger.Fatal("reading feedback", zap.Error(err))
		}
		rates := feedback.SuccessRates(records)

		out := make([]weightRow, 0, len(matching.Fields))
		rows := make([][]string, 0, len(matching.Fields))
		for _, field := range matching.Fields {
			rate := rates[field]
			out = append(out, weightRow{Field: field, Weight: weights[field], Successes: rate.Successes, Total: rate.Total})
			rows = append(rows, []string{
				field,
				strconv.FormatFloat(weights[field], 'f', 2, 64),
				fmt.Sprintf("%d/%d", rate.Successes, rate.Total),
			})
		}

		asTable, err := useTable(format)
		if err != nil {
			env.logger.Fatal("printing weights", zap.Error(err))
		}
		if err := printOutput(os.Stdout, asTable, out,
			[]string{"Field", "Weight", "Successes"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignRight},
		); err != nil {
			env.logger.Fatal("printing weights", zap.Error(err))
		}
	},
}

func init() {
	weightsCmd.Flags().StringToString("set", nil, "preview overrides, e.g. --set Prestige=2")
	weightsCmd.Flags().String("format", formatAuto, "output format: auto, table or json")

	rootCmd.AddCommand(weightsCmd)
}
