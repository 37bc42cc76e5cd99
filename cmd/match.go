package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/feedback"
	"github.com/spigell/outlet-matcher/internal/logger"
	"github.com/spigell/outlet-matcher/internal/matching"
	"github.com/spigell/outlet-matcher/internal/store"
	"github.com/spigell/outlet-matcher/internal/textutil"
	"github.com/spigell/outlet-matcher/internal/utils"
)

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatJSON  = "json"

	pitchTopOutlets = 5
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank outlets for a pitch",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		env := setup(ctx)
		defer env.close()

		flags := cmd.Flags()
		abstract, _ := flags.GetString("abstract")
		industry, _ := flags.GetString("industry")
		limit, _ := flags.GetInt("limit")
		save, _ := flags.GetBool("save")
		interactive, _ := flags.GetBool("interactive")
		format, _ := flags.GetString("format")

		if strings.TrimSpace(abstract) == "" {
			env.logger.Fatal("an abstract is required", zap.String("hint", "pass it with --abstract"))
		}
		if !flags.Changed("limit") {
			limit = env.config.Matching.Limit
		}

		matcher, err := env.newMatcher(ctx)
		if err != nil {
			env.logger.Fatal("creating a matcher", zap.Error(err))
		}

		query := matching.Query{Abstract: abstract, Industry: industry}
		specialty := matcher.Detect(query)
		log := logger.WithMatchFields(env.logger, specialty.Name, industry)
		log.Debug("matching pitch", zap.String("abstract", utils.TruncateForLog(abstract, 120)))

		results := matcher.FindMatches(ctx, query, limit)

		if save {
			if err := savePitch(ctx, env.store, query, specialty, results); err != nil {
				log.Error("saving the pitch", zap.Error(err))
			}
		}

		if err := printMatches(format, results); err != nil {
			log.Fatal("printing matches", zap.Error(err))
		}

		if interactive && len(results) > 0 {
			if err := reviewMatches(ctx, env, matcher, query, results); err != nil {
				log.Fatal("recording feedback", zap.Error(err))
			}
		}
	},
}

func init() {
	matchCmd.Flags().StringP("abstract", "a", "", "pitch abstract")
	matchCmd.Flags().StringP("industry", "i", "", "pitch industry")
	matchCmd.Flags().IntP("limit", "l", matching.DefaultLimit, "maximum number of outlets to show")
	matchCmd.Flags().Bool("save", false, "store the pitch and its top outlets")
	matchCmd.Flags().Bool("interactive", false, "pick a result and record feedback for it")
	matchCmd.Flags().String("format", formatAuto, "output format: auto, table or json")

	rootCmd.AddCommand(matchCmd)
}

func savePitch(ctx context.Context, s *store.Store, q matching.Query, specialty matching.Specialization, results []matching.Result) error {
	top := make([]string, 0, pitchTopOutlets)
	for i := 0; i < len(results) && i < pitchTopOutlets; i++ {
		top = append(top, results[i].Outlet.Name)
	}

	return s.SavePitch(ctx, &store.Pitch{
		Abstract:       q.Abstract,
		Industry:       q.Industry,
		Specialization: specialty.Name,
		MatchesFound:   len(results),
		TopOutlets:     top,
	})
}

func useTable(format string) (bool, error) {
	switch format {
	case formatAuto, "":
		return isTerminal(os.Stdout), nil
	case formatTable:
		return true, nil
	case formatJSON:
		return false, nil
	default:
		return false, fmt.Errorf("unknown output format %q", format)
	}
}

func printMatches(format string, results []matching.Result) error {
	asTable, err := useTable(format)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(results))
	for i, r := range results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.Outlet.Name,
			r.Confidence,
			r.Explanation,
		})
	}

	return printOutput(os.Stdout, asTable, results,
		[]string{"#", "Outlet", "Score", "Why"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	)
}

func reviewMatches(ctx context.Context, env *environment, matcher *matching.Matcher, q matching.Query, results []matching.Result) error {
	items := make([]string, 0, len(results))
	for _, r := range results {
		items = append(items, fmt.Sprintf("%s (%s)", r.Outlet.Name, textutil.Percent(r.Score)))
	}

	prompt := promptui.Select{
		Label: "Select an outlet to record feedback for",
		Items: items,
		Size:  10,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		return err
	}
	picked := results[idx]

	outcome := promptui.Select{
		Label: fmt.Sprintf("Did the pitch to %s succeed?", picked.Outlet.Name),
		Items: []string{"yes", "no"},
	}
	_, answer, err := outcome.Run()
	if err != nil {
		return err
	}

	note, err := (&promptui.Prompt{Label: "Note (optional)"}).Run()
	if err != nil && !errors.Is(err, promptui.ErrInterrupt) {
		return err
	}

	var rec *feedback.Record
	err = withFeedbackLock(ctx, env.config.FeedbackLock, func() error {
		var err error
		rec, err = matcher.RecordFeedback(ctx, matching.FeedbackInput{
			OutletID: picked.Outlet.Key(),
			Success:  answer == "yes",
			Note:     note,
			Query:    &q,
		})
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("Feedback for %s recorded (credited fields: %s)\n", picked.Outlet.Name, strings.Join(flaggedFields(rec), ", "))
	return nil
}
