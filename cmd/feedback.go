package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/feedback"
	"github.com/spigell/outlet-matcher/internal/matching"
)

const (
	lockRetryDelay = 200 * time.Millisecond
	lockTimeout    = 10 * time.Second
)

var errLockBusy = errors.New("feedback log is locked by another process")

var feedbackCmd = &cobra.Command{
	Use:   "feedback <outlet-id>",
	Short: "Record the outcome of a pitch and recalibrate the weights",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := setup(ctx)
		defer env.close()

		flags := cmd.Flags()
		success, _ := flags.GetBool("success")
		note, _ := flags.GetString("note")
		abstract, _ := flags.GetString("abstract")
		industry, _ := flags.GetString("industry")
		fields, _ := flags.GetStringSlice("field")
		history, _ := flags.GetBool("history")

		if history {
			if err := printHistory(cmd, env, args[0]); err != nil {
				env.logger.Fatal("printing feedback history", zap.Error(err))
			}
			return
		}

		in := matching.FeedbackInput{
			OutletID: args[0],
			Success:  success,
			Note:     note,
		}
		if abstract != "" {
			in.Query = &matching.Query{Abstract: abstract, Industry: industry}
		}
		if len(fields) > 0 {
			in.Fields = make(map[string]bool, len(fields))
			for _, name := range fields {
				field, ok := canonicalField(name)
				if !ok {
					env.logger.Fatal("unknown field", zap.String("field", name), zap.Strings("known", matching.Fields))
				}
				in.Fields[field] = true
			}
		}

		matcher, err := env.newMatcher(ctx)
		if err != nil {
			env.logger.Fatal("creating a matcher", zap.Error(err))
		}

		var rec *feedback.Record
		err = withFeedbackLock(ctx, env.config.FeedbackLock, func() error {
			var err error
			rec, err = matcher.RecordFeedback(ctx, in)
			return err
		})
		if err != nil {
			env.logger.Fatal("recording feedback", zap.Error(err), zap.String("outlet", in.OutletID))
		}

		fmt.Printf("Feedback %s recorded for %s (credited fields: %v)\n", rec.ID, rec.OutletID, flaggedFields(rec))
	},
}

func init() {
	feedbackCmd.Flags().Bool("success", false, "the pitch was accepted")
	feedbackCmd.Flags().StringP("note", "n", "", "free-form note")
	feedbackCmd.Flags().StringP("abstract", "a", "", "abstract of the pitch, used to credit the fields that matched")
	feedbackCmd.Flags().StringP("industry", "i", "", "industry of the pitch")
	feedbackCmd.Flags().StringSlice("field", nil, "credit a field explicitly (repeatable)")
	feedbackCmd.Flags().Bool("history", false, "show the recorded outcomes of the outlet instead of recording one")
	feedbackCmd.Flags().String("format", formatAuto, "history output format: auto, table or json")

	rootCmd.AddCommand(feedbackCmd)
}

// withFeedbackLock serializes feedback writes across processes. An empty path
// disables locking.
func withFeedbackLock(ctx context.Context, path string, fn func() error) error {
	if path == "" {
		return fn()
	}

	lock := flock.New(path)

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errLockBusy
		}
		return fmt.Errorf("acquiring feedback lock %s: %w", path, err)
	}
	if !locked {
		return errLockBusy
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}

func printHistory(cmd *cobra.Command, env *environment, outletID string) error {
	format, _ := cmd.Flags().GetString("format")

	all, err := env.store.Feedback(cmd.Context())
	if err != nil {
		return err
	}
	records := feedback.ForOutlet(all, outletID)

	rows := make([][]string, 0, len(records))
	for i := range records {
		outcome := "failure"
		if records[i].Success {
			outcome = "success"
		}
		rows = append(rows, []string{
			records[i].CreatedAt.Local().Format("2006-01-02 15:04"),
			outcome,
			strings.Join(flaggedFields(&records[i]), ", "),
			records[i].Note,
		})
	}

	asTable, err := useTable(format)
	if err != nil {
		return err
	}
	return printOutput(os.Stdout, asTable, records, []string{"Recorded", "Outcome", "Fields", "Note"}, rows, nil)
}

func flaggedFields(rec *feedback.Record) []string {
	var out []string
	for field, flagged := range rec.Fields {
		if flagged {
			out = append(out, field)
		}
	}
	sort.Strings(out)
	return out
}
