package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/bmc/internal/tracker"
)

var completeCmd = &cobra.Command{
	Use:   "complete <unit-id>",
	Short: "Select a unit and mark it complete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd, envOptions{writer: true})
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		if _, err := e.start(ctx, ""); err != nil {
			return err
		}

		id := args[0]
		ok, err := e.ctrl.SelectUnit(ctx, id)
		if !ok {
			return fmt.Errorf("unknown unit %q", id)
		}
		if err != nil {
			return fmt.Errorf("select unit: %w", err)
		}
		if _, err := e.ctrl.CompleteActiveUnit(ctx); err != nil {
			return fmt.Errorf("complete unit: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, e.ctrl.Message())
		fmt.Fprintf(out, "Progress: %s (%d%%)\n", tracker.CountLabel(e.ctrl.Summary()), e.ctrl.Summary().Percent)
		if e.ctrl.Gate().Enabled {
			fmt.Fprintln(out, "Final exam unlocked. Run `bmc exam` to open it.")
		}
		return nil
	},
}

var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "Open the final exam once every unit is complete",
	RunE: func(cmd *cobra.Command, args []string) error {
		printOnly, _ := cmd.Flags().GetBool("print")

		e, err := newEnv(cmd, envOptions{writer: true})
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		if _, err := e.start(ctx, ""); err != nil {
			return err
		}

		gate := e.ctrl.Gate()
		if !gate.Enabled {
			return fmt.Errorf("%w: %s complete", tracker.ErrExamLocked, gate.Hint)
		}
		if printOnly {
			fmt.Fprintln(cmd.OutOrStdout(), e.ctrl.ExamURL())
			return nil
		}
		if err := e.ctrl.OpenExam(ctx); err != nil {
			if errors.Is(err, tracker.ErrExamLocked) {
				return err
			}
			// No handler available; the URL is still useful.
			fmt.Fprintln(cmd.OutOrStdout(), e.ctrl.ExamURL())
			return err
		}
		return nil
	},
}

func init() {
	examCmd.Flags().Bool("print", false, "Print the exam URL instead of opening it")
}
