package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/bmc/internal/progress"
	"github.com/abhisek/bmc/internal/tracker"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show unit completion and the exam gate",
	RunE: func(cmd *cobra.Command, args []string) error {
		showJournal, _ := cmd.Flags().GetBool("journal")

		e, err := newEnv(cmd, envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		cat, err := e.loader.Load(ctx)
		if err != nil {
			return err
		}

		// Read-only: the record is not back-filled or written.
		rec, activeID := progress.NewStore(e.store.LocalStorage(), e.logger).Load(ctx)
		state := tracker.State{Catalog: cat, Progress: rec, ActiveID: activeID}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Catalog:  %s\nDatabase: %s\n\n", e.loader.Source(), e.store.Path())
		rows := make([][]string, 0, cat.Len())
		for _, it := range tracker.ListView(state, cat.Units()) {
			status := "open"
			if it.Completed {
				status = "done"
			}
			marker := ""
			if it.Active {
				marker = "*"
			}
			rows = append(rows, []string{marker, it.Unit.ID, it.Unit.Title, status})
		}
		fmt.Fprintln(out, renderTable([]string{"", "ID", "Title", "Status"}, rows, nil))

		gate := tracker.GateView(state)
		fmt.Fprintf(out, "\nProgress: %s (%d%%)\n", tracker.CountLabel(gate.Summary), gate.Summary.Percent)
		if gate.Enabled {
			fmt.Fprintf(out, "Final exam: unlocked (%s)\n", e.cfg.ExamURL)
		} else {
			fmt.Fprintln(out, "Final exam: locked")
		}

		if !showJournal {
			return nil
		}
		events, err := e.store.JournalRepo().Completions(ctx)
		if err != nil {
			return fmt.Errorf("read journal: %w", err)
		}
		jrows := make([][]string, 0, len(events))
		for _, ev := range events {
			title := ev.UnitID
			if u, ok := cat.Find(ev.UnitID); ok {
				title = u.Title
			}
			jrows = append(jrows, []string{
				strconv.FormatInt(ev.Sequence, 10),
				ev.CompletedAt.Local().Format("2006-01-02 15:04"),
				ev.UnitID,
				title,
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"#", "Completed", "ID", "Title"}, jrows, []columnAlignment{alignRight}))
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("journal", false, "Also list the completion journal")
}
