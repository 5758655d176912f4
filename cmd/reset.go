package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/bmc/internal/progress"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear saved unit progress",
	Long: "reset deletes every completion flag and the remembered active unit.\n" +
		"The completion journal is kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("reset clears all progress; pass --yes to confirm")
		}

		e, err := newEnv(cmd, envOptions{writer: true})
		if err != nil {
			return err
		}
		defer e.Close()

		if err := progress.NewStore(e.store.LocalStorage(), e.logger).Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Progress cleared.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
