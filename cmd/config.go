package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/bmc/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			p, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		if err := config.CreateSample(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
