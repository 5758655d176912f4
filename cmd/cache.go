package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/bmc/internal/offline"
)

var errCacheDisabled = errors.New("offline cache is disabled (cache.enabled = false)")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the offline asset cache",
}

var cacheInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Fetch every manifest asset and activate the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd, envOptions{writer: true})
		if err != nil {
			return err
		}
		defer e.Close()
		if e.worker == nil {
			return errCacheDisabled
		}

		ctx := cmd.Context()
		if err := e.worker.Install(ctx); err != nil {
			var failure *offline.CacheInstallFailure
			if errors.As(err, &failure) {
				return fmt.Errorf("install aborted, nothing was stored: %w", err)
			}
			return err
		}
		if err := e.worker.Activate(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %d assets into %s\n",
			len(e.worker.Manifest().Assets), e.worker.Manifest().Name)
		return nil
	},
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored caches",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd, envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()
		if e.worker == nil {
			return errCacheDisabled
		}

		st, err := e.worker.Status(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(st.Caches) == 0 {
			fmt.Fprintf(out, "No caches stored. Run `bmc cache install` to create %s.\n", st.Name)
			return nil
		}
		rows := make([][]string, 0, len(st.Caches))
		for _, c := range st.Caches {
			state := "stale"
			if c.Name == st.Name {
				state = "current"
			}
			rows = append(rows, []string{
				c.Name,
				state,
				strconv.Itoa(c.Entries),
				strconv.FormatInt(c.TotalBytes, 10),
			})
		}
		fmt.Fprintln(out, renderTable([]string{"Cache", "State", "Entries", "Bytes"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight}))
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every stored cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd, envOptions{writer: true})
		if err != nil {
			return err
		}
		defer e.Close()
		if e.worker == nil {
			return errCacheDisabled
		}

		if err := e.worker.Purge(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Offline cache purged.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheInstallCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}
