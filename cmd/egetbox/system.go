package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/egetbox"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/workspace"
)

func newSystemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "system",
		Short: "Print the detected os/arch system string",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), egetbox.DetectSystem())
			return nil
		},
	}
}

func newPruneCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove temp directories left behind by interrupted runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			olderThan, err := cmd.Flags().GetDuration("older-than")
			if err != nil {
				return err
			}
			dir, err := a.tmpDir()
			if err != nil {
				return err
			}
			removed, err := workspace.Prune(dir, olderThan)
			for _, root := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", root)
			}
			return err
		},
	}
	cmd.Flags().Duration("older-than", workspace.StaleThreshold, "only remove directories idle this long")
	return cmd
}

// tmpDir resolves the configured temp directory the way egetbox.New does.
func (a *app) tmpDir() (string, error) {
	_, tmpDir, err := egetbox.ResolveDirs(a.conf.Cwd, a.conf.TmpDir)
	return tmpDir, err
}
