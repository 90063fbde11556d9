package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var renameOwnerCmd = &cobra.Command{
	Use:   "rename-owner <old> <new>",
	Short: "Move every claim of an owner to a new name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Registry.RenameOwner(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Renamed %d claim(s) from %s to %s\n", n, args[0], args[1])
		return nil
	},
}

var renameBranchCmd = &cobra.Command{
	Use:   "rename-branch <owner> <old> <new>",
	Short: "Relabel one branch of an owner",
	Long:  "Relabels an owner's branch. Pass \"\" as <old> to file direct claims under a branch.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Registry.RenameBranch(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Renamed %d claim(s) of %s from %q to %q\n", n, args[0], args[1], args[2])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameOwnerCmd)
	rootCmd.AddCommand(renameBranchCmd)
}
