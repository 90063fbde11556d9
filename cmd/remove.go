package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sojunghan/territory-cli/internal/model"
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a claim by id or by owner/branch/place",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		id, _ := cmd.Flags().GetString("id")
		owner, _ := cmd.Flags().GetString("owner")
		branch, _ := cmd.Flags().GetString("branch")
		place, _ := cmd.Flags().GetString("place")
		if id == "" && (owner == "" || place == "") {
			return eris.New("remove requires --id, or --owner and --place")
		}

		env, err := initEnv(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		var c model.Claim
		if id != "" {
			c, err = env.Registry.Remove(ctx, id)
		} else {
			c, err = env.Registry.RemoveByKey(ctx, model.Key{Owner: owner, Branch: branch, Place: place})
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Removed %s (id=%s)\n", c.Key(), c.ID)
		return nil
	},
}

func init() {
	removeCmd.Flags().String("id", "", "claim id")
	removeCmd.Flags().String("owner", "", "claim owner")
	removeCmd.Flags().String("branch", "", "claim branch")
	removeCmd.Flags().String("place", "", "claim place label")
	rootCmd.AddCommand(removeCmd)
}
