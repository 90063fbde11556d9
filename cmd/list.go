package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered claims",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		owner, _ := cmd.Flags().GetString("owner")
		format, _ := cmd.Flags().GetString("format")

		claims := env.Registry.List(owner)
		if len(claims) == 0 && format == formatTable {
			fmt.Fprintln(os.Stderr, "No claims found.")
			return nil
		}
		return writeClaims(os.Stdout, claims, format, env.Registry.Radii())
	},
}

var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "Summarize claims per owner and branch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context(), cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		owners := env.Registry.Owners()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, owners)
		}
		if len(owners) == 0 {
			fmt.Fprintln(os.Stderr, "No owners found.")
			return nil
		}
		formatOwners(os.Stdout, owners)
		return nil
	},
}

func init() {
	listCmd.Flags().String("owner", "", "only list claims of this owner")
	listCmd.Flags().String("format", formatTable, "output format (table, json, yaml, geojson)")
	ownersCmd.Flags().Bool("json", false, "print summaries as JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(ownersCmd)
}
