package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sojunghan/territory-cli/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Register claims from a CSV file",
	Long: "Registers one claim per CSV row in file order. The header names the columns: " +
		"owner (required), branch, place, query, lat, lon, kind, address. Rows with lat/lon " +
		"are claimed directly; rows with only a query take the first search result.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrap(err, "open import file")
		}
		defer f.Close() //nolint:errcheck

		env, err := initEnv(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		sum, err := importer.Import(ctx, env.Service, f)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, sum)
		}
		formatImportSummary(os.Stdout, sum)
		return nil
	},
}

// formatImportSummary writes per-row outcomes followed by totals.
func formatImportSummary(out io.Writer, sum *importer.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LINE\tKEY\tSTATUS\tDETAIL")
	for _, r := range sum.Results {
		detail := r.Error
		if r.Status == importer.StatusAccepted {
			detail = string(r.Claim.Kind) + " " + truncateID(r.Claim.ID)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.Line, r.Key, r.Status, detail)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d accepted, %d conflicts, %d failed\n", sum.Accepted, sum.Conflicts, sum.Failed)
}

func init() {
	importCmd.Flags().Bool("json", false, "print the summary as JSON")
	rootCmd.AddCommand(importCmd)
}
