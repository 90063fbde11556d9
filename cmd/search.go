package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sojunghan/territory-cli/internal/geo"
	"github.com/sojunghan/territory-cli/pkg/geocode"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Geocode a place and show how it would be claimed",
	Long:  "Geocodes a query and lists the candidates. With --file, geocodes one query per line in parallel and prints the top candidate of each.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		file, _ := cmd.Flags().GetString("file")
		if file == "" && len(args) == 0 {
			return eris.New("search requires a query or --file")
		}

		env, err := initEnv(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		if file != "" {
			queries, err := readQueries(file)
			if err != nil {
				return err
			}
			return batchSearch(ctx, os.Stdout, env.Geocoder, queries)
		}

		matches, err := env.Service.Search(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, matches)
		}
		formatMatches(os.Stdout, matches)
		fmt.Fprintln(os.Stderr, "Claim a result with: territory claim --owner <name> --choice <#>", strings.Join(args, " "))
		return nil
	},
}

// readQueries returns the non-blank lines of path.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open query file")
	}
	defer f.Close() //nolint:errcheck

	var queries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if q := strings.TrimSpace(sc.Text()); q != "" {
			queries = append(queries, q)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "read query file")
	}
	return queries, nil
}

// batchSearch geocodes queries in parallel and writes the top candidate of
// each, in input order.
func batchSearch(ctx context.Context, out io.Writer, gc *geocode.CascadeClient, queries []string) error {
	results := gc.BatchSearch(ctx, queries)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "QUERY\tKIND\tLAT\tLON\tADDRESS")
	for _, r := range results {
		switch {
		case r.Err != nil:
			_, _ = fmt.Fprintf(w, "%s\terror: %v\t\t\t\n", r.Query, r.Err)
		case len(r.Candidates) == 0:
			_, _ = fmt.Fprintf(w, "%s\tno match\t\t\t\n", r.Query)
		default:
			top := geo.Prioritize(r.Candidates)[0]
			_, _ = fmt.Fprintf(w, "%s\t%s\t%.6f\t%.6f\t%s\n",
				r.Query, geo.Classify(r.Query, top), top.Location.Lat, top.Location.Lon, top.Address)
		}
	}
	return w.Flush()
}

func init() {
	searchCmd.Flags().Bool("json", false, "print candidates as JSON")
	searchCmd.Flags().String("file", "", "file with one query per line")
	rootCmd.AddCommand(searchCmd)
}
