package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sojunghan/territory-cli/internal/geo"
	"github.com/sojunghan/territory-cli/internal/model"
	"github.com/sojunghan/territory-cli/internal/territory"
)

// Output formats accepted by --format.
const (
	formatTable   = "table"
	formatJSON    = "json"
	formatYAML    = "yaml"
	formatGeoJSON = "geojson"
)

// writeClaims renders claims in the requested format.
func writeClaims(out io.Writer, claims []model.Claim, format string, radii model.Radii) error {
	switch format {
	case formatTable, "":
		formatClaimsTable(out, claims)
		return nil
	case formatJSON:
		return writeJSON(out, claims)
	case formatYAML:
		return writeYAML(out, claims)
	case formatGeoJSON:
		b, err := geo.MarshalClaims(claims, geo.FeatureOptions{Radii: radii})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	default:
		return eris.Errorf("unknown format %q (table, json, yaml, geojson)", format)
	}
}

// formatClaimsTable writes a tabular list of claims to out.
func formatClaimsTable(out io.Writer, claims []model.Claim) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tOWNER\tKIND\tLAT\tLON\tADDRESS")
	_, _ = fmt.Fprintln(w, "--\t-----\t----\t---\t---\t-------")

	for _, c := range claims {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.6f\t%.6f\t%s\n",
			truncateID(c.ID),
			c.Key(),
			c.Kind,
			c.Location.Lat,
			c.Location.Lon,
			c.Address,
		)
	}
	_ = w.Flush()
}

// formatMatches writes numbered search candidates to out. The number is
// the --choice value for claim.
func formatMatches(out io.Writer, matches []territory.Match) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tNAME\tKIND\tLAT\tLON\tADDRESS")
	for i, m := range matches {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%.6f\t%.6f\t%s\n",
			i, m.Name, m.Kind, m.Location.Lat, m.Location.Lon, m.Address)
	}
	_ = w.Flush()
}

// formatOwners writes each owner with its claim counts, branches indented.
func formatOwners(out io.Writer, owners []model.OwnerSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "OWNER\tCLAIMS\tDIRECT")
	for _, o := range owners {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", o.Owner, o.Claims, o.Direct)
		for _, b := range o.Branches {
			_, _ = fmt.Fprintf(w, "  %s\t%d\t\n", b.Name, b.Claims)
		}
	}
	_ = w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode yaml")
	}
	return enc.Close()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
