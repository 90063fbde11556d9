package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sojunghan/territory-cli/internal/model"
	"github.com/sojunghan/territory-cli/internal/registry"
	"github.com/sojunghan/territory-cli/internal/territory"
)

var claimCmd = &cobra.Command{
	Use:   "claim [query...]",
	Short: "Claim a place for an owner",
	Long: "Claims the place found for the query (pick a search result with --choice), " +
		"or an explicit --lat/--lon. The claim is rejected when it overlaps another owner's territory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := claimRequestFromFlags(cmd, args)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		c, err := env.Service.Claim(ctx, req)
		if err != nil {
			var ce *registry.ConflictError
			if errors.As(err, &ce) {
				return fmt.Errorf("claim rejected: %s", ce.Error())
			}
			return err
		}

		fmt.Fprintf(os.Stdout, "Claimed %s as %s (%s) id=%s\n", c.Key(), c.Kind, c.Location, c.ID)
		return nil
	},
}

// claimRequestFromFlags builds a ClaimRequest from the claim flags and
// positional query words.
func claimRequestFromFlags(cmd *cobra.Command, args []string) (territory.ClaimRequest, error) {
	owner, _ := cmd.Flags().GetString("owner")
	branch, _ := cmd.Flags().GetString("branch")
	place, _ := cmd.Flags().GetString("place")
	address, _ := cmd.Flags().GetString("address")
	choice, _ := cmd.Flags().GetInt("choice")
	kind, _ := cmd.Flags().GetString("kind")

	req := territory.ClaimRequest{
		Owner:   owner,
		Branch:  branch,
		Place:   place,
		Query:   strings.Join(args, " "),
		Choice:  choice,
		Address: address,
	}

	latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
	if latSet != lonSet {
		return req, eris.New("--lat and --lon must be given together")
	}
	if latSet {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		req.Location = &model.GeoPoint{Lat: lat, Lon: lon}
		if req.Place == "" && req.Query == "" {
			return req, eris.New("--place is required with --lat/--lon")
		}
	}

	if kind != "" {
		k, err := model.ParseClaimKind(kind)
		if err != nil {
			return req, err
		}
		req.Kind = k
	}
	return req, nil
}

func addClaimFlags(cmd *cobra.Command) {
	cmd.Flags().String("owner", "", "owner name (required)")
	cmd.Flags().String("branch", "", "branch under the owner")
	cmd.Flags().String("place", "", "label stored with the claim (defaults to the query)")
	cmd.Flags().String("address", "", "address stored with the claim")
	cmd.Flags().Int("choice", 0, "index of the search result to claim")
	cmd.Flags().Float64("lat", 0, "latitude of an explicit location")
	cmd.Flags().Float64("lon", 0, "longitude of an explicit location")
	cmd.Flags().String("kind", "", "POINT or AREA for an explicit location (default derived from --place)")
	_ = cmd.MarkFlagRequired("owner")
}

func init() {
	addClaimFlags(claimCmd)
	rootCmd.AddCommand(claimCmd)
}
