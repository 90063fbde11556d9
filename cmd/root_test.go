package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sojunghan/territory-cli/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"search", "claim", "list", "owners", "remove", "rename-owner", "rename-branch", "migrate", "serve", "import"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "territory", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestListCommand_Flags(t *testing.T) {
	flag := listCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "table", flag.DefValue)
	assert.NotNil(t, listCmd.Flags().Lookup("owner"))
}

func TestRemoveCommand_Flags(t *testing.T) {
	for _, name := range []string{"id", "owner", "branch", "place"} {
		assert.NotNil(t, removeCmd.Flags().Lookup(name), "remove should have --%s flag", name)
	}
}

func TestRenameCommands_Args(t *testing.T) {
	assert.Error(t, renameOwnerCmd.Args(renameOwnerCmd, []string{"only-one"}))
	assert.NoError(t, renameOwnerCmd.Args(renameOwnerCmd, []string{"A", "B"}))
	assert.NoError(t, renameBranchCmd.Args(renameBranchCmd, []string{"A", "", "본점"}))
}

func parseClaimFlags(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "claim"}
	addClaimFlags(cmd)
	require.NoError(t, cmd.ParseFlags(flags))
	return cmd
}

func TestClaimRequestFromFlags_Query(t *testing.T) {
	cmd := parseClaimFlags(t, "--owner", "박선희", "--branch", "서구점", "--choice", "2")

	req, err := claimRequestFromFlags(cmd, []string{"부산", "암남동"})
	require.NoError(t, err)
	assert.Equal(t, "박선희", req.Owner)
	assert.Equal(t, "서구점", req.Branch)
	assert.Equal(t, "부산 암남동", req.Query)
	assert.Equal(t, 2, req.Choice)
	assert.Nil(t, req.Location)
}

func TestClaimRequestFromFlags_Location(t *testing.T) {
	cmd := parseClaimFlags(t, "--owner", "A", "--place", "시청", "--lat", "35.1796", "--lon", "129.0756", "--kind", "area")

	req, err := claimRequestFromFlags(cmd, nil)
	require.NoError(t, err)
	require.NotNil(t, req.Location)
	assert.InDelta(t, 35.1796, req.Location.Lat, 1e-9)
	assert.Equal(t, model.KindArea, req.Kind)
}

func TestClaimRequestFromFlags_Errors(t *testing.T) {
	_, err := claimRequestFromFlags(parseClaimFlags(t, "--owner", "A", "--lat", "35"), nil)
	assert.ErrorContains(t, err, "--lat and --lon must be given together")

	_, err = claimRequestFromFlags(parseClaimFlags(t, "--owner", "A", "--lat", "35", "--lon", "129"), nil)
	assert.ErrorContains(t, err, "--place is required")

	_, err = claimRequestFromFlags(parseClaimFlags(t, "--owner", "A", "--kind", "circle"), []string{"q"})
	assert.Error(t, err)
}
