package commands

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/roi/internal/constants"
)

func TestNewDonorsCommand(t *testing.T) {
	t.Parallel()

	cmd := NewDonorsCommand()
	assert.Equal(t, "donors", cmd.Use)
	assert.Equal(t, []string{"donor", "d"}, cmd.Aliases)
	assert.Equal(t, "Manage donors", cmd.Short)

	// Check subcommands are added
	subcommands := cmd.Commands()
	assert.Len(t, subcommands, 5)

	var commandNames []string
	for _, subcmd := range subcommands {
		commandNames = append(commandNames, subcmd.Name())
	}

	assert.Contains(t, commandNames, "get")
	assert.Contains(t, commandNames, "search")
	assert.Contains(t, commandNames, "add")
	assert.Contains(t, commandNames, "emails")
	assert.Contains(t, commandNames, "memberships")
}

func TestDonorsGetCommand(t *testing.T) {
	t.Parallel()

	cmd := newDonorsGetCommand()
	assert.Equal(t, "get ROI_FAMILY_ID", cmd.Use)
	assert.NotNil(t, cmd.RunE)
	require.Error(t, cmd.Args(cmd, nil))
	require.NoError(t, cmd.Args(cmd, []string{"1234567"}))
}

func TestDonorsSearchCommand(t *testing.T) {
	t.Parallel()

	cmd := newDonorsSearchCommand()
	assert.Equal(t, "search", cmd.Use)
	assert.NotNil(t, cmd.RunE)

	flags := []string{
		"email", "name-first", "name-last", "street", "city", "state",
		"postal-code", "phone", "external-id", "external-id-type", "page", "limit", "all",
	}
	for _, flagName := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}

	assert.Equal(t, strconv.Itoa(constants.DefaultPageSize), cmd.Flags().Lookup("limit").DefValue)
	assert.Equal(t, "false", cmd.Flags().Lookup("all").DefValue)
}

func TestDonorsAddCommand(t *testing.T) {
	t.Parallel()

	cmd := newDonorsAddCommand()
	assert.Equal(t, "add", cmd.Use)

	flags := []string{"vendor", "name-last", "name-first", "name-middle", "name-prefix", "name-suffix", "do-not-contact"}
	for _, flagName := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}
}

func TestDonorEmailsCommand(t *testing.T) {
	t.Parallel()

	cmd := newDonorEmailsCommand()
	assert.Equal(t, "emails", cmd.Use)
	assert.Len(t, cmd.Commands(), 2)

	list := newDonorEmailsListCommand()
	assert.Equal(t, "list ROI_FAMILY_ID", list.Use)

	for _, flagName := range []string{"page", "limit", "all"} {
		assert.NotNil(t, list.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}

	add := newDonorEmailsAddCommand()
	assert.Equal(t, "add ROI_FAMILY_ID", add.Use)

	for _, flagName := range []string{"vendor", "email", "type", "verified", "bounced"} {
		assert.NotNil(t, add.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}
}

func TestDonorEmailsAddCommand_InvalidVerified(t *testing.T) {
	t.Parallel()

	cmd := newDonorEmailsAddCommand()
	require.NoError(t, cmd.Flags().Set("verified", "last tuesday"))

	err := cmd.RunE(cmd, []string{"1234567"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --verified value")
}

func TestDonorMembershipsCommand(t *testing.T) {
	t.Parallel()

	cmd := newDonorMembershipsCommand()
	assert.Equal(t, "memberships", cmd.Use)
	assert.Len(t, cmd.Commands(), 1)

	list := newDonorMembershipsListCommand()
	assert.Equal(t, "list ROI_FAMILY_ID", list.Use)
	assert.NotNil(t, list.Flags().Lookup("all"))
}

func TestSystemCommands(t *testing.T) {
	t.Parallel()

	ping := NewPingCommand()
	assert.Equal(t, "ping", ping.Use)
	assert.NotNil(t, ping.RunE)

	timeCmd := NewTimeCommand()
	assert.Equal(t, "time", timeCmd.Use)
	assert.NotNil(t, timeCmd.RunE)
}

func TestLoginCommand(t *testing.T) {
	t.Parallel()

	cmd := NewLoginCommand()
	assert.Equal(t, "login", cmd.Use)

	userFlag := cmd.Flags().Lookup("user-id")
	require.NotNil(t, userFlag)
	assert.Equal(t, "u", userFlag.Shorthand)

	passwordFlag := cmd.Flags().Lookup("password")
	require.NotNil(t, passwordFlag)
	assert.Equal(t, "p", passwordFlag.Shorthand)

	assert.NotNil(t, cmd.Flags().Lookup("client-code"))
	assert.Equal(t, "false", cmd.Flags().Lookup("save-password").DefValue)

	logout := NewLogoutCommand()
	assert.Equal(t, "logout", logout.Use)
}
