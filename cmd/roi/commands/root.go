package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/roi/internal/constants"
)

// NewRootCommand creates the roi command with every subcommand attached.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "roi",
		Short: "ROI Solutions API CLI",
		Long: `A command-line interface for the ROI Solutions donor management REST API.

Log on once with 'roi login'; the session is cached until midnight of the
API's day and reused by every other command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.roi/config.yml)")
	flags.String("base-url", "", "API base URL (default "+constants.DefaultBaseURL+")")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("cache-type", "", "session cache (file, memory, nats, sqlite, none; default file)")
	flags.String("cache-path", "", "file or sqlite cache location")
	flags.String("nats-url", "", "NATS server for the nats cache")

	// Bind flags to viper
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("cache_type", flags.Lookup("cache-type"))
	_ = viper.BindPFlag("cache_path", flags.Lookup("cache-path"))
	_ = viper.BindPFlag("nats_url", flags.Lookup("nats-url"))

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewLogoutCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewPingCommand())
	rootCmd.AddCommand(NewTimeCommand())
	rootCmd.AddCommand(NewDonorsCommand())

	return rootCmd
}

func initConfig(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		// Search config in ~/.roi/config.yml
		viper.AddConfigPath(filepath.Join(home, configDirName))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// ROI_BASE_URL, ROI_USER_ID, ROI_PASSWORD, ...
	viper.SetEnvPrefix("ROI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err == nil && viper.GetBool("verbose") {
		_, _ = fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	switch output := viper.GetString("output"); output {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML, "":
		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownOutputFormat, output)
	}
}
