package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/roi/internal/constants"
	"github.com/fivetwenty-io/roi/pkg/roi"
	"github.com/fivetwenty-io/roi/pkg/roiclient"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		userID       string
		clientCode   string
		password     string
		savePassword bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log on to the ROI Solutions API",
		Long:  "Log on with your user id, client code and password and cache the session until the API's day ends",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			config := loadConfig()
			if !config.persistsSession() {
				return fmt.Errorf("%w: %s", constants.ErrCacheNotDurable, config.CacheType)
			}

			reader := bufio.NewReader(cmd.InOrStdin())

			if userID == "" {
				userID = config.UserID
			}

			if userID == "" {
				userID = prompt(cmd.OutOrStdout(), reader, "User ID: ")
			}

			if userID == "" {
				return constants.ErrUserIDRequired
			}

			if clientCode == "" {
				clientCode = config.ClientCode
			}

			if clientCode == "" {
				clientCode = prompt(cmd.OutOrStdout(), reader, "Client code: ")
			}

			if clientCode == "" {
				return constants.ErrClientCodeRequired
			}

			if password == "" {
				password = config.Password
			}

			if password == "" {
				var err error

				password, err = readPassword(cmd.OutOrStdout(), reader)
				if err != nil {
					return err
				}
			}

			cache, closeCache, err := config.openTokenCache(ctx)
			if err != nil {
				return err
			}
			defer closeCache()

			config.UserID = userID
			config.ClientCode = clientCode
			config.Password = password

			client, err := roiclient.New(ctx, config.clientConfig(cache))
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer func() { _ = client.Close() }()

			// A fresh logon replaces whatever session the cache held.
			err = client.RefreshToken(ctx)
			if err != nil {
				return fmt.Errorf("failed to log on: %w", err)
			}

			fileConfig, err := loadFileConfig()
			if err != nil {
				return err
			}

			fileConfig.UserID = userID
			fileConfig.ClientCode = clientCode

			if config.BaseURL != "" {
				fileConfig.BaseURL = config.BaseURL
			}

			if savePassword {
				fileConfig.Password = password
			}

			err = saveConfigStruct(fileConfig)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged on to %s as %s (%s)\n",
				roiclient.NormalizeBaseURL(config.BaseURL), userID, clientCode)

			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user-id", "u", "", "user id for authentication")
	cmd.Flags().StringVar(&clientCode, "client-code", "", "client code for authentication")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for authentication")
	cmd.Flags().BoolVar(&savePassword, "save-password", false, "store the password in the config file")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached session",
		Long:  "Clear the cached session token and any saved password",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			config := loadConfig()

			cache, closeCache, err := config.openTokenCache(ctx)
			if err != nil {
				return err
			}
			defer closeCache()

			if cache != nil {
				client, err := roiclient.New(ctx, &roi.Config{BaseURL: config.BaseURL, TokenCache: cache})
				if err != nil {
					return fmt.Errorf("failed to create client: %w", err)
				}

				err = client.ClearSession(ctx)
				if err != nil {
					return fmt.Errorf("failed to clear session: %w", err)
				}
			}

			fileConfig, err := loadFileConfig()
			if err != nil {
				return err
			}

			if fileConfig.Password != "" {
				fileConfig.Password = ""

				err = saveConfigStruct(fileConfig)
				if err != nil {
					return fmt.Errorf("failed to save configuration: %w", err)
				}
			}

			viper.Set("password", "")

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}

func prompt(out io.Writer, reader *bufio.Reader, label string) string {
	_, _ = fmt.Fprint(out, label)

	line, _ := reader.ReadString('\n')

	return strings.TrimSpace(line)
}

// readPassword reads without echo from a terminal, and a plain line otherwise.
func readPassword(out io.Writer, reader *bufio.Reader) (string, error) {
	_, _ = fmt.Fprint(out, "Password: ")

	fd := int(os.Stdin.Fd()) // #nosec G115 -- file descriptors fit in int
	if term.IsTerminal(fd) {
		bytePassword, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(out)

		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		return string(bytePassword), nil
	}

	line, _ := reader.ReadString('\n')

	return strings.TrimSpace(line), nil
}
