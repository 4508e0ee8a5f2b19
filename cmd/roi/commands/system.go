package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/roi/pkg/roi"
)

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the API is reachable",
		Long:  "Call the unauthenticated ping endpoint and print its reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPublicClient(cmd, func(ctx context.Context, client roi.Client) error {
				start := time.Now()

				pong, err := client.Ping(ctx)
				if err != nil {
					return fmt.Errorf("failed to ping API: %w", err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", pong, time.Since(start).Round(time.Millisecond))

				return nil
			})
		},
	}
}

// NewTimeCommand creates the time command.
func NewTimeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "time",
		Short: "Show the API clocks",
		Long:  "Display the API's UTC time, its system time and when sessions logged on now expire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPublicClient(cmd, func(ctx context.Context, client roi.Client) error {
				systemTime, err := client.Time(ctx)
				if err != nil {
					return fmt.Errorf("failed to get API time: %w", err)
				}

				type timeInfo struct {
					UTC            time.Time `json:"utc_datetime"        yaml:"utc_datetime"`
					System         time.Time `json:"roi_system_datetime" yaml:"roi_system_datetime"`
					SessionExpires time.Time `json:"session_expires"     yaml:"session_expires"`
				}

				info := timeInfo{
					UTC:            systemTime.UTC,
					System:         systemTime.System,
					SessionExpires: systemTime.NextDayStart(),
				}

				ok, err := renderStructured(cmd.OutOrStdout(), info)
				if ok {
					return err
				}

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Clock", "Value")
				_ = table.Append("UTC", info.UTC.Format(time.RFC3339))
				_ = table.Append("System", info.System.Format(time.RFC3339))
				_ = table.Append("Session Expires", info.SessionExpires.Format(time.RFC3339))

				return table.Render()
			})
		},
	}
}
