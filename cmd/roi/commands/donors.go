package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/roi/internal/constants"
	"github.com/fivetwenty-io/roi/pkg/roi"
)

// NewDonorsCommand creates the donors command group.
func NewDonorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "donors",
		Aliases: []string{"donor", "d"},
		Short:   "Manage donors",
		Long:    "Look up, search and add donors and their email addresses and memberships",
	}

	cmd.AddCommand(newDonorsGetCommand())
	cmd.AddCommand(newDonorsSearchCommand())
	cmd.AddCommand(newDonorsAddCommand())
	cmd.AddCommand(newDonorEmailsCommand())
	cmd.AddCommand(newDonorMembershipsCommand())

	return cmd
}

func newDonorsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ROI_FAMILY_ID",
		Short: "Get donor details",
		Long:  "Display detailed information about a specific donor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client roi.Client) error {
				donor, err := client.Donors().Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get donor: %w", err)
				}

				return renderDonor(cmd.OutOrStdout(), donor)
			})
		},
	}
}

func newDonorsSearchCommand() *cobra.Command {
	var (
		params  roi.DonorSearchParams
		allPage bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search donors",
		Long:  "Search donors by name, contact details or external id. At least one filter is required.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client roi.Client) error {
				results, err := client.Donors().Search(ctx, &params)
				if err != nil {
					return fmt.Errorf("failed to search donors: %w", err)
				}

				if allPage {
					donors, err := results.Collect(ctx)
					if err != nil {
						return fmt.Errorf("failed to fetch all pages: %w", err)
					}

					return renderDonors(cmd.OutOrStdout(), donors)
				}

				err = renderDonors(cmd.OutOrStdout(), results.Items())
				if err != nil {
					return err
				}

				pageFooter(cmd.OutOrStdout(), results.Page(), results.TotalPages(), results.TotalRecords(), results.HasNextPage())

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&params.Email, "email", "", "email address")
	cmd.Flags().StringVar(&params.NameFirst, "name-first", "", "first name")
	cmd.Flags().StringVar(&params.NameLast, "name-last", "", "last name")
	cmd.Flags().StringVar(&params.Street, "street", "", "street address")
	cmd.Flags().StringVar(&params.City, "city", "", "city")
	cmd.Flags().StringVar(&params.State, "state", "", "state")
	cmd.Flags().StringVar(&params.PostalCode, "postal-code", "", "postal code")
	cmd.Flags().StringVar(&params.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&params.ExternalID, "external-id", "", "external id, requires --external-id-type")
	cmd.Flags().StringVar(&params.ExternalIDType, "external-id-type", "", "external id type, requires --external-id")
	cmd.Flags().IntVar(&params.Page, "page", 0, "page to fetch")
	cmd.Flags().IntVar(&params.Limit, "limit", constants.DefaultPageSize, "records per page")
	cmd.Flags().BoolVar(&allPage, "all", false, "fetch every page")

	return cmd
}

func newDonorsAddCommand() *cobra.Command {
	var request roi.DonorCreateRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a donor",
		Long:  "Create a donor account. --vendor and --name-last are required.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client roi.Client) error {
				donor, err := client.Donors().Create(ctx, &request)
				if err != nil {
					return fmt.Errorf("failed to add donor: %w", err)
				}

				return renderDonor(cmd.OutOrStdout(), donor)
			})
		},
	}

	cmd.Flags().StringVar(&request.OriginationVendor, "vendor", "", "origination vendor code (required)")
	cmd.Flags().StringVar(&request.NameLast, "name-last", "", "last name (required)")
	cmd.Flags().StringVar(&request.NameFirst, "name-first", "", "first name")
	cmd.Flags().StringVar(&request.NameMiddle, "name-middle", "", "middle name")
	cmd.Flags().StringVar(&request.NamePrefixCode, "name-prefix", "", "name prefix code, e.g. MRS.")
	cmd.Flags().StringVar(&request.NameSuffix, "name-suffix", "", "name suffix")
	cmd.Flags().BoolVar(&request.DoNotContact, "do-not-contact", false, "flag the donor as do not contact")

	return cmd
}

func newDonorEmailsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "emails",
		Aliases: []string{"email"},
		Short:   "Manage donor email addresses",
		Long:    "List and add email addresses on file for a donor",
	}

	cmd.AddCommand(newDonorEmailsListCommand())
	cmd.AddCommand(newDonorEmailsAddCommand())

	return cmd
}

func newDonorEmailsListCommand() *cobra.Command {
	var (
		params  roi.PageParams
		allPage bool
	)

	cmd := &cobra.Command{
		Use:   "list ROI_FAMILY_ID",
		Short: "List donor email addresses",
		Long:  "List the email addresses on file for a donor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client roi.Client) error {
				results, err := client.Donors().ListEmailAddresses(ctx, args[0], params)
				if err != nil {
					return fmt.Errorf("failed to list email addresses: %w", err)
				}

				emails := results.Items()
				if allPage {
					emails, err = results.Collect(ctx)
					if err != nil {
						return fmt.Errorf("failed to fetch all pages: %w", err)
					}
				}

				return renderEmailAddresses(cmd.OutOrStdout(), emails)
			})
		},
	}

	cmd.Flags().IntVar(&params.Page, "page", 0, "page to fetch")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "records per page")
	cmd.Flags().BoolVar(&allPage, "all", false, "fetch every page")

	return cmd
}

func newDonorEmailsAddCommand() *cobra.Command {
	var (
		request  roi.DonorEmailAddressCreateRequest
		verified string
		bounced  bool
	)

	cmd := &cobra.Command{
		Use:   "add ROI_FAMILY_ID",
		Short: "Add a donor email address",
		Long:  "Add an email address to a donor. --vendor and --email are required.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verified != "" {
				parsed, _, err := roi.ParseTimestamp(verified)
				if err != nil {
					return fmt.Errorf("invalid --verified value: %w", err)
				}

				request.VerificationDate = &parsed
			}

			if cmd.Flags().Changed("bounced") {
				request.EmailBounced = &bounced
			}

			return withClient(cmd, func(ctx context.Context, client roi.Client) error {
				email, err := client.Donors().AddEmailAddress(ctx, args[0], &request)
				if err != nil {
					return fmt.Errorf("failed to add email address: %w", err)
				}

				return renderEmailAddresses(cmd.OutOrStdout(), []roi.DonorEmailAddress{*email})
			})
		},
	}

	cmd.Flags().StringVar(&request.OriginationVendor, "vendor", "", "origination vendor code (required)")
	cmd.Flags().StringVar(&request.EmailAddress, "email", "", "email address (required)")
	cmd.Flags().StringVar(&request.TypeCode, "type", "", "email type code")
	cmd.Flags().StringVar(&verified, "verified", "", "verification time, e.g. 2023-08-18T09:30:00-04:00")
	cmd.Flags().BoolVar(&bounced, "bounced", false, "mark the address as bounced")

	return cmd
}

func newDonorMembershipsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "memberships",
		Aliases: []string{"membership"},
		Short:   "Show donor memberships",
		Long:    "List the Passport memberships linked to a donor",
	}

	cmd.AddCommand(newDonorMembershipsListCommand())

	return cmd
}

func newDonorMembershipsListCommand() *cobra.Command {
	var (
		params  roi.PageParams
		allPage bool
	)

	cmd := &cobra.Command{
		Use:   "list ROI_FAMILY_ID",
		Short: "List donor Passport memberships",
		Long:  "List the Passport memberships linked to a donor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client roi.Client) error {
				results, err := client.Donors().ListPassportMemberships(ctx, args[0], params)
				if err != nil {
					return fmt.Errorf("failed to list memberships: %w", err)
				}

				memberships := results.Items()
				if allPage {
					memberships, err = results.Collect(ctx)
					if err != nil {
						return fmt.Errorf("failed to fetch all pages: %w", err)
					}
				}

				return renderMemberships(cmd.OutOrStdout(), memberships)
			})
		},
	}

	cmd.Flags().IntVar(&params.Page, "page", 0, "page to fetch")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "records per page")
	cmd.Flags().BoolVar(&allPage, "all", false, "fetch every page")

	return cmd
}
