package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/roi/internal/constants"
	"github.com/fivetwenty-io/roi/pkg/roi"
)

// renderStructured writes data as JSON or YAML. It reports false for the
// table format, which each command renders itself.
func renderStructured(w io.Writer, data interface{}) (bool, error) {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return true, encoder.Encode(data)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return true, encoder.Encode(data)
	default:
		return false, nil
	}
}

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func formatTime(t *time.Time) string {
	if t == nil {
		return constants.NotAvailable
	}

	return t.Format(time.RFC3339)
}

func formatLinks(links roi.Links) string {
	rels := make([]string, 0, len(links))
	for rel := range links {
		rels = append(rels, rel)
	}

	sort.Strings(rels)

	lines := make([]string, 0, len(rels))
	for _, rel := range rels {
		lines = append(lines, fmt.Sprintf("%s: %s", rel, links[rel]))
	}

	return strings.Join(lines, "\n")
}

func donorName(donor *roi.Donor) string {
	if donor.NameFull != "" {
		return donor.NameFull
	}

	parts := make([]string, 0, 3)

	for _, part := range []string{donor.NameFirst, donor.NameMiddle, donor.NameLast} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	return strings.Join(parts, " ")
}

func renderDonor(w io.Writer, donor *roi.Donor) error {
	ok, err := renderStructured(w, donor)
	if ok {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")
	_ = table.Append("ROI Family ID", donor.RoiFamilyID)
	_ = table.Append("ROI ID", valueOrNA(donor.RoiID))
	_ = table.Append("Name", valueOrNA(donorName(donor)))
	_ = table.Append("Prefix", valueOrNA(donor.NamePrefix))
	_ = table.Append("Suffix", valueOrNA(donor.NameSuffix))
	_ = table.Append("Salutation", valueOrNA(donor.Salutation))
	_ = table.Append("Address", valueOrNA(donor.AddressLine))
	_ = table.Append("Account Status", valueOrNA(donor.AccountStatus))
	_ = table.Append("Origination Vendor", valueOrNA(donor.OriginationVendor))
	_ = table.Append("Do Not Contact", fmt.Sprintf("%t", donor.DoNotContact))
	_ = table.Append("Added", formatTime(donor.AccountAddedDate))
	_ = table.Append("Modified", formatTime(donor.ModifiedDate))

	if len(donor.Links) > 0 {
		_ = table.Append("Links", formatLinks(donor.Links))
	}

	return table.Render()
}

func renderDonors(w io.Writer, donors []roi.Donor) error {
	ok, err := renderStructured(w, donors)
	if ok {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("ROI Family ID", "Name", "Status", "Vendor", "Added")

	for i := range donors {
		donor := &donors[i]
		_ = table.Append(donor.RoiFamilyID, donorName(donor), valueOrNA(donor.AccountStatus),
			valueOrNA(donor.OriginationVendor), formatTime(donor.AccountAddedDate))
	}

	return table.Render()
}

func renderEmailAddresses(w io.Writer, emails []roi.DonorEmailAddress) error {
	ok, err := renderStructured(w, emails)
	if ok {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Email ID", "Address", "Type", "Status", "Bounced")

	for _, email := range emails {
		_ = table.Append(email.EmailID, email.EmailAddress, valueOrNA(email.EmailType),
			valueOrNA(email.ContactStatus), fmt.Sprintf("%t", email.EmailBounced))
	}

	return table.Render()
}

func renderMemberships(w io.Writer, memberships []roi.DonorPassportMembership) error {
	ok, err := renderStructured(w, memberships)
	if ok {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Membership ID", "ROI Family ID", "Vendor")

	for _, membership := range memberships {
		_ = table.Append(membership.MembershipID, membership.RoiFamilyID, valueOrNA(membership.OriginationVendor))
	}

	return table.Render()
}

// pageFooter summarizes a single page in table output.
func pageFooter(w io.Writer, page, totalPages, totalRecords int, hasNext bool) {
	if viper.GetString("output") == constants.FormatJSON || viper.GetString("output") == constants.FormatYAML {
		return
	}

	_, _ = fmt.Fprintf(w, "Page %d of %d (%d records)\n", page, totalPages, totalRecords)

	if hasNext {
		_, _ = fmt.Fprintf(w, "Use --page %d for more, or --all\n", page+1)
	}
}
