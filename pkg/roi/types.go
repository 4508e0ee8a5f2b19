package roi

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/roi/internal/constants"
)

// Resource holds the fields every donor-scoped resource carries.
type Resource struct {
	RoiFamilyID string `json:"roi_family_id" yaml:"roi_family_id"`
	Links       Links  `json:"links"         yaml:"links"`
}

// Link returns the URL for rel.
func (r Resource) Link(rel string) (string, bool) {
	return r.Links.Get(rel)
}

// Donor is a donor account, keyed by its ROI family id.
type Donor struct {
	Resource

	RoiID             string     `json:"roi_id"                       yaml:"roi_id"`
	OriginationVendor string     `json:"origination_vendor"           yaml:"origination_vendor"`
	AccountStatus     string     `json:"account_status"               yaml:"account_status"`
	DoNotContact      bool       `json:"do_not_contact"               yaml:"do_not_contact"`
	AccountAddedDate  *time.Time `json:"account_added_date,omitempty" yaml:"account_added_date,omitempty"`
	ModifiedDate      *time.Time `json:"modified_date,omitempty"      yaml:"modified_date,omitempty"`
	NameFirst         string     `json:"name_first,omitempty"         yaml:"name_first,omitempty"`
	NameLast          string     `json:"name_last,omitempty"          yaml:"name_last,omitempty"`
	NameMiddle        string     `json:"name_middle,omitempty"        yaml:"name_middle,omitempty"`
	NamePrefix        string     `json:"name_prefix,omitempty"        yaml:"name_prefix,omitempty"`
	NameSuffix        string     `json:"name_suffix,omitempty"        yaml:"name_suffix,omitempty"`
	NameFull          string     `json:"name_full,omitempty"          yaml:"name_full,omitempty"`
	Salutation        string     `json:"salutation,omitempty"         yaml:"salutation,omitempty"`
	AddressLine       string     `json:"address_line,omitempty"       yaml:"address_line,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Donor) UnmarshalJSON(data []byte) error {
	var wire struct {
		RoiFamilyID       string       `json:"roi_family_id"`
		RoiID             string       `json:"roi_id"`
		OriginationVendor string       `json:"origination_vendor"`
		AccountStatus     string       `json:"account_status"`
		DoNotContact      Flag         `json:"do_not_contact"`
		AccountAddedDate  string       `json:"account_added_date"`
		ModifiedDate      string       `json:"modified_date"`
		NameFirst         string       `json:"name_first"`
		NameLast          string       `json:"name_last"`
		NameMiddle        string       `json:"name_middle"`
		NamePrefix        string       `json:"name_prefix"`
		NameSuffix        string       `json:"name_suffix"`
		NameFull          string       `json:"name_full"`
		Salutation        string       `json:"salutation"`
		AddressLine       string       `json:"address_line"`
		Links             []LinkObject `json:"links"`
	}

	err := json.Unmarshal(data, &wire)
	if err != nil {
		return err
	}

	if wire.RoiFamilyID == "" {
		return fmt.Errorf("%w: donor roi_family_id", ErrMalformedResource)
	}

	links, err := BuildLinks(wire.Links)
	if err != nil {
		return err
	}

	added, err := optionalTimestamp(wire.AccountAddedDate)
	if err != nil {
		return fmt.Errorf("parsing account_added_date: %w", err)
	}

	modified, err := optionalTimestamp(wire.ModifiedDate)
	if err != nil {
		return fmt.Errorf("parsing modified_date: %w", err)
	}

	*d = Donor{
		Resource:          Resource{RoiFamilyID: wire.RoiFamilyID, Links: links},
		RoiID:             wire.RoiID,
		OriginationVendor: wire.OriginationVendor,
		AccountStatus:     wire.AccountStatus,
		DoNotContact:      bool(wire.DoNotContact),
		AccountAddedDate:  added,
		ModifiedDate:      modified,
		NameFirst:         wire.NameFirst,
		NameLast:          wire.NameLast,
		NameMiddle:        wire.NameMiddle,
		NamePrefix:        wire.NamePrefix,
		NameSuffix:        wire.NameSuffix,
		NameFull:          wire.NameFull,
		Salutation:        wire.Salutation,
		AddressLine:       wire.AddressLine,
	}

	return nil
}

// DonorEmailAddress is one email address on file for a donor.
type DonorEmailAddress struct {
	Resource

	RoiID         string `json:"roi_id"         yaml:"roi_id"`
	EmailID       string `json:"email_id"       yaml:"email_id"`
	EmailAddress  string `json:"email_address"  yaml:"email_address"`
	EmailType     string `json:"email_type"     yaml:"email_type"`
	ContactStatus string `json:"contact_status" yaml:"contact_status"`
	EmailBounced  bool   `json:"email_bounced"  yaml:"email_bounced"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *DonorEmailAddress) UnmarshalJSON(data []byte) error {
	var wire struct {
		RoiFamilyID   string       `json:"roi_family_id"`
		RoiID         string       `json:"roi_id"`
		EmailID       string       `json:"email_id"`
		EmailAddress  string       `json:"email_address"`
		EmailType     string       `json:"email_type"`
		ContactStatus string       `json:"contact_status"`
		EmailBounced  Flag         `json:"email_bounced"`
		Links         []LinkObject `json:"links"`
	}

	err := json.Unmarshal(data, &wire)
	if err != nil {
		return err
	}

	if wire.RoiFamilyID == "" || wire.EmailID == "" {
		return fmt.Errorf("%w: email address roi_family_id/email_id", ErrMalformedResource)
	}

	links, err := BuildLinks(wire.Links)
	if err != nil {
		return err
	}

	*e = DonorEmailAddress{
		Resource:      Resource{RoiFamilyID: wire.RoiFamilyID, Links: links},
		RoiID:         wire.RoiID,
		EmailID:       wire.EmailID,
		EmailAddress:  wire.EmailAddress,
		EmailType:     wire.EmailType,
		ContactStatus: wire.ContactStatus,
		EmailBounced:  bool(wire.EmailBounced),
	}

	return nil
}

// DonorPassportMembership links a donor to a Passport membership.
type DonorPassportMembership struct {
	Resource

	MembershipID      string `json:"membership_id"      yaml:"membership_id"`
	OriginationVendor string `json:"origination_vendor" yaml:"origination_vendor"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *DonorPassportMembership) UnmarshalJSON(data []byte) error {
	var wire struct {
		RoiFamilyID       string       `json:"roi_family_id"`
		MembershipID      string       `json:"membership_id"`
		OriginationVendor string       `json:"origination_vendor"`
		Links             []LinkObject `json:"links"`
	}

	err := json.Unmarshal(data, &wire)
	if err != nil {
		return err
	}

	if wire.RoiFamilyID == "" || wire.MembershipID == "" {
		return fmt.Errorf("%w: membership roi_family_id/membership_id", ErrMalformedResource)
	}

	links, err := BuildLinks(wire.Links)
	if err != nil {
		return err
	}

	*m = DonorPassportMembership{
		Resource:          Resource{RoiFamilyID: wire.RoiFamilyID, Links: links},
		MembershipID:      wire.MembershipID,
		OriginationVendor: wire.OriginationVendor,
	}

	return nil
}

// Flag decodes the API's boolean encodings: JSON booleans, numbers, and the
// strings "Y"/"N", "true"/"false", "1"/"0".
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))

	switch raw {
	case "null", `""`:
		*f = false

		return nil
	case "true", "false":
		*f = raw == "true"

		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string

		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}

		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "Y", "YES", "TRUE", "1":
			*f = true
		default:
			*f = false
		}

		return nil
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid flag value %s", raw)
	}

	*f = n != 0

	return nil
}

func optionalTimestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	parsed, _, err := ParseTimestamp(value)
	if err != nil {
		return nil, err
	}

	return &parsed, nil
}

// PageParams selects a page of a list endpoint. Zero values are not sent.
type PageParams struct {
	Page  int `json:"page,omitempty"  yaml:"page,omitempty"`
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// DonorSearchParams are the filters accepted by the donor search.
type DonorSearchParams struct {
	PageParams

	Email          string
	NameFirst      string
	NameLast       string
	Street         string
	City           string
	State          string
	PostalCode     string
	Phone          string
	ExternalID     string
	ExternalIDType string
}

// Validate checks the filters before anything is sent.
func (p *DonorSearchParams) Validate() error {
	if p == nil {
		return NewValidationError("", "at least one search query parameter must be provided")
	}

	if (p.ExternalID == "") != (p.ExternalIDType == "") {
		return NewValidationError("external-id", "both externalId and externalIdType must be set")
	}

	if len(p.ToValues()) == 0 {
		return NewValidationError("", "at least one search query parameter must be provided")
	}

	return nil
}

// ToValues returns the non-empty filters as query parameters. Paging is
// handled by the cursor.
func (p *DonorSearchParams) ToValues() url.Values {
	values := url.Values{}

	for key, value := range map[string]string{
		"email":            p.Email,
		"name-first":       p.NameFirst,
		"name-last":        p.NameLast,
		"street":           p.Street,
		"city":             p.City,
		"state":            p.State,
		"postal-code":      p.PostalCode,
		"phone":            p.Phone,
		"external-id":      p.ExternalID,
		"external-id-type": p.ExternalIDType,
	} {
		if value != "" {
			values.Set(key, value)
		}
	}

	return values
}

// DonorCreateRequest adds a donor.
type DonorCreateRequest struct {
	OriginationVendor string `json:"origination_vendor"         yaml:"origination_vendor"`
	NameLast          string `json:"name_last"                  yaml:"name_last"`
	NameFirst         string `json:"name_first,omitempty"       yaml:"name_first,omitempty"`
	NameMiddle        string `json:"name_middle,omitempty"      yaml:"name_middle,omitempty"`
	NamePrefixCode    string `json:"name_prefix_code,omitempty" yaml:"name_prefix_code,omitempty"`
	NameSuffix        string `json:"name_suffix,omitempty"      yaml:"name_suffix,omitempty"`
	DoNotContact      bool   `json:"-"                          yaml:"do_not_contact"`
}

// Validate checks required fields.
func (r *DonorCreateRequest) Validate() error {
	if r == nil || r.OriginationVendor == "" {
		return NewValidationError("origination_vendor", "is required")
	}

	if r.NameLast == "" {
		return NewValidationError("name_last", "is required")
	}

	return nil
}

// MarshalJSON implements json.Marshaler. The API takes do_not_contact as "1"
// and treats an omitted value as false.
func (r DonorCreateRequest) MarshalJSON() ([]byte, error) {
	type plain DonorCreateRequest

	wire := struct {
		plain

		DoNotContact string `json:"do_not_contact,omitempty"`
	}{plain: plain(r)}

	if r.DoNotContact {
		wire.DoNotContact = "1"
	}

	return json.Marshal(wire)
}

// DonorEmailAddressCreateRequest adds an email address to a donor.
type DonorEmailAddressCreateRequest struct {
	OriginationVendor string
	EmailAddress      string
	TypeCode          string
	VerificationDate  *time.Time
	EmailBounced      *bool
}

// Validate checks required fields.
func (r *DonorEmailAddressCreateRequest) Validate() error {
	if r == nil || r.OriginationVendor == "" {
		return NewValidationError("origination_vendor", "is required")
	}

	if r.EmailAddress == "" {
		return NewValidationError("email_address", "is required")
	}

	return nil
}

// MarshalJSON implements json.Marshaler. Unset fields are omitted and the
// bounced flag is sent as "Y" or "N".
func (r DonorEmailAddressCreateRequest) MarshalJSON() ([]byte, error) {
	wire := struct {
		OriginationVendor string `json:"origination_vendor"`
		EmailAddress      string `json:"email_address"`
		EmailTypeCode     string `json:"email_type_code,omitempty"`
		VerificationDate  string `json:"verification_date,omitempty"`
		EmailBounced      string `json:"email_bounced,omitempty"`
	}{
		OriginationVendor: r.OriginationVendor,
		EmailAddress:      r.EmailAddress,
		EmailTypeCode:     r.TypeCode,
	}

	if r.VerificationDate != nil {
		wire.VerificationDate = r.VerificationDate.Format(constants.VerificationDateLayout)
	}

	if r.EmailBounced != nil {
		wire.EmailBounced = constants.EmailBouncedNo
		if *r.EmailBounced {
			wire.EmailBounced = constants.EmailBouncedYes
		}
	}

	return json.Marshal(wire)
}
