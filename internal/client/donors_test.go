package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/roi/pkg/roi"
)

func newDonorsTestClient(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()

	api := newFakeAPI(t)

	client, err := New(context.Background(), newTestConfig(api.baseURL()))
	require.NoError(t, err)

	return api, client
}

func TestDonorsClient_Get(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)
	api.handle("GET", "donors/1234567", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, donorBody("1234567", "Doe"))
	})

	donor, err := client.Donors().Get(context.Background(), "1234567")
	require.NoError(t, err)
	assert.Equal(t, "1234567", donor.RoiFamilyID)
	assert.Equal(t, "Doe", donor.NameLast)
	assert.Equal(t, "VENDOR1234", donor.OriginationVendor)
	assert.False(t, donor.DoNotContact)
	require.NotNil(t, donor.AccountAddedDate)
	assert.Equal(t, 2023, donor.AccountAddedDate.Year())

	self, ok := donor.Link("self")
	assert.True(t, ok)
	assert.Equal(t, "https://secure2.roisolutions.net/api/1.0/donors/1234567", self)
}

func TestDonorsClient_Get_NotFound(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)
	api.handle("GET", "donors/9999999999", func(w http.ResponseWriter, r *http.Request) {
		// The reported code decides the kind, not the wire status.
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"statusCode":   404,
			"title":        "Error title",
			"detail":       "Error detail",
			"instanceCode": "ABCD:1234",
			"helpLink":     "https://foo.com/api/help/index.html",
		})
	})

	donor, err := client.Donors().Get(context.Background(), "9999999999")
	require.Error(t, err)
	assert.Nil(t, donor)
	assert.True(t, roi.IsNotFound(err))

	reqErr, ok := roi.AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, 404, reqErr.StatusCode)
	assert.Equal(t, 400, reqErr.HTTPStatus)
	assert.Equal(t, "Error title", reqErr.Title)
	assert.Equal(t, "Error detail", reqErr.Detail)
	assert.Equal(t, "ABCD:1234", reqErr.InstanceCode)
	assert.Equal(t, "https://foo.com/api/help/index.html", reqErr.HelpLink)
}

func TestDonorsClient_Get_EmptyID(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)

	_, err := client.Donors().Get(context.Background(), "")
	require.ErrorIs(t, err, roi.ErrValidation)
	assert.Equal(t, int32(0), api.logons.Load())
}

func TestDonorsClient_Search(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)

	var pagesRequested []int

	api.handle("GET", "donors", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "Doe", query.Get("name-last"))

		page := queryPage(query)
		pagesRequested = append(pagesRequested, page)

		writeJSON(w, http.StatusOK, pageBody("donors", page, 20, 22, func(i int) interface{} {
			return donorBody(fmt.Sprintf("%07d", 1000000+i), "Doe")
		}))
	})

	results, err := client.Donors().Search(context.Background(), &roi.DonorSearchParams{NameLast: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, 1, results.Page())
	assert.Equal(t, 2, results.TotalPages())
	assert.Equal(t, 22, results.TotalRecords())
	assert.Equal(t, 20, results.Count())
	assert.True(t, results.HasNextPage())

	first, ok := results.NextItem()
	require.True(t, ok)
	assert.Equal(t, "1000000", first.RoiFamilyID)

	require.NoError(t, results.NextPage(context.Background()))
	assert.Equal(t, 2, results.Page())
	assert.Equal(t, 2, results.Count())
	assert.False(t, results.HasNextPage())

	for _, donor := range results.All() {
		assert.Equal(t, "Doe", donor.NameLast)
	}

	// The last page has no next link.
	require.NoError(t, results.NextPage(context.Background()))
	assert.Equal(t, 2, results.Page())

	assert.Equal(t, []int{1, 2}, pagesRequested)
	assert.Equal(t, int32(1), api.logons.Load())
}

func TestDonorsClient_Search_Collect(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)
	api.handle("GET", "donors", func(w http.ResponseWriter, r *http.Request) {
		page := queryPage(r.URL.Query())
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		writeJSON(w, http.StatusOK, pageBody("donors", page, 5, 12, func(i int) interface{} {
			return donorBody(fmt.Sprintf("%d", i+1), "Smith")
		}))
	})

	params := &roi.DonorSearchParams{City: "Springfield", PageParams: roi.PageParams{Limit: 5}}

	results, err := client.Donors().Search(context.Background(), params)
	require.NoError(t, err)

	donors, err := results.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, donors, 12)
	assert.Equal(t, "1", donors[0].RoiFamilyID)
	assert.Equal(t, "12", donors[11].RoiFamilyID)
	assert.Equal(t, 3, results.Page())
}

func TestDonorsClient_Search_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params *roi.DonorSearchParams
		field  string
	}{
		{name: "nil params", params: nil},
		{name: "no filters", params: &roi.DonorSearchParams{}},
		{name: "paging only", params: &roi.DonorSearchParams{PageParams: roi.PageParams{Page: 2}}},
		{name: "external id without type", params: &roi.DonorSearchParams{ExternalID: "42"}, field: "external-id"},
		{name: "external id type without id", params: &roi.DonorSearchParams{NameLast: "Doe", ExternalIDType: "PBS"}, field: "external-id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api, client := newDonorsTestClient(t)

			results, err := client.Donors().Search(context.Background(), tt.params)
			require.ErrorIs(t, err, roi.ErrValidation)
			assert.Nil(t, results)

			var validationErr *roi.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)

			assert.Equal(t, int32(0), api.logons.Load())
			assert.Equal(t, int32(0), api.other.Load())
		})
	}
}

func TestDonorsClient_Search_MalformedPage(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)
	api.handle("GET", "donors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"page": 1, "limit": 20, "items": []interface{}{}})
	})

	_, err := client.Donors().Search(context.Background(), &roi.DonorSearchParams{Email: "jane@example.com"})
	require.ErrorIs(t, err, roi.ErrMalformedPage)
}

func TestDonorsClient_Create(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)
	api.handle("POST", "donors", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}

		err := json.NewDecoder(r.Body).Decode(&body)
		assert.NoError(t, err)

		assert.Equal(t, "VENDOR1234", body["origination_vendor"])
		assert.Equal(t, "Doe", body["name_last"])
		assert.Equal(t, "Jane", body["name_first"])
		assert.Equal(t, "A.", body["name_middle"])
		assert.Equal(t, "MRS.", body["name_prefix_code"])
		assert.Equal(t, "Jr.", body["name_suffix"])
		assert.Equal(t, "1", body["do_not_contact"])

		donor := donorBody("7654321", "Doe")
		donor["name_middle"] = "A."
		donor["name_prefix"] = "Mrs."
		donor["name_suffix"] = "Jr."
		donor["do_not_contact"] = "Y"

		writeJSON(w, http.StatusCreated, donor)
	})

	donor, err := client.Donors().Create(context.Background(), &roi.DonorCreateRequest{
		OriginationVendor: "VENDOR1234",
		NameLast:          "Doe",
		NameFirst:         "Jane",
		NameMiddle:        "A.",
		NamePrefixCode:    "MRS.",
		NameSuffix:        "Jr.",
		DoNotContact:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "7654321", donor.RoiFamilyID)
	assert.Equal(t, "Jane", donor.NameFirst)
	assert.Equal(t, "A.", donor.NameMiddle)
	assert.Equal(t, "Jr.", donor.NameSuffix)
	assert.True(t, donor.DoNotContact)
}

func TestDonorsClient_Create_Validation(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)

	_, err := client.Donors().Create(context.Background(), &roi.DonorCreateRequest{NameLast: "Doe"})
	require.ErrorIs(t, err, roi.ErrValidation)

	_, err = client.Donors().Create(context.Background(), &roi.DonorCreateRequest{OriginationVendor: "V"})
	require.ErrorIs(t, err, roi.ErrValidation)

	assert.Equal(t, int32(0), api.logons.Load())
}

func TestDonorsClient_AddEmailAddress(t *testing.T) {
	t.Parallel()

	verified := time.Date(2023, time.August, 18, 9, 30, 0, 0, time.FixedZone("EDT", -4*3600))
	bounced := false

	api, client := newDonorsTestClient(t)
	api.handle("POST", "donors/1234567/emails", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}

		err := json.NewDecoder(r.Body).Decode(&body)
		assert.NoError(t, err)

		assert.Equal(t, "VENDOR123", body["origination_vendor"])
		assert.Equal(t, "jane.doe@example.com", body["email_address"])
		assert.Equal(t, "2023-08-18T09:30:00.000-04:00", body["verification_date"])
		assert.Equal(t, "N", body["email_bounced"])
		assert.NotContains(t, body, "email_type_code")

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"roi_family_id":  "1234567",
			"roi_id":         "R1234567",
			"email_id":       "55",
			"email_address":  "jane.doe@example.com",
			"email_type":     "PERSONAL",
			"contact_status": "ACTIVE",
			"email_bounced":  "N",
			"links":          []interface{}{},
		})
	})

	email, err := client.Donors().AddEmailAddress(context.Background(), "1234567", &roi.DonorEmailAddressCreateRequest{
		OriginationVendor: "VENDOR123",
		EmailAddress:      "jane.doe@example.com",
		VerificationDate:  &verified,
		EmailBounced:      &bounced,
	})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", email.EmailAddress)
	assert.Equal(t, "55", email.EmailID)
	assert.False(t, email.EmailBounced)
}

func TestDonorsClient_AddEmailAddress_Validation(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)

	_, err := client.Donors().AddEmailAddress(context.Background(), "1234567", &roi.DonorEmailAddressCreateRequest{OriginationVendor: "V"})
	require.ErrorIs(t, err, roi.ErrValidation)

	_, err = client.Donors().AddEmailAddress(context.Background(), "", &roi.DonorEmailAddressCreateRequest{OriginationVendor: "V", EmailAddress: "a@b.c"})
	require.ErrorIs(t, err, roi.ErrValidation)

	assert.Equal(t, int32(0), api.logons.Load())
}

func TestDonorsClient_ListEmailAddresses(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)
	api.handle("GET", "donors/1234567/emails", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)

		writeJSON(w, http.StatusOK, pageBody("donors/1234567/emails", 1, 20, 2, func(i int) interface{} {
			return map[string]interface{}{
				"roi_family_id": "1234567",
				"email_id":      fmt.Sprintf("%d", i+1),
				"email_address": fmt.Sprintf("jane%d@example.com", i+1),
				"email_bounced": i == 1,
			}
		}))
	})

	results, err := client.Donors().ListEmailAddresses(context.Background(), "1234567", roi.PageParams{})
	require.NoError(t, err)
	require.Equal(t, 2, results.Count())

	second, ok := results.Item(1)
	require.True(t, ok)
	assert.Equal(t, "jane2@example.com", second.EmailAddress)
	assert.True(t, second.EmailBounced)
	assert.False(t, results.HasNextPage())
}

func TestDonorsClient_ListPassportMemberships(t *testing.T) {
	t.Parallel()

	api, client := newDonorsTestClient(t)
	api.handle("GET", "donors/1234567/memberships/passport", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		writeJSON(w, http.StatusOK, pageBody("donors/1234567/memberships/passport", 2, 1, 2, func(i int) interface{} {
			return map[string]interface{}{
				"roi_family_id":      "1234567",
				"membership_id":      fmt.Sprintf("M%d", i),
				"origination_vendor": "PBS",
			}
		}))
	})

	results, err := client.Donors().ListPassportMemberships(context.Background(), "1234567", roi.PageParams{Page: 2})
	require.NoError(t, err)
	require.Equal(t, 1, results.Count())

	membership, ok := results.Item(0)
	require.True(t, ok)
	assert.Equal(t, "M1", membership.MembershipID)
	assert.Equal(t, "PBS", membership.OriginationVendor)
}
