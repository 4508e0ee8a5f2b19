package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/roi/internal/constants"
	"github.com/fivetwenty-io/roi/internal/http"
	"github.com/fivetwenty-io/roi/pkg/roi"
)

// DonorsClient implements roi.DonorsClient.
type DonorsClient struct {
	httpClient *http.Client
}

// NewDonorsClient creates a new donors client.
func NewDonorsClient(httpClient *http.Client) *DonorsClient {
	return &DonorsClient{
		httpClient: httpClient,
	}
}

func donorPath(roiFamilyID string, sub ...string) (string, error) {
	if roiFamilyID == "" {
		return "", roi.NewValidationError("roi_family_id", "is required")
	}

	path := constants.EndpointDonors + "/" + url.PathEscape(roiFamilyID)
	for _, segment := range sub {
		path += "/" + segment
	}

	return path, nil
}

// Get implements roi.DonorsClient.Get.
func (c *DonorsClient) Get(ctx context.Context, roiFamilyID string) (*roi.Donor, error) {
	path, err := donorPath(roiFamilyID)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting donor: %w", err)
	}

	var donor roi.Donor

	err = json.Unmarshal(resp.Body, &donor)
	if err != nil {
		return nil, fmt.Errorf("parsing donor: %w", err)
	}

	return &donor, nil
}

// Search implements roi.DonorsClient.Search.
func (c *DonorsClient) Search(ctx context.Context, params *roi.DonorSearchParams) (*roi.PagedResults[roi.Donor], error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	results, err := roi.NewPagedResults(ctx, c.httpClient, constants.EndpointDonors, params.ToValues(), params.PageParams, roi.JSONMapper[roi.Donor]())
	if err != nil {
		return nil, fmt.Errorf("searching donors: %w", err)
	}

	return results, nil
}

// Create implements roi.DonorsClient.Create.
func (c *DonorsClient) Create(ctx context.Context, request *roi.DonorCreateRequest) (*roi.Donor, error) {
	err := request.Validate()
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(ctx, constants.EndpointDonors, request)
	if err != nil {
		return nil, fmt.Errorf("creating donor: %w", err)
	}

	var donor roi.Donor

	err = json.Unmarshal(resp.Body, &donor)
	if err != nil {
		return nil, fmt.Errorf("parsing donor: %w", err)
	}

	return &donor, nil
}

// AddEmailAddress implements roi.DonorsClient.AddEmailAddress.
func (c *DonorsClient) AddEmailAddress(ctx context.Context, roiFamilyID string, request *roi.DonorEmailAddressCreateRequest) (*roi.DonorEmailAddress, error) {
	path, err := donorPath(roiFamilyID, "emails")
	if err != nil {
		return nil, err
	}

	err = request.Validate()
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(ctx, path, request)
	if err != nil {
		return nil, fmt.Errorf("adding donor email address: %w", err)
	}

	var email roi.DonorEmailAddress

	err = json.Unmarshal(resp.Body, &email)
	if err != nil {
		return nil, fmt.Errorf("parsing donor email address: %w", err)
	}

	return &email, nil
}

// ListEmailAddresses implements roi.DonorsClient.ListEmailAddresses.
func (c *DonorsClient) ListEmailAddresses(ctx context.Context, roiFamilyID string, params roi.PageParams) (*roi.PagedResults[roi.DonorEmailAddress], error) {
	path, err := donorPath(roiFamilyID, "emails")
	if err != nil {
		return nil, err
	}

	results, err := roi.NewPagedResults(ctx, c.httpClient, path, nil, params, roi.JSONMapper[roi.DonorEmailAddress]())
	if err != nil {
		return nil, fmt.Errorf("listing donor email addresses: %w", err)
	}

	return results, nil
}

// ListPassportMemberships implements roi.DonorsClient.ListPassportMemberships.
func (c *DonorsClient) ListPassportMemberships(ctx context.Context, roiFamilyID string, params roi.PageParams) (*roi.PagedResults[roi.DonorPassportMembership], error) {
	path, err := donorPath(roiFamilyID, "memberships", "passport")
	if err != nil {
		return nil, err
	}

	results, err := roi.NewPagedResults(ctx, c.httpClient, path, nil, params, roi.JSONMapper[roi.DonorPassportMembership]())
	if err != nil {
		return nil, fmt.Errorf("listing donor passport memberships: %w", err)
	}

	return results, nil
}
