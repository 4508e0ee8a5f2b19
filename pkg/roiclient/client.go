// Package roiclient provides the main entry point for creating ROI Solutions API clients
package roiclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/roi/internal/client"
	"github.com/fivetwenty-io/roi/internal/constants"
	"github.com/fivetwenty-io/roi/pkg/roi"
)

// Environment variables read by NewFromEnv.
const (
	EnvBaseURL    = "ROI_BASE_URL"
	EnvUserID     = "ROI_USER_ID"
	EnvPassword   = "ROI_PASSWORD"
	EnvClientCode = "ROI_CLIENT_CODE"
)

// New creates a new ROI API client. The caller's config is not modified.
func New(ctx context.Context, config *roi.Config) (roi.Client, error) {
	if config == nil {
		return nil, roi.ErrConfigRequired
	}

	normalized := *config
	normalized.BaseURL = NormalizeBaseURL(config.BaseURL)

	client, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// NormalizeBaseURL fills in the production root when baseURL is empty, adds
// a missing scheme and ensures the trailing slash endpoints are joined to.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return constants.DefaultBaseURL
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return strings.TrimSuffix(baseURL, "/") + "/"
}

// NewWithToken creates a new client that sends token as is and never logs on.
func NewWithToken(ctx context.Context, baseURL, token string) (roi.Client, error) {
	return New(ctx, &roi.Config{
		BaseURL:     baseURL,
		AccessToken: token,
	})
}

// NewWithPassword creates a new client that logs on with the given credentials.
func NewWithPassword(ctx context.Context, baseURL, userID, password, clientCode string) (roi.Client, error) {
	config := &roi.Config{
		BaseURL:    baseURL,
		UserID:     userID,
		Password:   password,
		ClientCode: clientCode,
	}

	if !config.HasCredentials() {
		return nil, roi.ErrCredentialsMissing
	}

	return New(ctx, config)
}

// NewFromEnv creates a password client from ROI_BASE_URL, ROI_USER_ID,
// ROI_PASSWORD and ROI_CLIENT_CODE.
func NewFromEnv(ctx context.Context) (roi.Client, error) {
	return NewWithPassword(ctx,
		os.Getenv(EnvBaseURL),
		os.Getenv(EnvUserID),
		os.Getenv(EnvPassword),
		os.Getenv(EnvClientCode),
	)
}
