package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/roi/internal/constants"
	"github.com/fivetwenty-io/roi/internal/http"
	"github.com/fivetwenty-io/roi/pkg/roi"
)

// SystemClient calls the unauthenticated endpoints. It also serves as the
// session's logon endpoint.
type SystemClient struct {
	httpClient *http.Client
}

// NewSystemClient creates a new system client.
func NewSystemClient(httpClient *http.Client) *SystemClient {
	return &SystemClient{
		httpClient: httpClient,
	}
}

type logonResponse struct {
	Token string `json:"token"`
}

// Logon exchanges credentials for a session token.
func (c *SystemClient) Logon(ctx context.Context, credentials roi.Credentials) (string, error) {
	resp, err := c.httpClient.Post(ctx, constants.EndpointLogon, credentials)
	if err != nil {
		return "", fmt.Errorf("logging on: %w", err)
	}

	var logon logonResponse

	err = json.Unmarshal(resp.Body, &logon)
	if err != nil {
		return "", fmt.Errorf("parsing logon response: %w", err)
	}

	return logon.Token, nil
}

// Ping returns the health check body, "pong!" when the API is up.
func (c *SystemClient) Ping(ctx context.Context) (string, error) {
	resp, err := c.httpClient.Get(ctx, constants.EndpointPing, nil)
	if err != nil {
		return "", fmt.Errorf("pinging: %w", err)
	}

	return string(resp.Body), nil
}

// SystemTime returns both clocks of the API.
func (c *SystemClient) SystemTime(ctx context.Context) (*roi.SystemTime, error) {
	resp, err := c.httpClient.Get(ctx, constants.EndpointTime, nil)
	if err != nil {
		return nil, fmt.Errorf("getting system time: %w", err)
	}

	var systemTime roi.SystemTime

	err = json.Unmarshal(resp.Body, &systemTime)
	if err != nil {
		return nil, fmt.Errorf("parsing system time: %w", err)
	}

	return &systemTime, nil
}
