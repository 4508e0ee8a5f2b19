package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fivetwenty-io/roi/internal/auth"
	"github.com/fivetwenty-io/roi/internal/constants"
	"github.com/fivetwenty-io/roi/internal/http"
	"github.com/fivetwenty-io/roi/pkg/roi"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Client implements the roi.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       roi.Logger

	// ownedCache is a cache New built from Config.Cache
	ownedCache io.Closer

	// Resource clients
	system *SystemClient
	donors *DonorsClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *roi.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithHTTPTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a new ROI API client.
//
// The logon and time calls made by the session go through their own
// unauthenticated HTTP client, so the session never waits on itself.
func New(ctx context.Context, config *roi.Config) (*Client, error) {
	if config == nil {
		return nil, roi.ErrConfigRequired
	}

	if config.BaseURL == "" {
		return nil, roi.ErrBaseURLRequired
	}

	httpOpts := createHTTPClientOptions(config)
	system := NewSystemClient(http.NewClient(config.BaseURL, nil, httpOpts...))

	cache, owned, err := resolveTokenCache(ctx, config)
	if err != nil {
		return nil, err
	}

	client := newClient(config, createTokenManager(config, system, cache), httpOpts)
	client.system = system

	if closer, ok := cache.(io.Closer); ok && owned {
		client.ownedCache = closer
	}

	return client, nil
}

// NewWithTokenManager creates a new ROI API client with a custom token manager.
func NewWithTokenManager(config *roi.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, roi.ErrConfigRequired
	}

	if config.BaseURL == "" {
		return nil, roi.ErrBaseURLRequired
	}

	httpOpts := createHTTPClientOptions(config)

	client := newClient(config, tokenManager, httpOpts)
	client.system = NewSystemClient(client.httpClient)

	return client, nil
}

func newClient(config *roi.Config, tokenManager auth.TokenManager, httpOpts []http.Option) *Client {
	httpClient := http.NewClient(config.BaseURL, tokenManager, httpOpts...)

	return &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      config.BaseURL,
		logger:       config.Logger,
		donors:       NewDonorsClient(httpClient),
	}
}

// resolveTokenCache returns Config.TokenCache, or builds one from
// Config.Cache. owned reports whether the cache was built here.
func resolveTokenCache(ctx context.Context, config *roi.Config) (roi.TokenCache, bool, error) {
	if config.TokenCache != nil || config.Cache == nil || config.AccessToken != "" {
		return config.TokenCache, false, nil
	}

	cache, err := roi.NewTokenCacheFromConfig(ctx, config.Cache)
	if err != nil {
		return nil, false, fmt.Errorf("creating token cache: %w", err)
	}

	return cache, true, nil
}

// createTokenManager picks the token manager for the configured credentials.
// Without credentials a cache still yields the session stored there by
// another client. With neither, requests go out unauthenticated.
func createTokenManager(config *roi.Config, endpoint auth.SessionEndpoint, cache roi.TokenCache) auth.TokenManager {
	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken)
	}

	var opts []auth.SessionOption
	if config.Logger != nil {
		opts = append(opts, auth.WithSessionLogger(config.Logger))
	}

	if config.HasCredentials() {
		return auth.NewSessionTokenManager(config.Credentials(), endpoint, cache, opts...)
	}

	if cache != nil {
		return auth.NewCachedSessionManager(cache, opts...)
	}

	return nil
}

// Ping implements roi.Client.Ping.
func (c *Client) Ping(ctx context.Context) (string, error) {
	return c.system.Ping(ctx)
}

// Time implements roi.Client.Time.
func (c *Client) Time(ctx context.Context) (*roi.SystemTime, error) {
	return c.system.SystemTime(ctx)
}

// GetUTCTime implements roi.Client.GetUTCTime.
func (c *Client) GetUTCTime(ctx context.Context) (time.Time, error) {
	systemTime, err := c.system.SystemTime(ctx)
	if err != nil {
		return time.Time{}, err
	}

	return systemTime.UTC, nil
}

// GetSystemTime implements roi.Client.GetSystemTime.
func (c *Client) GetSystemTime(ctx context.Context) (time.Time, error) {
	systemTime, err := c.system.SystemTime(ctx)
	if err != nil {
		return time.Time{}, err
	}

	return systemTime.System, nil
}

// Donors implements roi.Client.Donors.
func (c *Client) Donors() roi.DonorsClient {
	return c.donors
}

// GetToken returns the current session token, logging on if needed.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", ErrNoTokenManagerConfigured
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// RefreshToken implements roi.Client.RefreshToken.
func (c *Client) RefreshToken(ctx context.Context) error {
	if c.tokenManager == nil {
		return ErrNoTokenManagerConfigured
	}

	err := c.tokenManager.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	return nil
}

// InvalidateSession drops the session token so the next call logs on again.
// It has no effect with a static token.
func (c *Client) InvalidateSession(ctx context.Context) error {
	session, ok := c.tokenManager.(*auth.SessionTokenManager)
	if !ok {
		return nil
	}

	return session.Invalidate(ctx)
}

// ClearSession implements roi.Client.ClearSession.
func (c *Client) ClearSession(ctx context.Context) error {
	session, ok := c.tokenManager.(*auth.SessionTokenManager)
	if !ok {
		return nil
	}

	return session.Clear(ctx)
}

// Close implements roi.Client.Close.
func (c *Client) Close() error {
	if c.ownedCache == nil {
		return nil
	}

	return c.ownedCache.Close()
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// loggerAdapter adapts roi.Logger to http.Logger.
type loggerAdapter struct {
	logger roi.Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}
