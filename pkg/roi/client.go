package roi

import (
	"context"
	"time"
)

// Client is the ROI Solutions REST API client.
type Client interface {
	// Ping checks that the API is reachable. It needs no token.
	Ping(ctx context.Context) (string, error)

	// Time returns both clocks reported by the time endpoint.
	Time(ctx context.Context) (*SystemTime, error)

	// GetUTCTime returns the API's UTC clock.
	GetUTCTime(ctx context.Context) (time.Time, error)

	// GetSystemTime returns the API's wall clock in its own zone.
	GetSystemTime(ctx context.Context) (time.Time, error)

	// GetToken returns a valid session token, logging on when needed.
	GetToken(ctx context.Context) (string, error)

	// RefreshToken logs on again even when the session is still valid.
	RefreshToken(ctx context.Context) error

	// ClearSession forgets the session, in the token cache as well.
	ClearSession(ctx context.Context) error

	// Close releases a token cache the client built from Config.Cache.
	// Caches passed in as Config.TokenCache belong to the caller.
	Close() error

	Donors() DonorsClient
}

// DonorsClient defines operations for donors and their sub-resources.
type DonorsClient interface {
	Get(ctx context.Context, roiFamilyID string) (*Donor, error)
	Search(ctx context.Context, params *DonorSearchParams) (*PagedResults[Donor], error)
	Create(ctx context.Context, request *DonorCreateRequest) (*Donor, error)

	AddEmailAddress(ctx context.Context, roiFamilyID string, request *DonorEmailAddressCreateRequest) (*DonorEmailAddress, error)
	ListEmailAddresses(ctx context.Context, roiFamilyID string, params PageParams) (*PagedResults[DonorEmailAddress], error)

	ListPassportMemberships(ctx context.Context, roiFamilyID string, params PageParams) (*PagedResults[DonorPassportMembership], error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Credentials are sent to the logon endpoint. They are never cached.
type Credentials struct {
	UserID     string `json:"userid"`
	Password   string `json:"password"`
	ClientCode string `json:"clientcode"`
}

// Config represents client configuration for building a roi.Client.
//
// # Authentication
//
// With UserID, Password and ClientCode set, the client logs on lazily before
// the first authenticated call and keeps the session until midnight of the
// API's own calendar day. AccessToken skips logon and is used as is.
//
// # Token cache
//
// TokenCache shares the session with other clients. When it is nil, Cache is
// used to build one (see NewTokenCacheFromConfig), and Close releases it.
// With neither set the session lives only in the client. A cache without
// credentials reuses the session another client stored there and never logs
// on.
type Config struct {
	// BaseURL of the API, e.g. "https://secure2.roisolutions.net/api/1.0/".
	// roiclient.New adds a missing scheme and the trailing slash.
	BaseURL string

	// UserID, Password and ClientCode authenticate against the logon endpoint.
	UserID     string
	Password   string
	ClientCode string

	// AccessToken: if set, used directly as a Bearer token.
	AccessToken string

	// HTTPTimeout: per-request timeout of the underlying HTTP client.
	HTTPTimeout time.Duration
	// RetryMax: retries for connection errors and 5xx/429 responses. 0 disables retries.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration

	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string

	TokenCache TokenCache
	Cache      *CacheConfig
}

// Credentials returns the logon credentials from the configuration.
func (c *Config) Credentials() Credentials {
	return Credentials{
		UserID:     c.UserID,
		Password:   c.Password,
		ClientCode: c.ClientCode,
	}
}

// HasCredentials reports whether all logon credentials are set.
func (c *Config) HasCredentials() bool {
	return c.UserID != "" && c.Password != "" && c.ClientCode != ""
}
