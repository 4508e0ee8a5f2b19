package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as ping.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. Retries are off unless a caller asks for them.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// API endpoints, relative to the versioned base URL.
const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://secure2.roisolutions.net/api/1.0/"

	// EndpointLogon exchanges credentials for a session token.
	EndpointLogon = "logon"

	// EndpointPing is the health check.
	EndpointPing = "ping"

	// EndpointTime reports the UTC and system clocks.
	EndpointTime = "time"

	// EndpointDonors is the donor collection.
	EndpointDonors = "donors"
)

// Headers.
const (
	// HeaderAuthorization carries the bearer token.
	HeaderAuthorization = "Authorization"

	// HeaderRequestID correlates a request with client logs.
	HeaderRequestID = "X-Request-ID"

	// DefaultUserAgent is sent unless overridden.
	DefaultUserAgent = "roi-go-client"
)

// Token cache keys.
const (
	// SessionTokenKey stores the bearer token.
	SessionTokenKey = "roi.rest.session_token"

	// SessionExpireKey stores the token expiry as unix seconds.
	SessionExpireKey = "roi.rest.session_expire"
)

// Pagination limits.
const (
	// DefaultPageSize is the page size the CLI requests.
	DefaultPageSize = 20

	// MaxPages is used to prevent infinite loops in pagination.
	MaxPages = 500

	// LinkRelNext names the next-page link relation.
	LinkRelNext = "next"
)

// Cache defaults.
const (
	// DefaultNATSBucket is the JetStream KV bucket holding session tokens.
	DefaultNATSBucket = "roi_session"

	// DefaultSQLTable is the table holding session tokens.
	DefaultSQLTable = "roi_token_cache"

	// DefaultCacheFile is the file cache name under the config directory.
	DefaultCacheFile = "token-cache.yml"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Wire formats.
const (
	// EmailBouncedYes and EmailBouncedNo encode the bounced flag.
	EmailBouncedYes = "Y"
	EmailBouncedNo  = "N"

	// VerificationDateLayout is the timestamp layout the API accepts on writes.
	VerificationDateLayout = "2006-01-02T15:04:05.000Z07:00"
)

// UI constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)
