package roi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind discriminates failed requests by the status code the API reports.
type ErrorKind string

const (
	// KindRequestFailed covers every reported status without a dedicated kind.
	KindRequestFailed ErrorKind = "request_failed"
	// KindAccessDenied is reported as 401.
	KindAccessDenied ErrorKind = "access_denied"
	// KindNotFound is reported as 404.
	KindNotFound ErrorKind = "not_found"
	// KindTooManyRequests is reported as 429.
	KindTooManyRequests ErrorKind = "too_many_requests"
)

// ErrorEnvelope is the JSON body the API sends with failed responses.
type ErrorEnvelope struct {
	StatusCode   int    `json:"statusCode"             yaml:"status_code"`
	Title        string `json:"title"                  yaml:"title"`
	Detail       string `json:"detail,omitempty"       yaml:"detail,omitempty"`
	InstanceCode string `json:"instanceCode,omitempty" yaml:"instance_code,omitempty"`
	HelpLink     string `json:"helpLink,omitempty"     yaml:"help_link,omitempty"`
}

// RequestError is returned for every response with a status of 400 or above.
//
// StatusCode is the code reported inside the error envelope, which may differ
// from the HTTPStatus seen on the wire. Empty Detail, InstanceCode and
// HelpLink mean the API did not send them.
type RequestError struct {
	Kind         ErrorKind `json:"kind"                   yaml:"kind"`
	StatusCode   int       `json:"status_code"            yaml:"status_code"`
	HTTPStatus   int       `json:"http_status"            yaml:"http_status"`
	Title        string    `json:"title"                  yaml:"title"`
	Detail       string    `json:"detail,omitempty"       yaml:"detail,omitempty"`
	InstanceCode string    `json:"instance_code,omitempty" yaml:"instance_code,omitempty"`
	HelpLink     string    `json:"help_link,omitempty"    yaml:"help_link,omitempty"`
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (status: %d)", e.Title, e.Detail, e.StatusCode)
	}

	return fmt.Sprintf("%s (status: %d)", e.Title, e.StatusCode)
}

// Envelope returns the error as it was decoded from the response.
func (e *RequestError) Envelope() ErrorEnvelope {
	return ErrorEnvelope{
		StatusCode:   e.StatusCode,
		Title:        e.Title,
		Detail:       e.Detail,
		InstanceCode: e.InstanceCode,
		HelpLink:     e.HelpLink,
	}
}

// ClassifyResponse turns a failed response into a RequestError.
//
// The body is decoded as an ErrorEnvelope. When it is empty or not an
// envelope, status and reason stand in for the reported code and title.
func ClassifyResponse(status int, reason string, body []byte) *RequestError {
	envelope := ParseErrorEnvelope(body)

	if envelope.StatusCode == 0 {
		envelope.StatusCode = status
	}

	if envelope.Title == "" {
		envelope.Title = reason
	}

	if envelope.Title == "" {
		envelope.Title = http.StatusText(status)
	}

	return &RequestError{
		Kind:         kindForStatus(envelope.StatusCode),
		StatusCode:   envelope.StatusCode,
		HTTPStatus:   status,
		Title:        envelope.Title,
		Detail:       envelope.Detail,
		InstanceCode: envelope.InstanceCode,
		HelpLink:     envelope.HelpLink,
	}
}

// ParseErrorEnvelope decodes body, returning a zero envelope when it cannot.
func ParseErrorEnvelope(body []byte) ErrorEnvelope {
	var envelope ErrorEnvelope

	if len(body) == 0 {
		return envelope
	}

	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return ErrorEnvelope{}
	}

	return envelope
}

func kindForStatus(code int) ErrorKind {
	switch code {
	case http.StatusUnauthorized:
		return KindAccessDenied
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests:
		return KindTooManyRequests
	default:
		return KindRequestFailed
	}
}

// TransportError wraps failures below the HTTP layer (connection, DNS, timeout).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying transport failure.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports caller arguments rejected before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}

	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Static errors for err113 compliance.
var (
	ErrValidation         = errors.New("validation failed")
	ErrMalformedLink      = errors.New("link objects must contain rel and href properties")
	ErrMalformedPage      = errors.New("paged response is missing required fields")
	ErrMalformedResource  = errors.New("resource is missing required fields")
	ErrConfigRequired     = errors.New("config is required")
	ErrBaseURLRequired    = errors.New("base URL is required")
	ErrCredentialsMissing = errors.New("user id, password and client code are required")
	ErrEmptyToken         = errors.New("logon response did not contain a token")
	ErrNATSConfigRequired = errors.New("NATS configuration required for NATS cache")
	ErrSQLConfigRequired  = errors.New("SQL configuration required for SQL cache")
	ErrFileConfigRequired = errors.New("file configuration required for file cache")
	ErrUnsupportedCache   = errors.New("unsupported cache type")
	ErrNoSession          = errors.New("no cached session and no credentials to log on with")
	ErrSessionExpired     = errors.New("cached session has expired and there are no credentials to log on with")
	ErrTokenCache         = errors.New("token cache failed")
)

// AsRequestError extracts a RequestError from err.
func AsRequestError(err error) (*RequestError, bool) {
	reqErr := &RequestError{}
	if errors.As(err, &reqErr) {
		return reqErr, true
	}

	return nil, false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsAccessDenied checks if the error is an access denied error.
func IsAccessDenied(err error) bool {
	return hasKind(err, KindAccessDenied)
}

// IsTooManyRequests checks if the error is a rate limit error.
func IsTooManyRequests(err error) bool {
	return hasKind(err, KindTooManyRequests)
}

// IsTransportError checks if the request never produced an HTTP response.
func IsTransportError(err error) bool {
	transportErr := &TransportError{}

	return errors.As(err, &transportErr)
}

func hasKind(err error, kind ErrorKind) bool {
	reqErr, ok := AsRequestError(err)

	return ok && reqErr.Kind == kind
}
