package constants

import "errors"

// Configuration errors.
var (
	ErrUnknownCacheType = errors.New("unknown token cache type")
	ErrNATSURLRequired  = errors.New("--nats-url is required for the nats cache")
	ErrCacheNotDurable  = errors.New("login needs a cache that outlives the command (file, sqlite or nats)")
)

// Command errors.
var (
	ErrUnknownOutputFormat = errors.New("unknown output format")
	ErrUserIDRequired      = errors.New("user id is required")
	ErrClientCodeRequired  = errors.New("client code is required")
)
