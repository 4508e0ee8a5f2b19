package roi

import (
	"context"
	"fmt"
)

// CacheType represents the type of token cache backend.
type CacheType string

const (
	// CacheTypeMemory keeps the session in process memory.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeFile persists the session in a YAML file.
	CacheTypeFile CacheType = "file"

	// CacheTypeNATS shares the session through a NATS KV bucket.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeSQL stores the session in a database table.
	CacheTypeSQL CacheType = "sql"

	// CacheTypeNone disables the external cache.
	CacheTypeNone CacheType = "none"
)

// CacheConfig configures a token cache backend.
type CacheConfig struct {
	// Type is the cache backend type
	Type CacheType

	// FilePath is the YAML file for CacheTypeFile
	FilePath string

	// NATS KV configuration
	NATS *NATSKVConfig

	// SQL configuration
	SQL *SQLConfig
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{Type: CacheTypeMemory}
}

// NewTokenCacheFromConfig creates a token cache from configuration.
// CacheTypeNone returns a nil cache, which leaves the session in the client.
func NewTokenCacheFromConfig(ctx context.Context, config *CacheConfig) (TokenCache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		return NewMemoryTokenCache(), nil

	case CacheTypeFile:
		cache, err := NewFileTokenCache(config.FilePath)
		if err != nil {
			return nil, err
		}

		return cache, nil

	case CacheTypeNATS:
		cache, err := NewNATSKVTokenCache(config.NATS)
		if err != nil {
			return nil, err
		}

		return cache, nil

	case CacheTypeSQL:
		cache, err := NewSQLTokenCache(ctx, config.SQL)
		if err != nil {
			return nil, err
		}

		return cache, nil

	case CacheTypeNone:
		return nil, nil //nolint:nilnil // no cache is a valid configuration

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCache, config.Type)
	}
}

// CacheBuilder helps build cache configurations.
type CacheBuilder struct {
	config *CacheConfig
}

// NewCacheBuilder creates a new cache builder.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{config: DefaultCacheConfig()}
}

// WithType sets the cache type.
func (b *CacheBuilder) WithType(cacheType CacheType) *CacheBuilder {
	b.config.Type = cacheType

	return b
}

// WithFile selects the file backend.
func (b *CacheBuilder) WithFile(path string) *CacheBuilder {
	b.config.Type = CacheTypeFile
	b.config.FilePath = path

	return b
}

// WithNATSConfig selects the NATS KV backend.
func (b *CacheBuilder) WithNATSConfig(config *NATSKVConfig) *CacheBuilder {
	b.config.Type = CacheTypeNATS
	b.config.NATS = config

	return b
}

// WithSQLConfig selects the SQL backend.
func (b *CacheBuilder) WithSQLConfig(config *SQLConfig) *CacheBuilder {
	b.config.Type = CacheTypeSQL
	b.config.SQL = config

	return b
}

// Config returns the configuration built so far.
func (b *CacheBuilder) Config() *CacheConfig {
	return b.config
}

// Build creates the cache from the configuration.
func (b *CacheBuilder) Build(ctx context.Context) (TokenCache, error) {
	return NewTokenCacheFromConfig(ctx, b.config)
}
