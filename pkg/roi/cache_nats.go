package roi

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/roi/internal/constants"
)

// NATSKVConfig configures the NATS JetStream key-value token cache.
type NATSKVConfig struct {
	// URL of the NATS server, used when Conn is nil
	URL string

	// Bucket is the KV bucket name, created when missing
	Bucket string

	// Conn reuses an existing connection
	Conn *nats.Conn

	// KeyValue reuses an existing bucket handle and skips connecting
	KeyValue nats.KeyValue
}

// NATSKVTokenCache shares the session between processes through a NATS KV bucket.
type NATSKVTokenCache struct {
	kv   nats.KeyValue
	conn *nats.Conn
	own  bool
}

// NewNATSKVTokenCache connects to NATS and opens, or creates, the bucket.
func NewNATSKVTokenCache(config *NATSKVConfig) (*NATSKVTokenCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	if config.KeyValue != nil {
		return &NATSKVTokenCache{kv: config.KeyValue}, nil
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	conn := config.Conn
	own := false

	if conn == nil {
		if config.URL == "" {
			return nil, ErrNATSConfigRequired
		}

		var err error

		conn, err = nats.Connect(config.URL, nats.Name(constants.DefaultUserAgent))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		own = true
	}

	js, err := conn.JetStream()
	if err != nil {
		closeOwned(conn, own)

		return nil, fmt.Errorf("opening JetStream: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "ROI session token cache",
		})
	}

	if err != nil {
		closeOwned(conn, own)

		return nil, fmt.Errorf("opening KV bucket %s: %w", bucket, err)
	}

	return &NATSKVTokenCache{kv: kv, conn: conn, own: own}, nil
}

// Get implements TokenCache.
func (c *NATSKVTokenCache) Get(ctx context.Context, key, def string) (string, error) {
	entry, err := c.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted) {
		return def, nil
	}

	if err != nil {
		return def, fmt.Errorf("reading %s from NATS KV: %w", key, err)
	}

	return string(entry.Value()), nil
}

// Set implements TokenCache.
func (c *NATSKVTokenCache) Set(ctx context.Context, key, value string) error {
	_, err := c.kv.Put(key, []byte(value))
	if err != nil {
		return fmt.Errorf("writing %s to NATS KV: %w", key, err)
	}

	return nil
}

// Close drains the connection if the cache opened it.
func (c *NATSKVTokenCache) Close() error {
	if c.own && c.conn != nil {
		return c.conn.Drain()
	}

	return nil
}

func closeOwned(conn *nats.Conn, own bool) {
	if own {
		conn.Close()
	}
}
