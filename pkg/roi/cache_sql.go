package roi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"

	"github.com/fivetwenty-io/roi/internal/constants"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLConfig configures the SQL token cache. The caller imports the driver.
type SQLConfig struct {
	// DB reuses an open handle
	DB *sqlx.DB

	// Driver and DSN open a new handle when DB is nil
	Driver string
	DSN    string

	// Table holds the cache rows, created when missing
	Table string
}

// SQLTokenCache keeps values in a two-column table.
type SQLTokenCache struct {
	db    *sqlx.DB
	table string
	own   bool
}

type cacheRow struct {
	Key   string `db:"cache_key"`
	Value string `db:"cache_value"`
}

// NewSQLTokenCache opens the database if needed and creates the table.
func NewSQLTokenCache(ctx context.Context, config *SQLConfig) (*SQLTokenCache, error) {
	if config == nil {
		return nil, ErrSQLConfigRequired
	}

	table := config.Table
	if table == "" {
		table = constants.DefaultSQLTable
	}

	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", ErrSQLConfigRequired, table)
	}

	db := config.DB
	own := false

	if db == nil {
		if config.Driver == "" || config.DSN == "" {
			return nil, ErrSQLConfigRequired
		}

		var err error

		db, err = sqlx.ConnectContext(ctx, config.Driver, config.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening token cache database: %w", err)
		}

		own = true
	}

	cache := &SQLTokenCache{db: db, table: table, own: own}

	_, err := db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (cache_key VARCHAR(255) PRIMARY KEY, cache_value TEXT NOT NULL)", table))
	if err != nil {
		_ = cache.Close()

		return nil, fmt.Errorf("creating token cache table: %w", err)
	}

	return cache, nil
}

// Get implements TokenCache.
func (c *SQLTokenCache) Get(ctx context.Context, key, def string) (string, error) {
	var row cacheRow

	query := c.db.Rebind(fmt.Sprintf("SELECT cache_key, cache_value FROM %s WHERE cache_key = ?", c.table))

	err := c.db.GetContext(ctx, &row, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}

	if err != nil {
		return def, fmt.Errorf("reading %s from token cache: %w", key, err)
	}

	return row.Value, nil
}

// Set implements TokenCache.
func (c *SQLTokenCache) Set(ctx context.Context, key, value string) error {
	_, err := c.db.NamedExecContext(ctx, c.upsertQuery(), cacheRow{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("writing %s to token cache: %w", key, err)
	}

	return nil
}

// SetMany implements BatchTokenCache in one transaction.
func (c *SQLTokenCache) SetMany(ctx context.Context, values map[string]string) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting token cache transaction: %w", err)
	}

	query := c.upsertQuery()

	for key, value := range values {
		_, err = tx.NamedExecContext(ctx, query, cacheRow{Key: key, Value: value})
		if err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("writing %s to token cache: %w", key, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("committing token cache: %w", err)
	}

	return nil
}

func (c *SQLTokenCache) upsertQuery() string {
	return fmt.Sprintf(
		"INSERT INTO %s (cache_key, cache_value) VALUES (:cache_key, :cache_value) "+
			"ON CONFLICT (cache_key) DO UPDATE SET cache_value = excluded.cache_value", c.table)
}

// Close closes the database if the cache opened it.
func (c *SQLTokenCache) Close() error {
	if c.own {
		return c.db.Close()
	}

	return nil
}
