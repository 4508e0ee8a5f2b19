package roi_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/roi/pkg/roi"
)

const (
	tokenKey  = "roi.rest.session_token"
	expireKey = "roi.rest.session_expire"
)

// exerciseTokenCache runs the behavior every TokenCache shares.
func exerciseTokenCache(t *testing.T, cache roi.TokenCache) {
	t.Helper()

	ctx := context.Background()

	value, err := cache.Get(ctx, expireKey, "0")
	require.NoError(t, err)
	assert.Equal(t, "0", value)

	require.NoError(t, cache.Set(ctx, tokenKey, "abc"))
	require.NoError(t, cache.Set(ctx, expireKey, "1705381200"))

	value, err = cache.Get(ctx, tokenKey, "")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)

	value, err = cache.Get(ctx, expireKey, "0")
	require.NoError(t, err)
	assert.Equal(t, "1705381200", value)

	require.NoError(t, cache.Set(ctx, tokenKey, "def"))

	value, err = cache.Get(ctx, tokenKey, "")
	require.NoError(t, err)
	assert.Equal(t, "def", value)
}

func TestMemoryTokenCache(t *testing.T) {
	t.Parallel()

	cache := roi.NewMemoryTokenCache()
	exerciseTokenCache(t, cache)

	require.NoError(t, cache.Delete(context.Background(), tokenKey))

	value, err := cache.Get(context.Background(), tokenKey, "missing")
	require.NoError(t, err)
	assert.Equal(t, "missing", value)
}

func TestMemoryTokenCache_Concurrent(t *testing.T) {
	t.Parallel()

	cache := roi.NewMemoryTokenCache()
	ctx := context.Background()

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = cache.Set(ctx, tokenKey, "abc")
			_, _ = cache.Get(ctx, tokenKey, "")
		}()
	}

	wg.Wait()

	value, err := cache.Get(ctx, tokenKey, "")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}

func TestFileTokenCache(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "token-cache.yml")

	cache, err := roi.NewFileTokenCache(path)
	require.NoError(t, err)

	exerciseTokenCache(t, cache)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A second cache over the same file sees the session.
	other, err := roi.NewFileTokenCache(path)
	require.NoError(t, err)

	value, err := other.Get(context.Background(), tokenKey, "")
	require.NoError(t, err)
	assert.Equal(t, "def", value)
}

func TestFileTokenCache_Errors(t *testing.T) {
	t.Parallel()

	_, err := roi.NewFileTokenCache("")
	require.ErrorIs(t, err, roi.ErrFileConfigRequired)

	path := filepath.Join(t.TempDir(), "token-cache.yml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o600))

	cache, err := roi.NewFileTokenCache(path)
	require.NoError(t, err)

	value, err := cache.Get(context.Background(), tokenKey, "fallback")
	require.Error(t, err)
	assert.Equal(t, "fallback", value)

	require.Error(t, cache.Set(context.Background(), tokenKey, "abc"))
}

// fakeKeyValue implements the parts of nats.KeyValue the cache uses.
type fakeKeyValue struct {
	nats.KeyValue

	mu     sync.Mutex
	values map[string][]byte
	getErr error
}

func newFakeKeyValue() *fakeKeyValue {
	return &fakeKeyValue{values: make(map[string][]byte)}
}

func (kv *fakeKeyValue) Get(key string) (nats.KeyValueEntry, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.getErr != nil {
		return nil, kv.getErr
	}

	value, ok := kv.values[key]
	if !ok {
		return nil, nats.ErrKeyNotFound
	}

	return &fakeEntry{key: key, value: value}, nil
}

func (kv *fakeKeyValue) Put(key string, value []byte) (uint64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.values[key] = value

	return uint64(len(kv.values)), nil
}

type fakeEntry struct {
	nats.KeyValueEntry

	key   string
	value []byte
}

func (e *fakeEntry) Key() string   { return e.key }
func (e *fakeEntry) Value() []byte { return e.value }

func TestNATSKVTokenCache(t *testing.T) {
	t.Parallel()

	kv := newFakeKeyValue()

	cache, err := roi.NewNATSKVTokenCache(&roi.NATSKVConfig{KeyValue: kv})
	require.NoError(t, err)

	exerciseTokenCache(t, cache)
	assert.Equal(t, []byte("def"), kv.values[tokenKey])

	// Close leaves connections it did not open alone.
	require.NoError(t, cache.Close())
}

func TestNATSKVTokenCache_Errors(t *testing.T) {
	t.Parallel()

	_, err := roi.NewNATSKVTokenCache(nil)
	require.ErrorIs(t, err, roi.ErrNATSConfigRequired)

	_, err = roi.NewNATSKVTokenCache(&roi.NATSKVConfig{Bucket: "roi_session"})
	require.ErrorIs(t, err, roi.ErrNATSConfigRequired)

	kv := newFakeKeyValue()
	kv.getErr = nats.ErrKeyDeleted

	cache, err := roi.NewNATSKVTokenCache(&roi.NATSKVConfig{KeyValue: kv})
	require.NoError(t, err)

	value, err := cache.Get(context.Background(), tokenKey, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", value)

	kv.getErr = nats.ErrConnectionClosed

	value, err = cache.Get(context.Background(), tokenKey, "fallback")
	require.ErrorIs(t, err, nats.ErrConnectionClosed)
	assert.Equal(t, "fallback", value)
}

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestSQLTokenCache(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)

	cache, err := roi.NewSQLTokenCache(context.Background(), &roi.SQLConfig{DB: db})
	require.NoError(t, err)

	exerciseTokenCache(t, cache)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM roi_token_cache"))
	assert.Equal(t, 2, count)

	// The handle belongs to the caller.
	require.NoError(t, cache.Close())
	require.NoError(t, db.Ping())
}

func TestSQLTokenCache_CustomTable(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)

	first, err := roi.NewSQLTokenCache(context.Background(), &roi.SQLConfig{DB: db, Table: "sessions"})
	require.NoError(t, err)
	require.NoError(t, first.Set(context.Background(), tokenKey, "abc"))

	// Opening again keeps existing rows.
	second, err := roi.NewSQLTokenCache(context.Background(), &roi.SQLConfig{DB: db, Table: "sessions"})
	require.NoError(t, err)

	value, err := second.Get(context.Background(), tokenKey, "")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}

func TestSQLTokenCache_OwnConnection(t *testing.T) {
	t.Parallel()

	dsn := "file:" + filepath.Join(t.TempDir(), "cache.db")

	cache, err := roi.NewSQLTokenCache(context.Background(), &roi.SQLConfig{Driver: "sqlite3", DSN: dsn})
	require.NoError(t, err)

	exerciseTokenCache(t, cache)
	require.NoError(t, cache.Close())
}

func TestSQLTokenCache_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := roi.NewSQLTokenCache(ctx, nil)
	require.ErrorIs(t, err, roi.ErrSQLConfigRequired)

	_, err = roi.NewSQLTokenCache(ctx, &roi.SQLConfig{Driver: "sqlite3"})
	require.ErrorIs(t, err, roi.ErrSQLConfigRequired)

	_, err = roi.NewSQLTokenCache(ctx, &roi.SQLConfig{DB: openSQLite(t), Table: "tokens; DROP TABLE donors"})
	require.ErrorIs(t, err, roi.ErrSQLConfigRequired)

	_, err = roi.NewSQLTokenCache(ctx, &roi.SQLConfig{Driver: "no-such-driver", DSN: "x"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, roi.ErrSQLConfigRequired))
}

func TestBatchTokenCache_SetMany(t *testing.T) {
	t.Parallel()

	fileCache, err := roi.NewFileTokenCache(filepath.Join(t.TempDir(), "token-cache.yml"))
	require.NoError(t, err)

	sqlCache, err := roi.NewSQLTokenCache(context.Background(), &roi.SQLConfig{DB: openSQLite(t)})
	require.NoError(t, err)

	caches := map[string]roi.BatchTokenCache{
		"memory": roi.NewMemoryTokenCache(),
		"file":   fileCache,
		"sql":    sqlCache,
	}

	for name, cache := range caches {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()

			require.NoError(t, cache.Set(ctx, "unrelated", "kept"))
			require.NoError(t, cache.SetMany(ctx, map[string]string{tokenKey: "abc", expireKey: "1705381200"}))
			require.NoError(t, cache.SetMany(ctx, map[string]string{tokenKey: "", expireKey: "0"}))

			for key, expected := range map[string]string{tokenKey: "", expireKey: "0", "unrelated": "kept"} {
				value, err := cache.Get(ctx, key, "missing")
				require.NoError(t, err)
				assert.Equal(t, expected, value, key)
			}
		})
	}
}

func TestSQLTokenCache_SetManyRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openSQLite(t)

	cache, err := roi.NewSQLTokenCache(ctx, &roi.SQLConfig{DB: db})
	require.NoError(t, err)
	require.NoError(t, cache.SetMany(ctx, map[string]string{tokenKey: "abc", expireKey: "1705381200"}))

	// A trigger rejecting expiry writes makes the second upsert fail.
	_, err = db.Exec(`CREATE TRIGGER reject_expiry BEFORE UPDATE ON roi_token_cache
		WHEN NEW.cache_key = '` + expireKey + `' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	err = cache.SetMany(ctx, map[string]string{tokenKey: "def", expireKey: "1705467600"})
	require.Error(t, err)

	value, err := cache.Get(ctx, tokenKey, "")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}
