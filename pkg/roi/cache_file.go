package roi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/roi/internal/constants"
)

// FileTokenCache persists values in a YAML file so a later process can pick
// up the session. Writes go through a temp file and a rename.
type FileTokenCache struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenCache creates a cache backed by path. The file is created on
// the first Set.
func NewFileTokenCache(path string) (*FileTokenCache, error) {
	if path == "" {
		return nil, ErrFileConfigRequired
	}

	return &FileTokenCache{path: path}, nil
}

// Get implements TokenCache.
func (c *FileTokenCache) Get(ctx context.Context, key, def string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.load()
	if err != nil {
		return def, err
	}

	value, ok := values[key]
	if !ok {
		return def, nil
	}

	return value, nil
}

// Set implements TokenCache.
func (c *FileTokenCache) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.load()
	if err != nil {
		return err
	}

	values[key] = value

	return c.save(values)
}

// SetMany implements BatchTokenCache with a single rename.
func (c *FileTokenCache) SetMany(ctx context.Context, updates map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.load()
	if err != nil {
		return err
	}

	for key, value := range updates {
		values[key] = value
	}

	return c.save(values)
}

func (c *FileTokenCache) load() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading token cache: %w", err)
	}

	err = yaml.Unmarshal(data, &values)
	if err != nil {
		return nil, fmt.Errorf("parsing token cache: %w", err)
	}

	if values == nil {
		values = make(map[string]string)
	}

	return values, nil
}

func (c *FileTokenCache) save(values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding token cache: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(c.path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating token cache directory: %w", err)
	}

	tmp := c.path + ".tmp"

	err = os.WriteFile(tmp, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing token cache: %w", err)
	}

	err = os.Rename(tmp, c.path)
	if err != nil {
		return fmt.Errorf("replacing token cache: %w", err)
	}

	return nil
}
