package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/roi/internal/constants"
	"github.com/fivetwenty-io/roi/pkg/roi"
	"github.com/fivetwenty-io/roi/pkg/roiclient"
)

// Cache types accepted by --cache-type.
const (
	cacheTypeSQLite = "sqlite"
	configDirName   = ".roi"
	configFileName  = "config.yml"
)

// Static errors for err113 compliance.
var (
	ErrNotLoggedIn      = errors.New("not logged in, run 'roi login'")
	ErrUnknownConfigKey = errors.New("unknown configuration key")
	ErrSessionExpired   = errors.New("session expired, run 'roi login'")
)

// Config represents the CLI configuration.
type Config struct {
	BaseURL    string `json:"base_url,omitempty"    yaml:"base_url,omitempty"`
	UserID     string `json:"user_id,omitempty"     yaml:"user_id,omitempty"`
	ClientCode string `json:"client_code,omitempty" yaml:"client_code,omitempty"`
	Password   string `json:"password,omitempty"    yaml:"password,omitempty"`
	Output     string `json:"output,omitempty"      yaml:"output,omitempty"`

	CacheType string `json:"cache_type,omitempty" yaml:"cache_type,omitempty"`
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty"`
	NATSURL   string `json:"nats_url,omitempty"   yaml:"nats_url,omitempty"`
}

// configKeys are the keys accepted by "config set" and "config unset".
var configKeys = []string{"base_url", "user_id", "client_code", "password", "output", "cache_type", "cache_path", "nats_url"}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in ~/.roi/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Password != "" {
				config.Password = constants.MaskedSecret
			}

			switch viper.GetString("output") {
			case constants.FormatJSON:
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")

				return encoder.Encode(config)
			case constants.FormatYAML:
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(config)
			default:
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Key", "Value")
				_ = table.Append("base_url", valueOrNA(config.BaseURL))
				_ = table.Append("user_id", valueOrNA(config.UserID))
				_ = table.Append("client_code", valueOrNA(config.ClientCode))
				_ = table.Append("password", valueOrNA(config.Password))
				_ = table.Append("output", valueOrNA(config.Output))
				_ = table.Append("cache_type", valueOrNA(config.CacheType))
				_ = table.Append("cache_path", valueOrNA(config.CachePath))
				_ = table.Append("nats_url", valueOrNA(config.NATSURL))

				return table.Render()
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value and save it to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadFileConfig()
			if err != nil {
				return err
			}

			err = config.set(args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadFileConfig()
			if err != nil {
				return err
			}

			err = config.set(args[0], "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func (c *Config) set(key, value string) error {
	switch key {
	case "base_url":
		c.BaseURL = value
	case "user_id":
		c.UserID = value
	case "client_code":
		c.ClientCode = value
	case "password":
		c.Password = value
	case "output":
		c.Output = value
	case "cache_type":
		c.CacheType = value
	case "cache_path":
		c.CachePath = value
	case "nats_url":
		c.NATSURL = value
	default:
		return fmt.Errorf("%w: %s (valid keys: %v)", ErrUnknownConfigKey, key, configKeys)
	}

	return nil
}

// loadConfig reads the configuration viper assembled from the config file,
// ROI_* environment variables and flags.
func loadConfig() *Config {
	return &Config{
		BaseURL:    viper.GetString("base_url"),
		UserID:     viper.GetString("user_id"),
		ClientCode: viper.GetString("client_code"),
		Password:   viper.GetString("password"),
		Output:     viper.GetString("output"),
		CacheType:  viper.GetString("cache_type"),
		CachePath:  viper.GetString("cache_path"),
		NATSURL:    viper.GetString("nats_url"),
	}
}

// loadFileConfig reads only the config file, so saving it back does not
// persist values that came from flags or the environment.
func loadFileConfig() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	config := &Config{}

	// configFile comes from --config or the user's home directory.
	// #nosec G304
	data, err := os.ReadFile(configFile)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, configFileName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// cacheConfig maps the CLI cache settings onto a roi.CacheConfig. The default
// is a YAML file next to the config so sessions survive between invocations.
func (c *Config) cacheConfig() (*roi.CacheConfig, error) {
	switch c.CacheType {
	case "", string(roi.CacheTypeFile):
		path := c.CachePath
		if path == "" {
			dir, err := configDir()
			if err != nil {
				return nil, err
			}

			path = filepath.Join(dir, constants.DefaultCacheFile)
		}

		return &roi.CacheConfig{Type: roi.CacheTypeFile, FilePath: path}, nil
	case string(roi.CacheTypeMemory):
		return &roi.CacheConfig{Type: roi.CacheTypeMemory}, nil
	case string(roi.CacheTypeNone):
		return &roi.CacheConfig{Type: roi.CacheTypeNone}, nil
	case string(roi.CacheTypeNATS):
		if c.NATSURL == "" {
			return nil, constants.ErrNATSURLRequired
		}

		return &roi.CacheConfig{
			Type: roi.CacheTypeNATS,
			NATS: &roi.NATSKVConfig{URL: c.NATSURL},
		}, nil
	case cacheTypeSQLite:
		path := c.CachePath
		if path == "" {
			dir, err := configDir()
			if err != nil {
				return nil, err
			}

			path = filepath.Join(dir, "token-cache.db")
		}

		return &roi.CacheConfig{
			Type: roi.CacheTypeSQL,
			SQL:  &roi.SQLConfig{Driver: "sqlite3", DSN: "file:" + path},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnknownCacheType, c.CacheType)
	}
}

// openTokenCache builds the configured cache. The returned close function is
// never nil.
func (c *Config) openTokenCache(ctx context.Context) (roi.TokenCache, func(), error) {
	cacheConfig, err := c.cacheConfig()
	if err != nil {
		return nil, func() {}, err
	}

	if cacheConfig.Type == roi.CacheTypeFile {
		err = os.MkdirAll(filepath.Dir(cacheConfig.FilePath), constants.ConfigDirPerm)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	cache, err := roi.NewTokenCacheFromConfig(ctx, cacheConfig)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open token cache: %w", err)
	}

	closer := func() {}

	if closable, ok := cache.(interface{ Close() error }); ok {
		closer = func() { _ = closable.Close() }
	}

	return cache, closer, nil
}

// clientConfig builds the library configuration. Without a password the
// client only reuses the session "roi login" left in the cache.
func (c *Config) clientConfig(cache roi.TokenCache) *roi.Config {
	return &roi.Config{
		BaseURL:    c.BaseURL,
		UserID:     c.UserID,
		Password:   c.Password,
		ClientCode: c.ClientCode,
		TokenCache: cache,
		UserAgent:  constants.DefaultUserAgent + "-cli",
		Debug:      viper.GetBool("verbose"),
		Logger:     newCLILogger(os.Stderr, viper.GetBool("verbose")),
	}
}

// persistsSession reports whether the configured cache outlives the process.
func (c *Config) persistsSession() bool {
	return c.CacheType != string(roi.CacheTypeMemory) && c.CacheType != string(roi.CacheTypeNone)
}

// sessionError turns the library's missing-session errors into CLI advice.
func sessionError(err error) error {
	switch {
	case errors.Is(err, roi.ErrNoSession):
		return ErrNotLoggedIn
	case errors.Is(err, roi.ErrSessionExpired):
		return ErrSessionExpired
	default:
		return err
	}
}

// withClient opens the token cache, builds a client and runs fn with it.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client roi.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	config := loadConfig()

	cache, closeCache, err := config.openTokenCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	clientConfig := config.clientConfig(cache)
	if !clientConfig.HasCredentials() && cache == nil {
		return ErrNotLoggedIn
	}

	client, err := roiclient.New(ctx, clientConfig)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer func() { _ = client.Close() }()

	return sessionError(fn(ctx, client))
}

// withPublicClient builds a client without credentials for ping and time.
func withPublicClient(cmd *cobra.Command, fn func(ctx context.Context, client roi.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := roiclient.New(ctx, &roi.Config{
		BaseURL:     loadConfig().BaseURL,
		HTTPTimeout: constants.ShortHTTPTimeout,
		UserAgent:   constants.DefaultUserAgent + "-cli",
		Debug:       viper.GetBool("verbose"),
		Logger:      newCLILogger(os.Stderr, viper.GetBool("verbose")),
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return fn(ctx, client)
}
