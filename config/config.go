package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	ExplorerURL       string
	ExplorerAPIKey    string
	HistoryRetries    int
	TokenListURL      string
	DataDir           string
	Debounce          time.Duration
	SlippageTolerance float64
	ConfirmDelay      time.Duration

	Wallet WalletConfig
	API    APIConfig
}

// WalletConfig configures the connectors the wallet adapter can use
type WalletConfig struct {
	RPCURL           string
	PrivateKey       string
	KeystoreDir      string
	KeystorePassword string
	WatchAddress     string
	SupportedChains  []int64
}

// APIConfig configures the local JSON API
type APIConfig struct {
	Listen    string
	RateLimit int
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".dex-swap")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnv(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("DEX_SWAP")
	v.AutomaticEnv()
}

func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("explorer_url", "https://api.etherscan.io/api")
	v.SetDefault("explorer_api_key", "")
	v.SetDefault("history_retries", 2)
	v.SetDefault("token_list_url", "")
	v.SetDefault("data_dir", filepath.Join(home, ".dex-swap"))
	v.SetDefault("debounce_ms", 400)
	v.SetDefault("slippage_tolerance", 0.5)
	v.SetDefault("confirm_delay_ms", 1500)
	v.SetDefault("rpc_url", "")
	v.SetDefault("private_key", "")
	v.SetDefault("keystore_dir", "")
	v.SetDefault("keystore_password", "")
	v.SetDefault("watch_address", "")
	v.SetDefault("supported_chains", []int{1, 10, 137, 8453, 42161, 11155111})
	v.SetDefault("api_listen", "127.0.0.1:8787")
	v.SetDefault("api_rate_limit", 120)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ExplorerURL:       v.GetString("explorer_url"),
		ExplorerAPIKey:    v.GetString("explorer_api_key"),
		HistoryRetries:    v.GetInt("history_retries"),
		TokenListURL:      v.GetString("token_list_url"),
		DataDir:           v.GetString("data_dir"),
		Debounce:          time.Duration(v.GetInt("debounce_ms")) * time.Millisecond,
		SlippageTolerance: v.GetFloat64("slippage_tolerance"),
		ConfirmDelay:      time.Duration(v.GetInt("confirm_delay_ms")) * time.Millisecond,
		Wallet: WalletConfig{
			RPCURL:           v.GetString("rpc_url"),
			PrivateKey:       v.GetString("private_key"),
			KeystoreDir:      v.GetString("keystore_dir"),
			KeystorePassword: v.GetString("keystore_password"),
			WatchAddress:     v.GetString("watch_address"),
		},
		API: APIConfig{
			Listen:    v.GetString("api_listen"),
			RateLimit: v.GetInt("api_rate_limit"),
		},
	}

	chains, err := parseChainIDs(v.Get("supported_chains"))
	if err != nil {
		return nil, err
	}
	cfg.Wallet.SupportedChains = chains

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseChainIDs accepts a list from the config file or defaults, or a comma or
// space separated string from the environment
func parseChainIDs(raw any) ([]int64, error) {
	if raw == nil {
		return nil, nil
	}

	if s, ok := raw.(string); ok {
		fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
		ids := make([]int64, 0, len(fields))
		for _, f := range fields {
			id, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("supported_chains: invalid chain id %q", f)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	values, err := cast.ToIntSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("supported_chains: %w", err)
	}
	ids := make([]int64, 0, len(values))
	for _, id := range values {
		ids = append(ids, int64(id))
	}
	return ids, nil
}

// Validate checks the configuration for values the application cannot work with
func (c *Config) Validate() error {
	if c.ExplorerURL == "" {
		return fmt.Errorf("explorer_url must not be empty")
	}
	if c.HistoryRetries < 0 {
		return fmt.Errorf("history_retries must be >= 0")
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce_ms must be greater than 0")
	}
	if c.SlippageTolerance < 0 || c.SlippageTolerance >= 100 {
		return fmt.Errorf("slippage_tolerance must be in [0, 100)")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.API.RateLimit <= 0 {
		return fmt.Errorf("api_rate_limit must be greater than 0")
	}
	for _, id := range c.Wallet.SupportedChains {
		if id <= 0 {
			return fmt.Errorf("supported_chains must only hold positive chain ids, got %d", id)
		}
	}
	return nil
}

// SettingsPath returns the location of the persisted preferences file
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// ActivityPath returns the location of the swap activity log
func (c *Config) ActivityPath() string {
	return filepath.Join(c.DataDir, "activity.json")
}

// Get returns the global configuration, loading it on first use. A load error
// is fatal.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
