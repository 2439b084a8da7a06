// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	RPCURL          string `mapstructure:"rpc_url"`
	MetadataAPIURL  string `mapstructure:"metadata_api_url"`
	LoadKeysByAPI   bool   `mapstructure:"load_keys_by_api"`
	SlippageBps     uint16 `mapstructure:"slippage_bps"`
	PriorityFee     uint64 `mapstructure:"priority_fee"`
	PriorityFeeMode string `mapstructure:"priority_fee_mode"` // "cu_price" | "budget"
	ComputeUnits    uint32 `mapstructure:"compute_units"`     // 0 = оценка симуляцией
	WrapUnwrapSOL   bool   `mapstructure:"wrap_unwrap_sol"`
	DebugLogging    bool   `mapstructure:"debug_logging"`
	LogFile         string `mapstructure:"log_file"`
}

const (
	DefaultSlippageBps     = 50
	DefaultPriorityFeeMode = "cu_price"
	DefaultLogFile         = "raydium-executor.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"load_keys_by_api":  true,
		"slippage_bps":      DefaultSlippageBps,
		"priority_fee_mode": DefaultPriorityFeeMode,
		"wrap_unwrap_sol":   true,
		"log_file":          DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("missing rpc_url in configuration")
	}
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.MetadataAPIURL != "" {
		if err := validateURL(cfg.MetadataAPIURL, "http"); err != nil {
			return errors.New("invalid metadata API URL protocol")
		}
	}
	if cfg.SlippageBps > 10000 {
		return errors.New("slippage_bps must not exceed 10000")
	}
	switch cfg.PriorityFeeMode {
	case "cu_price", "budget":
	default:
		return errors.New("priority_fee_mode must be cu_price or budget")
	}
	if cfg.ComputeUnits > 1_400_000 {
		return errors.New("compute_units exceeds network maximum")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("RAYDIUM_EXECUTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if envRPC := v.GetString("RPC_URL"); envRPC != "" {
		cfg.RPCURL = envRPC
	}
	if envAPI := v.GetString("METADATA_API_URL"); envAPI != "" {
		cfg.MetadataAPIURL = envAPI
	}
	return nil
}
