package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vitwit/kycsbt/types"
	"github.com/vitwit/kycsbt/utils"
	"gopkg.in/yaml.v3"
)

const (
	ConfigName = "kycsbt"
	ConfigType = "yaml"
	EnvPrefix  = "KYC"
)

// Built-in HashKey Chain deployments.
var (
	DefaultMainnet = types.NetworkEndpoints{
		ContractAddress: "0x0f362c05fb3Fadca687648F412abE2A6d6450D70",
		ExplorerURL:     "https://explorer.hsk.xyz",
		RPCURL:          "https://mainnet.hsk.xyz/",
	}
	DefaultTestnet = types.NetworkEndpoints{
		ContractAddress: "0xA45f42F09A7Ae50e556467cf65cF3Cf45711114E",
		ExplorerURL:     "https://testnet-explorer.hsk.xyz",
		RPCURL:          "https://hk-testnet.rpc.alt.technology",
	}
)

// legacyEnv maps config keys to the environment names used by the web
// frontend deployments, so an existing .env keeps working.
var legacyEnv = map[string]string{
	"mainnet.contract_address": "NEXT_PUBLIC_KYC_SBT_ADDRESS",
	"mainnet.resolver_address": "NEXT_PUBLIC_KYC_RESOLVER_ADDRESS",
	"mainnet.explorer_url":     "NEXT_PUBLIC_EXPLORER_URL",
	"mainnet.rpc_url":          "NEXT_PUBLIC_RPC_URL",
	"testnet.contract_address": "NEXT_PUBLIC_KYC_SBT_ADDRESS_TEST",
	"testnet.resolver_address": "NEXT_PUBLIC_KYC_RESOLVER_ADDRESS_TEST",
	"testnet.explorer_url":     "NEXT_PUBLIC_EXPLORER_URL_TEST",
	"testnet.rpc_url":          "NEXT_PUBLIC_RPC_URL_TEST",
}

// Default returns the configuration used when no file is present.
func Default() *types.Config {
	return &types.Config{
		Mainnet: DefaultMainnet,
		Testnet: DefaultTestnet,
		Suffix:  types.DefaultSuffix,
		Store: types.StoreConfig{
			Driver: "memory",
			Prefix: "kycsbt",
		},
		DefaultTimeout: 2 * time.Minute,
		PollInterval:   2 * time.Second,
		LogLevel:       "info",
		ListenAddr:     ":8080",
	}
}

// Load reads path, or kycsbt.yaml from the working directory and
// $HOME/.config/kycsbt when path is empty. KYC_* variables override file
// values. A missing default file is not an error; a missing explicit path is.
func Load(path string) (*types.Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, configError("bind %s: %v", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType(ConfigType)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/kycsbt")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, configError("failed to read config: %v", err)
		}
	}

	cfg := &types.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, configError("failed to decode config: %v", err)
	}
	if err := utils.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML. The private key is never included.
func Marshal(cfg *types.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func setDefaults(v *viper.Viper, d *types.Config) {
	for prefix, ep := range map[string]types.NetworkEndpoints{"mainnet": d.Mainnet, "testnet": d.Testnet} {
		v.SetDefault(prefix+".contract_address", ep.ContractAddress)
		v.SetDefault(prefix+".resolver_address", ep.ResolverAddress)
		v.SetDefault(prefix+".explorer_url", ep.ExplorerURL)
		v.SetDefault(prefix+".rpc_url", ep.RPCURL)
	}
	v.SetDefault("chain", d.Chain)
	v.SetDefault("suffix", d.Suffix)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.redis_url", d.Store.RedisURL)
	v.SetDefault("store.prefix", d.Store.Prefix)
	v.SetDefault("private_key", "")
	v.SetDefault("default_timeout", d.DefaultTimeout)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("enable_metrics", d.EnableMetrics)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("listen_addr", d.ListenAddr)
}

func configError(format string, args ...any) error {
	return &types.KycError{Code: types.ErrConfigError, Message: fmt.Sprintf(format, args...)}
}
