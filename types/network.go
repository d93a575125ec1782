package types

import "strings"

// Chain ids of the two networks the registry is deployed on.
const (
	MainnetChainID = "177"
	TestnetChainID = "133"
)

// StorageNamespace is the key the live network selection is persisted under.
const StorageNamespace = "network-storage"

// NetworkEndpoints is the static, configured description of one deployment.
type NetworkEndpoints struct {
	ContractAddress string `json:"contractAddress" yaml:"contractAddress" mapstructure:"contract_address" validate:"omitempty,eth_addr"`
	ResolverAddress string `json:"resolverAddress" yaml:"resolverAddress" mapstructure:"resolver_address" validate:"omitempty,eth_addr"`
	ExplorerURL     string `json:"explorerUrl" yaml:"explorerUrl" mapstructure:"explorer_url" validate:"omitempty,url"`
	RPCURL          string `json:"rpcUrl" yaml:"rpcUrl" mapstructure:"rpc_url" validate:"omitempty,url"`
}

// NetworkConfig is the live network selection. All fields describe the same
// network; it is only ever replaced as a whole.
type NetworkConfig struct {
	IsMainnet       bool    `json:"isMainnet" yaml:"isMainnet"`
	ChainID         *string `json:"chainId" yaml:"chainId"`
	ContractAddress string  `json:"contractAddress" yaml:"contractAddress"`
	ResolverAddress string  `json:"resolverAddress" yaml:"resolverAddress"`
	ExplorerURL     string  `json:"explorerUrl" yaml:"explorerUrl"`
	RPCURL          string  `json:"rpcUrl" yaml:"rpcUrl"`
}

// Name is "Mainnet" or "Testnet".
func (c NetworkConfig) Name() string {
	if c.IsMainnet {
		return "Mainnet"
	}
	return "Testnet"
}

// NetworkID is the numeric part of the chain identifier, or "" if unknown.
func (c NetworkConfig) NetworkID() string {
	if c.ChainID == nil {
		return ""
	}
	return ChainNumber(*c.ChainID)
}

// ChainNumber extracts the reference after the namespace in a colon-delimited
// chain identifier ("eip155:177" -> "177"). Identifiers without a colon have
// no reference and yield "".
func ChainNumber(identifier string) string {
	parts := strings.Split(identifier, ":")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// DeriveNetwork builds the full configuration for a chain identifier from the
// two configured deployments. nil selects the testnet defaults.
func DeriveNetwork(identifier *string, mainnet, testnet NetworkEndpoints) NetworkConfig {
	isMainnet := identifier != nil && ChainNumber(*identifier) == MainnetChainID

	ep := testnet
	if isMainnet {
		ep = mainnet
	}

	var chainID *string
	if identifier != nil {
		id := *identifier
		chainID = &id
	}

	return NetworkConfig{
		IsMainnet:       isMainnet,
		ChainID:         chainID,
		ContractAddress: ep.ContractAddress,
		ResolverAddress: ep.ResolverAddress,
		ExplorerURL:     ep.ExplorerURL,
		RPCURL:          ep.RPCURL,
	}
}
