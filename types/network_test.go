package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMainnet = NetworkEndpoints{
		ContractAddress: "0x0f362c05fb3Fadca687648F412abE2A6d6450D70",
		RPCURL:          "https://mainnet.hsk.xyz/",
		ExplorerURL:     "https://explorer.example/main",
	}
	testTestnet = NetworkEndpoints{
		ContractAddress: "0xA45f42F09A7Ae50e556467cf65cF3Cf45711114E",
		RPCURL:          "https://hk-testnet.rpc.alt.technology",
		ExplorerURL:     "https://explorer.example/test",
	}
)

func strPtr(s string) *string { return &s }

func TestChainNumber(t *testing.T) {
	assert.Equal(t, "177", ChainNumber("eip155:177"))
	assert.Equal(t, "133", ChainNumber("eip155:133"))
	assert.Equal(t, "", ChainNumber("177"))
	assert.Equal(t, "", ChainNumber(""))
}

func TestDeriveNetwork_Mainnet(t *testing.T) {
	cfg := DeriveNetwork(strPtr("eip155:177"), testMainnet, testTestnet)
	assert.True(t, cfg.IsMainnet)
	require.NotNil(t, cfg.ChainID)
	assert.Equal(t, "eip155:177", *cfg.ChainID)
	assert.Equal(t, testMainnet.ContractAddress, cfg.ContractAddress)
	assert.Equal(t, testMainnet.RPCURL, cfg.RPCURL)
	assert.Equal(t, testMainnet.ExplorerURL, cfg.ExplorerURL)
	assert.Equal(t, "Mainnet", cfg.Name())
	assert.Equal(t, "177", cfg.NetworkID())
}

func TestDeriveNetwork_OtherChainIsTestnet(t *testing.T) {
	for _, id := range []string{"eip155:133", "eip155:1", "177"} {
		cfg := DeriveNetwork(strPtr(id), testMainnet, testTestnet)
		assert.False(t, cfg.IsMainnet, id)
		assert.Equal(t, testTestnet.ContractAddress, cfg.ContractAddress, id)
		assert.Equal(t, testTestnet.RPCURL, cfg.RPCURL, id)
	}
}

func TestDeriveNetwork_NilIsDefaultTestnet(t *testing.T) {
	cfg := DeriveNetwork(nil, testMainnet, testTestnet)
	assert.False(t, cfg.IsMainnet)
	assert.Nil(t, cfg.ChainID)
	assert.Equal(t, testTestnet.ContractAddress, cfg.ContractAddress)
	assert.Equal(t, "Testnet", cfg.Name())
	assert.Equal(t, "", cfg.NetworkID())
}

func TestDeriveNetwork_CopiesIdentifier(t *testing.T) {
	id := "eip155:177"
	cfg := DeriveNetwork(&id, testMainnet, testTestnet)
	id = "eip155:133"
	assert.Equal(t, "eip155:177", *cfg.ChainID)
}
