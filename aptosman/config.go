package aptosman

import "github.com/aptos-labs/aptos-go-sdk"

type AptosmanConfig struct {
	// Network type: mainnet, testnet, devnet
	Network string

	// Node REST url, overrides the network default, e.g. http://127.0.0.1:8080/v1
	URL string

	// Hex ed25519 key of the faucet account, 32 byte seed or 64 byte key, with or without 0x
	CoreAccountPriv string
}

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkDevnet  = "devnet"
)

// GetNetworkConfig picks the sdk network config, devnet when unknown.
func GetNetworkConfig(network string, url string) aptos.NetworkConfig {
	var networkConfig aptos.NetworkConfig
	switch network {
	case NetworkMainnet:
		networkConfig = aptos.MainnetConfig
	case NetworkTestnet:
		networkConfig = aptos.TestnetConfig
	default:
		networkConfig = aptos.DevnetConfig
	}
	if url != "" {
		networkConfig.NodeUrl = url
	}
	return networkConfig
}
