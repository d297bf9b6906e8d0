package etherman

import "time"

type EthermanConfig struct {
	// URL is the URL of the Ethereum node
	URL string

	// Hex private key of the faucet account, with or without 0x
	CoreAccountPriv string

	// 0 estimates gas per tx
	GasLimit uint64

	// Timeout on dialing and reading the chain id
	Timeout time.Duration
}
