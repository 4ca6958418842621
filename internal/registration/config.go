package registration

import "github.com/Klingon-tech/klayr-reg/internal/rpcclient"

// ChainConfig holds the settings of one chain.
type ChainConfig struct {
	Endpoint rpcclient.Endpoint
	// RelayerPhrase and DerivationPath derive the account that signs and
	// pays for the registration transaction submitted to this chain.
	RelayerPhrase  string
	DerivationPath string
	// ConnectorPassword unlocks this chain's connector plugin.
	ConnectorPassword string
}

// Config is the fully resolved input of a registration run.
type Config struct {
	SidechainName string
	Main          ChainConfig
	Side          ChainConfig

	AuthorizeChainConnector bool

	// Fee overrides. When set, the fee is used verbatim and no
	// estimation is done.
	RegisterSidechainFee *uint64
	RegisterMainchainFee *uint64
}
