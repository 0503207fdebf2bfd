package types

// Network represents supported blockchain networks
type Network string

const (
	// EVM Networks
	NetworkBase        Network = "base"
	NetworkBaseSepolia Network = "base-sepolia" // testnet

	// Solana Networks
	NetworkSolana       Network = "solana"
	NetworkSolanaDevnet Network = "solana-devnet" // testnet
)

// USDC asset identifiers per network. The verifier only accepts transfers of
// the configured asset; these are the defaults unless overridden in
// ClientConfig.
const (
	USDCBase        = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	USDCBaseSepolia = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
	USDCSolana      = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDCSolanaDev   = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"

	// USDCDecimals is the fixed decimal count of USDC on every supported chain.
	USDCDecimals = 6

	USDCSymbol = "USDC"
)

// DefaultAsset returns the USDC asset identifier for a network, or "" for
// unknown networks.
func (n Network) DefaultAsset() string {
	switch n {
	case NetworkBase:
		return USDCBase
	case NetworkBaseSepolia:
		return USDCBaseSepolia
	case NetworkSolana:
		return USDCSolana
	case NetworkSolanaDevnet:
		return USDCSolanaDev
	}
	return ""
}

// Helper functions for network classification
func (n Network) IsEVM() bool {
	return n == NetworkBase || n == NetworkBaseSepolia
}

func (n Network) IsSolana() bool {
	return n == NetworkSolana || n == NetworkSolanaDevnet
}

func (n Network) IsTestnet() bool {
	return n == NetworkBaseSepolia || n == NetworkSolanaDevnet
}

func (n Network) IsSupported() bool {
	return n.IsEVM() || n.IsSolana()
}

func (n Network) String() string {
	return string(n)
}
