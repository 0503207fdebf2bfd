// Package clients provides the per-chain adapters that translate a
// blockchain-specific transaction record into a normalized transfer-effect
// tuple.
package clients

import (
	"context"
	"math/big"

	"github.com/scrapeway/paygate/types"
)

// TransferEffect is the normalized result of a confirmed on-chain token
// transfer: who received what, in raw integer units of the asset. Decimal
// scaling is the verifier's job, since decimals are asset metadata the
// adapter should not hardcode.
type TransferEffect struct {
	// Recipient is the receiving address: a checksummed hex address on EVM,
	// the owning wallet (not the token account) on Solana.
	Recipient string

	// Asset is the token contract address (EVM) or mint (Solana).
	Asset string

	// AmountRaw is the transferred amount in the asset's atomic units.
	AmountRaw *big.Int
}

// Client is the capability interface each chain adapter implements.
//
// expectedRecipient is a disambiguation hint: when a transaction carries
// several qualifying transfers (a swap followed by a transfer, for example),
// the adapter reports the one paying the expected address. Adapters do not
// retry; retry policy belongs to the verifier.
type Client interface {
	FetchTransferEffect(ctx context.Context, reference string, expectedRecipient string) (*TransferEffect, error)
	Network() types.Network
	Close()
}
