package clients

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/scrapeway/paygate/types"
)

// SolanaClient resolves payment references on Solana by fetching the confirmed
// transaction and decoding SPL token balance deltas from its meta.
type SolanaClient struct {
	network types.Network
	rpcURL  string
	mint    solana.PublicKey
	client  *rpc.Client
}

var _ Client = (*SolanaClient)(nil)

func NewSolanaClient(network types.Network, rpcURL string, asset string) (*SolanaClient, error) {
	if !network.IsSolana() {
		return nil, &types.PaygateError{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("network %s is not a Solana network", network),
		}
	}
	if asset == "" {
		asset = network.DefaultAsset()
	}
	mint, err := solana.PublicKeyFromBase58(asset)
	if err != nil {
		return nil, &types.PaygateError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid asset mint %q: %v", asset, err),
		}
	}

	return &SolanaClient{
		network: network,
		rpcURL:  rpcURL,
		mint:    mint,
		client:  rpc.New(rpcURL),
	}, nil
}

// FetchTransferEffect implements Client.
func (c *SolanaClient) FetchTransferEffect(ctx context.Context, reference string, expectedRecipient string) (*TransferEffect, error) {
	sig, err := solana.SignatureFromBase58(reference)
	if err != nil {
		return nil, errNotFound("invalid signature encoding: %v", err)
	}

	maxVersion := uint64(0)
	out, err := c.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, errNotFound("no confirmed transaction for signature %s", reference)
		}
		return nil, errRPC("getTransaction failed", err)
	}
	if out == nil {
		return nil, errNotFound("no confirmed transaction for signature %s", reference)
	}
	if out.Meta == nil {
		return nil, &AdapterError{Kind: KindUnconfirmed, Message: "transaction has no confirmed meta"}
	}
	if out.Meta.Err != nil {
		return nil, &AdapterError{Kind: KindReverted, Message: fmt.Sprintf("transaction failed on-chain: %v", out.Meta.Err)}
	}

	return TransferFromTokenBalances(out.Meta.PreTokenBalances, out.Meta.PostTokenBalances, c.mint, expectedRecipient)
}

// TransferFromTokenBalances attributes a token transfer from pre/post balance
// deltas: the token account of the configured mint whose balance increased
// received the payment, and its owning wallet is the recipient. Split from the
// RPC call so it can be exercised against synthetic meta.
func TransferFromTokenBalances(pre, post []rpc.TokenBalance, mint solana.PublicKey, expectedRecipient string) (*TransferEffect, error) {
	preByAccount := make(map[uint16]*big.Int, len(pre))
	for _, bal := range pre {
		if !bal.Mint.Equals(mint) {
			continue
		}
		amt, err := rawTokenAmount(bal)
		if err != nil {
			return nil, err
		}
		preByAccount[bal.AccountIndex] = amt
	}

	var effects []*TransferEffect
	for _, bal := range post {
		if !bal.Mint.Equals(mint) {
			continue
		}
		amt, err := rawTokenAmount(bal)
		if err != nil {
			return nil, err
		}
		delta := new(big.Int).Set(amt)
		if before, ok := preByAccount[bal.AccountIndex]; ok {
			delta.Sub(delta, before)
		}
		if delta.Sign() <= 0 {
			continue
		}
		if bal.Owner == nil {
			return nil, errMalformed("token balance for account %d has no owner", bal.AccountIndex)
		}
		effects = append(effects, &TransferEffect{
			Recipient: bal.Owner.String(),
			Asset:     mint.String(),
			AmountRaw: delta,
		})
	}

	for _, eff := range effects {
		if eff.Recipient == expectedRecipient {
			return eff, nil
		}
	}
	if len(effects) == 1 {
		return effects[0], nil
	}
	return nil, errNotFound("no %s balance increase for %s", mint.String(), expectedRecipient)
}

func rawTokenAmount(bal rpc.TokenBalance) (*big.Int, error) {
	if bal.UiTokenAmount == nil {
		return nil, errMalformed("token balance for account %d has no amount", bal.AccountIndex)
	}
	amt, ok := new(big.Int).SetString(bal.UiTokenAmount.Amount, 10)
	if !ok {
		return nil, errMalformed("unparseable raw amount %q", bal.UiTokenAmount.Amount)
	}
	return amt, nil
}

// Network implements Client.
func (c *SolanaClient) Network() types.Network {
	return c.network
}

// Close implements Client.
func (c *SolanaClient) Close() {}
