package clients

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/scrapeway/paygate/types"
)

// transferEventSig is the canonical ERC-20 Transfer(address,address,uint256)
// event signature hash, the first topic of every transfer log.
var transferEventSig = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// EVMClient resolves payment references on EVM networks by fetching the
// transaction receipt and decoding ERC-20 Transfer logs of the configured
// asset contract.
type EVMClient struct {
	network types.Network
	rpcURL  string
	asset   common.Address
	client  *ethclient.Client
}

var _ Client = (*EVMClient)(nil)

func NewEVMClient(network types.Network, rpcURL string, asset string) (*EVMClient, error) {
	if !network.IsEVM() {
		return nil, &types.PaygateError{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("network %s is not an EVM network", network),
		}
	}
	if asset == "" {
		asset = network.DefaultAsset()
	}
	if !common.IsHexAddress(asset) {
		return nil, &types.PaygateError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid asset contract address %q", asset),
		}
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to EVM RPC: %w", err)
	}

	return &EVMClient{
		network: network,
		rpcURL:  rpcURL,
		asset:   common.HexToAddress(asset),
		client:  client,
	}, nil
}

// FetchTransferEffect implements Client.
func (c *EVMClient) FetchTransferEffect(ctx context.Context, reference string, expectedRecipient string) (*TransferEffect, error) {
	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(reference))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			// Not mined or not propagated yet.
			return nil, errNotFound("no receipt for transaction %s", reference)
		}
		return nil, errRPC("eth_getTransactionReceipt failed", err)
	}

	return TransferFromReceipt(receipt, c.asset, expectedRecipient)
}

// TransferFromReceipt decodes the transfer effect out of a receipt. Split from
// the RPC call so it can be exercised against synthetic receipts.
func TransferFromReceipt(receipt *ethtypes.Receipt, asset common.Address, expectedRecipient string) (*TransferEffect, error) {
	if receipt == nil {
		return nil, errNotFound("nil receipt")
	}
	if receipt.Status == ethtypes.ReceiptStatusFailed {
		return nil, &AdapterError{Kind: KindReverted, Message: "transaction reverted on-chain"}
	}

	var effects []*TransferEffect
	matched := false
	for _, log := range receipt.Logs {
		if log.Address != asset {
			continue
		}
		if len(log.Topics) == 0 || log.Topics[0] != transferEventSig {
			continue
		}
		matched = true
		if len(log.Topics) != 3 {
			return nil, errMalformed("transfer log has %d topics, want 3", len(log.Topics))
		}
		if len(log.Data) != 32 {
			return nil, errMalformed("transfer log data is %d bytes, want 32", len(log.Data))
		}

		// Third topic is the recipient, left-padded to 32 bytes.
		recipient := common.BytesToAddress(log.Topics[2].Bytes()[12:])
		effects = append(effects, &TransferEffect{
			Recipient: recipient.Hex(),
			Asset:     asset.Hex(),
			AmountRaw: new(big.Int).SetBytes(log.Data),
		})
	}

	if !matched {
		return nil, errMalformed("no %s transfer log in receipt", asset.Hex())
	}

	// A swap-then-transfer receipt carries several qualifying logs; the one
	// paying the expected recipient is the payment.
	for _, eff := range effects {
		if strings.EqualFold(eff.Recipient, expectedRecipient) {
			return eff, nil
		}
	}
	if len(effects) == 1 {
		// Let the verifier reject this with a recipient mismatch rather than
		// masking it as not-found.
		return effects[0], nil
	}
	return nil, errNotFound("no transfer to %s in receipt", expectedRecipient)
}

// Network implements Client.
func (c *EVMClient) Network() types.Network {
	return c.network
}

// Close implements Client.
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
