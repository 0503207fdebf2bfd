package clients

import (
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapeway/paygate/types"
)

var (
	testMint     = solana.MustPublicKeyFromBase58(types.USDCSolana)
	ownerWallet  = solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	senderWallet = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
)

func tokenBalance(accountIndex uint16, mint solana.PublicKey, owner *solana.PublicKey, raw string) rpc.TokenBalance {
	return rpc.TokenBalance{
		AccountIndex: accountIndex,
		Mint:         mint,
		Owner:        owner,
		UiTokenAmount: &rpc.UiTokenAmount{
			Amount:   raw,
			Decimals: types.USDCDecimals,
		},
	}
}

func TestTransferFromTokenBalances_DecodesIncrease(t *testing.T) {
	// Pre-balance 0, post-balance 5 USDC in raw units: the recipient token
	// account received the payment and is attributed to its owning wallet.
	pre := []rpc.TokenBalance{
		tokenBalance(1, testMint, &senderWallet, "9000000"),
		tokenBalance(2, testMint, &ownerWallet, "0"),
	}
	post := []rpc.TokenBalance{
		tokenBalance(1, testMint, &senderWallet, "4000000"),
		tokenBalance(2, testMint, &ownerWallet, "5000000"),
	}

	effect, err := TransferFromTokenBalances(pre, post, testMint, ownerWallet.String())
	require.NoError(t, err)

	assert.Equal(t, ownerWallet.String(), effect.Recipient)
	assert.Equal(t, testMint.String(), effect.Asset)
	assert.Equal(t, big.NewInt(5_000_000), effect.AmountRaw)
}

func TestTransferFromTokenBalances_MissingPreBalanceIsZero(t *testing.T) {
	// A freshly created token account has no pre entry at all.
	post := []rpc.TokenBalance{
		tokenBalance(2, testMint, &ownerWallet, "250000"),
	}

	effect, err := TransferFromTokenBalances(nil, post, testMint, ownerWallet.String())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(250_000), effect.AmountRaw)
}

func TestTransferFromTokenBalances_IgnoresOtherMints(t *testing.T) {
	otherMint := solana.MustPublicKeyFromBase58(types.USDCSolanaDev)
	post := []rpc.TokenBalance{
		tokenBalance(2, otherMint, &ownerWallet, "5000000"),
	}

	_, err := TransferFromTokenBalances(nil, post, testMint, ownerWallet.String())

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, KindNotFound, adapterErr.Kind)
}

func TestTransferFromTokenBalances_NoIncrease(t *testing.T) {
	pre := []rpc.TokenBalance{tokenBalance(2, testMint, &ownerWallet, "5000000")}
	post := []rpc.TokenBalance{tokenBalance(2, testMint, &ownerWallet, "5000000")}

	_, err := TransferFromTokenBalances(pre, post, testMint, ownerWallet.String())

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, KindNotFound, adapterErr.Kind)
}

func TestTransferFromTokenBalances_MissingOwner(t *testing.T) {
	post := []rpc.TokenBalance{tokenBalance(2, testMint, nil, "5000000")}

	_, err := TransferFromTokenBalances(nil, post, testMint, ownerWallet.String())

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, KindMalformed, adapterErr.Kind)
}

func TestTransferFromTokenBalances_UnparseableAmount(t *testing.T) {
	post := []rpc.TokenBalance{tokenBalance(2, testMint, &ownerWallet, "not-a-number")}

	_, err := TransferFromTokenBalances(nil, post, testMint, ownerWallet.String())

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, KindMalformed, adapterErr.Kind)
}

func TestTransferFromTokenBalances_PicksExpectedOwner(t *testing.T) {
	// Two accounts increased; the one owned by the expected wallet wins.
	post := []rpc.TokenBalance{
		tokenBalance(1, testMint, &senderWallet, "1000000"),
		tokenBalance(2, testMint, &ownerWallet, "5000000"),
	}

	effect, err := TransferFromTokenBalances(nil, post, testMint, ownerWallet.String())
	require.NoError(t, err)
	assert.Equal(t, ownerWallet.String(), effect.Recipient)
	assert.Equal(t, big.NewInt(5_000_000), effect.AmountRaw)
}
