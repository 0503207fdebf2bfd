package clients

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapeway/paygate/types"
)

var (
	testAsset     = common.HexToAddress(types.USDCBase)
	testSender    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testRecipient = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	otherAddress  = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}

func transferLog(asset common.Address, from, to common.Address, amount *big.Int) *ethtypes.Log {
	return &ethtypes.Log{
		Address: asset,
		Topics:  []common.Hash{transferEventSig, addressTopic(from), addressTopic(to)},
		Data:    common.LeftPadBytes(amount.Bytes(), 32),
	}
}

func successReceipt(logs ...*ethtypes.Log) *ethtypes.Receipt {
	return &ethtypes.Receipt{
		Status: ethtypes.ReceiptStatusSuccessful,
		Logs:   logs,
	}
}

func TestTransferFromReceipt_DecodesTransfer(t *testing.T) {
	amount := big.NewInt(50_000) // 0.05 USDC in raw units
	receipt := successReceipt(transferLog(testAsset, testSender, testRecipient, amount))

	effect, err := TransferFromReceipt(receipt, testAsset, testRecipient.Hex())
	require.NoError(t, err)

	assert.Equal(t, testRecipient.Hex(), effect.Recipient)
	assert.Equal(t, testAsset.Hex(), effect.Asset)
	assert.Equal(t, amount, effect.AmountRaw)
}

func TestTransferFromReceipt_Reverted(t *testing.T) {
	receipt := &ethtypes.Receipt{
		Status: ethtypes.ReceiptStatusFailed,
		Logs:   []*ethtypes.Log{transferLog(testAsset, testSender, testRecipient, big.NewInt(50_000))},
	}

	_, err := TransferFromReceipt(receipt, testAsset, testRecipient.Hex())

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, KindReverted, adapterErr.Kind)
}

func TestTransferFromReceipt_NoMatchingLog(t *testing.T) {
	// A transfer of some other token is not a matching log.
	otherToken := common.HexToAddress("0x4200000000000000000000000000000000000006")
	receipt := successReceipt(transferLog(otherToken, testSender, testRecipient, big.NewInt(50_000)))

	_, err := TransferFromReceipt(receipt, testAsset, testRecipient.Hex())

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, KindMalformed, adapterErr.Kind)
}

func TestTransferFromReceipt_RevertedDistinctFromMissingLog(t *testing.T) {
	reverted := &ethtypes.Receipt{Status: ethtypes.ReceiptStatusFailed}
	_, revertedErr := TransferFromReceipt(reverted, testAsset, testRecipient.Hex())

	noLog := successReceipt()
	_, noLogErr := TransferFromReceipt(noLog, testAsset, testRecipient.Hex())

	var a, b *AdapterError
	require.ErrorAs(t, revertedErr, &a)
	require.ErrorAs(t, noLogErr, &b)
	assert.Equal(t, KindReverted, a.Kind)
	assert.Equal(t, KindMalformed, b.Kind)
	assert.NotEqual(t, a.Kind, b.Kind)
}

func TestTransferFromReceipt_BadTopicCount(t *testing.T) {
	log := &ethtypes.Log{
		Address: testAsset,
		Topics:  []common.Hash{transferEventSig, addressTopic(testSender)},
		Data:    common.LeftPadBytes(big.NewInt(50_000).Bytes(), 32),
	}

	_, err := TransferFromReceipt(successReceipt(log), testAsset, testRecipient.Hex())

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, KindMalformed, adapterErr.Kind)
}

func TestTransferFromReceipt_BadDataWidth(t *testing.T) {
	log := transferLog(testAsset, testSender, testRecipient, big.NewInt(50_000))
	log.Data = log.Data[:31]

	_, err := TransferFromReceipt(successReceipt(log), testAsset, testRecipient.Hex())

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, KindMalformed, adapterErr.Kind)
}

func TestTransferFromReceipt_PicksLogToExpectedRecipient(t *testing.T) {
	// Swap-then-transfer: two qualifying logs, only one pays us.
	receipt := successReceipt(
		transferLog(testAsset, testSender, otherAddress, big.NewInt(999_999)),
		transferLog(testAsset, testSender, testRecipient, big.NewInt(50_000)),
	)

	effect, err := TransferFromReceipt(receipt, testAsset, testRecipient.Hex())
	require.NoError(t, err)
	assert.Equal(t, testRecipient.Hex(), effect.Recipient)
	assert.Equal(t, big.NewInt(50_000), effect.AmountRaw)
}

func TestTransferFromReceipt_MultipleLogsNoneToUs(t *testing.T) {
	receipt := successReceipt(
		transferLog(testAsset, testSender, otherAddress, big.NewInt(50_000)),
		transferLog(testAsset, otherAddress, testSender, big.NewInt(50_000)),
	)

	_, err := TransferFromReceipt(receipt, testAsset, testRecipient.Hex())

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, KindNotFound, adapterErr.Kind)
}

func TestTransferFromReceipt_SingleLogWrongRecipientSurfaces(t *testing.T) {
	// One qualifying log to the wrong address is reported as-is, so the
	// verifier can reject it with a recipient mismatch instead of not-found.
	receipt := successReceipt(transferLog(testAsset, testSender, otherAddress, big.NewInt(50_000)))

	effect, err := TransferFromReceipt(receipt, testAsset, testRecipient.Hex())
	require.NoError(t, err)
	assert.Equal(t, otherAddress.Hex(), effect.Recipient)
}

func TestTransferFromReceipt_RecipientCaseInsensitive(t *testing.T) {
	receipt := successReceipt(transferLog(testAsset, testSender, testRecipient, big.NewInt(50_000)))

	effect, err := TransferFromReceipt(receipt, testAsset, "0X70997970C51812DC3A010C7D01B50E0D17DC79C8")
	require.NoError(t, err)
	assert.Equal(t, testRecipient.Hex(), effect.Recipient)
}

func TestErrorKind_Retryable(t *testing.T) {
	assert.True(t, KindRPCError.Retryable())
	for _, kind := range []ErrorKind{KindNotFound, KindUnconfirmed, KindReverted, KindMalformed} {
		assert.False(t, kind.Retryable(), string(kind))
	}
}

func TestAdapterError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := errRPC("eth_getTransactionReceipt failed", cause)
	assert.ErrorIs(t, err, cause)
}
