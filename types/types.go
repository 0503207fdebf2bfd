package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentReference identifies an on-chain transaction presented by a caller as
// proof of payment. It is constructed once per request and never persisted
// beyond the request lifetime except as a key into the replay guard.
type PaymentReference struct {
	// Reference is the chain-specific transaction identifier: a 0x-prefixed
	// hash on EVM networks, a base58 signature on Solana.
	Reference string `json:"reference"`

	Network Network `json:"network"`
}

// Key returns the replay-guard key for this reference.
func (r PaymentReference) Key() string {
	return string(r.Network) + ":" + r.Reference
}

func (r PaymentReference) Validate() error {
	if r.Reference == "" {
		return fmt.Errorf("payment reference is required")
	}
	if !r.Network.IsSupported() {
		return fmt.Errorf("unsupported network: %s", r.Network)
	}
	return nil
}

// PriceSpec defines the price of a single endpoint. Immutable for the lifetime
// of the process.
type PriceSpec struct {
	// Amount is the required payment as a decimal string, e.g. "0.05".
	Amount string `json:"amount" validate:"required"`

	// AssetSymbol is the accepted asset, USDC in this design.
	AssetSymbol string `json:"asset" validate:"required"`

	// Resource is the path of the priced endpoint.
	Resource string `json:"resource" validate:"required"`

	// Description of what the endpoint returns, surfaced in the challenge so
	// autonomous callers can decide whether to pay.
	Description string `json:"description,omitempty"`

	// OutputSchema describes the endpoint's response shape.
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`
}

// AmountDecimal parses the configured price string.
func (p PriceSpec) AmountDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price amount %q: %w", p.Amount, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("price amount cannot be negative")
	}
	return d, nil
}

// VerificationResult contains the result of payment verification. Produced
// fresh per verification attempt and never cached across requests.
type VerificationResult struct {
	Valid bool `json:"valid"`

	// Amount is the verified on-chain amount in asset units, set only when
	// Valid is true.
	Amount *decimal.Decimal `json:"amount,omitempty"`

	Recipient string `json:"recipient,omitempty"`
	Asset     string `json:"asset,omitempty"`

	// ErrorCode is one of the Err* constants below when Valid is false.
	ErrorCode string `json:"errorCode,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ChallengeDocument is the machine-readable "payment required" body returned
// with HTTP 402. Regenerated on every unauthenticated request, never stored.
type ChallengeDocument struct {
	Status       int                    `json:"status"`
	Resource     string                 `json:"resource"`
	Price        ChallengePrice         `json:"price"`
	Message      string                 `json:"message"`
	Description  string                 `json:"description,omitempty"`
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`

	// Recipients maps each supported network name to the address payment must
	// be sent to on that network.
	Recipients map[string]string `json:"recipients"`
}

// ChallengePrice carries the price as a decimal string, not a float, to avoid
// rounding ambiguity on the wire.
type ChallengePrice struct {
	Amount string `json:"amount"`
	Asset  string `json:"asset"`
}

// SettlementContext is the auditable receipt attached to responses after a
// payment has been verified and consumed.
type SettlementContext struct {
	Reference string  `json:"reference"`
	Network   Network `json:"network"`

	// Amount is the verified on-chain amount as a decimal string.
	Amount string `json:"amount"`

	Settled    bool      `json:"settled"`
	VerifiedAt time.Time `json:"verifiedAt"`
}

// ClientConfig contains configuration for a chain adapter.
type ClientConfig struct {
	RPCUrl string `json:"rpcUrl" validate:"required,url"`

	// Recipient is the address payments must be sent to on this network.
	Recipient string `json:"recipient" validate:"required"`

	// Asset overrides the network's default USDC identifier (contract address
	// on EVM, mint on Solana). Leave empty to use the default.
	Asset string `json:"asset,omitempty"`

	Timeout time.Duration `json:"timeout,omitempty"`
}

// PaygateError is the typed error returned for configuration and protocol
// failures.
type PaygateError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *PaygateError) Error() string {
	return e.Message
}

// Error codes. Verification failures and replay rejections both map to HTTP
// 402, but with distinguishable codes so a retrying agent can tell "pay again"
// from "you already paid, something else is wrong".
const (
	ErrNoPayment          = "no_payment"
	ErrUnsupportedNetwork = "unsupported_network"
	ErrNotFound           = "not_found"
	ErrRPCError           = "rpc_error"
	ErrUnconfirmed        = "unconfirmed"
	ErrReverted           = "reverted"
	ErrMalformed          = "malformed"
	ErrWrongRecipient     = "wrong_recipient"
	ErrWrongAsset         = "wrong_asset"
	ErrInsufficientAmount = "insufficient_amount"
	ErrAlreadyUsed        = "already_used"
	ErrConfigError        = "config_error"
	ErrHandlerFailed      = "handler_failed"
)
