// Package verification orchestrates network-agnostic payment verification:
// it dispatches a claimed payment reference to the right chain adapter,
// scales the raw transfer amount to asset units, and applies the
// recipient/asset/amount acceptance rules.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapeway/paygate/clients"
	"github.com/scrapeway/paygate/types"
)

// RetryPolicy controls how transient RPC failures are retried. Non-transient
// outcomes (not found, reverted, malformed) are never retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff is the delay between attempts.
	Backoff time.Duration
}

// DefaultRetryPolicy allows two retries on transient RPC errors.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 500 * time.Millisecond}

// binding ties a registered network to its adapter and acceptance constraints.
type binding struct {
	client    clients.Client
	recipient string
	asset     string
	decimals  int32
}

// Service manages payment verification across multiple networks.
type Service struct {
	bindings map[types.Network]binding
	timeout  time.Duration
	retry    RetryPolicy
}

// NewService creates a verification service. The timeout bounds each
// verification attempt's chain query.
func NewService(timeout time.Duration, retry RetryPolicy) *Service {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Service{
		bindings: make(map[types.Network]binding),
		timeout:  timeout,
		retry:    retry,
	}
}

// AddClient registers a chain adapter for a network together with the
// recipient address and asset identifier payments must match on it.
func (s *Service) AddClient(network types.Network, client clients.Client, recipient, asset string) error {
	if !network.IsSupported() {
		return &types.PaygateError{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("unsupported network: %s", network),
		}
	}
	if recipient == "" {
		return &types.PaygateError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("no recipient address configured for %s", network),
		}
	}
	if asset == "" {
		asset = network.DefaultAsset()
	}

	s.bindings[network] = binding{
		client:    client,
		recipient: recipient,
		asset:     asset,
		decimals:  types.USDCDecimals,
	}
	return nil
}

// Recipient returns the configured recipient address for a network.
func (s *Service) Recipient(network types.Network) (string, bool) {
	b, ok := s.bindings[network]
	return b.recipient, ok
}

// Recipients returns the recipient address per registered network, keyed by
// network name as it appears on the wire.
func (s *Service) Recipients() map[string]string {
	out := make(map[string]string, len(s.bindings))
	for network, b := range s.bindings {
		out[network.String()] = b.recipient
	}
	return out
}

// IsNetworkSupported checks if a network has a registered adapter.
func (s *Service) IsNetworkSupported(network types.Network) bool {
	_, ok := s.bindings[network]
	return ok
}

// Verify checks a claimed payment against the required minimum amount. All
// failures are represented in the result, never as returned errors, so the
// caller can always produce a well-formed HTTP response.
//
// Verify does not consult the replay guard; at-most-once acceptance is the
// caller's responsibility.
func (s *Service) Verify(ctx context.Context, ref types.PaymentReference, minAmount decimal.Decimal) *types.VerificationResult {
	if err := ref.Validate(); err != nil {
		return invalid(types.ErrUnsupportedNetwork, err.Error())
	}

	b, ok := s.bindings[ref.Network]
	if !ok {
		return invalid(types.ErrUnsupportedNetwork, fmt.Sprintf("no client configured for network %s", ref.Network))
	}

	verifyCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		verifyCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	effect, failure := s.fetchWithRetry(verifyCtx, b, ref)
	if failure != nil {
		return failure
	}

	if !addressEqual(ref.Network, effect.Recipient, b.recipient) {
		return invalid(types.ErrWrongRecipient,
			fmt.Sprintf("transfer recipient %s does not match %s", effect.Recipient, b.recipient))
	}
	if !addressEqual(ref.Network, effect.Asset, b.asset) {
		return invalid(types.ErrWrongAsset,
			fmt.Sprintf("transfer asset %s does not match %s", effect.Asset, b.asset))
	}

	amount := decimal.NewFromBigInt(effect.AmountRaw, -b.decimals)
	if amount.LessThan(minAmount) {
		return invalid(types.ErrInsufficientAmount,
			fmt.Sprintf("paid %s, required %s", amount.String(), minAmount.String()))
	}

	// Overpayment is accepted; no change is returned.
	return &types.VerificationResult{
		Valid:     true,
		Amount:    &amount,
		Recipient: effect.Recipient,
		Asset:     effect.Asset,
	}
}

// fetchWithRetry runs the adapter call under the retry policy. Only transient
// RPC failures are retried.
func (s *Service) fetchWithRetry(ctx context.Context, b binding, ref types.PaymentReference) (*clients.TransferEffect, *types.VerificationResult) {
	var lastErr error

	for attempt := 0; attempt < s.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, invalid(types.ErrRPCError, fmt.Sprintf("verification cancelled: %v", ctx.Err()))
			case <-time.After(s.retry.Backoff):
			}
		}

		effect, err := b.client.FetchTransferEffect(ctx, ref.Reference, b.recipient)
		if err == nil {
			return effect, nil
		}
		lastErr = err

		var adapterErr *clients.AdapterError
		if errors.As(err, &adapterErr) {
			if !adapterErr.Kind.Retryable() {
				return nil, invalid(codeForKind(adapterErr.Kind), adapterErr.Error())
			}
			continue
		}
		// Unclassified failures from the client stack count as transient.
	}

	return nil, invalid(types.ErrRPCError,
		fmt.Sprintf("verification failed after %d attempts: %v", s.retry.MaxAttempts, lastErr))
}

// Close closes all registered client connections.
func (s *Service) Close() {
	for _, b := range s.bindings {
		b.client.Close()
	}
}

func invalid(code, message string) *types.VerificationResult {
	return &types.VerificationResult{
		Valid:     false,
		ErrorCode: code,
		Error:     message,
	}
}

func codeForKind(kind clients.ErrorKind) string {
	switch kind {
	case clients.KindNotFound:
		return types.ErrNotFound
	case clients.KindUnconfirmed:
		return types.ErrUnconfirmed
	case clients.KindReverted:
		return types.ErrReverted
	case clients.KindMalformed:
		return types.ErrMalformed
	default:
		return types.ErrRPCError
	}
}

// addressEqual compares addresses canonically per chain family: EVM hex
// addresses are case-insensitive, Solana base58 keys are exact.
func addressEqual(network types.Network, a, b string) bool {
	if network.IsEVM() {
		return strings.EqualFold(a, b)
	}
	return a == b
}
