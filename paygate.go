// Package paygate gates HTTP endpoints behind a machine-payable on-chain
// paywall: unpaid requests receive a 402 challenge describing the price and
// the recipient address per supported network, and requests carrying a
// payment reference are verified against the chain and consumed exactly once.
package paygate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/scrapeway/paygate/challenge"
	"github.com/scrapeway/paygate/clients"
	"github.com/scrapeway/paygate/logger"
	"github.com/scrapeway/paygate/metrics"
	"github.com/scrapeway/paygate/replay"
	"github.com/scrapeway/paygate/types"
	"github.com/scrapeway/paygate/utils"
	"github.com/scrapeway/paygate/verification"
)

var validate = validator.New()

// Paygate is the composition root: chain adapters, the payment verifier and
// the replay guard behind a single per-endpoint entry point.
type Paygate struct {
	verifier *verification.Service
	guard    *replay.Guard
	logger   logger.Logger
	metrics  metrics.Recorder

	timeout   time.Duration
	retry     verification.RetryPolicy
	retention time.Duration
}

// New creates a Paygate. With no options it verifies with a 15s per-attempt
// timeout, two retries on transient RPC errors, and an in-memory replay store
// retaining consumed references for 7 days.
func New(opts ...Option) *Paygate {
	p := &Paygate{
		logger:    logger.NoopLogger{},
		metrics:   metrics.NoopRecorder{},
		timeout:   15 * time.Second,
		retry:     verification.DefaultRetryPolicy,
		retention: 7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.verifier = verification.NewService(p.timeout, p.retry)
	if p.guard == nil {
		p.guard = replay.NewGuard(replay.NewMemoryStore(p.retention))
	}
	return p
}

// AddNetwork registers a network by creating the appropriate chain adapter.
func (p *Paygate) AddNetwork(network types.Network, config types.ClientConfig) error {
	if err := validate.Struct(&config); err != nil {
		return &types.PaygateError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid client config for %s: %v", network, err),
		}
	}
	if err := utils.ValidateAddressForNetwork(config.Recipient, network); err != nil {
		return &types.PaygateError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid recipient for %s: %v", network, err),
		}
	}

	var (
		client clients.Client
		err    error
	)
	switch {
	case network.IsEVM():
		client, err = clients.NewEVMClient(network, config.RPCUrl, config.Asset)
	case network.IsSolana():
		client, err = clients.NewSolanaClient(network, config.RPCUrl, config.Asset)
	default:
		return &types.PaygateError{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("unsupported network: %s", network),
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create client for %s: %w", network, err)
	}

	return p.verifier.AddClient(network, client, config.Recipient, config.Asset)
}

// AddClient registers a pre-built chain adapter. Callers normally use
// AddNetwork; this exists for custom adapters and tests.
func (p *Paygate) AddClient(network types.Network, client clients.Client, recipient, asset string) error {
	return p.verifier.AddClient(network, client, recipient, asset)
}

// Verify checks a payment reference against the minimum amount without
// touching the replay guard.
func (p *Paygate) Verify(ctx context.Context, ref types.PaymentReference, minAmount decimal.Decimal) *types.VerificationResult {
	return p.verifier.Verify(ctx, ref, minAmount)
}

// BuildChallenge constructs the 402 document for a priced resource, with one
// recipient address for every registered network.
func (p *Paygate) BuildChallenge(spec types.PriceSpec) types.ChallengeDocument {
	return challenge.Build(spec, p.verifier.Recipients())
}

// IsNetworkSupported checks if a network has a registered adapter.
func (p *Paygate) IsNetworkSupported(network types.Network) bool {
	return p.verifier.IsNetworkSupported(network)
}

// Close closes all client connections.
func (p *Paygate) Close() {
	p.verifier.Close()
}

// Version information
const (
	Version         = "1.0.0"
	ProtocolVersion = 1
)
