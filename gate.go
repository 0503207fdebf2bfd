package paygate

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/scrapeway/paygate/types"
	"github.com/scrapeway/paygate/utils"
)

// Header names for the payment transport. The inbound header carries a
// base64-encoded JSON object {"network": ..., "reference": ...}; the outbound
// header carries the base64-encoded settlement receipt.
const (
	PaymentHeader    = "X-Payment"
	SettlementHeader = "X-Payment-Response"
)

type paymentHeaderPayload struct {
	Network   string `json:"network"`
	Reference string `json:"reference"`
}

// errorBody is the JSON body of every non-2xx gate response.
type errorBody struct {
	Error      string                   `json:"error"`
	Reason     string                   `json:"reason"`
	Settlement *types.SettlementContext `json:"settlement,omitempty"`
}

type ctxKey int

const settlementCtxKey ctxKey = iota

// SettlementFromContext returns the settlement receipt the gate attached to
// an accepted request.
func SettlementFromContext(ctx context.Context) (*types.SettlementContext, bool) {
	s, ok := ctx.Value(settlementCtxKey).(*types.SettlementContext)
	return s, ok
}

// ExtractPaymentReference pulls the payment reference out of a request. A
// missing or malformed header is reported as absent, never as an error: the
// gate answers both with a challenge.
func ExtractPaymentReference(r *http.Request) (types.PaymentReference, bool) {
	raw := r.Header.Get(PaymentHeader)
	if raw == "" {
		return types.PaymentReference{}, false
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return types.PaymentReference{}, false
	}

	var payload paymentHeaderPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return types.PaymentReference{}, false
	}
	if payload.Reference == "" || payload.Network == "" {
		return types.PaymentReference{}, false
	}

	return types.PaymentReference{
		Reference: payload.Reference,
		Network:   types.Network(payload.Network),
	}, true
}

// RequireSettledPayment is the single entry point a handler calls before
// doing any paid work. It returns the settlement receipt and true when a
// payment was verified and consumed; otherwise it writes the appropriate 402
// response and returns false.
func (p *Paygate) RequireSettledPayment(w http.ResponseWriter, r *http.Request, spec types.PriceSpec) (*types.SettlementContext, bool) {
	ref, ok := ExtractPaymentReference(r)
	if !ok {
		p.metrics.IncCounter("challenge", nil)
		p.writeChallenge(w, spec)
		return nil, false
	}

	labels := map[string]string{"network": ref.Network.String()}

	if !ref.Network.IsSupported() {
		p.writeRejection(w, types.ErrUnsupportedNetwork, "unsupported network: "+ref.Network.String())
		return nil, false
	}
	if err := utils.ValidateReference(ref.Reference, ref.Network); err != nil {
		p.writeRejection(w, types.ErrMalformed, err.Error())
		return nil, false
	}

	price, err := spec.AmountDecimal()
	if err != nil {
		p.logger.Error("invalid price spec", map[string]any{"resource": spec.Resource, "error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: types.ErrConfigError, Reason: "endpoint price is misconfigured"})
		return nil, false
	}

	// Verification and the reservation lifecycle run on a context detached
	// from client cancellation: if the caller disconnects mid-verification,
	// the in-flight chain query still completes and the reference is still
	// consumed on success. Releasing on disconnect would let anyone burn a
	// reference with a cancelled request.
	ctx := context.WithoutCancel(r.Context())

	// Reserve before verifying, so a concurrent duplicate is rejected even
	// while this request's chain query is in flight.
	reservation, won, err := p.guard.Reserve(ctx, ref)
	if err != nil {
		p.logger.Error("replay guard unavailable", map[string]any{"error": err.Error()})
		p.writeRejection(w, types.ErrRPCError, "could not confirm payment: replay store unavailable")
		return nil, false
	}
	if !won {
		p.metrics.IncCounter("replay_rejected", labels)
		p.writeRejection(w, types.ErrAlreadyUsed, "payment reference has already been used")
		return nil, false
	}

	start := time.Now()
	result := p.verifier.Verify(ctx, ref, price)
	p.metrics.ObserveLatency("verify", time.Since(start), labels)

	if !result.Valid {
		if err := reservation.Release(ctx); err != nil {
			p.logger.Warn("failed to release reservation", map[string]any{"reference": ref.Reference, "error": err.Error()})
		}
		p.metrics.IncCounter("verification_rejected", labels)
		p.logger.Info("payment rejected", map[string]any{
			"network":   ref.Network.String(),
			"reference": ref.Reference,
			"code":      result.ErrorCode,
		})
		p.writeRejection(w, result.ErrorCode, result.Error)
		return nil, false
	}

	if err := reservation.Commit(ctx); err != nil {
		// Verified but unrecordable: rejecting is the safe side. The caller
		// keeps an unconsumed reference and can retry once the store is back.
		if relErr := reservation.Release(ctx); relErr != nil {
			p.logger.Warn("failed to release reservation", map[string]any{"reference": ref.Reference, "error": relErr.Error()})
		}
		p.logger.Error("failed to record payment", map[string]any{"reference": ref.Reference, "error": err.Error()})
		p.writeRejection(w, types.ErrRPCError, "could not record payment: replay store unavailable")
		return nil, false
	}

	settlement := &types.SettlementContext{
		Reference:  ref.Reference,
		Network:    ref.Network,
		Amount:     result.Amount.String(),
		Settled:    true,
		VerifiedAt: time.Now().UTC(),
	}

	p.metrics.IncCounter("payment_accepted", labels)
	p.logger.Info("payment accepted", map[string]any{
		"network":   ref.Network.String(),
		"reference": ref.Reference,
		"amount":    settlement.Amount,
	})

	if receipt, err := json.Marshal(settlement); err == nil {
		w.Header().Set(SettlementHeader, base64.StdEncoding.EncodeToString(receipt))
	}
	return settlement, true
}

// Middleware wraps a business-logic handler with the full gate flow. A panic
// in the wrapped handler after payment acceptance yields 502 with the
// settlement receipt attached: payment success and service delivery are
// independent outcomes, and the reference stays consumed.
func (p *Paygate) Middleware(spec types.PriceSpec, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		settlement, ok := p.RequireSettledPayment(w, r, spec)
		if !ok {
			return
		}

		defer func() {
			if rec := recover(); rec != nil {
				p.logger.Error("handler panicked after settled payment", map[string]any{
					"resource":  spec.Resource,
					"reference": settlement.Reference,
					"panic":     rec,
				})
				p.metrics.IncCounter("handler_failed", map[string]string{"network": settlement.Network.String()})
				writeJSON(w, http.StatusBadGateway, errorBody{
					Error:      types.ErrHandlerFailed,
					Reason:     "service failed after payment was settled; payment is consumed",
					Settlement: settlement,
				})
			}
		}()

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), settlementCtxKey, settlement)))
	})
}

func (p *Paygate) writeChallenge(w http.ResponseWriter, spec types.PriceSpec) {
	writeJSON(w, http.StatusPaymentRequired, p.BuildChallenge(spec))
}

// writeRejection answers 402 with a machine-readable reason code, so a
// retrying agent can tell "pay again" from "you already paid".
func (p *Paygate) writeRejection(w http.ResponseWriter, code, reason string) {
	writeJSON(w, http.StatusPaymentRequired, errorBody{Error: code, Reason: reason})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
