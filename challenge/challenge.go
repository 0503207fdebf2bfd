// Package challenge builds the machine-readable "payment required" document
// returned with HTTP 402. Building is pure and deterministic: the document is
// a function of the price spec and the static recipient configuration, with
// no I/O.
package challenge

import (
	"net/http"

	"github.com/scrapeway/paygate/types"
)

// DefaultMessage is the human-readable line included in every challenge.
const DefaultMessage = "Payment required"

// Build constructs the 402 challenge for a priced resource. recipients maps
// network names to the address payment must be sent to on that network.
func Build(spec types.PriceSpec, recipients map[string]string) types.ChallengeDocument {
	// Copy so later mutation of the caller's map cannot leak into a document
	// already handed out.
	recips := make(map[string]string, len(recipients))
	for network, addr := range recipients {
		recips[network] = addr
	}

	return types.ChallengeDocument{
		Status:   http.StatusPaymentRequired,
		Resource: spec.Resource,
		Price: types.ChallengePrice{
			Amount: spec.Amount,
			Asset:  spec.AssetSymbol,
		},
		Message:      DefaultMessage,
		Description:  spec.Description,
		OutputSchema: spec.OutputSchema,
		Recipients:   recips,
	}
}
