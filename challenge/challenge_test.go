package challenge

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrapeway/paygate/types"
)

func testSpec() types.PriceSpec {
	return types.PriceSpec{
		Amount:      "0.05",
		AssetSymbol: types.USDCSymbol,
		Resource:    "/api/quote",
		Description: "quote lookup",
		OutputSchema: map[string]interface{}{
			"type": "object",
		},
	}
}

func testRecipients() map[string]string {
	return map[string]string{
		"base":   "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		"solana": "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
	}
}

func TestBuild_ChallengeShape(t *testing.T) {
	doc := Build(testSpec(), testRecipients())

	assert.Equal(t, http.StatusPaymentRequired, doc.Status)
	assert.Equal(t, "/api/quote", doc.Resource)
	// Price is the exact configured decimal string, never reformatted.
	assert.Equal(t, "0.05", doc.Price.Amount)
	assert.Equal(t, "USDC", doc.Price.Asset)
	assert.Equal(t, DefaultMessage, doc.Message)

	// One recipient address per supported network.
	assert.Equal(t, testRecipients(), doc.Recipients)
	assert.NotEmpty(t, doc.OutputSchema)
}

func TestBuild_IsDeterministic(t *testing.T) {
	a := Build(testSpec(), testRecipients())
	b := Build(testSpec(), testRecipients())
	assert.Equal(t, a, b)
}

func TestBuild_CopiesRecipients(t *testing.T) {
	recipients := testRecipients()
	doc := Build(testSpec(), recipients)

	recipients["base"] = "0x0000000000000000000000000000000000000000"

	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", doc.Recipients["base"])
}
