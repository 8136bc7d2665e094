package counsel_gpt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
	counselgpt "github.com/turtacn/ClauseLens/internal/intelligence/counsel_gpt"
)

func TestBuildMessages(t *testing.T) {
	t.Parallel()

	msgs := counselgpt.BuildMessages(contract.ClausePaymentTerms,
		"Payment due within 30 days.", "Payment due within 45 days.")
	require.Len(t, msgs, 2)

	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "HIGH, MEDIUM or LOW")
	assert.Contains(t, msgs[0].Content, `"summary"`)

	assert.Equal(t, "user", msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "## Clause Type\nPayment Terms")
	assert.Contains(t, msgs[1].Content, "## Client Clause\nPayment due within 30 days.")
	assert.Contains(t, msgs[1].Content, "## Vendor Clause\nPayment due within 45 days.")
}

func TestBuildMessages_AbsentVendorText(t *testing.T) {
	t.Parallel()

	msgs := counselgpt.BuildMessages(contract.ClauseIntellectualProperty,
		"All work product vests in the client.", "")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "## Vendor Clause\n(absent)")
}
