package counsel_gpt

import (
	"fmt"
	"strings"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
)

// Message is a single chat-style prompt message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// systemPrompt frames the model as contract counsel and pins the response
// schema.  The risk field must open with HIGH, MEDIUM or LOW so downstream
// escalation can read it.
const systemPrompt = `You are a senior commercial contracts attorney reviewing a vendor's terms against a client's required terms.

For each clause pair you receive, compare the vendor position to the client position and respond with a single JSON object, no surrounding prose, in exactly this shape:

{
  "summary": "<two or three sentences describing how the vendor clause differs from the client clause>",
  "risk": "<HIGH|MEDIUM|LOW> - <one sentence explaining the exposure for the client>",
  "recommendation": "<one or two sentences of concrete negotiation advice for the client>"
}

Rules:
1. The "risk" value must begin with HIGH, MEDIUM or LOW.
2. Judge risk from the client's perspective only.
3. If the vendor text is empty, treat the clause as absent from the vendor terms and assess the exposure that absence creates.
4. Do not invent clause content that is not in the provided text.`

// buildUserPrompt assembles the clause pair into the user message.
func buildUserPrompt(clauseType contract.ClauseType, clientText, vendorText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Clause Type\n%s\n\n", clauseType)
	fmt.Fprintf(&b, "## Client Clause\n%s\n\n", orAbsent(clientText))
	fmt.Fprintf(&b, "## Vendor Clause\n%s\n", orAbsent(vendorText))
	return b.String()
}

func orAbsent(text string) string {
	if strings.TrimSpace(text) == "" {
		return "(absent)"
	}
	return text
}

// BuildMessages returns the chat messages for one clause-pair analysis.
func BuildMessages(clauseType contract.ClauseType, clientText, vendorText string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(clauseType, clientText, vendorText)},
	}
}
