// internal/triage/prompt_test.go
package triage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderPrompt_EmbedsTicketText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"plain text", "My laptop won't boot"},
		{"multiline", "Line one.\nLine two."},
		{"json-looking text", `{"category": "trap"}`},
		{"empty text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered := RenderPrompt(tt.text)

			assert.Contains(t, rendered, tt.text)
			assert.NotContains(t, rendered, ticketPlaceholder)

			// The instruction block survives verbatim around the substitution.
			expected := strings.Replace(promptTemplate, ticketPlaceholder, tt.text, 1)
			assert.Equal(t, expected, rendered)
		})
	}
}

func TestRenderPrompt_Deterministic(t *testing.T) {
	first := RenderPrompt("Internet keeps dropping")
	second := RenderPrompt("Internet keeps dropping")
	assert.Equal(t, first, second)
}

func TestRenderPrompt_FixesInstructionBlock(t *testing.T) {
	rendered := RenderPrompt("anything")

	assert.Contains(t, rendered, "high, medium, or low")
	assert.Contains(t, rendered, "positive, negative, or neutral")
	assert.Contains(t, rendered, `"suggested_eta"`)
	assert.Contains(t, rendered, "Support Ticket: anything")
}
