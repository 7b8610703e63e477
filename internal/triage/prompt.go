// internal/triage/prompt.go
package triage

import "strings"

// ticketPlaceholder is the single substitution point in the instruction
// template.
const ticketPlaceholder = "{ticket_text}"

// promptTemplate fixes the instruction block and the exact JSON object shape
// the model must emit. Categories and tags are open-ended; priority and
// sentiment are closed enumerations.
const promptTemplate = `You are an AI assistant designed to classify and respond to support tickets.
For each ticket, perform the following tasks:
1. Classify the issue into a professional category based on the content of the ticket.
Categories can include but are not limited to: technical issues, hardware issues,
data recovery, software issues, user error, connectivity issues, or other relevant
categories based on the ticket.
2. Assign relevant tags that describe the issue. Tags can include data loss,
internet connectivity, slow performance, security concerns, software crashes,
or anything else related to the issue at hand.
3. Determine the priority based on urgency: high, medium, or low.
4. Suggest an estimated resolution time. For example, 2 hours, 4 hours, 1 day, or
any reasonable estimate based on the issue's complexity.
5. Generate a polite and empathetic first reply that acknowledges the user's concern,
offers assistance, and sets expectations.
6. Analyze sentiment of the ticket: positive, negative, or neutral,
based on the tone and content of the customer.

Support Ticket: {ticket_text}

Your response should be in the following JSON format:
{
    "category": "<category>",
    "tags": ["<tag1>", "<tag2>"],
    "priority": "<priority>",
    "suggested_eta": "<time>",
    "generated_reply": "<reply>",
    "sentiment": "<sentiment>"
}`

// RenderPrompt substitutes the ticket text into the instruction template.
// Deterministic, no state; an empty ticket text is allowed and yields a
// low-information completion from the model rather than a local error.
func RenderPrompt(ticketText string) string {
	return strings.Replace(promptTemplate, ticketPlaceholder, ticketText, 1)
}
