// internal/triage/models.go
package triage

import (
	"context"
	"strings"
)

// Ticket is one customer-submitted support inquiry. Sourced from a row of
// the input dataset; immutable for the lifetime of a batch run.
type Ticket struct {
	ID   string `json:"support_tick_id"`
	Text string `json:"support_ticket_text"`
}

// Invoker is the remote text-generation capability: given a rendered prompt
// it returns the raw completion text. Transport-level failures come back as
// errors wrapping bedrock.ErrTransport; tests substitute a deterministic
// fake.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Record is the structured classification extracted from one completion.
type Record struct {
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Priority       string   `json:"priority"`
	SuggestedETA   string   `json:"suggested_eta"`
	GeneratedReply string   `json:"generated_reply"`
	Sentiment      string   `json:"sentiment"`
}

// Defaults for fields a partially conformant completion omitted. These are
// deliberately distinct from the Error sentinel so downstream reporting can
// separate "model omitted a field" from "model produced garbage".
const (
	DefaultCategory  = "Unknown"
	DefaultPriority  = "Unknown"
	DefaultETA       = "Unknown"
	DefaultReply     = "No reply generated"
	DefaultSentiment = "Unknown"

	SentinelValue = "Error"
)

// NewSentinelRecord builds the fixed-value record substituted when a
// completion cannot be decoded or the endpoint failed. The failure
// description lands in GeneratedReply so it survives into the report.
func NewSentinelRecord(description string) Record {
	return Record{
		Category:       SentinelValue,
		Tags:           []string{SentinelValue},
		Priority:       SentinelValue,
		SuggestedETA:   SentinelValue,
		GeneratedReply: description,
		Sentiment:      SentinelValue,
	}
}

// IsSentinel reports whether the record is a failure sentinel.
func (r Record) IsSentinel() bool {
	return r.Category == SentinelValue
}

// ReportRow joins a ticket with its classification. Tags are flattened to a
// comma-separated string at this boundary, matching the report artifact.
type ReportRow struct {
	TicketID       string `json:"support_tick_id"`
	Category       string `json:"category"`
	Tags           string `json:"tags"`
	Priority       string `json:"priority"`
	SuggestedETA   string `json:"suggested_eta"`
	GeneratedReply string `json:"generated_reply"`
	Sentiment      string `json:"sentiment"`
}

// NewReportRow flattens a record into the tabular report shape.
func NewReportRow(ticket Ticket, record Record) ReportRow {
	return ReportRow{
		TicketID:       ticket.ID,
		Category:       record.Category,
		Tags:           strings.Join(record.Tags, ", "),
		Priority:       record.Priority,
		SuggestedETA:   record.SuggestedETA,
		GeneratedReply: record.GeneratedReply,
		Sentiment:      record.Sentiment,
	}
}
