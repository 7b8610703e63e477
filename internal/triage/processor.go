// internal/triage/processor.go
package triage

import (
	"context"
	"time"

	commonerrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/metrics"
	"ticket-triage/internal/common/observability"
)

// Processor drives the per-ticket pipeline: render prompt, invoke the model,
// parse the completion. Tickets are processed strictly in input order, one
// call in flight at a time, and every ticket produces exactly one report row
// regardless of how its derivation went.
type Processor struct {
	invoker Invoker
	logger  logger.Logger
	obs     *observability.Observability
	verbose bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithVerbose enables a per-ticket trace of input/output pairs. The trace is
// purely additive; returned rows are identical either way.
func WithVerbose(verbose bool) Option {
	return func(p *Processor) {
		p.verbose = verbose
	}
}

// WithObservability attaches an OpenTelemetry meter for per-ticket metrics.
func WithObservability(obs *observability.Observability) Option {
	return func(p *Processor) {
		p.obs = obs
	}
}

func NewProcessor(invoker Invoker, log logger.Logger, opts ...Option) *Processor {
	p := &Processor{
		invoker: invoker,
		logger:  log.With(map[string]interface{}{"component": "processor"}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run classifies every ticket and returns one report row per input ticket,
// in input order. A failure on one ticket degrades that row to a sentinel
// and never aborts the rest of the batch.
func (p *Processor) Run(ctx context.Context, tickets []Ticket) []ReportRow {
	rows := make([]ReportRow, 0, len(tickets))

	for _, ticket := range tickets {
		start := time.Now()
		row, status := p.processOne(ctx, ticket)
		rows = append(rows, row)

		metrics.TicketsProcessed.WithLabelValues(status).Inc()
		if p.obs != nil {
			p.obs.RecordTicketProcessed(ctx, status)
			p.obs.RecordTicketDuration(ctx, time.Since(start), status)
		}
	}

	p.logger.Info("batch completed", map[string]interface{}{
		"tickets": len(tickets),
		"rows":    len(rows),
	})

	return rows
}

// ProcessTicket classifies a single ticket. Used by the batch loop and by
// single-ticket analysis.
func (p *Processor) ProcessTicket(ctx context.Context, ticket Ticket) ReportRow {
	row, _ := p.processOne(ctx, ticket)
	return row
}

func (p *Processor) processOne(ctx context.Context, ticket Ticket) (ReportRow, string) {
	prompt := RenderPrompt(ticket.Text)

	raw, err := p.invoker.Invoke(ctx, prompt)
	if err != nil {
		// Transport failure: same sentinel shape as a parse failure, with
		// the transport message in the reply column.
		metrics.TicketsFailed.WithLabelValues(commonerrors.GetErrorCategory(commonerrors.ErrCodeTransportFailed)).Inc()
		p.logger.Warn("inference failed", map[string]interface{}{
			"ticketId": ticket.ID,
			"error":    err.Error(),
		})
		return NewReportRow(ticket, NewSentinelRecord(err.Error())), "transport_error"
	}

	record, parseErr := ParseCompletion(raw)
	if parseErr != nil {
		metrics.TicketsFailed.WithLabelValues(commonerrors.GetErrorCategory(commonerrors.ErrCodeParseFailed)).Inc()
		p.logger.Warn("completion parse failed", map[string]interface{}{
			"ticketId": ticket.ID,
			"error":    parseErr.Error(),
		})
		return NewReportRow(ticket, record), "parse_error"
	}

	if p.verbose {
		p.logger.Info("ticket classified", map[string]interface{}{
			"ticketId":  ticket.ID,
			"text":      ticket.Text,
			"category":  record.Category,
			"priority":  record.Priority,
			"sentiment": record.Sentiment,
			"reply":     record.GeneratedReply,
		})
	}

	return NewReportRow(ticket, record), "ok"
}
