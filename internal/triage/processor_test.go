// internal/triage/processor_test.go
package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/metrics"
)

// invokerFunc adapts a function to the Invoker interface for tests.
type invokerFunc func(ctx context.Context, prompt string) (string, error)

func (f invokerFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func validCompletion(category string) string {
	return fmt.Sprintf(`{"category": %q, "tags": ["t"], "priority": "low", "suggested_eta": "1 day", "generated_reply": "Hi", "sentiment": "neutral"}`, category)
}

func TestProcessorRun_OneRowPerTicketInOrder(t *testing.T) {
	tickets := []Ticket{
		{ID: "T-1", Text: "printer jam"},
		{ID: "T-2", Text: "vpn down"},
		{ID: "T-3", Text: "password reset"},
	}

	invoker := invokerFunc(func(_ context.Context, prompt string) (string, error) {
		// Echo the ticket back through the category so ordering is checkable.
		for _, ticket := range tickets {
			if strings.Contains(prompt, ticket.Text) {
				return validCompletion("cat-" + ticket.ID), nil
			}
		}
		return "", errors.New("unexpected prompt")
	})

	p := NewProcessor(invoker, logger.NewNoOpLogger())
	rows := p.Run(context.Background(), tickets)

	require.Len(t, rows, len(tickets))
	for i, ticket := range tickets {
		assert.Equal(t, ticket.ID, rows[i].TicketID)
		assert.Equal(t, "cat-"+ticket.ID, rows[i].Category)
	}
}

func TestProcessorRun_TransportFailureDegradesOneRow(t *testing.T) {
	tickets := []Ticket{
		{ID: "T-1", Text: "first"},
		{ID: "T-2", Text: "second"},
		{ID: "T-3", Text: "third"},
	}

	invoker := invokerFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "second") {
			return "", errors.New("TRANSPORT_FAILURE: request timed out")
		}
		return validCompletion("billing issues"), nil
	})

	p := NewProcessor(invoker, logger.NewNoOpLogger())
	rows := p.Run(context.Background(), tickets)

	require.Len(t, rows, 3)

	assert.Equal(t, "billing issues", rows[0].Category)
	assert.Equal(t, "billing issues", rows[2].Category)

	failed := rows[1]
	assert.Equal(t, "T-2", failed.TicketID)
	assert.Equal(t, SentinelValue, failed.Category)
	assert.Equal(t, SentinelValue, failed.Tags)
	assert.Equal(t, SentinelValue, failed.Priority)
	assert.Equal(t, SentinelValue, failed.SuggestedETA)
	assert.Equal(t, SentinelValue, failed.Sentiment)
	assert.Contains(t, failed.GeneratedReply, "timed out")
}

func TestProcessorRun_MalformedCompletionDegradesOneRow(t *testing.T) {
	tickets := []Ticket{
		{ID: "T-1", Text: "first"},
		{ID: "T-2", Text: "second"},
	}

	invoker := invokerFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "second") {
			return "I'm sorry, I can't answer in JSON.", nil
		}
		return validCompletion("hardware issues"), nil
	})

	p := NewProcessor(invoker, logger.NewNoOpLogger())
	rows := p.Run(context.Background(), tickets)

	require.Len(t, rows, 2)
	assert.Equal(t, "hardware issues", rows[0].Category)
	assert.Equal(t, SentinelValue, rows[1].Category)
	assert.Contains(t, rows[1].GeneratedReply, "Error decoding the model's JSON response")
}

func TestProcessorRun_EmptyBatch(t *testing.T) {
	invoker := invokerFunc(func(_ context.Context, _ string) (string, error) {
		t.Fatal("invoker must not be called for an empty batch")
		return "", nil
	})

	p := NewProcessor(invoker, logger.NewNoOpLogger())
	rows := p.Run(context.Background(), nil)
	assert.Empty(t, rows)
}

// Verbose mode only adds logging; rows must be identical either way.
func TestProcessorRun_VerboseDoesNotChangeRows(t *testing.T) {
	tickets := []Ticket{{ID: "T-1", Text: "slow laptop"}}
	invoker := invokerFunc(func(_ context.Context, _ string) (string, error) {
		return validCompletion("performance issues"), nil
	})

	quiet := NewProcessor(invoker, logger.NewNoOpLogger()).Run(context.Background(), tickets)
	loud := NewProcessor(invoker, logger.NewTestLogger(t), WithVerbose(true)).Run(context.Background(), tickets)

	assert.Equal(t, quiet, loud)
}

func TestProcessorRun_SequentialSingleFlight(t *testing.T) {
	inFlight := 0
	invoker := invokerFunc(func(_ context.Context, _ string) (string, error) {
		inFlight++
		defer func() { inFlight-- }()
		require.Equal(t, 1, inFlight, "at most one invocation in flight")
		return validCompletion("x"), nil
	})

	tickets := []Ticket{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	NewProcessor(invoker, logger.NewNoOpLogger()).Run(context.Background(), tickets)
}

// Failure counters carry the shared category labels, so dashboards see
// "transport" and "parse" rather than ad hoc strings.
func TestProcessorRun_FailureMetricsUseErrorCategories(t *testing.T) {
	transportBefore := testutil.ToFloat64(metrics.TicketsFailed.WithLabelValues("transport"))
	parseBefore := testutil.ToFloat64(metrics.TicketsFailed.WithLabelValues("parse"))

	invoker := invokerFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "network down") {
			return "", errors.New("connection reset")
		}
		return "not json", nil
	})

	tickets := []Ticket{{ID: "T-1", Text: "network down"}, {ID: "T-2", Text: "slow laptop"}}
	NewProcessor(invoker, logger.NewNoOpLogger()).Run(context.Background(), tickets)

	assert.Equal(t, transportBefore+1, testutil.ToFloat64(metrics.TicketsFailed.WithLabelValues("transport")))
	assert.Equal(t, parseBefore+1, testutil.ToFloat64(metrics.TicketsFailed.WithLabelValues("parse")))
}

func TestProcessTicket_SingleTicket(t *testing.T) {
	invoker := invokerFunc(func(_ context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, "Support Ticket: my screen flickers")
		return validCompletion("hardware issues"), nil
	})

	p := NewProcessor(invoker, logger.NewNoOpLogger())
	row := p.ProcessTicket(context.Background(), Ticket{ID: "adhoc", Text: "my screen flickers"})

	assert.Equal(t, "adhoc", row.TicketID)
	assert.Equal(t, "hardware issues", row.Category)
	assert.Equal(t, "t", row.Tags)
}
