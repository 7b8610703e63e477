// internal/dataset/csv_test.go
package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-triage/internal/common/config"
	commonerrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/triage"
)

func datasetConfig() config.DatasetConfig {
	return config.DatasetConfig{
		IDColumn:   "support_tick_id",
		TextColumn: "support_ticket_text",
	}
}

func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickets.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	return path
}

func TestLoadTickets_ReadsRowsInOrder(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"support_tick_id", "support_ticket_text", "extra"},
		{"T-1", "laptop won't boot", "x"},
		{"T-2", "vpn keeps dropping", "y"},
	})

	tickets, err := LoadTickets(path, datasetConfig())
	require.NoError(t, err)

	require.Len(t, tickets, 2)
	assert.Equal(t, triage.Ticket{ID: "T-1", Text: "laptop won't boot"}, tickets[0])
	assert.Equal(t, triage.Ticket{ID: "T-2", Text: "vpn keeps dropping"}, tickets[1])
}

func TestLoadTickets_ColumnsInAnyOrder(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"support_ticket_text", "support_tick_id"},
		{"screen flickers", "T-9"},
	})

	tickets, err := LoadTickets(path, datasetConfig())
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "T-9", tickets[0].ID)
	assert.Equal(t, "screen flickers", tickets[0].Text)
}

func TestLoadTickets_MissingColumnIsFatal(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"missing id column", []string{"ticket_id", "support_ticket_text"}},
		{"missing text column", []string{"support_tick_id", "text"}},
		{"both missing", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, [][]string{tt.header, {"1", "2"}})

			tickets, err := LoadTickets(path, datasetConfig())
			assert.Nil(t, tickets)
			require.Error(t, err)

			stdErr := commonerrors.AsStandardError(err)
			assert.Equal(t, commonerrors.ErrCodeDatasetInvalid, stdErr.Code)
		})
	}
}

func TestLoadTickets_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := LoadTickets(path, datasetConfig())
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeDatasetInvalid, commonerrors.AsStandardError(err).Code)
}

func TestLoadTickets_MissingFile(t *testing.T) {
	_, err := LoadTickets(filepath.Join(t.TempDir(), "nope.csv"), datasetConfig())
	assert.Error(t, err)
}

func TestWriteReport_RoundTrip(t *testing.T) {
	rows := []triage.ReportRow{
		{
			TicketID:       "T-1",
			Category:       "hardware issues",
			Tags:           "boot failure, battery",
			Priority:       "high",
			SuggestedETA:   "2 hours",
			GeneratedReply: "We're on it.",
			Sentiment:      "negative",
		},
		{
			TicketID:       "T-2",
			Category:       "Error",
			Tags:           "Error",
			Priority:       "Error",
			SuggestedETA:   "Error",
			GeneratedReply: "Error decoding the model's JSON response: garbage",
			Sentiment:      "Error",
		},
	}

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteReport(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, ReportHeader, records[0])
	assert.Equal(t, []string{"T-1", "hardware issues", "boot failure, battery", "high", "2 hours", "We're on it.", "negative"}, records[1])
	assert.Equal(t, "T-2", records[2][0])
	assert.Equal(t, "Error", records[2][1])
}

func TestWriteReport_EmptyRowsStillWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteReport(path, nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ReportHeader, records[0])
}
