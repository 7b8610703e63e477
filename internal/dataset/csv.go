// internal/dataset/csv.go
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"

	"ticket-triage/internal/common/config"
	commonerrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/triage"
)

// ReportHeader is the column order of the output artifact.
var ReportHeader = []string{
	"support_tick_id",
	"category",
	"tags",
	"priority",
	"suggested_eta",
	"generated_reply",
	"sentiment",
}

// LoadTickets reads the input CSV and returns tickets in file order. A
// missing required column is a fatal configuration error, reported before
// any inference call is made.
func LoadTickets(path string, cfg config.DatasetConfig) ([]triage.Ticket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read input dataset: %w", err)
	}

	if len(records) == 0 {
		return nil, commonerrors.NewDatasetInvalidError("input dataset is empty")
	}

	header := records[0]
	idIdx, textIdx := -1, -1
	for i, col := range header {
		switch col {
		case cfg.IDColumn:
			idIdx = i
		case cfg.TextColumn:
			textIdx = i
		}
	}
	if idIdx == -1 || textIdx == -1 {
		return nil, commonerrors.NewDatasetInvalidError(fmt.Sprintf(
			"input dataset must contain %q and %q columns", cfg.IDColumn, cfg.TextColumn,
		))
	}

	tickets := make([]triage.Ticket, 0, len(records)-1)
	for _, row := range records[1:] {
		tickets = append(tickets, triage.Ticket{
			ID:   row[idIdx],
			Text: row[textIdx],
		})
	}

	return tickets, nil
}

// WriteReport writes one row per report row, preserving order. Tags arrive
// already flattened to a comma-separated string.
func WriteReport(path string, rows []triage.ReportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output dataset: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write(ReportHeader); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.TicketID,
			row.Category,
			row.Tags,
			row.Priority,
			row.SuggestedETA,
			row.GeneratedReply,
			row.Sentiment,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
