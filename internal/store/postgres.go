// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	commonerrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/triage"
)

// ReportStore persists report rows in Postgres so batch results stay
// queryable after the CSV artifact is handed off.
type ReportStore struct {
	db     *sql.DB
	table  string
	logger logger.Logger
}

func NewReportStore(db *sql.DB, table string, log logger.Logger) *ReportStore {
	return &ReportStore{
		db:     db,
		table:  table,
		logger: log.With(map[string]interface{}{"component": "report-store"}),
	}
}

// EnsureSchema creates the report table if it does not exist.
func (s *ReportStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run_id          TEXT NOT NULL,
		row_index       INT  NOT NULL,
		support_tick_id TEXT NOT NULL,
		category        TEXT NOT NULL,
		tags            TEXT NOT NULL,
		priority        TEXT NOT NULL,
		suggested_eta   TEXT NOT NULL,
		generated_reply TEXT NOT NULL,
		sentiment       TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (run_id, row_index)
	)`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return commonerrors.NewStorageFailedError(fmt.Errorf("ensure report schema: %w", err))
	}
	return nil
}

// SaveRun inserts every report row of a batch under one run ID, preserving
// row order via row_index. The whole run is one transaction: either all rows
// land or none do.
func (s *ReportStore) SaveRun(ctx context.Context, runID string, rows []triage.ReportRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return commonerrors.NewStorageFailedError(fmt.Errorf("begin report transaction: %w", err))
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO %s
		(run_id, row_index, support_tick_id, category, tags, priority, suggested_eta, generated_reply, sentiment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.table)

	now := time.Now().UTC()
	for i, row := range rows {
		if _, err := tx.ExecContext(ctx, query,
			runID, i, row.TicketID, row.Category, row.Tags,
			row.Priority, row.SuggestedETA, row.GeneratedReply, row.Sentiment, now,
		); err != nil {
			return commonerrors.NewStorageFailedError(fmt.Errorf("insert report row %d: %w", i, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return commonerrors.NewStorageFailedError(fmt.Errorf("commit report transaction: %w", err))
	}

	s.logger.Info("report archived", map[string]interface{}{
		"runId": runID,
		"rows":  len(rows),
	})
	return nil
}
