// internal/store/postgres_test.go
package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/triage"
)

func sampleRows() []triage.ReportRow {
	return []triage.ReportRow{
		{
			TicketID:       "T-1",
			Category:       "hardware issues",
			Tags:           "boot failure",
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
}

func TestReportStore_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ticket_reports").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewReportStore(db, "ticket_reports", logger.NewNoOpLogger())
	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStore_SaveRunInsertsEveryRowInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sampleRows()

	mock.ExpectBegin()
	for i, row := range rows {
		mock.ExpectExec("INSERT INTO ticket_reports").
			WithArgs("run-1", i, row.TicketID, row.Category, row.Tags,
				row.Priority, row.SuggestedETA, row.GeneratedReply, row.Sentiment, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	s := NewReportStore(db, "ticket_reports", logger.NewNoOpLogger())
	require.NoError(t, s.SaveRun(context.Background(), "run-1", rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStore_SaveRunRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sampleRows()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ticket_reports").
		WithArgs("run-1", 0, rows[0].TicketID, rows[0].Category, rows[0].Tags,
			rows[0].Priority, rows[0].SuggestedETA, rows[0].GeneratedReply, rows[0].Sentiment, sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	s := NewReportStore(db, "ticket_reports", logger.NewNoOpLogger())
	err = s.SaveRun(context.Background(), "run-1", rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert report row 0")
	assert.Equal(t, commonerrors.ErrCodeStorageFailed, commonerrors.AsStandardError(err).Code)
	assert.True(t, commonerrors.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStore_SaveRunEmptyBatchCommitsNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	s := NewReportStore(db, "ticket_reports", logger.NewNoOpLogger())
	require.NoError(t, s.SaveRun(context.Background(), "run-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
