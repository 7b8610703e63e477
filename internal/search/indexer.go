// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"ticket-triage/internal/common/database"
	commonerrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/triage"
)

// ReportIndexer bulk-indexes report rows into Elasticsearch so support
// teams can search past classifications.
type ReportIndexer struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewReportIndexer(es *database.ElasticsearchClient, index string, log logger.Logger) *ReportIndexer {
	return &ReportIndexer{
		es:     es,
		index:  index,
		logger: log.With(map[string]interface{}{"component": "report-indexer", "index": index}),
	}
}

type indexedRow struct {
	triage.ReportRow
	RunID     string    `json:"run_id"`
	RowIndex  int       `json:"row_index"`
	IndexedAt time.Time `json:"indexed_at"`
}

// IndexRun writes one document per report row using the bulk API. Document
// IDs are deterministic (run + row index) so re-indexing a run overwrites
// instead of duplicating.
func (i *ReportIndexer) IndexRun(ctx context.Context, runID string, rows []triage.ReportRow) error {
	if len(rows) == 0 {
		return nil
	}

	var buf bytes.Buffer
	now := time.Now().UTC()

	for idx, row := range rows {
		action := map[string]map[string]string{
			"index": {"_id": fmt.Sprintf("%s-%d", runID, idx)},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return fmt.Errorf("marshal bulk action: %w", err)
		}

		docLine, err := json.Marshal(indexedRow{
			ReportRow: row,
			RunID:     runID,
			RowIndex:  idx,
			IndexedAt: now,
		})
		if err != nil {
			return fmt.Errorf("marshal report document: %w", err)
		}

		buf.Write(actionLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	res, err := i.es.Client.Bulk(
		bytes.NewReader(buf.Bytes()),
		i.es.Client.Bulk.WithContext(ctx),
		i.es.Client.Bulk.WithIndex(i.index),
	)
	if err != nil {
		return commonerrors.NewIndexFailedError(fmt.Errorf("bulk index request: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return commonerrors.NewIndexFailedError(fmt.Errorf("bulk index error: %s", res.Status()))
	}

	var bulkResponse struct {
		Errors bool `json:"errors"`
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read bulk response: %w", err)
	}
	if err := json.Unmarshal(body, &bulkResponse); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if bulkResponse.Errors {
		return commonerrors.NewIndexFailedError(fmt.Errorf("bulk index reported item failures"))
	}

	i.logger.Info("report indexed", map[string]interface{}{
		"runId": runID,
		"rows":  len(rows),
	})
	return nil
}
