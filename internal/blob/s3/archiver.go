package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stylelend/rentbond/internal/domain"
)

// ArchivePrefix is the key prefix under which audit log exports are stored.
const ArchivePrefix = "archive/rental_history/"

// Archiver implements domain.Archiver by reading the full rental audit log,
// serializing it to JSONL, and uploading the result to object storage.
//
// Records are not deleted from the primary store here. Trimming is a
// separate, explicit step to be executed after the archive has been verified.
type Archiver struct {
	writer  domain.BlobWriter
	history domain.HistoryStore
	now     func() time.Time
}

// NewArchiver creates an Archiver exporting from the given history store
// through the given writer.
func NewArchiver(writer domain.BlobWriter, history domain.HistoryStore) *Archiver {
	return &Archiver{
		writer:  writer,
		history: history,
		now:     time.Now,
	}
}

// ArchiveHistory exports the rental audit log to a timestamped JSONL object
// and returns the object path and the number of records written. An empty
// log uploads nothing and returns a zero count with an empty path.
func (a *Archiver) ArchiveHistory(ctx context.Context) (string, int64, error) {
	events, err := a.history.List(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: archive history query: %w", err)
	}
	if len(events) == 0 {
		return "", 0, nil
	}

	buf, err := marshalJSONL(events)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: archive history marshal: %w", err)
	}

	path := fmt.Sprintf("%s%s.jsonl", ArchivePrefix, a.now().UTC().Format("2006-01-02T15-04-05"))
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return "", 0, fmt.Errorf("s3blob: archive history upload: %w", err)
	}

	return path, int64(len(events)), nil
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*Archiver)(nil)
