package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arbradar/arbradar/internal/domain"
)

// Archiver implements domain.Archiver by serializing each sync cycle's
// snapshot to JSON and uploading it to cold storage. Uploads are best-effort
// from the caller's point of view: a failed archive never fails the cycle.
type Archiver struct {
	writer domain.BlobWriter
}

// NewArchiver creates an Archiver on top of the given blob writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// ArchiveCycle uploads the snapshot to
// snapshots/YYYY/MM/DD/<synced_at>.json, partitioned by day so offline jobs
// can list a day's cycles with a single prefix.
func (a *Archiver) ArchiveCycle(ctx context.Context, snapshot domain.CycleSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("s3blob: marshal cycle snapshot: %w", err)
	}

	path := snapshotPath(snapshot.SyncedAt)
	if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive cycle: %w", err)
	}
	return nil
}

// snapshotPath builds the object key for a cycle snapshot. SyncedAt is an
// RFC 3339 timestamp; colons are replaced so the key stays portable across
// S3-compatible providers.
func snapshotPath(syncedAt string) string {
	t, err := time.Parse(time.RFC3339, syncedAt)
	if err != nil {
		t = time.Now().UTC()
	}
	name := strings.ReplaceAll(syncedAt, ":", "-")
	return fmt.Sprintf("snapshots/%s/%s.json", t.Format("2006/01/02"), name)
}

var _ domain.Archiver = (*Archiver)(nil)
