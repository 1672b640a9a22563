package s3blob

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbradar/arbradar/internal/domain"
)

type fakeWriter struct {
	path        string
	contentType string
	data        []byte
	err         error
}

func (f *fakeWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	f.path = path
	f.contentType = contentType
	f.data, _ = io.ReadAll(data)
	return f.err
}

func TestArchiver_ArchiveCycle(t *testing.T) {
	w := &fakeWriter{}
	a := NewArchiver(w)

	snapshot := domain.CycleSnapshot{
		SyncedAt:    "2026-08-31T12:30:45Z",
		MarketCount: 120,
		PairCount:   4,
		Opportunities: []domain.ArbitrageOpportunity{
			{ID: "o1", NetSpreadPct: 3.2},
		},
	}
	require.NoError(t, a.ArchiveCycle(context.Background(), snapshot))

	assert.Equal(t, "snapshots/2026/08/31/2026-08-31T12-30-45Z.json", w.path)
	assert.Equal(t, "application/json", w.contentType)

	var got domain.CycleSnapshot
	require.NoError(t, json.Unmarshal(w.data, &got))
	assert.Equal(t, snapshot.SyncedAt, got.SyncedAt)
	assert.Equal(t, 120, got.MarketCount)
	require.Len(t, got.Opportunities, 1)
	assert.Equal(t, "o1", got.Opportunities[0].ID)
}

func TestArchiver_UploadFailureSurfaces(t *testing.T) {
	w := &fakeWriter{err: errors.New("bucket gone")}
	a := NewArchiver(w)

	err := a.ArchiveCycle(context.Background(), domain.CycleSnapshot{SyncedAt: "2026-08-31T00:00:00Z"})
	assert.Error(t, err)
}

func TestSnapshotPath_BadTimestampFallsBack(t *testing.T) {
	path := snapshotPath("not-a-timestamp")
	assert.Contains(t, path, "snapshots/")
	assert.Contains(t, path, "not-a-timestamp.json")
}
