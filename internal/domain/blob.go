package domain

import (
	"context"
	"io"
)

// BlobWriter uploads objects to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver persists per-cycle snapshots of the computed opportunity set for
// offline analysis.
type Archiver interface {
	ArchiveCycle(ctx context.Context, snapshot CycleSnapshot) error
}

// CycleSnapshot is one sync cycle's output as written to cold storage.
type CycleSnapshot struct {
	SyncedAt      string                 `json:"synced_at"`
	MarketCount   int                    `json:"market_count"`
	PairCount     int                    `json:"pair_count"`
	Opportunities []ArbitrageOpportunity `json:"opportunities"`
}
