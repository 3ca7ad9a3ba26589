package persist

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rmax-ai/schedgraph/pkg/blob"
	"github.com/rmax-ai/schedgraph/pkg/store"
)

// ArchiveKey is the blob key of an archived snapshot:
// snapshots/YYYY/MM/DD/<snapshot_id>.json.gz
func ArchiveKey(snap *store.Snapshot) string {
	year, month, day := snap.TsSnapshot.UTC().Date()
	return fmt.Sprintf("snapshots/%04d/%02d/%02d/%s.json.gz", year, month, day, snap.SnapshotID)
}

// ArchiveSnapshot writes snap, gzipped JSON, to the blob store.
func ArchiveSnapshot(ctx context.Context, blobs blob.BlobStore, snap *store.Snapshot) error {
	var buf bytes.Buffer
	gzWriter := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gzWriter).Encode(snap); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode snapshot %s: %w", snap.SnapshotID, err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}

	if err := blobs.Put(ctx, ArchiveKey(snap), &buf); err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", snap.SnapshotID, err)
	}
	return nil
}

// ReadArchivedSnapshot loads a snapshot written by ArchiveSnapshot.
func ReadArchivedSnapshot(ctx context.Context, blobs blob.BlobStore, key string) (*store.Snapshot, error) {
	rc, err := blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	gzReader, err := gzip.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", key, err)
	}
	defer gzReader.Close()

	data, err := io.ReadAll(gzReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", key, err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode archive %s: %w", key, err)
	}
	return &snap, nil
}
