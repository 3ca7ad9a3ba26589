package persist

import (
	"context"
	"log/slog"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/blob"
	"github.com/rmax-ai/schedgraph/pkg/ledger"
	"github.com/rmax-ai/schedgraph/pkg/store"
)

// SnapshotWorker periodically persists the ledger while this process holds
// the writer lease.
type SnapshotWorker struct {
	store    *store.Store
	params   *ledger.StrategicParameters
	isWriter func() bool
	source   string
	interval time.Duration
	keep     int
	logger   *slog.Logger

	archive blob.BlobStore
}

// NewSnapshotWorker creates a worker. A zero interval defaults to five
// minutes; keep < 1 disables pruning. A nil isWriter always writes.
func NewSnapshotWorker(st *store.Store, params *ledger.StrategicParameters, isWriter func() bool, source string, interval time.Duration, keep int, logger *slog.Logger) *SnapshotWorker {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	if isWriter == nil {
		isWriter = func() bool { return true }
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SnapshotWorker{
		store:    st,
		params:   params,
		isWriter: isWriter,
		source:   source,
		interval: interval,
		keep:     keep,
		logger:   logger,
	}
}

// SetArchive makes the worker copy snapshots to blobs before pruning them.
func (w *SnapshotWorker) SetArchive(blobs blob.BlobStore) {
	w.archive = blobs
}

// Run takes snapshots until ctx is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("snapshot_worker_started", "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("snapshot_worker_stopped")
			return
		case <-ticker.C:
			if _, err := w.TakeSnapshot(ctx); err != nil {
				w.logger.Error("snapshot_failed", "error", err)
			}
		}
	}
}

// TakeSnapshot saves one snapshot and prunes old ones. It reports false
// without error when another process holds the writer lease.
func (w *SnapshotWorker) TakeSnapshot(ctx context.Context) (bool, error) {
	if !w.isWriter() {
		w.logger.Debug("snapshot_skipped_not_writer")
		return false, nil
	}

	snap, err := ledger.SaveSnapshot(ctx, w.store, w.params, w.source)
	if err != nil {
		return false, err
	}
	w.logger.Info("snapshot_saved", "snapshot_id", snap.SnapshotID)

	if w.keep > 0 {
		if err := w.archiveBeyond(ctx); err != nil {
			return true, err
		}
		pruned, err := w.store.PruneSnapshots(ctx, w.keep)
		if err != nil {
			return true, err
		}
		if pruned > 0 {
			w.logger.Info("snapshots_pruned", "count", pruned)
		}
	}
	return true, nil
}

// archiveBeyond copies the snapshots about to be pruned. A failed copy
// aborts the prune so nothing is lost.
func (w *SnapshotWorker) archiveBeyond(ctx context.Context) error {
	if w.archive == nil {
		return nil
	}
	snaps, err := w.store.SnapshotsBeyond(ctx, w.keep)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		if err := ArchiveSnapshot(ctx, w.archive, snap); err != nil {
			return err
		}
		w.logger.Debug("snapshot_archived", "snapshot_id", snap.SnapshotID, "key", ArchiveKey(snap))
	}
	return nil
}
