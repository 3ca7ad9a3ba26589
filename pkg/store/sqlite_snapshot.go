package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveSnapshot inserts a snapshot. Snapshot IDs must be unique.
func (s *Store) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (snapshot_id, schema_version, ts_snapshot, source, payload)
		VALUES (?, ?, ?, ?, ?)
	`, snap.SnapshotID, snap.SchemaVersion, snap.TsSnapshot.UTC(), snap.Source, string(snap.Payload))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// GetLatestSnapshot returns the most recent snapshot, or nil if none exist.
func (s *Store) GetLatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		snap    Snapshot
		payload string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot_id, schema_version, ts_snapshot, source, payload
		FROM snapshots
		ORDER BY ts_snapshot DESC, rowid DESC
		LIMIT 1
	`).Scan(&snap.SnapshotID, &snap.SchemaVersion, &snap.TsSnapshot, &snap.Source, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	snap.Payload = []byte(payload)
	return &snap, nil
}

// GetLatestSnapshotTime returns the time of the newest snapshot, or the zero
// time if none exist.
func (s *Store) GetLatestSnapshotTime(ctx context.Context) (time.Time, error) {
	snap, err := s.GetLatestSnapshot(ctx)
	if err != nil || snap == nil {
		return time.Time{}, err
	}
	return snap.TsSnapshot, nil
}

// CountSnapshots returns the number of stored snapshots.
func (s *Store) CountSnapshots(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// PruneSnapshots keeps the newest keep snapshots and deletes the rest.
// It returns the number of deleted rows.
func (s *Store) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("prune must keep at least one snapshot, got %d", keep)
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE snapshot_id NOT IN (
			SELECT snapshot_id FROM snapshots ORDER BY ts_snapshot DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

// SnapshotsBeyond returns the snapshots PruneSnapshots(ctx, keep) would
// delete, oldest first.
func (s *Store) SnapshotsBeyond(ctx context.Context, keep int) ([]*Snapshot, error) {
	if keep < 1 {
		return nil, fmt.Errorf("prune must keep at least one snapshot, got %d", keep)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot_id, schema_version, ts_snapshot, source, payload
		FROM snapshots
		WHERE snapshot_id NOT IN (
			SELECT snapshot_id FROM snapshots ORDER BY ts_snapshot DESC, rowid DESC LIMIT ?
		)
		ORDER BY ts_snapshot ASC, rowid ASC
	`, keep)
	if err != nil {
		return nil, fmt.Errorf("failed to query prunable snapshots: %w", err)
	}
	defer rows.Close()

	var result []*Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			payload string
		)
		if err := rows.Scan(&snap.SnapshotID, &snap.SchemaVersion, &snap.TsSnapshot, &snap.Source, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Payload = []byte(payload)
		result = append(result, &snap)
	}
	return result, rows.Err()
}
