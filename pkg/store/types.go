package store

import (
	"context"
	"encoding/json"
	"time"
)

// Snapshot is a point-in-time capture of the capacity ledger.
type Snapshot struct {
	SnapshotID    string          `json:"snapshot_id"`
	SchemaVersion int             `json:"schema_version"`
	TsSnapshot    time.Time       `json:"ts_snapshot"`
	Source        string          `json:"source"` // instance path or "restore"
	Payload       json.RawMessage `json:"payload"`
}

// Lease is an exclusive claim on a named resource, such as the right to
// write ledger snapshots.
type Lease struct {
	Name      string    `json:"name"`
	HolderID  string    `json:"holder_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Version   int64     `json:"version"` // bumped on every acquire or renew
	Epoch     int64     `json:"epoch"`   // bumped when the holder changes
}

// LeaseStore acquires and renews leases.
type LeaseStore interface {
	// Acquire tries to acquire the lease. Returns true if successful.
	// If the lease is already held by holderID, it renews it.
	Acquire(ctx context.Context, name, holderID string, ttl time.Duration) (bool, error)

	// Renew extends a lease held by holderID. Returns ErrLeaseLost if the
	// lease expired and was taken over, or was released.
	Renew(ctx context.Context, name, holderID string, ttl time.Duration) error

	// Release drops the lease if held by holderID.
	Release(ctx context.Context, name, holderID string) error

	// Get returns the current lease, or nil if nobody holds it.
	Get(ctx context.Context, name string) (*Lease, error)
}
