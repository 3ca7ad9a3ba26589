package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/store"
)

// SnapshotSchemaVersion is the payload layout written by SaveSnapshot.
const SnapshotSchemaVersion = 1

// SnapshotPayload defines the structure of the JSON blob stored in snapshots.
type SnapshotPayload struct {
	Periods     []domain.Period                               `json:"periods"`
	PeriodLocks []domain.Period                               `json:"period_locks"`
	WorkOrders  map[domain.WorkOrderNumber]WorkOrderParameter `json:"work_orders"`
	Resources   []PeriodResource                              `json:"resources"`
}

// Payload captures the current parameters and capacity.
func (s *StrategicParameters) Payload() SnapshotPayload {
	s.mu.RLock()
	payload := SnapshotPayload{
		Periods:     slices.Clone(s.periods),
		PeriodLocks: s.periodLocks.Sorted(),
		WorkOrders:  make(map[domain.WorkOrderNumber]WorkOrderParameter, len(s.workOrders)),
	}
	for number, p := range s.workOrders {
		payload.WorkOrders[number] = p.clone()
	}
	s.mu.RUnlock()

	payload.Resources = s.capacity.All()
	return payload
}

// Restore replaces the parameters and capacity with the payload contents.
// Locks on periods not listed in the payload are rejected.
func (s *StrategicParameters) Restore(payload SnapshotPayload) error {
	periods := slices.Clone(payload.Periods)
	slices.SortFunc(periods, domain.Period.Compare)
	periods = slices.Compact(periods)

	locks := NewPeriodSet(payload.PeriodLocks...)
	for p := range locks {
		if _, found := slices.BinarySearchFunc(periods, p, domain.Period.Compare); !found {
			return fmt.Errorf("%w: locked period %s", ErrUnknownPeriod, p)
		}
	}

	if err := s.capacity.LoadState(payload.Resources); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.periods = periods
	s.periodLocks = locks
	s.workOrders = make(map[domain.WorkOrderNumber]WorkOrderParameter, len(payload.WorkOrders))
	for number, p := range payload.WorkOrders {
		s.workOrders[number] = p.clone()
	}
	LockedPeriods.Set(float64(len(locks)))
	return nil
}

// SaveSnapshot persists the parameters and capacity to st.
func SaveSnapshot(ctx context.Context, st *store.Store, params *StrategicParameters, source string) (*store.Snapshot, error) {
	payloadJSON, err := json.Marshal(params.Payload())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}

	now := time.Now().UTC()
	snap := &store.Snapshot{
		SnapshotID:    fmt.Sprintf("snap_%d", now.UnixNano()),
		SchemaVersion: SnapshotSchemaVersion,
		TsSnapshot:    now,
		Source:        source,
		Payload:       payloadJSON,
	}
	if err := st.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("store save failed: %w", err)
	}
	return snap, nil
}

// LoadLatestSnapshot restores params from the newest snapshot in st. It
// returns nil and leaves params untouched when the store holds no snapshot.
func LoadLatestSnapshot(ctx context.Context, st *store.Store, params *StrategicParameters) (*store.Snapshot, error) {
	snap, err := st.GetLatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}
	if snap.SchemaVersion != SnapshotSchemaVersion {
		return nil, fmt.Errorf("snapshot %s has schema version %d, want %d", snap.SnapshotID, snap.SchemaVersion, SnapshotSchemaVersion)
	}

	var payload SnapshotPayload
	if err := json.Unmarshal(snap.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", snap.SnapshotID, err)
	}
	if err := params.Restore(payload); err != nil {
		return nil, fmt.Errorf("failed to restore snapshot %s: %w", snap.SnapshotID, err)
	}
	return snap, nil
}
