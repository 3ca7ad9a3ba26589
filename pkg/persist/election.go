// Package persist keeps ledger snapshots flowing to the SQLite store while
// guaranteeing that only one process writes them at a time.
package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/store"
)

// WriterLease is the lease name guarding snapshot writes.
const WriterLease = "snapshot-writer"

// ElectionManager holds a lease for as long as it can renew it.
type ElectionManager struct {
	store     store.LeaseStore
	holderID  string
	leaseName string
	ttl       time.Duration
	logger    *slog.Logger

	onPromote func()
	onDemote  func()

	mu       sync.RWMutex
	isLeader bool
	started  bool

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewElectionManager creates an ElectionManager. The callbacks may be nil.
func NewElectionManager(
	leases store.LeaseStore,
	holderID string,
	leaseName string,
	ttl time.Duration,
	logger *slog.Logger,
	onPromote func(),
	onDemote func(),
) *ElectionManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ElectionManager{
		store:     leases,
		holderID:  holderID,
		leaseName: leaseName,
		ttl:       ttl,
		logger:    logger.With("holder_id", holderID, "lease", leaseName),
		onPromote: onPromote,
		onDemote:  onDemote,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start makes a first attempt immediately, then retries every ttl/2.
func (em *ElectionManager) Start(ctx context.Context) {
	em.mu.Lock()
	em.started = true
	em.mu.Unlock()

	em.attemptElection(ctx)

	ticker := time.NewTicker(em.ttl / 2)
	go func() {
		defer close(em.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				em.attemptElection(ctx)
			case <-em.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	em.logger.Info("election_started")
}

// Stop ends the loop and releases the lease if held.
func (em *ElectionManager) Stop(ctx context.Context) {
	em.stopOnce.Do(func() { close(em.stopCh) })

	em.mu.RLock()
	started := em.started
	em.mu.RUnlock()
	if started {
		<-em.done
	}

	em.mu.Lock()
	wasLeader := em.isLeader
	em.isLeader = false
	em.mu.Unlock()

	if wasLeader {
		if err := em.store.Release(ctx, em.leaseName, em.holderID); err != nil {
			em.logger.Error("lease_release_failed", "error", err)
		} else {
			em.logger.Info("lease_released")
		}
	}
	em.logger.Info("election_stopped")
}

// IsLeader reports whether this process currently holds the lease.
func (em *ElectionManager) IsLeader() bool {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.isLeader
}

func (em *ElectionManager) attemptElection(ctx context.Context) {
	em.mu.RLock()
	wasLeader := em.isLeader
	em.mu.RUnlock()

	var leader bool
	if wasLeader {
		if err := em.store.Renew(ctx, em.leaseName, em.holderID, em.ttl); err != nil {
			em.logger.Warn("lease_renew_failed", "error", err)
		} else {
			leader = true
			em.logger.Debug("lease_renewed")
		}
	} else {
		acquired, err := em.store.Acquire(ctx, em.leaseName, em.holderID, em.ttl)
		switch {
		case err != nil:
			em.logger.Warn("lease_acquire_failed", "error", err)
		case acquired:
			leader = true
			em.logger.Info("lease_acquired")
		default:
			em.logger.Debug("lease_held_elsewhere")
		}
	}

	em.mu.Lock()
	em.isLeader = leader
	em.mu.Unlock()

	switch {
	case !wasLeader && leader:
		if em.onPromote != nil {
			em.onPromote()
		}
		em.logger.Info("promoted_to_writer")
	case wasLeader && !leader:
		if em.onDemote != nil {
			em.onDemote()
		}
		em.logger.Info("demoted_from_writer")
	}
}
