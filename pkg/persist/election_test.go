package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/store"
)

// MockLeaseStore is a mock implementation of store.LeaseStore for testing.
type MockLeaseStore struct {
	mu sync.Mutex

	acquireResult bool
	acquireError  error
	renewError    error
	releaseError  error

	acquireCalls int
	renewCalls   int
	releaseCalls int
}

func (m *MockLeaseStore) Acquire(ctx context.Context, name, holderID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquireCalls++
	return m.acquireResult, m.acquireError
}

func (m *MockLeaseStore) Renew(ctx context.Context, name, holderID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renewCalls++
	return m.renewError
}

func (m *MockLeaseStore) Release(ctx context.Context, name, holderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCalls++
	return m.releaseError
}

func (m *MockLeaseStore) Get(ctx context.Context, name string) (*store.Lease, error) {
	return nil, nil
}

func (m *MockLeaseStore) calls() (acquire, renew, release int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquireCalls, m.renewCalls, m.releaseCalls
}

func TestElectionManager_PromotesOnStart(t *testing.T) {
	mockStore := &MockLeaseStore{acquireResult: true}
	promoted := 0

	em := NewElectionManager(mockStore, "node1", WriterLease, time.Hour, nil, func() { promoted++ }, nil)
	ctx := context.Background()
	em.Start(ctx)

	// the first attempt is synchronous
	if !em.IsLeader() {
		t.Fatal("expected to be leader right after Start")
	}
	if promoted != 1 {
		t.Errorf("expected one promotion, got %d", promoted)
	}

	em.Stop(ctx)
	if em.IsLeader() {
		t.Error("expected leadership to end on stop")
	}
	if _, _, release := mockStore.calls(); release != 1 {
		t.Errorf("expected lease release on stop, got %d calls", release)
	}
}

func TestElectionManager_Demotion(t *testing.T) {
	mockStore := &MockLeaseStore{
		acquireResult: true,
		renewError:    errors.New("renew failed"),
	}
	demoteCh := make(chan struct{}, 1)

	em := NewElectionManager(mockStore, "node1", WriterLease, 50*time.Millisecond, nil, nil, func() {
		select {
		case demoteCh <- struct{}{}:
		default:
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	em.Start(ctx)

	select {
	case <-demoteCh:
	case <-time.After(time.Second):
		t.Fatal("onDemote not called after renew failure")
	}

	em.Stop(ctx)
}

func TestElectionManager_Renewal(t *testing.T) {
	mockStore := &MockLeaseStore{acquireResult: true}

	em := NewElectionManager(mockStore, "node1", WriterLease, 20*time.Millisecond, nil, nil, nil)
	ctx := context.Background()
	em.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, renew, _ := mockStore.calls(); renew > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	em.Stop(ctx)

	if _, renew, _ := mockStore.calls(); renew == 0 {
		t.Error("Renew should have been called periodically")
	}
}

func TestElectionManager_NotLeader(t *testing.T) {
	mockStore := &MockLeaseStore{acquireResult: false}

	em := NewElectionManager(mockStore, "node2", WriterLease, time.Hour, nil, nil, nil)
	ctx := context.Background()
	em.Start(ctx)

	if em.IsLeader() {
		t.Error("expected not to be leader")
	}

	em.Stop(ctx)
	if _, _, release := mockStore.calls(); release != 0 {
		t.Errorf("non-leader must not release, got %d calls", release)
	}
}

func TestElectionManager_StopWithoutStart(t *testing.T) {
	em := NewElectionManager(&MockLeaseStore{}, "node1", WriterLease, time.Hour, nil, nil, nil)
	em.Stop(context.Background())
}
