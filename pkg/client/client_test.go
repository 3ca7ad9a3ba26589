package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/api"
	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/instance"
)

const fixture = `{
  "skills": ["MTN-MECH", "MTN-ELEC"],
  "periods": ["2025-01-13", "2025-01-27"],
  "work_orders": [
    {
      "number": 1122334455,
      "basic_start": "2025-01-13",
      "activities": [
        {"number": 10, "skill": "MTN-MECH", "work": 8},
        {"number": 20, "skill": "MTN-ELEC", "work": 4}
      ],
      "latest_period": "2025-01-27",
      "weight": 7
    }
  ],
  "technicians": [{"id": 1234, "skills": ["MTN-MECH", "MTN-ELEC"]}],
  "capacity": [
    {"period": "2025-01-27", "technician": 1234, "total_hours": 60, "skill_hours": {"MTN-ELEC": 60}}
  ],
  "activity_assignments": [
    {"technician": 1234, "work_order": 1122334455, "activity": 10, "days": ["2025-01-28", "2025-01-29"], "start": "06:30", "finish": "14:30"}
  ]
}`

func newDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	inst, err := instance.Parse(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	res, err := instance.Build(inst, instance.BuildOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	res.Graph.Freeze()

	srv := httptest.NewServer(api.NewServer(res.Graph, res.Parameters, "", nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Ping(t *testing.T) {
	c := NewClient(newDaemon(t).URL)

	status, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("Ping() status = %s, want ok", status.Status)
	}
}

func TestClient_Summary(t *testing.T) {
	c := NewClient(newDaemon(t).URL)

	summary, err := c.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !summary.Frozen {
		t.Errorf("expected frozen graph")
	}
	if len(summary.Periods) != 2 || summary.Periods[1].String() != "2025-01-27" {
		t.Errorf("unexpected periods: %v", summary.Periods)
	}
	if summary.NodesByKind["period"] != 2 || summary.NodesByKind["day"] != 28 {
		t.Errorf("unexpected node counts: %v", summary.NodesByKind)
	}
	if summary.EdgesByType["assign"] != 1 {
		t.Errorf("unexpected edge counts: %v", summary.EdgesByType)
	}
}

func TestClient_Assignments(t *testing.T) {
	c := NewClient(newDaemon(t).URL)
	ctx := context.Background()

	second := domain.NewPeriod(domain.Date(2025, time.January, 27))
	resp, err := c.Assignments(ctx, second, true)
	if err != nil {
		t.Fatalf("Assignments() error = %v", err)
	}
	if len(resp.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(resp.Assignments))
	}

	a := resp.Assignments[0]
	if a.Type != "assign" || a.Technician() != "1234" {
		t.Errorf("unexpected assignment: %+v", a)
	}
	if a.Shift == nil || a.Shift.String() != "06:30-14:30" {
		t.Errorf("unexpected shift: %v", a.Shift)
	}
	// technician, activity, two days
	if len(a.Nodes) != 4 || a.Nodes[1].Value != "1122334455/10" {
		t.Errorf("unexpected members: %+v", a.Nodes)
	}

	first := domain.NewPeriod(domain.Date(2025, time.January, 13))
	resp, err = c.Assignments(ctx, first, false)
	if err != nil {
		t.Fatalf("Assignments() error = %v", err)
	}
	if len(resp.Assignments) != 0 {
		t.Errorf("expected no assignments, got %d", len(resp.Assignments))
	}
}

func TestClient_Capacity(t *testing.T) {
	c := NewClient(newDaemon(t).URL)

	capacity, err := c.Capacity(context.Background(), domain.NewPeriod(domain.Date(2025, time.January, 27)))
	if err != nil {
		t.Fatalf("Capacity() error = %v", err)
	}
	if capacity.TotalHours != 60 || capacity.SkillHours[domain.MtnElec] != 60 {
		t.Errorf("unexpected capacity: %+v", capacity)
	}
	if capacity.Locked {
		t.Errorf("period should not be locked")
	}
}

func TestClient_WorkOrder(t *testing.T) {
	c := NewClient(newDaemon(t).URL)

	wo, err := c.WorkOrder(context.Background(), 1122334455)
	if err != nil {
		t.Fatalf("WorkOrder() error = %v", err)
	}
	if len(wo.Activities) != 2 || wo.Activities[0].Skill != domain.MtnMech {
		t.Errorf("unexpected activities: %+v", wo.Activities)
	}
	if wo.Parameter == nil || wo.Parameter.Weight != 7 || wo.Parameter.LatestPeriod.String() != "2025-01-27" {
		t.Errorf("unexpected parameter: %+v", wo.Parameter)
	}
}

func TestClient_NotFound(t *testing.T) {
	c := NewClient(newDaemon(t).URL)

	_, err := c.Capacity(context.Background(), domain.NewPeriod(domain.Date(2031, time.June, 2)))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != "period_missing" {
		t.Errorf("expected period_missing, got %v", err)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	c.SetRetry(RetryPolicy{Retries: 2, Base: time.Millisecond, Max: time.Millisecond})

	if _, err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_period"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	c.SetRetry(RetryPolicy{Retries: 3, Base: time.Millisecond, Max: time.Millisecond})

	_, err := c.Summary(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 StatusError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
}

func TestClient_RetryGivesUp(t *testing.T) {
	tests := []struct {
		name     string
		policy   RetryPolicy
		min, max int32
	}{
		{"no retry", NoRetry, 1, 1},
		{"retry count", RetryPolicy{Retries: 2, Base: time.Millisecond, Max: time.Millisecond}, 3, 3},
		// each wait is 0.5ms to 1ms, so 3ms allows 3 to 6 retries
		{"wait budget", RetryPolicy{Retries: 50, Base: time.Millisecond, Max: time.Millisecond, Budget: 3 * time.Millisecond}, 4, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"internal_server_error"}`))
			}))
			defer server.Close()

			c := NewClient(server.URL)
			c.SetRetry(tt.policy)

			_, err := c.Ping(context.Background())
			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusInternalServerError {
				t.Fatalf("expected 500 StatusError, got %v", err)
			}
			if got := calls.Load(); got < tt.min || got > tt.max {
				t.Errorf("expected %d to %d calls, got %d", tt.min, tt.max, got)
			}
		})
	}
}
