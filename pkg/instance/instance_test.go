package instance

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/graph"
	"github.com/rmax-ai/schedgraph/pkg/ledger"
)

var (
	jan13 = domain.NewPeriod(domain.Date(2025, time.January, 13))
	jan27 = domain.NewPeriod(domain.Date(2025, time.January, 27))
)

func TestLoadAndBuild(t *testing.T) {
	inst, err := Load("testdata/instance.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	res, err := Build(inst, BuildOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	g := res.Graph

	if got := g.Periods(); len(got) != 2 || got[0] != jan13 || got[1] != jan27 {
		t.Errorf("periods: got %v", got)
	}
	if got := g.WorkOrders(); len(got) != 2 {
		t.Errorf("work orders: got %v", got)
	}
	if got := g.Technicians(); len(got) != 2 || got[0] != 1234 {
		t.Errorf("technicians: got %v", got)
	}
	if g.Frozen() {
		t.Errorf("Build must not freeze the graph")
	}

	edges, err := g.IncidentEdges(graph.ActivityNode(1122334455, 30))
	if err != nil {
		t.Fatalf("IncidentEdges failed: %v", err)
	}
	var postpone bool
	for _, e := range edges {
		if e.Type == graph.EdgePostpone && e.Lag == 2*time.Hour {
			postpone = true
		}
	}
	if !postpone {
		t.Errorf("declared postpone relation missing: %+v", edges)
	}

	found, err := g.FindAllAssignmentsForPeriod(jan13)
	if err != nil {
		t.Fatalf("FindAllAssignmentsForPeriod failed: %v", err)
	}
	if len(found) != 3 {
		t.Errorf("expected 3 assignments in the first period, got %d", len(found))
	}
	next, _ := g.FindAllAssignmentsForPeriod(jan27)
	if len(next) != 0 {
		t.Errorf("expected no assignments in the second period, got %d", len(next))
	}

	params := res.Parameters
	if !params.IsLocked(jan13) || params.IsLocked(jan27) {
		t.Errorf("period locks not applied")
	}
	if err := params.Admits(1111990000, jan13); !errors.Is(err, ledger.ErrLockedPeriodMismatch) {
		t.Errorf("expected ErrLockedPeriodMismatch, got %v", err)
	}
	param, ok := params.WorkOrderParameter(1111990000)
	if !ok || !param.ExcludedPeriods.Contains(jan13) {
		t.Errorf("exclusion not synced into parameter: %+v", param)
	}
	param, _ = params.WorkOrderParameter(1122334455)
	if param.Weight != 5 || param.LatestPeriod != jan27 || param.WorkLoad[domain.MtnMech] != 14 {
		t.Errorf("parameter: %+v", param)
	}

	capacity := params.Capacity()
	if got := capacity.TotalHours(jan13); got != 105 {
		t.Errorf("TotalHours: got %v, want 105", got)
	}
	if got := capacity.SkillHours(jan27, domain.MtnMech); got != 70 {
		t.Errorf("SkillHours: got %v, want 70", got)
	}

	if res.WorkOrders[1122334455] == nil {
		t.Errorf("built work orders not returned")
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"skills": [], "colour": "blue"}`))
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestParse_RejectsUnknownSkill(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"skills": ["PLUMBING"]}`))
	if !errors.Is(err, domain.ErrUnknownSkill) {
		t.Fatalf("expected ErrUnknownSkill, got %v", err)
	}
}

func TestBuild_Failures(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "work order before its period",
			doc:     `{"skills": ["MTN-MECH"], "work_orders": [{"number": 1122334455, "basic_start": "2025-01-13", "activities": [{"number": 10, "skill": "MTN-MECH"}]}]}`,
			wantErr: graph.ErrDayMissing,
		},
		{
			name:    "skill not registered",
			doc:     `{"periods": ["2025-01-13"], "work_orders": [{"number": 1122334455, "basic_start": "2025-01-13", "activities": [{"number": 10, "skill": "MTN-MECH"}]}]}`,
			wantErr: graph.ErrWorkOrderActivityMissingSkills,
		},
		{
			name:    "short work order number",
			doc:     `{"periods": ["2025-01-13"], "work_orders": [{"number": 112233, "basic_start": "2025-01-13", "activities": []}]}`,
			wantErr: domain.ErrInvalidWorkOrderNumber,
		},
		{
			name:    "duplicate period",
			doc:     `{"periods": ["2025-01-13", "2025-01-13"]}`,
			wantErr: graph.ErrPeriodDuplicate,
		},
		{
			name:    "assignment to unknown technician",
			doc:     `{"periods": ["2025-01-13"], "work_orders": [{"number": 1122334455, "basic_start": "2025-01-13", "activities": []}], "assignments": [{"technician": 1, "work_order": 1122334455, "period": "2025-01-13"}]}`,
			wantErr: graph.ErrWorkerMissing,
		},
		{
			name:    "capacity for unknown period",
			doc:     `{"skills": ["MTN-MECH"], "periods": ["2025-01-13"], "technicians": [{"id": 1, "skills": ["MTN-MECH"]}], "capacity": [{"period": "2025-01-27", "technician": 1, "total_hours": 10}]}`,
			wantErr: graph.ErrPeriodMissing,
		},
		{
			name:    "negative capacity",
			doc:     `{"periods": ["2025-01-13"], "technicians": [{"id": 1, "skills": []}], "capacity": [{"period": "2025-01-13", "technician": 1, "total_hours": -1}]}`,
			wantErr: ledger.ErrNegativeHours,
		},
		{
			name:    "lock on unknown period",
			doc:     `{"periods": ["2025-01-13"], "period_locks": ["2025-01-27"]}`,
			wantErr: ledger.ErrUnknownPeriod,
		},
		{
			name:    "night shift for unknown technician",
			doc:     `{"skills": ["MTN-MECH"], "periods": ["2025-01-13"], "work_orders": [{"number": 1122334455, "basic_start": "2025-01-13", "activities": [{"number": 10, "skill": "MTN-MECH"}]}], "technicians": [{"id": 1, "skills": ["MTN-MECH"]}], "activity_assignments": [{"technician": 2, "work_order": 1122334455, "activity": 10, "days": ["2025-01-14"], "start": "22:00", "finish": "06:00"}]}`,
			wantErr: graph.ErrWorkerMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := Parse(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if _, err := Build(inst, BuildOptions{}); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
