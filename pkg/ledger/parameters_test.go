package ledger_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/graph"
	"github.com/rmax-ai/schedgraph/pkg/ledger"
)

func testWorkOrder(t *testing.T) *domain.WorkOrder {
	t.Helper()
	wo, err := domain.NewWorkOrder(1122334455, domain.Date(2025, time.January, 13), []domain.Activity{
		domain.NewActivity(10, domain.MtnMech).WithWork(8),
		domain.NewActivity(20, domain.MtnElec).WithWork(4),
		domain.NewActivity(30, domain.MtnMech).WithWork(2),
	})
	if err != nil {
		t.Fatalf("NewWorkOrder failed: %v", err)
	}
	return wo
}

func TestWorkOrderParameter_Admits(t *testing.T) {
	p1 := jan13
	p2 := p1.Next()
	p3 := p2.Next()

	locked := p2
	tests := []struct {
		name    string
		param   ledger.WorkOrderParameter
		period  domain.Period
		wantErr error
	}{
		{
			name:   "unconstrained",
			param:  ledger.WorkOrderParameter{},
			period: p3,
		},
		{
			name:    "locked elsewhere",
			param:   ledger.WorkOrderParameter{LockedInPeriod: &locked},
			period:  p1,
			wantErr: ledger.ErrLockedPeriodMismatch,
		},
		{
			name:   "locked here",
			param:  ledger.WorkOrderParameter{LockedInPeriod: &locked, LatestPeriod: p3},
			period: p2,
		},
		{
			name:    "excluded",
			param:   ledger.WorkOrderParameter{ExcludedPeriods: ledger.NewPeriodSet(p1)},
			period:  p1,
			wantErr: ledger.ErrExcludedPeriod,
		},
		{
			name:    "after deadline",
			param:   ledger.WorkOrderParameter{LatestPeriod: p2},
			period:  p3,
			wantErr: ledger.ErrBeyondLatestPeriod,
		},
		{
			name:   "at deadline",
			param:  ledger.WorkOrderParameter{LatestPeriod: p2},
			period: p2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.param.Admits(tt.period)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewWorkOrderParameter(t *testing.T) {
	param := ledger.NewWorkOrderParameter(testWorkOrder(t), jan13.Next(), 5)

	if param.WorkLoad[domain.MtnMech] != 10 || param.WorkLoad[domain.MtnElec] != 4 {
		t.Errorf("work load: got %v", param.WorkLoad)
	}
	if param.Weight != 5 || param.LatestPeriod != jan13.Next() {
		t.Errorf("unexpected parameter: %+v", param)
	}
	if param.LockedInPeriod != nil || len(param.ExcludedPeriods) != 0 {
		t.Errorf("new parameter must be unconstrained: %+v", param)
	}
}

func TestWorkOrderParameter_JSON(t *testing.T) {
	locked := jan13
	param := ledger.WorkOrderParameter{
		LockedInPeriod:  &locked,
		ExcludedPeriods: ledger.NewPeriodSet(jan13.Next().Next(), jan13.Next()),
		LatestPeriod:    jan13.Next().Next(),
		Weight:          3,
		WorkLoad:        map[domain.Skill]domain.Work{domain.MtnMech: 10},
	}

	data, err := json.Marshal(param)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"locked_in_period":"2025-01-13","excluded_periods":["2025-01-27","2025-02-10"],"latest_period":"2025-02-10","weight":3,"work_load":{"MTN-MECH":10}}`
	if string(data) != want {
		t.Errorf("encoding:\n got %s\nwant %s", data, want)
	}

	var decoded ledger.WorkOrderParameter
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.ExcludedPeriods.Contains(jan13.Next()) || decoded.WorkLoad[domain.MtnMech] != 10 {
		t.Errorf("decoded: %+v", decoded)
	}
}

func TestStrategicParameters_Periods(t *testing.T) {
	params := ledger.NewStrategicParameters(nil)

	params.AddPeriod(jan13.Next())
	params.AddPeriod(jan13)
	params.AddPeriod(jan13.Next())

	periods := params.Periods()
	if len(periods) != 2 || periods[0] != jan13 || periods[1] != jan13.Next() {
		t.Fatalf("Periods: got %v", periods)
	}

	if err := params.LockPeriod(jan13.Next().Next()); !errors.Is(err, ledger.ErrUnknownPeriod) {
		t.Errorf("expected ErrUnknownPeriod, got %v", err)
	}
	if err := params.LockPeriod(jan13); err != nil {
		t.Fatalf("LockPeriod failed: %v", err)
	}
	if !params.IsLocked(jan13) || params.IsLocked(jan13.Next()) {
		t.Errorf("lock state wrong")
	}
	if locks := params.LockedPeriods(); len(locks) != 1 || locks[0] != jan13 {
		t.Errorf("LockedPeriods: got %v", locks)
	}
}

func TestStrategicParameters_WorkOrders(t *testing.T) {
	params := ledger.NewStrategicParameters(nil)
	wo := testWorkOrder(t)
	params.SetWorkOrderParameter(wo.Number(), ledger.NewWorkOrderParameter(wo, jan13, 1))

	if err := params.Admits(wo.Number(), jan13.Next()); !errors.Is(err, ledger.ErrBeyondLatestPeriod) {
		t.Errorf("expected ErrBeyondLatestPeriod, got %v", err)
	}
	if err := params.Admits(9999999999, jan13); !errors.Is(err, ledger.ErrUnknownWorkOrder) {
		t.Errorf("expected ErrUnknownWorkOrder, got %v", err)
	}

	got, _ := params.WorkOrderParameter(wo.Number())
	got.WorkLoad[domain.MtnMech] = 0
	again, _ := params.WorkOrderParameter(wo.Number())
	if again.WorkLoad[domain.MtnMech] != 10 {
		t.Errorf("parameters share work load with callers")
	}

	if numbers := params.WorkOrders(); len(numbers) != 1 || numbers[0] != wo.Number() {
		t.Errorf("WorkOrders: got %v", numbers)
	}
}

func TestStrategicParameters_SyncExclusions(t *testing.T) {
	g := graph.New()
	for _, s := range []domain.Skill{domain.MtnMech, domain.MtnElec} {
		if err := g.AddSkill(s); err != nil {
			t.Fatalf("AddSkill failed: %v", err)
		}
	}
	for _, p := range []domain.Period{jan13, jan13.Next()} {
		if err := g.AddPeriod(p); err != nil {
			t.Fatalf("AddPeriod failed: %v", err)
		}
	}
	wo := testWorkOrder(t)
	if err := g.AddWorkOrder(wo); err != nil {
		t.Fatalf("AddWorkOrder failed: %v", err)
	}
	if _, err := g.AddExclusion(wo.Number(), jan13.Next()); err != nil {
		t.Fatalf("AddExclusion failed: %v", err)
	}

	params := ledger.NewStrategicParameters(nil)
	params.SetWorkOrderParameter(wo.Number(), ledger.NewWorkOrderParameter(wo, jan13.Next(), 1))
	if err := params.SyncExclusions(g); err != nil {
		t.Fatalf("SyncExclusions failed: %v", err)
	}

	if err := params.Admits(wo.Number(), jan13.Next()); !errors.Is(err, ledger.ErrExcludedPeriod) {
		t.Errorf("expected ErrExcludedPeriod, got %v", err)
	}
	if err := params.Admits(wo.Number(), jan13); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	params.SetWorkOrderParameter(4444444444, ledger.WorkOrderParameter{})
	if err := params.SyncExclusions(g); !errors.Is(err, graph.ErrWorkOrderMissing) {
		t.Errorf("expected ErrWorkOrderMissing, got %v", err)
	}
}
