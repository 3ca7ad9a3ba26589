package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewWorkOrder_Validation(t *testing.T) {
	start := Date(2025, time.January, 13)

	tests := []struct {
		name       string
		number     WorkOrderNumber
		activities []Activity
		opts       []WorkOrderOption
		wantErr    error
	}{
		{
			name:   "valid",
			number: 1122334455,
			activities: []Activity{
				NewActivity(10, MtnMech),
				NewActivity(20, MtnMech),
				NewActivity(30, MtnElec),
			},
		},
		{
			name:   "no activities",
			number: 1111990000,
		},
		{
			name:    "nine digits",
			number:  112233445,
			wantErr: ErrInvalidWorkOrderNumber,
		},
		{
			name:    "eleven digits",
			number:  11223344556,
			wantErr: ErrInvalidWorkOrderNumber,
		},
		{
			name:   "descending activities",
			number: 1122334455,
			activities: []Activity{
				NewActivity(20, MtnMech),
				NewActivity(10, MtnMech),
			},
			wantErr: ErrNonSortedActivities,
		},
		{
			name:   "duplicate activity number",
			number: 1122334455,
			activities: []Activity{
				NewActivity(10, MtnMech),
				NewActivity(10, MtnElec),
			},
			wantErr: ErrDuplicatedActivities,
		},
		{
			name:   "unsorted with repeat is reported as unsorted",
			number: 1122334455,
			activities: []Activity{
				NewActivity(10, MtnMech),
				NewActivity(20, MtnMech),
				NewActivity(10, MtnMech),
			},
			wantErr: ErrNonSortedActivities,
		},
		{
			name:   "relation count mismatch",
			number: 1122334455,
			activities: []Activity{
				NewActivity(10, MtnMech),
				NewActivity(20, MtnMech),
			},
			opts:    []WorkOrderOption{WithRelations(StartStart(), FinishStart())},
			wantErr: ErrRelationCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wo, err := NewWorkOrder(tt.number, start, tt.activities, tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if wo != nil {
					t.Errorf("expected nil work order on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if wo.Number() != tt.number {
				t.Errorf("number: got %d, want %d", wo.Number(), tt.number)
			}
		})
	}
}

func TestNewWorkOrder_DistinctFailureKinds(t *testing.T) {
	kinds := []error{ErrInvalidWorkOrderNumber, ErrNonSortedActivities, ErrDuplicatedActivities}
	for i := range kinds {
		for j := range kinds {
			if i != j && errors.Is(kinds[i], kinds[j]) {
				t.Errorf("%v must not match %v", kinds[i], kinds[j])
			}
		}
	}
}

func TestNewWorkOrder_DefaultRelations(t *testing.T) {
	wo, err := NewWorkOrder(1122334455, Date(2025, time.January, 13), []Activity{
		NewActivity(10, MtnMech),
		NewActivity(20, MtnMech),
		NewActivity(30, MtnMech),
	})
	if err != nil {
		t.Fatalf("NewWorkOrder failed: %v", err)
	}

	relations := wo.Relations()
	if len(relations) != 2 {
		t.Fatalf("expected 2 relations, got %d", len(relations))
	}
	for i, r := range relations {
		if r != FinishStart() {
			t.Errorf("relation %d: got %s, want finish_start", i, r)
		}
	}
}

func TestNewWorkOrder_CustomRelations(t *testing.T) {
	wo, err := NewWorkOrder(1122334455, Date(2025, time.January, 13), []Activity{
		NewActivity(10, MtnMech),
		NewActivity(20, MtnElec),
		NewActivity(30, MtnMech),
	}, WithRelations(StartStart(), Postpone(4*time.Hour)))
	if err != nil {
		t.Fatalf("NewWorkOrder failed: %v", err)
	}

	relations := wo.Relations()
	if relations[0].Kind != RelationStartStart {
		t.Errorf("expected start_start, got %s", relations[0])
	}
	if relations[1].Kind != RelationPostpone || relations[1].Lag != 4*time.Hour {
		t.Errorf("expected postpone:4h, got %s", relations[1])
	}
}

func TestNewWorkOrder_NormalizesBasicStart(t *testing.T) {
	wo, err := NewWorkOrder(1122334455, time.Date(2025, 1, 13, 15, 30, 0, 0, time.UTC), nil)
	if err != nil {
		t.Fatalf("NewWorkOrder failed: %v", err)
	}
	if !wo.BasicStart().Equal(Date(2025, time.January, 13)) {
		t.Errorf("basic start not normalized: %v", wo.BasicStart())
	}
}

func TestWorkOrder_WorkLoad(t *testing.T) {
	wo, err := NewWorkOrder(1122334455, Date(2025, time.January, 13), []Activity{
		NewActivity(10, MtnMech).WithWork(4),
		NewActivity(20, MtnElec).WithWork(2.5),
		NewActivity(30, MtnMech).WithWork(6),
	})
	if err != nil {
		t.Fatalf("NewWorkOrder failed: %v", err)
	}

	load := wo.WorkLoad()
	if load[MtnMech] != 10 {
		t.Errorf("MtnMech: got %v, want 10", load[MtnMech])
	}
	if load[MtnElec] != 2.5 {
		t.Errorf("MtnElec: got %v, want 2.5", load[MtnElec])
	}
}

func TestWorkOrder_ActivitiesAreCopied(t *testing.T) {
	activities := []Activity{NewActivity(10, MtnMech)}
	wo, err := NewWorkOrder(1122334455, Date(2025, time.January, 13), activities)
	if err != nil {
		t.Fatalf("NewWorkOrder failed: %v", err)
	}

	activities[0] = NewActivity(99, MtnElec)
	if wo.Activities()[0].Number() != 10 {
		t.Errorf("work order shares the caller's slice")
	}
}

func TestParseActivityRelation(t *testing.T) {
	tests := []struct {
		raw     string
		want    ActivityRelation
		wantErr bool
	}{
		{raw: "finish_start", want: FinishStart()},
		{raw: "start_start", want: StartStart()},
		{raw: "postpone:90m", want: Postpone(90 * time.Minute)},
		{raw: "postpone", wantErr: true},
		{raw: "postpone:-1h", wantErr: true},
		{raw: "finish_start:1h", wantErr: true},
		{raw: "start_finish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseActivityRelation(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownRelation) {
					t.Fatalf("expected ErrUnknownRelation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
