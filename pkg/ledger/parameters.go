package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/graph"
)

var (
	ErrLockedPeriodMismatch = errors.New("ledger: work order is locked to another period")
	ErrExcludedPeriod       = errors.New("ledger: work order is excluded from period")
	ErrBeyondLatestPeriod   = errors.New("ledger: period is after the latest allowed period")
	ErrUnknownPeriod        = errors.New("ledger: unknown period")
	ErrUnknownWorkOrder     = errors.New("ledger: unknown work order")
)

// PeriodSet is a set of periods. It encodes as an ordered JSON array.
type PeriodSet map[domain.Period]struct{}

func NewPeriodSet(periods ...domain.Period) PeriodSet {
	s := make(PeriodSet, len(periods))
	for _, p := range periods {
		s[p] = struct{}{}
	}
	return s
}

func (s PeriodSet) Contains(p domain.Period) bool {
	_, ok := s[p]
	return ok
}

// Sorted lists the members in start order.
func (s PeriodSet) Sorted() []domain.Period {
	return slices.SortedFunc(maps.Keys(s), domain.Period.Compare)
}

func (s PeriodSet) MarshalJSON() ([]byte, error) {
	sorted := s.Sorted()
	if sorted == nil {
		sorted = []domain.Period{}
	}
	return json.Marshal(sorted)
}

func (s *PeriodSet) UnmarshalJSON(data []byte) error {
	var list []domain.Period
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewPeriodSet(list...)
	return nil
}

// WorkOrderParameter is the demand side of the ledger for one work order.
type WorkOrderParameter struct {
	LockedInPeriod  *domain.Period               `json:"locked_in_period,omitempty"`
	ExcludedPeriods PeriodSet                    `json:"excluded_periods"`
	LatestPeriod    domain.Period                `json:"latest_period"`
	Weight          int64                        `json:"weight"`
	WorkLoad        map[domain.Skill]domain.Work `json:"work_load"`
}

// NewWorkOrderParameter derives the workload from the activities of wo.
func NewWorkOrderParameter(wo *domain.WorkOrder, latest domain.Period, weight int64) WorkOrderParameter {
	return WorkOrderParameter{
		ExcludedPeriods: NewPeriodSet(),
		LatestPeriod:    latest,
		Weight:          weight,
		WorkLoad:        wo.WorkLoad(),
	}
}

// Admits reports why the work order may not be placed in period, or nil.
// A zero LatestPeriod means no deadline.
func (p WorkOrderParameter) Admits(period domain.Period) error {
	if p.LockedInPeriod != nil && *p.LockedInPeriod != period {
		return fmt.Errorf("%w: locked in %s, asked %s", ErrLockedPeriodMismatch, p.LockedInPeriod, period)
	}
	if p.ExcludedPeriods.Contains(period) {
		return fmt.Errorf("%w: %s", ErrExcludedPeriod, period)
	}
	if !p.LatestPeriod.IsZero() && p.LatestPeriod.Before(period) {
		return fmt.Errorf("%w: %s after %s", ErrBeyondLatestPeriod, period, p.LatestPeriod)
	}
	return nil
}

func (p WorkOrderParameter) clone() WorkOrderParameter {
	if p.LockedInPeriod != nil {
		locked := *p.LockedInPeriod
		p.LockedInPeriod = &locked
	}
	p.ExcludedPeriods = maps.Clone(p.ExcludedPeriods)
	if p.ExcludedPeriods == nil {
		p.ExcludedPeriods = NewPeriodSet()
	}
	p.WorkLoad = maps.Clone(p.WorkLoad)
	return p
}

// StrategicParameters aggregates the work order parameters, the capacity
// ledger, the locked periods and the ordered known periods.
type StrategicParameters struct {
	mu          sync.RWMutex
	workOrders  map[domain.WorkOrderNumber]WorkOrderParameter
	capacity    *StrategicResources
	periodLocks PeriodSet
	periods     []domain.Period
}

// NewStrategicParameters creates parameters over the given capacity ledger.
// A nil ledger gets an in-memory one.
func NewStrategicParameters(capacity *StrategicResources) *StrategicParameters {
	if capacity == nil {
		capacity = NewStrategicResources()
	}
	return &StrategicParameters{
		workOrders:  make(map[domain.WorkOrderNumber]WorkOrderParameter),
		capacity:    capacity,
		periodLocks: NewPeriodSet(),
	}
}

func (s *StrategicParameters) Capacity() *StrategicResources { return s.capacity }

// AddPeriod inserts p into the known periods, keeping them ordered and unique.
func (s *StrategicParameters) AddPeriod(p domain.Period) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, found := slices.BinarySearchFunc(s.periods, p, domain.Period.Compare)
	if !found {
		s.periods = slices.Insert(s.periods, pos, p)
	}
}

func (s *StrategicParameters) Periods() []domain.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.periods)
}

// LockPeriod freezes a known period against rescheduling.
func (s *StrategicParameters) LockPeriod(p domain.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := slices.BinarySearchFunc(s.periods, p, domain.Period.Compare); !found {
		return fmt.Errorf("%w: %s", ErrUnknownPeriod, p)
	}
	s.periodLocks[p] = struct{}{}
	LockedPeriods.Set(float64(len(s.periodLocks)))
	return nil
}

func (s *StrategicParameters) IsLocked(p domain.Period) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.periodLocks.Contains(p)
}

func (s *StrategicParameters) LockedPeriods() []domain.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.periodLocks.Sorted()
}

// SetWorkOrderParameter stores the parameter of a work order, replacing any earlier one.
func (s *StrategicParameters) SetWorkOrderParameter(number domain.WorkOrderNumber, param WorkOrderParameter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workOrders[number] = param.clone()
}

func (s *StrategicParameters) WorkOrderParameter(number domain.WorkOrderNumber) (WorkOrderParameter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.workOrders[number]
	if !ok {
		return WorkOrderParameter{}, false
	}
	return p.clone(), true
}

// WorkOrders lists the work orders with a parameter, in number order.
func (s *StrategicParameters) WorkOrders() []domain.WorkOrderNumber {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.workOrders))
}

// Admits checks a candidate period for a work order against its parameter.
func (s *StrategicParameters) Admits(number domain.WorkOrderNumber, p domain.Period) error {
	param, ok := s.WorkOrderParameter(number)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWorkOrder, number)
	}
	return param.Admits(p)
}

// SyncExclusions adds the Exclude edges of g to the excluded periods of every
// work order that has a parameter.
func (s *StrategicParameters) SyncExclusions(g *graph.ScheduleGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for number, param := range s.workOrders {
		excluded, err := g.ExcludedPeriods(number)
		if err != nil {
			return fmt.Errorf("sync exclusions of work order %d: %w", number, err)
		}
		if param.ExcludedPeriods == nil {
			param.ExcludedPeriods = NewPeriodSet()
		}
		for _, p := range excluded {
			param.ExcludedPeriods[p] = struct{}{}
		}
		s.workOrders[number] = param
	}
	return nil
}
