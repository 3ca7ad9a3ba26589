package ledger

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rmax-ai/schedgraph/pkg/domain"
)

var (
	ErrNegativeHours = errors.New("ledger: hours must not be negative")
	ErrInvalidSkill  = errors.New("ledger: skill hours for an unknown skill")
)

// OperationalResource is the capacity of one technician within one period.
type OperationalResource struct {
	ID         domain.TechnicianID          `json:"id"`
	TotalHours domain.Work                  `json:"total_hours"`
	SkillHours map[domain.Skill]domain.Work `json:"skill_hours"`
}

func (r OperationalResource) clone() OperationalResource {
	r.SkillHours = maps.Clone(r.SkillHours)
	if r.SkillHours == nil {
		r.SkillHours = make(map[domain.Skill]domain.Work)
	}
	return r
}

func (r OperationalResource) validate() error {
	if r.TotalHours < 0 {
		return fmt.Errorf("%w: technician %d total %v", ErrNegativeHours, r.ID, r.TotalHours)
	}
	for skill, hours := range r.SkillHours {
		if !skill.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidSkill, int(skill))
		}
		if hours < 0 {
			return fmt.Errorf("%w: technician %d %s %v", ErrNegativeHours, r.ID, skill, hours)
		}
	}
	return nil
}

// PeriodResource pairs a resource with the period it applies to.
type PeriodResource struct {
	Period   domain.Period       `json:"period"`
	Resource OperationalResource `json:"resource"`
}

// ResourceStore abstracts the storage of per-period technician capacity.
type ResourceStore interface {
	Get(period domain.Period, id domain.TechnicianID) (OperationalResource, bool)
	Set(period domain.Period, resource OperationalResource)
	GetAll() []PeriodResource
	Clear()
}

type resourceKey struct {
	period domain.Period
	id     domain.TechnicianID
}

// MemoryResourceStore implements ResourceStore with an in-memory map.
type MemoryResourceStore struct {
	resources map[resourceKey]OperationalResource
}

func NewMemoryResourceStore() *MemoryResourceStore {
	return &MemoryResourceStore{
		resources: make(map[resourceKey]OperationalResource),
	}
}

func (s *MemoryResourceStore) Get(period domain.Period, id domain.TechnicianID) (OperationalResource, bool) {
	r, ok := s.resources[resourceKey{period, id}]
	if !ok {
		return OperationalResource{}, false
	}
	return r.clone(), true
}

func (s *MemoryResourceStore) Set(period domain.Period, resource OperationalResource) {
	s.resources[resourceKey{period, resource.ID}] = resource.clone()
}

func (s *MemoryResourceStore) GetAll() []PeriodResource {
	list := make([]PeriodResource, 0, len(s.resources))
	for key, r := range s.resources {
		list = append(list, PeriodResource{Period: key.period, Resource: r.clone()})
	}
	return list
}

func (s *MemoryResourceStore) Clear() {
	s.resources = make(map[resourceKey]OperationalResource)
}

// StrategicResources is the supply side of the ledger: the hours each
// technician offers per period, overall and per skill. It only records
// capacity; consuming it is up to the scheduler.
type StrategicResources struct {
	mu    sync.RWMutex
	store ResourceStore
}

// NewStrategicResources creates an empty ledger with in-memory storage.
func NewStrategicResources() *StrategicResources {
	return NewStrategicResourcesWithStore(NewMemoryResourceStore())
}

// NewStrategicResourcesWithStore creates a ledger over a specific backing store.
func NewStrategicResourcesWithStore(store ResourceStore) *StrategicResources {
	return &StrategicResources{store: store}
}

// Set records the capacity of resource.ID in period, replacing any earlier value.
func (r *StrategicResources) Set(period domain.Period, resource OperationalResource) error {
	if err := resource.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.Set(period, resource)
	r.publishLocked(period)
	return nil
}

// Resource returns the capacity of one technician in one period.
func (r *StrategicResources) Resource(period domain.Period, id domain.TechnicianID) (OperationalResource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.store.Get(period, id)
}

// ForPeriod lists the resources of a period ordered by technician.
func (r *StrategicResources) ForPeriod(period domain.Period) []OperationalResource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.forPeriodLocked(period)
}

func (r *StrategicResources) forPeriodLocked(period domain.Period) []OperationalResource {
	var list []OperationalResource
	for _, pr := range r.store.GetAll() {
		if pr.Period == period {
			list = append(list, pr.Resource)
		}
	}
	slices.SortFunc(list, func(a, b OperationalResource) int { return cmp.Compare(a.ID, b.ID) })
	return list
}

// SkillHours sums the hours offered for skill in period.
func (r *StrategicResources) SkillHours(period domain.Period, skill domain.Skill) domain.Work {
	var total domain.Work
	for _, res := range r.ForPeriod(period) {
		total += res.SkillHours[skill]
	}
	return total
}

// TotalHours sums the total hours offered in period.
func (r *StrategicResources) TotalHours(period domain.Period) domain.Work {
	var total domain.Work
	for _, res := range r.ForPeriod(period) {
		total += res.TotalHours
	}
	return total
}

// Periods lists the periods with at least one resource, in start order.
func (r *StrategicResources) Periods() []domain.Period {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[domain.Period]struct{})
	for _, pr := range r.store.GetAll() {
		seen[pr.Period] = struct{}{}
	}
	return slices.SortedFunc(maps.Keys(seen), domain.Period.Compare)
}

// All returns every entry ordered by period, then technician.
func (r *StrategicResources) All() []PeriodResource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.store.GetAll()
	slices.SortFunc(all, func(a, b PeriodResource) int {
		if c := a.Period.Compare(b.Period); c != 0 {
			return c
		}
		return cmp.Compare(a.Resource.ID, b.Resource.ID)
	})
	return all
}

// LoadState replaces the ledger contents, as when restoring a snapshot.
func (r *StrategicResources) LoadState(entries []PeriodResource) error {
	for _, e := range entries {
		if err := e.Resource.validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, old := range r.store.GetAll() {
		unpublish(old.Period)
	}
	r.store.Clear()
	periods := make(map[domain.Period]struct{})
	for _, e := range entries {
		r.store.Set(e.Period, e.Resource)
		periods[e.Period] = struct{}{}
	}
	for p := range periods {
		r.publishLocked(p)
	}
	return nil
}

// unpublish drops the gauges of a period that no longer has capacity.
func unpublish(period domain.Period) {
	CapacityTotalHours.DeleteLabelValues(period.String())
	for _, skill := range domain.Skills() {
		CapacityHours.DeleteLabelValues(period.String(), skill.String())
	}
}

func (r *StrategicResources) publishLocked(period domain.Period) {
	var total domain.Work
	perSkill := make(map[domain.Skill]domain.Work)
	for _, res := range r.forPeriodLocked(period) {
		total += res.TotalHours
		for skill, hours := range res.SkillHours {
			perSkill[skill] += hours
		}
	}

	CapacityTotalHours.WithLabelValues(period.String()).Set(float64(total))
	for _, skill := range domain.Skills() {
		CapacityHours.WithLabelValues(period.String(), skill.String()).Set(float64(perSkill[skill]))
	}
}
