package graph

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
)

// FindAllAssignmentsForPeriod returns every Assign edge touching the period
// node itself or any of its 14 day nodes, once per edge and in insertion
// order. Retracted assignments are included.
func (g *ScheduleGraph) FindAllAssignmentsForPeriod(p domain.Period) ([]Edge, error) {
	return g.assignmentsForPeriod(p, true)
}

// ActiveAssignmentsForPeriod is FindAllAssignmentsForPeriod without retracted
// assignments.
func (g *ScheduleGraph) ActiveAssignmentsForPeriod(p domain.Period) ([]Edge, error) {
	return g.assignmentsForPeriod(p, false)
}

func (g *ScheduleGraph) assignmentsForPeriod(p domain.Period, includeRetracted bool) ([]Edge, error) {
	periodIdx, ok := g.periods[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPeriodMissing, p)
	}

	members := []nodeIndex{periodIdx}
	for _, day := range p.Days() {
		if idx, ok := g.days[day]; ok {
			members = append(members, idx)
		}
	}

	seen := make(map[EdgeID]struct{})
	for _, n := range members {
		for _, id := range g.incidence[n] {
			if g.edges[id].edgeType != EdgeAssign {
				continue
			}
			if _, gone := g.retracted[id]; gone && !includeRetracted {
				continue
			}
			seen[id] = struct{}{}
		}
	}

	ids := slices.Sorted(maps.Keys(seen))
	result := make([]Edge, 0, len(ids))
	for _, id := range ids {
		result = append(result, g.edgeView(id))
	}
	return result, nil
}

// Edge returns the hyperedge with the given id.
func (g *ScheduleGraph) Edge(id EdgeID) (Edge, error) {
	if int(id) < 0 || int(id) >= len(g.edges) {
		return Edge{}, fmt.Errorf("%w: %d", ErrEdgeMissing, id)
	}
	return g.edgeView(id), nil
}

// IncidentEdges returns the edges touching n in insertion order.
func (g *ScheduleGraph) IncidentEdges(n Node) ([]Edge, error) {
	idx, err := g.lookup(n)
	if err != nil {
		return nil, err
	}
	result := make([]Edge, 0, len(g.incidence[idx]))
	for _, id := range g.incidence[idx] {
		result = append(result, g.edgeView(id))
	}
	return result, nil
}

// Nodes lists all nodes in arena order.
func (g *ScheduleGraph) Nodes() []Node { return slices.Clone(g.nodes) }

func (g *ScheduleGraph) NodeCount() int { return len(g.nodes) }

func (g *ScheduleGraph) EdgeCount() int { return len(g.edges) }

// Summary counts nodes and edges by kind.
func (g *ScheduleGraph) Summary() Summary {
	s := Summary{
		Nodes:       len(g.nodes),
		Edges:       len(g.edges),
		NodesByKind: make(map[NodeKind]int),
		EdgesByType: make(map[EdgeType]int),
		Retracted:   len(g.retracted),
		Frozen:      g.frozen,
	}
	for _, n := range g.nodes {
		s.NodesByKind[n.Kind]++
	}
	for _, e := range g.edges {
		s.EdgesByType[e.edgeType]++
	}
	return s
}

// Periods lists registered periods in start order.
func (g *ScheduleGraph) Periods() []domain.Period {
	return slices.SortedFunc(maps.Keys(g.periods), domain.Period.Compare)
}

// Days lists registered days in calendar order.
func (g *ScheduleGraph) Days() []time.Time { return slices.Clone(g.dayOrder) }

// DaysIn lists the registered days of a registered period.
func (g *ScheduleGraph) DaysIn(p domain.Period) ([]time.Time, error) {
	if _, ok := g.periods[p]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrPeriodMissing, p)
	}
	lo, _ := slices.BinarySearchFunc(g.dayOrder, p.Start(), time.Time.Compare)
	hi, _ := slices.BinarySearchFunc(g.dayOrder, p.Finish().AddDate(0, 0, 1), time.Time.Compare)
	return slices.Clone(g.dayOrder[lo:hi]), nil
}

// PeriodOf returns the registered period whose window contains day.
func (g *ScheduleGraph) PeriodOf(day time.Time) (domain.Period, bool) {
	day = domain.DateOf(day)
	for p := range g.periods {
		if p.Contains(day) {
			return p, true
		}
	}
	return domain.Period{}, false
}

func (g *ScheduleGraph) WorkOrders() []domain.WorkOrderNumber {
	return slices.Sorted(maps.Keys(g.workOrders))
}

func (g *ScheduleGraph) Technicians() []domain.TechnicianID {
	return slices.Sorted(maps.Keys(g.technicians))
}

func (g *ScheduleGraph) Skills() []domain.Skill {
	return slices.Sorted(maps.Keys(g.skills))
}

// Activities lists the activity numbers of a work order in activity order.
func (g *ScheduleGraph) Activities(wo domain.WorkOrderNumber) ([]domain.ActivityNumber, error) {
	woIdx, ok := g.workOrders[wo]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrWorkOrderMissing, wo)
	}
	var result []domain.ActivityNumber
	for _, id := range g.incidence[woIdx] {
		if e := g.edges[id]; e.edgeType == EdgeContains {
			result = append(result, g.nodes[e.nodes[1]].Activity)
		}
	}
	return result, nil
}

// ActivitySkill returns the skill an activity requires.
func (g *ScheduleGraph) ActivitySkill(wo domain.WorkOrderNumber, activity domain.ActivityNumber) (domain.Skill, error) {
	idx, err := g.lookup(ActivityNode(wo, activity))
	if err != nil {
		return 0, err
	}
	for _, id := range g.incidence[idx] {
		if e := g.edges[id]; e.edgeType == EdgeRequires {
			return g.nodes[e.nodes[1]].Skill, nil
		}
	}
	panic(fmt.Sprintf("graph: activity %d/%d has no requires edge", wo, activity))
}

// ExcludedPeriods lists the periods a work order is excluded from, in start
// order and without repeats.
func (g *ScheduleGraph) ExcludedPeriods(wo domain.WorkOrderNumber) ([]domain.Period, error) {
	woIdx, ok := g.workOrders[wo]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrWorkOrderMissing, wo)
	}
	var result []domain.Period
	for _, id := range g.incidence[woIdx] {
		if e := g.edges[id]; e.edgeType == EdgeExclude {
			result = append(result, g.nodes[e.nodes[1]].Period)
		}
	}
	slices.SortFunc(result, domain.Period.Compare)
	return slices.Compact(result), nil
}

// SkillsOf lists the distinct skills linked to a technician.
func (g *ScheduleGraph) SkillsOf(tech domain.TechnicianID) ([]domain.Skill, error) {
	techIdx, ok := g.technicians[tech]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrWorkerMissing, tech)
	}
	var result []domain.Skill
	for _, id := range g.incidence[techIdx] {
		if e := g.edges[id]; e.edgeType == EdgeHasSkill {
			result = append(result, g.nodes[e.nodes[1]].Skill)
		}
	}
	slices.Sort(result)
	return slices.Compact(result), nil
}

// BasicStart returns the day a work order is anchored to.
func (g *ScheduleGraph) BasicStart(wo domain.WorkOrderNumber) (time.Time, error) {
	woIdx, ok := g.workOrders[wo]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %d", ErrWorkOrderMissing, wo)
	}
	for _, id := range g.incidence[woIdx] {
		if e := g.edges[id]; e.edgeType == EdgeBasicStart {
			return g.nodes[e.nodes[1]].Day, nil
		}
	}
	panic(fmt.Sprintf("graph: work order %d has no basic start edge", wo))
}

func (g *ScheduleGraph) HasTechnician(id domain.TechnicianID) bool {
	_, ok := g.technicians[id]
	return ok
}

func (g *ScheduleGraph) HasWorkOrder(number domain.WorkOrderNumber) bool {
	_, ok := g.workOrders[number]
	return ok
}

func (g *ScheduleGraph) HasPeriod(p domain.Period) bool {
	_, ok := g.periods[p]
	return ok
}

func (g *ScheduleGraph) HasSkill(s domain.Skill) bool {
	_, ok := g.skills[s]
	return ok
}

func (g *ScheduleGraph) HasDay(day time.Time) bool {
	_, ok := g.days[domain.DateOf(day)]
	return ok
}
