package graph

import (
	"fmt"
	"slices"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
)

// AddAssignmentWorkOrder assigns a technician to a work order for a period.
func (g *ScheduleGraph) AddAssignmentWorkOrder(tech domain.TechnicianID, wo domain.WorkOrderNumber, p domain.Period) (id EdgeID, err error) {
	defer countRejection("add_assignment_work_order", &err)
	if err := g.checkMutable(); err != nil {
		return 0, err
	}

	techIdx, ok := g.technicians[tech]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrWorkerMissing, tech)
	}
	woIdx, ok := g.workOrders[wo]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrWorkOrderMissing, wo)
	}
	periodIdx, ok := g.periods[p]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPeriodMissing, p)
	}

	return g.addEdge(hyperEdge{edgeType: EdgeAssign, nodes: []nodeIndex{techIdx, woIdx, periodIdx}}), nil
}

// AddAssignmentActivity assigns a technician to one activity of a work order
// on the given days during shift. The edge spans the technician, the activity
// and each distinct day in ascending order. A shift finishing at or before its
// start runs overnight.
func (g *ScheduleGraph) AddAssignmentActivity(tech domain.TechnicianID, wo domain.WorkOrderNumber, activity domain.ActivityNumber, days []time.Time, shift domain.Shift) (id EdgeID, err error) {
	defer countRejection("add_assignment_activity", &err)
	if err := g.checkMutable(); err != nil {
		return 0, err
	}
	techIdx, ok := g.technicians[tech]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrWorkerMissing, tech)
	}
	woIdx, ok := g.workOrders[wo]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrWorkOrderMissing, wo)
	}
	activityIdx, ok := g.activityOf(woIdx, activity)
	if !ok {
		return 0, fmt.Errorf("%w: %d/%d", ErrActivityMissing, wo, activity)
	}
	if _, err := domain.NewShift(shift.Start, shift.Finish); err != nil {
		return 0, err
	}

	normalized := make([]time.Time, len(days))
	for i, d := range days {
		normalized[i] = domain.DateOf(d)
	}
	slices.SortFunc(normalized, time.Time.Compare)
	normalized = slices.Compact(normalized)

	nodes := make([]nodeIndex, 0, 2+len(normalized))
	nodes = append(nodes, techIdx, activityIdx)
	for _, d := range normalized {
		dayIdx, err := g.dayIndex(d)
		if err != nil {
			return 0, err
		}
		nodes = append(nodes, dayIdx)
	}

	return g.addEdge(hyperEdge{edgeType: EdgeAssign, shift: &shift, nodes: nodes}), nil
}

// AddAssignSkillToWorker links a registered technician to a registered skill.
// Repeated links are allowed and each gets its own edge.
func (g *ScheduleGraph) AddAssignSkillToWorker(tech domain.TechnicianID, skill domain.Skill) (id EdgeID, err error) {
	defer countRejection("add_assign_skill_to_worker", &err)
	if err := g.checkMutable(); err != nil {
		return 0, err
	}

	techIdx, ok := g.technicians[tech]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrWorkerMissing, tech)
	}
	skillIdx, ok := g.skills[skill]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSkillMissing, skill)
	}

	return g.addEdge(hyperEdge{edgeType: EdgeHasSkill, nodes: []nodeIndex{techIdx, skillIdx}}), nil
}

// AddExclusion records that a work order must not be scheduled in a period.
func (g *ScheduleGraph) AddExclusion(wo domain.WorkOrderNumber, p domain.Period) (id EdgeID, err error) {
	defer countRejection("add_exclusion", &err)
	if err := g.checkMutable(); err != nil {
		return 0, err
	}

	woIdx, ok := g.workOrders[wo]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrWorkOrderMissing, wo)
	}
	periodIdx, ok := g.periods[p]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPeriodMissing, p)
	}

	return g.addEdge(hyperEdge{edgeType: EdgeExclude, nodes: []nodeIndex{woIdx, periodIdx}}), nil
}

// RetractAssignment marks an Assign edge as superseded. The edge stays in the
// arena and in FindAllAssignmentsForPeriod results; ActiveAssignmentsForPeriod
// skips it. Retracting an already retracted edge is a no-op.
func (g *ScheduleGraph) RetractAssignment(id EdgeID) (err error) {
	defer countRejection("retract_assignment", &err)
	if err := g.checkMutable(); err != nil {
		return err
	}
	if int(id) < 0 || int(id) >= len(g.edges) {
		return fmt.Errorf("%w: %d", ErrEdgeMissing, id)
	}
	if t := g.edges[id].edgeType; t != EdgeAssign {
		return fmt.Errorf("%w: edge %d is %s", ErrNotAssignment, id, t)
	}

	g.retracted[id] = struct{}{}
	g.logger.Debug("assignment_retracted", "id", int(id))
	return nil
}
