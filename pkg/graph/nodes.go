package graph

import (
	"fmt"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
)

// AddSkill registers a skill node. Skills must exist before work orders or
// technicians refer to them.
func (g *ScheduleGraph) AddSkill(skill domain.Skill) (err error) {
	defer countRejection("add_skill", &err)
	if err := g.checkMutable(); err != nil {
		return err
	}
	if _, ok := g.skills[skill]; ok {
		return fmt.Errorf("%w: %s", ErrSkillDuplicate, skill)
	}
	g.addNode(SkillNode(skill))
	return nil
}

// AddPeriod registers the 14 day nodes of p followed by the period node.
// A period whose window shares a day with a registered period is rejected;
// on any failure the graph is left untouched.
func (g *ScheduleGraph) AddPeriod(p domain.Period) (err error) {
	defer countRejection("add_period", &err)
	if err := g.checkMutable(); err != nil {
		return err
	}
	if _, ok := g.periods[p]; ok {
		return fmt.Errorf("%w: %s", ErrPeriodDuplicate, p)
	}
	for _, day := range p.Days() {
		if _, ok := g.days[day]; ok {
			return fmt.Errorf("%w: %s shares %s", ErrPeriodOverlap, p, domain.FormatDate(day))
		}
	}

	for _, day := range p.Days() {
		g.addNode(DayNode(day))
	}
	g.addNode(PeriodNode(p))
	g.logger.Debug("period_added", "period", p.String())
	return nil
}

// AddWorkOrder registers a work order with its activities. Every activity
// skill must be registered and the basic start day must exist. The work order
// is linked to its basic start day, each activity is contained and linked to
// its skill, and adjacent activities are linked by their declared relation.
func (g *ScheduleGraph) AddWorkOrder(wo *domain.WorkOrder) (err error) {
	defer countRejection("add_work_order", &err)
	if err := g.checkMutable(); err != nil {
		return err
	}
	if wo == nil {
		return ErrNilWorkOrder
	}

	activities := wo.Activities()
	for _, a := range activities {
		if _, ok := g.skills[a.Skill()]; !ok {
			return fmt.Errorf("%w: work order %d activity %d needs %s",
				ErrWorkOrderActivityMissingSkills, wo.Number(), a.Number(), a.Skill())
		}
	}
	startDay, ok := g.days[wo.BasicStart()]
	if !ok {
		return fmt.Errorf("%w: basic start %s of work order %d",
			ErrDayMissing, domain.FormatDate(wo.BasicStart()), wo.Number())
	}
	if _, ok := g.workOrders[wo.Number()]; ok {
		return fmt.Errorf("%w: %d", ErrWorkOrderDuplicate, wo.Number())
	}

	woIdx := g.addNode(WorkOrderNode(wo.Number()))
	g.addEdge(hyperEdge{edgeType: EdgeBasicStart, nodes: []nodeIndex{woIdx, startDay}})

	activityIdx := make([]nodeIndex, len(activities))
	for i, a := range activities {
		activityIdx[i] = g.addNode(ActivityNode(wo.Number(), a.Number()))
		g.addEdge(hyperEdge{edgeType: EdgeContains, nodes: []nodeIndex{woIdx, activityIdx[i]}})
		g.addEdge(hyperEdge{edgeType: EdgeRequires, nodes: []nodeIndex{activityIdx[i], g.skills[a.Skill()]}})
	}

	for i, rel := range wo.Relations() {
		e := hyperEdge{nodes: []nodeIndex{activityIdx[i], activityIdx[i+1]}}
		switch rel.Kind {
		case domain.RelationStartStart:
			e.edgeType = EdgeStartStart
		case domain.RelationPostpone:
			e.edgeType = EdgePostpone
			e.lag = rel.Lag
		default:
			e.edgeType = EdgeFinishStart
		}
		g.addEdge(e)
	}

	g.logger.Debug("work_order_added", "work_order", uint64(wo.Number()), "activities", len(activities))
	return nil
}

// AddTechnician registers a technician, links each of its skills and links
// each availability interval to the day nodes of its start and finish. All
// skills and endpoint days must already be registered.
func (g *ScheduleGraph) AddTechnician(t *domain.Technician) (err error) {
	defer countRejection("add_technician", &err)
	if err := g.checkMutable(); err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("%w: nil technician", ErrWorkerMissing)
	}
	if _, ok := g.technicians[t.ID()]; ok {
		return fmt.Errorf("%w: %d", ErrWorkerDuplicate, t.ID())
	}

	skills := t.Skills()
	for _, s := range skills {
		if _, ok := g.skills[s]; !ok {
			return fmt.Errorf("%w: %s for technician %d", ErrSkillMissing, s, t.ID())
		}
	}

	type span struct{ start, finish nodeIndex }
	availabilities := t.Availabilities()
	spans := make([]span, 0, len(availabilities))
	for _, a := range availabilities {
		start, err := g.dayIndex(a.Start)
		if err != nil {
			return fmt.Errorf("availability of technician %d: %w", t.ID(), err)
		}
		finish, err := g.dayIndex(a.Finish)
		if err != nil {
			return fmt.Errorf("availability of technician %d: %w", t.ID(), err)
		}
		spans = append(spans, span{start, finish})
	}

	techIdx := g.addNode(TechnicianNode(t.ID()))
	for _, s := range skills {
		g.addEdge(hyperEdge{edgeType: EdgeHasSkill, nodes: []nodeIndex{techIdx, g.skills[s]}})
	}
	for _, sp := range spans {
		g.addEdge(hyperEdge{edgeType: EdgeAvailable, nodes: []nodeIndex{techIdx, sp.start, sp.finish}})
	}

	g.logger.Debug("technician_added", "technician", uint64(t.ID()), "skills", len(skills), "availabilities", len(spans))
	return nil
}

func (g *ScheduleGraph) dayIndex(t time.Time) (nodeIndex, error) {
	day := domain.DateOf(t)
	idx, ok := g.days[day]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrDayMissing, domain.FormatDate(day))
	}
	return idx, nil
}
