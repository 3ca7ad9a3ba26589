package instance

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/graph"
	"github.com/rmax-ai/schedgraph/pkg/ledger"
)

// BuildOptions tunes Build. The zero value logs nothing and keeps capacity in memory.
type BuildOptions struct {
	Logger    *slog.Logger
	Resources ledger.ResourceStore
}

// Result is a built problem instance. The graph is not frozen.
type Result struct {
	Graph      *graph.ScheduleGraph
	Parameters *ledger.StrategicParameters
	WorkOrders map[domain.WorkOrderNumber]*domain.WorkOrder
}

// Build registers the instance into a new graph in dependency order (skills,
// periods, work orders, technicians, exclusions, assignments) and derives the
// ledger. The first failing step aborts the build.
func Build(inst *Instance, opts BuildOptions) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	resources := ledger.NewStrategicResources()
	if opts.Resources != nil {
		resources = ledger.NewStrategicResourcesWithStore(opts.Resources)
	}

	g := graph.New(graph.WithLogger(logger))
	params := ledger.NewStrategicParameters(resources)
	res := &Result{
		Graph:      g,
		Parameters: params,
		WorkOrders: make(map[domain.WorkOrderNumber]*domain.WorkOrder, len(inst.WorkOrders)),
	}

	for _, s := range inst.Skills {
		if err := g.AddSkill(s); err != nil {
			return nil, err
		}
	}

	for _, p := range inst.Periods {
		if err := g.AddPeriod(p); err != nil {
			return nil, err
		}
		params.AddPeriod(p)
	}

	for _, w := range inst.WorkOrders {
		wo, err := w.build()
		if err != nil {
			return nil, fmt.Errorf("work order %d: %w", w.Number, err)
		}
		if err := g.AddWorkOrder(wo); err != nil {
			return nil, err
		}
		res.WorkOrders[wo.Number()] = wo

		var latest domain.Period
		if w.LatestPeriod != nil {
			latest = *w.LatestPeriod
		}
		param := ledger.NewWorkOrderParameter(wo, latest, w.Weight)
		if w.LockedPeriod != nil {
			if !g.HasPeriod(*w.LockedPeriod) {
				return nil, fmt.Errorf("work order %d locked: %w: %s", w.Number, graph.ErrPeriodMissing, w.LockedPeriod)
			}
			locked := *w.LockedPeriod
			param.LockedInPeriod = &locked
		}
		params.SetWorkOrderParameter(wo.Number(), param)
	}

	for _, t := range inst.Technicians {
		tech, err := domain.NewTechnician(t.ID, t.Skills, t.Availabilities)
		if err != nil {
			return nil, fmt.Errorf("technician %d: %w", t.ID, err)
		}
		if err := g.AddTechnician(tech); err != nil {
			return nil, err
		}
	}

	for _, e := range inst.Exclusions {
		if _, err := g.AddExclusion(e.WorkOrder, e.Period); err != nil {
			return nil, err
		}
	}

	for _, a := range inst.Assignments {
		if _, err := g.AddAssignmentWorkOrder(a.Technician, a.WorkOrder, a.Period); err != nil {
			return nil, err
		}
	}

	for _, a := range inst.ActivityAssignments {
		days := make([]time.Time, len(a.Days))
		for i, d := range a.Days {
			days[i] = d.Time()
		}
		shift := domain.Shift{Start: a.Start, Finish: a.Finish}
		if _, err := g.AddAssignmentActivity(a.Technician, a.WorkOrder, a.Activity, days, shift); err != nil {
			return nil, err
		}
	}

	for _, c := range inst.Capacity {
		if !g.HasPeriod(c.Period) {
			return nil, fmt.Errorf("capacity: %w: %s", graph.ErrPeriodMissing, c.Period)
		}
		if !g.HasTechnician(c.Technician) {
			return nil, fmt.Errorf("capacity: %w: %d", graph.ErrWorkerMissing, c.Technician)
		}
		err := resources.Set(c.Period, ledger.OperationalResource{
			ID:         c.Technician,
			TotalHours: c.TotalHours,
			SkillHours: c.SkillHours,
		})
		if err != nil {
			return nil, fmt.Errorf("capacity of technician %d in %s: %w", c.Technician, c.Period, err)
		}
	}

	for _, p := range inst.PeriodLocks {
		if err := params.LockPeriod(p); err != nil {
			return nil, err
		}
	}

	if err := params.SyncExclusions(g); err != nil {
		return nil, err
	}

	summary := g.Summary()
	logger.Info("graph_built",
		"nodes", summary.Nodes,
		"edges", summary.Edges,
		"periods", len(inst.Periods),
		"work_orders", len(inst.WorkOrders),
		"technicians", len(inst.Technicians),
	)
	return res, nil
}

func (w WorkOrder) build() (*domain.WorkOrder, error) {
	activities := make([]domain.Activity, len(w.Activities))
	for i, a := range w.Activities {
		activities[i] = domain.NewActivity(a.Number, a.Skill).WithWork(a.Work)
	}
	var opts []domain.WorkOrderOption
	if w.Relations != nil {
		opts = append(opts, domain.WithRelations(w.Relations...))
	}
	return domain.NewWorkOrder(w.Number, w.BasicStart.Time(), activities, opts...)
}
