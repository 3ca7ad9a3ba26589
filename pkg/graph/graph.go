package graph

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
)

// nodeIndex addresses a node in the arena. It never leaves the package.
type nodeIndex int

type hyperEdge struct {
	edgeType EdgeType
	shift    *domain.Shift
	lag      time.Duration
	nodes    []nodeIndex
}

// ScheduleGraph is an append-only hypergraph of a maintenance scheduling
// instance. Nodes and edges live in arenas addressed by position; every domain
// key maps to at most one node.
//
// A graph is built by a single owner in dependency order (skills, periods,
// work orders, technicians, assignments) and then frozen. A frozen graph
// rejects mutation and may be queried by any number of goroutines.
type ScheduleGraph struct {
	nodes     []Node
	edges     []hyperEdge
	incidence [][]EdgeID

	technicians map[domain.TechnicianID]nodeIndex
	workOrders  map[domain.WorkOrderNumber]nodeIndex
	periods     map[domain.Period]nodeIndex
	skills      map[domain.Skill]nodeIndex
	days        map[time.Time]nodeIndex
	dayOrder    []time.Time

	retracted map[EdgeID]struct{}
	frozen    bool

	logger *slog.Logger
}

// Option configures a ScheduleGraph.
type Option func(*ScheduleGraph)

// WithLogger sets the logger used for insertion tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(g *ScheduleGraph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates an empty graph.
func New(opts ...Option) *ScheduleGraph {
	g := &ScheduleGraph{
		technicians: make(map[domain.TechnicianID]nodeIndex),
		workOrders:  make(map[domain.WorkOrderNumber]nodeIndex),
		periods:     make(map[domain.Period]nodeIndex),
		skills:      make(map[domain.Skill]nodeIndex),
		days:        make(map[time.Time]nodeIndex),
		retracted:   make(map[EdgeID]struct{}),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Freeze ends the build phase. Later mutations fail with ErrGraphFrozen.
// Freezing twice is a no-op.
func (g *ScheduleGraph) Freeze() {
	if g.frozen {
		return
	}
	g.frozen = true
	graphFrozen.Set(1)
	g.logger.Info("graph_frozen", "nodes", len(g.nodes), "edges", len(g.edges))
}

// Frozen reports whether Freeze has been called.
func (g *ScheduleGraph) Frozen() bool { return g.frozen }

func (g *ScheduleGraph) checkMutable() error {
	if g.frozen {
		return ErrGraphFrozen
	}
	return nil
}

// addNode appends n to the arena and records it in the index for its kind.
// Callers have already verified that the key is vacant; an occupied key here
// means the indices and the arena disagree.
func (g *ScheduleGraph) addNode(n Node) nodeIndex {
	idx := nodeIndex(len(g.nodes))

	switch n.Kind {
	case NodeTechnician:
		mustBeVacant(g.technicians, n.Technician, n)
		g.technicians[n.Technician] = idx
	case NodeWorkOrder:
		mustBeVacant(g.workOrders, n.WorkOrder, n)
		g.workOrders[n.WorkOrder] = idx
	case NodePeriod:
		mustBeVacant(g.periods, n.Period, n)
		g.periods[n.Period] = idx
	case NodeSkill:
		mustBeVacant(g.skills, n.Skill, n)
		g.skills[n.Skill] = idx
	case NodeDay:
		mustBeVacant(g.days, n.Day, n)
		g.days[n.Day] = idx
		pos, _ := slices.BinarySearchFunc(g.dayOrder, n.Day, time.Time.Compare)
		g.dayOrder = slices.Insert(g.dayOrder, pos, n.Day)
	case NodeActivity:
		// reached through the owning work order's Contains edges
	default:
		panic(fmt.Sprintf("graph: unknown node kind %q", n.Kind))
	}

	g.nodes = append(g.nodes, n)
	g.incidence = append(g.incidence, nil)
	nodesAdded.WithLabelValues(string(n.Kind)).Inc()
	g.logger.Debug("node_added", "node", n.String(), "index", int(idx))
	return idx
}

func mustBeVacant[K comparable](index map[K]nodeIndex, key K, n Node) {
	if existing, ok := index[key]; ok {
		panic(fmt.Sprintf("graph: index already holds %s at %d", n, existing))
	}
}

// addEdge appends a hyperedge and registers it in the incidence list of every
// member node.
func (g *ScheduleGraph) addEdge(e hyperEdge) EdgeID {
	id := EdgeID(len(g.edges))
	for _, n := range e.nodes {
		if int(n) < 0 || int(n) >= len(g.nodes) {
			panic(fmt.Sprintf("graph: edge %s references node %d outside the arena", e.edgeType, n))
		}
	}

	g.edges = append(g.edges, e)
	for _, n := range e.nodes {
		// a node listed twice in one edge (single-day availability) is incident once
		if inc := g.incidence[n]; len(inc) > 0 && inc[len(inc)-1] == id {
			continue
		}
		g.incidence[n] = append(g.incidence[n], id)
	}
	edgesAdded.WithLabelValues(string(e.edgeType)).Inc()
	g.logger.Debug("edge_added", "type", string(e.edgeType), "id", int(id), "arity", len(e.nodes))
	return id
}

// lookup resolves a domain key to its arena position.
func (g *ScheduleGraph) lookup(n Node) (nodeIndex, error) {
	var (
		idx nodeIndex
		ok  bool
		err error
	)
	switch n.Kind {
	case NodeTechnician:
		idx, ok = g.technicians[n.Technician]
		err = ErrWorkerMissing
	case NodeWorkOrder:
		idx, ok = g.workOrders[n.WorkOrder]
		err = ErrWorkOrderMissing
	case NodePeriod:
		idx, ok = g.periods[n.Period]
		err = ErrPeriodMissing
	case NodeSkill:
		idx, ok = g.skills[n.Skill]
		err = ErrSkillMissing
	case NodeDay:
		idx, ok = g.days[domain.DateOf(n.Day)]
		err = ErrDayMissing
	case NodeActivity:
		woIdx, found := g.workOrders[n.WorkOrder]
		if !found {
			return 0, fmt.Errorf("%w: %d", ErrWorkOrderMissing, n.WorkOrder)
		}
		idx, ok = g.activityOf(woIdx, n.Activity)
		err = ErrActivityMissing
	default:
		return 0, fmt.Errorf("graph: unknown node kind %q", n.Kind)
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", err, n)
	}
	return idx, nil
}

// activityOf scans the Contains edges of a work order for the activity node
// carrying number.
func (g *ScheduleGraph) activityOf(workOrder nodeIndex, number domain.ActivityNumber) (nodeIndex, bool) {
	for _, id := range g.incidence[workOrder] {
		e := g.edges[id]
		if e.edgeType != EdgeContains || e.nodes[0] != workOrder {
			continue
		}
		activity := e.nodes[1]
		if g.nodes[activity].Activity == number {
			return activity, true
		}
	}
	return 0, false
}

func (g *ScheduleGraph) edgeView(id EdgeID) Edge {
	e := g.edges[id]
	nodes := make([]Node, len(e.nodes))
	for i, n := range e.nodes {
		nodes[i] = g.nodes[n]
	}
	view := Edge{
		ID:    id,
		Type:  e.edgeType,
		Nodes: nodes,
		Lag:   e.lag,
	}
	if e.shift != nil {
		shift := *e.shift
		view.Shift = &shift
	}
	_, view.Retracted = g.retracted[id]
	return view
}
