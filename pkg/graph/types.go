package graph

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
)

// NodeKind is the entity type a node stands for.
type NodeKind string

const (
	NodeTechnician NodeKind = "technician"
	NodeWorkOrder  NodeKind = "work_order"
	NodeActivity   NodeKind = "activity"
	NodePeriod     NodeKind = "period"
	NodeSkill      NodeKind = "skill"
	NodeDay        NodeKind = "day"
)

// EdgeType is the relation a hyperedge expresses over its member nodes.
type EdgeType string

const (
	EdgeAssign      EdgeType = "assign"       // Technician -> WorkOrder -> Period, or Technician -> Activity -> Day...
	EdgeAvailable   EdgeType = "available"    // Technician -> Day (start) -> Day (finish)
	EdgeExclude     EdgeType = "exclude"      // WorkOrder -> Period
	EdgeBasicStart  EdgeType = "basic_start"  // WorkOrder -> Day
	EdgeContains    EdgeType = "contains"     // WorkOrder -> Activity
	EdgeRequires    EdgeType = "requires"     // Activity -> Skill
	EdgeStartStart  EdgeType = "start_start"  // Activity -> Activity
	EdgeFinishStart EdgeType = "finish_start" // Activity -> Activity
	EdgePostpone    EdgeType = "postpone"     // Activity -> Activity, with lag
	EdgeHasSkill    EdgeType = "has_skill"    // Technician -> Skill
)

// EdgeTypes lists every edge type.
func EdgeTypes() []EdgeType {
	return []EdgeType{
		EdgeAssign, EdgeAvailable, EdgeExclude, EdgeBasicStart, EdgeContains,
		EdgeRequires, EdgeStartStart, EdgeFinishStart, EdgePostpone, EdgeHasSkill,
	}
}

// NodeKinds lists every node kind.
func NodeKinds() []NodeKind {
	return []NodeKind{NodeTechnician, NodeWorkOrder, NodeActivity, NodePeriod, NodeSkill, NodeDay}
}

// EdgeID identifies a hyperedge. IDs are assigned in insertion order and are
// never reused.
type EdgeID int

// Node is a domain key tagged with its kind. Only the fields matching Kind are
// set; activity nodes also carry the number of their owning work order.
// Nodes are comparable and can be used as map keys.
type Node struct {
	Kind       NodeKind
	Technician domain.TechnicianID
	WorkOrder  domain.WorkOrderNumber
	Activity   domain.ActivityNumber
	Period     domain.Period
	Skill      domain.Skill
	Day        time.Time
}

func TechnicianNode(id domain.TechnicianID) Node {
	return Node{Kind: NodeTechnician, Technician: id}
}

func WorkOrderNode(number domain.WorkOrderNumber) Node {
	return Node{Kind: NodeWorkOrder, WorkOrder: number}
}

func ActivityNode(workOrder domain.WorkOrderNumber, number domain.ActivityNumber) Node {
	return Node{Kind: NodeActivity, WorkOrder: workOrder, Activity: number}
}

func PeriodNode(p domain.Period) Node {
	return Node{Kind: NodePeriod, Period: p}
}

func SkillNode(s domain.Skill) Node {
	return Node{Kind: NodeSkill, Skill: s}
}

func DayNode(day time.Time) Node {
	return Node{Kind: NodeDay, Day: domain.DateOf(day)}
}

// Value renders the node's key without its kind.
func (n Node) Value() string {
	switch n.Kind {
	case NodeTechnician:
		return fmt.Sprintf("%d", n.Technician)
	case NodeWorkOrder:
		return fmt.Sprintf("%d", n.WorkOrder)
	case NodeActivity:
		return fmt.Sprintf("%d/%d", n.WorkOrder, n.Activity)
	case NodePeriod:
		return n.Period.String()
	case NodeSkill:
		return n.Skill.String()
	case NodeDay:
		return domain.FormatDate(n.Day)
	}
	return ""
}

func (n Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Kind, n.Value())
}

func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  NodeKind `json:"kind"`
		Value string   `json:"value"`
	}{n.Kind, n.Value()})
}

// Edge is the public view of a hyperedge. Nodes are listed in edge order.
type Edge struct {
	ID        EdgeID        `json:"id"`
	Type      EdgeType      `json:"type"`
	Nodes     []Node        `json:"nodes"`
	Shift     *domain.Shift `json:"shift,omitempty"`
	Lag       time.Duration `json:"lag,omitempty"`
	Retracted bool          `json:"retracted,omitempty"`
}

// Summary counts the contents of a graph.
type Summary struct {
	Nodes       int              `json:"nodes"`
	Edges       int              `json:"edges"`
	NodesByKind map[NodeKind]int `json:"nodes_by_kind"`
	EdgesByType map[EdgeType]int `json:"edges_by_type"`
	Retracted   int              `json:"retracted"`
	Frozen      bool             `json:"frozen"`
}
