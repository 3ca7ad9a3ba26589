package client

import (
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
)

// Status is the daemon health report.
type Status struct {
	Status string `json:"status"`
}

// NodeRef names one member of a hyperedge.
type NodeRef struct {
	// Kind is one of technician, work_order, activity, period, skill, day.
	Kind string `json:"kind"`
	// Value is the domain key; activities read "workorder/activity".
	Value string `json:"value"`
}

// Assignment is an Assign hyperedge as served by the daemon.
type Assignment struct {
	ID    int           `json:"id"`
	Type  string        `json:"type"`
	Nodes []NodeRef     `json:"nodes"`
	Shift *domain.Shift `json:"shift,omitempty"`
	// Lag is only set on postpone edges and is kept for completeness.
	Lag       time.Duration `json:"lag,omitempty"`
	Retracted bool          `json:"retracted,omitempty"`
}

// Technician returns the technician member of the assignment, if any.
func (a Assignment) Technician() string {
	for _, n := range a.Nodes {
		if n.Kind == "technician" {
			return n.Value
		}
	}
	return ""
}

// Assignments is the response of the period assignment query.
type Assignments struct {
	Period      domain.Period `json:"period"`
	Active      bool          `json:"active"`
	Assignments []Assignment  `json:"assignments"`
}

// Summary describes the loaded graph and ledger.
type Summary struct {
	Nodes         int                      `json:"nodes"`
	Edges         int                      `json:"edges"`
	NodesByKind   map[string]int           `json:"nodes_by_kind"`
	EdgesByType   map[string]int           `json:"edges_by_type"`
	Retracted     int                      `json:"retracted"`
	Frozen        bool                     `json:"frozen"`
	Periods       []domain.Period          `json:"periods"`
	LockedPeriods []domain.Period          `json:"locked_periods"`
	Technicians   []domain.TechnicianID    `json:"technicians"`
	WorkOrders    []domain.WorkOrderNumber `json:"work_orders"`
	Writer        bool                     `json:"writer"`
}

// Resource is one technician's capacity in a period.
type Resource struct {
	ID         domain.TechnicianID          `json:"id"`
	TotalHours domain.Work                  `json:"total_hours"`
	SkillHours map[domain.Skill]domain.Work `json:"skill_hours"`
}

// Capacity is the ledger view of one period.
type Capacity struct {
	Period     domain.Period                `json:"period"`
	Locked     bool                         `json:"locked"`
	TotalHours domain.Work                  `json:"total_hours"`
	SkillHours map[domain.Skill]domain.Work `json:"skill_hours"`
	Resources  []Resource                   `json:"resources"`
}

type Activity struct {
	Number domain.ActivityNumber `json:"number"`
	Skill  domain.Skill          `json:"skill"`
}

// WorkOrderParameter is the demand side of the ledger for a work order.
type WorkOrderParameter struct {
	LockedInPeriod  *domain.Period               `json:"locked_in_period,omitempty"`
	ExcludedPeriods []domain.Period              `json:"excluded_periods"`
	LatestPeriod    domain.Period                `json:"latest_period"`
	Weight          int64                        `json:"weight"`
	WorkLoad        map[domain.Skill]domain.Work `json:"work_load"`
}

// WorkOrder is the structural and ledger view of one work order.
type WorkOrder struct {
	Number          domain.WorkOrderNumber `json:"number"`
	BasicStart      string                 `json:"basic_start"`
	Activities      []Activity             `json:"activities"`
	ExcludedPeriods []domain.Period        `json:"excluded_periods"`
	Parameter       *WorkOrderParameter    `json:"parameter,omitempty"`
}
