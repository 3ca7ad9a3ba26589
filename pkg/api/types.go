package api

import (
	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/graph"
	"github.com/rmax-ai/schedgraph/pkg/ledger"
)

// SummaryResponse matches the response for GET /v1/summary
type SummaryResponse struct {
	graph.Summary
	Periods       []domain.Period          `json:"periods"`
	LockedPeriods []domain.Period          `json:"locked_periods"`
	Technicians   []domain.TechnicianID    `json:"technicians"`
	WorkOrders    []domain.WorkOrderNumber `json:"work_orders"`
	Writer        bool                     `json:"writer"`
}

// AssignmentsResponse matches the response for GET /v1/assignments
type AssignmentsResponse struct {
	Period      domain.Period `json:"period"`
	Active      bool          `json:"active"`
	Assignments []graph.Edge  `json:"assignments"`
}

// CapacityResponse matches the response for GET /v1/capacity
type CapacityResponse struct {
	Period     domain.Period                `json:"period"`
	Locked     bool                         `json:"locked"`
	TotalHours domain.Work                  `json:"total_hours"`
	SkillHours map[domain.Skill]domain.Work `json:"skill_hours"`
	Resources  []ledger.OperationalResource `json:"resources"`
}

// ActivityView is one activity of a work order.
type ActivityView struct {
	Number domain.ActivityNumber `json:"number"`
	Skill  domain.Skill          `json:"skill"`
}

// WorkOrderResponse matches the response for GET /v1/work-order
type WorkOrderResponse struct {
	Number          domain.WorkOrderNumber     `json:"number"`
	BasicStart      string                     `json:"basic_start"`
	Activities      []ActivityView             `json:"activities"`
	ExcludedPeriods []domain.Period            `json:"excluded_periods"`
	Parameter       *ledger.WorkOrderParameter `json:"parameter,omitempty"`
}
