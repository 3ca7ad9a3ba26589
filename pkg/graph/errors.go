package graph

import "errors"

var (
	ErrActivityMissing                = errors.New("graph: activity missing")
	ErrDayMissing                     = errors.New("graph: day missing")
	ErrPeriodDuplicate                = errors.New("graph: period already registered")
	ErrPeriodMissing                  = errors.New("graph: period missing")
	ErrSkillMissing                   = errors.New("graph: skill missing")
	ErrWorkOrderActivityMissingSkills = errors.New("graph: work order activity requires an unregistered skill")
	ErrWorkOrderDuplicate             = errors.New("graph: work order already registered")
	ErrWorkOrderMissing               = errors.New("graph: work order missing")
	ErrWorkerMissing                  = errors.New("graph: technician missing")
	ErrWorkerDuplicate                = errors.New("graph: technician already registered")

	ErrSkillDuplicate = errors.New("graph: skill already registered")
	ErrPeriodOverlap  = errors.New("graph: period overlaps a registered period")
	ErrGraphFrozen    = errors.New("graph: graph is frozen")
	ErrEdgeMissing    = errors.New("graph: edge missing")
	ErrNotAssignment  = errors.New("graph: edge is not an assignment")
	ErrNilWorkOrder   = errors.New("graph: nil work order")
)
