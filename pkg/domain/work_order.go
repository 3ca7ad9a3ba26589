package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidWorkOrderNumber = errors.New("domain: work order number must have exactly 10 digits")
	ErrNonSortedActivities    = errors.New("domain: activities are not sorted by activity number")
	ErrDuplicatedActivities   = errors.New("domain: activities share an activity number")
	ErrRelationCount          = errors.New("domain: one relation is required per adjacent activity pair")
	ErrUnknownRelation        = errors.New("domain: unknown activity relation")
)

// WorkOrderNumber identifies a work order. Its decimal form has 10 digits.
type WorkOrderNumber uint64

// ActivityNumber identifies an activity within its work order.
type ActivityNumber uint64

// Work is an amount of labour in hours.
type Work float64

// Activity is one operation of a work order. Activities order by number.
type Activity struct {
	number ActivityNumber
	skill  Skill
	work   Work
}

func NewActivity(number ActivityNumber, skill Skill) Activity {
	return Activity{number: number, skill: skill}
}

// WithWork returns a copy of a carrying the given labour hours.
func (a Activity) WithWork(work Work) Activity {
	a.work = work
	return a
}

func (a Activity) Number() ActivityNumber { return a.number }
func (a Activity) Skill() Skill           { return a.skill }
func (a Activity) Work() Work             { return a.work }

// RelationKind is the precedence type between two consecutive activities.
type RelationKind string

const (
	RelationStartStart  RelationKind = "start_start"
	RelationFinishStart RelationKind = "finish_start"
	RelationPostpone    RelationKind = "postpone"
)

// ActivityRelation constrains when an activity may start relative to its
// predecessor. Lag is only meaningful for RelationPostpone.
type ActivityRelation struct {
	Kind RelationKind
	Lag  time.Duration
}

func StartStart() ActivityRelation  { return ActivityRelation{Kind: RelationStartStart} }
func FinishStart() ActivityRelation { return ActivityRelation{Kind: RelationFinishStart} }

// Postpone requires the successor to wait lag after the predecessor finishes.
func Postpone(lag time.Duration) ActivityRelation {
	return ActivityRelation{Kind: RelationPostpone, Lag: lag}
}

func (r ActivityRelation) String() string {
	if r.Kind == RelationPostpone {
		return string(r.Kind) + ":" + r.Lag.String()
	}
	return string(r.Kind)
}

// ParseActivityRelation accepts "finish_start", "start_start" and
// "postpone:<duration>".
func ParseActivityRelation(raw string) (ActivityRelation, error) {
	kind, lag, hasLag := strings.Cut(strings.TrimSpace(raw), ":")
	switch RelationKind(kind) {
	case RelationStartStart:
		if !hasLag {
			return StartStart(), nil
		}
	case RelationFinishStart:
		if !hasLag {
			return FinishStart(), nil
		}
	case RelationPostpone:
		if !hasLag {
			return ActivityRelation{}, fmt.Errorf("%w: %q needs a lag", ErrUnknownRelation, raw)
		}
		d, err := time.ParseDuration(lag)
		if err != nil || d < 0 {
			return ActivityRelation{}, fmt.Errorf("%w: %q", ErrUnknownRelation, raw)
		}
		return Postpone(d), nil
	}
	return ActivityRelation{}, fmt.Errorf("%w: %q", ErrUnknownRelation, raw)
}

func (r ActivityRelation) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ActivityRelation) UnmarshalText(text []byte) error {
	parsed, err := ParseActivityRelation(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// WorkOrder is a validated maintenance job: a 10 digit number, the day it is
// anchored to, and its activities in strictly ascending activity order.
type WorkOrder struct {
	number         WorkOrderNumber
	basicStartDate time.Time
	activities     []Activity
	relations      []ActivityRelation
}

// WorkOrderOption customises work order construction.
type WorkOrderOption func(*WorkOrder)

// WithRelations declares the precedence relation for each adjacent activity
// pair, in activity order. Without it every pair is FinishStart.
func WithRelations(relations ...ActivityRelation) WorkOrderOption {
	return func(wo *WorkOrder) {
		wo.relations = append([]ActivityRelation(nil), relations...)
	}
}

// NewWorkOrder is the only validation gate for work orders; the graph never
// re-checks these rules.
func NewWorkOrder(number WorkOrderNumber, basicStartDate time.Time, activities []Activity, opts ...WorkOrderOption) (*WorkOrder, error) {
	if digits := strconv.FormatUint(uint64(number), 10); len(digits) != 10 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWorkOrderNumber, digits)
	}

	for i := 1; i < len(activities); i++ {
		if activities[i].number < activities[i-1].number {
			return nil, fmt.Errorf("%w: %d follows %d", ErrNonSortedActivities, activities[i].number, activities[i-1].number)
		}
	}
	for i := 1; i < len(activities); i++ {
		if activities[i].number == activities[i-1].number {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatedActivities, activities[i].number)
		}
	}

	wo := &WorkOrder{
		number:         number,
		basicStartDate: DateOf(basicStartDate),
		activities:     append([]Activity(nil), activities...),
	}
	for _, opt := range opts {
		opt(wo)
	}

	pairs := 0
	if len(activities) > 1 {
		pairs = len(activities) - 1
	}
	if wo.relations == nil {
		wo.relations = make([]ActivityRelation, pairs)
		for i := range wo.relations {
			wo.relations[i] = FinishStart()
		}
	}
	if len(wo.relations) != pairs {
		return nil, fmt.Errorf("%w: got %d for %d pairs", ErrRelationCount, len(wo.relations), pairs)
	}

	return wo, nil
}

func (wo *WorkOrder) Number() WorkOrderNumber { return wo.number }

// BasicStart is the calendar day the work order is anchored to.
func (wo *WorkOrder) BasicStart() time.Time { return wo.basicStartDate }

// Activities returns a copy of the activities in ascending number order.
func (wo *WorkOrder) Activities() []Activity {
	return append([]Activity(nil), wo.activities...)
}

// Relations returns the relation between activity i and i+1 at index i.
func (wo *WorkOrder) Relations() []ActivityRelation {
	return append([]ActivityRelation(nil), wo.relations...)
}

// WorkLoad sums the labour hours of the activities per skill.
func (wo *WorkOrder) WorkLoad() map[Skill]Work {
	load := make(map[Skill]Work)
	for _, a := range wo.activities {
		load[a.skill] += a.work
	}
	return load
}
