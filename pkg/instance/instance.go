// Package instance loads maintenance scheduling problem instances from JSON
// and builds the schedule graph and ledger from them.
package instance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
)

// Date is a calendar day encoded as "YYYY-MM-DD".
type Date struct {
	day time.Time
}

func NewDate(t time.Time) Date { return Date{day: domain.DateOf(t)} }

func (d Date) Time() time.Time { return d.day }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(domain.FormatDate(d.day)), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	t, err := domain.ParseDate(string(text))
	if err != nil {
		return err
	}
	d.day = t
	return nil
}

// Instance is the on-disk form of a problem instance.
type Instance struct {
	Skills              []domain.Skill       `json:"skills"`
	Periods             []domain.Period      `json:"periods"`
	WorkOrders          []WorkOrder          `json:"work_orders"`
	Technicians         []Technician         `json:"technicians"`
	Capacity            []Capacity           `json:"capacity,omitempty"`
	Exclusions          []Exclusion          `json:"exclusions,omitempty"`
	Assignments         []Assignment         `json:"assignments,omitempty"`
	ActivityAssignments []ActivityAssignment `json:"activity_assignments,omitempty"`
	PeriodLocks         []domain.Period      `json:"period_locks,omitempty"`
}

type Activity struct {
	Number domain.ActivityNumber `json:"number"`
	Skill  domain.Skill          `json:"skill"`
	Work   domain.Work           `json:"work,omitempty"`
}

type WorkOrder struct {
	Number       domain.WorkOrderNumber    `json:"number"`
	BasicStart   Date                      `json:"basic_start"`
	Activities   []Activity                `json:"activities"`
	Relations    []domain.ActivityRelation `json:"relations,omitempty"`
	LatestPeriod *domain.Period            `json:"latest_period,omitempty"`
	Weight       int64                     `json:"weight,omitempty"`
	LockedPeriod *domain.Period            `json:"locked_period,omitempty"`
}

type Technician struct {
	ID             domain.TechnicianID   `json:"id"`
	Skills         []domain.Skill        `json:"skills"`
	Availabilities []domain.Availability `json:"availabilities,omitempty"`
}

type Capacity struct {
	Period     domain.Period                `json:"period"`
	Technician domain.TechnicianID          `json:"technician"`
	TotalHours domain.Work                  `json:"total_hours"`
	SkillHours map[domain.Skill]domain.Work `json:"skill_hours,omitempty"`
}

type Exclusion struct {
	WorkOrder domain.WorkOrderNumber `json:"work_order"`
	Period    domain.Period          `json:"period"`
}

type Assignment struct {
	Technician domain.TechnicianID    `json:"technician"`
	WorkOrder  domain.WorkOrderNumber `json:"work_order"`
	Period     domain.Period          `json:"period"`
}

type ActivityAssignment struct {
	Technician domain.TechnicianID    `json:"technician"`
	WorkOrder  domain.WorkOrderNumber `json:"work_order"`
	Activity   domain.ActivityNumber  `json:"activity"`
	Days       []Date                 `json:"days"`
	Start      domain.TimeOfDay       `json:"start"`
	Finish     domain.TimeOfDay       `json:"finish"`
}

// Load reads and parses an instance file.
func Load(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	inst, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

// Parse decodes an instance. Unknown fields are rejected.
func Parse(r io.Reader) (*Instance, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var inst Instance
	if err := dec.Decode(&inst); err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}
	return &inst, nil
}
