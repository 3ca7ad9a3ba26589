package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalidAvailability is returned for an interval that finishes before it starts.
var ErrInvalidAvailability = errors.New("domain: availability finishes before it starts")

// TechnicianID identifies a technician.
type TechnicianID uint64

// Availability is a working interval of a technician.
type Availability struct {
	Start  time.Time `json:"start"`
	Finish time.Time `json:"finish"`
}

// Technician is a worker with a set of skills and availability intervals.
type Technician struct {
	id             TechnicianID
	availabilities []Availability
	skills         []Skill
}

// NewTechnician deduplicates skills and availabilities and keeps both sorted.
func NewTechnician(id TechnicianID, skills []Skill, availabilities []Availability) (*Technician, error) {
	for _, a := range availabilities {
		if a.Finish.Before(a.Start) {
			return nil, fmt.Errorf("%w: %s > %s", ErrInvalidAvailability, a.Start.Format(time.RFC3339), a.Finish.Format(time.RFC3339))
		}
	}

	sortedSkills := slices.Clone(skills)
	slices.Sort(sortedSkills)
	sortedSkills = slices.Compact(sortedSkills)

	sortedAvailabilities := slices.Clone(availabilities)
	slices.SortFunc(sortedAvailabilities, func(a, b Availability) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.Finish.Compare(b.Finish)
	})
	sortedAvailabilities = slices.CompactFunc(sortedAvailabilities, func(a, b Availability) bool {
		return a.Start.Equal(b.Start) && a.Finish.Equal(b.Finish)
	})

	return &Technician{
		id:             id,
		availabilities: sortedAvailabilities,
		skills:         sortedSkills,
	}, nil
}

func (t *Technician) ID() TechnicianID { return t.id }

func (t *Technician) Skills() []Skill { return slices.Clone(t.skills) }

func (t *Technician) Availabilities() []Availability { return slices.Clone(t.availabilities) }
