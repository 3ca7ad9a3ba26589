package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSkill is returned when a skill name does not match any trade.
var ErrUnknownSkill = errors.New("domain: unknown skill")

// Skill is the trade an activity requires and a technician holds.
// New trades are appended to the enumeration; existing values never change.
type Skill int

const (
	MtnMech Skill = iota + 1
	MtnElec
	MtnInst
	MtnScaf
)

var skillNames = map[Skill]string{
	MtnMech: "MTN-MECH",
	MtnElec: "MTN-ELEC",
	MtnInst: "MTN-INST",
	MtnScaf: "MTN-SCAF",
}

// Skills returns every known skill in declaration order.
func Skills() []Skill {
	return []Skill{MtnMech, MtnElec, MtnInst, MtnScaf}
}

// Valid reports whether s is a member of the enumeration.
func (s Skill) Valid() bool {
	_, ok := skillNames[s]
	return ok
}

func (s Skill) String() string {
	if name, ok := skillNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Skill(%d)", int(s))
}

// ParseSkill accepts the canonical name ("MTN-MECH") case-insensitively.
func ParseSkill(raw string) (Skill, error) {
	needle := strings.ToUpper(strings.TrimSpace(raw))
	for skill, name := range skillNames {
		if name == needle {
			return skill, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSkill, raw)
}

func (s Skill) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSkill, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Skill) UnmarshalText(text []byte) error {
	parsed, err := ParseSkill(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
