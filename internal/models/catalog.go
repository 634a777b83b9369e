package models

import (
	"encoding/json"
	"sort"
)

// Room is a teaching space. Rooms are immutable once loaded.
type Room struct {
	ID       int    `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
}

// Teacher carries a teaching-hour budget. Remaining hours are always derived from
// HoursPlanned and HoursDone.
type Teacher struct {
	ID           int      `json:"id"`
	Matricule    string   `json:"matricule"`
	Name         string   `json:"name"`
	Programs     []string `json:"programs"`
	Subjects     []string `json:"subjects"`
	Specialty    string   `json:"specialty"`
	HoursPlanned float64  `json:"hours_planned"`
	HoursDone    float64  `json:"hours_done"`
}

// HoursRemaining is HoursPlanned minus HoursDone.
func (t Teacher) HoursRemaining() float64 {
	return t.HoursPlanned - t.HoursDone
}

// InProgram reports whether the teacher is affiliated with program.
func (t Teacher) InProgram(program string) bool {
	return contains(t.Programs, program)
}

// Teaches reports whether subject is one of the teacher's competencies.
func (t Teacher) Teaches(subject string) bool {
	return contains(t.Subjects, subject)
}

// Clone returns a deep copy so callers cannot alias catalog slices.
func (t Teacher) Clone() Teacher {
	t.Programs = append([]string(nil), t.Programs...)
	t.Subjects = append([]string(nil), t.Subjects...)
	return t
}

// MarshalJSON adds the derived hours_remaining field.
func (t Teacher) MarshalJSON() ([]byte, error) {
	type plain Teacher
	return json.Marshal(struct {
		plain
		HoursRemaining float64 `json:"hours_remaining"`
	}{plain: plain(t), HoursRemaining: t.HoursRemaining()})
}

// TeacherRecord is the upsert input produced by imports and seed loaders.
type TeacherRecord struct {
	Matricule    string
	Name         string
	Programs     []string
	Subjects     []string
	Specialty    string
	HoursPlanned float64
	HoursDone    float64
}

// Curriculum maps program -> level -> ordered subjects.
type Curriculum map[string]map[int][]string

// Program summarises one curriculum entry for listings.
type Program struct {
	Name   string `json:"name"`
	Levels []int  `json:"levels"`
}

// Programs lists curriculum programs sorted by name with their levels ascending.
func (c Curriculum) Programs() []Program {
	out := make([]Program, 0, len(c))
	for name, levels := range c {
		p := Program{Name: name, Levels: make([]int, 0, len(levels))}
		for level := range levels {
			p.Levels = append(p.Levels, level)
		}
		sort.Ints(p.Levels)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
