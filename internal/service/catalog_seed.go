package service

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

//go:embed seed/catalog.yaml
var defaultCatalogYAML []byte

type seedFile struct {
	Rooms      []seedRoom                  `yaml:"rooms"`
	Teachers   []seedTeacher               `yaml:"teachers"`
	Curriculum map[string]map[int][]string `yaml:"curriculum"`
}

type seedRoom struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}

type seedTeacher struct {
	ID           int      `yaml:"id"`
	Matricule    string   `yaml:"matricule"`
	Name         string   `yaml:"name"`
	Programs     []string `yaml:"programs"`
	Subjects     []string `yaml:"subjects"`
	Specialty    string   `yaml:"specialty"`
	HoursPlanned float64  `yaml:"hours_planned"`
	HoursDone    float64  `yaml:"hours_done"`
}

// LoadCatalogSeed parses the YAML file at path, or the built-in catalog when path
// is empty.
func LoadCatalogSeed(path string) (CatalogSeed, error) {
	raw := defaultCatalogYAML
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return CatalogSeed{}, fmt.Errorf("read catalog seed: %w", err)
		}
		raw = data
	}
	return ParseCatalogSeed(raw)
}

// ParseCatalogSeed decodes and validates a YAML catalog document.
func ParseCatalogSeed(raw []byte) (CatalogSeed, error) {
	var doc seedFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return CatalogSeed{}, fmt.Errorf("decode catalog seed: %w", err)
	}

	seed := CatalogSeed{Curriculum: models.Curriculum{}}
	roomIDs := map[int]struct{}{}
	for _, r := range doc.Rooms {
		if r.ID <= 0 || r.Capacity <= 0 {
			return CatalogSeed{}, fmt.Errorf("room %q: id and capacity must be positive", r.Name)
		}
		if _, dup := roomIDs[r.ID]; dup {
			return CatalogSeed{}, fmt.Errorf("duplicate room id %d", r.ID)
		}
		roomIDs[r.ID] = struct{}{}
		seed.Rooms = append(seed.Rooms, models.Room{ID: r.ID, Name: r.Name, Capacity: r.Capacity})
	}

	matricules := map[string]struct{}{}
	teacherIDs := map[int]struct{}{}
	for _, t := range doc.Teachers {
		if t.Matricule == "" {
			return CatalogSeed{}, fmt.Errorf("teacher %q: matricule required", t.Name)
		}
		if _, dup := matricules[t.Matricule]; dup {
			return CatalogSeed{}, fmt.Errorf("duplicate matricule %s", t.Matricule)
		}
		matricules[t.Matricule] = struct{}{}
		if t.ID < 0 {
			return CatalogSeed{}, fmt.Errorf("teacher %s: id must be positive", t.Matricule)
		}
		if t.ID > 0 {
			if _, dup := teacherIDs[t.ID]; dup {
				return CatalogSeed{}, fmt.Errorf("duplicate teacher id %d", t.ID)
			}
			teacherIDs[t.ID] = struct{}{}
		}
		if !finite(t.HoursPlanned) || !finite(t.HoursDone) {
			return CatalogSeed{}, fmt.Errorf("teacher %s: hours must be finite", t.Matricule)
		}
		seed.Teachers = append(seed.Teachers, models.Teacher{
			ID:           t.ID,
			Matricule:    t.Matricule,
			Name:         t.Name,
			Programs:     t.Programs,
			Subjects:     t.Subjects,
			Specialty:    t.Specialty,
			HoursPlanned: t.HoursPlanned,
			HoursDone:    t.HoursDone,
		})
	}

	for program, levels := range doc.Curriculum {
		seed.Curriculum[program] = map[int][]string{}
		for level, subjects := range levels {
			if level < 1 || level > 5 {
				return CatalogSeed{}, fmt.Errorf("program %s: level %d out of range", program, level)
			}
			seed.Curriculum[program][level] = append([]string{}, subjects...)
		}
	}

	return seed, nil
}

// RegistryReader reads reference data from the institution's roster registry.
type RegistryReader interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	ListCurriculum(ctx context.Context) (models.Curriculum, error)
}

// LoadRegistrySeed builds a seed from the registry. Sections the registry leaves
// empty are taken from fallback.
func LoadRegistrySeed(ctx context.Context, reader RegistryReader, fallback CatalogSeed) (CatalogSeed, error) {
	rooms, err := reader.ListRooms(ctx)
	if err != nil {
		return CatalogSeed{}, fmt.Errorf("load registry rooms: %w", err)
	}
	teachers, err := reader.ListTeachers(ctx)
	if err != nil {
		return CatalogSeed{}, fmt.Errorf("load registry teachers: %w", err)
	}
	curriculum, err := reader.ListCurriculum(ctx)
	if err != nil {
		return CatalogSeed{}, fmt.Errorf("load registry curriculum: %w", err)
	}

	seed := fallback
	if len(rooms) > 0 {
		seed.Rooms = rooms
	}
	if len(teachers) > 0 {
		seed.Teachers = teachers
	}
	if len(curriculum) > 0 {
		seed.Curriculum = curriculum
	}
	return seed, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
