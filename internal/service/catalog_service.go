package service

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

// CatalogSeed is the initial reference data.
type CatalogSeed struct {
	Rooms      []models.Room
	Teachers   []models.Teacher
	Curriculum models.Curriculum
}

// CatalogSnapshot is a consistent, caller-owned copy of rooms and teachers.
type CatalogSnapshot struct {
	Rooms    []models.Room
	Teachers []models.Teacher
	Version  string
}

// CatalogService holds rooms, teachers and curriculum. Rooms and curriculum are
// fixed after construction; teachers change through upserts and hour debits.
type CatalogService struct {
	mu          sync.RWMutex
	rooms       []models.Room
	teachers    []models.Teacher
	byMatricule map[string]int
	curriculum  models.Curriculum
	nextID      int
	epoch       string
	revision    uint64
	logger      *zap.Logger
}

// NewCatalogService constructs a CatalogService from seed data. Teachers without
// an id, or whose id is already taken, get ids above the highest seeded one.
func NewCatalogService(seed CatalogSeed, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CatalogService{
		rooms:       append([]models.Room(nil), seed.Rooms...),
		byMatricule: make(map[string]int, len(seed.Teachers)),
		curriculum:  models.Curriculum{},
		nextID:      1,
		epoch:       uuid.NewString()[:8],
		revision:    1,
		logger:      logger,
	}
	for program, levels := range seed.Curriculum {
		s.curriculum[program] = make(map[int][]string, len(levels))
		for level, subjects := range levels {
			s.curriculum[program][level] = append([]string{}, subjects...)
		}
	}
	for _, t := range seed.Teachers {
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	taken := make(map[int]struct{}, len(seed.Teachers))
	for _, t := range seed.Teachers {
		t = t.Clone()
		if _, dup := taken[t.ID]; dup || t.ID <= 0 {
			if t.ID > 0 {
				logger.Warn("duplicate teacher id in seed, reassigning",
					zap.Int("id", t.ID), zap.String("matricule", t.Matricule), zap.Int("new_id", s.nextID))
			}
			t.ID = s.nextID
			s.nextID++
		}
		taken[t.ID] = struct{}{}
		t.HoursPlanned = nonNegative(t.HoursPlanned)
		t.HoursDone = nonNegative(t.HoursDone)
		s.byMatricule[t.Matricule] = len(s.teachers)
		s.teachers = append(s.teachers, t)
	}
	return s
}

// Version changes whenever teacher data changes. It is unique per process.
func (s *CatalogService) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versionLocked()
}

func (s *CatalogService) versionLocked() string {
	return s.epoch + "." + strconv.FormatUint(s.revision, 10)
}

func (s *CatalogService) ListRooms() []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Room(nil), s.rooms...)
}

func (s *CatalogService) ListTeachers() []models.Teacher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teachersLocked()
}

func (s *CatalogService) teachersLocked() []models.Teacher {
	out := make([]models.Teacher, len(s.teachers))
	for i, t := range s.teachers {
		out[i] = t.Clone()
	}
	return out
}

// Snapshot returns rooms and teachers read under one lock.
func (s *CatalogService) Snapshot() CatalogSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CatalogSnapshot{
		Rooms:    append([]models.Room(nil), s.rooms...),
		Teachers: s.teachersLocked(),
		Version:  s.versionLocked(),
	}
}

func (s *CatalogService) Programs() []models.Program {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.curriculum.Programs()
}

// SubjectsFor returns the ordered subjects of a program level. Unknown pairs
// yield an empty list.
func (s *CatalogService) SubjectsFor(program string, level int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.curriculum[program][level]...)
}

func (s *CatalogService) FindRoom(id int) (models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rooms {
		if r.ID == id {
			return r, true
		}
	}
	return models.Room{}, false
}

func (s *CatalogService) FindTeacher(id int) (models.Teacher, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.teachers[idx].Clone(), true
	}
	return models.Teacher{}, false
}

// FindTeacherByMatricule looks a teacher up by natural key.
func (s *CatalogService) FindTeacherByMatricule(matricule string) (models.Teacher, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.byMatricule[strings.TrimSpace(matricule)]; ok {
		return s.teachers[idx].Clone(), true
	}
	return models.Teacher{}, false
}

// UpsertTeacher overwrites the teacher with the same matricule, keeping its id,
// or appends a new teacher. created reports which happened.
func (s *CatalogService) UpsertTeacher(rec models.TeacherRecord) (teacher models.Teacher, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	teacher, created = s.upsertLocked(rec)
	s.revision++
	return teacher, created
}

// UpsertTeachers applies a batch under one lock so readers never observe a
// half-applied import.
func (s *CatalogService) UpsertTeachers(recs []models.TeacherRecord) (created, updated int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		if _, isNew := s.upsertLocked(rec); isNew {
			created++
		} else {
			updated++
		}
	}
	if len(recs) > 0 {
		s.revision++
	}
	s.logger.Info("teachers upserted", zap.Int("created", created), zap.Int("updated", updated))
	return created, updated
}

func (s *CatalogService) upsertLocked(rec models.TeacherRecord) (models.Teacher, bool) {
	rec.Matricule = strings.TrimSpace(rec.Matricule)
	if idx, ok := s.byMatricule[rec.Matricule]; ok {
		t := &s.teachers[idx]
		t.Name = rec.Name
		t.Programs = append([]string{}, rec.Programs...)
		t.Subjects = append([]string{}, rec.Subjects...)
		t.Specialty = rec.Specialty
		t.HoursPlanned = nonNegative(rec.HoursPlanned)
		t.HoursDone = nonNegative(rec.HoursDone)
		return t.Clone(), false
	}

	t := models.Teacher{
		ID:           s.nextID,
		Matricule:    rec.Matricule,
		Name:         rec.Name,
		Programs:     append([]string{}, rec.Programs...),
		Subjects:     append([]string{}, rec.Subjects...),
		Specialty:    rec.Specialty,
		HoursPlanned: nonNegative(rec.HoursPlanned),
		HoursDone:    nonNegative(rec.HoursDone),
	}
	s.nextID++
	s.byMatricule[t.Matricule] = len(s.teachers)
	s.teachers = append(s.teachers, t)
	return t.Clone(), true
}

// DebitHours adds hours to the teacher's consumed total if the remaining budget
// covers it. On failure nothing changes.
func (s *CatalogService) DebitHours(teacherID int, hours float64) (models.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(teacherID)
	if idx < 0 {
		return models.Teacher{}, appErrors.ErrUnknownTeacher.WithDetails("teacherId", teacherID)
	}
	t := &s.teachers[idx]
	if remaining := t.HoursRemaining(); !(remaining >= hours) {
		return models.Teacher{}, appErrors.ErrInsufficientTeacherHours.
			WithDetails("teacherId", teacherID).
			WithDetails("remainingHours", remaining).
			WithDetails("requestedHours", hours)
	}
	t.HoursDone += hours
	s.revision++
	return t.Clone(), nil
}

func (s *CatalogService) indexOf(id int) int {
	for i := range s.teachers {
		if s.teachers[i].ID == id {
			return i
		}
	}
	return -1
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
