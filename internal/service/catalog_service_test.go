package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

func fixtureSeed() CatalogSeed {
	return CatalogSeed{
		Rooms: []models.Room{
			{ID: 1, Name: "Amphi A", Capacity: 200},
			{ID: 2, Name: "Salle 101", Capacity: 40},
			{ID: 3, Name: "Salle 102", Capacity: 30},
			{ID: 4, Name: "Labo", Capacity: 25},
		},
		Teachers: []models.Teacher{
			{ID: 1, Matricule: "T-1", Name: "Alice", Programs: []string{"GIT"}, Subjects: []string{"Réseaux"}, Specialty: "Réseaux", HoursPlanned: 100, HoursDone: 20},
			{ID: 2, Matricule: "T-2", Name: "Bruno", Programs: []string{"GIT", "SDIA"}, Subjects: []string{"Algorithmique"}, HoursPlanned: 100, HoursDone: 95},
			{ID: 3, Matricule: "T-3", Name: "Chloé", Programs: []string{"SDIA"}, Subjects: []string{"Algorithmique"}, HoursPlanned: 60},
			{ID: 4, Matricule: "T-4", Name: "David", HoursPlanned: 10, HoursDone: 10},
		},
		Curriculum: models.Curriculum{
			"GIT": {1: {"Algorithmique", "Réseaux"}, 2: {}},
		},
	}
}

func fixtureCatalog() *CatalogService {
	return NewCatalogService(fixtureSeed(), nil)
}

func TestCatalogSubjectsFor(t *testing.T) {
	catalog := fixtureCatalog()

	assert.Equal(t, []string{"Algorithmique", "Réseaux"}, catalog.SubjectsFor("GIT", 1))

	empty := catalog.SubjectsFor("GIT", 2)
	require.NotNil(t, empty)
	assert.Empty(t, empty)

	unknown := catalog.SubjectsFor("MEDECINE", 4)
	require.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestCatalogProgramsSorted(t *testing.T) {
	catalog := fixtureCatalog()

	programs := catalog.Programs()
	require.Len(t, programs, 1)
	assert.Equal(t, "GIT", programs[0].Name)
	assert.Equal(t, []int{1, 2}, programs[0].Levels)
}

func TestCatalogUpsertTeacherIsIdempotent(t *testing.T) {
	catalog := fixtureCatalog()
	rec := models.TeacherRecord{Matricule: "T-9", Name: "Emma", Programs: []string{"GCI"}, HoursPlanned: 80, HoursDone: 5}

	first, created := catalog.UpsertTeacher(rec)
	require.True(t, created)
	assert.Equal(t, 5, first.ID)

	rec.Name = "Emma N."
	rec.HoursDone = 12
	second, created := catalog.UpsertTeacher(rec)
	require.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	matches := 0
	for _, teacher := range catalog.ListTeachers() {
		if teacher.Matricule == "T-9" {
			matches++
			assert.Equal(t, "Emma N.", teacher.Name)
			assert.Equal(t, 12.0, teacher.HoursDone)
			assert.Equal(t, 68.0, teacher.HoursRemaining())
		}
	}
	assert.Equal(t, 1, matches)
}

func TestCatalogUpsertOverwritesExistingInPlace(t *testing.T) {
	catalog := fixtureCatalog()

	created, updated := catalog.UpsertTeachers([]models.TeacherRecord{
		{Matricule: "T-2", Name: "Bruno K.", Subjects: []string{"Compilation"}, HoursPlanned: 50, HoursDone: 10},
		{Matricule: "T-10", Name: "Fatou", HoursPlanned: 30},
	})
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)

	teachers := catalog.ListTeachers()
	require.Len(t, teachers, 5)
	assert.Equal(t, 2, teachers[1].ID)
	assert.Equal(t, "Bruno K.", teachers[1].Name)
	assert.Equal(t, []string{"Compilation"}, teachers[1].Subjects)
	assert.Equal(t, "T-10", teachers[4].Matricule)
}

func TestCatalogListTeachersReturnsCopies(t *testing.T) {
	catalog := fixtureCatalog()

	teachers := catalog.ListTeachers()
	teachers[0].Subjects[0] = "mutated"
	teachers[0].HoursDone = 999

	fresh, ok := catalog.FindTeacher(1)
	require.True(t, ok)
	assert.Equal(t, "Réseaux", fresh.Subjects[0])
	assert.Equal(t, 20.0, fresh.HoursDone)
}

func TestCatalogDebitHours(t *testing.T) {
	catalog := fixtureCatalog()
	before := catalog.Version()

	teacher, err := catalog.DebitHours(1, 4)
	require.NoError(t, err)
	assert.Equal(t, 24.0, teacher.HoursDone)
	assert.Equal(t, 76.0, teacher.HoursRemaining())
	assert.NotEqual(t, before, catalog.Version())

	_, err = catalog.DebitHours(2, 6)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInsufficientTeacherHours)
	assert.Equal(t, 5.0, appErrors.FromError(err).Details["remainingHours"])

	unchanged, _ := catalog.FindTeacher(2)
	assert.Equal(t, 95.0, unchanged.HoursDone)

	_, err = catalog.DebitHours(42, 1)
	assert.ErrorIs(t, err, appErrors.ErrUnknownTeacher)
}

func TestCatalogSnapshotCarriesVersion(t *testing.T) {
	catalog := fixtureCatalog()

	snap := catalog.Snapshot()
	assert.Len(t, snap.Rooms, 4)
	assert.Len(t, snap.Teachers, 4)
	assert.Equal(t, catalog.Version(), snap.Version)

	catalog.UpsertTeacher(models.TeacherRecord{Matricule: "T-1", Name: "Alice"})
	assert.NotEqual(t, snap.Version, catalog.Version())
}

func TestNewCatalogServiceKeepsTeacherIDsUnique(t *testing.T) {
	catalog := NewCatalogService(CatalogSeed{Teachers: []models.Teacher{
		{Matricule: "A", Name: "No id", HoursPlanned: 10},
		{ID: 1, Matricule: "B", Name: "Explicit", HoursPlanned: 50},
		{ID: 1, Matricule: "C", Name: "Clash", HoursPlanned: 5},
		{ID: 7, Matricule: "D", Name: "High", HoursPlanned: math.NaN()},
	}}, nil)

	teachers := catalog.ListTeachers()
	require.Len(t, teachers, 4)
	seen := map[int]string{}
	for _, teacher := range teachers {
		_, dup := seen[teacher.ID]
		assert.False(t, dup, "id %d reused by %s", teacher.ID, teacher.Matricule)
		seen[teacher.ID] = teacher.Matricule
	}
	assert.Equal(t, 1, teachers[1].ID)
	assert.Equal(t, 7, teachers[3].ID)
	assert.Greater(t, teachers[0].ID, 7)
	assert.Greater(t, teachers[2].ID, 7)
	assert.Zero(t, teachers[3].HoursPlanned)

	debited, err := catalog.DebitHours(1, 20)
	require.NoError(t, err)
	assert.Equal(t, "B", debited.Matricule)
	assert.Equal(t, 20.0, debited.HoursDone)

	created, isNew := catalog.UpsertTeacher(models.TeacherRecord{Matricule: "E", Name: "Next"})
	require.True(t, isNew)
	_, dup := seen[created.ID]
	assert.False(t, dup)
}
