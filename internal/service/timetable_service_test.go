package service

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

func course() models.CourseRequest {
	return models.CourseRequest{Program: "GIT", Level: 1, Subject: "Réseaux", SessionType: models.SessionLecture, Headcount: 30}
}

func TestTimetableCommitDebitsHours(t *testing.T) {
	catalog := fixtureCatalog()
	store := NewTimetableStore(catalog, nil)

	entry, teacher, err := store.Commit(models.Monday, models.PeriodAM, models.ScheduledEntry{
		CourseRequest: course(), RoomID: 2, TeacherID: 1, DurationHours: 4,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "Salle 101", entry.RoomName)
	assert.Equal(t, "Alice", entry.TeacherName)
	assert.Equal(t, 24.0, teacher.HoursDone)
	assert.Equal(t, 76.0, teacher.HoursRemaining())

	stored, ok := store.Get(models.Monday, models.PeriodAM)
	require.True(t, ok)
	assert.Equal(t, entry, stored)
	assert.Equal(t, 1, store.Occupied())
}

func TestTimetableCommitRejectsOccupiedSlot(t *testing.T) {
	catalog := fixtureCatalog()
	store := NewTimetableStore(catalog, nil)

	first, _, err := store.Commit(models.Friday, models.PeriodPM, models.ScheduledEntry{CourseRequest: course(), RoomID: 1, TeacherID: 1, DurationHours: 4})
	require.NoError(t, err)

	_, _, err = store.Commit(models.Friday, models.PeriodPM, models.ScheduledEntry{CourseRequest: course(), RoomID: 2, TeacherID: 3, DurationHours: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSlotOccupied)

	stored, _ := store.Get(models.Friday, models.PeriodPM)
	assert.Equal(t, first.ID, stored.ID)
	alice, _ := catalog.FindTeacher(1)
	chloe, _ := catalog.FindTeacher(3)
	assert.Equal(t, 24.0, alice.HoursDone)
	assert.Equal(t, 0.0, chloe.HoursDone)
}

func TestTimetableCommitBudgetGuard(t *testing.T) {
	catalog := fixtureCatalog()
	store := NewTimetableStore(catalog, nil)

	_, _, err := store.Commit(models.Tuesday, models.PeriodAM, models.ScheduledEntry{CourseRequest: course(), RoomID: 2, TeacherID: 2, DurationHours: 6})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInsufficientTeacherHours)
	assert.Equal(t, 5.0, appErrors.FromError(err).Details["remainingHours"])

	_, ok := store.Get(models.Tuesday, models.PeriodAM)
	assert.False(t, ok)
	bruno, _ := catalog.FindTeacher(2)
	assert.Equal(t, 95.0, bruno.HoursDone)

	_, teacher, err := store.Commit(models.Tuesday, models.PeriodAM, models.ScheduledEntry{CourseRequest: course(), RoomID: 2, TeacherID: 2, DurationHours: 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, teacher.HoursRemaining())
}

func TestTimetableCommitUnknownReferences(t *testing.T) {
	catalog := fixtureCatalog()
	store := NewTimetableStore(catalog, nil)

	_, _, err := store.Commit(models.Wednesday, models.PeriodAM, models.ScheduledEntry{CourseRequest: course(), RoomID: 99, TeacherID: 1, DurationHours: 4})
	assert.ErrorIs(t, err, appErrors.ErrUnknownRoom)

	_, _, err = store.Commit(models.Wednesday, models.PeriodAM, models.ScheduledEntry{CourseRequest: course(), RoomID: 1, TeacherID: 99, DurationHours: 4})
	assert.ErrorIs(t, err, appErrors.ErrUnknownTeacher)

	_, _, err = store.Commit(models.Day("SUNDAY"), models.PeriodAM, models.ScheduledEntry{CourseRequest: course(), RoomID: 1, TeacherID: 1, DurationHours: 4})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = store.Commit(models.Wednesday, models.PeriodAM, models.ScheduledEntry{CourseRequest: course(), RoomID: 1, TeacherID: 1})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Zero(t, store.Occupied())
	alice, _ := catalog.FindTeacher(1)
	assert.Equal(t, 20.0, alice.HoursDone)
}

func TestTimetableCommitRejectsNonFiniteDuration(t *testing.T) {
	catalog := fixtureCatalog()
	store := NewTimetableStore(catalog, nil)

	for _, d := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -2} {
		_, _, err := store.Commit(models.Thursday, models.PeriodPM, models.ScheduledEntry{CourseRequest: course(), RoomID: 1, TeacherID: 1, DurationHours: d})
		assert.ErrorIs(t, err, appErrors.ErrValidation, "duration %v", d)
	}

	assert.Zero(t, store.Occupied())
	alice, _ := catalog.FindTeacher(1)
	assert.Equal(t, 20.0, alice.HoursDone)
}

func TestTimetableGridOrder(t *testing.T) {
	store := NewTimetableStore(fixtureCatalog(), nil)
	_, _, err := store.Commit(models.Saturday, models.PeriodPM, models.ScheduledEntry{CourseRequest: course(), RoomID: 1, TeacherID: 1, DurationHours: 2})
	require.NoError(t, err)

	grid := store.Grid()
	require.Len(t, grid, 12)
	assert.Equal(t, models.SlotKey{Day: models.Monday, Period: models.PeriodAM}, grid[0].SlotKey)
	assert.Equal(t, models.SlotKey{Day: models.Monday, Period: models.PeriodPM}, grid[1].SlotKey)
	assert.Nil(t, grid[0].Entry)
	require.NotNil(t, grid[11].Entry)
	assert.Equal(t, "Réseaux", grid[11].Entry.Subject)
}

func TestTimetableConcurrentCommitsKeepSlotExclusive(t *testing.T) {
	catalog := fixtureCatalog()
	store := NewTimetableStore(catalog, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, occupied := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Commit(models.Thursday, models.PeriodAM, models.ScheduledEntry{CourseRequest: course(), RoomID: 1, TeacherID: 3, DurationHours: 2})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if appErrors.FromError(err).Code == appErrors.ErrSlotOccupied.Code {
				occupied++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 19, occupied)
	chloe, _ := catalog.FindTeacher(3)
	assert.Equal(t, 2.0, chloe.HoursDone)
}
