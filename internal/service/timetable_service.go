package service

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

type hourLedger interface {
	FindRoom(id int) (models.Room, bool)
	DebitHours(teacherID int, hours float64) (models.Teacher, error)
}

// TimetableStore is the weekly grid. A commit writes the slot and debits the
// teacher's hours inside one critical section, so either both happen or neither.
type TimetableStore struct {
	mu      sync.Mutex
	slots   map[models.SlotKey]models.ScheduledEntry
	catalog hourLedger
	now     func() time.Time
	logger  *zap.Logger
}

// NewTimetableStore constructs an empty TimetableStore.
func NewTimetableStore(catalog hourLedger, logger *zap.Logger) *TimetableStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableStore{
		slots:   make(map[models.SlotKey]models.ScheduledEntry, len(models.Days)*len(models.Periods)),
		catalog: catalog,
		now:     time.Now,
		logger:  logger,
	}
}

// Commit places entry into (day, period). It fails without side effects when the
// slot is taken, the room or teacher is unknown, or the teacher's remaining hours
// are below entry.DurationHours.
func (s *TimetableStore) Commit(day models.Day, period models.Period, entry models.ScheduledEntry) (models.ScheduledEntry, models.Teacher, error) {
	key := models.SlotKey{Day: day, Period: period}
	if !validSlot(key) {
		return models.ScheduledEntry{}, models.Teacher{}, appErrors.Clone(appErrors.ErrValidation, "unknown slot "+key.String())
	}
	if !(entry.DurationHours > 0) || math.IsInf(entry.DurationHours, 0) {
		return models.ScheduledEntry{}, models.Teacher{}, appErrors.Clone(appErrors.ErrValidation, "duration must be a positive number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, taken := s.slots[key]; taken {
		return models.ScheduledEntry{}, models.Teacher{}, appErrors.ErrSlotOccupied.
			WithDetails("slot", key.String()).
			WithDetails("entryId", existing.ID)
	}
	room, ok := s.catalog.FindRoom(entry.RoomID)
	if !ok {
		return models.ScheduledEntry{}, models.Teacher{}, appErrors.ErrUnknownRoom.WithDetails("roomId", entry.RoomID)
	}
	teacher, err := s.catalog.DebitHours(entry.TeacherID, entry.DurationHours)
	if err != nil {
		return models.ScheduledEntry{}, models.Teacher{}, err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Day, entry.Period = day, period
	entry.RoomName = room.Name
	entry.TeacherName = teacher.Name
	entry.CommittedAt = s.now().UTC()
	s.slots[key] = entry

	s.logger.Info("timetable slot committed",
		zap.String("slot", key.String()),
		zap.String("entry_id", entry.ID),
		zap.Int("teacher_id", teacher.ID),
		zap.Int("room_id", room.ID),
		zap.Float64("hours_remaining", teacher.HoursRemaining()),
	)
	return entry, teacher, nil
}

// Get returns the entry in a slot, if any.
func (s *TimetableStore) Get(day models.Day, period models.Period) (models.ScheduledEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.slots[models.SlotKey{Day: day, Period: period}]
	return e, ok
}

// Grid lists all slots in day-major order, empty ones included.
func (s *TimetableStore) Grid() []models.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Slot, 0, len(models.Days)*len(models.Periods))
	for _, d := range models.Days {
		for _, p := range models.Periods {
			key := models.SlotKey{Day: d, Period: p}
			slot := models.Slot{SlotKey: key, Label: p.Label()}
			if e, ok := s.slots[key]; ok {
				entry := e
				slot.Entry = &entry
			}
			out = append(out, slot)
		}
	}
	return out
}

// Occupied counts committed slots.
func (s *TimetableStore) Occupied() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func validSlot(key models.SlotKey) bool {
	dayOK, periodOK := false, false
	for _, d := range models.Days {
		dayOK = dayOK || d == key.Day
	}
	for _, p := range models.Periods {
		periodOK = periodOK || p == key.Period
	}
	return dayOK && periodOK
}
