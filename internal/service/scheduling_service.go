package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

// Event types pushed to realtime subscribers.
const (
	EventTimetableCommitted = "timetable.committed"
	EventTeachersImported   = "teachers.imported"
	EventStudentsImported   = "students.imported"
)

// EventPublisher fans events out to connected dashboards.
type EventPublisher interface {
	Publish(eventType string, payload interface{})
}

type schedulingCatalog interface {
	ListRooms() []models.Room
	ListTeachers() []models.Teacher
	FindRoom(id int) (models.Room, bool)
}

type timetableCommitter interface {
	Get(day models.Day, period models.Period) (models.ScheduledEntry, bool)
	Commit(day models.Day, period models.Period, entry models.ScheduledEntry) (models.ScheduledEntry, models.Teacher, error)
	Grid() []models.Slot
	Occupied() int
}

// SchedulingService turns a ScheduleRequest into a timetable commit.
type SchedulingService struct {
	catalog      schedulingCatalog
	store        timetableCommitter
	cache        *CacheService
	metrics      *MetricsService
	publisher    EventPublisher
	validator    *validator.Validate
	sessionHours float64
	logger       *zap.Logger
}

// NewSchedulingService constructs a SchedulingService.
func NewSchedulingService(catalog schedulingCatalog, store timetableCommitter, cache *CacheService, metrics *MetricsService, publisher EventPublisher, validate *validator.Validate, sessionHours float64, logger *zap.Logger) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionHours <= 0 {
		sessionHours = 4
	}
	return &SchedulingService{
		catalog:      catalog,
		store:        store,
		cache:        cache,
		metrics:      metrics,
		publisher:    publisher,
		validator:    validate,
		sessionHours: sessionHours,
		logger:       logger,
	}
}

// Schedule resolves missing teacher and room choices, checks that the room seats
// the headcount and commits the entry. An occupied slot is reported before any
// room or teacher problem; the store re-checks it under its lock.
func (s *SchedulingService) Schedule(ctx context.Context, req dto.ScheduleRequest) (*dto.ScheduleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule request")
	}
	day, err := models.ParseDay(req.Day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	period, err := models.ParsePeriod(req.Period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	if existing, taken := s.store.Get(day, period); taken {
		return nil, s.fail(appErrors.ErrSlotOccupied.
			WithDetails("slot", models.SlotKey{Day: day, Period: period}.String()).
			WithDetails("entryId", existing.ID))
	}

	teacherID, err := s.resolveTeacher(req)
	if err != nil {
		return nil, s.fail(err)
	}
	room, err := s.resolveRoom(req)
	if err != nil {
		return nil, s.fail(err)
	}
	if room.Capacity < req.Headcount {
		return nil, s.fail(appErrors.ErrRoomCapacityInsufficient.
			WithDetails("roomId", room.ID).
			WithDetails("capacity", room.Capacity).
			WithDetails("headcount", req.Headcount))
	}

	duration := s.sessionHours
	if req.DurationHours != nil {
		duration = *req.DurationHours
	}

	entry, teacher, err := s.store.Commit(day, period, models.ScheduledEntry{
		CourseRequest: req.CourseRequest,
		RoomID:        room.ID,
		TeacherID:     teacherID,
		DurationHours: duration,
		CommittedBy:   req.Actor,
	})
	if err != nil {
		return nil, s.fail(err)
	}

	s.metrics.RecordCommit("committed", s.store.Occupied())
	s.cache.Invalidate(ctx, recommendationCachePrefix+"*")
	result := &dto.ScheduleResult{Entry: entry, Teacher: teacher, Room: room}
	if s.publisher != nil {
		s.publisher.Publish(EventTimetableCommitted, result)
	}
	return result, nil
}

// Timetable returns the current grid.
func (s *SchedulingService) Timetable() dto.TimetableView {
	slots := s.store.Grid()
	occupied := 0
	for _, slot := range slots {
		if slot.Entry != nil {
			occupied++
		}
	}
	return dto.TimetableView{Days: models.Days, Periods: models.Periods, Slots: slots, Occupied: occupied}
}

func (s *SchedulingService) resolveTeacher(req dto.ScheduleRequest) (int, error) {
	if req.TeacherID != nil {
		return *req.TeacherID, nil
	}
	teachers := s.catalog.ListTeachers()
	if len(teachers) == 0 {
		return 0, appErrors.Clone(appErrors.ErrUnknownTeacher, "catalog has no teachers")
	}
	for _, t := range teachers {
		if t.Teaches(req.Subject) {
			return t.ID, nil
		}
	}
	return teachers[0].ID, nil
}

func (s *SchedulingService) resolveRoom(req dto.ScheduleRequest) (models.Room, error) {
	if req.RoomID != nil {
		room, ok := s.catalog.FindRoom(*req.RoomID)
		if !ok {
			return models.Room{}, appErrors.ErrUnknownRoom.WithDetails("roomId", *req.RoomID)
		}
		return room, nil
	}
	rooms := s.catalog.ListRooms()
	if len(rooms) == 0 {
		return models.Room{}, appErrors.Clone(appErrors.ErrUnknownRoom, "catalog has no rooms")
	}
	for _, r := range rooms {
		if r.Capacity >= req.Headcount {
			return r, nil
		}
	}
	return rooms[0], nil
}

func (s *SchedulingService) fail(err error) error {
	outcome := "error"
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		outcome = appErr.Code
	}
	s.metrics.RecordCommit(outcome, s.store.Occupied())
	s.logger.Info("schedule rejected", zap.String("outcome", outcome), zap.Error(err))
	return err
}
