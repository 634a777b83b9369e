package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

const (
	defaultRecommendationLimit = 3
	recommendationCachePrefix  = "recommendations:"

	scoreProgramMatch = 2
	scoreSubjectMatch = 3
	scoreAvailable    = 1
	scoreNearlySpent  = -2
	nearlySpentHours  = 10
)

type catalogSnapshotter interface {
	Snapshot() CatalogSnapshot
	SubjectsFor(program string, level int) []string
}

// RecommendationService ranks rooms and teachers for a course request.
type RecommendationService struct {
	catalog   catalogSnapshotter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	limit     int
	logger    *zap.Logger
}

// NewRecommendationService constructs a RecommendationService. limit falls back
// to 3 when not positive.
func NewRecommendationService(catalog catalogSnapshotter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, limit int, logger *zap.Logger) *RecommendationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}
	return &RecommendationService{catalog: catalog, cache: cache, metrics: metrics, validator: validate, limit: limit, logger: logger}
}

// Recommend returns the top rooms and teachers for req. Results for an unchanged
// catalog are identical and may come from cache.
func (s *RecommendationService) Recommend(ctx context.Context, req dto.RecommendationRequest) (*dto.RecommendationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recommendation request")
	}

	snapshot := s.catalog.Snapshot()
	key := recommendationCacheKey(snapshot.Version, req.CourseRequest, s.limit)

	var cached dto.RecommendationResponse
	if s.cache.Get(ctx, key, &cached) {
		s.metrics.RecordRecommendation("cache")
		return &cached, nil
	}

	resp := &dto.RecommendationResponse{
		Rooms:          RecommendRooms(snapshot.Rooms, req.Headcount, s.limit),
		Teachers:       RecommendTeachers(snapshot.Teachers, req.Program, req.Subject, s.limit),
		Subjects:       s.catalog.SubjectsFor(req.Program, req.Level),
		CatalogVersion: snapshot.Version,
	}
	s.cache.Set(ctx, key, resp, 0)
	s.metrics.RecordRecommendation("engine")
	s.logger.Debug("recommendation computed",
		zap.String("program", req.Program),
		zap.String("subject", req.Subject),
		zap.Int("headcount", req.Headcount),
		zap.String("catalog_version", snapshot.Version),
	)
	return resp, nil
}

// RecommendRooms keeps rooms seating at least headcount, tightest first. When no
// room fits, the whole list is returned in catalog order. At most limit rooms
// are returned.
func RecommendRooms(rooms []models.Room, headcount, limit int) []dto.RoomCandidate {
	fitting := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.Capacity >= headcount {
			fitting = append(fitting, r)
		}
	}
	if len(fitting) > 0 {
		sort.SliceStable(fitting, func(i, j int) bool { return fitting[i].Capacity < fitting[j].Capacity })
	} else {
		fitting = rooms
	}

	out := make([]dto.RoomCandidate, 0, min(limit, len(fitting)))
	for _, r := range fitting {
		if len(out) == limit {
			break
		}
		out = append(out, dto.RoomCandidate{Room: r, Fits: r.Capacity >= headcount})
	}
	return out
}

// ScoreTeacher rates a teacher for a program and subject.
func ScoreTeacher(t models.Teacher, program, subject string) int {
	score := 0
	if t.InProgram(program) {
		score += scoreProgramMatch
	}
	if t.Teaches(subject) {
		score += scoreSubjectMatch
	}
	remaining := t.HoursRemaining()
	if remaining > 0 {
		score += scoreAvailable
		if remaining < nearlySpentHours {
			score += scoreNearlySpent
		}
	}
	return score
}

// RecommendTeachers scores every teacher and returns the best limit, highest
// score first with catalog order breaking ties.
func RecommendTeachers(teachers []models.Teacher, program, subject string, limit int) []dto.TeacherCandidate {
	ranked := make([]dto.TeacherCandidate, len(teachers))
	for i, t := range teachers {
		ranked[i] = dto.TeacherCandidate{Teacher: t, Score: ScoreTeacher(t, program, subject)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func recommendationCacheKey(version string, req models.CourseRequest, limit int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%s|%d|%d", req.Program, req.Level, req.Subject, req.Headcount, limit)))
	return recommendationCachePrefix + version + ":" + hex.EncodeToString(sum[:8])
}
