package service

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/internal/models"
)

const dashboardSampleSize = 3

var averageBuckets = []struct {
	label string
	upper float64
}{
	{"0-5", 5},
	{"5-10", 10},
	{"10-12", 12},
	{"12-14", 14},
	{"14-16", 16},
	{"16-20", math.Inf(1)},
}

// StudentService holds the imported student sample and derives dashboard
// indicators from it. Each import replaces the sample wholesale.
type StudentService struct {
	mu       sync.RWMutex
	students []models.Student
	rngMu    sync.Mutex
	rng      *rand.Rand
}

// NewStudentService constructs an empty StudentService. seed drives the dashboard
// sample; 0 seeds from the clock.
func NewStudentService(seed int64) *StudentService {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &StudentService{rng: rand.New(rand.NewSource(seed))}
}

func (s *StudentService) Replace(students []models.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = append([]models.Student(nil), students...)
}

func (s *StudentService) List() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Student(nil), s.students...)
}

// Dashboard computes the indicators. Sample holds up to three random rows and
// has no bearing on the other figures.
func (s *StudentService) Dashboard() dto.DashboardResponse {
	students := s.List()
	resp := dto.DashboardResponse{
		Total:            len(students),
		ByProgram:        []dto.Bucket{},
		AverageHistogram: make([]dto.Bucket, len(averageBuckets)),
		ByLevel:          []dto.LevelRate{},
		Sample:           []models.Student{},
	}
	for i, b := range averageBuckets {
		resp.AverageHistogram[i].Label = b.label
	}
	if len(students) == 0 {
		return resp
	}

	var sum float64
	var withAverage, succeeded int
	programs := map[string]int{}
	type levelTally struct{ total, ok int }
	levels := map[int]*levelTally{}

	for _, st := range students {
		if st.Average != nil {
			sum += *st.Average
			withAverage++
			resp.AverageHistogram[bucketFor(*st.Average)].Count++
		}
		ok := st.Succeeded()
		if ok {
			succeeded++
		}
		if st.Program != "" {
			programs[st.Program]++
		}
		if st.Level > 0 {
			tally, exists := levels[st.Level]
			if !exists {
				tally = &levelTally{}
				levels[st.Level] = tally
			}
			tally.total++
			if ok {
				tally.ok++
			}
		}
	}

	if withAverage > 0 {
		avg := round1(sum / float64(withAverage))
		resp.GeneralAverage = &avg
	}
	resp.SuccessRate = round1(float64(succeeded) / float64(len(students)) * 100)

	for name, count := range programs {
		resp.ByProgram = append(resp.ByProgram, dto.Bucket{Label: name, Count: count})
	}
	sort.Slice(resp.ByProgram, func(i, j int) bool {
		if resp.ByProgram[i].Count != resp.ByProgram[j].Count {
			return resp.ByProgram[i].Count > resp.ByProgram[j].Count
		}
		return resp.ByProgram[i].Label < resp.ByProgram[j].Label
	})

	for level, tally := range levels {
		resp.ByLevel = append(resp.ByLevel, dto.LevelRate{
			Level:       level,
			Students:    tally.total,
			SuccessRate: round1(float64(tally.ok) / float64(tally.total) * 100),
		})
	}
	sort.Slice(resp.ByLevel, func(i, j int) bool { return resp.ByLevel[i].Level < resp.ByLevel[j].Level })

	resp.Sample = s.sample(students)
	return resp
}

func (s *StudentService) sample(students []models.Student) []models.Student {
	s.rngMu.Lock()
	perm := s.rng.Perm(len(students))
	s.rngMu.Unlock()

	n := min(dashboardSampleSize, len(students))
	out := make([]models.Student, n)
	for i := 0; i < n; i++ {
		out[i] = students[perm[i]]
	}
	return out
}

func bucketFor(avg float64) int {
	for i, b := range averageBuckets {
		if avg < b.upper {
			return i
		}
	}
	return len(averageBuckets) - 1
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
