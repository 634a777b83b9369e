package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func sampleStudents() []models.Student {
	return []models.Student{
		{Matricule: "A", Program: "GIT", Level: 1, Average: floatPtr(12.5), Status: models.StatusAdmitted},
		{Matricule: "B", Program: "GIT", Level: 3, Average: floatPtr(8), Status: models.StatusDeferred},
		{Matricule: "C", Program: "SDIA", Level: 3, Credits: 60},
		{Matricule: "D", Program: "SDIA", Level: 2, Average: floatPtr(16), Credits: 40},
	}
}

func TestDashboardIndicators(t *testing.T) {
	svc := NewStudentService(7)
	svc.Replace(sampleStudents())

	dash := svc.Dashboard()
	assert.Equal(t, 4, dash.Total)
	require.NotNil(t, dash.GeneralAverage)
	assert.Equal(t, 12.2, *dash.GeneralAverage)
	assert.Equal(t, 50.0, dash.SuccessRate)

	require.Len(t, dash.ByProgram, 2)
	assert.Equal(t, "GIT", dash.ByProgram[0].Label)
	assert.Equal(t, 2, dash.ByProgram[0].Count)

	counts := map[string]int{}
	for _, b := range dash.AverageHistogram {
		counts[b.Label] = b.Count
	}
	assert.Equal(t, map[string]int{"0-5": 0, "5-10": 1, "10-12": 0, "12-14": 1, "14-16": 0, "16-20": 1}, counts)

	require.Len(t, dash.ByLevel, 3)
	assert.Equal(t, 1, dash.ByLevel[0].Level)
	assert.Equal(t, 100.0, dash.ByLevel[0].SuccessRate)
	assert.Equal(t, 0.0, dash.ByLevel[1].SuccessRate)
	assert.Equal(t, 2, dash.ByLevel[2].Students)
	assert.Equal(t, 50.0, dash.ByLevel[2].SuccessRate)

	require.Len(t, dash.Sample, 3)
	seen := map[string]bool{}
	for _, st := range dash.Sample {
		assert.False(t, seen[st.Matricule])
		seen[st.Matricule] = true
	}
}

func TestDashboardEmpty(t *testing.T) {
	dash := NewStudentService(1).Dashboard()

	assert.Zero(t, dash.Total)
	assert.Nil(t, dash.GeneralAverage)
	assert.Len(t, dash.AverageHistogram, 6)
	assert.NotNil(t, dash.ByProgram)
	assert.Empty(t, dash.Sample)
}

func TestStudentSucceededRules(t *testing.T) {
	assert.True(t, models.Student{Status: models.StatusAdmitted}.Succeeded())
	assert.False(t, models.Student{Status: models.StatusDeferred, Credits: 80}.Succeeded())
	assert.True(t, models.Student{Level: 2, Credits: 45}.Succeeded())
	assert.False(t, models.Student{Level: 3, Credits: 59}.Succeeded())
	assert.False(t, models.Student{}.Succeeded())
}

func TestBucketBoundaries(t *testing.T) {
	assert.Equal(t, 0, bucketFor(0))
	assert.Equal(t, 1, bucketFor(5))
	assert.Equal(t, 2, bucketFor(10))
	assert.Equal(t, 3, bucketFor(13.99))
	assert.Equal(t, 5, bucketFor(20))
}
