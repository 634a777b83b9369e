package service

import (
	"math"

	"github.com/noah-isme/academic-planner-api/internal/dto"
)

const (
	defaultPreviousAverage = 12.0
	predictionCenter       = 12.0
	predictionSlope        = 0.6
)

// Predict estimates a student's average and probability of success from a
// handful of profile indicators. It is a fixed heuristic, not a trained model.
func Predict(req dto.PredictionRequest) dto.PredictionResponse {
	att := clamp(valueOr(req.Attendance, 0), 0, 100)
	study := clamp(valueOr(req.StudyHours, 0), 0, 80)
	part := clamp(valueOr(req.Participation, 0), 0, 10)
	prev := clamp(valueOr(req.PreviousAverage, defaultPreviousAverage), 0, 20)

	avg := 0.25*(att/5) + 0.2*(study/4) + 0.2*(part*2) + 0.35*prev
	avg = clamp(avg, 0, 20)

	prob := 1 / (1 + math.Exp(-predictionSlope*(avg-predictionCenter)))
	percent := int(math.Round(prob * 100))

	resp := dto.PredictionResponse{EstimatedAverage: round1(avg), SuccessPercent: percent}
	switch {
	case percent >= 75:
		resp.Tier = "high"
		resp.Message = "Selon les données saisies, cet étudiant présente une probabilité élevée de réussite académique."
	case percent >= 50:
		resp.Tier = "moderate"
		resp.Message = "Selon les données saisies, cet étudiant présente une probabilité modérée de réussite académique. Un accompagnement ciblé peut améliorer ses résultats."
	default:
		resp.Tier = "low"
		resp.Message = "Selon les données saisies, cet étudiant présente une probabilité faible de réussite académique. Un suivi rapproché et un plan de remédiation sont recommandés."
	}
	return resp
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return fallback
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
