package models

// Student statuses used by the registry exports.
const (
	StatusAdmitted  = "Admis"
	StatusDeferred  = "Ajour."
	PassingAverage  = 10.0
	SeniorLevelFrom = 3
)

// Student is a row of the imported student sample used by the dashboard.
type Student struct {
	Matricule         string   `json:"matricule"`
	Name              string   `json:"name"`
	Program           string   `json:"program"`
	Level             int      `json:"level"`
	Average           *float64 `json:"average"`
	Presence          *float64 `json:"presence"`
	Projects          int      `json:"projects"`
	Distance          string   `json:"distance,omitempty"`
	Works             bool     `json:"works"`
	Status            string   `json:"status"`
	ValidatedSubjects int      `json:"validated_subjects"`
	Credits           int      `json:"credits"`
}

// RequiredCredits is the credit threshold for passing the student's level.
func (s Student) RequiredCredits() int {
	if s.Level >= SeniorLevelFrom {
		return 60
	}
	return 45
}

// Succeeded reports success: an explicit "Admis" status, or, when no status was
// recorded, enough credits for the level.
func (s Student) Succeeded() bool {
	if s.Status != "" {
		return s.Status == StatusAdmitted
	}
	return s.Credits > 0 && s.Credits >= s.RequiredCredits()
}
