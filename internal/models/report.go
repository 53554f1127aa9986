package models

// ScoreDetail is one scored dimension with the evaluator's narrative.
type ScoreDetail struct {
	Score   float64 `json:"score"`
	Details string  `json:"details"`
}

// CVEvaluation holds the four CV sub-scores.
type CVEvaluation struct {
	TechnicalSkillsMatch ScoreDetail `json:"technicalSkillsMatch"`
	ExperienceLevel      ScoreDetail `json:"experienceLevel"`
	RelevantAchievements ScoreDetail `json:"relevantAchievements"`
	CulturalFit          ScoreDetail `json:"culturalFit"`
}

// ProjectEvaluation holds the five project sub-scores.
type ProjectEvaluation struct {
	Correctness   ScoreDetail `json:"correctness"`
	CodeQuality   ScoreDetail `json:"codeQuality"`
	Resilience    ScoreDetail `json:"resilience"`
	Documentation ScoreDetail `json:"documentation"`
	Creativity    ScoreDetail `json:"creativity"`
}

// FinalScore carries the backend-computed weighted aggregates. The weighting
// formula is server-side; clients display these values and never recompute them.
type FinalScore struct {
	CVScore      float64 `json:"cvScore"`
	ProjectScore float64 `json:"projectScore"`
	OverallScore float64 `json:"overallScore"`
}

// ScoredReport is the immutable evaluation result attached to a completed job.
type ScoredReport struct {
	CVEvaluation      CVEvaluation      `json:"cvEvaluation"`
	ProjectEvaluation ProjectEvaluation `json:"projectEvaluation"`
	FinalScore        FinalScore        `json:"finalScore"`
	OverallSummary    string            `json:"overallSummary"`
}

// Recommendation buckets an overall score for the summary view.
type Recommendation string

const (
	HighlyRecommended        Recommendation = "Highly Recommended"
	Recommended              Recommendation = "Recommended"
	ConsiderWithReservations Recommendation = "Consider with Reservations"
	NotRecommended           Recommendation = "Not Recommended"
)

// RecommendationFor classifies an overall score (0-5 scale) into the
// recommendation shown on the summary view.
func RecommendationFor(overall float64) Recommendation {
	switch {
	case overall >= 4.0:
		return HighlyRecommended
	case overall >= 3.0:
		return Recommended
	case overall >= 2.0:
		return ConsiderWithReservations
	default:
		return NotRecommended
	}
}

// ScoreLabel maps a 0-5 score to its qualitative label.
func ScoreLabel(score float64) string {
	switch {
	case score >= 4.5:
		return "Excellent"
	case score >= 3.5:
		return "Good"
	case score >= 2.5:
		return "Average"
	case score >= 1.5:
		return "Below Average"
	default:
		return "Poor"
	}
}
