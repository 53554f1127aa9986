// Package report renders a scored evaluation as a plain-text report.
package report

import (
	"fmt"
	"strings"

	"cv-evaluator-client/internal/models"
)

// Render formats the full score report for terminal output.
func Render(jobTitle string, r *models.ScoredReport) string {
	var b strings.Builder

	writeHeader(&b, jobTitle, r)

	b.WriteString("CV Evaluation\n")
	writeDetail(&b, "Technical skills match", weightTechnicalSkills, r.CVEvaluation.TechnicalSkillsMatch)
	writeDetail(&b, "Experience level", weightExperienceLevel, r.CVEvaluation.ExperienceLevel)
	writeDetail(&b, "Relevant achievements", weightAchievements, r.CVEvaluation.RelevantAchievements)
	writeDetail(&b, "Cultural fit", weightCulturalFit, r.CVEvaluation.CulturalFit)
	b.WriteString("\n")

	b.WriteString("Project Evaluation\n")
	writeDetail(&b, "Correctness", weightCorrectness, r.ProjectEvaluation.Correctness)
	writeDetail(&b, "Code quality", weightCodeQuality, r.ProjectEvaluation.CodeQuality)
	writeDetail(&b, "Resilience", weightResilience, r.ProjectEvaluation.Resilience)
	writeDetail(&b, "Documentation", weightDocumentation, r.ProjectEvaluation.Documentation)
	writeDetail(&b, "Creativity", weightCreativity, r.ProjectEvaluation.Creativity)
	b.WriteString("\n")

	if r.OverallSummary != "" {
		b.WriteString("Summary\n")
		fmt.Fprintf(&b, "  %s\n", r.OverallSummary)
	}

	return b.String()
}

func writeHeader(b *strings.Builder, jobTitle string, r *models.ScoredReport) {
	b.WriteString("Evaluation Report\n")
	if jobTitle != "" {
		fmt.Fprintf(b, "Position: %s\n", jobTitle)
	}
	b.WriteString("\n")

	fs := r.FinalScore
	fmt.Fprintf(b, "  Overall:  %.1f / 5  (%s)\n", fs.OverallScore, models.ScoreLabel(fs.OverallScore))
	fmt.Fprintf(b, "  CV:       %.1f / 5  (%s)\n", fs.CVScore, models.ScoreLabel(fs.CVScore))
	fmt.Fprintf(b, "  Project:  %.1f / 5  (%s)\n", fs.ProjectScore, models.ScoreLabel(fs.ProjectScore))
	fmt.Fprintf(b, "  Verdict:  %s\n\n", models.RecommendationFor(fs.OverallScore))
}

// Per-dimension weight percentages of the backend's scoring formula. Shown
// for context only; the aggregates arrive precomputed.
const (
	weightTechnicalSkills = 40
	weightExperienceLevel = 25
	weightAchievements    = 20
	weightCulturalFit     = 15

	weightCorrectness   = 30
	weightCodeQuality   = 25
	weightResilience    = 20
	weightDocumentation = 15
	weightCreativity    = 10
)

func writeDetail(b *strings.Builder, label string, weight int, d models.ScoreDetail) {
	fmt.Fprintf(b, "  %-24s %.1f / 5  (%s)  [weight %d%%]\n", label, d.Score, models.ScoreLabel(d.Score), weight)
	if d.Details != "" {
		fmt.Fprintf(b, "    %s\n", d.Details)
	}
}
