package api

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// reportSchema pins the shape of a completed job's result. The backend owns
// the scoring; this guard only rejects payloads that could not render.
const reportSchema = `{
	"type": "object",
	"required": ["cvEvaluation", "projectEvaluation", "finalScore", "overallSummary"],
	"properties": {
		"cvEvaluation": {
			"type": "object",
			"required": ["technicalSkillsMatch", "experienceLevel", "relevantAchievements", "culturalFit"],
			"properties": {
				"technicalSkillsMatch": {"$ref": "#/definitions/scoreDetail"},
				"experienceLevel": {"$ref": "#/definitions/scoreDetail"},
				"relevantAchievements": {"$ref": "#/definitions/scoreDetail"},
				"culturalFit": {"$ref": "#/definitions/scoreDetail"}
			}
		},
		"projectEvaluation": {
			"type": "object",
			"required": ["correctness", "codeQuality", "resilience", "documentation", "creativity"],
			"properties": {
				"correctness": {"$ref": "#/definitions/scoreDetail"},
				"codeQuality": {"$ref": "#/definitions/scoreDetail"},
				"resilience": {"$ref": "#/definitions/scoreDetail"},
				"documentation": {"$ref": "#/definitions/scoreDetail"},
				"creativity": {"$ref": "#/definitions/scoreDetail"}
			}
		},
		"finalScore": {
			"type": "object",
			"required": ["cvScore", "projectScore", "overallScore"],
			"properties": {
				"cvScore": {"type": "number", "minimum": 0, "maximum": 5},
				"projectScore": {"type": "number", "minimum": 0, "maximum": 5},
				"overallScore": {"type": "number", "minimum": 0, "maximum": 5}
			}
		},
		"overallSummary": {"type": "string"}
	},
	"definitions": {
		"scoreDetail": {
			"type": "object",
			"required": ["score", "details"],
			"properties": {
				"score": {"type": "number", "minimum": 0, "maximum": 5},
				"details": {"type": "string"}
			}
		}
	}
}`

var compiledReportSchema = gojsonschema.NewStringLoader(reportSchema)

// validateReportPayload checks a raw result document against reportSchema.
func validateReportPayload(raw []byte) error {
	result, err := gojsonschema.Validate(compiledReportSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("report validation failed: %v", errs)
	}
	return nil
}
