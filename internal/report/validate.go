package report

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// scoreTolerance absorbs rounding in model-produced section scores.
const scoreTolerance = 0.5

// Validate checks a sanitized report against the expected shape and the
// scoring rules given to the model. Problems are returned as warnings: the
// report is still served, only the two top-level keys are mandatory.
func Validate(r *Result) []string {
	var warnings []string

	schema, err := loadSchema()
	if err != nil {
		return []string{fmt.Sprintf("report schema unavailable: %v", err)}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(r.Payload()))
	if err != nil {
		return []string{fmt.Sprintf("failed to validate report: %v", err)}
	}
	for _, desc := range result.Errors() {
		warnings = append(warnings, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	sort.Strings(warnings)

	warnings = append(warnings, scoringWarnings(r.Typed().ATSScoring)...)
	return warnings
}

func scoringWarnings(s ATSScoring) []string {
	if s.TotalScore == nil {
		return nil
	}

	total := *s.TotalScore
	parts := []*float64{
		s.SectionScores.TechnicalContent,
		s.SectionScores.Optimization,
		s.SectionScores.DocumentEngineering,
	}
	var sum float64
	for _, p := range parts {
		if p == nil {
			return nil
		}
		sum += *p
	}
	if math.Abs(sum-total) > scoreTolerance {
		return []string{fmt.Sprintf("section scores sum to %g but total_score is %g", sum, total)}
	}
	return nil
}
