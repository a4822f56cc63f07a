package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Report struct {
	PersonalInformation PersonalInformation
	Skills              Skills
	Experience          []Experience
	Education           []Education
	ATSScoring          ATSScoring
	FeedbackCalibration FeedbackCalibration
}

type PersonalInformation struct {
	FullName string
	Email    string
	Phone    string
	Links    ProfessionalLinks
}

type ProfessionalLinks struct {
	LinkedIn  string
	GitHub    string
	Portfolio string
}

type Skills struct {
	Technical []string
	Soft      []string
	Tools     []string
}

type Experience struct {
	Company      string
	Role         string
	Start        string
	End          string
	Achievements []string
	Technologies []string
}

type Education struct {
	Degree      string
	Institution string
	Year        string
	Relevance   *float64
}

type ATSScoring struct {
	TotalScore       *float64
	SectionScores    SectionScores
	DetailedFeedback DetailedFeedback
}

type SectionScores struct {
	TechnicalContent    *float64
	Optimization        *float64
	DocumentEngineering *float64
}

type DetailedFeedback struct {
	Strengths       []string
	Improvements    []string
	CriticalMissing []string
}

type FeedbackCalibration struct {
	ScoreRange                      string
	TopStrongestElements            []string
	SpecificImprovementAreas        []string
	IndustrySpecificRecommendations []string
	KeywordOptimizationSuggestions  []string
	TechnicalDepthEnhancementTips   []string
}

// Typed reads the report into concrete types. Missing or mistyped fields are
// left at their zero value instead of failing the whole decode.
func (r *Result) Typed() Report {
	a := r.ResumeData.Analysis
	personal := object(a, "personal_information")
	links := object(personal, "professional_links")
	skills := object(a, "skills")
	scoring := object(a, "ats_scoring")
	sections := object(scoring, "section_scores")
	feedback := object(scoring, "detailed_feedback")
	fc := r.FeedbackCalibration

	out := Report{
		PersonalInformation: PersonalInformation{
			FullName: text(personal, "full_name"),
			Email:    text(personal, "email"),
			Phone:    text(personal, "phone"),
			Links: ProfessionalLinks{
				LinkedIn:  text(links, "linkedin"),
				GitHub:    text(links, "github"),
				Portfolio: text(links, "portfolio"),
			},
		},
		Skills: Skills{
			Technical: texts(skills, "technical"),
			Soft:      texts(skills, "soft"),
			Tools:     texts(skills, "tools"),
		},
		ATSScoring: ATSScoring{
			TotalScore: number(scoring, "total_score"),
			SectionScores: SectionScores{
				TechnicalContent:    number(sections, "technical_content"),
				Optimization:        number(sections, "optimization"),
				DocumentEngineering: number(sections, "document_engineering"),
			},
			DetailedFeedback: DetailedFeedback{
				Strengths:       texts(feedback, "strengths"),
				Improvements:    texts(feedback, "improvements"),
				CriticalMissing: texts(feedback, "critical_missing"),
			},
		},
		FeedbackCalibration: FeedbackCalibration{
			ScoreRange:                      text(fc, "scoreRange"),
			TopStrongestElements:            texts(fc, "topStrongestElements"),
			SpecificImprovementAreas:        texts(fc, "specificImprovementAreas"),
			IndustrySpecificRecommendations: texts(fc, "industrySpecificRecommendations"),
			KeywordOptimizationSuggestions:  texts(fc, "keywordOptimizationSuggestions"),
			TechnicalDepthEnhancementTips:   texts(fc, "technicalDepthEnhancementTips"),
		},
	}

	for _, item := range objects(a, "experience") {
		duration := object(item, "duration")
		out.Experience = append(out.Experience, Experience{
			Company:      text(item, "company"),
			Role:         text(item, "role"),
			Start:        text(duration, "start"),
			End:          text(duration, "end"),
			Achievements: texts(item, "achievements"),
			Technologies: texts(item, "technologies"),
		})
	}

	for _, item := range objects(a, "education") {
		out.Education = append(out.Education, Education{
			Degree:      text(item, "degree"),
			Institution: text(item, "institution"),
			Year:        text(item, "year"),
			Relevance:   number(item, "relevance"),
		})
	}

	return out
}

// TotalScore is a shortcut for the ats_scoring.total_score value.
func (r *Result) TotalScore() *float64 {
	return number(object(r.ResumeData.Analysis, "ats_scoring"), "total_score")
}

func object(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func objects(m map[string]any, key string) []map[string]any {
	if m == nil {
		return nil
	}
	list, _ := m[key].([]any)
	var out []map[string]any
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func text(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	return stringify(m[key])
}

func texts(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func number(m map[string]any, key string) *float64 {
	if m == nil {
		return nil
	}
	var f float64
	var err error
	switch v := m[key].(type) {
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return &f
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
