package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildAnalysisPrompt_Default(t *testing.T) {
	p := NewPromptBuilder(0.7, 5500).BuildAnalysisPrompt("Jane Doe\nGo developer", "")

	assert.Equal(t, ResumeAnalysisPrompt, p.System)
	assert.Equal(t, "Jane Doe\nGo developer", p.User)
	assert.Equal(t, float32(0.7), p.Temperature)
	assert.Equal(t, 5500, p.MaxTokens)
	assert.NotContains(t, p.System, "REFERENCE GUIDANCE")
}

func TestBuildAnalysisPrompt_WithGuidance(t *testing.T) {
	p := NewPromptBuilder(0.7, 5500).BuildAnalysisPrompt("resume", "  Use action verbs.  ")

	assert.True(t, strings.HasPrefix(p.System, ResumeAnalysisPrompt))
	assert.Contains(t, p.System, "REFERENCE GUIDANCE")
	assert.True(t, strings.HasSuffix(p.System, "Use action verbs.\n"))
}

func TestPrompt_Combined(t *testing.T) {
	p := Prompt{System: "SYS", User: "resume text"}

	assert.Equal(t, "SYS\n\nAnalyze this resume dont change the this data or dont make up data:\nresume text", p.Combined())
}

func TestResumeAnalysisPrompt_DescribesReportKeys(t *testing.T) {
	for _, key := range []string{
		"personal_information", "skills", "experience", "education", "ats_scoring",
		"section_scores", "detailed_feedback", "feedbackCalibration", "scoreRange",
		"Technical Content (40%)", "Optimization (30%)", "Document Engineering (30%)",
	} {
		assert.Contains(t, ResumeAnalysisPrompt, key)
	}
}
