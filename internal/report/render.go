package report

import (
	"fmt"
	"strconv"
	"strings"
)

const notProvided = "Not provided"

// Render formats a report as a Markdown document for download. Missing values
// get the same fallbacks the results page shows.
func Render(r Report) string {
	var b strings.Builder

	b.WriteString("# Resume Analysis Results\n\n")

	b.WriteString("## Personal Information\n\n")
	p := r.PersonalInformation
	writeField(&b, "Full name", p.FullName)
	writeField(&b, "Email", p.Email)
	writeField(&b, "Phone", p.Phone)
	b.WriteString("- **Professional links:**\n")
	writeNestedField(&b, "linkedin", p.Links.LinkedIn)
	writeNestedField(&b, "github", p.Links.GitHub)
	writeNestedField(&b, "portfolio", p.Links.Portfolio)
	b.WriteString("\n")

	b.WriteString("## Skills\n\n")
	writeInline(&b, "Technical", r.Skills.Technical)
	writeInline(&b, "Soft", r.Skills.Soft)
	writeInline(&b, "Tools", r.Skills.Tools)
	b.WriteString("\n")

	b.WriteString("## Experience\n\n")
	if len(r.Experience) == 0 {
		b.WriteString(notProvided + "\n\n")
	}
	for _, exp := range r.Experience {
		fmt.Fprintf(&b, "### %s at %s\n\n", orDefault(exp.Role, notProvided), orDefault(exp.Company, notProvided))
		fmt.Fprintf(&b, "%s - %s\n\n", orDefault(exp.Start, "Start date not provided"), orDefault(exp.End, "Present"))
		writeBullets(&b, exp.Achievements)
		writeInline(&b, "Technologies", exp.Technologies)
		b.WriteString("\n")
	}

	b.WriteString("## Education\n\n")
	if len(r.Education) == 0 {
		b.WriteString(notProvided + "\n\n")
	}
	for _, edu := range r.Education {
		fmt.Fprintf(&b, "### %s\n\n", orDefault(edu.Degree, notProvided))
		fmt.Fprintf(&b, "%s, %s\n\n", orDefault(edu.Institution, notProvided), orDefault(edu.Year, "Year not provided"))
		fmt.Fprintf(&b, "Relevance: %s/10\n\n", formatScore(edu.Relevance))
	}

	s := r.ATSScoring
	b.WriteString("## ATS Score\n\n")
	fmt.Fprintf(&b, "**%s%%**\n\n", formatScore(s.TotalScore))
	b.WriteString("| Section | Score |\n|---|---|\n")
	fmt.Fprintf(&b, "| Technical content | %s |\n", formatScore(s.SectionScores.TechnicalContent))
	fmt.Fprintf(&b, "| Optimization | %s |\n", formatScore(s.SectionScores.Optimization))
	fmt.Fprintf(&b, "| Document engineering | %s |\n\n", formatScore(s.SectionScores.DocumentEngineering))

	b.WriteString("## Detailed Feedback\n\n")
	writeSection(&b, "Strengths", s.DetailedFeedback.Strengths, false)
	writeSection(&b, "Improvements", s.DetailedFeedback.Improvements, false)
	writeSection(&b, "Critical Missing Elements", s.DetailedFeedback.CriticalMissing, false)

	fc := r.FeedbackCalibration
	b.WriteString("## Feedback Calibration\n\n")
	fmt.Fprintf(&b, "**Score Range:** %s\n\n", orDefault(fc.ScoreRange, notProvided))
	writeSection(&b, "Top 3 Strongest Elements", fc.TopStrongestElements, true)
	writeSection(&b, "Specific Improvement Areas", fc.SpecificImprovementAreas, false)
	writeSection(&b, "Industry-Specific Recommendations", fc.IndustrySpecificRecommendations, false)
	writeSection(&b, "Keyword Optimization Suggestions", fc.KeywordOptimizationSuggestions, false)
	writeSection(&b, "Technical Depth Enhancement Tips", fc.TechnicalDepthEnhancementTips, false)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "- **%s:** %s\n", label, orDefault(value, notProvided))
}

func writeNestedField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  - **%s:** %s\n", label, orDefault(value, notProvided))
}

func writeInline(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "**%s:** %s\n\n", label, notProvided)
		return
	}
	fmt.Fprintf(b, "**%s:** %s\n\n", label, strings.Join(items, ", "))
}

func writeBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	if len(items) > 0 {
		b.WriteString("\n")
	}
}

func writeSection(b *strings.Builder, title string, items []string, numbered bool) {
	fmt.Fprintf(b, "### %s\n\n", title)
	if len(items) == 0 {
		b.WriteString(notProvided + "\n\n")
		return
	}
	for i, item := range items {
		if numbered {
			fmt.Fprintf(b, "%d. %s\n", i+1, item)
		} else {
			fmt.Fprintf(b, "- %s\n", item)
		}
	}
	b.WriteString("\n")
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
