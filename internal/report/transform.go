// Package report turns raw LLM output into the ATS report served to clients.
//
// The model is asked for a JSON object with two top-level keys, "analysis"
// and "feedbackCalibration". Models routinely wrap that object in markdown
// code fences and sometimes double-escape quotes inside string values, so the
// text is cleaned before it is parsed. Apart from the two required keys the
// payload is passed through unchanged; rendering code reads it defensively.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	KeyAnalysis            = "analysis"
	KeyFeedbackCalibration = "feedbackCalibration"
)

// ErrInvalidReport is returned for any response that cannot be turned into a
// report. The underlying cause is wrapped.
var ErrInvalidReport = errors.New("failed to process resume analysis. please ensure the input is valid JSON")

var (
	errMissingBraces = errors.New("invalid JSON structure - missing opening/closing braces")
	errMissingFields = errors.New("invalid API response structure - missing required fields")
)

var leadingJSONFence = regexp.MustCompile("(?i)^```json")

// ResumeData wraps the analysis section the way the results page consumes it.
type ResumeData struct {
	Analysis map[string]any `json:"analysis"`
}

// Result is a sanitized report. Unknown keys inside both sections are kept.
type Result struct {
	ResumeData          ResumeData     `json:"resumeData"`
	FeedbackCalibration map[string]any `json:"feedbackCalibration"`
}

// Transform strips code fences from raw, checks the object shape, parses it
// and unescapes \" sequences in every nested string value.
func Transform(raw string) (*Result, error) {
	payload, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}

	analysis, ok := processStrings(payload[KeyAnalysis]).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidReport, KeyAnalysis)
	}
	calibration, ok := processStrings(payload[KeyFeedbackCalibration]).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidReport, KeyFeedbackCalibration)
	}

	return &Result{
		ResumeData:          ResumeData{Analysis: analysis},
		FeedbackCalibration: calibration,
	}, nil
}

// StripFences removes a ```json marker at the very start of text and every
// other ``` before trimming. A marker after leading whitespace loses only its
// backticks, so the leftover "json" fails the brace check.
func StripFences(text string) string {
	text = leadingJSONFence.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

func parse(raw string) (map[string]any, error) {
	jsonString := StripFences(raw)

	if !strings.HasPrefix(jsonString, "{") || !strings.HasSuffix(jsonString, "}") {
		return nil, errMissingBraces
	}

	dec := json.NewDecoder(strings.NewReader(jsonString))
	dec.UseNumber()

	var parsed map[string]any
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse JSON: unexpected data after top-level object")
	}

	if !truthy(parsed[KeyAnalysis]) || !truthy(parsed[KeyFeedbackCalibration]) {
		return nil, errMissingFields
	}

	return parsed, nil
}

// truthy mirrors the loose presence check the results page has always used:
// null, false, zero and the empty string all count as missing.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

func processStrings(v any) any {
	switch val := v.(type) {
	case string:
		return strings.ReplaceAll(val, `\"`, `"`)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = processStrings(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, item := range val {
			out[key] = processStrings(item)
		}
		return out
	default:
		return val
	}
}

// Payload returns the report in the shape the model produced it.
func (r *Result) Payload() map[string]any {
	return map[string]any{
		KeyAnalysis:            r.ResumeData.Analysis,
		KeyFeedbackCalibration: r.FeedbackCalibration,
	}
}

// MarshalJSON encodes the report as {"analysis":…,"feedbackCalibration":…}.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Payload()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON accepts the stored {"analysis":…,"feedbackCalibration":…} form.
func (r *Result) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload struct {
		Analysis            map[string]any `json:"analysis"`
		FeedbackCalibration map[string]any `json:"feedbackCalibration"`
	}
	if err := dec.Decode(&payload); err != nil {
		return err
	}

	r.ResumeData.Analysis = payload.Analysis
	r.FeedbackCalibration = payload.FeedbackCalibration
	return nil
}
