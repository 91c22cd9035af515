package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lmk-backend/models"
)

// ErrMalformedResponse is returned when the completion service's merged
// output cannot be extracted or does not satisfy the analysis schema.
// Callers can test for it with errors.Is.
var ErrMalformedResponse = errors.New("malformed completion response")

// Analysis represents the parsed, merged pipeline output
type Analysis struct {
	Summary struct {
		Description string `json:"description"`
	} `json:"summary"`
	Warn struct {
		Close string `json:"close"`
		Far   string `json:"far"`
	} `json:"warn"`
	Classify struct {
		Urgency string  `json:"urgency"`
		Radius  float64 `json:"radius"`
	} `json:"classify"`
}

// Urgency returns the normalized urgency tier of the analysis.
func (a *Analysis) Urgency() (models.Urgency, error) {
	return models.ParseUrgency(a.Classify.Urgency)
}

// ExtractJSONFromMarkdown extracts JSON from markdown code blocks. The
// completion service is asked for bare JSON but frequently wraps it in
// ``` fences anyway; both forms are accepted.
func ExtractJSONFromMarkdown(response string) string {
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	// Find the end of the first code block
	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// ParseAnalysis parses the merge stage's response and validates the
// analysis fields.
func ParseAnalysis(response string) (*Analysis, error) {
	jsonContent := ExtractJSONFromMarkdown(strings.TrimSpace(response))

	var result Analysis
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if result.Summary.Description == "" {
		return nil, fmt.Errorf("%w: summary description is required", ErrMalformedResponse)
	}
	urgency, err := models.ParseUrgency(result.Classify.Urgency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	result.Classify.Urgency = string(urgency)
	if result.Classify.Radius < 0 {
		return nil, fmt.Errorf("%w: radius must be non-negative", ErrMalformedResponse)
	}

	return &result, nil
}
