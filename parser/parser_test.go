package parser

import (
	"errors"
	"testing"

	"lmk-backend/models"
)

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
		expected *Analysis
	}{
		{
			name: "plain JSON response",
			response: `{
				"summary": {"description": "Downed powerline in a residential area."},
				"warn": {"close": "Stay away from the wires and report to the utility company.", "far": "Avoid the block until crews arrive."},
				"classify": {"urgency": "Red", "radius": 0.5}
			}`,
			wantErr: false,
			expected: func() *Analysis {
				a := &Analysis{}
				a.Summary.Description = "Downed powerline in a residential area."
				a.Warn.Close = "Stay away from the wires and report to the utility company."
				a.Warn.Far = "Avoid the block until crews arrive."
				a.Classify.Urgency = "Red"
				a.Classify.Radius = 0.5
				return a
			}(),
		},
		{
			name: "fenced JSON with language identifier",
			response: "```json\n" + `{
				"summary": {"description": "Brush fire near the trailhead."},
				"warn": {"close": "Evacuate immediately.", "far": "Watch for smoke advisories."},
				"classify": {"urgency": "Red", "radius": 2.0}
			}` + "\n```",
			wantErr: false,
			expected: func() *Analysis {
				a := &Analysis{}
				a.Summary.Description = "Brush fire near the trailhead."
				a.Warn.Close = "Evacuate immediately."
				a.Warn.Far = "Watch for smoke advisories."
				a.Classify.Urgency = "Red"
				a.Classify.Radius = 2.0
				return a
			}(),
		},
		{
			name: "fenced JSON without language identifier",
			response: "```\n" + `{
				"summary": {"description": "Flooded underpass on 3rd street."},
				"warn": {"close": "Do not drive through standing water.", "far": "Use alternate routes."},
				"classify": {"urgency": "yellow", "radius": 1.0}
			}` + "\n```",
			wantErr: false,
			expected: func() *Analysis {
				a := &Analysis{}
				a.Summary.Description = "Flooded underpass on 3rd street."
				a.Warn.Close = "Do not drive through standing water."
				a.Warn.Far = "Use alternate routes."
				a.Classify.Urgency = "Yellow"
				a.Classify.Radius = 1.0
				return a
			}(),
		},
		{
			name: "JSON with surrounding prose",
			response: `Here is the merged result: {"summary": {"description": "Minor litter on the sidewalk."}, "warn": {"close": "", "far": ""}, "classify": {"urgency": "GREEN", "radius": 0.1}}`,
			wantErr:  false,
			expected: func() *Analysis {
				a := &Analysis{}
				a.Summary.Description = "Minor litter on the sidewalk."
				a.Classify.Urgency = "Green"
				a.Classify.Radius = 0.1
				return a
			}(),
		},
		{
			name:     "invalid JSON",
			response: "```json\n{\"summary\": {\"description\": \"trunc",
			wantErr:  true,
		},
		{
			name: "missing summary",
			response: `{
				"warn": {"close": "a", "far": "b"},
				"classify": {"urgency": "Red", "radius": 0.5}
			}`,
			wantErr: true,
		},
		{
			name: "unknown urgency",
			response: `{
				"summary": {"description": "x"},
				"warn": {"close": "a", "far": "b"},
				"classify": {"urgency": "Purple", "radius": 0.5}
			}`,
			wantErr: true,
		},
		{
			name: "negative radius",
			response: `{
				"summary": {"description": "x"},
				"warn": {"close": "a", "far": "b"},
				"classify": {"urgency": "Red", "radius": -1}
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysis(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAnalysis() expected error, got %+v", got)
				}
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("error %v is not ErrMalformedResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAnalysis() unexpected error: %v", err)
			}
			if *got != *tt.expected {
				t.Errorf("ParseAnalysis() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestAnalysisUrgency(t *testing.T) {
	a := &Analysis{}
	a.Classify.Urgency = "Yellow"
	u, err := a.Urgency()
	if err != nil {
		t.Fatalf("Urgency() error: %v", err)
	}
	if u != models.UrgencyYellow {
		t.Errorf("Urgency() = %v, want %v", u, models.UrgencyYellow)
	}
}

func TestExtractJSONFromMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "bare JSON",
			input:    `{"a": 1}`,
			expected: `{"a": 1}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "anonymous fence",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "unterminated fence returned as-is",
			input:    "```json\n{\"a\": 1}",
			expected: "```json\n{\"a\": 1}",
		},
		{
			name:     "no braces at all",
			input:    "no json here",
			expected: "no json here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONFromMarkdown(tt.input); got != tt.expected {
				t.Errorf("ExtractJSONFromMarkdown() = %q, want %q", got, tt.expected)
			}
		})
	}
}
