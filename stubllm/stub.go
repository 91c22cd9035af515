package stubllm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"lmk-backend/models"
)

// Client is a deterministic, no-network completion stub intended for CI and
// local end-to-end tests. Its merge output is fenced JSON so downstream
// parsing exercises the same path as real responses.
type Client struct {
	// Urgency and Radius control the classify stage output.
	Urgency models.Urgency
	Radius  float64
}

func NewClient() *Client {
	return &Client{Urgency: models.UrgencyYellow, Radius: 1.0}
}

func (c *Client) SourceName() string { return "Stub" }

func (c *Client) Filter(_ context.Context, submissionContext string, image []byte) (string, error) {
	// Deterministic per-input so the pipeline is stable in CI.
	sum := sha256.Sum256(append([]byte(submissionContext), image...))
	short := hex.EncodeToString(sum[:4])
	return fmt.Sprintf("Context: %s. Image Description: stubbed hazard description (%s).", submissionContext, short), nil
}

func (c *Client) Classify(_ context.Context, description string) (string, error) {
	fragment := map[string]any{
		"urgency": string(c.Urgency),
		"radius":  c.Radius,
	}
	return fragmentJSON("classify", fragment)
}

func (c *Client) Warn(_ context.Context, description string) (string, error) {
	fragment := map[string]any{
		"close": "Stay clear of the reported area.",
		"far":   "Monitor local updates.",
	}
	return fragmentJSON("warn", fragment)
}

func (c *Client) Summarize(_ context.Context, description string) (string, error) {
	sum := sha256.Sum256([]byte(description))
	short := hex.EncodeToString(sum[:4])
	fragment := map[string]any{
		"description": fmt.Sprintf("Stub summary (%s)", short),
	}
	return fragmentJSON("summary", fragment)
}

func (c *Client) Merge(_ context.Context, summary, warn, classify string) (string, error) {
	// Mimic the real model's habit of wrapping output in markdown fences.
	return fmt.Sprintf("```json\n{%s, %s, %s}\n```", summary, warn, classify), nil
}

// fragmentJSON renders a single `"name": {...}` fragment the way the text
// stages are prompted to answer.
func fragmentJSON(name string, fields map[string]any) (string, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%q: %s", name, b), nil
}
