package llm

import "context"

// Client abstracts the completion service behind the classification
// pipeline. Each method is one stage of the chain; all of them return the
// raw response text, which only the merge output is required to parse as
// JSON. Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// Filter takes the submission text and image and returns a free-text
	// hazard description, omitting non-hazard content.
	Filter(ctx context.Context, submissionContext string, image []byte) (string, error)
	// Classify returns JSON-shaped text with an urgency tier and an
	// advisory radius in miles.
	Classify(ctx context.Context, description string) (string, error)
	// Warn returns JSON-shaped text with close and far advisory strings.
	Warn(ctx context.Context, description string) (string, error)
	// Summarize returns JSON-shaped text with a one-line news-style caption.
	Summarize(ctx context.Context, description string) (string, error)
	// Merge combines the three JSON fragments into one JSON object, losslessly.
	Merge(ctx context.Context, summary, warn, classify string) (string, error)
	// SourceName returns a short provider label (e.g., "ChatGPT").
	SourceName() string
}
