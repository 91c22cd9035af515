package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	promptFilterSystem = "Describe the image."
	promptFilterUser   = "First, state context in form Context: context. Then, state Image description as Image Description: You are to harvest valuable image from this photo. Only filter out information from this photo that is relevant to natural disasters and may pose harmful or risky to humans. For example, you would not mention key information such as puppy, roses, or chairs, but would instead retain information such as downed power lines, fires, and smoke. Do not state additional information if not relevant. You should not elaborate further if you do not detect harmful material. Only elaborate on harmful data. Answers should be incredibly detailed. Further context: %s"

	promptClassifySystem = `Categorize urgency in JSON format. Follow the provided template:
"classify": {
	"urgency": STRING (Red, Yellow, Green) [Red = Most severe, Green = most positive],
	"radius": FLOAT (Units: Miles),
}`
	promptClassifyUser = "You should now categorize this information in tiers of urgency, describing how urgent a response would be to this scenario. If the text provided sounds incredibly dangerous, give red. If semi-dangerous, give yellow. If not dangerous at all, give green. Here is the text you should analyze: %s"

	promptWarnSystem = `Provide warnings in JSON format. Follow the provided template:
"warn": {
	"close": STRING (Advised warning for close to threat residents.),
	"far": STRING (Advised warning (if any) for away from threat residents.),
}`
	promptWarnUser = "Please provide adequate warnings for the following context. For the situation, provide appropriate response to it. FOR EXAMPLE: Fire should warrant an evacuation if within a certain radius, and a downed power line should warn people nearby to stay away. CONTEXT: %s"

	promptSummarizeSystem = `Provide a single JSON field that is a summary for this provided text. Format it such that the description is like a news caption, do not explicitly say this image. Rather, say a title, such as 'Downed powerline in a residential area.' Follow the provided template:
"summary": {
	"description": STRING (Summarize data in a brief description. Should be similar to a news announcement.)
}`
	promptSummarizeUser = "CONTEXT: %s"

	promptMergeSystem = "Merge the following JSON files into one singular JSON. Do not delete any data."
	promptMergeUser   = "JSONs: %s, %s, %s"
)

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client represents an OpenAI chat-completions API client
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	visionModel string
	client      *http.Client
}

// NewClient creates a new OpenAI client. baseURL must point at a
// chat-completions endpoint; model is used for the text stages and
// visionModel for the image filter stage.
func NewClient(apiKey, baseURL, model, visionModel string) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		visionModel: visionModel,
		client:      &http.Client{},
	}
}

// SourceName identifies this provider
func (c *Client) SourceName() string {
	return "ChatGPT"
}

// encodeImageToBase64 converts image bytes to a base64 data URL
func encodeImageToBase64(imageData []byte) string {
	base64Data := base64.StdEncoding.EncodeToString(imageData)
	return fmt.Sprintf("data:image/jpeg;base64,%s", base64Data)
}

// Filter extracts a hazard description from the submission text and image.
func (c *Client) Filter(ctx context.Context, submissionContext string, image []byte) (string, error) {
	reqBody := ChatRequest{
		Model: c.visionModel,
		Messages: []Message{
			{
				Role:    "system",
				Content: promptFilterSystem,
			},
			{
				Role: "user",
				Content: []any{
					TextContent{Type: "text", Text: fmt.Sprintf(promptFilterUser, submissionContext)},
					ImageContent{Type: "image_url", ImageURL: ImageURL{URL: encodeImageToBase64(image)}},
				},
			},
		},
	}
	return c.makeRequest(ctx, reqBody)
}

// Classify assigns an urgency tier and radius to a hazard description.
func (c *Client) Classify(ctx context.Context, description string) (string, error) {
	return c.textStage(ctx, promptClassifySystem, fmt.Sprintf(promptClassifyUser, description))
}

// Warn produces close and far advisories for a hazard description.
func (c *Client) Warn(ctx context.Context, description string) (string, error) {
	return c.textStage(ctx, promptWarnSystem, fmt.Sprintf(promptWarnUser, description))
}

// Summarize produces a one-line news-style caption for a hazard description.
func (c *Client) Summarize(ctx context.Context, description string) (string, error) {
	return c.textStage(ctx, promptSummarizeSystem, fmt.Sprintf(promptSummarizeUser, description))
}

// Merge combines the summary, warn and classify fragments into one JSON object.
func (c *Client) Merge(ctx context.Context, summary, warn, classify string) (string, error) {
	return c.textStage(ctx, promptMergeSystem, fmt.Sprintf(promptMergeUser, summary, warn, classify))
}

func (c *Client) textStage(ctx context.Context, system, user string) (string, error) {
	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{
				Role: "user",
				Content: []any{
					TextContent{Type: "text", Text: user},
				},
			},
		},
	}
	return c.makeRequest(ctx, reqBody)
}

func (c *Client) makeRequest(ctx context.Context, reqBody ChatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := chatResp.Choices[0].Message.Content
	if contentStr, ok := content.(string); ok {
		return contentStr, nil
	}

	// If content is not a string, try to marshal it back to JSON
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}

	return string(contentJSON), nil
}
