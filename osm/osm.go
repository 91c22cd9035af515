package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	// NominatimBaseURL is the public Nominatim API endpoint
	NominatimBaseURL = "https://nominatim.openstreetmap.org"
	// UserAgent is required by Nominatim usage policy
	UserAgent = "lmk/1.0 (community hazard reporting)"
	// Rate limit: 1 request per second for Nominatim
	minRequestInterval = time.Second
)

// Client handles Nominatim forward-geocoding with rate limiting
type Client struct {
	baseURL       string
	httpClient    *http.Client
	lastRequest   time.Time
	rateLimitLock sync.Mutex
}

// NewClient creates a new geocoding client
func NewClient() *Client {
	return NewClientWithBaseURL(NominatimBaseURL)
}

// NewClientWithBaseURL creates a client against a custom endpoint. Used by tests.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SearchResult is one candidate location for a free-text address query
type SearchResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"displayName"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// nominatimSearchResult is a raw Nominatim /search row
type nominatimSearchResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// Search geocodes a free-text address and returns up to limit candidates,
// coordinates truncated to six decimal places.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	c.waitForRateLimit()

	endpoint := fmt.Sprintf("%s/search?format=json&q=%s&limit=%d",
		c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query nominatim: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim error (status %d): %s", resp.StatusCode, string(body))
	}

	var raw []nominatimSearchResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse nominatim response: %w", err)
	}

	results := make([]SearchResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, SearchResult{
			Lat:         roundCoord(r.Lat),
			Lon:         roundCoord(r.Lon),
			DisplayName: r.DisplayName,
			Type:        r.Type,
			Importance:  r.Importance,
		})
	}
	return results, nil
}

// waitForRateLimit enforces the 1 req/s Nominatim usage policy
func (c *Client) waitForRateLimit() {
	c.rateLimitLock.Lock()
	defer c.rateLimitLock.Unlock()

	if elapsed := time.Since(c.lastRequest); elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}

func roundCoord(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', 6, 64)
}
