package models

import (
	"fmt"
	"strings"
	"time"
)

// Urgency is the severity tier assigned to a post by the classification
// pipeline. Red is the most severe, Green means no threat at all.
type Urgency string

const (
	UrgencyRed    Urgency = "Red"
	UrgencyYellow Urgency = "Yellow"
	UrgencyGreen  Urgency = "Green"
)

// ParseUrgency normalizes a classifier-provided urgency string. The
// completion service is prompted for Red/Yellow/Green but casing varies.
func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return UrgencyRed, nil
	case "yellow":
		return UrgencyYellow, nil
	case "green":
		return UrgencyGreen, nil
	}
	return "", fmt.Errorf("unknown urgency %q", s)
}

// Post represents a hazard report from the posts table
type Post struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	AuthorID     string    `json:"author_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Summary      string    `json:"summary"`
	CloseWarning string    `json:"close_warning"`
	FarWarning   string    `json:"far_warning"`
	Urgency      Urgency   `json:"urgency"`
	Radius       float64   `json:"radius"`
	ImageURL     string    `json:"imageUrl,omitempty"`

	// Distance in miles from a reference point, computed at query time.
	// Never persisted.
	Distance float64 `json:"distance,omitempty"`
}

// GeneratedReport is an ephemeral hazard report aggregate. It is computed
// on demand from a set of nearby posts and exists only for the duration of
// one HTTP response.
type GeneratedReport struct {
	UserDetails     UserDetails     `json:"userDetails"`
	LocationDetails LocationDetails `json:"locationDetails"`
	Incidents       Incidents       `json:"incidents"`
	SafetyScore     SafetyScore     `json:"safetyScore"`
	Recommendations []string        `json:"recommendations"`
}

// UserDetails identifies the requester of a generated report
type UserDetails struct {
	Email       string `json:"email"`
	GeneratedAt string `json:"generatedAt"`
}

// LocationDetails echoes the reference coordinates of a generated report
type LocationDetails struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Incidents summarizes the posts that contributed to a generated report
type Incidents struct {
	Total       int      `json:"total"`
	UrgentCount int      `json:"urgentCount"`
	List        []string `json:"list"`
}

// SafetyScore is the 0-10 score computed from nearby incidents
type SafetyScore struct {
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}
