// Package report implements the nearest-hazard retrieval helpers and the
// deterministic hazard report generator.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"lmk-backend/geo"
	"lmk-backend/models"
)

const (
	baseScore        = 10.0
	urgentPenalty    = 2.0
	nonUrgentPenalty = 0.5
)

// LocalPosts annotates posts with their distance from the reference point,
// keeps those within radius miles, and sorts ascending by distance. Ties
// keep the order the store returned.
func LocalPosts(posts []models.Post, latitude, longitude, radius float64) []models.Post {
	local := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		d := geo.Distance(latitude, longitude, p.Latitude, p.Longitude)
		if d <= radius {
			p.Distance = d
			local = append(local, p)
		}
	}
	sort.SliceStable(local, func(i, j int) bool {
		return local[i].Distance < local[j].Distance
	})
	return local
}

// Generate produces a hazard report for the given local posts, reference
// coordinates and requester email. No external calls.
func Generate(localPosts []models.Post, latitude, longitude float64, email string) *models.GeneratedReport {
	return GenerateAt(localPosts, latitude, longitude, email, time.Now())
}

// GenerateAt is Generate with an explicit generation time.
func GenerateAt(localPosts []models.Post, latitude, longitude float64, email string, now time.Time) *models.GeneratedReport {
	sorted := make([]models.Post, len(localPosts))
	copy(sorted, localPosts)

	// Red posts first, then ascending distance.
	sort.SliceStable(sorted, func(i, j int) bool {
		iRed := sorted[i].Urgency == models.UrgencyRed
		jRed := sorted[j].Urgency == models.UrgencyRed
		if iRed != jRed {
			return iRed
		}
		return sorted[i].Distance < sorted[j].Distance
	})

	urgentCount := 0
	list := make([]string, 0, len(sorted))
	for _, p := range sorted {
		if p.Urgency == models.UrgencyRed {
			urgentCount++
		}
		list = append(list, fmt.Sprintf("%s (%s)", p.Title, p.Urgency))
	}

	score := safetyScore(sorted)

	return &models.GeneratedReport{
		UserDetails: models.UserDetails{
			Email:       email,
			GeneratedAt: now.Format("2006-01-02T15:04:05.000-07:00"),
		},
		LocationDetails: models.LocationDetails{
			Latitude:  latitude,
			Longitude: longitude,
		},
		Incidents: models.Incidents{
			Total:       len(sorted),
			UrgentCount: urgentCount,
			List:        list,
		},
		SafetyScore: models.SafetyScore{
			Score:       score,
			Description: safetyDescription(score),
		},
		Recommendations: recommendations(sorted),
	}
}

func safetyScore(posts []models.Post) float64 {
	totalPenalty := 0.0
	for _, p := range posts {
		if p.Urgency == models.UrgencyRed {
			totalPenalty += urgentPenalty
		} else {
			totalPenalty += nonUrgentPenalty
		}
	}
	score := math.Max(0, math.Min(10, baseScore-totalPenalty))
	return math.Round(score*10) / 10
}

func safetyDescription(score float64) string {
	switch {
	case score >= 9:
		return "Very safe area with minimal incidents"
	case score >= 7:
		return "Generally safe area with moderate incident rate"
	case score >= 5:
		return "Exercise caution - moderate to high incident rate"
	case score >= 3:
		return "Be alert - high incident rate"
	default:
		return "Exercise extreme caution - very high incident rate"
	}
}

func recommendations(posts []models.Post) []string {
	seen := make(map[string]bool)
	var recs []string
	add := func(r string) {
		if !seen[r] {
			seen[r] = true
			recs = append(recs, r)
		}
	}

	add("Stay aware of your surroundings, especially at night")
	add("Report any suspicious activity to local authorities")

	for _, p := range posts {
		if p.Urgency == models.UrgencyRed {
			add("Be extra vigilant due to recent urgent incidents in the area")
			break
		}
	}

	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), "theft") ||
			strings.Contains(strings.ToLower(p.Description), "theft") {
			add("Keep valuables secure and out of sight")
			break
		}
	}

	return recs
}
