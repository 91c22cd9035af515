package report

import (
	"testing"
	"time"

	"lmk-backend/geo"
	"lmk-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(title string, urgency models.Urgency, distance float64) models.Post {
	return models.Post{Title: title, Urgency: urgency, Distance: distance}
}

func TestLocalPostsFilterAndSort(t *testing.T) {
	// Reference point at the origin; posts along the equator so distance
	// grows with longitude.
	posts := []models.Post{
		{ID: "far", Latitude: 0, Longitude: 2.0},
		{ID: "near", Latitude: 0, Longitude: 0.1},
		{ID: "outside", Latitude: 0, Longitude: 10.0},
		{ID: "mid", Latitude: 0, Longitude: 1.0},
	}

	local := LocalPosts(posts, 0, 0, 150)

	require.Len(t, local, 3)
	assert.Equal(t, "near", local[0].ID)
	assert.Equal(t, "mid", local[1].ID)
	assert.Equal(t, "far", local[2].ID)

	for i, p := range local {
		// A post appears iff its computed distance is within the radius.
		d := geo.Distance(0, 0, p.Latitude, p.Longitude)
		assert.InDelta(t, d, p.Distance, 1e-9)
		assert.LessOrEqual(t, p.Distance, 150.0)
		if i > 0 {
			assert.GreaterOrEqual(t, p.Distance, local[i-1].Distance)
		}
	}
}

func TestLocalPostsStableOnTies(t *testing.T) {
	posts := []models.Post{
		{ID: "first", Latitude: 0, Longitude: 1.0},
		{ID: "second", Latitude: 0, Longitude: 1.0},
	}
	local := LocalPosts(posts, 0, 0, 100)
	require.Len(t, local, 2)
	assert.Equal(t, "first", local[0].ID)
	assert.Equal(t, "second", local[1].ID)
}

func TestSafetyScoreBoundaries(t *testing.T) {
	now := time.Now()

	empty := GenerateAt(nil, 0, 0, "a@b.c", now)
	assert.Equal(t, 10.0, empty.SafetyScore.Score)
	assert.Equal(t, "Very safe area with minimal incidents", empty.SafetyScore.Description)
	assert.Equal(t, 0, empty.Incidents.Total)

	fiveRed := []models.Post{
		post("a", models.UrgencyRed, 1),
		post("b", models.UrgencyRed, 2),
		post("c", models.UrgencyRed, 3),
		post("d", models.UrgencyRed, 4),
		post("e", models.UrgencyRed, 5),
	}
	worst := GenerateAt(fiveRed, 0, 0, "a@b.c", now)
	assert.Equal(t, 0.0, worst.SafetyScore.Score)
	assert.Equal(t, "Exercise extreme caution - very high incident rate", worst.SafetyScore.Description)
}

func TestScoreMonotonicity(t *testing.T) {
	now := time.Now()
	lists := [][]models.Post{
		nil,
		{post("a", models.UrgencyYellow, 1)},
		{post("a", models.UrgencyRed, 1), post("b", models.UrgencyYellow, 2)},
	}
	extras := []models.Post{
		post("x", models.UrgencyRed, 0.3),
		post("y", models.UrgencyYellow, 0.7),
		post("z", models.UrgencyGreen, 1.5),
	}
	for _, list := range lists {
		before := GenerateAt(list, 0, 0, "a@b.c", now).SafetyScore.Score
		for _, extra := range extras {
			after := GenerateAt(append(append([]models.Post{}, list...), extra), 0, 0, "a@b.c", now).SafetyScore.Score
			assert.LessOrEqual(t, after, before,
				"adding a post must never increase the safety score")
		}
	}
}

func TestRecommendations(t *testing.T) {
	now := time.Now()

	theft := GenerateAt([]models.Post{post("Bike theft downtown", models.UrgencyYellow, 1)}, 0, 0, "a@b.c", now)
	assert.Contains(t, theft.Recommendations, "Keep valuables secure and out of sight")
	assert.NotContains(t, theft.Recommendations, "Be extra vigilant due to recent urgent incidents in the area")

	theftInDescription := GenerateAt([]models.Post{{
		Title:       "Incident report",
		Description: "Witnessed a THEFT at the garage",
		Urgency:     models.UrgencyYellow,
	}}, 0, 0, "a@b.c", now)
	assert.Contains(t, theftInDescription.Recommendations, "Keep valuables secure and out of sight")

	calm := GenerateAt([]models.Post{post("Loud party", models.UrgencyYellow, 1)}, 0, 0, "a@b.c", now)
	assert.Equal(t, []string{
		"Stay aware of your surroundings, especially at night",
		"Report any suspicious activity to local authorities",
	}, calm.Recommendations)

	red := GenerateAt([]models.Post{post("Fire", models.UrgencyRed, 1)}, 0, 0, "a@b.c", now)
	assert.Equal(t, []string{
		"Stay aware of your surroundings, especially at night",
		"Report any suspicious activity to local authorities",
		"Be extra vigilant due to recent urgent incidents in the area",
	}, red.Recommendations)
}

func TestRedFirstSortOrder(t *testing.T) {
	now := time.Now()
	posts := []models.Post{
		post("Far red", models.UrgencyRed, 3.0),
		post("Near yellow", models.UrgencyYellow, 0.1),
		post("Near red", models.UrgencyRed, 1.0),
	}
	rep := GenerateAt(posts, 0, 0, "a@b.c", now)
	assert.Equal(t, []string{
		"Near red (Red)",
		"Far red (Red)",
		"Near yellow (Yellow)",
	}, rep.Incidents.List)
}

func TestEndToEndExample(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("PST", -8*3600))
	posts := []models.Post{
		post("Robbery", models.UrgencyRed, 0.5),
		post("Loud party", models.UrgencyYellow, 2.0),
	}

	rep := GenerateAt(posts, 37.7749, -122.4194, "john@example.com", now)

	assert.Equal(t, 7.5, rep.SafetyScore.Score)
	assert.Equal(t, "Generally safe area with moderate incident rate", rep.SafetyScore.Description)
	assert.Equal(t, []string{"Robbery (Red)", "Loud party (Yellow)"}, rep.Incidents.List)
	assert.Equal(t, 1, rep.Incidents.UrgentCount)
	assert.Equal(t, 2, rep.Incidents.Total)
	assert.Equal(t, 37.7749, rep.LocationDetails.Latitude)
	assert.Equal(t, -122.4194, rep.LocationDetails.Longitude)
	assert.Equal(t, "john@example.com", rep.UserDetails.Email)
	assert.Equal(t, "2026-03-01T09:30:00.000-08:00", rep.UserDetails.GeneratedAt)
}
