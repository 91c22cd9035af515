package handlers

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"lmk-backend/database"
	"lmk-backend/middleware"
	"lmk-backend/osm"
	"lmk-backend/parser"
	"lmk-backend/report"
	"lmk-backend/service"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Handlers represents the HTTP handlers
type Handlers struct {
	db       *database.Database
	svc      *service.Service
	geocoder *osm.Client
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *database.Database, svc *service.Service, geocoder *osm.Client) *Handlers {
	return &Handlers{db: db, svc: svc, geocoder: geocoder}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "lmk-backend",
	})
}

// CreatePost handles POST /api/posts: classify a submission and persist it
func (h *Handlers) CreatePost(c *gin.Context) {
	title := c.PostForm("title")
	description := c.PostForm("description")

	latitude, latErr := strconv.ParseFloat(c.PostForm("latitude"), 64)
	longitude, lonErr := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid coordinates"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	// Authorship comes from the validated token, never from the form.
	sub := service.Submission{
		AuthorID:    middleware.GetUserID(c),
		Title:       title,
		Description: description,
		Latitude:    latitude,
		Longitude:   longitude,
		Image:       image,
		ContentType: contentType,
	}

	post, stored, err := h.svc.CreatePost(c.Request.Context(), sub)
	if err != nil {
		if strings.Contains(err.Error(), "auth") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if errors.Is(err, parser.ErrMalformedResponse) {
			log.Errorf("Malformed completion response: %v", err)
		} else {
			log.Errorf("Failed to create post: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add document"})
		return
	}

	if !stored {
		c.JSON(http.StatusOK, gin.H{"message": "No Danger Detected"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Document added successfully",
		"post":    post,
	})
}

// GetPosts handles GET /api/posts. With latitude, longitude and radius
// query parameters the result is distance-annotated, filtered and sorted;
// otherwise all posts are returned in store order.
func (h *Handlers) GetPosts(c *gin.Context) {
	posts, err := h.db.GetAllPosts(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to fetch posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	for i := range posts {
		posts[i].ImageURL = "/api/posts/" + posts[i].ID + "/image"
	}

	latStr, lonStr, radiusStr := c.Query("latitude"), c.Query("longitude"), c.Query("radius")
	if latStr != "" && lonStr != "" && radiusStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		radius, radErr := strconv.ParseFloat(radiusStr, 64)
		if latErr != nil || lonErr != nil || radErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates or radius"})
			return
		}
		posts = report.LocalPosts(posts, lat, lon, radius)
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPostImage handles GET /api/posts/:id/image
func (h *Handlers) GetPostImage(c *gin.Context) {
	id := c.Param("id")

	image, contentType, err := h.db.GetPostImage(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}
		log.Errorf("Failed to fetch image for post %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch image"})
		return
	}

	c.Data(http.StatusOK, contentType, image)
}

// GenerateHazardReport handles POST /api/hazard-report
func (h *Handlers) GenerateHazardReport(c *gin.Context) {
	latStr := c.PostForm("latitude")
	lonStr := c.PostForm("longitude")
	maxDistStr := c.PostForm("max_distance")
	if maxDistStr == "" {
		maxDistStr = c.PostForm("radius")
	}
	email := c.PostForm("email")

	latitude, latErr := strconv.ParseFloat(latStr, 64)
	longitude, lonErr := strconv.ParseFloat(lonStr, 64)
	maxDistance, distErr := strconv.ParseFloat(maxDistStr, 64)
	if latErr != nil || lonErr != nil || distErr != nil {
		c.String(http.StatusBadRequest, "Missing required fields")
		return
	}

	hazardReport, err := h.svc.GenerateHazardReport(c.Request.Context(), latitude, longitude, maxDistance, email)
	if err != nil {
		log.Errorf("Failed to generate hazard report: %v", err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"hazardReport": hazardReport})
}

// Geocode handles GET /api/geocode?q=address
func (h *Handlers) Geocode(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query"})
		return
	}

	results, err := h.geocoder.Search(c.Request.Context(), query, 5)
	if err != nil {
		log.Errorf("Geocoding failed for %q: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Geocoding failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
