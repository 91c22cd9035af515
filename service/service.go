package service

import (
	"context"
	"fmt"
	"time"

	"lmk-backend/config"
	"lmk-backend/database"
	"lmk-backend/email"
	"lmk-backend/llm"
	"lmk-backend/metrics"
	"lmk-backend/models"
	"lmk-backend/parser"
	"lmk-backend/report"
	"lmk-backend/websocket"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// Service orchestrates the classification pipeline and report generation
type Service struct {
	config *config.Config
	db     *database.Database
	llm    llm.Client
	hub    *websocket.Hub // optional; nil disables live broadcast
	mailer *email.Sender  // optional; nil disables report emails
}

// New creates the application service. hub and mailer may be nil.
func New(cfg *config.Config, db *database.Database, llmClient llm.Client, hub *websocket.Hub, mailer *email.Sender) *Service {
	return &Service{
		config: cfg,
		db:     db,
		llm:    llmClient,
		hub:    hub,
		mailer: mailer,
	}
}

// Submission is a user-submitted hazard report before classification
type Submission struct {
	AuthorID    string
	Title       string
	Description string
	Latitude    float64
	Longitude   float64
	Image       []byte
	ContentType string
}

// CreatePost runs the classification pipeline on a submission and persists
// the classified post with its image. A submission classified Green is not
// a threat and is discarded: the returned post is nil and stored is false.
func (s *Service) CreatePost(ctx context.Context, sub Submission) (post *models.Post, stored bool, err error) {
	analysis, err := s.classify(ctx, fmt.Sprintf("%s %s", sub.Title, sub.Description), sub.Image)
	if err != nil {
		return nil, false, err
	}

	urgency, err := analysis.Urgency()
	if err != nil {
		// Unreachable after ParseAnalysis validation; kept for safety.
		return nil, false, fmt.Errorf("%w: %v", parser.ErrMalformedResponse, err)
	}

	if urgency == models.UrgencyGreen {
		metrics.PostsDiscarded.Inc()
		log.WithField("title", sub.Title).Info("No danger detected, discarding submission")
		return nil, false, nil
	}

	post = &models.Post{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		AuthorID:     sub.AuthorID,
		Latitude:     sub.Latitude,
		Longitude:    sub.Longitude,
		Title:        sub.Title,
		Description:  sub.Description,
		Summary:      analysis.Summary.Description,
		CloseWarning: analysis.Warn.Close,
		FarWarning:   analysis.Warn.Far,
		Urgency:      urgency,
		Radius:       analysis.Classify.Radius,
	}

	if err := s.db.SavePostWithImage(ctx, post, sub.Image, sub.ContentType); err != nil {
		return nil, false, fmt.Errorf("failed to persist post: %w", err)
	}
	metrics.PostsCreated.WithLabelValues(string(urgency)).Inc()

	post.ImageURL = fmt.Sprintf("/api/posts/%s/image", post.ID)

	if s.hub != nil {
		s.hub.BroadcastPost(*post)
	}

	return post, true, nil
}

// classify runs the five-stage chain strictly in sequence: filter,
// classify, warn, summarize, merge.
func (s *Service) classify(ctx context.Context, submissionContext string, image []byte) (*parser.Analysis, error) {
	filtered, err := s.runStage(ctx, "filter", func(ctx context.Context) (string, error) {
		return s.llm.Filter(ctx, submissionContext, image)
	})
	if err != nil {
		return nil, err
	}

	classifyResp, err := s.runStage(ctx, "classify", func(ctx context.Context) (string, error) {
		return s.llm.Classify(ctx, filtered)
	})
	if err != nil {
		return nil, err
	}

	warnResp, err := s.runStage(ctx, "warn", func(ctx context.Context) (string, error) {
		return s.llm.Warn(ctx, filtered)
	})
	if err != nil {
		return nil, err
	}

	summaryResp, err := s.runStage(ctx, "summarize", func(ctx context.Context) (string, error) {
		return s.llm.Summarize(ctx, filtered)
	})
	if err != nil {
		return nil, err
	}

	mergedResp, err := s.runStage(ctx, "merge", func(ctx context.Context) (string, error) {
		return s.llm.Merge(ctx, summaryResp, warnResp, classifyResp)
	})
	if err != nil {
		return nil, err
	}

	analysis, err := parser.ParseAnalysis(mergedResp)
	if err != nil {
		metrics.PipelineStageErrors.WithLabelValues("parse").Inc()
		return nil, err
	}
	return analysis, nil
}

// runStage times one completion call and bounds it with the configured
// timeout.
func (s *Service) runStage(ctx context.Context, stage string, fn func(context.Context) (string, error)) (string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.config.LLMTimeout)
	defer cancel()

	start := time.Now()
	resp, err := fn(stageCtx)
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PipelineStageErrors.WithLabelValues(stage).Inc()
		return "", fmt.Errorf("%s stage failed: %w", stage, err)
	}
	return resp, nil
}

// GenerateHazardReport builds a deterministic hazard report from the posts
// within maxDistance miles of the reference point. When a mailer is
// configured, the report is also emailed to the requester; email failures
// do not fail the request.
func (s *Service) GenerateHazardReport(ctx context.Context, latitude, longitude, maxDistance float64, requesterEmail string) (*models.GeneratedReport, error) {
	if maxDistance <= 0 {
		maxDistance = s.config.DefaultMaxDistance
	}

	posts, err := s.db.GetAllPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}

	local := report.LocalPosts(posts, latitude, longitude, maxDistance)
	generated := report.Generate(local, latitude, longitude, requesterEmail)
	metrics.ReportsGenerated.Inc()

	if s.mailer != nil {
		if err := s.mailer.SendReport(generated); err != nil {
			log.Warnf("Failed to email hazard report to %s: %v", requesterEmail, err)
		}
	}

	return generated, nil
}
