package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/codearena/judge/internal/domain"
)

// DiscussionService serves per-problem discussion threads
type DiscussionService struct {
	discussions domain.DiscussionRepository
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewDiscussionService creates a new discussion service
func NewDiscussionService(
	discussions domain.DiscussionRepository,
	tracer trace.Tracer,
	logger *zap.Logger,
) *DiscussionService {
	return &DiscussionService{
		discussions: discussions,
		tracer:      tracer,
		logger:      logger,
	}
}

// GetDiscussions returns a problem's threads, newest first
func (s *DiscussionService) GetDiscussions(ctx context.Context, problemID string) ([]domain.Discussion, error) {
	ctx, span := s.tracer.Start(ctx, "DiscussionService.GetDiscussions")
	defer span.End()

	span.SetAttributes(attribute.String("problem.id", problemID))
	return s.discussions.ListByProblem(ctx, problemID)
}

// PostDiscussion creates a new thread under a problem
func (s *DiscussionService) PostDiscussion(ctx context.Context, problemID string, req *domain.PostDiscussionRequest) (*domain.Discussion, error) {
	ctx, span := s.tracer.Start(ctx, "DiscussionService.PostDiscussion")
	defer span.End()

	if strings.TrimSpace(req.Content) == "" {
		return nil, domain.ErrEmptyDiscussionContent
	}

	userID := req.UserID
	if userID == "" {
		userID = GuestUserID
	}
	userName := req.UserName
	if userName == "" {
		userName = "anonymous"
	}

	discussion := &domain.Discussion{
		ID:        uuid.New().String(),
		ProblemID: problemID,
		UserID:    userID,
		UserName:  userName,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if err := s.discussions.Append(ctx, discussion); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("discussion.id", discussion.ID))
	return discussion, nil
}
