package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/codearena/judge/internal/domain"
)

// ContestService serves the contest catalog and participant joins. Contest
// status is never stored; it is derived from the wall clock on every read.
type ContestService struct {
	contests     domain.ContestRepository
	participants domain.ParticipantRepository
	stats        domain.StatsRepository
	tracer       trace.Tracer
	logger       *zap.Logger
	now          func() time.Time
}

// NewContestService creates a new contest service
func NewContestService(
	contests domain.ContestRepository,
	participants domain.ParticipantRepository,
	stats domain.StatsRepository,
	tracer trace.Tracer,
	logger *zap.Logger,
) *ContestService {
	return &ContestService{
		contests:     contests,
		participants: participants,
		stats:        stats,
		tracer:       tracer,
		logger:       logger,
		now:          time.Now,
	}
}

// GetContests returns all contests with wall-clock-derived status
func (s *ContestService) GetContests(ctx context.Context) ([]domain.ContestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ContestService.GetContests")
	defer span.End()

	contests, err := s.contests.FindAll()
	if err != nil {
		return nil, err
	}

	now := s.now()
	responses := make([]domain.ContestResponse, len(contests))
	for i, contest := range contests {
		joined, err := s.participants.Count(ctx, contest.ID)
		if err != nil {
			s.logger.Error("Failed to count participants",
				zap.String("contest_id", contest.ID),
				zap.Error(err),
			)
		}
		responses[i] = contest.ToResponse(now, joined)
	}
	return responses, nil
}

// JoinContest registers the user for the contest. Joining twice is a no-op.
// Ended contests cannot be joined.
func (s *ContestService) JoinContest(ctx context.Context, contestID, userID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ContestService.JoinContest")
	defer span.End()

	if userID == "" {
		userID = GuestUserID
	}
	span.SetAttributes(
		attribute.String("contest.id", contestID),
		attribute.String("user.id", userID),
	)

	contest, err := s.contests.FindByID(contestID)
	if err != nil {
		return false, err
	}
	if contest.StatusAt(s.now()) == domain.ContestStatusEnded {
		return false, domain.ErrContestEnded
	}

	joined, err := s.participants.Join(ctx, contestID, userID)
	if err != nil {
		return false, err
	}

	if joined {
		if err := s.stats.IncrementContestsParticipated(ctx, userID); err != nil {
			s.logger.Error("Failed to bump contest participation",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
		s.logger.Info("User joined contest",
			zap.String("contest_id", contestID),
			zap.String("user_id", userID),
		)
	}
	return joined, nil
}
