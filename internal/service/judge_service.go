package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/infrastructure"
	"github.com/codearena/judge/internal/judge"
)

// GuestUserID is charged for submissions that arrive without a user
const GuestUserID = "guest"

// coin rewards per difficulty weight, paid on first-ever accept
const coinsPerDifficultyWeight = 10

// JudgeService orchestrates the submission lifecycle: judge the test-case
// set, persist the verdict, and update derived aggregates for accepted
// submissions. Failing verdicts are normal responses, not errors.
type JudgeService struct {
	engine      *judge.Engine
	problems    domain.ProblemRepository
	submissions domain.SubmissionRepository
	stats       domain.StatsRepository
	leaderboard domain.LeaderboardRepository
	metrics     *infrastructure.TelemetryMetrics
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewJudgeService creates a new judge service
func NewJudgeService(
	engine *judge.Engine,
	problems domain.ProblemRepository,
	submissions domain.SubmissionRepository,
	stats domain.StatsRepository,
	leaderboard domain.LeaderboardRepository,
	metrics *infrastructure.TelemetryMetrics,
	tracer trace.Tracer,
	logger *zap.Logger,
) *JudgeService {
	return &JudgeService{
		engine:      engine,
		problems:    problems,
		submissions: submissions,
		stats:       stats,
		leaderboard: leaderboard,
		metrics:     metrics,
		tracer:      tracer,
		logger:      logger,
	}
}

// ExecuteCode judges the code against visible test cases only ("run" verb).
// Nothing is persisted and no aggregates change.
func (s *JudgeService) ExecuteCode(ctx context.Context, req *domain.ExecuteCodeRequest) (*domain.ExecuteCodeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "JudgeService.ExecuteCode")
	defer span.End()

	span.SetAttributes(
		attribute.String("problem.id", req.ProblemID),
		attribute.String("judge.language", req.Language),
	)

	_, cases, err := s.resolveTestCases(ctx, req.ProblemID, req.TestCases)
	if err != nil {
		return nil, err
	}

	result, err := s.runTimed(ctx, cases, req.Code, req.Language, true)
	if err != nil {
		return nil, err
	}

	return &domain.ExecuteCodeResponse{Results: result.Results}, nil
}

// SubmitCode judges the code against the full test-case set ("submit" verb),
// persists the submission, and for accepted verdicts updates user stats and
// the problem leaderboard.
func (s *JudgeService) SubmitCode(ctx context.Context, req *domain.SubmitCodeRequest) (*domain.SubmitCodeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "JudgeService.SubmitCode")
	defer span.End()

	userID := req.UserID
	if userID == "" {
		userID = GuestUserID
	}

	span.SetAttributes(
		attribute.String("problem.id", req.ProblemID),
		attribute.String("user.id", userID),
		attribute.String("judge.language", req.Language),
	)

	problem, cases, err := s.resolveTestCases(ctx, req.ProblemID, req.TestCases)
	if err != nil {
		return nil, err
	}

	result, err := s.runTimed(ctx, cases, req.Code, req.Language, false)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("judge.status", string(result.Status)))
	s.metrics.SubmissionsJudged.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", string(result.Status))),
	)

	// Every submit counts toward the acceptance rate, whatever the verdict.
	if err := s.stats.RecordSubmission(ctx, userID); err != nil {
		s.logger.Error("Failed to record submission count",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	if result.Status == domain.StatusAccepted {
		s.applyAcceptedSideEffects(ctx, userID, req.UserName, req.Language, problem, req.ProblemID, result)
	}

	submission := &domain.Submission{
		ID:              domain.NewSubmissionID(),
		ProblemID:       req.ProblemID,
		UserID:          userID,
		Code:            req.Code,
		Language:        req.Language,
		Status:          result.Status,
		Timestamp:       time.Now(),
		RuntimeMS:       result.AvgRuntimeMS,
		MemoryMB:        result.AvgMemoryMB,
		TestCasesPassed: result.PassedCount,
		TotalTestCases:  result.TotalCount,
	}
	if err := s.submissions.Record(ctx, submission); err != nil {
		return nil, err
	}

	s.logger.Info("Submission judged",
		zap.String("submission_id", submission.ID),
		zap.String("problem_id", req.ProblemID),
		zap.String("user_id", userID),
		zap.String("status", string(result.Status)),
		zap.Int("passed", result.PassedCount),
		zap.Int("total", result.TotalCount),
	)

	return &domain.SubmitCodeResponse{
		Results:      result.Results,
		Status:       result.Status,
		AvgRuntimeMS: result.AvgRuntimeMS,
		MemoryMB:     result.AvgMemoryMB,
		FailedCase:   result.FailedCase,
		SubmissionID: submission.ID,
	}, nil
}

// GetSubmissions returns the retained history for a problem, newest first
func (s *JudgeService) GetSubmissions(ctx context.Context, problemID string) ([]domain.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "JudgeService.GetSubmissions")
	defer span.End()

	span.SetAttributes(attribute.String("problem.id", problemID))
	return s.submissions.ListByProblem(ctx, problemID)
}

// GetLeaderboard returns the ranking for a problem or contest
func (s *JudgeService) GetLeaderboard(ctx context.Context, boardType domain.LeaderboardType, id string) ([]domain.LeaderboardEntry, error) {
	ctx, span := s.tracer.Start(ctx, "JudgeService.GetLeaderboard")
	defer span.End()

	if !boardType.Valid() {
		return nil, domain.ErrInvalidLeaderboardType
	}

	span.SetAttributes(
		attribute.String("leaderboard.type", string(boardType)),
		attribute.String("leaderboard.id", id),
	)
	return s.leaderboard.List(ctx, boardType, id)
}

// GetUserStats returns the user's aggregate counters
func (s *JudgeService) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	ctx, span := s.tracer.Start(ctx, "JudgeService.GetUserStats")
	defer span.End()

	if userID == "" {
		userID = GuestUserID
	}
	span.SetAttributes(attribute.String("user.id", userID))
	return s.stats.GetStats(ctx, userID)
}

// resolveTestCases prefers the catalog's test cases; inline cases from the
// request are used only when the problem is not in the catalog (ad hoc
// practice sets generated client-side).
func (s *JudgeService) resolveTestCases(ctx context.Context, problemID string, inline []domain.TestCase) (*domain.Problem, []domain.TestCase, error) {
	if problemID != "" {
		problem, err := s.problems.FindByID(problemID)
		if err == nil {
			return problem, problem.TestCases, nil
		}
		if !errors.Is(err, domain.ErrProblemNotFound) {
			return nil, nil, err
		}
	}
	if len(inline) == 0 {
		return nil, nil, domain.ErrMalformedSubmission
	}
	return nil, inline, nil
}

func (s *JudgeService) runTimed(ctx context.Context, cases []domain.TestCase, code, language string, visibleOnly bool) (*judge.JudgeResult, error) {
	start := time.Now()
	result, err := s.engine.Run(ctx, cases, code, language, visibleOnly)
	s.metrics.ExecutionDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.Bool("visible_only", visibleOnly)),
	)
	return result, err
}

// applyAcceptedSideEffects updates the solved set, difficulty buckets, coin
// ledger and leaderboard. Aggregate failures are logged, not surfaced; the
// submission itself still persists.
func (s *JudgeService) applyAcceptedSideEffects(ctx context.Context, userID, userName, language string, problem *domain.Problem, problemID string, result *judge.JudgeResult) {
	difficulty := domain.DifficultyMedium
	if problem != nil {
		difficulty = problem.Difficulty
	}

	first, err := s.stats.RecordAccepted(ctx, userID, problemID, difficulty)
	if err != nil {
		s.logger.Error("Failed to record accepted submission",
			zap.String("user_id", userID),
			zap.String("problem_id", problemID),
			zap.Error(err),
		)
	} else if first {
		s.metrics.ProblemsSolved.Add(ctx, 1,
			metric.WithAttributes(attribute.String("difficulty", string(difficulty))),
		)
		reward := difficulty.Weight() * coinsPerDifficultyWeight
		if err := s.stats.AwardCoins(ctx, userID, reward, "solved:"+problemID); err != nil {
			s.logger.Error("Failed to award coins",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	if userName == "" {
		userName = userID
	}
	entry := domain.LeaderboardEntry{
		UserID:    userID,
		UserName:  userName,
		RuntimeMS: result.AvgRuntimeMS,
		Timestamp: time.Now(),
		Language:  language,
	}
	if err := s.leaderboard.Upsert(ctx, domain.LeaderboardTypeProblem, problemID, entry); err != nil {
		s.logger.Error("Failed to update leaderboard",
			zap.String("user_id", userID),
			zap.String("problem_id", problemID),
			zap.Error(err),
		)
	}
}
