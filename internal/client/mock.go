package client

import (
	"context"
	"time"

	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/codearena/judge/internal/data"
	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/infrastructure"
	"github.com/codearena/judge/internal/judge"
	"github.com/codearena/judge/internal/repository"
	"github.com/codearena/judge/internal/service"
)

// MockService is a fully local stand-in for the judge backend. It runs the
// real engine and services over an in-memory store seeded from the embedded
// catalog, so degraded-mode responses have the same shape and semantics as
// live ones. State lives only as long as the process.
type MockService struct {
	judge       *service.JudgeService
	contests    *service.ContestService
	discussions *service.DiscussionService
}

// NewMockService builds the in-memory service graph
func NewMockService(logger *zap.Logger) *MockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := nooptrace.NewTracerProvider().Tracer("mock")
	metrics := infrastructure.NewNoopMetrics()

	kv := infrastructure.NewMemoryStore()
	problems := newCatalogProblems(data.CatalogProblems())
	contests := newCatalogContests(data.CatalogContests(time.Now()))

	engine := judge.NewEngine(judge.NewSimulatedExecutor(), tracer, logger)
	submissions := repository.NewSubmissionRepository(kv, repository.DefaultSubmissionHistoryLimit)
	stats := repository.NewStatsRepository(kv)
	leaderboard := repository.NewLeaderboardRepository(kv, repository.DefaultLeaderboardLimit)
	participants := repository.NewParticipantRepository(kv)
	discussions := repository.NewDiscussionRepository(kv)

	return &MockService{
		judge:       service.NewJudgeService(engine, problems, submissions, stats, leaderboard, metrics, tracer, logger),
		contests:    service.NewContestService(contests, participants, stats, tracer, logger),
		discussions: service.NewDiscussionService(discussions, tracer, logger),
	}
}

func (m *MockService) ExecuteCode(ctx context.Context, req *domain.ExecuteCodeRequest) (*domain.ExecuteCodeResponse, error) {
	return m.judge.ExecuteCode(ctx, req)
}

func (m *MockService) SubmitCode(ctx context.Context, req *domain.SubmitCodeRequest) (*domain.SubmitCodeResponse, error) {
	return m.judge.SubmitCode(ctx, req)
}

func (m *MockService) GetSubmissions(ctx context.Context, problemID string) ([]domain.Submission, error) {
	return m.judge.GetSubmissions(ctx, problemID)
}

func (m *MockService) GetLeaderboard(ctx context.Context, boardType domain.LeaderboardType, id string) ([]domain.LeaderboardEntry, error) {
	return m.judge.GetLeaderboard(ctx, boardType, id)
}

func (m *MockService) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	return m.judge.GetUserStats(ctx, userID)
}

func (m *MockService) GetContests(ctx context.Context) ([]domain.ContestResponse, error) {
	return m.contests.GetContests(ctx)
}

func (m *MockService) JoinContest(ctx context.Context, contestID, userID string) (bool, error) {
	return m.contests.JoinContest(ctx, contestID, userID)
}

func (m *MockService) GetDiscussions(ctx context.Context, problemID string) ([]domain.Discussion, error) {
	return m.discussions.GetDiscussions(ctx, problemID)
}

func (m *MockService) PostDiscussion(ctx context.Context, problemID string, req *domain.PostDiscussionRequest) (*domain.Discussion, error) {
	return m.discussions.PostDiscussion(ctx, problemID, req)
}

// catalogProblems serves the embedded problem fixtures without a database
type catalogProblems struct {
	byID  map[string]*domain.Problem
	order []domain.Problem
}

func newCatalogProblems(problems []domain.Problem) *catalogProblems {
	byID := make(map[string]*domain.Problem, len(problems))
	for i := range problems {
		byID[problems[i].ID] = &problems[i]
	}
	return &catalogProblems{byID: byID, order: problems}
}

func (c *catalogProblems) FindByID(id string) (*domain.Problem, error) {
	problem, ok := c.byID[id]
	if !ok {
		return nil, domain.ErrProblemNotFound
	}
	return problem, nil
}

func (c *catalogProblems) FindAll() ([]domain.Problem, error) {
	return c.order, nil
}

func (c *catalogProblems) Count() (int64, error) {
	return int64(len(c.order)), nil
}

func (c *catalogProblems) CreateBatch(problems []domain.Problem) error {
	for i := range problems {
		c.byID[problems[i].ID] = &problems[i]
	}
	c.order = append(c.order, problems...)
	return nil
}

// catalogContests serves the embedded contest fixtures without a database
type catalogContests struct {
	byID  map[string]*domain.Contest
	order []domain.Contest
}

func newCatalogContests(contests []domain.Contest) *catalogContests {
	byID := make(map[string]*domain.Contest, len(contests))
	for i := range contests {
		byID[contests[i].ID] = &contests[i]
	}
	return &catalogContests{byID: byID, order: contests}
}

func (c *catalogContests) FindByID(id string) (*domain.Contest, error) {
	contest, ok := c.byID[id]
	if !ok {
		return nil, domain.ErrContestNotFound
	}
	return contest, nil
}

func (c *catalogContests) FindAll() ([]domain.Contest, error) {
	return c.order, nil
}

func (c *catalogContests) CreateBatch(contests []domain.Contest) error {
	for i := range contests {
		c.byID[contests[i].ID] = &contests[i]
	}
	c.order = append(c.order, contests...)
	return nil
}
