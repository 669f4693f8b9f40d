package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/infrastructure"
	"github.com/codearena/judge/internal/judge"
	"github.com/codearena/judge/internal/repository"
)

// passFailExecutor passes every case unless the code contains "fail"
type passFailExecutor struct{}

func (passFailExecutor) Execute(ctx context.Context, code, language string, tc domain.TestCase) (domain.ExecutionResult, error) {
	if strings.Contains(code, "fail") {
		return domain.ExecutionResult{Passed: false, Output: "wrong", RuntimeMS: 25, MemoryMB: 7}, nil
	}
	return domain.ExecutionResult{Passed: true, Output: tc.ExpectedOutput, RuntimeMS: 25, MemoryMB: 7}, nil
}

// staticProblems is a fixed in-memory catalog for tests
type staticProblems struct {
	problems map[string]*domain.Problem
}

func (s *staticProblems) FindByID(id string) (*domain.Problem, error) {
	p, ok := s.problems[id]
	if !ok {
		return nil, domain.ErrProblemNotFound
	}
	return p, nil
}

func (s *staticProblems) FindAll() ([]domain.Problem, error) { return nil, nil }
func (s *staticProblems) Count() (int64, error)              { return int64(len(s.problems)), nil }
func (s *staticProblems) CreateBatch([]domain.Problem) error { return nil }

type judgeFixture struct {
	service     *JudgeService
	stats       domain.StatsRepository
	leaderboard domain.LeaderboardRepository
	submissions domain.SubmissionRepository
}

func newJudgeFixture(t *testing.T) *judgeFixture {
	t.Helper()

	tracer := nooptrace.NewTracerProvider().Tracer("test")
	logger := zap.NewNop()
	kv := infrastructure.NewMemoryStore()

	problems := &staticProblems{problems: map[string]*domain.Problem{
		"cp-1": {
			ID:         "cp-1",
			Title:      "Two Sum",
			Difficulty: domain.DifficultyEasy,
			TestCases: []domain.TestCase{
				{Input: "a", ExpectedOutput: "1"},
				{Input: "b", ExpectedOutput: "2"},
				{Input: "c", ExpectedOutput: "3", IsHidden: true},
			},
		},
		"cp-4": {
			ID:         "cp-4",
			Title:      "Merge K Sorted Lists",
			Difficulty: domain.DifficultyHard,
			TestCases: []domain.TestCase{
				{Input: "a", ExpectedOutput: "1"},
			},
		},
	}}

	engine := judge.NewEngine(passFailExecutor{}, tracer, logger)
	submissions := repository.NewSubmissionRepository(kv, repository.DefaultSubmissionHistoryLimit)
	stats := repository.NewStatsRepository(kv)
	leaderboard := repository.NewLeaderboardRepository(kv, repository.DefaultLeaderboardLimit)

	return &judgeFixture{
		service:     NewJudgeService(engine, problems, submissions, stats, leaderboard, infrastructure.NewNoopMetrics(), tracer, logger),
		stats:       stats,
		leaderboard: leaderboard,
		submissions: submissions,
	}
}

func TestSubmitCodeAcceptedUpdatesAggregates(t *testing.T) {
	f := newJudgeFixture(t)
	ctx := context.Background()

	resp, err := f.service.SubmitCode(ctx, &domain.SubmitCodeRequest{
		Code:      "def solve(): return 1",
		Language:  "python",
		ProblemID: "cp-1",
		UserID:    "u1",
		UserName:  "Alice",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Status != domain.StatusAccepted {
		t.Fatalf("status = %s, want accepted", resp.Status)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("judged %d cases, want 3 (hidden included)", len(resp.Results))
	}
	if resp.SubmissionID == "" {
		t.Fatal("missing submission ID")
	}

	stats, err := f.stats.GetStats(ctx, "u1")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.TotalSubmissions != 1 || stats.ProblemsSolved != 1 || stats.EasyCount != 1 {
		t.Fatalf("stats = %#v", stats)
	}

	balance, err := f.stats.GetCoinBalance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 10 {
		t.Fatalf("balance = %d, want 10 for an Easy solve", balance)
	}

	board, err := f.leaderboard.List(ctx, domain.LeaderboardTypeProblem, "cp-1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].UserID != "u1" || board[0].UserName != "Alice" {
		t.Fatalf("board = %#v", board)
	}

	history, err := f.submissions.ListByProblem(ctx, "cp-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != resp.SubmissionID {
		t.Fatalf("history = %#v", history)
	}
}

func TestSubmitCodeRepeatAcceptDoesNotDoubleCount(t *testing.T) {
	f := newJudgeFixture(t)
	ctx := context.Background()

	req := &domain.SubmitCodeRequest{
		Code:      "def solve(): return 1",
		Language:  "python",
		ProblemID: "cp-1",
		UserID:    "u1",
	}
	for i := 0; i < 2; i++ {
		if _, err := f.service.SubmitCode(ctx, req); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	stats, err := f.stats.GetStats(ctx, "u1")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.ProblemsSolved != 1 {
		t.Fatalf("solved = %d, want 1", stats.ProblemsSolved)
	}
	if stats.TotalSubmissions != 2 {
		t.Fatalf("total = %d, want 2", stats.TotalSubmissions)
	}
	if stats.AcceptanceRate != 50 {
		t.Fatalf("acceptance rate = %v, want 50", stats.AcceptanceRate)
	}

	balance, err := f.stats.GetCoinBalance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 10 {
		t.Fatalf("balance = %d, want 10 (no repeat reward)", balance)
	}
}

func TestSubmitCodeHardSolveRewardsMoreCoins(t *testing.T) {
	f := newJudgeFixture(t)
	ctx := context.Background()

	_, err := f.service.SubmitCode(ctx, &domain.SubmitCodeRequest{
		Code:      "def solve(): return 1",
		Language:  "python",
		ProblemID: "cp-4",
		UserID:    "u1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	balance, err := f.stats.GetCoinBalance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 30 {
		t.Fatalf("balance = %d, want 30 for a Hard solve", balance)
	}
}

func TestSubmitCodeWrongAnswerHasNoRewards(t *testing.T) {
	f := newJudgeFixture(t)
	ctx := context.Background()

	resp, err := f.service.SubmitCode(ctx, &domain.SubmitCodeRequest{
		Code:      "this will fail",
		Language:  "python",
		ProblemID: "cp-1",
		UserID:    "u1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Status != domain.StatusWrongAnswer {
		t.Fatalf("status = %s, want wrong_answer", resp.Status)
	}
	if resp.FailedCase == nil || resp.FailedCase.Index != 0 {
		t.Fatalf("failed case = %#v", resp.FailedCase)
	}

	stats, err := f.stats.GetStats(ctx, "u1")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.ProblemsSolved != 0 || stats.TotalSubmissions != 1 {
		t.Fatalf("stats = %#v", stats)
	}

	board, err := f.leaderboard.List(ctx, domain.LeaderboardTypeProblem, "cp-1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 0 {
		t.Fatalf("failing submit reached the leaderboard: %#v", board)
	}

	// the failing verdict is still recorded in history
	history, err := f.submissions.ListByProblem(ctx, "cp-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Status != domain.StatusWrongAnswer {
		t.Fatalf("history = %#v", history)
	}
}

func TestSubmitCodeGuestAttribution(t *testing.T) {
	f := newJudgeFixture(t)
	ctx := context.Background()

	_, err := f.service.SubmitCode(ctx, &domain.SubmitCodeRequest{
		Code:      "def solve(): return 1",
		Language:  "python",
		ProblemID: "cp-1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	stats, err := f.service.GetUserStats(ctx, "")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.UserID != GuestUserID || stats.TotalSubmissions != 1 {
		t.Fatalf("guest stats = %#v", stats)
	}
}

func TestSubmitCodeMalformedRequest(t *testing.T) {
	f := newJudgeFixture(t)

	// unknown problem and no inline cases: nothing to judge against
	_, err := f.service.SubmitCode(context.Background(), &domain.SubmitCodeRequest{
		Code:      "def solve(): return 1",
		Language:  "python",
		ProblemID: "does-not-exist",
	})
	if !errors.Is(err, domain.ErrMalformedSubmission) {
		t.Fatalf("err = %v, want ErrMalformedSubmission", err)
	}
}

func TestSubmitCodeInlineCasesForAdHocProblem(t *testing.T) {
	f := newJudgeFixture(t)

	resp, err := f.service.SubmitCode(context.Background(), &domain.SubmitCodeRequest{
		Code:      "def solve(): return 1",
		Language:  "python",
		ProblemID: "custom-1",
		UserID:    "u1",
		TestCases: []domain.TestCase{
			{Input: "x", ExpectedOutput: "y"},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Status != domain.StatusAccepted || len(resp.Results) != 1 {
		t.Fatalf("resp = %#v", resp)
	}
}

func TestExecuteCodeJudgesVisibleCasesOnly(t *testing.T) {
	f := newJudgeFixture(t)

	resp, err := f.service.ExecuteCode(context.Background(), &domain.ExecuteCodeRequest{
		Code:      "def solve(): return 1",
		Language:  "python",
		ProblemID: "cp-1",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("judged %d cases, want 2 visible", len(resp.Results))
	}
}

func TestExecuteCodePersistsNothing(t *testing.T) {
	f := newJudgeFixture(t)
	ctx := context.Background()

	_, err := f.service.ExecuteCode(ctx, &domain.ExecuteCodeRequest{
		Code:      "def solve(): return 1",
		Language:  "python",
		ProblemID: "cp-1",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	history, err := f.submissions.ListByProblem(ctx, "cp-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("run verb persisted a submission: %#v", history)
	}

	stats, err := f.stats.GetStats(ctx, GuestUserID)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.TotalSubmissions != 0 {
		t.Fatalf("run verb changed stats: %#v", stats)
	}
}

func TestGetLeaderboardRejectsUnknownType(t *testing.T) {
	f := newJudgeFixture(t)

	_, err := f.service.GetLeaderboard(context.Background(), "weekly", "cp-1")
	if !errors.Is(err, domain.ErrInvalidLeaderboardType) {
		t.Fatalf("err = %v, want ErrInvalidLeaderboardType", err)
	}
}

func TestLeaderboardKeepsBestRunAcrossSubmits(t *testing.T) {
	f := newJudgeFixture(t)
	ctx := context.Background()

	req := &domain.SubmitCodeRequest{
		Code:      "def solve(): return 1",
		Language:  "python",
		ProblemID: "cp-1",
		UserID:    "u1",
	}
	for i := 0; i < 3; i++ {
		if _, err := f.service.SubmitCode(ctx, req); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	board, err := f.service.GetLeaderboard(ctx, domain.LeaderboardTypeProblem, "cp-1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 {
		t.Fatalf("board has %d entries for one user, want 1", len(board))
	}
}
