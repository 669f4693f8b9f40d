package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codearena/judge/internal/domain"
)

func newTestGateway(baseURL string) *Gateway {
	g := NewGateway(Config{BaseURL: baseURL, Timeout: 2 * time.Second}, nil)
	g.sleep = func(time.Duration) {} // no real backoff in tests
	return g
}

func TestGetSubmissionsCachesResponse(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"submissions": []domain.Submission{{ID: "sub-1", ProblemID: "cp-1"}},
		})
	}))
	defer server.Close()

	g := newTestGateway(server.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := g.GetSubmissions(ctx, "cp-1")
		if err != nil {
			t.Fatalf("get submissions: %v", err)
		}
		if result.Degraded {
			t.Fatal("live response flagged degraded")
		}
		if len(result.Data) != 1 || result.Data[0].ID != "sub-1" {
			t.Fatalf("data = %#v", result.Data)
		}
	}

	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Fatalf("backend hit %d times, want 1 (cached)", got)
	}
}

func TestReadRetriesOnServerError(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) < 3 {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"leaderboard": []domain.LeaderboardEntry{{UserID: "u1", RuntimeMS: 30}},
		})
	}))
	defer server.Close()

	g := newTestGateway(server.URL)
	var waits []time.Duration
	g.sleep = func(d time.Duration) { waits = append(waits, d) }

	result, err := g.GetLeaderboard(context.Background(), domain.LeaderboardTypeProblem, "cp-1")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if result.Degraded {
		t.Fatal("recovered read flagged degraded")
	}
	if atomic.LoadInt64(&hits) != 3 {
		t.Fatalf("backend hit %d times, want 3 (two retries)", hits)
	}
	if len(waits) != 2 || waits[0] != 2*time.Second || waits[1] != 4*time.Second {
		t.Fatalf("backoff = %v, want [2s 4s]", waits)
	}
}

func TestSubmitCodeIsNeverRetried(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	g := newTestGateway(server.URL)

	_, err := g.SubmitCode(context.Background(), &domain.SubmitCodeRequest{
		Code:      "def f(): return 1",
		Language:  "python",
		ProblemID: "cp-1",
	})
	if err == nil {
		t.Fatal("expected error, got fabricated verdict")
	}
	if atomic.LoadInt64(&hits) != 1 {
		t.Fatalf("backend hit %d times, want exactly 1", hits)
	}
}

func TestClientErrorsAreNotRetriedOrMocked(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(w, `{"error":"problem not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	g := newTestGateway(server.URL)

	_, err := g.GetSubmissions(context.Background(), "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 APIError", err)
	}
	if atomic.LoadInt64(&hits) != 1 {
		t.Fatalf("backend hit %d times, want 1 (no retry on 4xx)", hits)
	}
}

func TestReadFallsBackToLocalDataWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening

	g := NewGateway(Config{BaseURL: server.URL, Timeout: time.Second, Retries: -1}, nil)
	g.sleep = func(time.Duration) {}

	result, err := g.GetContests(context.Background())
	if err != nil {
		t.Fatalf("get contests: %v", err)
	}
	if !result.Degraded {
		t.Fatal("fallback data not flagged degraded")
	}
	if len(result.Data) == 0 {
		t.Fatal("local catalog returned no contests")
	}
}

func TestMockModeServesEverythingLocally(t *testing.T) {
	g := NewGateway(Config{MockMode: true}, nil)
	ctx := context.Background()

	exec, err := g.ExecuteCode(ctx, &domain.ExecuteCodeRequest{
		Code:      "def two_sum(nums, target):\n    return []",
		Language:  "python",
		ProblemID: "cp-1",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !exec.Degraded {
		t.Fatal("mock-mode response not flagged degraded")
	}
	if len(exec.Data.Results) == 0 {
		t.Fatal("mock execute returned no results")
	}

	submit, err := g.SubmitCode(ctx, &domain.SubmitCodeRequest{
		Code:      "def two_sum(nums, target):\n    return []",
		Language:  "python",
		ProblemID: "cp-1",
		UserID:    "u1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !submit.Degraded || !submit.Data.Status.IsTerminal() {
		t.Fatalf("mock submit = %#v", submit)
	}

	// the mock judged for real, so history reflects the submit
	history, err := g.GetSubmissions(ctx, "cp-1")
	if err != nil {
		t.Fatalf("get submissions: %v", err)
	}
	if len(history.Data) != 1 {
		t.Fatalf("history = %#v", history.Data)
	}
}

func TestSubmitCodeInvalidatesRelatedCaches(t *testing.T) {
	var listHits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			atomic.AddInt64(&listHits, 1)
			json.NewEncoder(w).Encode(map[string]interface{}{"submissions": []domain.Submission{}})
		default:
			json.NewEncoder(w).Encode(domain.SubmitCodeResponse{Status: domain.StatusAccepted, SubmissionID: "sub-1"})
		}
	}))
	defer server.Close()

	g := newTestGateway(server.URL)
	ctx := context.Background()

	if _, err := g.GetSubmissions(ctx, "cp-1"); err != nil {
		t.Fatalf("get submissions: %v", err)
	}
	if _, err := g.GetSubmissions(ctx, "cp-1"); err != nil {
		t.Fatalf("get submissions: %v", err)
	}
	if atomic.LoadInt64(&listHits) != 1 {
		t.Fatalf("list hits = %d, want 1 before submit", listHits)
	}

	if _, err := g.SubmitCode(ctx, &domain.SubmitCodeRequest{Code: "c", Language: "python", ProblemID: "cp-1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := g.GetSubmissions(ctx, "cp-1"); err != nil {
		t.Fatalf("get submissions: %v", err)
	}
	if atomic.LoadInt64(&listHits) != 2 {
		t.Fatalf("list hits = %d, want 2 after invalidation", listHits)
	}
}

func TestBearerTokenIsSent(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{"contests": []domain.ContestResponse{}})
	}))
	defer server.Close()

	g := NewGateway(Config{BaseURL: server.URL, Token: "tok-123"}, nil)
	g.sleep = func(time.Duration) {}

	if _, err := g.GetContests(context.Background()); err != nil {
		t.Fatalf("get contests: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
}

func TestGetLeaderboardRejectsInvalidTypeLocally(t *testing.T) {
	g := NewGateway(Config{MockMode: true}, nil)

	_, err := g.GetLeaderboard(context.Background(), "daily", "cp-1")
	if !errors.Is(err, domain.ErrInvalidLeaderboardType) {
		t.Fatalf("err = %v, want ErrInvalidLeaderboardType", err)
	}
}

func TestJoinContestMockModeIsIdempotent(t *testing.T) {
	g := NewGateway(Config{MockMode: true}, nil)
	ctx := context.Background()

	contests, err := g.GetContests(ctx)
	if err != nil {
		t.Fatalf("get contests: %v", err)
	}
	var joinable string
	for _, c := range contests.Data {
		if c.Status != domain.ContestStatusEnded {
			joinable = c.ID
			break
		}
	}
	if joinable == "" {
		t.Skip("no joinable contest in local catalog")
	}

	first, err := g.JoinContest(ctx, joinable, "u1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !first.Data {
		t.Fatal("first join should report newly added")
	}

	second, err := g.JoinContest(ctx, joinable, "u1")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if second.Data {
		t.Fatal("second join should be a no-op")
	}
}
