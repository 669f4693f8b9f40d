package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/service"
)

const (
	// DefaultTimeout bounds a single backend request
	DefaultTimeout = 30 * time.Second
	// DefaultRetries is the number of retries for idempotent reads
	DefaultRetries = 2
)

// Config configures the gateway
type Config struct {
	// BaseURL is the judge backend root, e.g. http://localhost:8080
	BaseURL string
	// Token, when set, is sent as a bearer token on every request
	Token string
	// Timeout bounds each request attempt. Zero means DefaultTimeout.
	Timeout time.Duration
	// Retries is the retry count for idempotent reads. Zero means
	// DefaultRetries; negative disables retries entirely.
	Retries int
	// MockMode serves every operation from the embedded local service
	// without touching the network.
	MockMode bool
}

// Result wraps a gateway response. Degraded is true when the data came from
// the local mock rather than the live backend, so callers can surface an
// offline indicator instead of passing mock data off as real.
type Result[T any] struct {
	Data     T
	Degraded bool
}

// APIError is a non-2xx response from the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Gateway is the client-side entry point to the judge backend. Reads go
// through a TTL cache and fall back to a local mock when the backend is
// unreachable; mutations invalidate the affected cache entries and are
// never retried, since a replayed submit or join would double-count.
type Gateway struct {
	config Config
	client *http.Client
	cache  *ttlCache
	mock   *MockService
	logger *zap.Logger
	sleep  func(time.Duration)
}

// NewGateway creates a gateway with the embedded mock as fallback
func NewGateway(config Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Retries == 0 {
		config.Retries = DefaultRetries
	}
	return &Gateway{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		cache:  newTTLCache(DefaultCacheTTL, nil),
		mock:   NewMockService(logger),
		logger: logger,
		sleep:  time.Sleep,
	}
}

// ExecuteCode judges code against visible test cases. Pure compute with no
// persistence, so it is safe to retry and to serve from the local engine.
func (g *Gateway) ExecuteCode(ctx context.Context, req *domain.ExecuteCodeRequest) (Result[*domain.ExecuteCodeResponse], error) {
	if !g.config.MockMode {
		var resp domain.ExecuteCodeResponse
		err := g.do(ctx, http.MethodPost, "/execute-code", req, &resp, g.retries())
		if err == nil {
			return Result[*domain.ExecuteCodeResponse]{Data: &resp}, nil
		}
		if !retryable(err) {
			return Result[*domain.ExecuteCodeResponse]{}, err
		}
		g.logWarnFallback("ExecuteCode", err)
	}
	resp, err := g.mock.ExecuteCode(ctx, req)
	if err != nil {
		return Result[*domain.ExecuteCodeResponse]{}, err
	}
	return Result[*domain.ExecuteCodeResponse]{Data: resp, Degraded: true}, nil
}

// SubmitCode judges and records a submission. Never retried and never
// silently mocked: a fabricated verdict would poison stats and leaderboards.
// In MockMode the local engine judges for real, flagged Degraded.
func (g *Gateway) SubmitCode(ctx context.Context, req *domain.SubmitCodeRequest) (Result[*domain.SubmitCodeResponse], error) {
	result := Result[*domain.SubmitCodeResponse]{}
	if g.config.MockMode {
		resp, err := g.mock.SubmitCode(ctx, req)
		if err != nil {
			return result, err
		}
		result.Data = resp
		result.Degraded = true
	} else {
		var resp domain.SubmitCodeResponse
		if err := g.do(ctx, http.MethodPost, "/submit-code", req, &resp, 0); err != nil {
			return result, err
		}
		result.Data = &resp
	}

	g.cache.Invalidate("submissions:" + req.ProblemID)
	g.cache.Invalidate("leaderboard:problem:" + req.ProblemID)
	g.cache.Invalidate("user-stats:" + statsUser(req.UserID))
	return result, nil
}

// GetSubmissions returns the retained history for a problem
func (g *Gateway) GetSubmissions(ctx context.Context, problemID string) (Result[[]domain.Submission], error) {
	return cachedRead(ctx, g, "submissions:"+problemID,
		func(ctx context.Context) ([]domain.Submission, error) {
			var wire struct {
				Submissions []domain.Submission `json:"submissions"`
			}
			err := g.do(ctx, http.MethodGet, "/submissions/"+url.PathEscape(problemID), nil, &wire, g.retries())
			return wire.Submissions, err
		},
		func(ctx context.Context) ([]domain.Submission, error) {
			return g.mock.GetSubmissions(ctx, problemID)
		},
	)
}

// GetLeaderboard returns a problem or contest ranking
func (g *Gateway) GetLeaderboard(ctx context.Context, boardType domain.LeaderboardType, id string) (Result[[]domain.LeaderboardEntry], error) {
	if !boardType.Valid() {
		return Result[[]domain.LeaderboardEntry]{}, domain.ErrInvalidLeaderboardType
	}
	key := fmt.Sprintf("leaderboard:%s:%s", boardType, id)
	return cachedRead(ctx, g, key,
		func(ctx context.Context) ([]domain.LeaderboardEntry, error) {
			var wire struct {
				Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
			}
			path := fmt.Sprintf("/leaderboard/%s/%s", boardType, url.PathEscape(id))
			err := g.do(ctx, http.MethodGet, path, nil, &wire, g.retries())
			return wire.Leaderboard, err
		},
		func(ctx context.Context) ([]domain.LeaderboardEntry, error) {
			return g.mock.GetLeaderboard(ctx, boardType, id)
		},
	)
}

// GetUserStats returns the user's aggregate counters
func (g *Gateway) GetUserStats(ctx context.Context, userID string) (Result[*domain.UserStats], error) {
	return cachedRead(ctx, g, "user-stats:"+statsUser(userID),
		func(ctx context.Context) (*domain.UserStats, error) {
			var wire struct {
				Stats *domain.UserStats `json:"stats"`
			}
			path := "/user-stats"
			if userID != "" {
				path += "?userId=" + url.QueryEscape(userID)
			}
			err := g.do(ctx, http.MethodGet, path, nil, &wire, g.retries())
			return wire.Stats, err
		},
		func(ctx context.Context) (*domain.UserStats, error) {
			return g.mock.GetUserStats(ctx, userID)
		},
	)
}

// GetContests returns all contests with derived status
func (g *Gateway) GetContests(ctx context.Context) (Result[[]domain.ContestResponse], error) {
	return cachedRead(ctx, g, "contests",
		func(ctx context.Context) ([]domain.ContestResponse, error) {
			var wire struct {
				Contests []domain.ContestResponse `json:"contests"`
			}
			err := g.do(ctx, http.MethodGet, "/contests", nil, &wire, g.retries())
			return wire.Contests, err
		},
		func(ctx context.Context) ([]domain.ContestResponse, error) {
			return g.mock.GetContests(ctx)
		},
	)
}

// JoinContest registers the user for a contest. Never retried; Data reports
// whether the user was newly added to the roster.
func (g *Gateway) JoinContest(ctx context.Context, contestID, userID string) (Result[bool], error) {
	result := Result[bool]{}
	if g.config.MockMode {
		joined, err := g.mock.JoinContest(ctx, contestID, userID)
		if err != nil {
			return result, err
		}
		result.Data = joined
		result.Degraded = true
	} else {
		var wire struct {
			Joined bool `json:"joined"`
		}
		body := domain.JoinContestRequest{UserID: userID}
		path := "/contests/" + url.PathEscape(contestID) + "/join"
		if err := g.do(ctx, http.MethodPost, path, body, &wire, 0); err != nil {
			return result, err
		}
		result.Data = wire.Joined
	}

	g.cache.Invalidate("contests")
	return result, nil
}

// GetDiscussions returns a problem's discussion threads
func (g *Gateway) GetDiscussions(ctx context.Context, problemID string) (Result[[]domain.Discussion], error) {
	return cachedRead(ctx, g, "discussions:"+problemID,
		func(ctx context.Context) ([]domain.Discussion, error) {
			var wire struct {
				Discussions []domain.Discussion `json:"discussions"`
			}
			err := g.do(ctx, http.MethodGet, "/discussions/"+url.PathEscape(problemID), nil, &wire, g.retries())
			return wire.Discussions, err
		},
		func(ctx context.Context) ([]domain.Discussion, error) {
			return g.mock.GetDiscussions(ctx, problemID)
		},
	)
}

// PostDiscussion creates a new thread under a problem. Never retried.
func (g *Gateway) PostDiscussion(ctx context.Context, problemID string, req *domain.PostDiscussionRequest) (Result[*domain.Discussion], error) {
	result := Result[*domain.Discussion]{}
	if g.config.MockMode {
		discussion, err := g.mock.PostDiscussion(ctx, problemID, req)
		if err != nil {
			return result, err
		}
		result.Data = discussion
		result.Degraded = true
	} else {
		var wire struct {
			Discussion *domain.Discussion `json:"discussion"`
		}
		path := "/discussions/" + url.PathEscape(problemID)
		if err := g.do(ctx, http.MethodPost, path, req, &wire, 0); err != nil {
			return result, err
		}
		result.Data = wire.Discussion
	}

	g.cache.Invalidate("discussions:" + problemID)
	return result, nil
}

// ClearCache drops every cached read
func (g *Gateway) ClearCache() {
	g.cache.Clear()
}

// cachedRead is the read protocol shared by every read operation: serve
// from cache, then the live backend with retries, then the local mock
// flagged Degraded. Degraded results are never cached so the next read
// probes the backend again.
func cachedRead[T any](ctx context.Context, g *Gateway, key string, live, local func(context.Context) (T, error)) (Result[T], error) {
	if cached, ok := g.cache.Get(key); ok {
		return cached.(Result[T]), nil
	}

	if !g.config.MockMode {
		data, err := live(ctx)
		if err == nil {
			result := Result[T]{Data: data}
			g.cache.Set(key, result)
			return result, nil
		}
		if !retryable(err) {
			return Result[T]{}, err
		}
		g.logWarnFallback(key, err)
	}

	data, err := local(ctx)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Data: data, Degraded: true}, nil
}

func (g *Gateway) retries() int {
	if g.config.Retries < 0 {
		return 0
	}
	return g.config.Retries
}

func (g *Gateway) logWarnFallback(op string, err error) {
	g.logger.Warn("Backend unreachable, serving local data",
		zap.String("operation", op),
		zap.Error(err),
	)
}

// retryable reports whether the failure is worth another attempt or a mock
// fallback. 4xx responses are the caller's fault and are surfaced as-is.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return true
}

// do sends one request with up to retries additional attempts, backing off
// 2^attempt seconds before each retry.
func (g *Gateway) do(ctx context.Context, method, path string, body, out interface{}, retries int) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			g.sleep(time.Duration(1<<attempt) * time.Second)
			g.logger.Debug("Retrying request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
			)
		}

		err := g.roundTrip(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (g *Gateway) roundTrip(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var wire struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&wire)
		if wire.Error == "" {
			wire.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: wire.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statsUser(userID string) string {
	if userID == "" {
		return service.GuestUserID
	}
	return userID
}
