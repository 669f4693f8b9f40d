package judge

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/codearena/judge/internal/domain"
)

// scriptedExecutor passes or fails cases by input, without randomness
type scriptedExecutor struct {
	failInputs map[string]bool
	err        error
	delay      time.Duration
}

func (e *scriptedExecutor) Execute(ctx context.Context, code, language string, tc domain.TestCase) (domain.ExecutionResult, error) {
	if e.err != nil {
		return domain.ExecutionResult{}, e.err
	}
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return domain.ExecutionResult{}, ctx.Err()
		}
	}
	if e.failInputs[tc.Input] {
		return domain.ExecutionResult{Passed: false, Output: "wrong", RuntimeMS: 20, MemoryMB: 6}, nil
	}
	return domain.ExecutionResult{Passed: true, Output: tc.ExpectedOutput, RuntimeMS: 10, MemoryMB: 5}, nil
}

func newTestEngine(executor CodeExecutor) *Engine {
	tracer := nooptrace.NewTracerProvider().Tracer("test")
	return NewEngine(executor, tracer, zap.NewNop())
}

func makeCases(n int, hidden ...int) []domain.TestCase {
	hiddenSet := map[int]bool{}
	for _, i := range hidden {
		hiddenSet[i] = true
	}
	cases := make([]domain.TestCase, n)
	for i := range cases {
		cases[i] = domain.TestCase{
			Input:          "in-" + strconv.Itoa(i),
			ExpectedOutput: "out-" + strconv.Itoa(i),
			IsHidden:       hiddenSet[i],
		}
	}
	return cases
}

func TestRunAllPassedIsAccepted(t *testing.T) {
	engine := newTestEngine(&scriptedExecutor{})

	result, err := engine.Run(context.Background(), makeCases(4), "code", "python", false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != domain.StatusAccepted {
		t.Fatalf("status = %s, want accepted", result.Status)
	}
	if result.PassedCount != 4 || result.TotalCount != 4 {
		t.Fatalf("passed %d/%d, want 4/4", result.PassedCount, result.TotalCount)
	}
	if result.FailedCase != nil {
		t.Fatalf("unexpected failed case: %#v", result.FailedCase)
	}
}

func TestRunAnyFailureIsWrongAnswer(t *testing.T) {
	engine := newTestEngine(&scriptedExecutor{failInputs: map[string]bool{"in-2": true}})

	result, err := engine.Run(context.Background(), makeCases(4), "code", "python", false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != domain.StatusWrongAnswer {
		t.Fatalf("status = %s, want wrong_answer", result.Status)
	}
	if result.PassedCount != 3 {
		t.Fatalf("passed = %d, want 3", result.PassedCount)
	}
}

func TestRunFirstFailingCaseHasLowestIndex(t *testing.T) {
	engine := newTestEngine(&scriptedExecutor{failInputs: map[string]bool{"in-1": true, "in-3": true}})

	result, err := engine.Run(context.Background(), makeCases(5), "code", "python", false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.FailedCase == nil {
		t.Fatal("expected a failed case")
	}
	if result.FailedCase.Index != 1 {
		t.Fatalf("failed case index = %d, want 1", result.FailedCase.Index)
	}
	if result.FailedCase.Input != "in-1" || result.FailedCase.ExpectedOutput != "out-1" {
		t.Fatalf("failed case diagnostics mismatch: %#v", result.FailedCase)
	}
}

func TestRunPreservesCaseOrder(t *testing.T) {
	// A real sandbox finishes cases out of order; results must still land
	// at their case's index.
	engine := newTestEngine(&scriptedExecutor{delay: time.Millisecond})

	cases := makeCases(8)
	result, err := engine.Run(context.Background(), cases, "code", "python", false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, res := range result.Results {
		if res.Output != cases[i].ExpectedOutput {
			t.Fatalf("results[%d].Output = %q, want %q", i, res.Output, cases[i].ExpectedOutput)
		}
	}
}

func TestRunVisibleOnlyFiltersHiddenCases(t *testing.T) {
	engine := newTestEngine(&scriptedExecutor{failInputs: map[string]bool{"in-3": true}})

	// Case 3 is hidden and failing; a visible-only run never sees it.
	result, err := engine.Run(context.Background(), makeCases(4, 3), "code", "python", true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.TotalCount != 3 {
		t.Fatalf("total = %d, want 3 visible cases", result.TotalCount)
	}
	if result.Status != domain.StatusAccepted {
		t.Fatalf("status = %s, want accepted", result.Status)
	}
}

func TestRunAverages(t *testing.T) {
	engine := newTestEngine(&scriptedExecutor{failInputs: map[string]bool{"in-0": true}})

	result, err := engine.Run(context.Background(), makeCases(2), "code", "python", false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// one failed case (20ms, 6MB) and one passed (10ms, 5MB)
	if result.AvgRuntimeMS != 15 {
		t.Fatalf("avg runtime = %d, want 15", result.AvgRuntimeMS)
	}
	if result.AvgMemoryMB != 5.5 {
		t.Fatalf("avg memory = %v, want 5.5", result.AvgMemoryMB)
	}
}

func TestRunMalformedSubmissions(t *testing.T) {
	engine := newTestEngine(&scriptedExecutor{})

	tests := []struct {
		name        string
		cases       []domain.TestCase
		code        string
		language    string
		visibleOnly bool
	}{
		{"empty code", makeCases(2), "", "python", false},
		{"empty language", makeCases(2), "code", "", false},
		{"no test cases", nil, "code", "python", false},
		{"all cases hidden on run", makeCases(2, 0, 1), "code", "python", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Run(context.Background(), tt.cases, tt.code, tt.language, tt.visibleOnly)
			if !errors.Is(err, domain.ErrMalformedSubmission) {
				t.Fatalf("err = %v, want ErrMalformedSubmission", err)
			}
		})
	}
}

func TestRunExecutorFailureIsUnavailable(t *testing.T) {
	engine := newTestEngine(&scriptedExecutor{err: errors.New("sandbox down")})

	_, err := engine.Run(context.Background(), makeCases(2), "code", "python", false)
	if !errors.Is(err, domain.ErrExecutorUnavailable) {
		t.Fatalf("err = %v, want ErrExecutorUnavailable", err)
	}
}

func TestRunCaseTimeoutIsTimeLimitVerdict(t *testing.T) {
	engine := newTestEngine(&scriptedExecutor{delay: 200 * time.Millisecond}).
		WithCaseTimeout(10 * time.Millisecond)

	result, err := engine.Run(context.Background(), makeCases(2), "code", "python", false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != domain.StatusTimeLimit {
		t.Fatalf("status = %s, want time_limit", result.Status)
	}
	if result.PassedCount != 0 {
		t.Fatalf("passed = %d, want 0", result.PassedCount)
	}
}

func TestRunCancelledParentContextFails(t *testing.T) {
	engine := newTestEngine(&scriptedExecutor{delay: time.Second}).
		WithCaseTimeout(10 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := engine.Run(ctx, makeCases(1), "code", "python", false)
	if !errors.Is(err, domain.ErrExecutorUnavailable) {
		t.Fatalf("err = %v, want ErrExecutorUnavailable", err)
	}
}
