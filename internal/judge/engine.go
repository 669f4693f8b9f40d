package judge

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/codearena/judge/internal/domain"
)

// timeLimitOutput marks a case that hit the per-case deadline
const timeLimitOutput = "time limit exceeded"

// JudgeResult aggregates the per-case results of one run or submit
type JudgeResult struct {
	Results      []domain.ExecutionResult
	Status       domain.Status
	PassedCount  int
	TotalCount   int
	AvgRuntimeMS int
	AvgMemoryMB  float64
	FailedCase   *domain.FailedCase
}

// Engine orchestrates execution of a full test-case set and aggregates
// per-case results into a verdict. The execution backend is pluggable; a
// real sandboxed runner can replace the simulator without touching this
// contract.
type Engine struct {
	executor    CodeExecutor
	caseTimeout time.Duration
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewEngine creates a judge engine on top of the given executor
func NewEngine(executor CodeExecutor, tracer trace.Tracer, logger *zap.Logger) *Engine {
	return &Engine{
		executor: executor,
		tracer:   tracer,
		logger:   logger,
	}
}

// WithCaseTimeout bounds each test case's execution. Zero means no bound.
func (e *Engine) WithCaseTimeout(timeout time.Duration) *Engine {
	e.caseTimeout = timeout
	return e
}

// Run judges the given code against the test-case set. visibleOnly selects
// the "run" verb subset (hidden cases withheld); submit passes false and
// judges the full set. Test cases execute concurrently, but results are
// reassembled in test-case order so the UI can map results[i] to its case.
func (e *Engine) Run(ctx context.Context, testCases []domain.TestCase, code, language string, visibleOnly bool) (*JudgeResult, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Run")
	defer span.End()

	if code == "" || language == "" {
		return nil, domain.ErrMalformedSubmission
	}

	selected := testCases
	if visibleOnly {
		selected = make([]domain.TestCase, 0, len(testCases))
		for _, tc := range testCases {
			if !tc.IsHidden {
				selected = append(selected, tc)
			}
		}
	}
	if len(selected) == 0 {
		return nil, domain.ErrMalformedSubmission
	}

	span.SetAttributes(
		attribute.String("judge.language", language),
		attribute.Int("judge.case_count", len(selected)),
		attribute.Bool("judge.visible_only", visibleOnly),
	)

	// Fan-out: one goroutine per case, results land at their case's index.
	results := make([]domain.ExecutionResult, len(selected))
	errs := make([]error, len(selected))
	var wg sync.WaitGroup
	for i, tc := range selected {
		wg.Add(1)
		go func(i int, tc domain.TestCase) {
			defer wg.Done()
			results[i], errs[i] = e.executeCase(ctx, code, language, tc)
		}(i, tc)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			e.logger.Error("Test case execution failed",
				zap.Int("case_index", i),
				zap.Error(err),
			)
			return nil, domain.WrapError(domain.ErrExecutorUnavailable, err.Error())
		}
	}

	return e.aggregate(selected, results), nil
}

// executeCase runs one case under the per-case deadline. A case that blows
// its own deadline is a failed result, not an infrastructure error; a
// cancelled parent context still aborts the whole run.
func (e *Engine) executeCase(ctx context.Context, code, language string, tc domain.TestCase) (domain.ExecutionResult, error) {
	caseCtx := ctx
	if e.caseTimeout > 0 {
		var cancel context.CancelFunc
		caseCtx, cancel = context.WithTimeout(ctx, e.caseTimeout)
		defer cancel()
	}

	result, err := e.executor.Execute(caseCtx, code, language, tc)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return domain.ExecutionResult{
			Passed:    false,
			Output:    timeLimitOutput,
			RuntimeMS: int(e.caseTimeout / time.Millisecond),
		}, nil
	}
	return result, err
}

// aggregate computes the verdict and diagnostics from ordered results
func (e *Engine) aggregate(cases []domain.TestCase, results []domain.ExecutionResult) *JudgeResult {
	passed := 0
	totalRuntime := 0
	totalMemory := 0.0
	timedOut := false
	var failed *domain.FailedCase

	for i, res := range results {
		totalRuntime += res.RuntimeMS
		totalMemory += res.MemoryMB
		if res.Passed {
			passed++
			continue
		}
		if res.Output == timeLimitOutput {
			timedOut = true
		}
		if failed == nil {
			failed = &domain.FailedCase{
				Index:          i,
				Input:          cases[i].Input,
				ExpectedOutput: cases[i].ExpectedOutput,
				ActualOutput:   res.Output,
				Explanation:    cases[i].Explanation,
			}
		}
	}

	status := domain.StatusWrongAnswer
	if timedOut {
		status = domain.StatusTimeLimit
	}
	if passed == len(results) {
		status = domain.StatusAccepted
	}

	return &JudgeResult{
		Results:      results,
		Status:       status,
		PassedCount:  passed,
		TotalCount:   len(results),
		AvgRuntimeMS: totalRuntime / len(results),
		AvgMemoryMB:  totalMemory / float64(len(results)),
		FailedCase:   failed,
	}
}
