package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the verdict assigned to a submission after judging
type Status string

const (
	StatusAccepted         Status = "accepted"
	StatusWrongAnswer      Status = "wrong_answer"
	StatusTimeLimit        Status = "time_limit"
	StatusRuntimeError     Status = "runtime_error"
	StatusCompilationError Status = "compilation_error"
)

// IsTerminal reports whether the status is a valid judged verdict
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusWrongAnswer, StatusTimeLimit, StatusRuntimeError, StatusCompilationError:
		return true
	}
	return false
}

// ExecutionResult is the per-test-case outcome of one execution.
// It is produced fresh per invocation and never persisted standalone.
type ExecutionResult struct {
	Passed    bool    `json:"passed"`
	Output    string  `json:"output"`
	RuntimeMS int     `json:"runtime"`
	MemoryMB  float64 `json:"memory"`
}

// Submission is an immutable record of one submit call
type Submission struct {
	ID              string    `json:"id"`
	ProblemID       string    `json:"problem_id"`
	UserID          string    `json:"user_id"`
	Code            string    `json:"code"`
	Language        string    `json:"language"`
	Status          Status    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	RuntimeMS       int       `json:"runtime"`
	MemoryMB        float64   `json:"memory"`
	TestCasesPassed int       `json:"test_cases_passed"`
	TotalTestCases  int       `json:"total_test_cases"`
}

// NewSubmissionID derives a globally unique submission ID from the current
// time plus a random suffix. Collisions are not handled; the suffix entropy
// makes them negligible.
func NewSubmissionID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("sub-%d-%s", time.Now().UnixMilli(), suffix)
}

// FailedCase identifies the first failing test case for user-facing
// diagnostics. "First" means lowest index in the judged test-case order.
type FailedCase struct {
	Index          int    `json:"index"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
	Explanation    string `json:"explanation,omitempty"`
}

// ExecuteCodeRequest is the body of POST /execute-code.
// Test cases may be supplied inline by the UI; when the problem exists in the
// catalog the catalog's cases are authoritative.
type ExecuteCodeRequest struct {
	Code      string     `json:"code"`
	Language  string     `json:"language"`
	ProblemID string     `json:"problemId"`
	TestCases []TestCase `json:"testCases,omitempty"`
}

// ExecuteCodeResponse is the body returned by POST /execute-code
type ExecuteCodeResponse struct {
	Results []ExecutionResult `json:"results"`
}

// SubmitCodeRequest is the body of POST /submit-code
type SubmitCodeRequest struct {
	Code      string     `json:"code"`
	Language  string     `json:"language"`
	ProblemID string     `json:"problemId"`
	TestCases []TestCase `json:"testCases,omitempty"`
	UserID    string     `json:"userId,omitempty"`
	UserName  string     `json:"userName,omitempty"`
}

// SubmitCodeResponse is the body returned by POST /submit-code
type SubmitCodeResponse struct {
	Results      []ExecutionResult `json:"results"`
	Status       Status            `json:"status"`
	AvgRuntimeMS int               `json:"avgRuntime"`
	MemoryMB     float64           `json:"memory"`
	FailedCase   *FailedCase       `json:"failedCase,omitempty"`
	SubmissionID string            `json:"submissionId"`
}

// SubmissionRepository persists submit verdicts as immutable records,
// keeping a bounded most-recent-first history per problem.
type SubmissionRepository interface {
	Record(ctx context.Context, submission *Submission) error
	ListByProblem(ctx context.Context, problemID string) ([]Submission, error)
	FindByID(ctx context.Context, problemID, submissionID string) (*Submission, error)
}
