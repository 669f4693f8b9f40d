package domain

import "errors"

// Domain errors - these are business logic errors that should be translated
// to appropriate HTTP status codes by the handler layer

var (
	// Catalog errors
	ErrProblemNotFound = errors.New("problem not found")
	ErrContestNotFound = errors.New("contest not found")

	// Judge errors. A failing verdict (wrong_answer etc.) is not an error;
	// these cover requests the judge rejects before computing a verdict.
	ErrMalformedSubmission = errors.New("submission is missing code, language or test cases")
	ErrExecutorUnavailable = errors.New("execution backend unavailable")

	// Lookup errors
	ErrSubmissionNotFound      = errors.New("submission not found")
	ErrInvalidLeaderboardType  = errors.New("leaderboard type must be problem or contest")
	ErrEmptyDiscussionContent  = errors.New("discussion content must not be empty")
	ErrContestEnded            = errors.New("contest has already ended")

	// General errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidToken   = errors.New("invalid or expired token")
)

// DomainError wraps an error with additional context
type DomainError struct {
	Err     error
	Message string
	Code    string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &DomainError{
		Err:     err,
		Message: message,
	}
}
