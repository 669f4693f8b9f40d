package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/infrastructure"
)

// DefaultSubmissionHistoryLimit caps the retained per-problem history
const DefaultSubmissionHistoryLimit = 50

// submissionRepository implements domain.SubmissionRepository on a KV store.
// The per-problem list is a single stored value, so Record serializes on a
// per-key mutex to keep the prepend-and-truncate cycle atomic under
// concurrent submits.
type submissionRepository struct {
	kv           infrastructure.KVStore
	locks        *keyedMutex
	historyLimit int
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(kv infrastructure.KVStore, historyLimit int) domain.SubmissionRepository {
	if historyLimit <= 0 {
		historyLimit = DefaultSubmissionHistoryLimit
	}
	return &submissionRepository{
		kv:           kv,
		locks:        newKeyedMutex(),
		historyLimit: historyLimit,
	}
}

func submissionListKey(problemID string) string {
	return fmt.Sprintf("submissions:%s", problemID)
}

func submissionKey(problemID, submissionID string) string {
	return fmt.Sprintf("submission:%s:%s", problemID, submissionID)
}

// Record appends the submission at the head of the per-problem history and
// truncates to the retention limit. Oldest entries fall off the tail.
func (r *submissionRepository) Record(ctx context.Context, submission *domain.Submission) error {
	raw, err := json.Marshal(submission)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, submissionKey(submission.ProblemID, submission.ID), raw); err != nil {
		return err
	}

	listKey := submissionListKey(submission.ProblemID)
	unlock := r.locks.Lock(listKey)
	defer unlock()

	history, err := r.loadHistory(ctx, listKey)
	if err != nil {
		return err
	}

	history = append([]domain.Submission{*submission}, history...)
	if len(history) > r.historyLimit {
		history = history[:r.historyLimit]
	}

	updated, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, listKey, updated)
}

// ListByProblem returns the retained history most-recent-first. A problem
// with no submissions yields an empty slice, not an error.
func (r *submissionRepository) ListByProblem(ctx context.Context, problemID string) ([]domain.Submission, error) {
	return r.loadHistory(ctx, submissionListKey(problemID))
}

// FindByID retrieves a single submission record
func (r *submissionRepository) FindByID(ctx context.Context, problemID, submissionID string) (*domain.Submission, error) {
	raw, err := r.kv.Get(ctx, submissionKey(problemID, submissionID))
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, err
	}
	var submission domain.Submission
	if err := json.Unmarshal(raw, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) loadHistory(ctx context.Context, key string) ([]domain.Submission, error) {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return []domain.Submission{}, nil
		}
		return nil, err
	}
	var history []domain.Submission
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, err
	}
	return history, nil
}
