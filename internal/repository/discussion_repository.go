package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/infrastructure"
)

// discussionRepository implements domain.DiscussionRepository on a KV store
type discussionRepository struct {
	kv    infrastructure.KVStore
	locks *keyedMutex
}

// NewDiscussionRepository creates a new discussion repository
func NewDiscussionRepository(kv infrastructure.KVStore) domain.DiscussionRepository {
	return &discussionRepository{
		kv:    kv,
		locks: newKeyedMutex(),
	}
}

func discussionsKey(problemID string) string {
	return fmt.Sprintf("discussions:%s", problemID)
}

// ListByProblem returns the problem's threads most-recent-first
func (r *discussionRepository) ListByProblem(ctx context.Context, problemID string) ([]domain.Discussion, error) {
	return r.load(ctx, discussionsKey(problemID))
}

// Append prepends the discussion to the problem's thread list
func (r *discussionRepository) Append(ctx context.Context, discussion *domain.Discussion) error {
	key := discussionsKey(discussion.ProblemID)
	unlock := r.locks.Lock(key)
	defer unlock()

	threads, err := r.load(ctx, key)
	if err != nil {
		return err
	}
	threads = append([]domain.Discussion{*discussion}, threads...)

	raw, err := json.Marshal(threads)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, key, raw)
}

func (r *discussionRepository) load(ctx context.Context, key string) ([]domain.Discussion, error) {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return []domain.Discussion{}, nil
		}
		return nil, err
	}
	var threads []domain.Discussion
	if err := json.Unmarshal(raw, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}
