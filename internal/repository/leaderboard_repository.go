package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/infrastructure"
)

// DefaultLeaderboardLimit caps each ranking at this many entries
const DefaultLeaderboardLimit = 100

// leaderboardRepository implements domain.LeaderboardRepository on a KV
// store. Each board is one stored value, guarded by a per-key mutex so
// concurrent upserts cannot lose the replace-only-if-better invariant.
type leaderboardRepository struct {
	kv    infrastructure.KVStore
	locks *keyedMutex
	limit int
}

// NewLeaderboardRepository creates a new leaderboard repository
func NewLeaderboardRepository(kv infrastructure.KVStore, limit int) domain.LeaderboardRepository {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	return &leaderboardRepository{
		kv:    kv,
		locks: newKeyedMutex(),
		limit: limit,
	}
}

func leaderboardKey(boardType domain.LeaderboardType, id string) string {
	return fmt.Sprintf("leaderboard:%s:%s", boardType, id)
}

// Upsert inserts the entry, or replaces the user's existing entry only when
// the new runtime is strictly lower. The board is then re-sorted ascending
// by runtime and truncated.
func (r *leaderboardRepository) Upsert(ctx context.Context, boardType domain.LeaderboardType, id string, entry domain.LeaderboardEntry) error {
	key := leaderboardKey(boardType, id)
	unlock := r.locks.Lock(key)
	defer unlock()

	board, err := r.load(ctx, key)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range board {
		if existing.UserID != entry.UserID {
			continue
		}
		if entry.RuntimeMS < existing.RuntimeMS {
			board[i] = entry
		}
		replaced = true
		break
	}
	if !replaced {
		board = append(board, entry)
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].RuntimeMS < board[j].RuntimeMS
	})
	if len(board) > r.limit {
		board = board[:r.limit]
	}

	raw, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, key, raw)
}

// List returns the ranking sorted ascending by runtime; an absent board
// yields an empty slice.
func (r *leaderboardRepository) List(ctx context.Context, boardType domain.LeaderboardType, id string) ([]domain.LeaderboardEntry, error) {
	return r.load(ctx, leaderboardKey(boardType, id))
}

func (r *leaderboardRepository) load(ctx context.Context, key string) ([]domain.LeaderboardEntry, error) {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return []domain.LeaderboardEntry{}, nil
		}
		return nil, err
	}
	var board []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &board); err != nil {
		return nil, err
	}
	return board, nil
}
