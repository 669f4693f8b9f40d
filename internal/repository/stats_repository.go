package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/infrastructure"
)

// statsRepository implements domain.StatsRepository on a KV store. All
// mutations for one user serialize on that user's mutex so the solved-set
// check-then-increment stays atomic when the same user submits from two
// clients at once.
type statsRepository struct {
	kv    infrastructure.KVStore
	locks *keyedMutex
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(kv infrastructure.KVStore) domain.StatsRepository {
	return &statsRepository{
		kv:    kv,
		locks: newKeyedMutex(),
	}
}

func statsKey(userID string) string        { return fmt.Sprintf("user:%s:stats", userID) }
func solvedKey(userID string) string       { return fmt.Sprintf("user:%s:solved", userID) }
func coinsKey(userID string) string        { return fmt.Sprintf("user:%s:coins", userID) }
func transactionsKey(userID string) string { return fmt.Sprintf("user:%s:coin-transactions", userID) }
func userLockKey(userID string) string     { return "user:" + userID }

// GetStats returns the user's aggregate, zero-valued for unknown users
func (r *statsRepository) GetStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	return r.loadStats(ctx, userID)
}

// RecordSubmission bumps TotalSubmissions and recomputes the acceptance rate
func (r *statsRepository) RecordSubmission(ctx context.Context, userID string) error {
	unlock := r.locks.Lock(userLockKey(userID))
	defer unlock()

	stats, err := r.loadStats(ctx, userID)
	if err != nil {
		return err
	}
	stats.TotalSubmissions++
	stats.RecomputeAcceptanceRate()
	return r.saveStats(ctx, stats)
}

// RecordAccepted counts a solved problem at most once per (user, problem).
// The difficulty bucket comes from the problem's actual difficulty.
func (r *statsRepository) RecordAccepted(ctx context.Context, userID, problemID string, difficulty domain.Difficulty) (bool, error) {
	unlock := r.locks.Lock(userLockKey(userID))
	defer unlock()

	solved, err := r.loadSolvedSet(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range solved {
		if id == problemID {
			return false, nil
		}
	}

	solved = append(solved, problemID)
	rawSolved, err := json.Marshal(solved)
	if err != nil {
		return false, err
	}
	if err := r.kv.Set(ctx, solvedKey(userID), rawSolved); err != nil {
		return false, err
	}

	stats, err := r.loadStats(ctx, userID)
	if err != nil {
		return false, err
	}
	stats.ProblemsSolved++
	switch difficulty {
	case domain.DifficultyEasy:
		stats.EasyCount++
	case domain.DifficultyMedium:
		stats.MediumCount++
	case domain.DifficultyHard:
		stats.HardCount++
	}
	stats.RecomputeAcceptanceRate()
	if err := r.saveStats(ctx, stats); err != nil {
		return false, err
	}
	return true, nil
}

// IncrementContestsParticipated bumps the contest counter
func (r *statsRepository) IncrementContestsParticipated(ctx context.Context, userID string) error {
	unlock := r.locks.Lock(userLockKey(userID))
	defer unlock()

	stats, err := r.loadStats(ctx, userID)
	if err != nil {
		return err
	}
	stats.ContestsParticipated++
	return r.saveStats(ctx, stats)
}

// AwardCoins credits the balance and appends to the transaction log
func (r *statsRepository) AwardCoins(ctx context.Context, userID string, amount int, reason string) error {
	unlock := r.locks.Lock(userLockKey(userID))
	defer unlock()

	balance, err := r.loadCoinBalance(ctx, userID)
	if err != nil {
		return err
	}
	balance += amount
	if err := r.kv.Set(ctx, coinsKey(userID), []byte(strconv.Itoa(balance))); err != nil {
		return err
	}

	transactions, err := r.loadTransactions(ctx, userID)
	if err != nil {
		return err
	}
	transactions = append(transactions, domain.CoinTransaction{
		Amount:    amount,
		Reason:    reason,
		Timestamp: time.Now(),
	})
	raw, err := json.Marshal(transactions)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, transactionsKey(userID), raw)
}

// GetCoinBalance returns the user's coin balance, zero for unknown users
func (r *statsRepository) GetCoinBalance(ctx context.Context, userID string) (int, error) {
	unlock := r.locks.Lock(userLockKey(userID))
	defer unlock()
	return r.loadCoinBalance(ctx, userID)
}

func (r *statsRepository) loadStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	raw, err := r.kv.Get(ctx, statsKey(userID))
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return domain.NewUserStats(userID), nil
		}
		return nil, err
	}
	var stats domain.UserStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *statsRepository) saveStats(ctx context.Context, stats *domain.UserStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, statsKey(stats.UserID), raw)
}

func (r *statsRepository) loadSolvedSet(ctx context.Context, userID string) ([]string, error) {
	raw, err := r.kv.Get(ctx, solvedKey(userID))
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	var solved []string
	if err := json.Unmarshal(raw, &solved); err != nil {
		return nil, err
	}
	return solved, nil
}

func (r *statsRepository) loadCoinBalance(ctx context.Context, userID string) (int, error) {
	raw, err := r.kv.Get(ctx, coinsKey(userID))
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	balance, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *statsRepository) loadTransactions(ctx context.Context, userID string) ([]domain.CoinTransaction, error) {
	raw, err := r.kv.Get(ctx, transactionsKey(userID))
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return []domain.CoinTransaction{}, nil
		}
		return nil, err
	}
	var transactions []domain.CoinTransaction
	if err := json.Unmarshal(raw, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}
