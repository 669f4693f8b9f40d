package domain

import (
	"context"
	"time"
)

// UserStats is the per-user aggregate maintained by the stats aggregator.
// AcceptanceRate is always recomputed from ProblemsSolved/TotalSubmissions,
// never mutated independently.
type UserStats struct {
	UserID               string   `json:"user_id"`
	ProblemsSolved       int      `json:"problems_solved"`
	TotalSubmissions     int      `json:"total_submissions"`
	AcceptanceRate       float64  `json:"acceptance_rate"`
	EasyCount            int      `json:"easy_count"`
	MediumCount          int      `json:"medium_count"`
	HardCount            int      `json:"hard_count"`
	Streak               int      `json:"streak"`
	Rank                 int      `json:"rank"`
	Rating               int      `json:"rating"`
	ContestsParticipated int      `json:"contests_participated"`
	Badges               []string `json:"badges"`
}

// NewUserStats returns the zero-value stats record for a fresh user
func NewUserStats(userID string) *UserStats {
	return &UserStats{
		UserID: userID,
		Rating: 1200,
		Badges: []string{},
	}
}

// RecomputeAcceptanceRate derives the acceptance rate from its inputs
func (s *UserStats) RecomputeAcceptanceRate() {
	if s.TotalSubmissions == 0 {
		s.AcceptanceRate = 0
		return
	}
	s.AcceptanceRate = float64(s.ProblemsSolved) / float64(s.TotalSubmissions) * 100
}

// LeaderboardEntry is one ranking row, at most one per (board, user) pair.
// Only a user's best (lowest runtime) accepted run is retained.
type LeaderboardEntry struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	RuntimeMS int       `json:"runtime"`
	Timestamp time.Time `json:"timestamp"`
	Language  string    `json:"language"`
}

// LeaderboardType selects which ranking a leaderboard key addresses
type LeaderboardType string

const (
	LeaderboardTypeProblem LeaderboardType = "problem"
	LeaderboardTypeContest LeaderboardType = "contest"
)

// Valid reports whether the leaderboard type is known
func (t LeaderboardType) Valid() bool {
	return t == LeaderboardTypeProblem || t == LeaderboardTypeContest
}

// CoinTransaction is one entry in a user's coin ledger
type CoinTransaction struct {
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// StatsRepository maintains per-user aggregates. Implementations must make
// the solved-set check-then-increment atomic per user so that accepting the
// same problem twice counts it once.
type StatsRepository interface {
	GetStats(ctx context.Context, userID string) (*UserStats, error)
	// RecordSubmission bumps TotalSubmissions for every submit regardless of verdict.
	RecordSubmission(ctx context.Context, userID string) error
	// RecordAccepted counts a solved problem at most once per (user, problem).
	// It reports whether this accept was the first for the problem.
	RecordAccepted(ctx context.Context, userID, problemID string, difficulty Difficulty) (bool, error)
	IncrementContestsParticipated(ctx context.Context, userID string) error
	AwardCoins(ctx context.Context, userID string, amount int, reason string) error
	GetCoinBalance(ctx context.Context, userID string) (int, error)
}

// LeaderboardRepository maintains per-board rankings sorted ascending by
// runtime and truncated to a fixed size.
type LeaderboardRepository interface {
	Upsert(ctx context.Context, boardType LeaderboardType, id string, entry LeaderboardEntry) error
	List(ctx context.Context, boardType LeaderboardType, id string) ([]LeaderboardEntry, error)
}
