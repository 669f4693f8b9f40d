package domain

import (
	"context"
	"time"
)

// ContestStatus is a pure function of wall-clock time relative to the
// contest window; it is never stored.
type ContestStatus string

const (
	ContestStatusUpcoming ContestStatus = "upcoming"
	ContestStatusActive   ContestStatus = "active"
	ContestStatusEnded    ContestStatus = "ended"
)

// Contest is a catalog entity with a fixed problem set and time window.
// Aside from participant joins it is never mutated.
type Contest struct {
	ID              string    `json:"id" gorm:"primary_key"`
	Title           string    `json:"title" gorm:"not null"`
	StartTime       time.Time `json:"start_time" gorm:"not null"`
	EndTime         time.Time `json:"end_time" gorm:"not null"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null"`
	BaseParticipants int      `json:"-" gorm:"not null;default:0"`

	// Relationships
	ContestProblems []ContestProblem `json:"-" gorm:"foreignKey:ContestID"`
}

// TableName specifies the table name for GORM
func (Contest) TableName() string {
	return "contests"
}

// ContestProblem orders a problem within a contest
type ContestProblem struct {
	ContestID string `json:"contest_id" gorm:"primaryKey"`
	ProblemID string `json:"problem_id" gorm:"primaryKey"`
	Order     int    `json:"order" gorm:"not null"`

	// Relationships (for loading)
	Problem Problem `json:"problem" gorm:"foreignKey:ProblemID"`
}

// TableName specifies the table name for GORM
func (ContestProblem) TableName() string {
	return "contest_problems"
}

// StatusAt classifies the contest relative to the given instant
func (c *Contest) StatusAt(now time.Time) ContestStatus {
	switch {
	case now.Before(c.StartTime):
		return ContestStatusUpcoming
	case now.After(c.EndTime):
		return ContestStatusEnded
	default:
		return ContestStatusActive
	}
}

// ContestResponse represents a contest in API responses
type ContestResponse struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	DurationMinutes int               `json:"duration_minutes"`
	Status          ContestStatus     `json:"status"`
	Participants    int               `json:"participants"`
	Problems        []ProblemResponse `json:"problems"`
}

// ProblemResponse represents a problem in API responses, without test cases
type ProblemResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Topics     []string   `json:"topics"`
}

// ToResponse converts a Problem to a ProblemResponse
func (p *Problem) ToResponse() ProblemResponse {
	return ProblemResponse{
		ID:         p.ID,
		Title:      p.Title,
		Difficulty: p.Difficulty,
		Topics:     p.Topics,
	}
}

// ToResponse converts a Contest to a ContestResponse. The participant count
// is the seeded baseline plus users who joined through the API.
func (c *Contest) ToResponse(now time.Time, joined int) ContestResponse {
	problems := make([]ProblemResponse, len(c.ContestProblems))
	for i, cp := range c.ContestProblems {
		problems[i] = cp.Problem.ToResponse()
	}

	return ContestResponse{
		ID:              c.ID,
		Title:           c.Title,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		DurationMinutes: c.DurationMinutes,
		Status:          c.StatusAt(now),
		Participants:    c.BaseParticipants + joined,
		Problems:        problems,
	}
}

// JoinContestRequest is the body of POST /contests/:id/join
type JoinContestRequest struct {
	UserID string `json:"userId"`
}

// ContestRepository defines read access to the contest catalog
type ContestRepository interface {
	FindByID(id string) (*Contest, error)
	FindAll() ([]Contest, error)
	CreateBatch(contests []Contest) error
}

// ParticipantRepository tracks contest joins, idempotent per user
type ParticipantRepository interface {
	// Join adds the user to the contest roster and reports whether the
	// user was newly added.
	Join(ctx context.Context, contestID, userID string) (bool, error)
	Count(ctx context.Context, contestID string) (int, error)
}
