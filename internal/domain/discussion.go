package domain

import (
	"context"
	"time"
)

// Discussion is one thread posted under a problem
type Discussion struct {
	ID        string    `json:"id"`
	ProblemID string    `json:"problem_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PostDiscussionRequest is the body of POST /discussions/:problemId
type PostDiscussionRequest struct {
	Content  string `json:"content"`
	UserID   string `json:"userId,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// DiscussionRepository persists per-problem discussion threads,
// most-recent-first.
type DiscussionRepository interface {
	ListByProblem(ctx context.Context, problemID string) ([]Discussion, error)
	Append(ctx context.Context, discussion *Discussion) error
}
