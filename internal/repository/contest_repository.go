package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/codearena/judge/internal/domain"
)

// contestRepository implements domain.ContestRepository using GORM
type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository creates a new contest repository
func NewContestRepository(db *gorm.DB) domain.ContestRepository {
	return &contestRepository{db: db}
}

// FindByID finds a contest with its ordered problems
func (r *contestRepository) FindByID(id string) (*domain.Contest, error) {
	var contest domain.Contest
	result := r.db.
		Preload("ContestProblems", func(db *gorm.DB) *gorm.DB {
			return db.Order("contest_problems.\"order\" ASC")
		}).
		Preload("ContestProblems.Problem").
		Where("id = ?", id).
		First(&contest)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrContestNotFound
		}
		return nil, result.Error
	}
	return &contest, nil
}

// FindAll returns all contests with their problems, soonest first
func (r *contestRepository) FindAll() ([]domain.Contest, error) {
	var contests []domain.Contest
	result := r.db.
		Preload("ContestProblems", func(db *gorm.DB) *gorm.DB {
			return db.Order("contest_problems.\"order\" ASC")
		}).
		Preload("ContestProblems.Problem").
		Order("start_time ASC").
		Find(&contests)
	return contests, result.Error
}

// CreateBatch inserts catalog contests; used by the seeder only
func (r *contestRepository) CreateBatch(contests []domain.Contest) error {
	if len(contests) == 0 {
		return nil
	}
	return r.db.Create(&contests).Error
}
