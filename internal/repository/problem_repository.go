package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/codearena/judge/internal/domain"
)

// problemRepository implements domain.ProblemRepository using GORM.
// The catalog is read-only at judge time; CreateBatch exists for the seeder.
type problemRepository struct {
	db *gorm.DB
}

// NewProblemRepository creates a new problem repository
func NewProblemRepository(db *gorm.DB) domain.ProblemRepository {
	return &problemRepository{db: db}
}

// FindByID finds a problem with its ordered test cases and starter code
func (r *problemRepository) FindByID(id string) (*domain.Problem, error) {
	var problem domain.Problem
	result := r.db.
		Preload("TestCases", func(db *gorm.DB) *gorm.DB {
			return db.Order("test_cases.order_index ASC")
		}).
		Preload("StarterCodes").
		Where("id = ?", id).
		First(&problem)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProblemNotFound
		}
		return nil, result.Error
	}
	return &problem, nil
}

// FindAll returns the full catalog in display order, without test cases
func (r *problemRepository) FindAll() ([]domain.Problem, error) {
	var problems []domain.Problem
	result := r.db.Order("order_index ASC").Find(&problems)
	return problems, result.Error
}

// Count returns the total number of catalog problems
func (r *problemRepository) Count() (int64, error) {
	var count int64
	result := r.db.Model(&domain.Problem{}).Count(&count)
	return count, result.Error
}

// CreateBatch inserts catalog problems with their test cases and templates
func (r *problemRepository) CreateBatch(problems []domain.Problem) error {
	if len(problems) == 0 {
		return nil
	}
	return r.db.Create(&problems).Error
}
