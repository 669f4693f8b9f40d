package domain

import (
	"github.com/lib/pq"
)

// Difficulty represents the difficulty level of a problem
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Weight returns a numeric weight for sorting and reward scaling
func (d Difficulty) Weight() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 0
	}
}

// Valid reports whether the difficulty is one of the known levels
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Problem represents a coding problem from the practice catalog.
// Catalog rows are seeded by content generators and never mutated by the judge.
type Problem struct {
	ID          string         `json:"id" gorm:"primary_key"`
	Title       string         `json:"title" gorm:"not null"`
	Difficulty  Difficulty     `json:"difficulty" gorm:"type:varchar(10);not null"`
	Topics      pq.StringArray `json:"topics" gorm:"type:text[]"`
	Description string         `json:"description" gorm:"type:text"`
	OrderIndex  int            `json:"order_index" gorm:"not null"`

	// Relationships
	TestCases    []TestCase    `json:"test_cases" gorm:"foreignKey:ProblemID"`
	StarterCodes []StarterCode `json:"starter_codes,omitempty" gorm:"foreignKey:ProblemID"`
}

// TableName specifies the table name for GORM
func (Problem) TableName() string {
	return "problems"
}

// TestCase is a single input/expected-output pair for a problem.
// Hidden cases are withheld from the "run" verb and included only in "submit".
type TestCase struct {
	ID             uint   `json:"id" gorm:"primary_key;auto_increment"`
	ProblemID      string `json:"problem_id" gorm:"index;not null"`
	OrderIndex     int    `json:"order_index" gorm:"not null"`
	Input          string `json:"input" gorm:"type:text;not null"`
	ExpectedOutput string `json:"expected_output" gorm:"type:text;not null"`
	IsHidden       bool   `json:"is_hidden" gorm:"default:false"`
	Explanation    string `json:"explanation,omitempty" gorm:"type:text"`
}

// TableName specifies the table name for GORM
func (TestCase) TableName() string {
	return "test_cases"
}

// StarterCode is the per-language code template shown in the editor
type StarterCode struct {
	ID        uint   `json:"-" gorm:"primary_key;auto_increment"`
	ProblemID string `json:"problem_id" gorm:"index;not null"`
	Language  string `json:"language" gorm:"type:varchar(32);not null"`
	Code      string `json:"code" gorm:"type:text;not null"`
}

// TableName specifies the table name for GORM
func (StarterCode) TableName() string {
	return "starter_codes"
}

// VisibleTestCases returns the non-hidden test cases in catalog order
func (p *Problem) VisibleTestCases() []TestCase {
	visible := make([]TestCase, 0, len(p.TestCases))
	for _, tc := range p.TestCases {
		if !tc.IsHidden {
			visible = append(visible, tc)
		}
	}
	return visible
}

// ProblemRepository defines read access to the problem catalog
type ProblemRepository interface {
	FindByID(id string) (*Problem, error)
	FindAll() ([]Problem, error)
	Count() (int64, error)
	CreateBatch(problems []Problem) error
}
