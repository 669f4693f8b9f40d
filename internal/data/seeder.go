package data

import (
	_ "embed"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/codearena/judge/internal/domain"
)

//go:embed catalog.json
var catalogData []byte

// catalogJSON mirrors the embedded fixture layout
type catalogJSON struct {
	Problems []problemJSON `json:"problems"`
	Contests []contestJSON `json:"contests"`
}

type problemJSON struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Difficulty   string            `json:"difficulty"`
	Topics       []string          `json:"topics"`
	Description  string            `json:"description"`
	OrderIndex   int               `json:"order_index"`
	TestCases    []testCaseJSON    `json:"test_cases"`
	StarterCodes []starterCodeJSON `json:"starter_codes"`
}

type testCaseJSON struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
	Explanation    string `json:"explanation"`
}

type starterCodeJSON struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type contestJSON struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	StartOffsetHours int      `json:"start_offset_hours"`
	DurationMinutes  int      `json:"duration_minutes"`
	BaseParticipants int      `json:"base_participants"`
	ProblemIDs       []string `json:"problem_ids"`
}

// Seeder loads the embedded catalog into the database on first boot
type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSeeder creates a new catalog seeder
func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
	}
}

// SeedCatalog seeds problems and contests, skipping when data already exists
func (s *Seeder) SeedCatalog() error {
	s.logger.Info("Starting to seed catalog...")

	var count int64
	if err := s.db.Model(&domain.Problem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("Catalog already seeded, skipping",
			zap.Int64("count", count),
		)
		return nil
	}

	catalog, err := parseCatalog()
	if err != nil {
		return err
	}

	problems := CatalogProblems()
	if err := s.db.CreateInBatches(problems, 50).Error; err != nil {
		return err
	}

	contests := contestsFromJSON(catalog.Contests, time.Now())
	if len(contests) > 0 {
		if err := s.db.Create(&contests).Error; err != nil {
			return err
		}
	}

	s.logger.Info("Successfully seeded catalog",
		zap.Int("problems", len(problems)),
		zap.Int("contests", len(contests)),
	)

	return nil
}

// CatalogProblems returns the embedded problem fixtures as domain models.
// The offline mock service uses this directly, without a database.
func CatalogProblems() []domain.Problem {
	catalog, err := parseCatalog()
	if err != nil {
		// The fixture is embedded at build time; a parse failure is a bug.
		panic(err)
	}

	problems := make([]domain.Problem, len(catalog.Problems))
	for i, p := range catalog.Problems {
		cases := make([]domain.TestCase, len(p.TestCases))
		for j, tc := range p.TestCases {
			cases[j] = domain.TestCase{
				ProblemID:      p.ID,
				OrderIndex:     j,
				Input:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
				IsHidden:       tc.IsHidden,
				Explanation:    tc.Explanation,
			}
		}
		templates := make([]domain.StarterCode, len(p.StarterCodes))
		for j, sc := range p.StarterCodes {
			templates[j] = domain.StarterCode{
				ProblemID: p.ID,
				Language:  sc.Language,
				Code:      sc.Code,
			}
		}
		problems[i] = domain.Problem{
			ID:           p.ID,
			Title:        p.Title,
			Difficulty:   domain.Difficulty(p.Difficulty),
			Topics:       p.Topics,
			Description:  p.Description,
			OrderIndex:   p.OrderIndex,
			TestCases:    cases,
			StarterCodes: templates,
		}
	}
	return problems
}

// CatalogContests returns the embedded contest fixtures anchored to now
func CatalogContests(now time.Time) []domain.Contest {
	catalog, err := parseCatalog()
	if err != nil {
		panic(err)
	}
	return contestsFromJSON(catalog.Contests, now)
}

func contestsFromJSON(fixtures []contestJSON, now time.Time) []domain.Contest {
	contests := make([]domain.Contest, len(fixtures))
	for i, c := range fixtures {
		start := now.Add(time.Duration(c.StartOffsetHours) * time.Hour)
		problems := make([]domain.ContestProblem, len(c.ProblemIDs))
		for j, pid := range c.ProblemIDs {
			problems[j] = domain.ContestProblem{
				ContestID: c.ID,
				ProblemID: pid,
				Order:     j + 1,
			}
		}
		contests[i] = domain.Contest{
			ID:               c.ID,
			Title:            c.Title,
			StartTime:        start,
			EndTime:          start.Add(time.Duration(c.DurationMinutes) * time.Minute),
			DurationMinutes:  c.DurationMinutes,
			BaseParticipants: c.BaseParticipants,
			ContestProblems:  problems,
		}
	}
	return contests
}

func parseCatalog() (*catalogJSON, error) {
	var catalog catalogJSON
	if err := json.Unmarshal(catalogData, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}
