package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

type MatcherService struct {
	DB *gorm.DB
}

func NewMatcherService(db *gorm.DB) *MatcherService {
	return &MatcherService{DB: db}
}

// Approach-
// Every non-empty criterion narrows the result, an empty one adds nothing.
// Exact filters run in SQL. Case-insensitive comparisons (title keywords, job
// type names) are folded in Go, since SQL LOWER only folds ASCII on SQLite.
// Job type names are resolved first; if none resolve the answer is "no jobs".

// FilterJobs returns the open jobs matching c that userID has not applied to.
// A zero userID skips the applied-jobs exclusion.
func (s *MatcherService) FilterJobs(ctx context.Context, c models.MatchCriteria, userID uint) ([]models.Job, error) {
	query := s.DB.WithContext(ctx).Model(&models.Job{}).Where("is_open = ?", true)

	if userID != 0 {
		applied := s.DB.Model(&models.Application{}).Select("job_id").Where("user_id = ?", userID)
		query = query.Where("id NOT IN (?)", applied)
	}

	// --- RULE 1: Locations (exact) ---
	if len(c.Locations) > 0 {
		query = query.Where("location IN ?", c.Locations)
	}

	// --- RULE 2: Job types by name ---
	if len(c.JobTypes) > 0 {
		ids, err := s.resolveJobTypeIDs(ctx, c.JobTypes)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			// Fail closed: the user asked for types that don't exist.
			return []models.Job{}, nil
		}
		query = query.Where("job_type_id IN ?", ids)
	}

	// --- RULE 3: Salary range overlap ---
	if c.SalaryMax != nil {
		query = query.Where("COALESCE(salary_min, salary_max) <= ?", *c.SalaryMax)
	}
	if c.SalaryMin != nil {
		query = query.Where("COALESCE(salary_max, salary_min) >= ?", *c.SalaryMin)
	}

	var jobs []models.Job
	if err := query.Order("id").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("filter jobs: %w", err)
	}

	// --- RULE 4: Title keywords (OR, substring, case-insensitive) ---
	if len(c.JobTitles) > 0 {
		jobs = filterByTitle(jobs, c.JobTitles)
	}
	return jobs, nil
}

func (s *MatcherService) resolveJobTypeIDs(ctx context.Context, names []string) ([]uint, error) {
	fold := cases.Fold()
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[fold.String(n)] = struct{}{}
	}

	// job types are a short seeded list, so they are compared in full
	var types []models.JobType
	if err := s.DB.WithContext(ctx).Order("id").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("resolve job types: %w", err)
	}

	var ids []uint
	for _, jt := range types {
		if _, ok := wanted[fold.String(jt.Name)]; ok {
			ids = append(ids, jt.ID)
		}
	}
	return ids, nil
}

// filterByTitle keeps the jobs whose title contains at least one keyword, ignoring case.
func filterByTitle(jobs []models.Job, keywords []string) []models.Job {
	fold := cases.Fold()
	folded := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		folded = append(folded, fold.String(kw))
	}

	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		title := fold.String(job.Title)
		for _, kw := range folded {
			if strings.Contains(title, kw) {
				out = append(out, job)
				break
			}
		}
	}
	return out
}
