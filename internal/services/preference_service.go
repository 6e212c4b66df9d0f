package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/dtos"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPreferenceNotFound = errors.New("auto-apply preferences not found")
	ErrInvalidSalaryRange = errors.New("salary_min must not exceed salary_max")
)

type PreferenceService struct {
	DB *gorm.DB
}

func NewPreferenceService(db *gorm.DB) *PreferenceService {
	return &PreferenceService{DB: db}
}

func (s *PreferenceService) Get(ctx context.Context, userID uint) (*models.AutoApplyPreference, error) {
	var pref models.AutoApplyPreference
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPreferenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences for user %d: %w", userID, err)
	}
	return &pref, nil
}

// Upsert creates the user's preference row on first use and replaces the
// filter fields. Enabled only changes when the request sets it.
func (s *PreferenceService) Upsert(ctx context.Context, userID uint, req *dtos.PreferenceUpdateRequest) (*models.AutoApplyPreference, error) {
	if req.SalaryMin != nil && req.SalaryMax != nil && *req.SalaryMin > *req.SalaryMax {
		return nil, ErrInvalidSalaryRange
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Select("id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	// it creates the row if it doesn't exist yet
	var pref models.AutoApplyPreference
	err := s.DB.WithContext(ctx).
		Where(models.AutoApplyPreference{UserID: userID}).
		FirstOrInit(&pref).Error
	if err != nil {
		return nil, fmt.Errorf("load preferences for user %d: %w", userID, err)
	}

	if req.Enabled != nil {
		pref.Enabled = *req.Enabled
	}
	pref.JobTitles = models.StringList(req.JobTitles...)
	pref.Locations = models.StringList(req.Locations...)
	pref.JobTypes = models.StringList(req.JobTypes...)
	pref.SalaryMin = req.SalaryMin
	pref.SalaryMax = req.SalaryMax
	pref.CoverLetterTemplate = req.CoverLetterTemplate

	if err := s.DB.WithContext(ctx).Save(&pref).Error; err != nil {
		return nil, fmt.Errorf("save preferences for user %d: %w", userID, err)
	}
	return &pref, nil
}

// Toggle flips auto-apply on or off for an existing preference row.
func (s *PreferenceService) Toggle(ctx context.Context, userID uint) (*models.AutoApplyPreference, error) {
	pref, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	pref.Enabled = !pref.Enabled
	err = s.DB.WithContext(ctx).Model(pref).Update("auto_apply_enabled", pref.Enabled).Error
	if err != nil {
		return nil, fmt.Errorf("toggle preferences for user %d: %w", userID, err)
	}
	return pref, nil
}
