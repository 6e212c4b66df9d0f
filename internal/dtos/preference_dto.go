package dtos

import (
	"time"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
)

type PreferenceUpdateRequest struct {
	Enabled             *bool    `json:"auto_apply_enabled"`
	JobTitles           []string `json:"job_titles" binding:"omitempty,max=50,dive,max=120"`
	Locations           []string `json:"locations" binding:"omitempty,max=50,dive,max=120"`
	JobTypes            []string `json:"job_types" binding:"omitempty,max=20,dive,max=60"`
	SalaryMin           *float64 `json:"salary_min" binding:"omitempty,gte=0"`
	SalaryMax           *float64 `json:"salary_max" binding:"omitempty,gte=0"`
	CoverLetterTemplate *string  `json:"cover_letter_template" binding:"omitempty,max=5000"`
}

// PreferenceResponse exposes the normalized lists, never the raw stored encoding.
type PreferenceResponse struct {
	UserID              uint      `json:"user_id"`
	Enabled             bool      `json:"auto_apply_enabled"`
	JobTitles           []string  `json:"job_titles"`
	Locations           []string  `json:"locations"`
	JobTypes            []string  `json:"job_types"`
	SalaryMin           *float64  `json:"salary_min"`
	SalaryMax           *float64  `json:"salary_max"`
	CoverLetterTemplate *string   `json:"cover_letter_template"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func NewPreferenceResponse(p *models.AutoApplyPreference) PreferenceResponse {
	c := p.Criteria()
	return PreferenceResponse{
		UserID:              p.UserID,
		Enabled:             p.Enabled,
		JobTitles:           nonNil(c.JobTitles),
		Locations:           nonNil(c.Locations),
		JobTypes:            nonNil(c.JobTypes),
		SalaryMin:           p.SalaryMin,
		SalaryMax:           p.SalaryMax,
		CoverLetterTemplate: p.CoverLetterTemplate,
		UpdatedAt:           p.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
