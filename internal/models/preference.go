package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type AutoApplyPreference struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID  uint `gorm:"uniqueIndex;not null" json:"user_id"`
	Enabled bool `gorm:"column:auto_apply_enabled;not null;default:false" json:"auto_apply_enabled"`

	// Stored as JSON but written by more than one client over the years,
	// so any of these may hold an array, an encoded array or a bare string.
	JobTitles datatypes.JSON `json:"job_titles"`
	Locations datatypes.JSON `json:"locations"`
	JobTypes  datatypes.JSON `json:"job_types"`

	SalaryMin           *float64 `json:"salary_min"`
	SalaryMax           *float64 `json:"salary_max"`
	CoverLetterTemplate *string  `gorm:"type:text" json:"cover_letter_template"`
}

// MatchCriteria is the normalized form of a preference that the matcher works on.
type MatchCriteria struct {
	JobTitles []string
	Locations []string
	JobTypes  []string
	SalaryMin *float64
	SalaryMax *float64
}

// Criteria normalizes the stored preference columns.
func (p *AutoApplyPreference) Criteria() MatchCriteria {
	return MatchCriteria{
		JobTitles: ParseStringList(p.JobTitles),
		Locations: ParseStringList(p.Locations),
		JobTypes:  ParseStringList(p.JobTypes),
		SalaryMin: p.SalaryMin,
		SalaryMax: p.SalaryMax,
	}
}

// Template returns the cover letter template or "" when none is set.
func (p *AutoApplyPreference) Template() string {
	if p == nil || p.CoverLetterTemplate == nil {
		return ""
	}
	return *p.CoverLetterTemplate
}

// ParseStringList turns a persisted list column into trimmed, non-empty,
// de-duplicated strings in their stored order.
//
// Accepted forms: a JSON array (non-string scalars are stringified), a JSON
// string which itself holds an array, or raw text that is not JSON at all,
// which is taken as a single value.
func ParseStringList(raw []byte) []string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil
	}

	var items []any
	if err := json.Unmarshal([]byte(text), &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case nil:
				continue
			case string:
				out = append(out, v)
			default:
				out = append(out, fmt.Sprint(v))
			}
		}
		return cleanList(out)
	}

	var single string
	if err := json.Unmarshal([]byte(text), &single); err == nil {
		if strings.HasPrefix(strings.TrimSpace(single), "[") {
			return ParseStringList([]byte(single))
		}
		return cleanList([]string{single})
	}

	return cleanList([]string{text})
}

// StringList encodes values for a JSON list column.
func StringList(values ...string) datatypes.JSON {
	if len(values) == 0 {
		return nil
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}

func cleanList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
