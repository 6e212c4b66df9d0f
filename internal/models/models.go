package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ApplicationStatusPending = "pending"

	SubscriptionTypePremium = "premium"
)

type AutoApplyStatus string

const (
	AutoApplyStatusSuccess     AutoApplyStatus = "success"
	AutoApplyStatusFailed      AutoApplyStatus = "failed"
	AutoApplyStatusNoJobsFound AutoApplyStatus = "no_jobs_found"
	AutoApplyStatusCompleted   AutoApplyStatus = "completed"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name  string `json:"name"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	// Associations: only filled when the caller Preloads them
	Profile             *Profile             `json:"profile,omitempty"`
	AutoApplyPreference *AutoApplyPreference `json:"auto_apply_preference,omitempty"`
	Subscriptions       []Subscription       `json:"subscriptions,omitempty"`
	Applications        []Application        `json:"applications,omitempty"`
}

// Subscription rows are owned by the billing flow. This service only reads them.
type Subscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint       `gorm:"index;not null" json:"user_id"`
	Type   string     `gorm:"index;not null" json:"type"`
	Status string     `gorm:"not null" json:"status"`
	EndsAt *time.Time `json:"ends_at"`
}

type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID     uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	ResumePath *string        `json:"resume_path"`
	Bio        *string        `gorm:"type:text" json:"bio"`
	Skills     datatypes.JSON `json:"skills"`
}

// SkillList returns the profile skills as a clean list.
func (p *Profile) SkillList() []string {
	return ParseStringList(p.Skills)
}

// HasResume reports whether a resume reference is stored.
func (p *Profile) HasResume() bool {
	return p != nil && p.ResumePath != nil && *p.ResumePath != ""
}

type JobType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type Job struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	JobTypeID uint    `gorm:"index" json:"job_type_id"`
	JobType   JobType `json:"job_type"`

	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Location    string   `gorm:"index" json:"location"`
	SalaryMin   *float64 `json:"salary_min"`
	SalaryMax   *float64 `json:"salary_max"`
	IsOpen      bool     `gorm:"not null;default:true;index" json:"is_open"`
}

func (Job) TableName() string { return "jobs_listing" }

// Application is unique per (user, job) so that two overlapping runs cannot apply twice.
type Application struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID      uint   `gorm:"not null;uniqueIndex:idx_applications_user_job" json:"user_id"`
	JobID       uint   `gorm:"not null;uniqueIndex:idx_applications_user_job" json:"job_id"`
	Job         *Job   `json:"job,omitempty"`
	ResumePath  string `json:"resume_path"`
	CoverLetter string `gorm:"type:text" json:"cover_letter"`
	Status      string `gorm:"not null;default:'pending'" json:"status"`
}

// AutoApplyLog is an append-only audit row. JobID is nil for user level entries.
type AutoApplyLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID uint            `gorm:"index;not null" json:"user_id"`
	JobID  *uint           `gorm:"index" json:"job_id"`
	Status AutoApplyStatus `gorm:"type:varchar(20);not null" json:"status"`
	Reason *string         `json:"reason"`
}
