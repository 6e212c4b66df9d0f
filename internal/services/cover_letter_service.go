package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	ErrProfileNotFound   = errors.New("user profile not found")
	ErrEmptyCoverLetter  = errors.New("cover letter generation returned empty text")
	salaryPrinter        = message.NewPrinter(language.English)
	notSpecified         = "Not specified"
	defaultPromptClosing = "Make it concise, polite, and tailored for the job."
)

// auditReasons is the wording job seekers see in their auto-apply log.
var auditReasons = map[error]string{
	ErrProfileNotFound:  "User profile not found",
	ErrEmptyCoverLetter: "Cover letter generation failed or returned empty.",
}

// GenerationError is returned for any cover letter that could not be produced.
// Its message is what ends up in the audit log.
type GenerationError struct {
	JobID uint
	Err   error
}

func (e *GenerationError) Error() string {
	if reason, ok := auditReasons[e.Err]; ok {
		return reason
	}
	return e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

type CoverLetterService struct {
	Generator TextGenerator
}

func NewCoverLetterService(gen TextGenerator) *CoverLetterService {
	return &CoverLetterService{Generator: gen}
}

// Generate writes a cover letter for user applying to job.
func (s *CoverLetterService) Generate(ctx context.Context, job *models.Job, user *models.User, pref *models.AutoApplyPreference) (string, error) {
	if user.Profile == nil {
		return "", &GenerationError{JobID: job.ID, Err: ErrProfileNotFound}
	}

	prompt := BuildCoverLetterPrompt(job, user, pref.Template())

	text, err := s.Generator.GenerateText(ctx, prompt)
	if err != nil {
		return "", &GenerationError{JobID: job.ID, Err: fmt.Errorf("text generation failed: %w", err)}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &GenerationError{JobID: job.ID, Err: ErrEmptyCoverLetter}
	}
	return text, nil
}

// BuildCoverLetterPrompt renders the model prompt. A non-empty template has
// {job_title} and {location} filled in and goes in front of the job details.
func BuildCoverLetterPrompt(job *models.Job, user *models.User, template string) string {
	var b strings.Builder

	if strings.TrimSpace(template) != "" {
		r := strings.NewReplacer("{job_title}", job.Title, "{location}", job.Location)
		b.WriteString(r.Replace(template))
		b.WriteString("\n\n")
	}

	skills := notSpecified
	bio := notSpecified
	if p := user.Profile; p != nil {
		if list := p.SkillList(); len(list) > 0 {
			skills = strings.Join(list, ", ")
		}
		if p.Bio != nil && strings.TrimSpace(*p.Bio) != "" {
			bio = strings.TrimSpace(*p.Bio)
		}
	}

	location := job.Location
	if location == "" {
		location = notSpecified
	}

	fmt.Fprintf(&b, "Write a professional cover letter for this job:\n\n")
	fmt.Fprintf(&b, "Job Title: %s\n", job.Title)
	fmt.Fprintf(&b, "Location: %s\n", location)
	fmt.Fprintf(&b, "Salary: %s\n", FormatSalaryRange(job.SalaryMin, job.SalaryMax))
	fmt.Fprintf(&b, "Description: %s\n\n", job.Description)
	fmt.Fprintf(&b, "Candidate Info:\n")
	fmt.Fprintf(&b, "Name: %s\n", user.Name)
	fmt.Fprintf(&b, "Skills: %s\n", skills)
	fmt.Fprintf(&b, "Experience: %s\n\n", bio)
	b.WriteString(defaultPromptClosing)

	return b.String()
}

// FormatSalaryRange renders e.g. "$60,000.00 - $80,000.00".
func FormatSalaryRange(lo, hi *float64) string {
	switch {
	case lo != nil && hi != nil:
		return salaryPrinter.Sprintf("$%.2f - $%.2f", *lo, *hi)
	case lo != nil:
		return salaryPrinter.Sprintf("from $%.2f", *lo)
	case hi != nil:
		return salaryPrinter.Sprintf("up to $%.2f", *hi)
	default:
		return notSpecified
	}
}
