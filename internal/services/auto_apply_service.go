package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"gorm.io/gorm"
)

const (
	ReasonProfileOrResumeMissing = "User profile or resume not found"
	ReasonNoMatchingJobs         = "No jobs matching user preferences"
	ReasonNoneApplied            = "No jobs applied successfully"
)

var ErrUserNotFound = errors.New("user not found")

type JobMatcher interface {
	FilterJobs(ctx context.Context, c models.MatchCriteria, userID uint) ([]models.Job, error)
}

type CoverLetterGenerator interface {
	Generate(ctx context.Context, job *models.Job, user *models.User, pref *models.AutoApplyPreference) (string, error)
}

// JobOutcome is the result of one job attempt: either an application id or the error that stopped it.
type JobOutcome struct {
	JobID         uint
	ApplicationID uint
	Err           error
}

func (o JobOutcome) Succeeded() bool { return o.Err == nil }

type AutoApplyService struct {
	DB           *gorm.DB
	Premium      PremiumChecker
	Matcher      JobMatcher
	CoverLetters CoverLetterGenerator
	Notifier     Notifier
}

func NewAutoApplyService(db *gorm.DB, premium PremiumChecker, matcher JobMatcher, letters CoverLetterGenerator, notifier Notifier) *AutoApplyService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &AutoApplyService{
		DB:           db,
		Premium:      premium,
		Matcher:      matcher,
		CoverLetters: letters,
		Notifier:     notifier,
	}
}

// LoadUser fetches a user with the relations ProcessForUser reads.
func (s *AutoApplyService) LoadUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).
		Preload("Profile").
		Preload("AutoApplyPreference").
		First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

// ProcessForUser runs one auto-apply pass for user and returns the ids of the
// jobs applied to. user must carry its Profile and AutoApplyPreference.
//
// Per-job failures are written to the audit log and never returned; the error
// is only set when a check or user level write hits the database and fails.
func (s *AutoApplyService) ProcessForUser(ctx context.Context, user *models.User) ([]uint, error) {
	logPrefix := fmt.Sprintf("[AutoApply user=%d]", user.ID)

	// --- STEP 1: PREMIUM ---
	premium, err := s.Premium.IsPremiumSubscriber(ctx, user)
	if err != nil {
		return nil, err
	}
	if !premium {
		log.Printf("%s ⏹️  Not a premium subscriber, skipping.", logPrefix)
		return nil, nil
	}

	// --- STEP 2: PREFERENCES ---
	pref := user.AutoApplyPreference
	if pref == nil || !pref.Enabled {
		log.Printf("%s ⏹️  Auto-apply not enabled, skipping.", logPrefix)
		return nil, nil
	}

	// --- STEP 3: PROFILE + RESUME ---
	if !user.Profile.HasResume() {
		log.Printf("%s ❌ No profile or resume.", logPrefix)
		return nil, s.writeLog(ctx, s.DB, user.ID, nil, models.AutoApplyStatusFailed, ReasonProfileOrResumeMissing)
	}

	// --- STEP 4: MATCH ---
	jobs, err := s.Matcher.FilterJobs(ctx, pref.Criteria(), user.ID)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		log.Printf("%s ✅ No new matching jobs.", logPrefix)
		return nil, s.writeLog(ctx, s.DB, user.ID, nil, models.AutoApplyStatusNoJobsFound, ReasonNoMatchingJobs)
	}
	log.Printf("%s 🎯 %d matching jobs", logPrefix, len(jobs))

	// --- STEP 5: APPLY PER JOB ---
	outcomes := make([]JobOutcome, 0, len(jobs))
	for i := range jobs {
		outcomes = append(outcomes, s.applyToJob(ctx, user, pref, &jobs[i]))
	}

	// --- STEP 6: SUMMARY ---
	applied := AppliedJobIDs(outcomes)
	reason := ReasonNoneApplied
	if len(applied) > 0 {
		reason = fmt.Sprintf("Auto-apply completed successfully for %d jobs", len(applied))
	}
	log.Printf("%s 🏁 %s (%d/%d)", logPrefix, reason, len(applied), len(jobs))
	if err := s.writeLog(ctx, s.DB, user.ID, nil, models.AutoApplyStatusCompleted, reason); err != nil {
		return applied, err
	}
	return applied, nil
}

// applyToJob never returns an error: whatever goes wrong becomes a failed outcome and log row.
func (s *AutoApplyService) applyToJob(ctx context.Context, user *models.User, pref *models.AutoApplyPreference, job *models.Job) (outcome JobOutcome) {
	logPrefix := fmt.Sprintf("[AutoApply user=%d job=%d]", user.ID, job.ID)
	outcome.JobID = job.ID

	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("unexpected panic: %v", r)
		}
		if outcome.Err != nil {
			log.Printf("%s ❌ %v", logPrefix, outcome.Err)
			if err := s.writeLog(ctx, s.DB, user.ID, &job.ID, models.AutoApplyStatusFailed, outcome.Err.Error()); err != nil {
				log.Printf("%s ⚠️ could not record failure: %v", logPrefix, err)
			}
		}
	}()

	letter, err := s.CoverLetters.Generate(ctx, job, user, pref)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	app := models.Application{
		JobID:       job.ID,
		UserID:      user.ID,
		ResumePath:  *user.Profile.ResumePath,
		CoverLetter: letter,
		Status:      models.ApplicationStatusPending,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&app).Error; err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		return s.writeLog(ctx, tx, user.ID, &job.ID, models.AutoApplyStatusSuccess, "")
	})
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.ApplicationID = app.ID
	log.Printf("%s ✅ Applied (application %d)", logPrefix, app.ID)

	if err := s.Notifier.ApplicationSubmitted(ctx, user, job, &app); err != nil {
		log.Printf("%s ⚠️ notification failed: %v", logPrefix, err)
	}
	return outcome
}

func (s *AutoApplyService) writeLog(ctx context.Context, db *gorm.DB, userID uint, jobID *uint, status models.AutoApplyStatus, reason string) error {
	entry := models.AutoApplyLog{
		UserID: userID,
		JobID:  jobID,
		Status: status,
	}
	if reason != "" {
		entry.Reason = &reason
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("write %s log for user %d: %w", status, userID, err)
	}
	return nil
}

// ListLogs returns the newest audit rows for a user.
func (s *AutoApplyService) ListLogs(ctx context.Context, userID uint, limit int) ([]models.AutoApplyLog, error) {
	var logs []models.AutoApplyLog
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list auto-apply logs: %w", err)
	}
	return logs, nil
}

func AppliedJobIDs(outcomes []JobOutcome) []uint {
	var ids []uint
	for _, o := range outcomes {
		if o.Succeeded() {
			ids = append(ids, o.JobID)
		}
	}
	return ids
}
