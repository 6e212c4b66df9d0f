package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/config"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/database"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "autoapply.db"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedJobTypes(db))
	return db
}

func ptr[T any](v T) *T { return &v }

func createUser(t *testing.T, db *gorm.DB, name string, premium bool) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"}
	require.NoError(t, db.Create(user).Error)
	if premium {
		sub := models.Subscription{UserID: user.ID, Type: models.SubscriptionTypePremium, Status: "active"}
		require.NoError(t, db.Create(&sub).Error)
	}
	return user
}

func createProfile(t *testing.T, db *gorm.DB, user *models.User, resume string, skills ...string) {
	t.Helper()
	profile := &models.Profile{UserID: user.ID, Skills: models.StringList(skills...)}
	if resume != "" {
		profile.ResumePath = &resume
	}
	require.NoError(t, db.Create(profile).Error)
	user.Profile = profile
}

func createPreference(t *testing.T, db *gorm.DB, user *models.User, pref models.AutoApplyPreference) {
	t.Helper()
	pref.UserID = user.ID
	require.NoError(t, db.Create(&pref).Error)
	user.AutoApplyPreference = &pref
}

func jobTypeID(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	var jt models.JobType
	require.NoError(t, db.Where("name = ?", name).First(&jt).Error)
	return jt.ID
}

func createJob(t *testing.T, db *gorm.DB, job models.Job) models.Job {
	t.Helper()
	if job.Description == "" {
		job.Description = "Build and run services."
	}
	if job.JobTypeID == 0 {
		job.JobTypeID = jobTypeID(t, db, "Full-time")
	}
	closed := !job.IsOpen
	job.IsOpen = true
	require.NoError(t, db.Create(&job).Error)
	if closed {
		// gorm skips zero values on create, so false has to be written explicitly
		require.NoError(t, db.Model(&job).Update("is_open", false).Error)
		job.IsOpen = false
	}
	return job
}

func openJob(title, location string) models.Job {
	return models.Job{Title: title, Location: location, IsOpen: true}
}

func jobIDs(jobs []models.Job) []uint {
	ids := make([]uint, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	return ids
}

func userLogs(t *testing.T, db *gorm.DB, userID uint) []models.AutoApplyLog {
	t.Helper()
	var logs []models.AutoApplyLog
	require.NoError(t, db.Where("user_id = ?", userID).Order("id").Find(&logs).Error)
	return logs
}

func userApplications(t *testing.T, db *gorm.DB, userID uint) []models.Application {
	t.Helper()
	var apps []models.Application
	require.NoError(t, db.Where("user_id = ?", userID).Order("id").Find(&apps).Error)
	return apps
}

// fakeGenerator answers every prompt with a fixed letter, except prompts
// containing one of the failOn keys.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	failOn  map[string]error
	reply   string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	for sub, err := range f.failOn {
		if strings.Contains(prompt, sub) {
			return "", err
		}
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return fmt.Sprintf("Dear hiring manager, letter #%d", len(f.prompts)), nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ApplicationEvent
	err    error
}

func (n *recordingNotifier) ApplicationSubmitted(_ context.Context, user *models.User, job *models.Job, app *models.Application) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, NewApplicationEvent(user, job, app))
	return n.err
}
