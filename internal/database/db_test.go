package database

import (
	"path/filepath"
	"testing"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/config"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectMigratesAndSeeds(t *testing.T) {
	cfg := &config.Config{
		DBDriver:    config.DriverSQLite,
		DatabaseURL: filepath.Join(t.TempDir(), "autoapply.db"),
	}

	db, err := Connect(cfg)
	require.NoError(t, err)

	var names []string
	require.NoError(t, db.Model(&models.JobType{}).Order("id").Pluck("name", &names).Error)
	assert.Equal(t, DefaultJobTypes, names)

	// seeding twice does not duplicate
	require.NoError(t, SeedJobTypes(db))
	var count int64
	db.Model(&models.JobType{}).Count(&count)
	assert.EqualValues(t, len(DefaultJobTypes), count)
}

func TestApplicationsAreUniquePerUserAndJob(t *testing.T) {
	db, err := Open(config.DriverSQLite, filepath.Join(t.TempDir(), "unique.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, SeedJobTypes(db))

	var jt models.JobType
	require.NoError(t, db.First(&jt).Error)
	alice := models.User{Name: "Alice", Email: "alice@example.com"}
	bob := models.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)
	job := models.Job{Title: "Go Developer", JobTypeID: jt.ID, IsOpen: true}
	require.NoError(t, db.Create(&job).Error)

	first := models.Application{UserID: alice.ID, JobID: job.ID, Status: models.ApplicationStatusPending}
	require.NoError(t, db.Create(&first).Error)

	dup := models.Application{UserID: alice.ID, JobID: job.ID, Status: models.ApplicationStatusPending}
	assert.Error(t, db.Create(&dup).Error)

	other := models.Application{UserID: bob.ID, JobID: job.ID, Status: models.ApplicationStatusPending}
	assert.NoError(t, db.Create(&other).Error)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn")
	assert.Error(t, err)
}
