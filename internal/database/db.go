package database

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/config"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultJobTypes are seeded so that preference job types always have something to resolve against.
var DefaultJobTypes = []string{"Full-time", "Part-time", "Remote"}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Println("Database connection established")

	log.Println("Running Migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := SeedJobTypes(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Open connects without migrating.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates the tables this service reads and writes, including the
// unique (user_id, job_id) index on applications.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.Profile{},
		&models.AutoApplyPreference{},
		&models.JobType{},
		&models.Job{},
		&models.Application{},
		&models.AutoApplyLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func SeedJobTypes(db *gorm.DB) error {
	for _, name := range DefaultJobTypes {
		jt := models.JobType{}
		if err := db.Where(models.JobType{Name: name}).FirstOrCreate(&jt).Error; err != nil {
			return fmt.Errorf("seed job type %s: %w", name, err)
		}
	}
	return nil
}
