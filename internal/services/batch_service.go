package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"gorm.io/gorm"
)

var ErrRunInProgress = errors.New("auto-apply run already in progress")

type UserProcessor interface {
	ProcessForUser(ctx context.Context, user *models.User) ([]uint, error)
}

// RunReport summarizes one batch run.
type RunReport struct {
	RunID       string        `json:"run_id"`
	Users       int           `json:"users"`
	FailedUsers int           `json:"failed_users"`
	Applied     int           `json:"applied"`
	Duration    time.Duration `json:"duration"`
}

type BatchService struct {
	DB            *gorm.DB
	Subscriptions *SubscriptionService
	Processor     UserProcessor
	BatchSize     int
	Interval      time.Duration
	RunTimeout    time.Duration

	running sync.Mutex
}

func NewBatchService(db *gorm.DB, subs *SubscriptionService, processor UserProcessor, batchSize int, interval, runTimeout time.Duration) *BatchService {
	if batchSize < 1 {
		batchSize = 100
	}
	return &BatchService{
		DB:            db,
		Subscriptions: subs,
		Processor:     processor,
		BatchSize:     batchSize,
		Interval:      interval,
		RunTimeout:    runTimeout,
	}
}

// StartWatcher starts the background schedule: one run right away, then one per Interval
// until ctx is cancelled.
func (s *BatchService) StartWatcher(ctx context.Context) {
	if s.Interval <= 0 {
		log.Println("⚠️ Auto-apply watcher disabled (no interval).")
		return
	}

	ticker := time.NewTicker(s.Interval)

	go func() {
		defer ticker.Stop()
		s.runScheduled(ctx)
		for {
			select {
			case <-ctx.Done():
				log.Println("Auto-apply watcher stopped.")
				return
			case <-ticker.C:
				s.runScheduled(ctx)
			}
		}
	}()
}

func (s *BatchService) runScheduled(parent context.Context) {
	ctx := parent
	if s.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.RunTimeout)
		defer cancel()
	}

	if _, err := s.Run(ctx); err != nil {
		log.Printf("❌ Auto-apply run failed: %v", err)
	}
}

// Run processes every premium user once. A failing user is logged and skipped;
// only a failure to load users is returned.
func (s *BatchService) Run(ctx context.Context) (RunReport, error) {
	if !s.running.TryLock() {
		return RunReport{}, ErrRunInProgress
	}
	defer s.running.Unlock()

	report := RunReport{RunID: uuid.NewString()}
	logPrefix := fmt.Sprintf("[AutoApply run=%s]", report.RunID[:8])
	started := time.Now()

	log.Printf("%s 🚀 Starting auto-apply cycle...", logPrefix)

	var batch []models.User
	result := s.DB.WithContext(ctx).
		Preload("Profile").
		Preload("AutoApplyPreference").
		Where("id IN (?)", s.Subscriptions.PremiumUserIDs(s.DB)).
		FindInBatches(&batch, s.BatchSize, func(tx *gorm.DB, n int) error {
			log.Printf("%s 📥 Batch %d: %d users", logPrefix, n, len(batch))
			for i := range batch {
				applied, err := s.processUser(ctx, &batch[i])
				report.Users++
				report.Applied += applied
				if err != nil {
					report.FailedUsers++
					log.Printf("%s ❌ user %d failed: %v", logPrefix, batch[i].ID, err)
				}
			}
			return nil
		})

	report.Duration = time.Since(started)
	if result.Error != nil {
		return report, fmt.Errorf("load premium users: %w", result.Error)
	}

	log.Printf("%s 🏁 Done in %v: %d users, %d applications, %d failed users",
		logPrefix, report.Duration.Round(time.Millisecond), report.Users, report.Applied, report.FailedUsers)
	return report, nil
}

func (s *BatchService) processUser(ctx context.Context, user *models.User) (applied int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ids, err := s.Processor.ProcessForUser(ctx, user)
	return len(ids), err
}
