package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingProcessor stands in for the auto-apply pipeline.
type recordingProcessor struct {
	mu       sync.Mutex
	seen     []uint
	preload  []bool
	failFor  map[string]error
	panicFor string
	applied  int
	block    chan struct{}
	started  chan struct{}
}

func (p *recordingProcessor) ProcessForUser(_ context.Context, user *models.User) ([]uint, error) {
	p.mu.Lock()
	p.seen = append(p.seen, user.ID)
	p.preload = append(p.preload, user.Profile != nil && user.AutoApplyPreference != nil)
	p.mu.Unlock()

	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.block != nil {
		<-p.block
	}
	if user.Name == p.panicFor {
		panic("nil pointer somewhere")
	}
	if err := p.failFor[user.Name]; err != nil {
		return nil, err
	}
	ids := make([]uint, p.applied)
	return ids, nil
}

func (p *recordingProcessor) users() []uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint(nil), p.seen...)
}

func seedBatchUsers(t *testing.T, db *gorm.DB, names ...string) []uint {
	t.Helper()
	var ids []uint
	for _, name := range names {
		user := createUser(t, db, name, true)
		createProfile(t, db, user, "/resumes/"+name+".pdf")
		createPreference(t, db, user, models.AutoApplyPreference{Enabled: true})
		ids = append(ids, user.ID)
	}
	return ids
}

func TestBatchRunVisitsEveryPremiumUserInChunks(t *testing.T) {
	db := newTestDB(t)
	premium := seedBatchUsers(t, db, "u1", "u2", "u3", "u4", "u5")
	createUser(t, db, "free rider", false)

	proc := &recordingProcessor{applied: 2}
	svc := NewBatchService(db, NewSubscriptionService(db), proc, 2, 0, 0)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, premium, proc.users())
	assert.NotContains(t, proc.preload, false)
	assert.Equal(t, 5, report.Users)
	assert.Equal(t, 10, report.Applied)
	assert.Zero(t, report.FailedUsers)
	assert.Len(t, report.RunID, 36)
}

func TestBatchRunIsolatesUserFailures(t *testing.T) {
	db := newTestDB(t)
	ids := seedBatchUsers(t, db, "ok1", "broken", "crashy", "ok2")

	proc := &recordingProcessor{
		applied:  1,
		failFor:  map[string]error{"broken": errors.New("connection reset")},
		panicFor: "crashy",
	}
	svc := NewBatchService(db, NewSubscriptionService(db), proc, 10, 0, 0)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ids, proc.users())
	assert.Equal(t, 4, report.Users)
	assert.Equal(t, 2, report.FailedUsers)
	assert.Equal(t, 2, report.Applied)
}

func TestBatchRunRejectsOverlappingRuns(t *testing.T) {
	db := newTestDB(t)
	seedBatchUsers(t, db, "slow")

	proc := &recordingProcessor{block: make(chan struct{}), started: make(chan struct{}, 1)}
	svc := NewBatchService(db, NewSubscriptionService(db), proc, 10, 0, 0)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background())
		done <- err
	}()
	<-proc.started

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(proc.block)
	require.NoError(t, <-done)

	// the lock is released once the first run finishes
	proc.block = nil
	proc.started = nil
	_, err = svc.Run(context.Background())
	assert.NoError(t, err)
}

func TestBatchRunEndToEnd(t *testing.T) {
	db := newTestDB(t)
	gen := &fakeGenerator{}
	autoApply := newAutoApply(db, gen, &recordingNotifier{})
	svc := NewBatchService(db, NewSubscriptionService(db), autoApply, 1, 0, 0)

	goUser := readyUser(t, db, "gopher", models.AutoApplyPreference{JobTitles: models.StringList("go")})
	rustUser := readyUser(t, db, "rustacean", models.AutoApplyPreference{JobTitles: models.StringList("rust")})
	free := createUser(t, db, "lurker", false)
	createProfile(t, db, free, "/resumes/lurker.pdf")
	createPreference(t, db, free, models.AutoApplyPreference{Enabled: true})

	goJob := createJob(t, db, openJob("Go Engineer", "Remote"))
	createJob(t, db, openJob("Java Engineer", "Remote"))

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 1, report.Applied)

	apps := userApplications(t, db, goUser.ID)
	require.Len(t, apps, 1)
	assert.Equal(t, goJob.ID, apps[0].JobID)

	rustLogs := userLogs(t, db, rustUser.ID)
	require.Len(t, rustLogs, 1)
	assert.Equal(t, models.AutoApplyStatusNoJobsFound, rustLogs[0].Status)

	assert.Empty(t, userLogs(t, db, free.ID))
	assert.Empty(t, userApplications(t, db, free.ID))
}

func TestStartWatcherRunsImmediately(t *testing.T) {
	db := newTestDB(t)
	seedBatchUsers(t, db, "early bird")

	proc := &recordingProcessor{}
	svc := NewBatchService(db, NewSubscriptionService(db), proc, 10, time.Hour, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	svc.StartWatcher(ctx)

	require.Eventually(t, func() bool { return len(proc.users()) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		if svc.running.TryLock() {
			svc.running.Unlock()
			return true
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartWatcherDisabledWithoutInterval(t *testing.T) {
	db := newTestDB(t)
	seedBatchUsers(t, db, "nobody home")

	proc := &recordingProcessor{}
	svc := NewBatchService(db, NewSubscriptionService(db), proc, 10, 0, 0)
	svc.StartWatcher(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, proc.users())
}
