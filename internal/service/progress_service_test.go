package service

import (
	"context"
	"sync"
	"testing"

	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapMaterializesRowsOnce(t *testing.T) {
	db := setupTestDB(t)
	modules := seedTestCurriculum(t, db)
	user := createTestUser(t, db, "bootstrap@example.com")
	svc := newTestProgressService(db, &fakePaymentVerifier{}, testProgressConfig())

	require.NoError(t, svc.Bootstrap(user.ID))
	require.NoError(t, svc.Bootstrap(user.ID))

	var count int64
	require.NoError(t, db.Model(&model.UserModuleProgress{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(len(modules)), count)
}

func TestBootstrapConcurrentRequestsKeepUniqueRows(t *testing.T) {
	db := setupTestDB(t)
	seedTestCurriculum(t, db)
	user := createTestUser(t, db, "concurrent@example.com")
	svc := newTestProgressService(db, &fakePaymentVerifier{}, testProgressConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Bootstrap(user.ID)
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, db.Model(&model.UserModuleProgress{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestUnlockPolicyControlsInitialStatus(t *testing.T) {
	db := setupTestDB(t)
	modules := seedTestCurriculum(t, db)
	user := createTestUser(t, db, "policy@example.com")
	svc := newTestProgressService(db, &fakePaymentVerifier{}, testProgressConfig())

	require.NoError(t, svc.Bootstrap(user.ID))

	views, err := svc.ListModules(user.ID)
	require.NoError(t, err)
	require.Len(t, views, len(modules))
	assert.Equal(t, model.StatusActive, views[0].Status)
	assert.Equal(t, model.StatusLocked, views[1].Status)
}

func TestUnlockModule(t *testing.T) {
	db := setupTestDB(t)
	modules := seedTestCurriculum(t, db)
	user := createTestUser(t, db, "unlock@example.com")
	svc := newTestProgressService(db, &fakePaymentVerifier{}, testProgressConfig())
	require.NoError(t, svc.Bootstrap(user.ID))

	locked := modules[1]
	result, err := svc.UnlockModule(context.Background(), user.ID, locked.ID, "valid-token")
	require.NoError(t, err)
	assert.Equal(t, locked.ID, result.ModuleID)
	assert.Equal(t, model.StatusActive, result.NewStatus)

	// 重复解锁
	_, err = svc.UnlockModule(context.Background(), user.ID, locked.ID, "valid-token")
	assert.ErrorIs(t, err, util.ErrModuleAlreadyUnlocked)
}

func TestUnlockModuleNotFound(t *testing.T) {
	db := setupTestDB(t)
	seedTestCurriculum(t, db)
	user := createTestUser(t, db, "missing@example.com")
	svc := newTestProgressService(db, &fakePaymentVerifier{}, testProgressConfig())

	_, err := svc.UnlockModule(context.Background(), user.ID, 9999, "valid-token")
	assert.ErrorIs(t, err, util.ErrModuleNotFound)
}

func TestUnlockModuleAlreadyActive(t *testing.T) {
	db := setupTestDB(t)
	modules := seedTestCurriculum(t, db)
	user := createTestUser(t, db, "active@example.com")
	svc := newTestProgressService(db, &fakePaymentVerifier{}, testProgressConfig())
	require.NoError(t, svc.Bootstrap(user.ID))

	// 首个模块按策略已经是 active
	_, err := svc.UnlockModule(context.Background(), user.ID, modules[0].ID, "valid-token")
	assert.ErrorIs(t, err, util.ErrModuleAlreadyUnlocked)
}

func TestUnlockModulePaymentFailureLeavesStateUnchanged(t *testing.T) {
	db := setupTestDB(t)
	modules := seedTestCurriculum(t, db)
	user := createTestUser(t, db, "payment@example.com")
	verifier := &fakePaymentVerifier{err: util.ErrPaymentInvalid}
	svc := newTestProgressService(db, verifier, testProgressConfig())
	require.NoError(t, svc.Bootstrap(user.ID))

	locked := modules[1]
	_, err := svc.UnlockModule(context.Background(), user.ID, locked.ID, "bad-token")
	assert.ErrorIs(t, err, util.ErrPaymentInvalid)
	assert.Equal(t, 1, verifier.calls)

	progress, err := svc.Progress.GetModuleProgress(user.ID, locked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLocked, progress.Status)
}

func TestListModulesDefaultsForUnmaterializedTopics(t *testing.T) {
	db := setupTestDB(t)
	seedTestCurriculum(t, db)
	user := createTestUser(t, db, "defaults@example.com")
	svc := newTestProgressService(db, &fakePaymentVerifier{}, testProgressConfig())
	require.NoError(t, svc.Bootstrap(user.ID))

	views, err := svc.ListModules(user.ID)
	require.NoError(t, err)
	for _, m := range views {
		assert.Nil(t, m.FinalScore)
		for _, topic := range m.Topics {
			assert.Equal(t, 0, topic.Stars)
			assert.Equal(t, model.StatusLocked, topic.Status)
		}
	}
}

func TestApplyExerciseOutcomeCompletesTopicAndModule(t *testing.T) {
	db := setupTestDB(t)
	modules := seedTestCurriculum(t, db)
	user := createTestUser(t, db, "cascade@example.com")
	cfg := testProgressConfig()
	svc := newTestProgressService(db, &fakePaymentVerifier{}, cfg)
	require.NoError(t, svc.Bootstrap(user.ID))

	first := modules[0]

	outcome, err := svc.ApplyExerciseOutcome(user.ID, &first.Topics[0], 1.0, 3)
	require.NoError(t, err)
	assert.True(t, outcome.TopicCompleted)
	assert.False(t, outcome.ModuleCompleted)
	assert.Equal(t, 3, outcome.StarsDelta)

	outcome, err = svc.ApplyExerciseOutcome(user.ID, &first.Topics[1], 1.0, 3)
	require.NoError(t, err)
	assert.True(t, outcome.TopicCompleted)
	assert.True(t, outcome.ModuleCompleted)

	progress, err := svc.Progress.GetModuleProgress(user.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, progress.Status)
	require.NotNil(t, progress.FinalScore)
	assert.Equal(t, 100, *progress.FinalScore)

	profile, err := svc.Users.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.CompletedModules)
	assert.Equal(t, 6, profile.TotalStars)
}

func TestApplyExerciseOutcomeBelowPassKeepsTopicActive(t *testing.T) {
	db := setupTestDB(t)
	modules := seedTestCurriculum(t, db)
	user := createTestUser(t, db, "fail@example.com")
	svc := newTestProgressService(db, &fakePaymentVerifier{}, testProgressConfig())
	require.NoError(t, svc.Bootstrap(user.ID))

	topic := modules[0].Topics[0]
	outcome, err := svc.ApplyExerciseOutcome(user.ID, &topic, 0.5, 1)
	require.NoError(t, err)
	assert.False(t, outcome.TopicCompleted)
	assert.Equal(t, 1, outcome.StarsDelta)

	var row model.UserTopicProgress
	require.NoError(t, db.Where("user_id = ? AND topic_id = ?", user.ID, topic.ID).First(&row).Error)
	assert.Equal(t, model.StatusActive, row.Status)
	assert.Equal(t, 1, row.Stars)
}

func TestApplyExerciseOutcomeStarsNeverDecrease(t *testing.T) {
	db := setupTestDB(t)
	modules := seedTestCurriculum(t, db)
	user := createTestUser(t, db, "stars@example.com")
	svc := newTestProgressService(db, &fakePaymentVerifier{}, testProgressConfig())
	require.NoError(t, svc.Bootstrap(user.ID))

	topic := modules[0].Topics[0]

	outcome, err := svc.ApplyExerciseOutcome(user.ID, &topic, 1.0, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.StarsDelta)

	// 后续更差的成绩不回退星级，也不产生负增量
	outcome, err = svc.ApplyExerciseOutcome(user.ID, &topic, 0.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.StarsDelta)

	var row model.UserTopicProgress
	require.NoError(t, db.Where("user_id = ? AND topic_id = ?", user.ID, topic.ID).First(&row).Error)
	assert.Equal(t, 3, row.Stars)
	assert.Equal(t, model.StatusCompleted, row.Status)

	profile, err := svc.Users.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, profile.TotalStars)
}
