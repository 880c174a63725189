package service

import (
	"encoding/json"
	"testing"

	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/repository"
	"lingo_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestUserService(db *gorm.DB) *UserService {
	return NewUserService(
		repository.NewUserRepository(db),
		repository.NewCurriculumRepository(db),
		repository.NewProgressRepository(db),
		repository.NewExerciseRepository(db),
		testProgressConfig(),
	)
}

func TestUserServiceUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "profile@example.com")
	svc := newTestUserService(db)

	username := "polyglot42"
	view, err := svc.UpdateProfile(user.ID, UpdateProfileRequest{Name: "Renamed", Username: &username})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Name)
	require.NotNil(t, view.Username)
	assert.Equal(t, "polyglot42", *view.Username)
}

func TestUserServiceUpdateProfileRejectsTakenUsername(t *testing.T) {
	db := setupTestDB(t)
	first := createTestUser(t, db, "first@example.com")
	second := createTestUser(t, db, "second@example.com")
	svc := newTestUserService(db)

	username := "taken"
	_, err := svc.UpdateProfile(first.ID, UpdateProfileRequest{Username: &username})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(second.ID, UpdateProfileRequest{Username: &username})
	assert.ErrorIs(t, err, util.ErrUsernameTaken)

	// 自己保留同名不算冲突
	_, err = svc.UpdateProfile(first.ID, UpdateProfileRequest{Username: &username})
	assert.NoError(t, err)
}

func TestUserServiceProgressOverview(t *testing.T) {
	db := setupTestDB(t)
	modules := seedTestCurriculum(t, db)
	user := createTestUser(t, db, "overview@example.com")
	svc := newTestUserService(db)

	exSvc := newTestExerciseService(db)
	require.NoError(t, exSvc.Progress.Bootstrap(user.ID))

	topic := modules[0].Topics[0]
	exercises, err := exSvc.Exercises.ListByTopic(topic.ID)
	require.NoError(t, err)
	_, err = exSvc.Submit(user.ID, topic.ID, []model.ExerciseAnswer{
		{ExerciseID: exercises[0].ID, Answer: json.RawMessage(`"hola"`)},
		{ExerciseID: exercises[1].ID, Answer: json.RawMessage(`0`)},
	})
	require.NoError(t, err)

	overview, err := svc.GetProgressOverview(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LevelA1, overview.Overview.CurrentLevel)
	assert.Equal(t, 3, overview.Overview.TotalStars)
	assert.Equal(t, int64(1), overview.Overview.CompletedTopics)
	assert.Equal(t, 100, overview.Statistics.AvgScore)
	assert.Equal(t, 1, overview.Statistics.DayStreak)
	assert.Len(t, overview.WeeklyActivity, 7)
	assert.Empty(t, overview.AreasForImprovement)
}

func TestUserServiceImprovementAreasUseLatestSubmission(t *testing.T) {
	db := setupTestDB(t)
	modules := seedTestCurriculum(t, db)
	user := createTestUser(t, db, "areas@example.com")
	svc := newTestUserService(db)

	exSvc := newTestExerciseService(db)
	require.NoError(t, exSvc.Progress.Bootstrap(user.ID))

	topic := modules[0].Topics[0]
	exercises, err := exSvc.Exercises.ListByTopic(topic.ID)
	require.NoError(t, err)

	// 低于复习阈值的成绩触发提醒
	_, err = exSvc.Submit(user.ID, topic.ID, []model.ExerciseAnswer{
		{ExerciseID: exercises[0].ID, Answer: json.RawMessage(`"hola"`)},
		{ExerciseID: exercises[1].ID, Answer: json.RawMessage(`1`)},
	})
	require.NoError(t, err)

	overview, err := svc.GetProgressOverview(user.ID)
	require.NoError(t, err)
	require.Len(t, overview.AreasForImprovement, 1)
	assert.Equal(t, topic.ID, overview.AreasForImprovement[0].TopicID)
	assert.Equal(t, 50, overview.AreasForImprovement[0].Accuracy)
}
