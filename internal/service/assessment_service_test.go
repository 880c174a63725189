package service

import (
	"encoding/json"
	"testing"
	"time"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/repository"
	"lingo_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedTestAssessment(t *testing.T, db *gorm.DB) *model.Assessment {
	t.Helper()

	assessment := &model.Assessment{Title: "Placement Test"}
	require.NoError(t, db.Create(assessment).Error)

	questions := []model.Question{
		{
			AssessmentID:  assessment.ID,
			Type:          "multiple_choice",
			Question:      "How do you say hello?",
			Options:       json.RawMessage(`["hola","adios","gracias"]`),
			Category:      "vocabulary",
			CorrectAnswer: json.RawMessage(`0`),
		},
		{
			AssessmentID:  assessment.ID,
			Type:          "multiple_choice",
			Question:      "Pick the correct article for 'casa'",
			Options:       json.RawMessage(`["el","la"]`),
			Category:      "grammar",
			CorrectAnswer: json.RawMessage(`1`),
		},
	}
	require.NoError(t, db.Create(&questions).Error)
	assessment.Questions = questions
	return assessment
}

func newTestAssessmentService(db *gorm.DB, scorer Scorer, jobs JobQueue) *AssessmentService {
	return NewAssessmentService(
		repository.NewAssessmentRepository(db),
		repository.NewUserRepository(db),
		scorer,
		jobs,
		config.ScoringConfig{MaxRetries: 3, RequestTimeout: time.Second},
	)
}

func testAnswers(assessment *model.Assessment) []model.QuestionAnswer {
	answers := make([]model.QuestionAnswer, len(assessment.Questions))
	for i, q := range assessment.Questions {
		answers[i] = model.QuestionAnswer{QuestionID: q.ID, Answer: json.RawMessage(`0`)}
	}
	return answers
}

func TestAssessmentGetDefaultHidesAnswers(t *testing.T) {
	db := setupTestDB(t)
	seedTestAssessment(t, db)
	svc := newTestAssessmentService(db, &fakeScorer{}, &inlineQueue{})

	view, err := svc.GetDefault()
	require.NoError(t, err)
	assert.Len(t, view.Questions, 2)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correctAnswer")
}

func TestAssessmentSubmitAndScore(t *testing.T) {
	db := setupTestDB(t)
	assessment := seedTestAssessment(t, db)
	user := createTestUser(t, db, "assess@example.com")
	scorer := &fakeScorer{result: &ScoringResult{CorrectCount: 2, Level: model.LevelB1, Analysis: "Solid grasp of basics."}}
	svc := newTestAssessmentService(db, scorer, &inlineQueue{})

	submissionID, err := svc.Submit(user.ID, assessment.ID, testAnswers(assessment))
	require.NoError(t, err)
	require.NotEmpty(t, submissionID)

	// inlineQueue 同步执行，返回时评分已完成
	sub, err := svc.GetResult(user.ID, submissionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionComplete, sub.Status)
	assert.Equal(t, 2, sub.CorrectCount)
	assert.Equal(t, 2, sub.TotalQuestions)
	assert.Equal(t, model.LevelB1, sub.Level)
	assert.Equal(t, "Solid grasp of basics.", sub.AIAnalysis)

	// 等级随评分结果晋升
	profile, err := svc.Users.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LevelB1, profile.CurrentLevel)
}

func TestAssessmentSubmitUnknownAssessment(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "noassess@example.com")
	svc := newTestAssessmentService(db, &fakeScorer{}, &inlineQueue{})

	_, err := svc.Submit(user.ID, "missing-id", nil)
	assert.ErrorIs(t, err, util.ErrAssessmentNotFound)
}

func TestAssessmentQueueFullKeepsSubmissionProcessing(t *testing.T) {
	db := setupTestDB(t)
	assessment := seedTestAssessment(t, db)
	user := createTestUser(t, db, "queuefull@example.com")
	svc := newTestAssessmentService(db, &fakeScorer{}, &inlineQueue{full: true})

	submissionID, err := svc.Submit(user.ID, assessment.ID, testAnswers(assessment))
	require.NoError(t, err)

	sub, err := svc.GetResult(user.ID, submissionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionProcessing, sub.Status)
}

func TestAssessmentScoringFailureStaysProcessing(t *testing.T) {
	db := setupTestDB(t)
	assessment := seedTestAssessment(t, db)
	user := createTestUser(t, db, "scorefail@example.com")
	scorer := &fakeScorer{failFor: 99}
	svc := newTestAssessmentService(db, scorer, &inlineQueue{})
	svc.Cfg.MaxRetries = 2

	submissionID, err := svc.Submit(user.ID, assessment.ID, testAnswers(assessment))
	require.NoError(t, err)

	sub, err := svc.GetResult(user.ID, submissionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionProcessing, sub.Status)
	assert.Equal(t, 2, scorer.calls)
}

func TestAssessmentScoringRetriesTransientFailure(t *testing.T) {
	db := setupTestDB(t)
	assessment := seedTestAssessment(t, db)
	user := createTestUser(t, db, "retry@example.com")
	scorer := &fakeScorer{
		failFor: 1,
		result:  &ScoringResult{CorrectCount: 1, Level: model.LevelA1, Analysis: "Keep practicing."},
	}
	svc := newTestAssessmentService(db, scorer, &inlineQueue{})

	submissionID, err := svc.Submit(user.ID, assessment.ID, testAnswers(assessment))
	require.NoError(t, err)

	sub, err := svc.GetResult(user.ID, submissionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionComplete, sub.Status)
	assert.Equal(t, 2, scorer.calls)
}

func TestAssessmentResultOwnership(t *testing.T) {
	db := setupTestDB(t)
	assessment := seedTestAssessment(t, db)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")
	scorer := &fakeScorer{result: &ScoringResult{CorrectCount: 2, Level: model.LevelA2, Analysis: "ok"}}
	svc := newTestAssessmentService(db, scorer, &inlineQueue{})

	submissionID, err := svc.Submit(owner.ID, assessment.ID, testAnswers(assessment))
	require.NoError(t, err)

	// 他人的提交按不存在处理
	_, err = svc.GetResult(other.ID, submissionID)
	assert.ErrorIs(t, err, util.ErrSubmissionNotFound)

	_, err = svc.GetResult(owner.ID, "missing-submission")
	assert.ErrorIs(t, err, util.ErrSubmissionNotFound)
}

func TestAssessmentCompleteSubmissionWritesOnce(t *testing.T) {
	db := setupTestDB(t)
	assessment := seedTestAssessment(t, db)
	user := createTestUser(t, db, "writeonce@example.com")
	scorer := &fakeScorer{result: &ScoringResult{CorrectCount: 2, Level: model.LevelB2, Analysis: "first"}}
	svc := newTestAssessmentService(db, scorer, &inlineQueue{})

	submissionID, err := svc.Submit(user.ID, assessment.ID, testAnswers(assessment))
	require.NoError(t, err)

	// 重复处理同一提交不得覆盖已写入的结果
	scorer.result = &ScoringResult{CorrectCount: 0, Level: model.LevelA1, Analysis: "second"}
	svc.ProcessSubmission(submissionID)

	sub, err := svc.GetResult(user.ID, submissionID)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.CorrectCount)
	assert.Equal(t, model.LevelB2, sub.Level)
	assert.Equal(t, "first", sub.AIAnalysis)
}

func TestAssessmentLevelNeverDemoted(t *testing.T) {
	db := setupTestDB(t)
	assessment := seedTestAssessment(t, db)
	user := createTestUser(t, db, "demote@example.com")
	require.NoError(t, repository.NewUserRepository(db).UpdateLevel(user.ID, model.LevelC1))

	scorer := &fakeScorer{result: &ScoringResult{CorrectCount: 0, Level: model.LevelA1, Analysis: "rough day"}}
	svc := newTestAssessmentService(db, scorer, &inlineQueue{})

	_, err := svc.Submit(user.ID, assessment.ID, testAnswers(assessment))
	require.NoError(t, err)

	profile, err := svc.Users.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LevelC1, profile.CurrentLevel)
}
