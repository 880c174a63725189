package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/repository"
	"lingo_edu_backend/internal/util"
	"lingo_edu_backend/pkg/logger"
	"lingo_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobQueue 异步评分任务入口，由 worker 池实现
type JobQueue interface {
	Submit(task func()) bool
}

// AssessmentService 测评提交管线：落库 processing → 异步评分 → 一次性回写 complete
type AssessmentService struct {
	Repo   *repository.AssessmentRepository
	Users  *repository.UserRepository
	Scorer Scorer
	Jobs   JobQueue
	Cfg    config.ScoringConfig
}

func NewAssessmentService(
	repo *repository.AssessmentRepository,
	users *repository.UserRepository,
	scorer Scorer,
	jobs JobQueue,
	cfg config.ScoringConfig,
) *AssessmentService {
	return &AssessmentService{
		Repo:   repo,
		Users:  users,
		Scorer: scorer,
		Jobs:   jobs,
		Cfg:    cfg,
	}
}

type AssessmentView struct {
	AssessmentID string           `json:"assessmentId"`
	Questions    []model.Question `json:"questions"`
}

// GetDefault 返回安置测评，题目不包含标准答案
func (s *AssessmentService) GetDefault() (*AssessmentView, error) {
	a, err := s.Repo.GetDefault()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}
	return &AssessmentView{AssessmentID: a.ID, Questions: a.Questions}, nil
}

// Submit 创建 processing 状态的提交并入队评分，立刻返回提交ID
func (s *AssessmentService) Submit(userID, assessmentID string, answers []model.QuestionAnswer) (string, error) {
	assessment, err := s.Repo.FindByID(assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrAssessmentNotFound
		}
		return "", err
	}

	raw, err := json.Marshal(answers)
	if err != nil {
		return "", err
	}

	sub := &model.AssessmentSubmission{
		UserID:         userID,
		AssessmentID:   assessment.ID,
		Answers:        raw,
		Status:         model.SubmissionProcessing,
		TotalQuestions: len(assessment.Questions),
	}
	if err := s.Repo.CreateSubmission(sub); err != nil {
		return "", err
	}

	submissionID := sub.ID
	if !s.Jobs.Submit(func() { s.ProcessSubmission(submissionID) }) {
		// 队列满时提交仍然有效，保持 processing，由运维侧恢复
		logger.Log.Error("scoring queue full, submission left in processing",
			zap.String("submissionId", submissionID))
	}
	monitoring.ScoringJobs.WithLabelValues("enqueued").Inc()

	return submissionID, nil
}

// GetResult 只允许提交者本人查询，他人的提交一律按不存在处理
func (s *AssessmentService) GetResult(userID, submissionID string) (*model.AssessmentSubmission, error) {
	sub, err := s.Repo.FindSubmission(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}
	if sub.UserID != userID {
		return nil, util.ErrSubmissionNotFound
	}
	return sub, nil
}

// ProcessSubmission 调用外部评分服务并回写结果。重试耗尽后提交保持
// processing，绝不伪造成功结果。
func (s *AssessmentService) ProcessSubmission(submissionID string) {
	sub, err := s.Repo.FindSubmission(submissionID)
	if err != nil {
		logger.Log.Error("scoring: submission not found", zap.String("submissionId", submissionID), zap.Error(err))
		return
	}
	if sub.Status != model.SubmissionProcessing {
		return
	}

	questions, err := s.Repo.ListQuestions(sub.AssessmentID)
	if err != nil {
		logger.Log.Error("scoring: load questions failed", zap.String("submissionId", submissionID), zap.Error(err))
		return
	}

	var answers []model.QuestionAnswer
	if err := json.Unmarshal(sub.Answers, &answers); err != nil {
		logger.Log.Error("scoring: bad answers payload", zap.String("submissionId", submissionID), zap.Error(err))
		return
	}

	result, err := s.scoreWithRetry(questions, answers)
	if err != nil {
		monitoring.ScoringJobs.WithLabelValues("failed").Inc()
		logger.Log.Error("scoring failed, submission stays in processing",
			zap.String("submissionId", submissionID),
			zap.Error(err),
		)
		return
	}

	written, err := s.Repo.CompleteSubmission(sub.ID, result.Level, result.CorrectCount, result.Analysis)
	if err != nil {
		logger.Log.Error("scoring: writeback failed", zap.String("submissionId", submissionID), zap.Error(err))
		return
	}
	if !written {
		// 已经被完成过，结果只写一次
		return
	}

	monitoring.ScoringJobs.WithLabelValues("completed").Inc()
	s.promoteLevel(sub.UserID, result.Level)
}

func (s *AssessmentService) scoreWithRetry(questions []model.Question, answers []model.QuestionAnswer) (*ScoringResult, error) {
	attempts := s.Cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(time.Duration(i) * time.Second)
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.Cfg.RequestTimeout)
		result, err := s.Scorer.Score(ctx, questions, answers)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// promoteLevel 等级只升不降
func (s *AssessmentService) promoteLevel(userID string, level model.Level) {
	profile, err := s.Users.GetProfile(userID)
	if err != nil {
		logger.Log.Error("scoring: load profile failed", zap.String("userId", userID), zap.Error(err))
		return
	}
	if !level.After(profile.CurrentLevel) {
		return
	}
	if err := s.Users.UpdateLevel(userID, level); err != nil {
		logger.Log.Error("scoring: level update failed", zap.String("userId", userID), zap.Error(err))
	}
}
