package service

import (
	"context"
	"errors"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/repository"
	"lingo_edu_backend/internal/util"
	"lingo_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UnlockPolicy 决定模块进度行首次物化时的初始状态。
// 返回 true 表示该序号的模块无需解锁直接进入 active。
type UnlockPolicy func(moduleOrder int) bool

// PolicyFirstN 前 n 个模块默认解锁，其余锁定
func PolicyFirstN(n int) UnlockPolicy {
	return func(moduleOrder int) bool {
		return moduleOrder <= n
	}
}

// PaymentVerifier 模块解锁的外部支付凭证校验
type PaymentVerifier interface {
	VerifyToken(ctx context.Context, userID string, moduleID uint, token string) error
}

// ProgressService 按账号维护课程节点上的状态机：
// locked → active → completed，永不回退。
type ProgressService struct {
	Curriculum *repository.CurriculumRepository
	Progress   *repository.ProgressRepository
	Users      *repository.UserRepository
	Payments   PaymentVerifier
	Policy     UnlockPolicy
	Cfg        config.ProgressConfig
	DB         *gorm.DB
}

func NewProgressService(
	curriculum *repository.CurriculumRepository,
	progress *repository.ProgressRepository,
	users *repository.UserRepository,
	payments PaymentVerifier,
	policy UnlockPolicy,
	cfg config.ProgressConfig,
	db *gorm.DB,
) *ProgressService {
	return &ProgressService{
		Curriculum: curriculum,
		Progress:   progress,
		Users:      users,
		Payments:   payments,
		Policy:     policy,
		Cfg:        cfg,
		DB:         db,
	}
}

type TopicView struct {
	ID     uint                 `json:"id"`
	Title  string               `json:"title"`
	Stars  int                  `json:"stars"`
	Status model.ProgressStatus `json:"status"`
}

type ModuleView struct {
	ID         uint                 `json:"id"`
	Title      string               `json:"title"`
	Status     model.ProgressStatus `json:"status"`
	FinalScore *int                 `json:"finalScore"`
	Topics     []TopicView          `json:"topics"`
}

// Bootstrap 懒物化模块进度行，幂等。初始状态由 Policy 决定。
// 去重交给 (user_id, module_id) 唯一索引，并发重复请求不会产生多余行。
func (s *ProgressService) Bootstrap(userID string) error {
	modules, err := s.Curriculum.ListModulesWithTopics()
	if err != nil {
		return err
	}

	rows := make([]model.UserModuleProgress, 0, len(modules))
	for _, m := range modules {
		status := model.StatusLocked
		if s.Policy(m.Order) {
			status = model.StatusActive
		}
		rows = append(rows, model.UserModuleProgress{
			UserID:   userID,
			ModuleID: m.ID,
			Status:   status,
		})
	}
	return s.Progress.EnsureModuleRows(rows)
}

// ListModules 派生当前进度视图，纯读、无副作用。
// 缺失的话题进度行按 locked、零星级展示。
func (s *ProgressService) ListModules(userID string) ([]ModuleView, error) {
	modules, err := s.Curriculum.ListModulesWithTopics()
	if err != nil {
		return nil, err
	}

	moduleRows, err := s.Progress.ListModuleProgress(userID)
	if err != nil {
		return nil, err
	}
	moduleMap := make(map[uint]*model.UserModuleProgress, len(moduleRows))
	for i := range moduleRows {
		moduleMap[moduleRows[i].ModuleID] = &moduleRows[i]
	}

	topicRows, err := s.Progress.ListTopicProgress(userID)
	if err != nil {
		return nil, err
	}
	topicMap := make(map[uint]*model.UserTopicProgress, len(topicRows))
	for i := range topicRows {
		topicMap[topicRows[i].TopicID] = &topicRows[i]
	}

	views := make([]ModuleView, 0, len(modules))
	for _, m := range modules {
		view := ModuleView{
			ID:     m.ID,
			Title:  m.Title,
			Status: model.StatusLocked,
		}
		if row, ok := moduleMap[m.ID]; ok {
			view.Status = row.Status
			view.FinalScore = row.FinalScore
		}
		for _, t := range m.Topics {
			tv := TopicView{ID: t.ID, Title: t.Title, Status: model.StatusLocked}
			if row, ok := topicMap[t.ID]; ok {
				tv.Stars = row.Stars
				tv.Status = row.Status
			}
			view.Topics = append(view.Topics, tv)
		}
		views = append(views, view)
	}
	return views, nil
}

type UnlockResult struct {
	ModuleID  uint                 `json:"moduleId"`
	NewStatus model.ProgressStatus `json:"newStatus"`
}

// UnlockModule locked → active。支付凭证校验失败时不发生任何状态变化。
func (s *ProgressService) UnlockModule(ctx context.Context, userID string, moduleID uint, paymentToken string) (*UnlockResult, error) {
	module, err := s.Curriculum.FindModule(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}

	status := model.StatusLocked
	if s.Policy(module.Order) {
		status = model.StatusActive
	}
	if err := s.Progress.EnsureModuleRows([]model.UserModuleProgress{
		{UserID: userID, ModuleID: module.ID, Status: status},
	}); err != nil {
		return nil, err
	}

	progress, err := s.Progress.GetModuleProgress(userID, module.ID)
	if err != nil {
		return nil, err
	}
	if progress.Status != model.StatusLocked {
		return nil, util.ErrModuleAlreadyUnlocked
	}

	// 先验证支付，失败则转移不发生
	if err := s.Payments.VerifyToken(ctx, userID, module.ID, paymentToken); err != nil {
		return nil, err
	}

	changed, err := s.Progress.ActivateModule(userID, module.ID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// 并发请求抢先完成了解锁
		return nil, util.ErrModuleAlreadyUnlocked
	}

	logger.Log.Info("module unlocked",
		zap.String("userId", userID),
		zap.Uint("moduleId", module.ID),
	)
	return &UnlockResult{ModuleID: module.ID, NewStatus: model.StatusActive}, nil
}

type ExerciseOutcome struct {
	TopicCompleted  bool
	ModuleCompleted bool
	StarsDelta      int
}

// ApplyExerciseOutcome 练习判分结果驱动的状态推进，整个推进在单个事务内：
// 正确率达标时话题 active → completed；模块下全部话题完成时模块 completed，
// Profile.completedModules 递增、星级差值入账。
func (s *ProgressService) ApplyExerciseOutcome(userID string, topic *model.Topic, accuracy float64, stars int) (*ExerciseOutcome, error) {
	if err := s.Progress.EnsureTopicRow(&model.UserTopicProgress{
		UserID:  userID,
		TopicID: topic.ID,
		Status:  model.StatusActive,
	}); err != nil {
		return nil, err
	}

	outcome := &ExerciseOutcome{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		delta, err := s.Progress.RaiseTopicStars(tx, userID, topic.ID, stars)
		if err != nil {
			return err
		}
		outcome.StarsDelta = delta
		if err := s.Users.AddStars(tx, userID, delta); err != nil {
			return err
		}

		if accuracy < s.Cfg.PassAccuracy {
			return nil
		}

		completed, err := s.Progress.CompleteTopic(tx, userID, topic.ID)
		if err != nil {
			return err
		}
		outcome.TopicCompleted = completed
		if !completed {
			return nil
		}

		topics, err := s.Curriculum.ListTopicsByModule(topic.ModuleID)
		if err != nil {
			return err
		}
		topicIDs := make([]uint, len(topics))
		for i, t := range topics {
			topicIDs[i] = t.ID
		}

		doneCount, err := s.Progress.CountCompletedTopics(tx, userID, topicIDs)
		if err != nil {
			return err
		}
		if doneCount < int64(len(topicIDs)) {
			return nil
		}

		finalScore, err := s.Progress.ModuleFinalScore(tx, userID, topicIDs)
		if err != nil {
			return err
		}
		moduleDone, err := s.Progress.CompleteModule(tx, userID, topic.ModuleID, finalScore)
		if err != nil {
			return err
		}
		outcome.ModuleCompleted = moduleDone
		if moduleDone {
			if err := s.Users.IncrementCompletedModules(tx, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.ModuleCompleted {
		logger.Log.Info("module completed",
			zap.String("userId", userID),
			zap.Uint("moduleId", topic.ModuleID),
		)
	}
	return outcome, nil
}
