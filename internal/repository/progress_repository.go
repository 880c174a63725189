package repository

import (
	"lingo_edu_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRepository 对 (user, module) / (user, topic) 进度行的原子操作。
// 去重依赖复合唯一索引而不是应用层加锁，状态推进全部走带条件的单行 UPDATE。
type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// EnsureModuleRows 懒物化模块进度行，冲突时静默跳过，幂等
func (r *ProgressRepository) EnsureModuleRows(rows []model.UserModuleProgress) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// EnsureTopicRow 懒物化话题进度行，冲突即已存在
func (r *ProgressRepository) EnsureTopicRow(row *model.UserTopicProgress) error {
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (r *ProgressRepository) GetModuleProgress(userID string, moduleID uint) (*model.UserModuleProgress, error) {
	var p model.UserModuleProgress
	err := r.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) ListModuleProgress(userID string) ([]model.UserModuleProgress, error) {
	var rows []model.UserModuleProgress
	err := r.DB.Where("user_id = ?", userID).Find(&rows).Error
	return rows, err
}

func (r *ProgressRepository) ListTopicProgress(userID string) ([]model.UserTopicProgress, error) {
	var rows []model.UserTopicProgress
	err := r.DB.Where("user_id = ?", userID).Find(&rows).Error
	return rows, err
}

// ActivateModule locked → active，返回是否真的发生了转移
func (r *ProgressRepository) ActivateModule(userID string, moduleID uint) (bool, error) {
	res := r.DB.Model(&model.UserModuleProgress{}).
		Where("user_id = ? AND module_id = ? AND status = ?", userID, moduleID, model.StatusLocked).
		Update("status", model.StatusActive)
	return res.RowsAffected > 0, res.Error
}

// CompleteTopic active/locked → completed，状态不回退
func (r *ProgressRepository) CompleteTopic(tx *gorm.DB, userID string, topicID uint) (bool, error) {
	res := tx.Model(&model.UserTopicProgress{}).
		Where("user_id = ? AND topic_id = ? AND status <> ?", userID, topicID, model.StatusCompleted).
		Update("status", model.StatusCompleted)
	return res.RowsAffected > 0, res.Error
}

// RaiseTopicStars 星级只升不降，返回提升量
func (r *ProgressRepository) RaiseTopicStars(tx *gorm.DB, userID string, topicID uint, stars int) (int, error) {
	var current model.UserTopicProgress
	if err := tx.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&current).Error; err != nil {
		return 0, err
	}
	if stars <= current.Stars {
		return 0, nil
	}
	res := tx.Model(&model.UserTopicProgress{}).
		Where("user_id = ? AND topic_id = ? AND stars < ?", userID, topicID, stars).
		Update("stars", stars)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// 并发请求抢先写入了更高星级
		return 0, nil
	}
	return stars - current.Stars, nil
}

// CompleteModule 模块完成是终态，重复调用无效果
func (r *ProgressRepository) CompleteModule(tx *gorm.DB, userID string, moduleID uint, finalScore int) (bool, error) {
	res := tx.Model(&model.UserModuleProgress{}).
		Where("user_id = ? AND module_id = ? AND status <> ?", userID, moduleID, model.StatusCompleted).
		Updates(map[string]interface{}{
			"status":      model.StatusCompleted,
			"final_score": finalScore,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *ProgressRepository) CountCompletedTopics(tx *gorm.DB, userID string, topicIDs []uint) (int64, error) {
	var count int64
	err := tx.Model(&model.UserTopicProgress{}).
		Where("user_id = ? AND topic_id IN ? AND status = ?", userID, topicIDs, model.StatusCompleted).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) CountCompletedTopicsAll(userID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserTopicProgress{}).
		Where("user_id = ? AND status = ?", userID, model.StatusCompleted).
		Count(&count).Error
	return count, err
}

// ModuleFinalScore 模块下话题星级均值换算的最终得分 (0..100)
func (r *ProgressRepository) ModuleFinalScore(tx *gorm.DB, userID string, topicIDs []uint) (int, error) {
	var rows []model.UserTopicProgress
	if err := tx.Where("user_id = ? AND topic_id IN ?", userID, topicIDs).Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	total := 0
	for _, row := range rows {
		total += row.Stars
	}
	return total * 100 / (3 * len(rows)), nil
}
