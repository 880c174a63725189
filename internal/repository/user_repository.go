package repository

import (
	"lingo_edu_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// CreateWithProfile 用户与档案在同一事务内创建，保证恰好一份档案
func (r *UserRepository) CreateWithProfile(user *model.User) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile := &model.UserProfile{
			UserID:       user.ID,
			CurrentLevel: model.LevelA1,
		}
		return tx.Create(profile).Error
	})
}

func (r *UserRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) GetProfile(userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.DB.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *UserRepository) SaveProfile(profile *model.UserProfile) error {
	return r.DB.Save(profile).Error
}

func (r *UserRepository) UsernameTaken(username string, excludeUserID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.UserProfile{}).
		Where("username = ? AND user_id <> ?", username, excludeUserID).
		Count(&count).Error
	return count > 0, err
}

// IncrementCompletedModules 模块完成时在进度事务内调用
func (r *UserRepository) IncrementCompletedModules(tx *gorm.DB, userID string) error {
	return tx.Model(&model.UserProfile{}).
		Where("user_id = ?", userID).
		Update("completed_modules", gorm.Expr("completed_modules + 1")).
		Error
}

// AddStars 星级只增不减，写入差值
func (r *UserRepository) AddStars(tx *gorm.DB, userID string, delta int) error {
	if delta <= 0 {
		return nil
	}
	return tx.Model(&model.UserProfile{}).
		Where("user_id = ?", userID).
		Update("total_stars", gorm.Expr("total_stars + ?", delta)).
		Error
}

func (r *UserRepository) UpdateLevel(userID string, level model.Level) error {
	return r.DB.Model(&model.UserProfile{}).
		Where("user_id = ?", userID).
		Update("current_level", level).
		Error
}
